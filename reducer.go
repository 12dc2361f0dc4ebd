package fetchstate

import (
	"maps"

	"github.com/karupanerura/fetchstate/expiration"
)

// Reducer is the state-transition function of one resource.
// It holds no mutable state and is safe for concurrent use.
type Reducer[T comparable, R, D any] struct {
	initial  State[R, D]
	actions  Actions[T]
	table    tagTable[T]
	fallback Fallback[T, R, D]
	merger   expiration.Merger
	cloner   ValueCloner[D]
}

// New creates a Reducer starting from initial and recognizing the tags of actions.
// Zero-valued tags of actions are left unbound; bind them with WithTag.
// It panics if two events share a tag.
func New[T comparable, R, D any](initial State[R, D], actions Actions[T], opts ...Option[T, R, D]) *Reducer[T, R, D] {
	r := &Reducer[T, R, D]{
		initial: initial,
		actions: actions,
		table:   actions.resolve(),
	}
	for _, opt := range opts {
		opt.apply(r)
	}
	if r.merger == nil {
		r.merger = expiration.Resolver{Clock: expiration.SystemClock}
	}
	if r.cloner == nil {
		r.cloner = NopValueCloner[D]{}
	}
	return r
}

// Initial returns a fresh copy of the initial state.
// Its Request and Cache are copies, and its Data is copied by the data cloner.
func (r *Reducer[T, R, D]) Initial() *State[R, D] {
	s := r.initial
	if s.Request != nil {
		req := *s.Request
		s.Request = &req
	}
	s.Cache = maps.Clone(s.Cache)
	s.Data = r.cloner.CloneValue(s.Data)
	return &s
}

// Actions returns the Actions table the reducer was built with,
// including the tags bound by WithTag.
func (r *Reducer[T, R, D]) Actions() Actions[T] {
	return r.actions
}

// Kind returns the kind bound to tag, or KindUnknown.
func (r *Reducer[T, R, D]) Kind(tag T) Kind {
	return r.table.kinds[tag]
}

// Tag returns the tag bound to kind.
func (r *Reducer[T, R, D]) Tag(kind Kind) (T, bool) {
	tag, ok := r.table.tags[kind]
	return tag, ok
}

// Func returns Reduce as a plain function value.
func (r *Reducer[T, R, D]) Func() func(*State[R, D], Event[T, R, D]) *State[R, D] {
	return r.Reduce
}

// Reduce applies ev to state and returns the next state.
// A nil state stands for the initial state. The input state is never
// modified; an event with an unbound tag is passed to the fallback if
// there is one, otherwise state itself is returned.
func (r *Reducer[T, R, D]) Reduce(state *State[R, D], ev Event[T, R, D]) *State[R, D] {
	if state == nil {
		state = r.Initial()
	}

	kind, ok := r.table.kinds[ev.Type]
	if !ok {
		if r.fallback != nil {
			return r.fallback.Reduce(state, ev)
		}
		return state
	}

	next := *state
	switch kind {
	case KindFetch:
		next.Request = ev.Request
		if next.Request == nil {
			next.Request = new(R)
		}
		next.Loading = true
		next.Err = nil
		next.Syncing = ev.Syncing

	case KindSuccess:
		next.Loading = false
		next.Sync = true
		next.Syncing = false
		next.Err = nil
		next.Data = ev.Data

	case KindFail:
		next.Loading = false
		next.Syncing = false
		next.Err = ev.Err

	case KindAbort:
		next.Request = nil
		next.Loading = false
		next.Syncing = false
		next.Err = ev.Err

	case KindReset:
		if ev.Mutation != MutationSync {
			return r.Initial()
		}
		next.Request = nil
		next.Sync = false

	case KindCache:
		next.Cache = r.storeEntry(state.Cache, ev)
	}
	return &next
}

// storeEntry returns a copy of cache with the entry of ev stored.
func (r *Reducer[T, R, D]) storeEntry(cache Cache[D], ev Event[T, R, D]) Cache[D] {
	var previous expiration.Expiration
	if e, ok := cache[ev.ID]; ok {
		previous = e.Expire
	}

	next := make(Cache[D], len(cache)+1)
	maps.Copy(next, cache)
	next[ev.ID] = CacheEntry[D]{
		Expire:    r.merger.Merge(ev.Expire, previous),
		Data:      ev.Data,
		Persisted: ev.Persisted,
	}
	return next
}
