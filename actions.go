package fetchstate

import "fmt"

// Kind is a lifecycle event recognized by a Reducer.
type Kind uint8

const (
	// KindUnknown is the kind of a tag that is not bound in the Actions table.
	KindUnknown Kind = iota
	KindFetch
	KindSuccess
	KindFail
	KindReset
	KindCache
	KindAbort
)

// String returns the name of the kind.
func (k Kind) String() string {
	switch k {
	case KindFetch:
		return "Fetch"
	case KindSuccess:
		return "Success"
	case KindFail:
		return "Fail"
	case KindReset:
		return "Reset"
	case KindCache:
		return "Cache"
	case KindAbort:
		return "Abort"
	default:
		return "Unknown"
	}
}

// Actions maps the lifecycle events onto caller-chosen tags.
// A zero-valued tag leaves the event unbound; use WithTag to bind a zero
// value such as the first constant of an iota enum.
type Actions[T comparable] struct {
	Fetch   T
	Success T
	Fail    T
	Reset   T
	Cache   T
	Abort   T
}

// tagTable is the resolved form of an Actions table.
type tagTable[T comparable] struct {
	kinds map[T]Kind
	tags  map[Kind]T
}

// resolve validates the table and indexes it by tag.
// It panics if two kinds share a tag.
func (a Actions[T]) resolve() tagTable[T] {
	var zero T
	t := tagTable[T]{
		kinds: make(map[T]Kind, 6),
		tags:  make(map[Kind]T, 6),
	}
	for _, b := range []struct {
		kind Kind
		tag  T
	}{
		{KindFetch, a.Fetch},
		{KindSuccess, a.Success},
		{KindFail, a.Fail},
		{KindReset, a.Reset},
		{KindCache, a.Cache},
		{KindAbort, a.Abort},
	} {
		if b.tag == zero {
			continue
		}
		if other, ok := t.kinds[b.tag]; ok {
			panic(fmt.Sprintf("fetchstate: tag %v is bound to both %s and %s", b.tag, other, b.kind))
		}
		t.kinds[b.tag] = b.kind
		t.tags[b.kind] = b.tag
	}
	return t
}

// bind binds kind to tag, replacing the previous tag of kind.
// It panics if kind is not a lifecycle event or tag is bound to another kind.
func (t *tagTable[T]) bind(kind Kind, tag T) {
	if kind <= KindUnknown || kind > KindAbort {
		panic(fmt.Sprintf("fetchstate: cannot bind tag %v to %s", tag, kind))
	}
	if other, ok := t.kinds[tag]; ok && other != kind {
		panic(fmt.Sprintf("fetchstate: tag %v is bound to both %s and %s", tag, other, kind))
	}
	if old, ok := t.tags[kind]; ok {
		delete(t.kinds, old)
	}
	t.kinds[tag] = kind
	t.tags[kind] = tag
}

// set returns a copy of a with the field of kind set to tag.
func (a Actions[T]) set(kind Kind, tag T) Actions[T] {
	switch kind {
	case KindFetch:
		a.Fetch = tag
	case KindSuccess:
		a.Success = tag
	case KindFail:
		a.Fail = tag
	case KindReset:
		a.Reset = tag
	case KindCache:
		a.Cache = tag
	case KindAbort:
		a.Abort = tag
	}
	return a
}
