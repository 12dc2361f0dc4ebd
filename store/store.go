package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/sourcegraph/conc/panics"

	"github.com/karupanerura/fetchstate"
	"github.com/karupanerura/fetchstate/internal/ctxsync"
	"github.com/karupanerura/fetchstate/internal/panicutil"
)

// ErrNilState is returned by Dispatch when a fallback returns a nil state.
var ErrNilState = errors.New("store: reducer returned nil state")

// Subscriber is called after a dispatched event changed the state.
type Subscriber[R, D any] func(prev, next *fetchstate.State[R, D])

// Store serializes events into a reducer and keeps the resulting state.
// It is safe for concurrent use.
type Store[T comparable, R, D any] struct {
	reducer *fetchstate.Reducer[T, R, D]
	equal   func(a, b *fetchstate.State[R, D]) bool
	cmpOpts []cmp.Option
	logger  *slog.Logger

	mu     sync.Mutex
	locker ctxsync.Locker
	cond   ctxsync.Cond
	state  *fetchstate.State[R, D]

	subMu       sync.RWMutex
	subscribers map[uint64]Subscriber[R, D]
	nextID      uint64
}

// New creates a Store for the reducer.
func New[T comparable, R, D any](reducer *fetchstate.Reducer[T, R, D], opts ...Option[T, R, D]) *Store[T, R, D] {
	s := &Store[T, R, D]{
		reducer:     reducer,
		subscribers: map[uint64]Subscriber[R, D]{},
	}
	s.locker = ctxsync.Locker{Locker: &s.mu}
	s.cond = ctxsync.Cond{Cond: sync.NewCond(&s.mu)}
	for _, opt := range opts {
		opt.apply(s)
	}
	if s.state == nil {
		s.state = reducer.Initial()
	}
	if s.equal == nil {
		s.equal = s.cmpEqual
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Reducer returns the reducer of the store.
func (s *Store[T, R, D]) Reducer() *fetchstate.Reducer[T, R, D] {
	return s.reducer
}

// State returns the current state. The returned state must not be modified.
func (s *Store[T, R, D]) State() *fetchstate.State[R, D] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Dispatch applies ev to the current state and returns the new state.
//
// It waits for the store lock until ctx ends. If the reducer panics, which
// can only happen inside a caller-supplied fallback, the state is left
// unchanged and the panic is returned as *panics.ErrRecovered.
func (s *Store[T, R, D]) Dispatch(ctx context.Context, ev fetchstate.Event[T, R, D]) (*fetchstate.State[R, D], error) {
	if err := s.locker.LockCtx(ctx); err != nil {
		return nil, err
	}

	// a fallback calling runtime.Goexit must not leave the store locked
	dds := panicutil.DoubleDeferSandwich{OnGoexit: s.mu.Unlock}

	prev := s.state
	var next *fetchstate.State[R, D]
	if err := dds.Invoke(func() error {
		next = s.reducer.Reduce(prev, ev)
		return nil
	}); err != nil {
		s.mu.Unlock()
		return prev, fmt.Errorf("store: reduce %v: %w", ev.Type, err)
	}
	if next == nil {
		s.mu.Unlock()
		return prev, ErrNilState
	}

	s.state = next
	s.cond.Broadcast()
	s.mu.Unlock()

	if !s.equalStates(prev, next) {
		s.notify(prev, next)
	}
	return next, nil
}

// DispatchJSON decodes an event from its JSON form and dispatches it.
func (s *Store[T, R, D]) DispatchJSON(ctx context.Context, b []byte) (*fetchstate.State[R, D], error) {
	var ev fetchstate.Event[T, R, D]
	if err := json.Unmarshal(b, &ev); err != nil {
		return nil, fmt.Errorf("store: decode event: %w", err)
	}
	return s.Dispatch(ctx, ev)
}

// Subscribe registers fn to be called after every change.
// Subscribers run outside the store lock and may dispatch.
// The returned function removes the subscription.
func (s *Store[T, R, D]) Subscribe(fn Subscriber[R, D]) (cancel func()) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	id := s.nextID
	s.nextID++
	s.subscribers[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subMu.Lock()
			defer s.subMu.Unlock()
			delete(s.subscribers, id)
		})
	}
}

// Wait blocks until pred holds for the current state and returns that state.
// It returns the context error if ctx ends first, and a panic in pred as
// *panics.ErrRecovered.
func (s *Store[T, R, D]) Wait(ctx context.Context, pred func(*fetchstate.State[R, D]) bool) (*fetchstate.State[R, D], error) {
	if err := s.locker.LockCtx(ctx); err != nil {
		return nil, err
	}

	dds := panicutil.DoubleDeferSandwich{OnGoexit: s.mu.Unlock}
	for {
		var ok bool
		if err := dds.Invoke(func() error {
			ok = pred(s.state)
			return nil
		}); err != nil {
			s.mu.Unlock()
			return nil, fmt.Errorf("store: wait predicate: %w", err)
		}
		if ok {
			break
		}
		if err := s.cond.WaitCtx(ctx); err != nil {
			// the lock has been given up by WaitCtx
			return nil, err
		}
	}
	state := s.state
	s.mu.Unlock()
	return state, nil
}

func (s *Store[T, R, D]) notify(prev, next *fetchstate.State[R, D]) {
	s.subMu.RLock()
	subscribers := make([]Subscriber[R, D], 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		subscribers = append(subscribers, fn)
	}
	s.subMu.RUnlock()

	for _, fn := range subscribers {
		var c panics.Catcher
		c.Try(func() { fn(prev, next) })
		if r := c.Recovered(); r != nil {
			s.logger.Error("store: subscriber panicked", slog.Any("panic", r.Value), slog.String("stack", string(r.Stack)))
		}
	}
}

func (s *Store[T, R, D]) equalStates(a, b *fetchstate.State[R, D]) bool {
	if a == b {
		return true
	}

	var equal bool
	if r := panics.Try(func() { equal = s.equal(a, b) }); r != nil {
		s.logger.Warn("store: state comparison panicked, treating states as different", slog.Any("panic", r.Value))
		return false
	}
	return equal
}

func (s *Store[T, R, D]) cmpEqual(a, b *fetchstate.State[R, D]) bool {
	opts := append([]cmp.Option{cmpopts.EquateErrors(), cmpopts.EquateEmpty()}, s.cmpOpts...)
	return cmp.Equal(a, b, opts...)
}
