package hub

import (
	"context"
	"errors"
	"iter"
	"sync"

	"github.com/karupanerura/fetchstate"
	"github.com/karupanerura/fetchstate/internal/keyhash"
	"github.com/karupanerura/fetchstate/store"
)

type bucket[K comparable, T comparable, R, D any] struct {
	m  map[K]*store.Store[T, R, D]
	mu sync.RWMutex
}

type keyedStore[K comparable, T comparable, R, D any] struct {
	key   K
	store *store.Store[T, R, D]
}

// Hub holds one store per key.
// It is safe for concurrent use.
type Hub[K comparable, T comparable, R, D any] struct {
	factory func(K) *store.Store[T, R, D]
	buckets []*bucket[K, T, R, D]
	hashKey func(K) int
}

// New creates a Hub creating stores with factory.
// Without WithKeyHash, K must have a string, boolean or integer underlying type.
func New[K comparable, T comparable, R, D any](factory func(K) *store.Store[T, R, D], opts ...Option[K]) *Hub[K, T, R, D] {
	o := options[K]{bucketsSize: DefaultBucketsSize}
	for _, opt := range opts {
		opt.apply(&o)
	}
	if o.hashKey == nil {
		o.hashKey = keyhash.For[K]()
	}

	buckets := make([]*bucket[K, T, R, D], o.bucketsSize)
	for i := range buckets {
		buckets[i] = &bucket[K, T, R, D]{m: map[K]*store.Store[T, R, D]{}}
	}
	return &Hub[K, T, R, D]{
		factory: factory,
		buckets: buckets,
		hashKey: o.hashKey,
	}
}

// resolveBucket returns the bucket that corresponds to the given key.
func (h *Hub[K, T, R, D]) resolveBucket(key K) *bucket[K, T, R, D] {
	index := h.hashKey(key) % len(h.buckets)
	if index < 0 {
		index *= -1
	}
	return h.buckets[index]
}

// Store returns the store of key, creating it on first use.
func (h *Hub[K, T, R, D]) Store(key K) *store.Store[T, R, D] {
	b := h.resolveBucket(key)

	b.mu.RLock()
	s, ok := b.m[key]
	b.mu.RUnlock()
	if ok {
		return s
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if s, ok := b.m[key]; ok {
		return s
	}
	s = h.factory(key)
	b.m[key] = s
	return s
}

// Lookup returns the store of key if it exists.
func (h *Hub[K, T, R, D]) Lookup(key K) (*store.Store[T, R, D], bool) {
	b := h.resolveBucket(key)
	b.mu.RLock()
	defer b.mu.RUnlock()
	s, ok := b.m[key]
	return s, ok
}

// Remove discards the store of key. It reports whether a store existed.
func (h *Hub[K, T, R, D]) Remove(key K) bool {
	b := h.resolveBucket(key)
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.m[key]
	delete(b.m, key)
	return ok
}

// Dispatch dispatches ev to the store of key, creating it on first use.
func (h *Hub[K, T, R, D]) Dispatch(ctx context.Context, key K, ev fetchstate.Event[T, R, D]) (*fetchstate.State[R, D], error) {
	return h.Store(key).Dispatch(ctx, ev)
}

// Broadcast dispatches ev to every existing store.
// All stores are tried; the errors are joined.
func (h *Hub[K, T, R, D]) Broadcast(ctx context.Context, ev fetchstate.Event[T, R, D]) error {
	var errs []error
	for _, s := range h.All() {
		if _, err := s.Dispatch(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// All returns the existing stores by key.
// The stores are listed bucket by bucket, without a stable order.
func (h *Hub[K, T, R, D]) All() iter.Seq2[K, *store.Store[T, R, D]] {
	return func(yield func(K, *store.Store[T, R, D]) bool) {
		for _, b := range h.buckets {
			b.mu.RLock()
			entries := make([]keyedStore[K, T, R, D], 0, len(b.m))
			for k, s := range b.m {
				entries = append(entries, keyedStore[K, T, R, D]{key: k, store: s})
			}
			b.mu.RUnlock()

			for _, e := range entries {
				if !yield(e.key, e.store) {
					return
				}
			}
		}
	}
}
