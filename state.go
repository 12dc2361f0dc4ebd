package fetchstate

import (
	"iter"
	"maps"
	"slices"
	"time"

	"github.com/karupanerura/fetchstate/expiration"
)

// State is the value threaded through a Reducer.
// A Reducer never modifies a State it receives; it returns a new one.
type State[R, D any] struct {
	// Request describes the in-flight or most recent request.
	// It is nil when there is none.
	Request *R

	// Loading is true while a fetch is outstanding.
	Loading bool

	// Syncing is true while the outstanding fetch refreshes data already present.
	Syncing bool

	// Sync is true once a fetch has succeeded since the last reset.
	Sync bool

	// Err is the last error, or nil.
	Err error

	// Data is the last successfully fetched payload.
	Data D

	// Cache holds previously fetched payloads by cache key.
	Cache Cache[D]
}

// Cache maps cache keys to entries.
// It is replaced, never modified, by a Reducer.
type Cache[D any] map[string]CacheEntry[D]

// CacheEntry is a cached payload.
type CacheEntry[D any] struct {
	// Expire is when the entry becomes stale. The zero value never expires.
	Expire expiration.Expiration

	// Data is the payload cached under the key.
	Data D

	// Persisted marks the entry as durable for external persistence logic.
	Persisted bool
}

// IsExpired reports whether the entry is stale at now according to the policy.
func (e CacheEntry[D]) IsExpired(now time.Time, policy expiration.Policy) bool {
	return e.Expire.IsExpired(now, policy)
}

// Entry returns the cache entry stored under key.
func (s *State[R, D]) Entry(key string) (CacheEntry[D], bool) {
	e, ok := s.Cache[key]
	return e, ok
}

// Cached returns the data cached under key if it is present and not expired.
func (s *State[R, D]) Cached(key string, now time.Time, policy expiration.Policy) (D, bool) {
	e, ok := s.Cache[key]
	if !ok || e.IsExpired(now, policy) {
		var zero D
		return zero, false
	}
	return e.Data, true
}

// CacheKeys returns the cache keys in ascending order.
func (s *State[R, D]) CacheKeys() iter.Seq[string] {
	return slices.Values(slices.Sorted(maps.Keys(s.Cache)))
}
