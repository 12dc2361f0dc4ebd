package fetcher

import (
	"context"
	"time"

	"github.com/karupanerura/fetchstate/expiration"
)

// Option is the interface for the options of the Fetcher.
type Option[T comparable, R, D any] interface {
	apply(*Fetcher[T, R, D])
}

type optionFunc[T comparable, R, D any] func(*Fetcher[T, R, D])

func (f optionFunc[T, R, D]) apply(l *Fetcher[T, R, D]) {
	f(l)
}

// WithCacheKey sets the function deriving the cache key of a request.
func WithCacheKey[T comparable, R, D any](key func(R) string) Option[T, R, D] {
	return optionFunc[T, R, D](func(f *Fetcher[T, R, D]) {
		f.cacheKey = key
	})
}

// WithTTL sets the lifetime requested for cached entries.
// A zero TTL keeps the expiration already stored for the key.
func WithTTL[T comparable, R, D any](ttl time.Duration) Option[T, R, D] {
	return optionFunc[T, R, D](func(f *Fetcher[T, R, D]) {
		f.ttl = ttl
	})
}

// WithPersisted sets the persistence flag of cached entries.
func WithPersisted[T comparable, R, D any](persisted bool) Option[T, R, D] {
	return optionFunc[T, R, D](func(f *Fetcher[T, R, D]) {
		f.persisted = persisted
	})
}

// WithPolicy sets the policy deciding whether a cached entry is stale.
// The default policy is expiration.GeneralPolicy.
func WithPolicy[T comparable, R, D any](policy expiration.Policy) Option[T, R, D] {
	return optionFunc[T, R, D](func(f *Fetcher[T, R, D]) {
		f.policy = policy
	})
}

// WithClock sets the clock used to judge cached entries.
// The default clock is expiration.SystemClock.
func WithClock[T comparable, R, D any](clock expiration.Clock) Option[T, R, D] {
	return optionFunc[T, R, D](func(f *Fetcher[T, R, D]) {
		f.clock = clock
	})
}

// WithBackgroundContextProvider sets the provider of the context used by
// Source calls shared between callers. The provider must return a new
// context for each call. The default provider is context.Background.
func WithBackgroundContextProvider[T comparable, R, D any](provider func() context.Context) Option[T, R, D] {
	return optionFunc[T, R, D](func(f *Fetcher[T, R, D]) {
		f.context = provider
	})
}

// WithConcurrency limits the number of concurrent Source calls of FetchMulti.
// A non-positive limit means no limit.
func WithConcurrency[T comparable, R, D any](n int) Option[T, R, D] {
	return optionFunc[T, R, D](func(f *Fetcher[T, R, D]) {
		f.concurrency = n
	})
}
