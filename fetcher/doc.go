// Package fetcher drives the fetch lifecycle of a store.Store.
//
// A Fetcher calls a Source and reports every step to the store as events:
// Fetch before the call, then Success and Cache, Fail, or Abort when the
// caller's context ended. Requests sharing a cache key are served from the
// store's cache while the entry is fresh, and concurrent loads of one key
// are collapsed into a single Source call.
//
// The Fetcher can be configured with options:
//   - WithCacheKey: derive the cache key of a request; without it nothing is cached
//   - WithTTL / WithPersisted: the expiration and persistence flag of cached entries
//   - WithPolicy / WithClock: how cached entries are judged fresh
//   - WithBackgroundContextProvider: the context of shared Source calls
//   - WithConcurrency: the parallelism of FetchMulti
package fetcher
