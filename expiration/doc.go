// Package expiration decides when cached fetch results stop being fresh.
//
// It holds the two halves of expiration handling used by the reducer:
//
//   - Merger computes the expiration to store for a cache key from the
//     requested expiration and the one previously stored under that key.
//   - Policy interprets a stored expiration at read time.
//
// Clock abstracts the current time so that relative expirations can be
// resolved deterministically in tests.
package expiration
