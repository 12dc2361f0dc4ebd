package fetchstate

import "github.com/karupanerura/fetchstate/expiration"

// MutationSync selects the partial Reset that only clears Request and Sync.
const MutationSync = "sync"

// Event is a tagged record dispatched into a Reducer.
// Which fields are read depends on the kind bound to Type.
type Event[T comparable, R, D any] struct {
	// Type is the discriminator tag.
	Type T

	// Request is stored by Fetch. A nil Request is stored as a new zero R.
	Request *R

	// Syncing marks a Fetch as a background refresh.
	Syncing bool

	// Data is the payload of Success and Cache.
	Data D

	// Err is the error of Fail and Abort.
	Err error

	// Mutation selects the Reset variant.
	Mutation string

	// ID is the cache key of Cache.
	ID string

	// Expire is the requested expiration of Cache.
	Expire expiration.Expiration

	// Persisted is the persistence flag of Cache.
	Persisted bool
}
