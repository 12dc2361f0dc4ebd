package expiration

import "time"

// Expiration describes when a cache entry stops being fresh.
//
// The zero value means "never expires". It is also what a Merger receives
// as the previous expiration of a key that has not been stored before.
type Expiration struct {
	// At is the absolute instant after which the entry is stale.
	At time.Time

	// TTL is a relative lifetime. Mergers resolve it against a clock.
	// It is ignored when At is set.
	TTL time.Duration
}

// Never is the expiration of an entry that never expires.
var Never = Expiration{}

// At returns an absolute expiration.
func At(t time.Time) Expiration {
	return Expiration{At: t}
}

// After returns a relative expiration.
func After(ttl time.Duration) Expiration {
	return Expiration{TTL: ttl}
}

// IsZero reports whether e never expires.
func (e Expiration) IsZero() bool {
	return e.At.IsZero() && e.TTL <= 0
}

// Deadline returns the absolute expiration instant.
// It returns false when e carries no absolute instant.
func (e Expiration) Deadline() (time.Time, bool) {
	if e.At.IsZero() {
		return time.Time{}, false
	}
	return e.At, true
}

// IsExpired reports whether e has passed at now according to the policy.
// An expiration without an absolute instant is never expired.
func (e Expiration) IsExpired(now time.Time, policy Policy) bool {
	deadline, ok := e.Deadline()
	if !ok {
		return false
	}
	return policy.IsExpired(now, deadline)
}

// Merger computes the expiration to store for a cache key.
// Implementations must be deterministic for the same inputs and clock reading.
type Merger interface {
	// Merge returns the expiration to store given the requested one and
	// the one previously stored under the same key (zero if none).
	Merge(requested, previous Expiration) Expiration
}

// MergerFunc is a function type that implements the Merger interface.
type MergerFunc func(requested, previous Expiration) Expiration

// Merge calls the function.
func (f MergerFunc) Merge(requested, previous Expiration) Expiration {
	return f(requested, previous)
}

// Resolver is the default Merger.
//
// An absolute request is stored as is. A relative request is resolved
// against Clock. An empty request keeps the previous expiration.
type Resolver struct {
	// Clock resolves relative expirations. If nil, SystemClock is used.
	Clock Clock
}

var _ Merger = Resolver{}

// Merge implements Merger.
func (r Resolver) Merge(requested, previous Expiration) Expiration {
	switch {
	case !requested.At.IsZero():
		return Expiration{At: requested.At}
	case requested.TTL > 0:
		return Expiration{At: r.now().Add(requested.TTL)}
	default:
		return previous
	}
}

func (r Resolver) now() time.Time {
	if r.Clock == nil {
		return SystemClock.Now()
	}
	return r.Clock.Now()
}

// Latest is a Merger that never moves a stored expiration earlier.
// The result of Merger is kept unless previous is later; a result that
// never expires always wins.
type Latest struct {
	// Merger computes the candidate expiration. If nil, a zero Resolver is used.
	Merger Merger
}

var _ Merger = Latest{}

// Merge implements Merger.
func (l Latest) Merge(requested, previous Expiration) Expiration {
	var inner Merger = Resolver{}
	if l.Merger != nil {
		inner = l.Merger
	}

	merged := inner.Merge(requested, previous)
	if merged.IsZero() || previous.At.IsZero() {
		return merged
	}
	if mergedAt, ok := merged.Deadline(); ok && mergedAt.Before(previous.At) {
		return previous
	}
	return merged
}
