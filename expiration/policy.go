package expiration

import (
	"math/rand/v2"
	"time"
)

// Policy decides at read time whether a stored deadline has passed.
// State.Cached and CacheEntry.IsExpired of the fetchstate package consult it
// through Expiration.IsExpired; entries that never expire skip it.
type Policy interface {
	// IsExpired reports whether an entry whose deadline is deadline is
	// stale at now.
	IsExpired(now, deadline time.Time) bool
}

// GeneralPolicy treats an entry as stale from its deadline on.
// It is the default policy of the fetcher.
type GeneralPolicy struct{}

var _ Policy = GeneralPolicy{}

// IsExpired returns true if now is at or after deadline.
func (GeneralPolicy) IsExpired(now, deadline time.Time) bool {
	return now.Compare(deadline) >= 0
}

// NeverPolicy keeps every entry fresh regardless of its deadline, for
// readers that prefer stale data to a refetch.
type NeverPolicy struct{}

var _ Policy = NeverPolicy{}

// IsExpired always returns false.
func (NeverPolicy) IsExpired(time.Time, time.Time) bool {
	return false
}

// EarlyPolicy lets a reader refetch some entries shortly before their
// deadline, so that hosts sharing one upstream do not all refetch a
// popular resource at the same instant.
type EarlyPolicy struct {
	// Duration is the length of the early window before the deadline.
	Duration time.Duration

	// Percentage is the chance, between 0 and 1, that a read inside the
	// early window sees the entry as stale.
	Percentage float64

	// Random decides each read. If nil, the global generator is used.
	Random *rand.Rand
}

var _ Policy = (*EarlyPolicy)(nil)

// IsExpired returns true after the deadline, and with probability
// Percentage inside the early window before it.
func (p *EarlyPolicy) IsExpired(now, deadline time.Time) bool {
	var window time.Duration
	if p.early() {
		window = p.Duration
	}
	return now.Add(window).After(deadline)
}

func (p *EarlyPolicy) early() bool {
	var f float64
	if p.Random == nil {
		f = rand.Float64()
	} else {
		f = p.Random.Float64()
	}
	return f <= p.Percentage
}
