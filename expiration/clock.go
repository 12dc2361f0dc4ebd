package expiration

import (
	"math/rand/v2"
	"time"
)

// Clock provides the current time to mergers and cache readers.
type Clock interface {
	Now() time.Time
}

// ClockFunc is a function type that implements the Clock interface.
type ClockFunc func() time.Time

// Now calls the function.
func (f ClockFunc) Now() time.Time {
	return f()
}

// SystemClock is the default clock that uses time.Now.
var SystemClock Clock = ClockFunc(time.Now)

// JitterClock reads a base clock and moves the reading forward by a random
// amount below Jitter. As the clock of a Resolver it spreads the deadlines
// of entries cached with the same TTL at the same moment.
type JitterClock struct {
	// Base provides the current time. If nil, SystemClock is used.
	Base Clock

	// Jitter is the exclusive upper bound of the shift. A non-positive
	// value disables the shift.
	Jitter time.Duration

	// Random is the source of the shift. If nil, the global generator is used.
	Random *rand.Rand
}

var _ Clock = (*JitterClock)(nil)

// Now returns the base time plus a shift in [0, Jitter).
func (c *JitterClock) Now() time.Time {
	base := SystemClock
	if c.Base != nil {
		base = c.Base
	}

	now := base.Now()
	if c.Jitter <= 0 {
		return now
	}
	return now.Add(c.shift())
}

func (c *JitterClock) shift() time.Duration {
	if c.Random == nil {
		return rand.N(c.Jitter)
	}
	return time.Duration(c.Random.Int64N(int64(c.Jitter)))
}
