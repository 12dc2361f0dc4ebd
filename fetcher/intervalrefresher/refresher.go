// Package intervalrefresher refreshes a resource in the background at a fixed interval.
package intervalrefresher

import (
	"context"
	"time"
)

// IntervalRefresher calls a refresh function at a fixed interval.
// Combined with fetcher.Fetcher.RefreshFunc it keeps a resource synced by
// issuing syncing fetches.
type IntervalRefresher struct {
	refresh           func(context.Context) error
	interval          time.Duration
	onBackgroundError func(error)
}

// New creates a new IntervalRefresher.
// Errors returned by refresh are passed to onBackgroundError.
func New(refresh func(context.Context) error, interval time.Duration, onBackgroundError func(error)) *IntervalRefresher {
	if interval <= 0 {
		panic("interval must be positive")
	}
	return &IntervalRefresher{
		refresh:           refresh,
		interval:          interval,
		onBackgroundError: onBackgroundError,
	}
}

// LaunchBackgroundRefresher refreshes once immediately and then at every interval.
// It stops when ctx is canceled.
func (r *IntervalRefresher) LaunchBackgroundRefresher(ctx context.Context) {
	go r.poll(ctx)
}

func (r *IntervalRefresher) poll(ctx context.Context) {
	r.run(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-ticker.C:
			r.run(ctx)
		}
	}
}

func (r *IntervalRefresher) run(ctx context.Context) {
	if err := r.refresh(ctx); err != nil && ctx.Err() == nil {
		r.onBackgroundError(err)
	}
}
