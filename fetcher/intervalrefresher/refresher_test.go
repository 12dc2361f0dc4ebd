package intervalrefresher_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/karupanerura/fetchstate"
	"github.com/karupanerura/fetchstate/fetcher"
	"github.com/karupanerura/fetchstate/fetcher/intervalrefresher"
	"github.com/karupanerura/fetchstate/store"
)

func TestIntervalRefresher_KeepsStoreSynced(t *testing.T) {
	t.Parallel()

	st := store.New(fetchstate.New(fetchstate.State[string, int]{}, fetchstate.Actions[string]{
		Fetch:   "QUOTE_FETCH",
		Success: "QUOTE_SUCCESS",
		Fail:    "QUOTE_FAIL",
	}))

	var (
		mu       sync.Mutex
		syncing  []bool
		versions atomic.Int32
	)
	st.Subscribe(func(prev, next *fetchstate.State[string, int]) {
		if next.Loading && !prev.Loading {
			mu.Lock()
			defer mu.Unlock()
			syncing = append(syncing, next.Syncing)
		}
	})

	f := fetcher.New(st, fetcher.SourceFunc[string, int](func(ctx context.Context, symbol string) (int, error) {
		return int(versions.Add(1)), nil
	}))

	var bgErrs []error
	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()
	intervalrefresher.New(f.RefreshFunc("GOOG"), 100*time.Millisecond, func(err error) {
		mu.Lock()
		defer mu.Unlock()
		bgErrs = append(bgErrs, err)
	}).LaunchBackgroundRefresher(ctx)

	if _, err := st.Wait(ctx, func(s *fetchstate.State[string, int]) bool { return s.Data >= 2 }); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	cancel()

	mu.Lock()
	defer mu.Unlock()
	if len(bgErrs) != 0 {
		t.Errorf("unexpected background errors: %+v", bgErrs)
	}
	if len(syncing) < 2 || !syncing[0] || !syncing[1] {
		t.Errorf("fetch syncing flags = %v, want syncing refreshes", syncing)
	}
}

func TestIntervalRefresher_ReportsErrors(t *testing.T) {
	t.Parallel()

	errUpstream := errors.New("quote service unavailable")
	reported := make(chan error, 4)
	intervalrefresher.New(func(context.Context) error {
		return errUpstream
	}, 50*time.Millisecond, func(err error) {
		select {
		case reported <- err:
		default:
		}
	}).LaunchBackgroundRefresher(t.Context())

	var got []error
	for len(got) < 2 {
		select {
		case err := <-reported:
			got = append(got, err)
		case <-time.After(2 * time.Second):
			t.Fatalf("got %d background errors, want 2", len(got))
		}
	}
	if diff := cmp.Diff([]error{errUpstream, errUpstream}, got, cmpopts.EquateErrors()); diff != "" {
		t.Errorf("background errors mismatch (-want +got):\n%s", diff)
	}
}

func TestIntervalRefresher_Stop(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	ctx, cancel := context.WithCancel(context.Background())
	intervalrefresher.New(func(context.Context) error {
		calls.Add(1)
		return nil
	}, 50*time.Millisecond, func(error) {}).LaunchBackgroundRefresher(ctx)

	time.Sleep(20 * time.Millisecond)
	cancel()
	time.Sleep(150 * time.Millisecond)
	if got := calls.Load(); got != 1 {
		t.Errorf("refresh called %d times, want 1 after cancellation", got)
	}
}

func TestIntervalRefresher_CanceledErrorsAreNotReported(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	started := make(chan struct{})
	var reported atomic.Bool
	intervalrefresher.New(func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	}, time.Hour, func(error) {
		reported.Store(true)
	}).LaunchBackgroundRefresher(ctx)

	<-started
	cancel()
	time.Sleep(50 * time.Millisecond)
	if reported.Load() {
		t.Error("an error caused by cancellation was reported")
	}
}

func TestNew_InvalidInterval(t *testing.T) {
	t.Parallel()

	defer func() {
		if recover() == nil {
			t.Error("New did not panic for a zero interval")
		}
	}()
	intervalrefresher.New(func(context.Context) error { return nil }, 0, func(error) {})
}
