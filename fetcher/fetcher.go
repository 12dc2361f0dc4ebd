package fetcher

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/karupanerura/fetchstate"
	"github.com/karupanerura/fetchstate/expiration"
	"github.com/karupanerura/fetchstate/internal/iterutil"
	"github.com/karupanerura/fetchstate/internal/panicutil"
	"github.com/karupanerura/fetchstate/store"
)

// ErrGoexit is reported as the fetch error when the Source calls runtime.Goexit.
var ErrGoexit = errors.New("fetcher: runtime.Goexit is called in the source")

// Source loads the data of a request, typically over the network.
type Source[R, D any] interface {
	Fetch(context.Context, R) (D, error)
}

// SourceFunc is a function type that implements the Source interface.
type SourceFunc[R, D any] func(context.Context, R) (D, error)

// Fetch calls the function.
func (f SourceFunc[R, D]) Fetch(ctx context.Context, req R) (D, error) {
	return f(ctx, req)
}

// Fetcher loads data from a Source and records the lifecycle in a store.
// It is safe for concurrent use.
type Fetcher[T comparable, R, D any] struct {
	store  *store.Store[T, R, D]
	source Source[R, D]
	tags   tags[T]

	cacheKey    func(R) string
	ttl         time.Duration
	persisted   bool
	policy      expiration.Policy
	clock       expiration.Clock
	context     func() context.Context
	concurrency int

	group singleflight.Group
}

type tags[T comparable] struct {
	fetch, success, fail, reset, cache, abort T
	hasReset, hasCache, hasAbort               bool
}

// New creates a Fetcher reporting to st.
// It panics if the reducer of st has no tag for Fetch, Success or Fail.
// Without an Abort tag, ended contexts are reported as Fail; without a
// Cache tag, nothing is cached.
func New[T comparable, R, D any](st *store.Store[T, R, D], source Source[R, D], opts ...Option[T, R, D]) *Fetcher[T, R, D] {
	f := &Fetcher[T, R, D]{
		store:   st,
		source:  source,
		tags:    resolveTags(st.Reducer()),
		policy:  expiration.GeneralPolicy{},
		clock:   expiration.SystemClock,
		context: context.Background,
	}
	for _, opt := range opts {
		opt.apply(f)
	}
	return f
}

func resolveTags[T comparable, R, D any](r *fetchstate.Reducer[T, R, D]) tags[T] {
	var t tags[T]
	for _, required := range []struct {
		kind fetchstate.Kind
		tag  *T
	}{
		{fetchstate.KindFetch, &t.fetch},
		{fetchstate.KindSuccess, &t.success},
		{fetchstate.KindFail, &t.fail},
	} {
		tag, ok := r.Tag(required.kind)
		if !ok {
			panic(fmt.Sprintf("fetcher: reducer has no tag for %s", required.kind))
		}
		*required.tag = tag
	}
	t.reset, t.hasReset = r.Tag(fetchstate.KindReset)
	t.cache, t.hasCache = r.Tag(fetchstate.KindCache)
	t.abort, t.hasAbort = r.Tag(fetchstate.KindAbort)
	return t
}

// Fetch returns the data of req.
//
// A fresh cache entry for the key of req is reported as Success and
// returned without calling the Source. Otherwise the Source is called and
// the fetch is marked as syncing when the store already holds synced data.
func (f *Fetcher[T, R, D]) Fetch(ctx context.Context, req R) (D, error) {
	if key, ok := f.key(req); ok {
		if data, ok := f.store.State().Cached(key, f.clock.Now(), f.policy); ok {
			if _, err := f.store.Dispatch(ctx, fetchstate.Event[T, R, D]{Type: f.tags.success, Data: data}); err != nil {
				var zero D
				return zero, err
			}
			return data, nil
		}
	}
	return f.load(ctx, req, f.store.State().Sync)
}

// Refresh calls the Source for req regardless of the cache, as a syncing fetch.
func (f *Fetcher[T, R, D]) Refresh(ctx context.Context, req R) (D, error) {
	return f.load(ctx, req, true)
}

// RefreshFunc returns a function refreshing req, for use with a background refresher.
func (f *Fetcher[T, R, D]) RefreshFunc(req R) func(context.Context) error {
	return func(ctx context.Context) error {
		_, err := f.Refresh(ctx, req)
		return err
	}
}

// FetchMulti fetches reqs concurrently and returns their data in the same order.
// Requests sharing a cache key are fetched once. The first error cancels
// the remaining fetches and is returned.
func (f *Fetcher[T, R, D]) FetchMulti(ctx context.Context, reqs []R) ([]D, error) {
	slots := make([]string, len(reqs))
	for i, req := range reqs {
		if key, ok := f.key(req); ok {
			slots[i] = "k" + key
		} else {
			slots[i] = "i" + strconv.Itoa(i)
		}
	}

	first := make(map[string]int, len(slots))
	for i, slot := range slots {
		if _, ok := first[slot]; !ok {
			first[slot] = i
		}
	}

	var (
		mu     sync.Mutex
		bySlot = make(map[string]D, len(first))
	)
	g, gctx := errgroup.WithContext(ctx)
	if f.concurrency > 0 {
		g.SetLimit(f.concurrency)
	}
	for slot := range iterutil.Uniq(slices.Values(slots)) {
		req := reqs[first[slot]]
		g.Go(func() error {
			data, err := f.Fetch(gctx, req)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			bySlot[slot] = data
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	results := make([]D, len(reqs))
	for i, slot := range slots {
		results[i] = bySlot[slot]
	}
	return results, nil
}

// Reset reports a Reset. A partial reset only clears the request and the sync flag.
func (f *Fetcher[T, R, D]) Reset(ctx context.Context, partial bool) error {
	if !f.tags.hasReset {
		return errors.New("fetcher: reducer has no tag for Reset")
	}
	ev := fetchstate.Event[T, R, D]{Type: f.tags.reset}
	if partial {
		ev.Mutation = fetchstate.MutationSync
	}
	_, err := f.store.Dispatch(ctx, ev)
	return err
}

func (f *Fetcher[T, R, D]) key(req R) (string, bool) {
	if f.cacheKey == nil {
		return "", false
	}
	return f.cacheKey(req), true
}

// load calls the Source and reports the outcome.
func (f *Fetcher[T, R, D]) load(ctx context.Context, req R, syncing bool) (D, error) {
	var zero D
	if _, err := f.store.Dispatch(ctx, fetchstate.Event[T, R, D]{Type: f.tags.fetch, Request: &req, Syncing: syncing}); err != nil {
		return zero, err
	}

	// the outcome is reported even if ctx has ended
	reportCtx := context.WithoutCancel(ctx)

	data, err := f.call(ctx, req)
	if err != nil {
		ev := fetchstate.Event[T, R, D]{Type: f.tags.fail, Err: err}
		if ctx.Err() != nil && f.tags.hasAbort {
			ev.Type = f.tags.abort
		}
		if _, derr := f.store.Dispatch(reportCtx, ev); derr != nil {
			return zero, errors.Join(err, derr)
		}
		return zero, err
	}

	if _, err := f.store.Dispatch(reportCtx, fetchstate.Event[T, R, D]{Type: f.tags.success, Data: data}); err != nil {
		return zero, err
	}
	if key, ok := f.key(req); ok && f.tags.hasCache {
		ev := fetchstate.Event[T, R, D]{
			Type:      f.tags.cache,
			ID:        key,
			Data:      data,
			Expire:    expiration.After(f.ttl),
			Persisted: f.persisted,
		}
		if _, err := f.store.Dispatch(reportCtx, ev); err != nil {
			return zero, err
		}
	}
	return data, nil
}

// call calls the Source, sharing one call between concurrent callers of the same key.
func (f *Fetcher[T, R, D]) call(ctx context.Context, req R) (D, error) {
	var zero D
	key, ok := f.key(req)
	if !ok {
		return f.invoke(ctx, req)
	}

	ch := f.group.DoChan(key, func() (any, error) {
		return f.invoke(f.context(), req)
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		data, _ := res.Val.(D)
		return data, nil
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// invoke calls the Source on its own goroutine so that a panic or a
// runtime.Goexit in the Source is returned as an error.
func (f *Fetcher[T, R, D]) invoke(ctx context.Context, req R) (D, error) {
	type result struct {
		data D
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		dds := panicutil.DoubleDeferSandwich{
			OnGoexit: func() {
				ch <- result{err: ErrGoexit}
			},
		}

		var data D
		err := dds.Invoke(func() (err error) {
			data, err = f.source.Fetch(ctx, req)
			return
		})
		ch <- result{data: data, err: err}
	}()

	res := <-ch
	return res.data, res.err
}
