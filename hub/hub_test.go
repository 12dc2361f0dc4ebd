package hub_test

import (
	"context"
	"errors"
	"slices"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/sourcegraph/conc/panics"

	"github.com/karupanerura/fetchstate"
	"github.com/karupanerura/fetchstate/hub"
	"github.com/karupanerura/fetchstate/store"
)

type (
	profile = string
	state   = fetchstate.State[string, profile]
	event   = fetchstate.Event[string, string, profile]
)

// newProfileStore builds a store whose tags are scoped to the user,
// e.g. "PROFILE_FETCH:alice".
func newProfileStore(user string) *store.Store[string, string, profile] {
	tag := func(kind string) string { return "PROFILE_" + kind + ":" + user }
	return store.New(fetchstate.New(state{}, fetchstate.Actions[string]{
		Fetch:   tag("FETCH"),
		Success: tag("SUCCESS"),
		Fail:    tag("FAIL"),
		Reset:   tag("RESET"),
		Cache:   tag("CACHE"),
		Abort:   tag("ABORT"),
	}))
}

func TestHub_Store(t *testing.T) {
	t.Parallel()

	var created atomic.Int32
	h := hub.New(func(user string) *store.Store[string, string, profile] {
		created.Add(1)
		return newProfileStore(user)
	})

	alice := h.Store("alice")
	if h.Store("alice") != alice {
		t.Error("Store() must return the same store for the same key")
	}
	if h.Store("bob") == alice {
		t.Error("Store() must return distinct stores for distinct keys")
	}
	if got := created.Load(); got != 2 {
		t.Errorf("factory called %d times, want 2", got)
	}
}

func TestHub_StoreConcurrent(t *testing.T) {
	t.Parallel()

	var created atomic.Int32
	h := hub.New(func(user string) *store.Store[string, string, profile] {
		created.Add(1)
		return newProfileStore(user)
	}, hub.WithBucketsSize[string](1))

	var wg sync.WaitGroup
	stores := make([]*store.Store[string, string, profile], 32)
	for i := range stores {
		wg.Add(1)
		go func() {
			defer wg.Done()
			stores[i] = h.Store("alice")
		}()
	}
	wg.Wait()

	for _, s := range stores {
		if s != stores[0] {
			t.Fatal("concurrent Store() calls returned different stores")
		}
	}
	if got := created.Load(); got != 1 {
		t.Errorf("factory called %d times, want 1", got)
	}
}

func TestHub_LookupAndRemove(t *testing.T) {
	t.Parallel()

	h := hub.New(newProfileStore)

	if _, ok := h.Lookup("alice"); ok {
		t.Error("Lookup() must not create a store")
	}
	alice := h.Store("alice")
	if s, ok := h.Lookup("alice"); !ok || s != alice {
		t.Errorf("Lookup() = (%p, %v), want (%p, true)", s, ok, alice)
	}

	if !h.Remove("alice") {
		t.Error("Remove() = false for an existing store")
	}
	if h.Remove("alice") {
		t.Error("Remove() = true for a removed store")
	}
	if _, ok := h.Lookup("alice"); ok {
		t.Error("Lookup() found a removed store")
	}
	if h.Store("alice") == alice {
		t.Error("Store() must create a new store after Remove()")
	}
}

func TestHub_Dispatch(t *testing.T) {
	t.Parallel()

	h := hub.New(newProfileStore)
	ctx := context.Background()

	if _, err := h.Dispatch(ctx, "alice", event{Type: "PROFILE_FETCH:alice"}); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	got, err := h.Dispatch(ctx, "alice", event{Type: "PROFILE_SUCCESS:alice", Data: "Alice"})
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if !got.Sync || got.Data != "Alice" {
		t.Errorf("Dispatch() = %+v, want synced Alice", got)
	}

	// another user's tag is unknown to alice's store
	same, err := h.Dispatch(ctx, "alice", event{Type: "PROFILE_SUCCESS:bob", Data: "Bob"})
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if same != got {
		t.Error("an event for another key must leave the state unchanged")
	}
}

func TestHub_Broadcast(t *testing.T) {
	t.Parallel()

	h := hub.New(newProfileStore)
	ctx := context.Background()
	for _, user := range []string{"alice", "bob", "carol"} {
		if _, err := h.Dispatch(ctx, user, event{Type: "PROFILE_SUCCESS:" + user, Data: user}); err != nil {
			t.Fatalf("Dispatch() error = %v", err)
		}
	}

	if err := h.Broadcast(ctx, event{Type: "PROFILE_RESET:bob"}); err != nil {
		t.Fatalf("Broadcast() error = %v", err)
	}

	got := map[string]string{}
	for user, s := range h.All() {
		got[user] = s.State().Data
	}
	want := map[string]string{"alice": "alice", "bob": "", "carol": "carol"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("data after Broadcast() mismatch (-want +got):\n%s", diff)
	}
}

func TestHub_BroadcastJoinsErrors(t *testing.T) {
	t.Parallel()

	h := hub.New(func(user string) *store.Store[string, string, profile] {
		return store.New(fetchstate.New(state{}, fetchstate.Actions[string]{Fetch: "FETCH:" + user},
			fetchstate.WithFallback[string, string, profile](fetchstate.FallbackFunc[string, string, profile](func(*state, event) *state {
				panic("unexpected event for " + user)
			})),
		))
	})
	h.Store("alice")
	h.Store("bob")

	err := h.Broadcast(context.Background(), event{Type: "PING"})
	var recovered *panics.ErrRecovered
	if !errors.As(err, &recovered) {
		t.Fatalf("Broadcast() error = %v, want *panics.ErrRecovered", err)
	}
	if joined, ok := err.(interface{ Unwrap() []error }); !ok || len(joined.Unwrap()) != 2 {
		t.Errorf("Broadcast() error = %v, want two joined errors", err)
	}
}

func TestHub_All(t *testing.T) {
	t.Parallel()

	h := hub.New(newProfileStore, hub.WithBucketsSize[string](3))
	users := []string{"alice", "bob", "carol", "dave", "erin"}
	for _, user := range users {
		h.Store(user)
	}

	var got []string
	for user, s := range h.All() {
		if want := h.Store(user); s != want {
			t.Errorf("All() yielded a foreign store for %q", user)
		}
		got = append(got, user)
	}
	slices.Sort(got)
	if diff := cmp.Diff(users, got); diff != "" {
		t.Errorf("All() keys mismatch (-want +got):\n%s", diff)
	}

	var n int
	for range h.All() {
		n++
		break
	}
	if n != 1 {
		t.Errorf("All() yielded %d stores after break, want 1", n)
	}
}

func TestHub_WithKeyHash(t *testing.T) {
	t.Parallel()

	type point struct{ X, Y int }

	var hashed atomic.Int32
	h := hub.New(func(point) *store.Store[string, string, profile] {
		return newProfileStore("point")
	}, hub.WithKeyHash(func(p point) int {
		hashed.Add(1)
		return p.X*31 + p.Y
	}), hub.WithBucketsSize[point](4))

	a := h.Store(point{X: -3, Y: 1})
	if h.Store(point{X: -3, Y: 1}) != a {
		t.Error("Store() must return the same store for the same key")
	}
	if hashed.Load() == 0 {
		t.Error("the key hash was not used")
	}
}

func TestHub_UnsupportedKeyPanics(t *testing.T) {
	t.Parallel()

	type point struct{ X, Y int }

	r := panics.Try(func() {
		hub.New(func(point) *store.Store[string, string, profile] { return nil })
	})
	if r == nil {
		t.Error("New() must panic for a key type without a hash")
	}
}

func TestWithBucketsSize(t *testing.T) {
	t.Parallel()

	for _, size := range []int{0, -1} {
		if r := panics.Try(func() { hub.WithBucketsSize[string](size) }); r == nil {
			t.Errorf("WithBucketsSize(%d) must panic", size)
		}
	}
}
