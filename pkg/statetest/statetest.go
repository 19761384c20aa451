// Package statetest provides test helpers for binding consumers to
// shared state without a live session.
//
// A Host owns a scope to provide containers into, a RecorderSite
// collecting every assignment, and explicit commit control mirroring a
// runtime that attaches bindings only after the first derived value has
// been committed.
//
// Example:
//
//	func TestCounter(t *testing.T) {
//	    h := statetest.NewHost(t)
//	    store := h.Provide(counterState, state.State{"count": 0})
//
//	    b := statetest.Bind(h, counterState, bind.Config[int]{
//	        Selector: func(s state.State) int { return s.Int("count") },
//	    })
//	    h.Commit()
//
//	    store.Set(state.State{"count": 1})
//	    statetest.ExpectValue(t, b, 1)
//	}
package statetest

import (
	"sync"
	"testing"

	"github.com/tether-dev/tether/pkg/bind"
	"github.com/tether-dev/tether/pkg/live"
	"github.com/tether-dev/tether/pkg/state"
)

// RecorderSite records every Slot assigned to it. The zero value is
// ready to use. Safe for concurrent assignment.
type RecorderSite struct {
	mu    sync.Mutex
	slots []bind.Slot
}

var _ bind.Site = (*RecorderSite)(nil)

// Assign implements bind.Site.
func (r *RecorderSite) Assign(s bind.Slot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.slots = append(r.slots, s)
}

// Assignments returns how many assignments were recorded.
func (r *RecorderSite) Assignments() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.slots)
}

// Last returns the most recent payload, or nil before the first
// assignment.
func (r *RecorderSite) Last() any {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.slots) == 0 {
		return nil
	}
	return r.slots[len(r.slots)-1].Value()
}

// Values returns every recorded payload in assignment order.
func (r *RecorderSite) Values() []any {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]any, len(r.slots))
	for i, s := range r.slots {
		out[i] = s.Value()
	}
	return out
}

// Host hosts bindings for a test. Containers provided through it are
// visible to every binding created with Bind; all those bindings share
// the host's RecorderSite and stay pending until Commit.
//
// The host's scope is disposed automatically when the test ends, which
// detaches every binding created through Bind.
type Host struct {
	// Scope is the root scope containers are provided into. Tests
	// needing deeper chains can hang child scopes off it.
	Scope *live.Scope

	// Site records every assignment made by bindings created with Bind.
	Site *RecorderSite

	t       testing.TB
	pending []interface{ Attach() }
}

// NewHost creates a harness bound to t.
func NewHost(t testing.TB) *Host {
	h := &Host{
		Scope: live.NewScope(nil),
		Site:  &RecorderSite{},
		t:     t,
	}
	t.Cleanup(h.Scope.Dispose)
	return h
}

// Provide installs a fresh container for handle, seeded with initial,
// and returns it. Tests needing Refresh semantics build their own
// Provider and Mount it on h.Scope instead.
func (h *Host) Provide(handle *bind.Shared, initial state.State, opts ...state.Option) *state.Store {
	p := handle.NewProvider(initial, opts...)
	p.Mount(h.Scope)
	return p.Store()
}

// ProvideStore installs an existing container for handle.
func (h *Host) ProvideStore(handle *bind.Shared, st *state.Store) *state.Store {
	p := handle.NewStoreProvider(st)
	p.Mount(h.Scope)
	return p.Store()
}

// Commit attaches every binding created since the previous Commit,
// registering their store listeners. Mutations that landed between Bind
// and Commit surface as a single catch-up assignment per binding.
func (h *Host) Commit() {
	for _, b := range h.pending {
		b.Attach()
	}
	h.pending = h.pending[:0]
}

// ExpectAssignments asserts how many assignments the host's site has
// received.
func (h *Host) ExpectAssignments(n int) {
	h.t.Helper()
	if got := h.Site.Assignments(); got != n {
		h.t.Errorf("expected %d assignments, got %d", n, got)
	}
}

// Bind creates a binding on the container provided for handle, assigning
// through the host's site. The binding is pending until h.Commit and is
// detached automatically when the test ends.
//
// Bind fails the test if no container is provided for handle.
func Bind[R any](h *Host, handle *bind.Shared, cfg bind.Config[R]) *bind.Binding[R] {
	h.t.Helper()
	b, err := bind.Use(h.Scope, handle, h.Site, cfg)
	if err != nil {
		h.t.Fatalf("statetest: bind %v: %v", handle, err)
	}
	h.Scope.OnCleanup(b.Detach)
	h.pending = append(h.pending, b)
	return b
}

// ExpectValue asserts a binding's current derived value.
//
// Example:
//
//	statetest.ExpectValue(t, b, 42)
func ExpectValue[R comparable](t testing.TB, b *bind.Binding[R], want R) {
	t.Helper()
	if got := b.Value(); got != want {
		t.Errorf("expected value %v, got %v", want, got)
	}
}

// ExpectLast asserts the most recent payload assigned to site.
//
// Example:
//
//	statetest.ExpectLast(t, h.Site, 42)
func ExpectLast[R comparable](t testing.TB, site *RecorderSite, want R) {
	t.Helper()
	last := site.Last()
	got, ok := last.(R)
	if !ok {
		t.Errorf("expected last assignment of type %T, got %T", want, last)
		return
	}
	if got != want {
		t.Errorf("expected last assignment %v, got %v", want, got)
	}
}
