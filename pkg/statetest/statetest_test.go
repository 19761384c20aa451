package statetest_test

import (
	"testing"

	"github.com/tether-dev/tether/pkg/bind"
	"github.com/tether-dev/tether/pkg/state"
	"github.com/tether-dev/tether/pkg/statetest"
)

var counterShared = bind.NewShared("counter")

func countConfig() bind.Config[int] {
	return bind.Config[int]{
		Selector: func(s state.State) int { return s.Int("count") },
	}
}

func TestHostProvideAndBind(t *testing.T) {
	h := statetest.NewHost(t)
	store := h.Provide(counterShared, state.State{"count": 0})

	b := statetest.Bind(h, counterShared, countConfig())

	// The initial value is derived synchronously, but nothing is
	// assigned before the host commits.
	statetest.ExpectValue(t, b, 0)
	h.ExpectAssignments(0)
	if got := b.Phase(); got != bind.PhaseSubscribing {
		t.Fatalf("expected Subscribing before commit, got %v", got)
	}

	h.Commit()
	if got := b.Phase(); got != bind.PhaseActive {
		t.Fatalf("expected Active after commit, got %v", got)
	}

	store.Set(state.State{"count": 1})

	statetest.ExpectValue(t, b, 1)
	statetest.ExpectLast(t, h.Site, 1)
	h.ExpectAssignments(1)
}

func TestHostCommitCatchesUp(t *testing.T) {
	h := statetest.NewHost(t)
	store := h.Provide(counterShared, state.State{"count": 0})

	b := statetest.Bind(h, counterShared, countConfig())

	// Mutations before the commit surface as one catch-up assignment.
	store.Set(state.State{"count": 1})
	store.Set(state.State{"count": 2})
	h.ExpectAssignments(0)

	h.Commit()

	h.ExpectAssignments(1)
	statetest.ExpectValue(t, b, 2)
	statetest.ExpectLast(t, h.Site, 2)
}

func TestHostProvideStore(t *testing.T) {
	h := statetest.NewHost(t)
	external := state.New(state.State{"count": 7})
	h.ProvideStore(counterShared, external)

	b := statetest.Bind(h, counterShared, countConfig())
	h.Commit()

	statetest.ExpectValue(t, b, 7)

	external.Set(state.State{"count": 8})
	statetest.ExpectValue(t, b, 8)
}

func TestHostDetachesOnTestEnd(t *testing.T) {
	store := state.New(state.State{"count": 0})

	t.Run("inner", func(t *testing.T) {
		h := statetest.NewHost(t)
		h.ProvideStore(counterShared, store)
		statetest.Bind(h, counterShared, countConfig())
		h.Commit()

		if store.Len() != 1 {
			t.Fatalf("expected 1 listener inside the test, got %d", store.Len())
		}
	})

	if store.Len() != 0 {
		t.Errorf("expected binding detached when the test ended, got %d listeners", store.Len())
	}
}

func TestHostFilterSuppression(t *testing.T) {
	h := statetest.NewHost(t)
	store := h.Provide(counterShared, state.State{"count": 0, "name": "tether"})

	statetest.Bind(h, counterShared, bind.Config[string]{
		Selector: func(s state.State) string { return s.String("name") },
		Filter:   state.Hash(func(s state.State) any { return s.String("name") }),
	})
	h.Commit()

	store.Set(state.State{"count": 1})
	h.ExpectAssignments(0)

	store.Set(state.State{"name": "rope"})
	h.ExpectAssignments(1)
	statetest.ExpectLast(t, h.Site, "rope")
}

func TestRecorderSitePassesFunctionsUninvoked(t *testing.T) {
	h := statetest.NewHost(t)
	called := 0
	store := h.Provide(counterShared, state.State{
		"fn": func() { called++ },
	})

	statetest.Bind(h, counterShared, bind.Config[func()]{
		Selector: func(s state.State) func() {
			fn, _ := s["fn"].(func())
			return fn
		},
	})
	h.Commit()

	store.Set(state.State{"count": 1})

	if called != 0 {
		t.Fatalf("expected function payload delivered uninvoked, called %d times", called)
	}
	fn, ok := h.Site.Last().(func())
	if !ok {
		t.Fatalf("expected func payload, got %T", h.Site.Last())
	}
	fn()
	if called != 1 {
		t.Errorf("expected delivered function to be callable, called %d times", called)
	}
}

func TestRecorderSiteValues(t *testing.T) {
	h := statetest.NewHost(t)
	store := h.Provide(counterShared, state.State{"count": 0})

	statetest.Bind(h, counterShared, countConfig())
	h.Commit()

	store.Set(state.State{"count": 1})
	store.Set(state.State{"count": 2})

	got := h.Site.Values()
	if len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Errorf("expected assignments [1 2], got %v", got)
	}
}
