package bind

import (
	"testing"

	"github.com/tether-dev/tether/pkg/state"
)

func countSelector(s state.State) int {
	return s.Int("count")
}

func TestBindingInitialValueSynchronous(t *testing.T) {
	st := state.New(state.State{"count": 7})
	site := &recorderSite{}

	b := NewBinding(st, site, Config[int]{Selector: countSelector})

	if got := b.Value(); got != 7 {
		t.Errorf("expected initial value 7, got %d", got)
	}
	if b.Phase() != PhaseSubscribing {
		t.Errorf("expected Subscribing phase, got %s", b.Phase())
	}
	// The host commits the initial value itself; nothing is assigned yet.
	if site.count() != 0 {
		t.Errorf("expected no assignments before attach, got %d", site.count())
	}
	if st.Len() != 0 {
		t.Errorf("expected no store listener before attach, got %d", st.Len())
	}
}

func TestBindingAttachWithoutGap(t *testing.T) {
	st := state.New(state.State{"count": 1})
	site := &recorderSite{}
	b := NewBinding(st, site, Config[int]{Selector: countSelector})

	b.Attach()

	if b.Phase() != PhaseActive {
		t.Errorf("expected Active phase, got %s", b.Phase())
	}
	if st.Len() != 1 {
		t.Errorf("expected 1 store listener, got %d", st.Len())
	}
	// Nothing moved in the gap, so no catch-up assignment.
	if site.count() != 0 {
		t.Errorf("expected no catch-up without a gap mutation, got %d assignments", site.count())
	}
}

func TestBindingAttachCatchUp(t *testing.T) {
	st := state.New(state.State{"count": 1})
	site := &recorderSite{}
	b := NewBinding(st, site, Config[int]{Selector: countSelector})

	st.Set(state.State{"count": 2})
	b.Attach()

	if site.count() != 1 {
		t.Fatalf("expected exactly one catch-up assignment, got %d", site.count())
	}
	if got := site.last().(int); got != 2 {
		t.Errorf("expected catch-up value 2, got %d", got)
	}
	if b.Value() != 2 {
		t.Errorf("expected Value 2 after catch-up, got %d", b.Value())
	}
}

func TestBindingAttachCatchUpCollapsesGap(t *testing.T) {
	st := state.New(state.State{"count": 1})
	site := &recorderSite{}
	b := NewBinding(st, site, Config[int]{Selector: countSelector})

	// Several mutations in the gap still produce a single catch-up.
	st.Set(state.State{"count": 2})
	st.Set(state.State{"count": 3})
	st.Set(state.State{"count": 4})
	b.Attach()

	if site.count() != 1 {
		t.Fatalf("expected one catch-up for the whole gap, got %d", site.count())
	}
	if got := site.last().(int); got != 4 {
		t.Errorf("expected catch-up to land on the latest value, got %d", got)
	}
}

func TestBindingAttachIdempotent(t *testing.T) {
	st := state.New(state.State{"count": 1})
	site := &recorderSite{}
	b := NewBinding(st, site, Config[int]{Selector: countSelector})

	st.Set(state.State{"count": 2})
	b.Attach()
	b.Attach()

	if st.Len() != 1 {
		t.Errorf("second attach must not double-subscribe, got %d listeners", st.Len())
	}
	if site.count() != 1 {
		t.Errorf("second attach must not re-run catch-up, got %d assignments", site.count())
	}
}

func TestBindingActiveRederives(t *testing.T) {
	st := state.New(state.State{"count": 0})
	site := &recorderSite{}
	b := NewBinding(st, site, Config[int]{Selector: countSelector})
	b.Attach()

	st.Set(state.State{"count": 10})
	st.Set(state.State{"count": 20})

	if site.count() != 2 {
		t.Fatalf("expected 2 assignments, got %d", site.count())
	}
	if got := site.last().(int); got != 20 {
		t.Errorf("expected last assignment 20, got %d", got)
	}
	if b.Value() != 20 {
		t.Errorf("expected Value 20, got %d", b.Value())
	}
}

func TestBindingFilterGatesRederivation(t *testing.T) {
	st := state.New(state.State{"a": "x", "b": "y"})
	site := &recorderSite{}
	b := NewBinding(st, site, Config[string]{
		Selector: func(s state.State) string { return s.String("a") },
		Filter:   state.Hash(func(s state.State) any { return s["a"] }),
	})
	b.Attach()

	st.Set(state.State{"b": "z"})
	if site.count() != 0 {
		t.Errorf("unrelated key should not re-derive, got %d assignments", site.count())
	}

	st.Set(state.State{"a": "w"})
	if site.count() != 1 {
		t.Fatalf("expected 1 assignment for watched key, got %d", site.count())
	}
	if got := site.last().(string); got != "w" {
		t.Errorf("expected %q, got %q", "w", got)
	}
}

func TestBindingCallablePassthrough(t *testing.T) {
	addCalls, subCalls := 0, 0
	add := func() { addCalls++ }
	sub := func() { subCalls++ }

	st := state.New(state.State{"handler": add})
	site := &recorderSite{}
	b := NewBinding(st, site, Config[func()]{
		Selector: func(s state.State) func() {
			f, _ := s["handler"].(func())
			return f
		},
	})

	// The initially selected handler runs only when the consumer invokes it.
	initial := b.Value()
	if initial == nil {
		t.Fatal("expected initial value to be the selected function")
	}
	initial()
	if addCalls != 1 || subCalls != 0 {
		t.Fatalf("expected explicit invocation only, got add=%d sub=%d", addCalls, subCalls)
	}

	b.Attach()

	// Swap which function is selected; neither may run during the swap.
	st.Set(state.State{"handler": sub})
	if addCalls != 1 || subCalls != 0 {
		t.Fatalf("delivery must not invoke functions, got add=%d sub=%d", addCalls, subCalls)
	}
	if site.count() != 1 {
		t.Fatalf("expected 1 assignment after swap, got %d", site.count())
	}

	delivered, ok := site.last().(func())
	if !ok {
		t.Fatalf("expected delivered payload to be func(), got %T", site.last())
	}
	delivered()
	if subCalls != 1 || addCalls != 1 {
		t.Errorf("expected delivered handler to be the swapped-in function, got add=%d sub=%d", addCalls, subCalls)
	}
}

func TestBindingRebindEqualDepsKeepsClosures(t *testing.T) {
	st := state.New(state.State{"count": 1})
	site := &recorderSite{}
	b := NewBinding(st, site, Config[int]{
		Selector: countSelector,
		Deps:     []any{"k", 1},
	})
	b.Attach()

	b.Rebind(Config[int]{
		Selector: func(s state.State) int { return s.Int("count") * 100 },
		Deps:     []any{"k", 1},
	})

	if site.count() != 0 {
		t.Errorf("equal deps must not re-derive, got %d assignments", site.count())
	}

	// The original selector is still in place.
	st.Set(state.State{"count": 2})
	if got := site.last().(int); got != 2 {
		t.Errorf("expected original selector result 2, got %d", got)
	}
}

func TestBindingRebindNewDeps(t *testing.T) {
	st := state.New(state.State{"count": 3})
	site := &recorderSite{}
	b := NewBinding(st, site, Config[int]{
		Selector: countSelector,
		Deps:     []any{1},
	})
	b.Attach()

	b.Rebind(Config[int]{
		Selector: func(s state.State) int { return s.Int("count") * 10 },
		Deps:     []any{2},
	})

	// Immediate re-derivation with the new closure, no mutation needed.
	if site.count() != 1 {
		t.Fatalf("expected immediate re-derivation, got %d assignments", site.count())
	}
	if got := site.last().(int); got != 30 {
		t.Errorf("expected 30 from new selector, got %d", got)
	}
	if st.Len() != 1 {
		t.Errorf("expected old listener replaced, got %d listeners", st.Len())
	}

	st.Set(state.State{"count": 4})
	if got := site.last().(int); got != 40 {
		t.Errorf("expected 40 from new selector, got %d", got)
	}
}

func TestBindingRebindBeforeAttach(t *testing.T) {
	st := state.New(state.State{"count": 5})
	site := &recorderSite{}
	b := NewBinding(st, site, Config[int]{Selector: countSelector, Deps: []any{1}})

	b.Rebind(Config[int]{
		Selector: func(s state.State) int { return s.Int("count") + 1 },
		Deps:     []any{2},
	})

	if b.Phase() != PhaseSubscribing {
		t.Errorf("rebind must not attach, got %s", b.Phase())
	}
	if st.Len() != 0 {
		t.Errorf("no subscription before attach, got %d listeners", st.Len())
	}
	if got := b.Value(); got != 6 {
		t.Errorf("expected re-derived value 6, got %d", got)
	}

	b.Attach()
	if st.Len() != 1 {
		t.Errorf("expected 1 listener after attach, got %d", st.Len())
	}
}

func TestBindingDetach(t *testing.T) {
	st := state.New(state.State{"count": 1})
	site := &recorderSite{}
	b := NewBinding(st, site, Config[int]{Selector: countSelector})
	b.Attach()

	b.Detach()
	b.Detach() // idempotent

	if b.Phase() != PhaseTornDown {
		t.Errorf("expected TornDown, got %s", b.Phase())
	}
	if st.Len() != 0 {
		t.Errorf("expected listener released, got %d", st.Len())
	}

	st.Set(state.State{"count": 99})
	if site.count() != 0 {
		t.Errorf("no assignment may follow teardown, got %d", site.count())
	}

	// Everything after teardown is inert.
	b.Attach()
	b.Rebind(Config[int]{Selector: countSelector, Deps: []any{9}})
	if st.Len() != 0 || site.count() != 0 {
		t.Error("torn-down binding must stay inert")
	}
}

func TestBindingDetachBeforeAttach(t *testing.T) {
	st := state.New(state.State{"count": 1})
	site := &recorderSite{}
	b := NewBinding(st, site, Config[int]{Selector: countSelector})

	b.Detach()
	b.Attach()

	if b.Phase() != PhaseTornDown {
		t.Errorf("expected TornDown, got %s", b.Phase())
	}
	if st.Len() != 0 {
		t.Errorf("expected no subscription, got %d", st.Len())
	}
}

func TestNewBindingValidation(t *testing.T) {
	st := state.New(nil)
	site := &recorderSite{}

	expectPanic := func(name string, fn func()) {
		t.Run(name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Error("expected panic")
				}
			}()
			fn()
		})
	}

	expectPanic("nil store", func() {
		NewBinding(nil, site, Config[int]{Selector: countSelector})
	})
	expectPanic("nil site", func() {
		NewBinding[int](st, nil, Config[int]{Selector: countSelector})
	})
	expectPanic("nil selector", func() {
		NewBinding(st, site, Config[int]{})
	})
}

func TestPhaseString(t *testing.T) {
	cases := map[Phase]string{
		PhaseSubscribing: "Subscribing",
		PhaseActive:      "Active",
		PhaseTornDown:    "TornDown",
		Phase(42):        "Unknown",
	}
	for p, want := range cases {
		if got := p.String(); got != want {
			t.Errorf("Phase(%d).String() = %q, want %q", int32(p), got, want)
		}
	}
}
