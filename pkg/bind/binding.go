package bind

import (
	"sync"

	"github.com/tether-dev/tether/pkg/state"
)

// Phase is a Binding's position in its lifecycle.
type Phase int32

const (
	// PhaseSubscribing: constructed and holding a synchronously derived
	// value, but no listener is registered yet.
	PhaseSubscribing Phase = iota

	// PhaseActive: attached; the store notifies the binding.
	PhaseActive

	// PhaseTornDown: detached; the binding is inert for good.
	PhaseTornDown
)

// String returns the phase name.
func (p Phase) String() string {
	switch p {
	case PhaseSubscribing:
		return "Subscribing"
	case PhaseActive:
		return "Active"
	case PhaseTornDown:
		return "TornDown"
	default:
		return "Unknown"
	}
}

// Binding is one site's live connection to a Container. It is created with
// its first value already derived, attaches explicitly when the host has
// committed that value, and re-derives on every store notification that
// passes its Filter, assigning the result to its Site.
type Binding[R any] struct {
	store *state.Store
	site  Site

	mu    sync.Mutex
	cfg   Config[R]
	phase Phase
	unsub state.Unsubscribe

	// value is the current derived value; seen is the state snapshot it
	// was derived from. Attach compares seen against the live state to
	// detect mutations that happened while no listener was registered.
	value R
	seen  state.State
}

// NewBinding derives cfg.Selector against store's current state and
// returns the binding in the Subscribing phase. Nothing is assigned to
// site yet; the caller reads the initial value with Value and commits it
// itself, then calls Attach.
//
// Panics if store, site or cfg.Selector is nil.
func NewBinding[R any](store *state.Store, site Site, cfg Config[R]) *Binding[R] {
	if store == nil {
		panic("bind: NewBinding with nil store")
	}
	if site == nil {
		panic("bind: NewBinding with nil site")
	}
	if cfg.Selector == nil {
		panic("bind: Config.Selector is nil")
	}

	b := &Binding[R]{
		store: store,
		site:  site,
		cfg:   cfg,
		phase: PhaseSubscribing,
	}
	snap := store.Get()
	b.value = cfg.Selector(snap)
	b.seen = snap
	return b
}

// Use resolves the Container for h through scope and returns a new
// Subscribing binding on it. The initial value is derived before Use
// returns. An unbound scope yields an UnboundError attributed to Use.
func Use[R any](scope Scope, h *Shared, site Site, cfg Config[R]) (*Binding[R], error) {
	st, err := h.lookup(scope, "Use")
	if err != nil {
		return nil, err
	}
	return NewBinding(st, site, cfg), nil
}

// Value returns the current derived value.
func (b *Binding[R]) Value() R {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.value
}

// Phase returns the binding's lifecycle phase.
func (b *Binding[R]) Phase() Phase {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.phase
}

// Attach registers the binding's listener with the store, then closes the
// subscription gap: if the store moved past the snapshot the initial value
// was derived from, re-derive and assign exactly once, no matter how many
// mutations landed in between. No-op unless the binding is Subscribing.
func (b *Binding[R]) Attach() {
	b.mu.Lock()
	if b.phase != PhaseSubscribing {
		b.mu.Unlock()
		return
	}
	b.phase = PhaseActive
	b.unsub = b.store.Subscribe(b.cfg.Filter, b.rederive)
	seen := b.seen
	b.mu.Unlock()

	if !state.Same(seen, b.store.Get()) {
		b.rederive()
	}
}

// Rebind adopts a new configuration when its dependency list differs from
// the current one. The old listener is dropped, the new closures are
// registered in its place, and the value is re-derived and assigned
// immediately even if the state itself has not changed. With an equal
// dependency list Rebind is a no-op and the original closures stay.
func (b *Binding[R]) Rebind(cfg Config[R]) {
	if cfg.Selector == nil {
		panic("bind: Config.Selector is nil")
	}

	b.mu.Lock()
	if b.phase == PhaseTornDown {
		b.mu.Unlock()
		return
	}
	if depsEqual(b.cfg.Deps, cfg.Deps) {
		b.mu.Unlock()
		return
	}
	old := b.unsub
	b.unsub = nil
	b.cfg = cfg
	if b.phase == PhaseActive {
		b.unsub = b.store.Subscribe(cfg.Filter, b.rederive)
	}
	b.mu.Unlock()

	if old != nil {
		old()
	}
	b.rederive()
}

// Detach tears the binding down. The listener is removed, no assignment
// ever follows, and every later call on the binding is a no-op. Safe to
// call more than once.
func (b *Binding[R]) Detach() {
	b.mu.Lock()
	if b.phase == PhaseTornDown {
		b.mu.Unlock()
		return
	}
	b.phase = PhaseTornDown
	unsub := b.unsub
	b.unsub = nil
	b.mu.Unlock()

	if unsub != nil {
		unsub()
	}
}

// rederive recomputes the bound value against the live state and assigns
// it to the site. It is the binding's store callback and also serves the
// catch-up and rebind paths.
func (b *Binding[R]) rederive() {
	b.mu.Lock()
	if b.phase == PhaseTornDown {
		b.mu.Unlock()
		return
	}
	sel := b.cfg.Selector
	b.mu.Unlock()

	snap := b.store.Get()
	v := sel(snap)

	b.mu.Lock()
	if b.phase == PhaseTornDown {
		b.mu.Unlock()
		return
	}
	b.value = v
	b.seen = snap
	b.mu.Unlock()

	b.site.Assign(SlotOf(v))
}
