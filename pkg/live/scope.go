package live

import (
	"sync"
	"sync/atomic"

	"github.com/tether-dev/tether/pkg/bind"
)

// Scope owns the values and cleanup functions for one part of the view
// tree. Scopes form a hierarchy: each view gets a Scope that is a child
// of its session's root Scope, which in turn descends from the scope
// shared by every session on the server.
//
// Value lookups walk the chain upward, so shared state provided on an
// outer scope is visible to every scope nested inside it unless a
// nearer scope shadows it.
type Scope struct {
	parent *Scope

	children   []*Scope
	childrenMu sync.Mutex

	// cleanups are functions registered via OnCleanup, run in reverse
	// order on Dispose.
	cleanups   []func()
	cleanupsMu sync.Mutex

	values   map[any]any
	valuesMu sync.RWMutex

	disposed atomic.Bool

	// Hook slot storage for stable identity across renders.
	slots   []any
	slotIdx int
}

var _ bind.MutableScope = (*Scope)(nil)

// NewScope creates a new Scope with the given parent.
// The new Scope is automatically registered as a child of the parent.
// If parent is nil, creates a root Scope.
func NewScope(parent *Scope) *Scope {
	sc := &Scope{parent: parent}
	if parent != nil {
		parent.addChild(sc)
	}
	return sc
}

// Parent returns the parent Scope, or nil for a root Scope.
func (sc *Scope) Parent() *Scope {
	return sc.parent
}

// IsDisposed reports whether this Scope has been disposed.
func (sc *Scope) IsDisposed() bool {
	return sc.disposed.Load()
}

func (sc *Scope) addChild(child *Scope) {
	sc.childrenMu.Lock()
	defer sc.childrenMu.Unlock()
	sc.children = append(sc.children, child)
}

func (sc *Scope) removeChild(child *Scope) {
	sc.childrenMu.Lock()
	defer sc.childrenMu.Unlock()

	for i, c := range sc.children {
		if c == child {
			sc.children = append(sc.children[:i], sc.children[i+1:]...)
			return
		}
	}
}

// Value returns the value stored for key on this Scope or on the
// nearest ancestor that carries one. Returns nil if no scope in the
// chain has a value for key.
func (sc *Scope) Value(key any) any {
	for s := sc; s != nil; s = s.parent {
		s.valuesMu.RLock()
		v, ok := s.values[key]
		s.valuesMu.RUnlock()
		if ok {
			return v
		}
	}
	return nil
}

// SetValue stores a value on this Scope, shadowing any value an
// ancestor carries for the same key.
func (sc *Scope) SetValue(key, value any) {
	sc.valuesMu.Lock()
	defer sc.valuesMu.Unlock()

	if sc.values == nil {
		sc.values = make(map[any]any)
	}
	sc.values[key] = value
}

// OnCleanup registers a cleanup function to run when this Scope is
// disposed. If the Scope is already disposed the function runs
// immediately.
func (sc *Scope) OnCleanup(fn func()) {
	if sc.disposed.Load() {
		fn()
		return
	}

	sc.cleanupsMu.Lock()
	defer sc.cleanupsMu.Unlock()
	sc.cleanups = append(sc.cleanups, fn)
}

// beginRender resets the slot cursor ahead of a render pass.
func (sc *Scope) beginRender() {
	sc.slotIdx = 0
}

// nextSlot returns the value stored in the current hook slot, or nil on
// the first render. The cursor advances either way, so hooks must run
// in the same order on every render.
func (sc *Scope) nextSlot() any {
	idx := sc.slotIdx
	sc.slotIdx++

	if idx < len(sc.slots) {
		return sc.slots[idx]
	}
	return nil
}

// setSlot stores a value in the current hook slot. Called after
// nextSlot returned nil (first render).
func (sc *Scope) setSlot(value any) {
	sc.slots = append(sc.slots, value)
}

// Dispose disposes this Scope and all its children. Children are
// disposed first (most recent first), then cleanups run in reverse
// registration order. Dispose is idempotent.
func (sc *Scope) Dispose() {
	if sc.disposed.Swap(true) {
		return
	}

	if sc.parent != nil {
		sc.parent.removeChild(sc)
	}

	sc.childrenMu.Lock()
	children := make([]*Scope, len(sc.children))
	copy(children, sc.children)
	sc.children = nil
	sc.childrenMu.Unlock()

	for i := len(children) - 1; i >= 0; i-- {
		children[i].Dispose()
	}

	sc.cleanupsMu.Lock()
	cleanups := sc.cleanups
	sc.cleanups = nil
	sc.cleanupsMu.Unlock()

	for i := len(cleanups) - 1; i >= 0; i-- {
		cleanups[i]()
	}
}
