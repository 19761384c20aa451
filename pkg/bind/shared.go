// Package bind synchronizes consumer binding sites with keyed state
// containers.
//
// A Shared handle, declared once at package level, names one logical piece
// of shared state. A Provider installs a state.Store for the handle into a
// Scope subtree; Use resolves the nearest enclosing one and returns a
// Binding that derives a value through a selector, gated by an optional
// state.Filter.
//
// Bindings are born derived-but-unattached: the host renders the initial
// value first, commits it, and only then calls Attach, which registers the
// store listener and closes the gap with a single catch-up comparison.
// Derived values travel to their Site boxed in a Slot, so function values
// pass through without ever being invoked.
package bind

import "github.com/tether-dev/tether/pkg/state"

// sharedKey is the scope key for one handle. Keyed by handle pointer, so
// two handles never collide even if they share a name.
type sharedKey struct {
	h *Shared
}

// Shared names one logical shared state. Handles are cheap, comparable,
// and meant to be declared once at package level; every scope lookup,
// provider and binding for that state goes through the same handle.
type Shared struct {
	name        string
	ignoreProps bool
}

// SharedOption configures a handle at construction time.
type SharedOption func(*Shared)

// IgnorePropsChanges decouples every provider of this handle from its
// owner's later renders: initial values or containers supplied after the
// first mount never propagate into the mounted Container.
func IgnorePropsChanges() SharedOption {
	return func(h *Shared) {
		h.ignoreProps = true
	}
}

// NewShared creates a handle. The name is diagnostic only; identity is the
// handle pointer.
func NewShared(name string, opts ...SharedOption) *Shared {
	h := &Shared{name: name}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Name returns the diagnostic name.
func (h *Shared) Name() string {
	return h.name
}

func (h *Shared) String() string {
	return "Shared(" + h.name + ")"
}

// lookup resolves the Container installed for this handle, walking the
// scope the host gave us. op is the public operation to attribute an
// unbound access to.
func (h *Shared) lookup(scope Scope, op string) (*state.Store, error) {
	if scope != nil {
		if st, ok := scope.Value(sharedKey{h}).(*state.Store); ok && st != nil {
			return st, nil
		}
	}
	return nil, &UnboundError{Shared: h.name, Op: op}
}

// StoreFrom returns the Container installed for this handle in scope.
// Most callers want Use or Dispatcher instead; StoreFrom is the escape
// hatch for hosts building their own sugar.
func (h *Shared) StoreFrom(scope Scope) (*state.Store, error) {
	return h.lookup(scope, "StoreFrom")
}

// Dispatcher returns write access to the Container installed for this
// handle in scope.
func (h *Shared) Dispatcher(scope Scope) (Dispatcher, error) {
	st, err := h.lookup(scope, "Dispatcher")
	if err != nil {
		return Dispatcher{}, err
	}
	return Dispatcher{store: st}, nil
}
