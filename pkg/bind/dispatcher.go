package bind

import "github.com/tether-dev/tether/pkg/state"

// Dispatcher is write access to one Container, resolved once through a
// Shared handle. Partials carry arbitrary values, functions included, as
// opaque payload; nothing in a partial is ever invoked.
//
// The zero Dispatcher is unusable; obtain one from Shared.Dispatcher or
// Provider.Dispatcher.
type Dispatcher struct {
	store *state.Store
}

// Set merges partial into the container's state.
func (d Dispatcher) Set(partial state.State) {
	d.store.Set(partial)
}

// Update computes a partial from the current state and merges it, without
// a read-then-write round trip through the caller. fn must not call back
// into the container.
func (d Dispatcher) Update(fn func(state.State) state.State) {
	d.store.Update(fn)
}
