package bind

import (
	"sync"

	"github.com/tether-dev/tether/pkg/state"
)

// Provider installs a Container for one Shared handle into a scope
// subtree. A provider either owns its Container (built once from an
// initial value) or wraps one the caller constructed elsewhere. Either
// way the Container's identity is fixed for the provider's lifetime:
// later input changes propagate by value, never by swapping the store.
type Provider struct {
	shared *Shared
	store  *state.Store

	mu      sync.Mutex
	mounted bool

	// lastInitial / lastExternal remember the most recent inputs so that
	// Refresh and RefreshStore only react to genuinely new ones.
	lastInitial  state.State
	lastExternal *state.Store
}

// NewProvider creates a provider owning a fresh Container seeded with
// initial. Store options (an observer, say) pass through to the new
// Container.
func (h *Shared) NewProvider(initial state.State, opts ...state.Option) *Provider {
	return &Provider{
		shared:      h,
		store:       state.New(initial, opts...),
		lastInitial: initial,
	}
}

// NewStoreProvider creates a provider wrapping an externally owned
// Container. A nil store gets an empty owned one instead.
func (h *Shared) NewStoreProvider(st *state.Store) *Provider {
	if st == nil {
		st = state.New(nil)
	}
	return &Provider{
		shared:       h,
		store:        st,
		lastExternal: st,
	}
}

// Mount installs the Container into scope under the handle's key. Lookups
// from scope and its descendants resolve to this Container until a nearer
// provider shadows it.
func (p *Provider) Mount(scope MutableScope) {
	scope.SetValue(sharedKey{p.shared}, p.store)

	p.mu.Lock()
	p.mounted = true
	p.mu.Unlock()
}

// Refresh is the owner's signal that its initial-value input changed after
// first mount. A reference-distinct new initial merges into the Container
// via Set; an identical one, a call before Mount, or a handle constructed
// with IgnorePropsChanges all make this a no-op.
func (p *Provider) Refresh(initial state.State) {
	if p.shared.ignoreProps {
		return
	}
	p.mu.Lock()
	if !p.mounted || state.Same(initial, p.lastInitial) {
		p.mu.Unlock()
		return
	}
	p.lastInitial = initial
	p.mu.Unlock()

	p.store.Set(initial)
}

// RefreshStore is the wrapping provider's counterpart to Refresh: when the
// owner is handed a different Container after first mount, that
// newcomer's state merges into the mounted one. The mounted Container is
// never swapped out, so existing bindings stay valid.
func (p *Provider) RefreshStore(st *state.Store) {
	if p.shared.ignoreProps || st == nil {
		return
	}
	p.mu.Lock()
	if !p.mounted || st == p.lastExternal || st == p.store {
		p.mu.Unlock()
		return
	}
	p.lastExternal = st
	p.mu.Unlock()

	p.store.Set(st.Get())
}

// Store returns the provider's Container.
func (p *Provider) Store() *state.Store {
	return p.store
}

// Dispatcher returns write access to the provider's Container directly,
// without a scope lookup.
func (p *Provider) Dispatcher() Dispatcher {
	return Dispatcher{store: p.store}
}

// Shared returns the handle this provider serves.
func (p *Provider) Shared() *Shared {
	return p.shared
}
