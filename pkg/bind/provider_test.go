package bind

import (
	"testing"

	"github.com/tether-dev/tether/pkg/state"
)

func TestProviderOwnsContainer(t *testing.T) {
	h := NewShared("session")
	p := h.NewProvider(state.State{"user": "ada"})

	if got := p.Store().Get().String("user"); got != "ada" {
		t.Errorf("expected owned container seeded with initial, got %q", got)
	}
	if p.Shared() != h {
		t.Error("expected provider to report its handle")
	}

	scope := newChainScope(nil)
	p.Mount(scope)

	st, err := h.StoreFrom(scope)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if st != p.Store() {
		t.Error("mounted container should be the provider's own")
	}
}

func TestProviderRefreshPropagates(t *testing.T) {
	h := NewShared("session")
	p := h.NewProvider(state.State{"user": "ada", "theme": "dark"})
	scope := newChainScope(nil)
	p.Mount(scope)

	fires := 0
	p.Store().Subscribe(nil, func() { fires++ })

	p.Refresh(state.State{"user": "grace"})

	if got := p.Store().Get().String("user"); got != "grace" {
		t.Errorf("expected refreshed user, got %q", got)
	}
	if got := p.Store().Get().String("theme"); got != "dark" {
		t.Errorf("refresh merges, it must not replace: theme=%q", got)
	}
	if fires != 1 {
		t.Errorf("expected one notification, got %d", fires)
	}
}

func TestProviderRefreshSameInputNoOp(t *testing.T) {
	h := NewShared("session")
	initial := state.State{"user": "ada"}
	p := h.NewProvider(initial)
	p.Mount(newChainScope(nil))

	fires := 0
	p.Store().Subscribe(nil, func() { fires++ })

	// The same map instance arriving again is not a new input.
	p.Refresh(initial)
	if fires != 0 {
		t.Errorf("expected no propagation for identical input, got %d", fires)
	}
}

func TestProviderRefreshBeforeMountIgnored(t *testing.T) {
	h := NewShared("session")
	p := h.NewProvider(state.State{"user": "ada"})

	p.Refresh(state.State{"user": "grace"})

	if got := p.Store().Get().String("user"); got != "ada" {
		t.Errorf("refresh before first mount must not propagate, got %q", got)
	}
}

func TestProviderIgnorePropsChanges(t *testing.T) {
	h := NewShared("session", IgnorePropsChanges())
	p := h.NewProvider(state.State{"user": "ada"})
	p.Mount(newChainScope(nil))

	fires := 0
	p.Store().Subscribe(nil, func() { fires++ })

	p.Refresh(state.State{"user": "grace"})
	p.RefreshStore(state.New(state.State{"user": "linus"}))

	if fires != 0 {
		t.Errorf("expected full decoupling from later inputs, got %d notifications", fires)
	}
	if got := p.Store().Get().String("user"); got != "ada" {
		t.Errorf("expected state untouched, got %q", got)
	}
}

func TestProviderWrapsExternalStore(t *testing.T) {
	external := state.New(state.State{"n": 1})
	h := NewShared("counter")
	p := h.NewStoreProvider(external)
	scope := newChainScope(nil)
	p.Mount(scope)

	if p.Store() != external {
		t.Fatal("expected provider to wrap the external container as-is")
	}

	st, err := h.StoreFrom(scope)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if st != external {
		t.Error("lookups should resolve to the external container")
	}
}

func TestProviderRefreshStorePropagatesValues(t *testing.T) {
	original := state.New(state.State{"n": 1, "keep": true})
	h := NewShared("counter")
	p := h.NewStoreProvider(original)
	p.Mount(newChainScope(nil))

	replacement := state.New(state.State{"n": 5})
	p.RefreshStore(replacement)

	// Values travel; the mounted container identity does not.
	if p.Store() != original {
		t.Fatal("container identity must never change after mount")
	}
	if got := original.Get().Int("n"); got != 5 {
		t.Errorf("expected replacement state merged in, got n=%d", got)
	}
	if !original.Get().Bool("keep") {
		t.Error("merge must keep untouched keys")
	}

	// The same replacement arriving again is not a new input.
	fires := 0
	original.Subscribe(nil, func() { fires++ })
	p.RefreshStore(replacement)
	if fires != 0 {
		t.Errorf("expected no second propagation, got %d", fires)
	}

	// Handing the provider its own container is a no-op.
	p.RefreshStore(original)
	if fires != 0 {
		t.Errorf("expected self-refresh to be ignored, got %d", fires)
	}
}

func TestProviderNilStore(t *testing.T) {
	h := NewShared("empty")
	p := h.NewStoreProvider(nil)
	if p.Store() == nil {
		t.Fatal("expected a usable container for nil input")
	}
	p.Mount(newChainScope(nil))
	p.Dispatcher().Set(state.State{"ok": true})
	if !p.Store().Get().Bool("ok") {
		t.Error("expected dispatcher write to land")
	}
}
