package live

import (
	"context"
	"sync/atomic"

	"github.com/tether-dev/tether/pkg/bind"
	"github.com/tether-dev/tether/pkg/state"
)

// View is the interface for server-driven views. Render runs on the
// session loop whenever the view mounts or one of its bindings delivers
// a new value, and returns the payload sent to the client in the view's
// update frame. The payload must be JSON-serializable.
type View interface {
	Render(rc *RenderContext) any
}

// EventHandler is implemented by views that accept client events.
// HandleEvent runs on the session loop, so it may freely use
// dispatchers obtained during Render.
type EventHandler interface {
	HandleEvent(ctx context.Context, ev Event) error
}

// ViewFunc wraps a render function as a View.
type ViewFunc func(rc *RenderContext) any

// Render calls the wrapped function.
func (f ViewFunc) Render(rc *RenderContext) any {
	return f(rc)
}

// RenderContext carries the state a View needs while rendering. It is
// only valid for the duration of a single Render call.
type RenderContext struct {
	ctx  context.Context
	inst *viewInstance
}

// Context returns the context for the current render pass.
func (rc *RenderContext) Context() context.Context {
	return rc.ctx
}

// Scope returns the scope of the view being rendered.
func (rc *RenderContext) Scope() *Scope {
	return rc.inst.scope
}

// UseShared returns the value selected from the shared state resolved
// through h, and re-renders the view whenever a later mutation changes
// it. On the first render it creates a binding whose subscription is
// committed once the current update frame is on the wire; later renders
// reconfigure the existing binding, which keeps its selector and filter
// unless cfg.Deps changed.
//
// UseShared panics with the *bind.UnboundError when no enclosing
// provider carries state for h. The session loop recovers the panic and
// reports it to the client as an error frame.
func UseShared[R any](rc *RenderContext, h *bind.Shared, cfg bind.Config[R]) R {
	sc := rc.inst.scope
	if slot := sc.nextSlot(); slot != nil {
		b := slot.(*bind.Binding[R])
		b.Rebind(cfg)
		return b.Value()
	}

	b, err := bind.Use(sc, h, rc.inst, cfg)
	if err != nil {
		panic(err)
	}
	sc.setSlot(b)
	sc.OnCleanup(b.Detach)
	rc.inst.deferAttach(b)
	return b.Value()
}

// Provide mounts a provider for h on the rendering view's scope,
// seeding a fresh container with initial on the first render. Later
// renders refresh the provider instead: a reference-distinct initial
// merges into the container without replacing it. Because the check is
// by reference, views must pass a stable map across renders (or create
// h with bind.IgnorePropsChanges); a fresh literal every render would
// re-seed the container each pass. The container is returned for
// direct reads.
func Provide(rc *RenderContext, h *bind.Shared, initial state.State, opts ...state.Option) *state.Store {
	sc := rc.inst.scope
	if slot := sc.nextSlot(); slot != nil {
		p := slot.(*bind.Provider)
		p.Refresh(initial)
		return p.Store()
	}

	p := h.NewProvider(initial, opts...)
	p.Mount(sc)
	sc.setSlot(p)
	return p.Store()
}

// ProvideStore mounts a provider for h that exposes an existing
// container, typically one registered for all sessions via
// Server.Provide. Rendering again with a different container merges its
// values into the mounted one; the mounted identity never changes.
func ProvideStore(rc *RenderContext, h *bind.Shared, st *state.Store) *state.Store {
	sc := rc.inst.scope
	if slot := sc.nextSlot(); slot != nil {
		p := slot.(*bind.Provider)
		p.RefreshStore(st)
		return p.Store()
	}

	p := h.NewStoreProvider(st)
	p.Mount(sc)
	sc.setSlot(p)
	return p.Store()
}

// UseDispatch returns a dispatcher writing to the shared state resolved
// through h. Like UseShared it panics with the *bind.UnboundError when
// no enclosing provider is mounted.
func UseDispatch(rc *RenderContext, h *bind.Shared) bind.Dispatcher {
	d, err := h.Dispatcher(rc.inst.scope)
	if err != nil {
		panic(err)
	}
	return d
}

// attacher is the part of a binding the commit step drives.
type attacher interface {
	Attach()
}

// viewInstance is one mounted view in a session. It implements
// bind.Site: slot assignments mark the instance dirty and wake the
// session loop for a render pass. The delivered slot itself is not
// stored; the next render pass reads fresh values from the bindings.
type viewInstance struct {
	name    string
	view    View
	scope   *Scope
	session *Session

	dirty atomic.Bool

	// pending holds bindings created during the last render pass that
	// still need their subscription once the pass commits. Only the
	// session loop touches it.
	pending []attacher
}

var _ bind.Site = (*viewInstance)(nil)

// Assign implements bind.Site. Safe to call from any goroutine; shared
// containers deliver from whichever session mutated them.
func (v *viewInstance) Assign(_ bind.Slot) {
	if v.dirty.CompareAndSwap(false, true) {
		if v.session != nil {
			v.session.scheduleRender()
		}
	}
}

// render runs one render pass for the view and returns its payload.
func (v *viewInstance) render(ctx context.Context) any {
	v.scope.beginRender()
	rc := &RenderContext{ctx: ctx, inst: v}
	return v.view.Render(rc)
}

// deferAttach queues a binding created during the current render pass
// for subscription at the next commit.
func (v *viewInstance) deferAttach(b attacher) {
	v.pending = append(v.pending, b)
}

// commit subscribes the bindings created during the last render pass.
// Mutations that landed between derivation and subscription are picked
// up by the bindings' own catch-up checks.
func (v *viewInstance) commit() {
	pending := v.pending
	v.pending = nil
	for _, b := range pending {
		b.Attach()
	}
}
