// Package tether provides the public API for the tether shared state
// container and live view server.
//
// This is the recommended import for most applications:
//
//	import "github.com/tether-dev/tether"
//
// Usage:
//
//	board := tether.NewShared("board")
//	store := tether.New(tether.State{"count": 0})
//
//	srv := tether.NewServer(nil)
//	srv.Provide(board, store)
//	srv.RegisterView("counter", func() tether.View { return &counterView{} })
//
// Subpackages carry the full surface: pkg/state for containers and
// filters, pkg/bind for handles and bindings, pkg/live for the
// WebSocket server, pkg/telemetry for metrics and tracing, and
// pkg/statetest for test harnesses.
package tether

import (
	"github.com/tether-dev/tether/pkg/bind"
	"github.com/tether-dev/tether/pkg/live"
	"github.com/tether-dev/tether/pkg/state"
)

// =============================================================================
// State containers (re-export from pkg/state)
// =============================================================================

// State is one immutable snapshot of a container. Mutations merge a
// partial into the previous snapshot and produce a new one; snapshots
// already handed out never change.
type State = state.State

// Store is a shared state container.
type Store = state.Store

// StoreOption configures a Store at construction.
type StoreOption = state.Option

// Observer receives container activity, typically for metrics. See
// pkg/telemetry for a Prometheus implementation.
type Observer = state.Observer

// Unsubscribe removes a subscription when called.
type Unsubscribe = state.Unsubscribe

// New creates a container seeded with initial.
//
// Example:
//
//	store := tether.New(tether.State{"count": 0})
//	store.Set(tether.State{"count": 1})
var New = state.New

// WithObserver attaches an Observer to a new container.
var WithObserver = state.WithObserver

// Same reports whether two snapshots are the same map. Because every
// mutation produces a new snapshot, this is a constant-time "anything
// changed" probe.
var Same = state.Same

// =============================================================================
// Change filters (re-export from pkg/state)
// =============================================================================

// Filter decides whether a subscriber hears about a mutation.
type Filter = state.Filter

// Comparator builds a Filter from an equality predicate: return true to
// report prev and next as equal and suppress the notification.
//
// Example:
//
//	f := tether.Comparator(func(prev, next tether.State) bool {
//	    return prev.Int("count") == next.Int("count")
//	})
var Comparator = state.Comparator

// Hash builds a Filter from an extractor: the notification is
// suppressed while the extracted values stay equal.
//
// Example:
//
//	f := tether.Hash(func(s tether.State) any { return s.Int("count") })
var Hash = state.Hash

// =============================================================================
// Shared handles and bindings (re-export from pkg/bind)
// =============================================================================

// Shared identifies one piece of shared state. Handles carry no values;
// providers mount containers for them and consumers resolve through the
// scope chain.
type Shared = bind.Shared

// SharedOption configures a Shared handle.
type SharedOption = bind.SharedOption

// NewShared creates a handle. The name appears in diagnostics only.
//
// Example:
//
//	var boardState = tether.NewShared("board")
var NewShared = bind.NewShared

// IgnorePropsChanges makes providers for the handle keep their first
// seed and ignore later initial values.
var IgnorePropsChanges = bind.IgnorePropsChanges

// Provider mounts a container on a scope.
type Provider = bind.Provider

// Dispatcher is write access to one container.
type Dispatcher = bind.Dispatcher

// MutableScope is a scope providers can mount on. *Scope implements it.
type MutableScope = bind.MutableScope

// Site receives slot assignments from bindings.
type Site = bind.Site

// Slot is one delivered value.
type Slot = bind.Slot

// SlotOf wraps a value as a Slot.
var SlotOf = bind.SlotOf

// Phase is a binding's lifecycle position.
type Phase = bind.Phase

// Phase constants
const (
	PhaseSubscribing = bind.PhaseSubscribing
	PhaseActive      = bind.PhaseActive
	PhaseTornDown    = bind.PhaseTornDown
)

// Use derives a binding for h resolved through scope, delivering values
// to site. The binding starts in PhaseSubscribing with a synchronously
// derived value; call Attach to subscribe it. Most applications use the
// view hook UseShared instead, which manages the lifecycle itself.
func Use[R any](scope bind.Scope, h *Shared, site Site, cfg bind.Config[R]) (*bind.Binding[R], error) {
	return bind.Use(scope, h, site, cfg)
}

// NewBinding derives a binding directly against a container, without
// handle resolution.
func NewBinding[R any](store *Store, site Site, cfg bind.Config[R]) *bind.Binding[R] {
	return bind.NewBinding(store, site, cfg)
}

// =============================================================================
// Errors (re-export from pkg/bind and pkg/live)
// =============================================================================

// ErrUnbound reports a handle resolved through a scope chain with no
// provider for it. UnboundError wraps it with the handle's name.
var ErrUnbound = bind.ErrUnbound

// UnboundError is the concrete error returned by failed resolutions.
type UnboundError = bind.UnboundError

// ErrSessionClosed reports an operation on a closed session.
var ErrSessionClosed = live.ErrSessionClosed

// ErrQueueFull reports a session event queue at capacity.
var ErrQueueFull = live.ErrQueueFull

// CloseError reports an abnormal WebSocket close.
type CloseError = live.CloseError

// =============================================================================
// Live views (re-export from pkg/live)
// =============================================================================

// Server owns the WebSocket endpoint and the registered views.
type Server = live.Server

// ServerConfig configures a Server.
type ServerConfig = live.Config

// NewServer creates a server. A nil config uses DefaultConfig.
var NewServer = live.NewServer

// DefaultConfig returns the default server configuration.
var DefaultConfig = live.DefaultConfig

// View renders a payload for the client. Views wanting client events
// also implement EventHandler.
type View = live.View

// EventHandler handles client events for a view.
type EventHandler = live.EventHandler

// ViewFunc wraps a render function as a View.
type ViewFunc = live.ViewFunc

// RenderContext carries per-render state into View.Render.
type RenderContext = live.RenderContext

// Event is one client event, as seen by handlers and middleware.
type Event = live.Event

// Handler processes one event.
type Handler = live.Handler

// Middleware wraps event handling, innermost last.
type Middleware = live.Middleware

// Session is one connected client.
type Session = live.Session

// Scope is a node in the resolution chain. Sessions and views get
// scopes from the server; tests can build chains with NewScope.
type Scope = live.Scope

// NewScope creates a scope with the given parent, which may be nil.
var NewScope = live.NewScope

// UseShared returns the value selected from the shared state resolved
// through h and re-renders the view when a mutation changes it.
//
// Example:
//
//	count := tether.UseShared(rc, boardState, bind.Config[int]{
//	    Selector: func(s tether.State) int { return s.Int("count") },
//	    Filter:   tether.Hash(func(s tether.State) any { return s.Int("count") }),
//	})
func UseShared[R any](rc *RenderContext, h *Shared, cfg bind.Config[R]) R {
	return live.UseShared(rc, h, cfg)
}

// UseDispatch returns a dispatcher writing to the shared state resolved
// through h.
var UseDispatch = live.UseDispatch

// Provide mounts a provider during render, seeding a fresh container.
var Provide = live.Provide

// ProvideStore mounts a provider during render for an existing
// container.
var ProvideStore = live.ProvideStore
