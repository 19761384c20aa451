package live

import "context"

// Event is a client event addressed to a mounted view.
type Event struct {
	// View is the name the target view was mounted under.
	View string

	// Name identifies the event. Names are chosen by the client and
	// interpreted by the view's HandleEvent.
	Name string

	// Data carries the event payload as decoded JSON.
	Data map[string]any

	// Seq is the client's sequence number for this event.
	Seq uint64
}

// Handler processes a single client event. Handlers run on the session
// loop goroutine of the session that received the event.
type Handler func(ctx context.Context, ev Event) error

// Middleware wraps a Handler. Middleware registered via Server.Use runs
// for every event before the target view's own handler, in registration
// order.
type Middleware func(Handler) Handler

// chainMiddleware composes mws around h so that mws[0] runs first.
func chainMiddleware(h Handler, mws []Middleware) Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}
