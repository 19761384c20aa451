package live

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tether-dev/tether/pkg/bind"
)

// Session represents a single live connection and the views mounted on
// it. All rendering and event handling happens on the session's loop
// goroutine; the loop owns the views map, so no lock guards it.
type Session struct {
	// ID is the session's random identifier.
	ID string

	// CreatedAt is when the session was established.
	CreatedAt time.Time

	server *Server

	// conn may be nil, in which case outgoing frames are dropped.
	// Tests drive the loop this way without a socket.
	conn   *websocket.Conn
	mu     sync.Mutex // Protects conn writes
	closed atomic.Bool

	// scope is the session's root scope, a child of the server scope.
	scope *Scope

	// views mounted on this session, flushed in mount order.
	views     map[string]*viewInstance
	viewOrder []string

	// Channels
	frames     chan clientFrame // Incoming frames
	dispatchCh chan func()      // Functions to run on the loop
	renderCh   chan struct{}    // Signal for a render pass
	done       chan struct{}    // Shutdown signal

	// sendSeq numbers outgoing update frames.
	sendSeq atomic.Uint64

	logger *slog.Logger
}

// generateSessionID generates a cryptographically random session ID.
func generateSessionID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		panic(fmt.Sprintf("crypto/rand failed: %v", err))
	}
	return hex.EncodeToString(b)
}

// newSession creates a session owned by srv for the given connection.
func newSession(srv *Server, conn *websocket.Conn) *Session {
	id := generateSessionID()

	return &Session{
		ID:         id,
		CreatedAt:  time.Now(),
		server:     srv,
		conn:       conn,
		scope:      NewScope(srv.scope),
		views:      make(map[string]*viewInstance),
		frames:     make(chan clientFrame, srv.config.MaxEventQueue),
		dispatchCh: make(chan func(), srv.config.MaxEventQueue),
		renderCh:   make(chan struct{}, 1),
		done:       make(chan struct{}),
		logger:     srv.logger.With("session_id", id),
	}
}

// start launches the session goroutines.
func (s *Session) start() {
	go s.readLoop()
	go s.run()
}

// readLoop reads frames from the connection and queues them for the
// loop goroutine. It blocks until the connection closes.
func (s *Session) readLoop() {
	defer s.Close()

	for {
		s.conn.SetReadDeadline(time.Now().Add(s.server.config.ReadTimeout))

		_, msg, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				s.logger.Error("read error", "error", err)
			}
			return
		}

		var f clientFrame
		if err := json.Unmarshal(msg, &f); err != nil {
			s.logger.Error("frame decode error", "error", err)
			s.sendError(ErrCodeBadFrame, "invalid frame")
			continue
		}

		if err := s.queueFrame(f); err != nil {
			s.sendError(ErrCodeRateLimited, "frame queue full")
		}
	}
}

// queueFrame queues a frame for the loop goroutine.
func (s *Session) queueFrame(f clientFrame) error {
	select {
	case s.frames <- f:
		return nil
	default:
		s.logger.Warn("frame queue full, dropping frame", "type", f.Type)
		return ErrQueueFull
	}
}

// run processes queued frames, dispatched callbacks, and render signals
// until the session is closed.
func (s *Session) run() {
	for {
		select {
		case f := <-s.frames:
			s.handleFrame(f)

		case fn := <-s.dispatchCh:
			s.executeDispatch(fn)

		case <-s.renderCh:
			s.flush()

		case <-s.done:
			return
		}
	}
}

// handleFrame dispatches one client frame on the loop goroutine.
func (s *Session) handleFrame(f clientFrame) {
	switch f.Type {
	case frameMount:
		s.mountView(f.View)

	case frameUnmount:
		s.unmountView(f.View)

	case frameEvent:
		s.handleEvent(Event{View: f.View, Name: f.Event, Data: f.Data, Seq: f.Seq})

	case framePing:
		s.writeFrame(serverFrame{Type: framePong})

	default:
		s.logger.Warn("unknown frame type", "type", f.Type)
		s.sendError(ErrCodeBadFrame, "unknown frame type: "+f.Type)
	}
}

// mountView creates and mounts the named view, rendering it once and
// sending the initial update frame. Mounting a name that is already
// mounted tears the old instance down first.
func (s *Session) mountView(name string) {
	factory, ok := s.server.viewFactory(name)
	if !ok {
		s.logger.Warn("unknown view", "view", name)
		s.sendError(ErrCodeUnknownView, "unknown view: "+name)
		return
	}

	if _, exists := s.views[name]; exists {
		s.unmountView(name)
	}

	inst := &viewInstance{
		name:    name,
		view:    factory(),
		scope:   NewScope(s.scope),
		session: s,
	}
	s.views[name] = inst
	s.viewOrder = append(s.viewOrder, name)

	s.logger.Info("view mounted", "view", name)
	s.renderView(inst)
}

// unmountView disposes a mounted view and its scope, detaching every
// binding the view created.
func (s *Session) unmountView(name string) {
	inst, ok := s.views[name]
	if !ok {
		return
	}

	delete(s.views, name)
	for i, n := range s.viewOrder {
		if n == name {
			s.viewOrder = append(s.viewOrder[:i], s.viewOrder[i+1:]...)
			break
		}
	}

	inst.scope.Dispose()
	s.logger.Info("view unmounted", "view", name)
}

// handleEvent runs the middleware chain and the target view's handler,
// then flushes any views the handler made dirty.
func (s *Session) handleEvent(ev Event) {
	inst, ok := s.views[ev.View]
	if !ok {
		s.sendError(ErrCodeNotMounted, "view not mounted: "+ev.View)
		return
	}

	handler := chainMiddleware(s.viewHandler(inst), s.server.middleware)

	s.safeExecute(func() {
		if err := handler(context.Background(), ev); err != nil {
			s.logger.Warn("event handler failed",
				"view", ev.View,
				"event", ev.Name,
				"error", err)
			s.sendError(ErrCodeHandler, err.Error())
		}
	})

	s.flush()
}

// viewHandler returns the handler for a mounted view. Views that do not
// implement EventHandler accept no events.
func (s *Session) viewHandler(inst *viewInstance) Handler {
	return func(ctx context.Context, ev Event) error {
		h, ok := inst.view.(EventHandler)
		if !ok {
			return fmt.Errorf("view %q does not handle events", ev.View)
		}
		return h.HandleEvent(ctx, ev)
	}
}

// Dispatch queues fn to run on the session loop. This is the correct
// way to mutate state from goroutines outside the loop: fn runs
// serialized with event handlers, and any views it dirties re-render
// when it returns.
func (s *Session) Dispatch(fn func()) {
	if s.closed.Load() {
		return
	}
	select {
	case s.dispatchCh <- fn:
	case <-s.done:
	default:
		s.logger.Warn("dispatch queue full, discarding callback")
	}
}

// executeDispatch runs a dispatched function and flushes dirty views.
func (s *Session) executeDispatch(fn func()) {
	s.safeExecute(fn)
	s.flush()
}

// safeExecute runs fn with panic recovery and reports whether fn
// completed. A panic carrying the *bind.UnboundError keeps its message
// on the error frame; anything else maps to an internal error.
func (s *Session) safeExecute(fn func()) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			ok = false

			var unbound *bind.UnboundError
			if err, isErr := r.(error); isErr && errors.As(err, &unbound) {
				s.logger.Warn("no provider for shared state",
					"shared", unbound.Shared,
					"op", unbound.Op)
				s.sendError(ErrCodeUnbound, err.Error())
				return
			}

			stack := debug.Stack()
			s.logger.Error("panic on session loop",
				"panic", r,
				"stack", string(stack))
			s.sendError(ErrCodeInternal, "internal error")
		}
	}()

	fn()
	return true
}

// scheduleRender wakes the loop for a render pass. Safe to call from
// any goroutine; if a pass is already scheduled this is a no-op.
func (s *Session) scheduleRender() {
	select {
	case s.renderCh <- struct{}{}:
	default:
		// Already scheduled
	}
}

// flush re-renders every dirty view in mount order, writing an update
// frame for each.
func (s *Session) flush() {
	if s.closed.Load() {
		return
	}

	for _, name := range s.viewOrder {
		inst := s.views[name]
		if inst.dirty.CompareAndSwap(true, false) {
			s.renderView(inst)
		}
	}
}

// renderView runs one render pass for inst and sends the result. New
// bindings subscribe only after the update frame is written, so the
// payload the client saw and the window the bindings resume from agree.
func (s *Session) renderView(inst *viewInstance) {
	var data any
	if !s.safeExecute(func() { data = inst.render(context.Background()) }) {
		return
	}

	seq := s.sendSeq.Add(1)
	s.writeFrame(serverFrame{Type: frameUpdate, View: inst.name, Seq: seq, Data: data})
	inst.commit()
}

// writeFrame marshals and writes a frame to the connection.
func (s *Session) writeFrame(f serverFrame) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed.Load() {
		return ErrSessionClosed
	}
	if s.conn == nil {
		return nil
	}

	data, err := json.Marshal(f)
	if err != nil {
		s.logger.Error("frame encode error", "error", err)
		return err
	}

	s.conn.SetWriteDeadline(time.Now().Add(s.server.config.WriteTimeout))
	if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		s.logger.Error("write error", "error", err)
		s.closeInternal(&CloseError{SessionID: s.ID, Reason: "write failed", Err: err})
		return err
	}
	return nil
}

// sendError sends an error frame to the client.
func (s *Session) sendError(code, message string) {
	s.writeFrame(serverFrame{Type: frameError, Code: code, Message: message})
}

// Close shuts the session down. Safe to call from any goroutine and
// idempotent.
func (s *Session) Close() {
	s.closeInternal(&CloseError{SessionID: s.ID, Reason: "closed"})
}

// closeInternal tears the session down: signals the loops, disposes the
// scope chain (detaching every binding), and closes the connection.
func (s *Session) closeInternal(cause *CloseError) {
	if s.closed.Swap(true) {
		return
	}

	select {
	case <-s.done:
	default:
		close(s.done)
	}

	s.scope.Dispose()

	if s.conn != nil {
		s.conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second),
		)
		s.conn.Close()
	}

	s.server.dropSession(s)

	if cause != nil && cause.Err != nil {
		s.logger.Info("session closed", "reason", cause.Reason, "error", cause.Err)
	} else {
		s.logger.Info("session closed")
	}
}

// IsClosed reports whether the session has shut down.
func (s *Session) IsClosed() bool {
	return s.closed.Load()
}

// Done returns a channel that is closed when the session shuts down.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Scope returns the session's root scope.
func (s *Session) Scope() *Scope {
	return s.scope
}

// Logger returns the session logger.
func (s *Session) Logger() *slog.Logger {
	return s.logger
}
