// Package live runs server-driven views over WebSocket connections.
// Views bind to shared state containers and re-render when the state
// they selected changes; every render is pushed to the client as a
// JSON update frame.
package live

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/tether-dev/tether/pkg/bind"
	"github.com/tether-dev/tether/pkg/state"
)

// Config configures a Server. Zero-valued fields take defaults.
type Config struct {
	// Logger receives server and session logs. Defaults to slog.Default().
	Logger *slog.Logger

	// ReadTimeout bounds how long a connection may stay silent before
	// it is considered dead. Clients keep the connection alive with
	// ping frames.
	ReadTimeout time.Duration

	// WriteTimeout bounds a single frame write.
	WriteTimeout time.Duration

	// MaxEventQueue is the per-session incoming frame queue capacity.
	MaxEventQueue int

	// ReadBufferSize and WriteBufferSize size the WebSocket buffers.
	ReadBufferSize  int
	WriteBufferSize int

	// CheckOrigin authorizes WebSocket upgrades. Nil uses the gorilla
	// default, which rejects cross-origin requests.
	CheckOrigin func(r *http.Request) bool

	// MetricsHandler, when set, is served at /metrics by Mount.
	// Typically promhttp.HandlerFor over the registry the telemetry
	// package writes to.
	MetricsHandler http.Handler
}

// DefaultConfig returns the default server configuration.
func DefaultConfig() *Config {
	return &Config{
		Logger:          slog.Default(),
		ReadTimeout:     60 * time.Second,
		WriteTimeout:    10 * time.Second,
		MaxEventQueue:   256,
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
	}
}

// Server hosts live sessions. It upgrades WebSocket connections,
// registers the view factories clients may mount, and carries the root
// scope that shared state registered via Provide mounts into.
type Server struct {
	config *Config
	logger *slog.Logger

	upgrader websocket.Upgrader

	// scope is the root of every session's scope chain.
	scope *Scope

	views   map[string]func() View
	viewsMu sync.RWMutex

	// middleware runs for every client event. Register before serving.
	middleware []Middleware

	sessions   map[string]*Session
	sessionsMu sync.Mutex
}

// NewServer creates a Server with the given configuration.
// A nil config uses defaults; unset fields are filled in.
func NewServer(config *Config) *Server {
	if config == nil {
		config = DefaultConfig()
	} else {
		defaults := DefaultConfig()
		if config.Logger == nil {
			config.Logger = defaults.Logger
		}
		if config.ReadTimeout == 0 {
			config.ReadTimeout = defaults.ReadTimeout
		}
		if config.WriteTimeout == 0 {
			config.WriteTimeout = defaults.WriteTimeout
		}
		if config.MaxEventQueue == 0 {
			config.MaxEventQueue = defaults.MaxEventQueue
		}
		if config.ReadBufferSize == 0 {
			config.ReadBufferSize = defaults.ReadBufferSize
		}
		if config.WriteBufferSize == 0 {
			config.WriteBufferSize = defaults.WriteBufferSize
		}
	}

	return &Server{
		config: config,
		logger: config.Logger.With("component", "live"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		scope:    NewScope(nil),
		views:    make(map[string]func() View),
		sessions: make(map[string]*Session),
	}
}

// Provide mounts shared state for h on the server's root scope. Every
// session resolves h to this container unless a view shadows it with
// its own provider, so dispatches from one session reach bindings in
// all of them.
func (srv *Server) Provide(h *bind.Shared, st *state.Store) *state.Store {
	p := h.NewStoreProvider(st)
	p.Mount(srv.scope)
	return p.Store()
}

// RegisterView registers a view factory. Clients mount views by name.
func (srv *Server) RegisterView(name string, factory func() View) {
	srv.viewsMu.Lock()
	defer srv.viewsMu.Unlock()
	srv.views[name] = factory
}

func (srv *Server) viewFactory(name string) (func() View, bool) {
	srv.viewsMu.RLock()
	defer srv.viewsMu.RUnlock()
	f, ok := srv.views[name]
	return f, ok
}

// Use appends middleware that runs for every client event before the
// target view's handler. Must be called before serving.
func (srv *Server) Use(mw ...Middleware) {
	srv.middleware = append(srv.middleware, mw...)
}

// WebSocketHandler returns an http.Handler that upgrades connections
// and runs live sessions. Use when mounting into an external router
// under a custom path.
func (srv *Server) WebSocketHandler() http.Handler {
	return http.HandlerFunc(srv.handleWebSocket)
}

// Mount attaches the server's endpoints to a chi router: the live
// socket at /live and, when Config.MetricsHandler is set, metrics at
// /metrics.
func (srv *Server) Mount(r chi.Router) {
	r.Get("/live", srv.handleWebSocket)
	if srv.config.MetricsHandler != nil {
		r.Handle("/metrics", srv.config.MetricsHandler)
	}
}

// handleWebSocket upgrades the connection and starts a session.
func (srv *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := srv.upgrader.Upgrade(w, r, nil)
	if err != nil {
		srv.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	s := newSession(srv, conn)
	srv.addSession(s)
	s.logger.Info("session started", "remote", r.RemoteAddr)
	s.start()
}

func (srv *Server) addSession(s *Session) {
	srv.sessionsMu.Lock()
	defer srv.sessionsMu.Unlock()
	srv.sessions[s.ID] = s
}

func (srv *Server) dropSession(s *Session) {
	srv.sessionsMu.Lock()
	defer srv.sessionsMu.Unlock()
	delete(srv.sessions, s.ID)
}

// SessionCount returns the number of live sessions.
func (srv *Server) SessionCount() int {
	srv.sessionsMu.Lock()
	defer srv.sessionsMu.Unlock()
	return len(srv.sessions)
}

// Shutdown closes every live session and disposes the server scope.
func (srv *Server) Shutdown(ctx context.Context) error {
	srv.sessionsMu.Lock()
	sessions := make([]*Session, 0, len(srv.sessions))
	for _, s := range srv.sessions {
		sessions = append(sessions, s)
	}
	srv.sessionsMu.Unlock()

	for _, s := range sessions {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		s.Close()
	}

	srv.scope.Dispose()
	return nil
}
