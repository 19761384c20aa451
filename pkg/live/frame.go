package live

// Frame types exchanged over the live socket. Every frame is a single
// JSON object with a "type" discriminator.
const (
	// Client to server.
	frameMount   = "mount"
	frameUnmount = "unmount"
	frameEvent   = "event"
	framePing    = "ping"

	// Server to client.
	frameUpdate = "update"
	frameError  = "error"
	framePong   = "pong"
)

// Error codes reported to the client in error frames.
const (
	ErrCodeBadFrame    = "bad_frame"
	ErrCodeUnknownView = "unknown_view"
	ErrCodeNotMounted  = "not_mounted"
	ErrCodeUnbound     = "unbound"
	ErrCodeHandler     = "handler_error"
	ErrCodeRateLimited = "rate_limited"
	ErrCodeInternal    = "internal_error"
)

// clientFrame is a message received from the client.
type clientFrame struct {
	Type  string         `json:"type"`
	View  string         `json:"view,omitempty"`
	Event string         `json:"event,omitempty"`
	Data  map[string]any `json:"data,omitempty"`
	Seq   uint64         `json:"seq,omitempty"`
}

// serverFrame is a message sent to the client.
type serverFrame struct {
	Type    string `json:"type"`
	View    string `json:"view,omitempty"`
	Seq     uint64 `json:"seq,omitempty"`
	Data    any    `json:"data,omitempty"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}
