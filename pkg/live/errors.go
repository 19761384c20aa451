package live

import (
	"errors"
	"fmt"
)

// ErrSessionClosed is returned when a frame is written to a session
// that has already shut down.
var ErrSessionClosed = errors.New("live: session closed")

// ErrQueueFull is returned when a session's frame queue is full and an
// incoming frame had to be dropped.
var ErrQueueFull = errors.New("live: frame queue full")

// CloseError describes why a session was shut down.
type CloseError struct {
	SessionID string
	Reason    string
	Err       error
}

func (e *CloseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("live: session %s closed: %s: %v", e.SessionID, e.Reason, e.Err)
	}
	return fmt.Sprintf("live: session %s closed: %s", e.SessionID, e.Reason)
}

func (e *CloseError) Unwrap() error {
	return e.Err
}
