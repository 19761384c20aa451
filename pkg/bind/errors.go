package bind

import (
	"errors"
	"fmt"
)

// ErrUnbound is the sentinel for using a Shared handle in a scope that has
// no enclosing provider for it.
var ErrUnbound = errors.New("tether: no enclosing provider")

// UnboundError reports an unbound access. It wraps ErrUnbound and names the
// public operation the caller invoked, so the failure reads as that
// operation's, not as an internal lookup's.
type UnboundError struct {
	// Shared is the handle's name.
	Shared string

	// Op is the public operation that failed: "Use", "Dispatcher" or
	// "StoreFrom".
	Op string
}

func (e *UnboundError) Error() string {
	return fmt.Sprintf("tether: %s: no enclosing provider for shared state %q", e.Op, e.Shared)
}

func (e *UnboundError) Unwrap() error {
	return ErrUnbound
}
