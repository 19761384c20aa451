// Package state implements a keyed state container with merge-only writes
// and filtered change notification.
//
// A Store holds a single State value mapping string keys to arbitrary
// values. Writes go through Set or Update and always perform a one-level
// shallow merge that installs a brand-new map, so a State obtained from Get
// is stable and safe to keep. Listeners subscribe with an optional Filter
// deciding which transitions they care about; notification is synchronous,
// on the writing goroutine, in subscription order.
package state

import "reflect"

// State is the value held by a Store: string keys mapping to arbitrary
// values. A nil value under a key is legal and distinct from the key being
// absent. Callers must treat a State they did not build themselves as
// read-only; mutating one in place defeats the identity guarantees the
// notification pipeline relies on.
type State map[string]any

// String returns the value under key if it is a string, or "" otherwise.
func (s State) String(key string) string {
	if v, ok := s[key].(string); ok {
		return v
	}
	return ""
}

// Int returns the value under key as an int. Accepts int, int64 and
// float64 (the type JSON decoding produces); anything else yields 0.
func (s State) Int(key string) int {
	switch v := s[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}

// Bool returns the value under key if it is a bool, or false otherwise.
func (s State) Bool(key string) bool {
	if v, ok := s[key].(bool); ok {
		return v
	}
	return false
}

// Same reports whether a and b are the same map instance. Content is not
// inspected; this is the identity comparison the notification pipeline
// applies before any Filter runs.
func Same(a, b State) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return reflect.ValueOf(a).Pointer() == reflect.ValueOf(b).Pointer()
}

// merge returns a new State holding current's entries overlaid with
// partial's entries. One level deep; values are shared, not copied.
func merge(current, partial State) State {
	next := make(State, len(current)+len(partial))
	for k, v := range current {
		next[k] = v
	}
	for k, v := range partial {
		next[k] = v
	}
	return next
}
