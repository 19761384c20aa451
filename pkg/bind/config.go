package bind

import (
	"reflect"

	"github.com/tether-dev/tether/pkg/state"
)

// Config describes one binding site: how to derive the bound value
// (Selector), which state transitions matter (Filter), and when the
// closures must be replaced (Deps).
type Config[R any] struct {
	// Selector derives the bound value from a state snapshot. Required.
	// It must not write back into the store.
	Selector func(state.State) R

	// Filter gates notifications for this binding. Nil means every
	// mutation re-derives.
	Filter state.Filter

	// Deps lists the external values Selector and Filter close over.
	// Rebind compares the new list element-wise against the current one
	// and only swaps the closures when they differ. Dependency values
	// should be comparable; a non-comparable value never equals anything,
	// so it forces a swap on every Rebind.
	Deps []any
}

// depsEqual reports whether two dependency lists are element-wise equal.
// Nil and empty compare equal.
func depsEqual(a, b []any) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !depEqual(a[i], b[i]) {
			return false
		}
	}
	return true
}

// depEqual compares one dependency pair. Identity semantics: same type and
// == equality for comparable values, unequal otherwise.
func depEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb || !ta.Comparable() {
		return false
	}
	return a == b
}
