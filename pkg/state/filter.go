package state

import "reflect"

// Filter decides whether a state transition counts as a change for one
// listener. Equal receives the listener's previously remembered snapshot
// and the snapshot produced by the current mutation; returning true
// suppresses the notification, returning false fires it.
//
// A nil Filter treats every transition between distinct map instances as a
// change.
type Filter interface {
	Equal(prev, next State) bool
}

// comparatorFilter adapts a binary comparison function.
type comparatorFilter struct {
	fn func(prev, next State) bool
}

func (f comparatorFilter) Equal(prev, next State) bool {
	return f.fn(prev, next)
}

// Comparator builds a Filter from a binary comparison function. The
// function reports whether the two snapshots are equivalent: true means
// unchanged (suppress), false means changed (notify). A nil fn yields a
// nil Filter.
func Comparator(fn func(prev, next State) bool) Filter {
	if fn == nil {
		return nil
	}
	return comparatorFilter{fn: fn}
}

// hashFilter adapts a hash extractor.
type hashFilter struct {
	fn func(State) any
}

func (f hashFilter) Equal(prev, next State) bool {
	return equalValues(f.fn(prev), f.fn(next))
}

// Hash builds a Filter from a hash extractor. Each decision evaluates the
// extractor once per snapshot and suppresses the notification when the two
// results are equal; nil results compare equal to each other. Only the two
// endpoint snapshots matter, so the verdict is independent of how many
// mutations happened between the listener's decisions. A nil fn yields a
// nil Filter.
func Hash(fn func(State) any) Filter {
	if fn == nil {
		return nil
	}
	return hashFilter{fn: fn}
}

// equalValues provides type-appropriate equality for hash results.
// Uses == for common comparable types and reflect.DeepEqual for others.
func equalValues(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	switch av := a.(type) {
	case int:
		bv, ok := b.(int)
		return ok && av == bv
	case int8:
		bv, ok := b.(int8)
		return ok && av == bv
	case int16:
		bv, ok := b.(int16)
		return ok && av == bv
	case int32:
		bv, ok := b.(int32)
		return ok && av == bv
	case int64:
		bv, ok := b.(int64)
		return ok && av == bv
	case uint:
		bv, ok := b.(uint)
		return ok && av == bv
	case uint8:
		bv, ok := b.(uint8)
		return ok && av == bv
	case uint16:
		bv, ok := b.(uint16)
		return ok && av == bv
	case uint32:
		bv, ok := b.(uint32)
		return ok && av == bv
	case uint64:
		bv, ok := b.(uint64)
		return ok && av == bv
	case float32:
		bv, ok := b.(float32)
		return ok && av == bv
	case float64:
		bv, ok := b.(float64)
		return ok && av == bv
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	default:
		// Fall back to reflect.DeepEqual for slices, maps, structs, etc.
		return reflect.DeepEqual(a, b)
	}
}
