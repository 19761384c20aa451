package bind

// Slot is an opaque box carrying one derived value to a Site. The value is
// cargo: a function inside a Slot is delivered as-is, never invoked by the
// synchronizer or the delivery path. Whoever opens the Slot decides what to
// do with the payload.
type Slot struct {
	v any
}

// SlotOf boxes v.
func SlotOf(v any) Slot {
	return Slot{v: v}
}

// Value returns the payload.
func (s Slot) Value() any {
	return s.v
}

// Site receives derived values from a Binding. Implementations decide what
// an assignment means: mark a view dirty, record for a test, forward over a
// socket. Assign must not call back into the Binding that produced the
// Slot.
type Site interface {
	Assign(Slot)
}
