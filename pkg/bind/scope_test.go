package bind

import "sync"

// chainScope is a minimal parent-walking scope for tests.
type chainScope struct {
	parent *chainScope
	values map[any]any
}

func newChainScope(parent *chainScope) *chainScope {
	return &chainScope{parent: parent, values: make(map[any]any)}
}

func (s *chainScope) Value(key any) any {
	for c := s; c != nil; c = c.parent {
		if v, ok := c.values[key]; ok {
			return v
		}
	}
	return nil
}

func (s *chainScope) SetValue(key, value any) {
	s.values[key] = value
}

var _ MutableScope = (*chainScope)(nil)

// recorderSite records every assignment it receives.
type recorderSite struct {
	mu    sync.Mutex
	slots []Slot
}

func (r *recorderSite) Assign(s Slot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.slots = append(r.slots, s)
}

func (r *recorderSite) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.slots)
}

func (r *recorderSite) last() any {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.slots) == 0 {
		return nil
	}
	return r.slots[len(r.slots)-1].Value()
}

var _ Site = (*recorderSite)(nil)
