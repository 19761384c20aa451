package state

import (
	"sync"
	"sync/atomic"
)

// Observer receives instrumentation callbacks from a Store. Implementations
// must be fast and must not call back into the Store. Methods are invoked
// on whichever goroutine performed the triggering operation.
type Observer interface {
	// RecordMutation is called once per Set or Update with the number of
	// keys in the applied partial.
	RecordMutation(keys int)

	// RecordDecision is called once per listener per mutation with the
	// outcome of that listener's notification decision.
	RecordDecision(fired bool)

	// RecordSubscribers is called with the listener count after each
	// subscribe or unsubscribe.
	RecordSubscribers(n int)
}

// Option configures a Store at construction time.
type Option func(*Store)

// WithObserver attaches an instrumentation observer to the store.
func WithObserver(o Observer) Option {
	return func(s *Store) {
		s.observer = o
	}
}

// Unsubscribe removes the listener whose Subscribe call returned it.
// Safe to call more than once; later calls are no-ops. Other listeners are
// unaffected.
type Unsubscribe func()

// entry is one registered listener.
type entry struct {
	filter Filter
	notify func()

	// last is the snapshot this listener most recently decided against.
	// It advances on every mutation, whether or not the listener fired.
	last State

	// removed makes the Unsubscribe handle idempotent.
	removed atomic.Bool
}

// Store holds one State value and its listeners.
//
// Mutation and registration are safe for concurrent use, but the
// synchronous in-order notification contract assumes a single cooperating
// writer; concurrent writers observe coherent state but their notification
// passes interleave.
type Store struct {
	mu sync.Mutex

	// current is the live state, replaced wholesale on every mutation.
	current State

	// entries holds the listeners in subscription order.
	entries []*entry

	// observer is set at construction and read-only afterwards.
	observer Observer
}

// New creates a Store seeded with initial. A nil initial is treated as an
// empty State. The initial map is adopted as-is; a caller keeping a
// reference to it must not mutate it afterwards.
func New(initial State, opts ...Option) *Store {
	if initial == nil {
		initial = State{}
	}
	s := &Store{current: initial}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns the current state.
func (s *Store) Get() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Set applies partial as a one-level merge over the current state and
// notifies listeners before returning. Every call installs a new map
// instance, even when partial is nil or empty, so listeners without a
// Filter see every Set. Notification runs synchronously on the calling
// goroutine in subscription order; a panicking Filter propagates to the
// caller and the listeners after it are not notified for this mutation.
func (s *Store) Set(partial State) {
	s.mu.Lock()
	next, pass, prevs := s.applyLocked(partial)
	s.mu.Unlock()

	s.notifyPass(next, len(partial), pass, prevs)
}

// Update computes a partial from the current state and applies it exactly
// as Set would, atomically with respect to other writers. fn receives the
// current state and must not call back into the store.
func (s *Store) Update(fn func(State) State) {
	s.mu.Lock()
	partial := fn(s.current)
	next, pass, prevs := s.applyLocked(partial)
	s.mu.Unlock()

	s.notifyPass(next, len(partial), pass, prevs)
}

// applyLocked merges partial into the current state, captures the listener
// list for the pass, and advances every listener's remembered snapshot.
// Caller holds mu.
func (s *Store) applyLocked(partial State) (next State, pass []*entry, prevs []State) {
	next = merge(s.current, partial)
	s.current = next

	pass = make([]*entry, len(s.entries))
	copy(pass, s.entries)
	prevs = make([]State, len(pass))
	for i, e := range pass {
		prevs[i] = e.last
		e.last = next
	}
	return next, pass, prevs
}

// notifyPass runs the notification decisions outside the lock, in
// subscription order. Snapshots were already advanced under the lock, so a
// filter panic aborts delivery for the rest of the pass without leaving a
// half-advanced window behind.
func (s *Store) notifyPass(next State, keys int, pass []*entry, prevs []State) {
	if s.observer != nil {
		s.observer.RecordMutation(keys)
	}
	for i, e := range pass {
		fired := changed(e.filter, prevs[i], next)
		if s.observer != nil {
			s.observer.RecordDecision(fired)
		}
		if fired {
			e.notify()
		}
	}
}

// changed is the notification decision for one listener: the snapshots
// must differ by reference, then the filter gets the last word. Identical
// references short-circuit without consulting the filter.
func changed(f Filter, prev, next State) bool {
	if Same(prev, next) {
		return false
	}
	return f == nil || !f.Equal(prev, next)
}

// Subscribe registers notify to run after mutations that pass f. The
// listener's remembered snapshot starts at the current state and advances
// on every mutation regardless of the decision, so a suppressed change is
// never re-reported later. A nil f fires on every mutation.
//
// Listeners are appended at the tail of the notification order.
// Subscribing during a notification pass takes effect from the next
// mutation. Unsubscribing takes effect for future mutations; it does not
// cancel a delivery already in flight for the current one.
func (s *Store) Subscribe(f Filter, notify func()) Unsubscribe {
	if notify == nil {
		notify = func() {}
	}
	s.mu.Lock()
	e := &entry{filter: f, notify: notify, last: s.current}
	s.entries = append(s.entries, e)
	n := len(s.entries)
	s.mu.Unlock()

	if s.observer != nil {
		s.observer.RecordSubscribers(n)
	}
	return func() {
		s.remove(e)
	}
}

// remove drops e from the listener list, preserving the order of the rest.
func (s *Store) remove(e *entry) {
	if e.removed.Swap(true) {
		return
	}
	s.mu.Lock()
	for i, existing := range s.entries {
		if existing == e {
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
			break
		}
	}
	n := len(s.entries)
	s.mu.Unlock()

	if s.observer != nil {
		s.observer.RecordSubscribers(n)
	}
}

// Len returns the number of registered listeners.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
