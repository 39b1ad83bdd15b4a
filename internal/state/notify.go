package state

import (
	"slices"
	"sync"
)

// Event is a state-change notification delivered to observers.
type Event struct {
	Type   string
	Target string
}

// Notify fan-outs events to observers. Delivery can be paused; Disable and
// Enable nest, and events emitted while paused queue in order and drain when
// the depth returns to zero.
type Notify struct {
	mu        sync.Mutex
	depth     int
	pending   []Event
	observers []func(Event)
}

// NewNotify returns an empty notifier.
func NewNotify() *Notify { return &Notify{} }

// Observe registers fn for future events. Observers run without the lock
// held and must not block.
func (n *Notify) Observe(fn func(Event)) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.observers = append(n.observers, fn)
}

// Disable implements cmdq.Notifier.
func (n *Notify) Disable() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.depth++
}

// Enable implements cmdq.Notifier. When the outermost pause lifts, queued
// events are delivered in emission order.
func (n *Notify) Enable() {
	n.mu.Lock()
	if n.depth > 0 {
		n.depth--
	}
	if n.depth > 0 || len(n.pending) == 0 {
		n.mu.Unlock()
		return
	}
	queued := n.pending
	n.pending = nil
	observers := slices.Clone(n.observers)
	n.mu.Unlock()

	for _, ev := range queued {
		for _, fn := range observers {
			fn(ev)
		}
	}
}

// Emit delivers ev immediately, or queues it while delivery is paused.
func (n *Notify) Emit(ev Event) {
	n.mu.Lock()
	if n.depth > 0 {
		n.pending = append(n.pending, ev)
		n.mu.Unlock()
		return
	}
	observers := slices.Clone(n.observers)
	n.mu.Unlock()

	for _, fn := range observers {
		fn(ev)
	}
}

// Paused reports whether delivery is currently suspended.
func (n *Notify) Paused() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.depth > 0
}
