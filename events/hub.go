package events

import (
	"sync"
	"sync/atomic"
)

// defaultBuffer is the subscriber channel capacity when none is given.
const defaultBuffer = 256

// Subscription is one subscriber's view of the hub.
type Subscription struct {
	id     string
	events chan Event
}

// ID returns the subscriber's identifier.
func (s *Subscription) ID() string { return s.id }

// Events returns the channel events are delivered on. The channel is
// closed when the subscription is cancelled or the hub shuts down.
func (s *Subscription) Events() <-chan Event { return s.events }

// Hub fans events out to subscribers. Publish never blocks: when a
// subscriber's buffer is full the event is dropped for that subscriber
// and counted.
type Hub struct {
	mu      sync.RWMutex
	subs    map[string]*Subscription
	closed  bool
	dropped atomic.Uint64
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[string]*Subscription)}
}

// Subscribe registers a subscriber under id and returns its
// subscription. buffer <= 0 selects the default capacity. Subscribing
// an id that is already registered replaces the previous subscription
// and closes its channel. On a closed hub the returned subscription's
// channel is already closed.
func (h *Hub) Subscribe(id string, buffer int) *Subscription {
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	sub := &Subscription{id: id, events: make(chan Event, buffer)}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(sub.events)
		return sub
	}
	if prev, ok := h.subs[id]; ok {
		close(prev.events)
	}
	h.subs[id] = sub
	return sub
}

// Unsubscribe removes the subscriber and closes its channel. Unknown
// ids are ignored.
func (h *Hub) Unsubscribe(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if sub, ok := h.subs[id]; ok {
		delete(h.subs, id)
		close(sub.events)
	}
}

// Publish delivers e to every subscriber without blocking. Events for
// subscribers with a full buffer are dropped and counted. Publishing on
// a closed hub is a no-op.
func (h *Hub) Publish(e Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		return
	}
	for _, sub := range h.subs {
		select {
		case sub.events <- e:
		default:
			h.dropped.Add(1)
		}
	}
}

// Close shuts the hub down, closing every subscriber channel. Safe to
// call multiple times.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for id, sub := range h.subs {
		close(sub.events)
		delete(h.subs, id)
	}
}

// SubscriberCount returns the number of active subscriptions.
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Dropped returns how many events were discarded because a subscriber's
// buffer was full.
func (h *Hub) Dropped() uint64 {
	return h.dropped.Load()
}
