// SPDX-License-Identifier: MIT

package event

import (
	"sync"

	"github.com/ManuGH/uniplay/internal/metrics"
)

// Handler consumes one event. Handlers run synchronously on the emitting
// goroutine and must stay short and non-blocking: the same goroutine drives
// the high-frequency time-update tick.
type Handler func(Event)

// Bus is a synchronous fan-out channel. Events are delivered in the exact
// causal order they are emitted, with no reordering or batching. A closed bus
// drops every further emit, which is how the core guarantees that a torn-down
// backend produces no late events.
type Bus struct {
	mu     sync.Mutex
	nextID int
	subs   map[Type]map[int]Handler
	all    map[int]Handler
	closed bool
}

// NewBus returns an empty bus.
func NewBus() *Bus {
	return &Bus{
		subs: make(map[Type]map[int]Handler),
		all:  make(map[int]Handler),
	}
}

// Subscribe registers a handler for one event type and returns its
// unsubscribe function.
func (b *Bus) Subscribe(t Type, h Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return func() {}
	}
	id := b.nextID
	b.nextID++
	if b.subs[t] == nil {
		b.subs[t] = make(map[int]Handler)
	}
	b.subs[t][id] = h
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs[t], id)
	}
}

// SubscribeAll registers a handler for every event type. Used by the facade
// to republish a backend's events on its own surface.
func (b *Bus) SubscribeAll(h Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return func() {}
	}
	id := b.nextID
	b.nextID++
	b.all[id] = h
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.all, id)
	}
}

// Emit delivers ev to every matching subscriber, in subscription order for a
// given type. Emits on a closed bus are counted and dropped.
func (b *Bus) Emit(ev Event) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		metrics.IncBusDrop(string(ev.Type))
		return
	}
	handlers := make([]Handler, 0, len(b.subs[ev.Type])+len(b.all))
	for id := 0; id < b.nextID; id++ {
		if h, ok := b.subs[ev.Type][id]; ok {
			handlers = append(handlers, h)
		}
		if h, ok := b.all[id]; ok {
			handlers = append(handlers, h)
		}
	}
	b.mu.Unlock()

	for _, h := range handlers {
		h(ev)
	}
}

// Close drops all subscriptions and turns every further Emit into a no-op.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.subs = make(map[Type]map[int]Handler)
	b.all = make(map[int]Handler)
}

// Closed reports whether the bus has been closed.
func (b *Bus) Closed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}
