// SPDX-License-Identifier: MIT

package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"

	"github.com/ManuGH/uniplay/pkg/model"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestSubscribeDeliversMatchingTypeOnly(t *testing.T) {
	bus := NewBus()
	var got []Type
	bus.Subscribe(TypeStateChange, func(ev Event) { got = append(got, ev.Type) })

	bus.Emit(Event{Type: TypeStateChange})
	bus.Emit(Event{Type: TypeTimeUpdate})
	bus.Emit(Event{Type: TypeStateChange})

	assert.Equal(t, []Type{TypeStateChange, TypeStateChange}, got)
}

func TestSubscribeAllSeesEverything(t *testing.T) {
	bus := NewBus()
	var got []Type
	bus.SubscribeAll(func(ev Event) { got = append(got, ev.Type) })

	bus.Emit(Event{Type: TypePlay})
	bus.Emit(Event{Type: TypeError})

	assert.Equal(t, []Type{TypePlay, TypeError}, got)
}

// Delivery follows subscription order, interleaving typed and catch-all
// subscribers by their registration ids.
func TestDeliveryOrderIsSubscriptionOrder(t *testing.T) {
	bus := NewBus()
	var order []string
	bus.Subscribe(TypePlay, func(Event) { order = append(order, "typed-1") })
	bus.SubscribeAll(func(Event) { order = append(order, "all") })
	bus.Subscribe(TypePlay, func(Event) { order = append(order, "typed-2") })

	bus.Emit(Event{Type: TypePlay})

	assert.Equal(t, []string{"typed-1", "all", "typed-2"}, order)
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	bus := NewBus()
	count := 0
	off := bus.Subscribe(TypePlay, func(Event) { count++ })

	bus.Emit(Event{Type: TypePlay})
	off()
	bus.Emit(Event{Type: TypePlay})

	assert.Equal(t, 1, count)
}

func TestClosedBusDropsEmits(t *testing.T) {
	bus := NewBus()
	count := 0
	bus.SubscribeAll(func(Event) { count++ })

	bus.Close()
	bus.Emit(Event{Type: TypePlay})

	assert.True(t, bus.Closed())
	assert.Zero(t, count)

	// Subscriptions after close are inert too.
	off := bus.Subscribe(TypePlay, func(Event) { count++ })
	bus.Emit(Event{Type: TypePlay})
	off()
	assert.Zero(t, count)
}

// A handler may emit on the same bus; the nested event is delivered before
// Emit returns to the outer caller's next statement.
func TestReentrantEmit(t *testing.T) {
	bus := NewBus()
	var got []Type
	bus.Subscribe(TypeStateChange, func(ev Event) {
		got = append(got, ev.Type)
		if ev.State != nil && ev.State.State == model.StateReady {
			bus.Emit(Event{Type: TypeReady})
		}
	})
	bus.Subscribe(TypeReady, func(ev Event) { got = append(got, ev.Type) })

	bus.Emit(Event{Type: TypeStateChange, State: &model.PlayerState{State: model.StateReady}})

	assert.Equal(t, []Type{TypeStateChange, TypeReady}, got)
}
