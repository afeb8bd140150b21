package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventBusPublish(t *testing.T) {
	bus := NewEventBus()
	a := make(chan Event, 1)
	b := make(chan Event, 1)
	bus.Subscribe(a)
	bus.Subscribe(b)

	bus.Publish(Event{Type: EventStatusChanged, Payload: "ONLINE"})

	require.Len(t, a, 1)
	require.Len(t, b, 1)
	assert.Equal(t, "ONLINE", (<-a).Payload)
	assert.Equal(t, EventStatusChanged, (<-b).Type)
}

func TestEventBusSkipsSlowSubscriber(t *testing.T) {
	bus := NewEventBus()
	slow := make(chan Event) // unbuffered, never read
	fast := make(chan Event, 2)
	bus.Subscribe(slow)
	bus.Subscribe(fast)

	bus.Publish(Event{Type: EventFrame})
	bus.Publish(Event{Type: EventFrame})

	assert.Len(t, fast, 2)
}

func TestEventBusUnsubscribe(t *testing.T) {
	bus := NewEventBus()
	ch := make(chan Event, 1)
	bus.Subscribe(ch)
	bus.Unsubscribe(ch)

	bus.Publish(Event{Type: EventLogLine})
	assert.Empty(t, ch)
}
