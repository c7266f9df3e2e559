package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBusDeliversToAllSubscribers(t *testing.T) {
	bus := NewBus()
	first, cancelFirst := bus.Subscribe()
	defer cancelFirst()
	second, cancelSecond := bus.Subscribe()
	defer cancelSecond()

	bus.Publish(Event{Type: TypeRunStarted, RunID: "run-1"})

	for _, ch := range []<-chan Event{first, second} {
		select {
		case event := <-ch:
			require.Equal(t, TypeRunStarted, event.Type)
			require.Equal(t, "run-1", event.RunID)
			require.False(t, event.Time.IsZero())
		case <-time.After(time.Second):
			t.Fatal("subscriber did not receive the event")
		}
	}
}

func TestBusKeepsGivenTimestamp(t *testing.T) {
	bus := NewBus()
	ch, cancel := bus.Subscribe()
	defer cancel()

	at := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	bus.Publish(Event{Type: TypeRunFinished, Time: at})

	event := <-ch
	require.Equal(t, at, event.Time)
}

func TestBusDropsWhenSubscriberFull(t *testing.T) {
	bus := NewBus()
	ch, cancel := bus.Subscribe()
	defer cancel()

	// Publish past the buffer without draining; Publish must not block.
	for i := 0; i < subscriberBuffer+10; i++ {
		bus.Publish(Event{Type: TypeRunResult})
	}

	received := 0
	for {
		select {
		case <-ch:
			received++
		default:
			require.Equal(t, subscriberBuffer, received)
			return
		}
	}
}

func TestBusCancelClosesChannel(t *testing.T) {
	bus := NewBus()
	ch, cancel := bus.Subscribe()

	cancel()
	cancel()

	_, open := <-ch
	require.False(t, open)

	// No subscribers left; publishing must not panic or block.
	bus.Publish(Event{Type: TypeRunStarted})
}
