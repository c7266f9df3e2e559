// Package events fans apply-run notifications out to in-process subscribers.
package events

import (
	"sync"
	"time"
)

// Event types published by the runner.
const (
	TypeRunStarted  = "run.started"
	TypeRunResult   = "run.result"
	TypeRunFinished = "run.finished"
)

// Event is one notification on the bus.
type Event struct {
	Type    string    `json:"type"`
	Time    time.Time `json:"time"`
	RunID   string    `json:"run_id,omitempty"`
	Payload any       `json:"payload,omitempty"`
}

const subscriberBuffer = 64

// Bus is an in-process fan-out. Publish never blocks: a subscriber that
// falls behind loses events instead of stalling the publisher.
type Bus struct {
	mu   sync.Mutex
	subs map[int]chan Event
	next int
}

func NewBus() *Bus {
	return &Bus{subs: make(map[int]chan Event)}
}

// Subscribe registers a listener. The cancel function releases the
// subscription and closes the channel; calling it twice is safe.
func (b *Bus) Subscribe() (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.next
	b.next++
	ch := make(chan Event, subscriberBuffer)
	b.subs[id] = ch

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if sub, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

// Publish delivers the event to every current subscriber. Events without a
// timestamp are stamped on the way in.
func (b *Bus) Publish(event Event) {
	if event.Time.IsZero() {
		event.Time = time.Now().UTC()
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, sub := range b.subs {
		select {
		case sub <- event:
		default:
		}
	}
}
