// Package eventbus is an in-process publish/subscribe channel used to fan out
// store changes to interested components (cache invalidation, status views).
// Subscriptions replay the last published event for their topic so late
// subscribers start from the current state instead of waiting for the next
// change.
package eventbus

import (
	"sync"
	"time"
)

type Topic string

const (
	TopicInventoryUpdated   Topic = "inventory-updated"
	TopicDrawerShiftUpdated Topic = "drawer-shift-updated"
)

type Event struct {
	Topic     Topic     `json:"topic"`
	BranchID  string    `json:"branch_id,omitempty"`
	ProductID string    `json:"product_id,omitempty"`
	ShiftID   string    `json:"shift_id,omitempty"`
	At        time.Time `json:"at"`
}

type subscriber struct {
	ch chan Event
}

type Bus struct {
	mu   sync.Mutex
	subs map[Topic][]*subscriber
	last map[Topic]Event
	seen map[Topic]bool
}

func New() *Bus {
	return &Bus{
		subs: make(map[Topic][]*subscriber),
		last: make(map[Topic]Event),
		seen: make(map[Topic]bool),
	}
}

// Publish delivers the event to all current subscribers of its topic and
// records it as the topic's last value. Delivery is non-blocking: a subscriber
// whose buffer is full misses the event and catches up on its next read, since
// consumers re-read store state rather than relying on event payloads alone.
func (b *Bus) Publish(event Event) {
	if event.At.IsZero() {
		event.At = time.Now().UTC()
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.last[event.Topic] = event
	b.seen[event.Topic] = true
	for _, sub := range b.subs[event.Topic] {
		select {
		case sub.ch <- event:
		default:
		}
	}
}

// Subscribe registers a listener for the topic and returns its channel plus a
// cancel function. If the topic has ever been published, the last event is
// queued immediately.
func (b *Bus) Subscribe(topic Topic, buffer int) (<-chan Event, func()) {
	if buffer < 1 {
		buffer = 1
	}
	sub := &subscriber{ch: make(chan Event, buffer)}

	b.mu.Lock()
	b.subs[topic] = append(b.subs[topic], sub)
	if b.seen[topic] {
		sub.ch <- b.last[topic]
	}
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		subs := b.subs[topic]
		for i, candidate := range subs {
			if candidate == sub {
				b.subs[topic] = append(subs[:i], subs[i+1:]...)
				break
			}
		}
	}
	return sub.ch, cancel
}

// Last returns the most recent event for the topic, if any was published.
func (b *Bus) Last(topic Topic) (Event, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.last[topic], b.seen[topic]
}
