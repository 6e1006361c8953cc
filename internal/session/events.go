package session

import "sync"

// EventType defines the type of event
type EventType string

const (
	EventFrame  EventType = "frame"
	EventNotice EventType = "notice"
)

// Event is published to every subscriber
type Event struct {
	Type    EventType   `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

// EventBus fans events out to subscribers. A subscriber that falls behind
// loses its oldest undelivered event rather than blocking the session, so
// it always ends up holding the latest frame.
type EventBus struct {
	mu          sync.Mutex
	subscribers map[chan Event]struct{}
}

// NewEventBus creates a new event bus
func NewEventBus() *EventBus {
	return &EventBus{
		subscribers: make(map[chan Event]struct{}),
	}
}

// Subscribe returns a channel receiving events until Unsubscribe
func (eb *EventBus) Subscribe(buffer int) chan Event {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan Event, buffer)

	eb.mu.Lock()
	eb.subscribers[ch] = struct{}{}
	eb.mu.Unlock()

	return ch
}

// Unsubscribe stops delivery to ch
func (eb *EventBus) Unsubscribe(ch chan Event) {
	eb.mu.Lock()
	delete(eb.subscribers, ch)
	eb.mu.Unlock()
}

// Len returns the number of subscribers
func (eb *EventBus) Len() int {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	return len(eb.subscribers)
}

// Publish sends an event to all subscribers without blocking
func (eb *EventBus) Publish(event Event) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	for ch := range eb.subscribers {
		select {
		case ch <- event:
			continue
		default:
		}

		// Subscriber is slow, drop its oldest event
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- event:
		default:
		}
	}
}
