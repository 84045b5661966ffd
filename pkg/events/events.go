package events

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/notewire/notewire/pkg/types"
)

// EventType represents the type of event
type EventType string

const (
	EventNoteCreated      EventType = "note.created"
	EventNoteUpdated      EventType = "note.updated"
	EventNoteDestroyed    EventType = "note.destroyed"
	EventMessageCreated   EventType = "message.created"
	EventMessageDestroyed EventType = "message.destroyed"
)

// Event is a transient notification emitted at the moment a mutation
// commits. Events are not persisted and are never replayed: subscribers
// attached after emission do not see it.
//
// Note events carry Note (created/updated) or just Key (destroyed).
// Message events carry Message along with its (namespace, room) pair.
type Event struct {
	ID        string
	Type      EventType
	Timestamp time.Time

	Key       string
	Note      *types.Note
	Namespace string
	Room      string
	Message   *types.Message
}

// Subscriber is a channel that receives events
type Subscriber chan *Event

// Broker distributes events from a single store to its subscribers.
//
// Publish delivers synchronously: by the time Publish returns, the event sits
// in every subscriber's buffer. Stores publish before returning from the
// mutating call, so a caller that awaits a mutation and then reads never
// races ahead of a subscriber that saw the event. Publishing is serialized,
// which makes delivery order equal to commit order for every subscriber.
//
// Delivery is best-effort: a subscriber whose buffer is full misses the
// event rather than blocking the publisher.
type Broker struct {
	mu          sync.Mutex
	subscribers map[Subscriber]bool
	closed      bool
}

// SubscriberBuffer is the per-subscriber channel buffer size.
const SubscriberBuffer = 64

// NewBroker creates a new event broker
func NewBroker() *Broker {
	return &Broker{
		subscribers: make(map[Subscriber]bool),
	}
}

// Subscribe creates a new subscription and returns a channel
func (b *Broker) Subscribe() Subscriber {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub := make(Subscriber, SubscriberBuffer)
	if b.closed {
		close(sub)
		return sub
	}
	b.subscribers[sub] = true
	return sub
}

// Unsubscribe removes a subscription and closes its channel
func (b *Broker) Unsubscribe(sub Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.subscribers[sub]; !ok {
		return
	}
	delete(b.subscribers, sub)
	close(sub)
}

// Publish delivers an event to all current subscribers before returning.
// Events published after Close are dropped.
func (b *Broker) Publish(event *Event) {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	for sub := range b.subscribers {
		select {
		case sub <- event:
		default:
			// Subscriber buffer full, skip
		}
	}
}

// Close closes all subscriber channels and stops further delivery.
// Close is idempotent.
func (b *Broker) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for sub := range b.subscribers {
		delete(b.subscribers, sub)
		close(sub)
	}
}

// SubscriberCount returns the number of active subscribers
func (b *Broker) SubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subscribers)
}
