/*
Package events provides the in-memory event broker used for Notewire's
store-to-broadcaster notifications.

Each store (notes, messages) owns one Broker. Backends publish a typed event
at the moment a mutation commits; the realtime hub subscribes and fans the
event out to websocket connections joined to the matching room.

# Delivery Semantics

	┌───────────────────── EVENT FLOW ─────────────────────┐
	│                                                       │
	│  Store backend commits mutation                       │
	│       │                                               │
	│       ▼                                               │
	│  broker.Publish(event)      (synchronous, serialized) │
	│       │                                               │
	│       ▼                                               │
	│  Subscriber channels        (buffered, drop-on-full)  │
	│       │                                               │
	│       ▼                                               │
	│  Realtime hub → rooms → websocket connections         │
	│                                                       │
	└───────────────────────────────────────────────────────┘

Publish returns only after the event has been placed in every subscriber's
buffer, and the publishing path is serialized by a mutex. Two consequences:

  - A client that awaits a mutation and then queries state never observes a
    staler view than a subscriber that waited for the event.
  - For a single broker, every subscriber sees events in commit order.

Delivery is best-effort. There is no queueing beyond the per-subscriber
buffer and no replay: a subscriber that attaches late, disconnects, or lets
its buffer fill simply misses events. Persistence is the source of truth;
disconnected clients re-fetch current state on reconnect.

# Usage

	broker := events.NewBroker()
	sub := broker.Subscribe()
	defer broker.Unsubscribe(sub)

	go func() {
		for event := range sub {
			switch event.Type {
			case events.EventNoteUpdated:
				handleUpdate(event.Note)
			case events.EventNoteDestroyed:
				handleDestroy(event.Key)
			}
		}
	}()

	broker.Publish(&events.Event{
		Type: events.EventNoteUpdated,
		Key:  note.Key,
		Note: note,
	})
*/
package events
