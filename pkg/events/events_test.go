package events

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notewire/notewire/pkg/types"
)

func TestPublishDeliversBeforeReturn(t *testing.T) {
	broker := NewBroker()
	sub := broker.Subscribe()
	defer broker.Unsubscribe(sub)

	broker.Publish(&Event{
		Type: EventNoteCreated,
		Key:  "abc",
		Note: types.NewNote("abc", "Hello", "World"),
	})

	// No goroutine involved: the event must already be buffered.
	select {
	case event := <-sub:
		assert.Equal(t, EventNoteCreated, event.Type)
		assert.Equal(t, "abc", event.Key)
		assert.NotEmpty(t, event.ID)
		assert.False(t, event.Timestamp.IsZero())
	default:
		t.Fatal("event not observable immediately after Publish returned")
	}
}

func TestPublishPreservesOrder(t *testing.T) {
	broker := NewBroker()
	sub := broker.Subscribe()
	defer broker.Unsubscribe(sub)

	for i := 0; i < 10; i++ {
		broker.Publish(&Event{
			Type: EventNoteUpdated,
			Key:  "abc",
			Note: types.NewNote("abc", fmt.Sprintf("rev-%d", i), ""),
		})
	}

	for i := 0; i < 10; i++ {
		event := <-sub
		assert.Equal(t, fmt.Sprintf("rev-%d", i), event.Note.Title)
	}
}

func TestSlowSubscriberDropsNotBlocks(t *testing.T) {
	broker := NewBroker()
	sub := broker.Subscribe()
	defer broker.Unsubscribe(sub)

	// Overfill the buffer; Publish must not block.
	for i := 0; i < SubscriberBuffer+10; i++ {
		broker.Publish(&Event{Type: EventNoteUpdated, Key: "k"})
	}

	assert.Len(t, sub, SubscriberBuffer)
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	broker := NewBroker()
	sub := broker.Subscribe()
	require.Equal(t, 1, broker.SubscriberCount())

	broker.Unsubscribe(sub)
	assert.Equal(t, 0, broker.SubscriberCount())

	// Channel is closed; range terminates.
	_, open := <-sub
	assert.False(t, open)

	// Double unsubscribe is a no-op.
	broker.Unsubscribe(sub)
}

func TestLateSubscriberMissesEarlierEvents(t *testing.T) {
	broker := NewBroker()
	broker.Publish(&Event{Type: EventNoteCreated, Key: "early"})

	sub := broker.Subscribe()
	defer broker.Unsubscribe(sub)
	assert.Empty(t, sub)
}

func TestCloseIsIdempotent(t *testing.T) {
	broker := NewBroker()
	sub := broker.Subscribe()

	broker.Close()
	broker.Close()

	_, open := <-sub
	assert.False(t, open)

	// Publishing after close is dropped, not a panic.
	broker.Publish(&Event{Type: EventNoteCreated, Key: "k"})

	// Subscribing after close yields a closed channel.
	late := broker.Subscribe()
	_, open = <-late
	assert.False(t, open)
}
