package messages

import (
	"context"
	"sync"
	"time"

	"github.com/notewire/notewire/pkg/events"
	"github.com/notewire/notewire/pkg/types"
)

// MemoryStore keeps messages in process memory. Ids are monotonically
// increasing across all rooms. Used with the memory and filesystem note
// backends, and in tests.
type MemoryStore struct {
	mu       sync.Mutex
	next     int64
	messages []*types.Message
	broker   *events.Broker
	closed   bool
}

// NewMemoryStore creates an empty in-memory message store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{broker: events.NewBroker()}
}

func (s *MemoryStore) Post(ctx context.Context, from, namespace, room, text string) (*types.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrStoreClosed
	}

	s.next++
	msg := &types.Message{
		ID:        s.next,
		From:      from,
		Namespace: namespace,
		Room:      room,
		Message:   text,
		Timestamp: time.Now(),
	}
	s.messages = append(s.messages, msg)
	s.broker.Publish(&events.Event{
		Type:      events.EventMessageCreated,
		Namespace: namespace,
		Room:      room,
		Message:   msg,
	})
	return msg, nil
}

func (s *MemoryStore) Destroy(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreClosed
	}

	for i, msg := range s.messages {
		if msg.ID == id {
			s.messages = append(s.messages[:i], s.messages[i+1:]...)
			s.broker.Publish(&events.Event{
				Type:      events.EventMessageDestroyed,
				Namespace: msg.Namespace,
				Room:      msg.Room,
				Message:   msg,
			})
			return nil
		}
	}
	return ErrNotFound
}

func (s *MemoryStore) Recent(ctx context.Context, namespace, room string) ([]*types.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrStoreClosed
	}

	var recent []*types.Message
	for i := len(s.messages) - 1; i >= 0 && len(recent) < RecentLimit; i-- {
		msg := s.messages[i]
		if msg.Namespace == namespace && msg.Room == room {
			recent = append(recent, msg)
		}
	}
	// Collected newest-first; flip to chronological.
	for i, j := 0, len(recent)-1; i < j; i, j = i+1, j-1 {
		recent[i], recent[j] = recent[j], recent[i]
	}
	return recent, nil
}

func (s *MemoryStore) Events() *events.Broker {
	return s.broker
}

func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.messages = nil
	s.broker.Close()
	return nil
}
