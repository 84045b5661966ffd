package notes

import (
	"context"
	"sync"

	"github.com/notewire/notewire/pkg/events"
	"github.com/notewire/notewire/pkg/types"
)

// MemoryStore keeps notes in a process-local map. Nothing survives a
// restart. Events are published while the write lock is held, so event
// order always equals commit order.
type MemoryStore struct {
	mu     sync.RWMutex
	notes  map[string]*types.Note
	broker *events.Broker
	closed bool
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		notes:  make(map[string]*types.Note),
		broker: events.NewBroker(),
	}
}

func (s *MemoryStore) Create(ctx context.Context, key, title, body string) (*types.Note, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}
	if err := ctxErr(ctx.Err()); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrStoreClosed
	}
	if _, ok := s.notes[key]; ok {
		return nil, ErrDuplicateKey
	}

	note := types.NewNote(key, title, body)
	s.notes[key] = note
	s.broker.Publish(&events.Event{Type: events.EventNoteCreated, Key: key, Note: note})
	return note, nil
}

func (s *MemoryStore) Update(ctx context.Context, key, title, body string) (*types.Note, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}
	if err := ctxErr(ctx.Err()); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrStoreClosed
	}
	if _, ok := s.notes[key]; !ok {
		return nil, ErrNotFound
	}

	note := types.NewNote(key, title, body)
	s.notes[key] = note
	s.broker.Publish(&events.Event{Type: events.EventNoteUpdated, Key: key, Note: note})
	return note, nil
}

func (s *MemoryStore) Read(ctx context.Context, key string) (*types.Note, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}
	if err := ctxErr(ctx.Err()); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrStoreClosed
	}
	note, ok := s.notes[key]
	if !ok {
		return nil, ErrNotFound
	}
	return note, nil
}

func (s *MemoryStore) Destroy(ctx context.Context, key string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	if err := ctxErr(ctx.Err()); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreClosed
	}
	if _, ok := s.notes[key]; !ok {
		return ErrNotFound
	}

	delete(s.notes, key)
	s.broker.Publish(&events.Event{Type: events.EventNoteDestroyed, Key: key})
	return nil
}

func (s *MemoryStore) Keylist(ctx context.Context) ([]string, error) {
	if err := ctxErr(ctx.Err()); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrStoreClosed
	}
	keys := make([]string, 0, len(s.notes))
	for key := range s.notes {
		keys = append(keys, key)
	}
	return keys, nil
}

func (s *MemoryStore) Count(ctx context.Context) (int, error) {
	if err := ctxErr(ctx.Err()); err != nil {
		return 0, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return 0, ErrStoreClosed
	}
	return len(s.notes), nil
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
	s.notes = nil
	s.broker.Close()
	return nil
}
