package notes

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	bolt "go.etcd.io/bbolt"

	"github.com/notewire/notewire/pkg/events"
	"github.com/notewire/notewire/pkg/types"
)

var bucketNotes = []byte("notes")

// BoltStore persists notes as JSON values in a single bbolt bucket. It is
// the crash-safe single-file option: writes commit through bbolt's
// transactional B+tree with fsync.
type BoltStore struct {
	db     *bolt.DB
	broker *events.Broker
	closed atomic.Bool

	// emitMu serializes commit+publish so event order equals commit
	// order within this store.
	emitMu sync.Mutex
}

// NewBoltStore opens (creating if needed) the database file and ensures the
// notes bucket exists.
func NewBoltStore(path string) (*BoltStore, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: bolt backend requires a database path", ErrStoreUnavailable)
	}

	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketNotes)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	return &BoltStore{db: db, broker: events.NewBroker()}, nil
}

func (s *BoltStore) Create(ctx context.Context, key, title, body string) (*types.Note, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}
	if err := ctxErr(ctx.Err()); err != nil {
		return nil, err
	}
	if s.closed.Load() {
		return nil, ErrStoreClosed
	}

	s.emitMu.Lock()
	defer s.emitMu.Unlock()

	note := types.NewNote(key, title, body)
	data, err := note.JSON()
	if err != nil {
		return nil, err
	}

	err = s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketNotes)
		if b.Get([]byte(key)) != nil {
			return ErrDuplicateKey
		}
		return b.Put([]byte(key), data)
	})
	if err != nil {
		return nil, s.opErr(err)
	}

	s.broker.Publish(&events.Event{Type: events.EventNoteCreated, Key: key, Note: note})
	return note, nil
}

func (s *BoltStore) Update(ctx context.Context, key, title, body string) (*types.Note, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}
	if err := ctxErr(ctx.Err()); err != nil {
		return nil, err
	}
	if s.closed.Load() {
		return nil, ErrStoreClosed
	}

	s.emitMu.Lock()
	defer s.emitMu.Unlock()

	note := types.NewNote(key, title, body)
	data, err := note.JSON()
	if err != nil {
		return nil, err
	}

	err = s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketNotes)
		if b.Get([]byte(key)) == nil {
			return ErrNotFound
		}
		return b.Put([]byte(key), data)
	})
	if err != nil {
		return nil, s.opErr(err)
	}

	s.broker.Publish(&events.Event{Type: events.EventNoteUpdated, Key: key, Note: note})
	return note, nil
}

func (s *BoltStore) Read(ctx context.Context, key string) (*types.Note, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}
	if err := ctxErr(ctx.Err()); err != nil {
		return nil, err
	}
	if s.closed.Load() {
		return nil, ErrStoreClosed
	}

	var note *types.Note
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketNotes).Get([]byte(key))
		if data == nil {
			return ErrNotFound
		}
		decoded, err := types.NoteFromJSON(data)
		if err != nil {
			return fmt.Errorf("%w: key %q: %v", ErrCorruptRecord, key, err)
		}
		note = decoded
		return nil
	})
	if err != nil {
		return nil, s.opErr(err)
	}
	return note, nil
}

func (s *BoltStore) Destroy(ctx context.Context, key string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	if err := ctxErr(ctx.Err()); err != nil {
		return err
	}
	if s.closed.Load() {
		return ErrStoreClosed
	}

	s.emitMu.Lock()
	defer s.emitMu.Unlock()

	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketNotes)
		if b.Get([]byte(key)) == nil {
			return ErrNotFound
		}
		return b.Delete([]byte(key))
	})
	if err != nil {
		return s.opErr(err)
	}

	s.broker.Publish(&events.Event{Type: events.EventNoteDestroyed, Key: key})
	return nil
}

func (s *BoltStore) Keylist(ctx context.Context) ([]string, error) {
	if err := ctxErr(ctx.Err()); err != nil {
		return nil, err
	}
	if s.closed.Load() {
		return nil, ErrStoreClosed
	}

	var keys []string
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketNotes).ForEach(func(k, v []byte) error {
			keys = append(keys, string(k))
			return nil
		})
	})
	if err != nil {
		return nil, s.opErr(err)
	}
	return keys, nil
}

func (s *BoltStore) Count(ctx context.Context) (int, error) {
	if err := ctxErr(ctx.Err()); err != nil {
		return 0, err
	}
	if s.closed.Load() {
		return 0, ErrStoreClosed
	}

	var count int
	err := s.db.View(func(tx *bolt.Tx) error {
		count = tx.Bucket(bucketNotes).Stats().KeyN
		return nil
	})
	if err != nil {
		return 0, s.opErr(err)
	}
	return count, nil
}

func (s *BoltStore) Events() *events.Broker {
	return s.broker
}

func (s *BoltStore) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	s.broker.Close()
	return s.db.Close()
}

// opErr passes through taxonomy errors and wraps everything else as an
// infrastructure failure.
func (s *BoltStore) opErr(err error) error {
	switch {
	case err == nil:
		return nil
	case isTaxonomy(err):
		return err
	default:
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
}

func isTaxonomy(err error) bool {
	for _, sentinel := range []error{
		ErrInvalidKey, ErrNotFound, ErrDuplicateKey, ErrCorruptRecord,
		ErrStoreUnavailable, ErrStoreClosed, ErrTimeout,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}
