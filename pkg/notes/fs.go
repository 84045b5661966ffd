package notes

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/notewire/notewire/pkg/events"
	"github.com/notewire/notewire/pkg/log"
	"github.com/notewire/notewire/pkg/types"
)

const (
	// noteExt is the file extension for persisted note records.
	noteExt = ".json"

	// tmpPrefix marks in-flight atomic writes; keylist skips these.
	tmpPrefix = "notewire-tmp-"
)

// FSStore persists one JSON file per note under a root directory. Writes go
// through a temp file and rename, so concurrent readers never observe a
// partial record. Concurrent writers to the same key interleave with
// last-write-wins semantics.
type FSStore struct {
	root   string
	broker *events.Broker
	logger zerolog.Logger
	closed atomic.Bool

	// emitMu serializes commit+publish so event order equals commit
	// order within this store.
	emitMu sync.Mutex

	// ownWrites records recent writes by this process so the external
	// edit watcher does not re-emit them.
	ownMu     sync.Mutex
	ownWrites map[string]time.Time

	watcher *fsWatcher
}

// NewFSStore opens (creating if needed) the storage root. With watch
// enabled, files changed outside the process surface as updated events.
func NewFSStore(root string, watch bool) (*FSStore, error) {
	if root == "" {
		return nil, fmt.Errorf("%w: filesystem backend requires a root directory", ErrStoreUnavailable)
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	s := &FSStore{
		root:      root,
		broker:    events.NewBroker(),
		logger:    log.WithBackend(BackendFilesystem),
		ownWrites: make(map[string]time.Time),
	}

	if watch {
		w, err := newFSWatcher(s)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
		s.watcher = w
	}
	return s, nil
}

func (s *FSStore) path(key string) string {
	return filepath.Join(s.root, key+noteExt)
}

func (s *FSStore) Create(ctx context.Context, key, title, body string) (*types.Note, error) {
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

	if _, err := os.Stat(s.path(key)); err == nil {
		return nil, ErrDuplicateKey
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	note, err := s.write(key, title, body)
	if err != nil {
		return nil, err
	}
	s.broker.Publish(&events.Event{Type: events.EventNoteCreated, Key: key, Note: note})
	return note, nil
}

func (s *FSStore) Update(ctx context.Context, key, title, body string) (*types.Note, error) {
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

	if _, err := os.Stat(s.path(key)); errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	note, err := s.write(key, title, body)
	if err != nil {
		return nil, err
	}
	s.broker.Publish(&events.Event{Type: events.EventNoteUpdated, Key: key, Note: note})
	return note, nil
}

// write persists the note atomically: temp file in the same directory,
// fsync, then rename over the target.
func (s *FSStore) write(key, title, body string) (*types.Note, error) {
	note := types.NewNote(key, title, body)
	data, err := note.JSON()
	if err != nil {
		return nil, err
	}

	tmp, err := os.CreateTemp(s.root, tmpPrefix+"*")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	s.markOwnWrite(key)
	if err := os.Rename(tmp.Name(), s.path(key)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return note, nil
}

func (s *FSStore) Read(ctx context.Context, key string) (*types.Note, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}
	if err := ctxErr(ctx.Err()); err != nil {
		return nil, err
	}
	if s.closed.Load() {
		return nil, ErrStoreClosed
	}
	return s.readFile(key)
}

func (s *FSStore) readFile(key string) (*types.Note, error) {
	data, err := os.ReadFile(s.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	note, err := types.NoteFromJSON(data)
	if err != nil {
		return nil, fmt.Errorf("%w: key %q: %v", ErrCorruptRecord, key, err)
	}
	return note, nil
}

func (s *FSStore) Destroy(ctx context.Context, key string) error {
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

	if err := os.Remove(s.path(key)); errors.Is(err, fs.ErrNotExist) {
		return ErrNotFound
	} else if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	s.markOwnWrite(key)
	s.broker.Publish(&events.Event{Type: events.EventNoteDestroyed, Key: key})
	return nil
}

func (s *FSStore) Keylist(ctx context.Context) ([]string, error) {
	if err := ctxErr(ctx.Err()); err != nil {
		return nil, err
	}
	if s.closed.Load() {
		return nil, ErrStoreClosed
	}

	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	keys := make([]string, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, noteExt) || strings.HasPrefix(name, tmpPrefix) {
			continue
		}
		keys = append(keys, strings.TrimSuffix(name, noteExt))
	}
	return keys, nil
}

func (s *FSStore) Count(ctx context.Context) (int, error) {
	keys, err := s.Keylist(ctx)
	if err != nil {
		return 0, err
	}
	return len(keys), nil
}

func (s *FSStore) Events() *events.Broker {
	return s.broker
}

func (s *FSStore) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	if s.watcher != nil {
		s.watcher.stop()
	}
	s.broker.Close()
	return nil
}

func (s *FSStore) markOwnWrite(key string) {
	s.ownMu.Lock()
	s.ownWrites[key] = time.Now()
	s.ownMu.Unlock()
}

// recentlyWritten reports whether this process wrote the key within the
// suppression window. Used by the watcher to ignore its own writes.
func (s *FSStore) recentlyWritten(key string, window time.Duration) bool {
	s.ownMu.Lock()
	defer s.ownMu.Unlock()
	at, ok := s.ownWrites[key]
	if !ok {
		return false
	}
	if time.Since(at) > window {
		delete(s.ownWrites, key)
		return false
	}
	return true
}
