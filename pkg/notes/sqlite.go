package notes

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	sqlite3 "github.com/mattn/go-sqlite3"

	"github.com/notewire/notewire/pkg/events"
	"github.com/notewire/notewire/pkg/types"
)

// notesSchema is the single relational table. The key carries the
// uniqueness constraint that backs ErrDuplicateKey on create.
const notesSchema = `
CREATE TABLE IF NOT EXISTS notes (
	key   TEXT NOT NULL PRIMARY KEY,
	title TEXT NOT NULL,
	body  TEXT NOT NULL
);`

// SQLiteStore persists notes in a single SQLite table. All statements are
// parameterized; key, title and body never appear in query text.
type SQLiteStore struct {
	db     *sql.DB
	broker *events.Broker
	closed atomic.Bool

	// emitMu serializes commit+publish so event order equals commit
	// order within this store.
	emitMu sync.Mutex
}

// NewSQLiteStore opens (creating if needed) the database file and ensures
// the schema exists.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: sqlite backend requires a database path", ErrStoreUnavailable)
	}

	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?_busy_timeout=5000", path))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if _, err := db.Exec(notesSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	return &SQLiteStore{db: db, broker: events.NewBroker()}, nil
}

func (s *SQLiteStore) Create(ctx context.Context, key, title, body string) (*types.Note, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}
	if s.closed.Load() {
		return nil, ErrStoreClosed
	}

	s.emitMu.Lock()
	defer s.emitMu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO notes (key, title, body) VALUES (?, ?, ?)`, key, title, body)
	if err != nil {
		var serr sqlite3.Error
		if errors.As(err, &serr) && serr.Code == sqlite3.ErrConstraint {
			return nil, ErrDuplicateKey
		}
		return nil, s.opErr(err)
	}

	note := types.NewNote(key, title, body)
	s.broker.Publish(&events.Event{Type: events.EventNoteCreated, Key: key, Note: note})
	return note, nil
}

func (s *SQLiteStore) Update(ctx context.Context, key, title, body string) (*types.Note, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}
	if s.closed.Load() {
		return nil, ErrStoreClosed
	}

	s.emitMu.Lock()
	defer s.emitMu.Unlock()

	res, err := s.db.ExecContext(ctx,
		`UPDATE notes SET title = ?, body = ? WHERE key = ?`, title, body, key)
	if err != nil {
		return nil, s.opErr(err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return nil, s.opErr(err)
	} else if n == 0 {
		return nil, ErrNotFound
	}

	note := types.NewNote(key, title, body)
	s.broker.Publish(&events.Event{Type: events.EventNoteUpdated, Key: key, Note: note})
	return note, nil
}

func (s *SQLiteStore) Read(ctx context.Context, key string) (*types.Note, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}
	if s.closed.Load() {
		return nil, ErrStoreClosed
	}

	var note types.Note
	err := s.db.QueryRowContext(ctx,
		`SELECT key, title, body FROM notes WHERE key = ?`, key).
		Scan(&note.Key, &note.Title, &note.Body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, s.opErr(err)
	}
	return &note, nil
}

func (s *SQLiteStore) Destroy(ctx context.Context, key string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	if s.closed.Load() {
		return ErrStoreClosed
	}

	s.emitMu.Lock()
	defer s.emitMu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM notes WHERE key = ?`, key)
	if err != nil {
		return s.opErr(err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return s.opErr(err)
	} else if n == 0 {
		return ErrNotFound
	}

	s.broker.Publish(&events.Event{Type: events.EventNoteDestroyed, Key: key})
	return nil
}

func (s *SQLiteStore) Keylist(ctx context.Context) ([]string, error) {
	if s.closed.Load() {
		return nil, ErrStoreClosed
	}

	rows, err := s.db.QueryContext(ctx, `SELECT key FROM notes`)
	if err != nil {
		return nil, s.opErr(err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, s.opErr(err)
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, s.opErr(err)
	}
	return keys, nil
}

func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	if s.closed.Load() {
		return 0, ErrStoreClosed
	}

	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM notes`).Scan(&count); err != nil {
		return 0, s.opErr(err)
	}
	return count, nil
}

func (s *SQLiteStore) Events() *events.Broker {
	return s.broker
}

func (s *SQLiteStore) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	s.broker.Close()
	return s.db.Close()
}

func (s *SQLiteStore) opErr(err error) error {
	if mapped := ctxErr(err); errors.Is(mapped, ErrTimeout) {
		return mapped
	}
	return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
}
