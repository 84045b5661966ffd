package messages

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/notewire/notewire/pkg/events"
	"github.com/notewire/notewire/pkg/types"
)

const messagesSchema = `
CREATE TABLE IF NOT EXISTS messages (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	from_user TEXT NOT NULL,
	namespace TEXT NOT NULL,
	room      TEXT NOT NULL,
	message   TEXT NOT NULL,
	timestamp TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_messages_room ON messages(namespace, room);`

// SQLiteStore persists messages in a single SQLite table. Ids come from the
// AUTOINCREMENT column, so they are stable and monotonically increasing.
type SQLiteStore struct {
	db     *sql.DB
	broker *events.Broker
	closed atomic.Bool

	// emitMu serializes commit+publish so event order equals commit
	// order within this store.
	emitMu sync.Mutex
}

// NewSQLiteStore opens (creating if needed) the database file and ensures
// the schema exists. The path may point at the same file as the sqlite note
// backend; the tables are distinct.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: sqlite message store requires a database path", ErrStoreUnavailable)
	}

	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?_busy_timeout=5000", path))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if _, err := db.Exec(messagesSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	return &SQLiteStore{db: db, broker: events.NewBroker()}, nil
}

func (s *SQLiteStore) Post(ctx context.Context, from, namespace, room, text string) (*types.Message, error) {
	if s.closed.Load() {
		return nil, ErrStoreClosed
	}

	s.emitMu.Lock()
	defer s.emitMu.Unlock()

	now := time.Now()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO messages (from_user, namespace, room, message, timestamp) VALUES (?, ?, ?, ?, ?)`,
		from, namespace, room, text, now)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	msg := &types.Message{
		ID:        id,
		From:      from,
		Namespace: namespace,
		Room:      room,
		Message:   text,
		Timestamp: now,
	}
	s.broker.Publish(&events.Event{
		Type:      events.EventMessageCreated,
		Namespace: namespace,
		Room:      room,
		Message:   msg,
	})
	return msg, nil
}

func (s *SQLiteStore) Destroy(ctx context.Context, id int64) error {
	if s.closed.Load() {
		return ErrStoreClosed
	}

	s.emitMu.Lock()
	defer s.emitMu.Unlock()

	// Fetch first: the destroyed event needs the room to target.
	var msg types.Message
	err := s.db.QueryRowContext(ctx,
		`SELECT id, from_user, namespace, room, message, timestamp FROM messages WHERE id = ?`, id).
		Scan(&msg.ID, &msg.From, &msg.Namespace, &msg.Room, &msg.Message, &msg.Timestamp)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	} else if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM messages WHERE id = ?`, id); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	s.broker.Publish(&events.Event{
		Type:      events.EventMessageDestroyed,
		Namespace: msg.Namespace,
		Room:      msg.Room,
		Message:   &msg,
	})
	return nil
}

func (s *SQLiteStore) Recent(ctx context.Context, namespace, room string) ([]*types.Message, error) {
	if s.closed.Load() {
		return nil, ErrStoreClosed
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, from_user, namespace, room, message, timestamp
		 FROM messages WHERE namespace = ? AND room = ?
		 ORDER BY id DESC LIMIT ?`, namespace, room, RecentLimit)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var recent []*types.Message
	for rows.Next() {
		var msg types.Message
		if err := rows.Scan(&msg.ID, &msg.From, &msg.Namespace, &msg.Room, &msg.Message, &msg.Timestamp); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
		recent = append(recent, &msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	// Query returns newest-first; flip to chronological.
	for i, j := 0, len(recent)-1; i < j; i, j = i+1, j-1 {
		recent[i], recent[j] = recent[j], recent[i]
	}
	return recent, nil
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
