package types

import (
	"encoding/json"
	"fmt"
	"time"
)

// Note is a single stored note. Notes are immutable values: update
// operations replace the whole note, they never patch fields in place.
type Note struct {
	Key   string `json:"key"`
	Title string `json:"title"`
	Body  string `json:"body"`
}

// NewNote constructs a Note value.
func NewNote(key, title, body string) *Note {
	return &Note{Key: key, Title: title, Body: body}
}

// JSON returns the flat persisted encoding of the note. This is the exact
// format written by the filesystem backend (one object per file).
func (n *Note) JSON() ([]byte, error) {
	data, err := json.Marshal(n)
	if err != nil {
		return nil, fmt.Errorf("failed to encode note %q: %w", n.Key, err)
	}
	return data, nil
}

// NoteFromJSON decodes a persisted note record.
func NoteFromJSON(data []byte) (*Note, error) {
	var n Note
	if err := json.Unmarshal(data, &n); err != nil {
		return nil, fmt.Errorf("failed to decode note record: %w", err)
	}
	return &n, nil
}

// NoteTitle is the lightweight representation used by the shared index view
// and the realtime titles feed.
type NoteTitle struct {
	Key   string `json:"key"`
	Title string `json:"title"`
}

// Message is a single chat message attached to a (namespace, room) pair.
// The room is typically a note key. The ID is assigned by the message store
// and is the sole handle used for destruction.
type Message struct {
	ID        int64     `json:"id"`
	From      string    `json:"from"`
	Namespace string    `json:"namespace"`
	Room      string    `json:"room"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Session binds a session identifier to a verified identity.
type Session struct {
	ID       string
	Identity string
	Expiry   time.Time
}

// Expired reports whether the session has passed its expiry.
func (s *Session) Expired(now time.Time) bool {
	return !s.Expiry.After(now)
}
