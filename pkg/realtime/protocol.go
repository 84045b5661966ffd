package realtime

import (
	"encoding/json"
	"fmt"
)

// NamespaceNotes is the namespace note events are scoped to. Chat messages
// carry their own namespace; note mutations always land here.
const NamespaceNotes = "/notes"

// Server-pushed wire event names.
const (
	WireNoteUpdated    = "noteupdated"
	WireNoteDestroyed  = "notedestroyed"
	WireNoteTitles     = "notetitles"
	WireNewMessage     = "newmessage"
	WireDestroyMessage = "destroymessage"
)

// Client-submitted action names.
const (
	ActionCreateMessage = "create-message"
	ActionDeleteMessage = "delete-message"
)

// Envelope frames every payload in both directions.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// CreateMessage is the client request to post a chat message to its room.
type CreateMessage struct {
	From      string `json:"from"`
	Namespace string `json:"namespace"`
	Room      string `json:"room"`
	Message   string `json:"message"`
}

// DeleteMessage is the client request to destroy a message by id.
type DeleteMessage struct {
	ID int64 `json:"id"`
}

// NotePayload is the noteupdated push.
type NotePayload struct {
	Key   string `json:"key"`
	Title string `json:"title"`
	Body  string `json:"body"`
}

// NoteDestroyedPayload is the notedestroyed push.
type NoteDestroyedPayload struct {
	Key string `json:"key"`
}

// DestroyMessagePayload is the destroymessage push.
type DestroyMessagePayload struct {
	ID        int64  `json:"id"`
	Namespace string `json:"namespace"`
	Room      string `json:"room"`
}

// encode frames a payload in an envelope ready for the wire.
func encode(event string, data any) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s payload: %w", event, err)
	}
	return json.Marshal(Envelope{Event: event, Data: raw})
}
