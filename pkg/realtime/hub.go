package realtime

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/notewire/notewire/pkg/events"
	"github.com/notewire/notewire/pkg/log"
	"github.com/notewire/notewire/pkg/messages"
	"github.com/notewire/notewire/pkg/metrics"
	"github.com/notewire/notewire/pkg/notes"
	"github.com/notewire/notewire/pkg/types"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

type roomKey struct {
	namespace string
	room      string
}

// Hub is the room broadcaster. It subscribes to the note and message store
// brokers and fans every event out to the connections joined to the
// matching (namespace, room).
//
// All membership changes and deliveries happen on the single run loop, so
// events targeting the same room are delivered in the order the stores
// emitted them. There is no cross-room ordering guarantee. Delivery is
// best-effort: a connection with a full send queue misses the event.
type Hub struct {
	noteStore notes.Store
	msgStore  messages.Store
	logger    zerolog.Logger

	register   chan *Client
	unregister chan *Client
	rooms      map[roomKey]map[*Client]bool

	noteSub events.Subscriber
	msgSub  events.Subscriber
	queries  chan memberQuery
	done     chan struct{}
	stopOnce sync.Once
	stopped  chan struct{}
}

type memberQuery struct {
	key   roomKey
	reply chan int
}

// NewHub creates a hub subscribed to both stores' brokers. Call Run to
// start delivery.
func NewHub(noteStore notes.Store, msgStore messages.Store) *Hub {
	return &Hub{
		noteStore:  noteStore,
		msgStore:   msgStore,
		logger:     log.WithComponent("realtime"),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		rooms:      make(map[roomKey]map[*Client]bool),
		noteSub:    noteStore.Events().Subscribe(),
		msgSub:     msgStore.Events().Subscribe(),
		queries:    make(chan memberQuery),
		done:       make(chan struct{}),
		stopped:    make(chan struct{}),
	}
}

// Run starts the delivery loop in its own goroutine.
func (h *Hub) Run() {
	go h.run()
}

// Stop shuts the delivery loop down and disconnects every client. After a
// store close, a hub keeps serving joins but no further events arrive.
// Idempotent.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
	<-h.stopped
}

func (h *Hub) run() {
	defer close(h.stopped)
	for {
		select {
		case client := <-h.register:
			h.join(client)
		case client := <-h.unregister:
			h.leave(client)
		case event, ok := <-h.noteSub:
			if !ok {
				h.noteSub = nil
				continue
			}
			metrics.EventsPublishedTotal.WithLabelValues(string(event.Type)).Inc()
			h.handleNoteEvent(event)
		case event, ok := <-h.msgSub:
			if !ok {
				h.msgSub = nil
				continue
			}
			metrics.EventsPublishedTotal.WithLabelValues(string(event.Type)).Inc()
			h.handleMessageEvent(event)
		case query := <-h.queries:
			query.reply <- len(h.rooms[query.key])
		case <-h.done:
			h.noteStore.Events().Unsubscribe(h.noteSub)
			h.msgStore.Events().Unsubscribe(h.msgSub)
			for key, members := range h.rooms {
				for client := range members {
					close(client.send)
				}
				delete(h.rooms, key)
			}
			metrics.ConnectionsActive.Set(0)
			metrics.RoomsActive.Set(0)
			return
		}
	}
}

func (h *Hub) join(client *Client) {
	key := roomKey{client.namespace, client.room}
	members, ok := h.rooms[key]
	if !ok {
		members = make(map[*Client]bool)
		h.rooms[key] = members
	}
	members[client] = true

	metrics.ConnectionsActive.Inc()
	metrics.RoomsActive.Set(float64(len(h.rooms)))
	client.logger.Info().Msg("connection joined")
}

func (h *Hub) leave(client *Client) {
	key := roomKey{client.namespace, client.room}
	members, ok := h.rooms[key]
	if !ok || !members[client] {
		return
	}
	delete(members, client)
	if len(members) == 0 {
		delete(h.rooms, key)
	}
	close(client.send)

	metrics.ConnectionsActive.Dec()
	metrics.RoomsActive.Set(float64(len(h.rooms)))
	client.logger.Info().Msg("connection left")
}

func (h *Hub) handleNoteEvent(event *events.Event) {
	switch event.Type {
	case events.EventNoteCreated, events.EventNoteUpdated:
		h.broadcast(roomKey{NamespaceNotes, event.Key}, WireNoteUpdated, NotePayload{
			Key:   event.Note.Key,
			Title: event.Note.Title,
			Body:  event.Note.Body,
		})
	case events.EventNoteDestroyed:
		h.broadcast(roomKey{NamespaceNotes, event.Key}, WireNoteDestroyed, NoteDestroyedPayload{Key: event.Key})
	default:
		return
	}

	// Every note mutation also refreshes the shared index view,
	// regardless of room.
	h.broadcastAll(WireNoteTitles, h.gatherTitles())
}

func (h *Hub) handleMessageEvent(event *events.Event) {
	key := roomKey{event.Namespace, event.Room}
	switch event.Type {
	case events.EventMessageCreated:
		h.broadcast(key, WireNewMessage, event.Message)
	case events.EventMessageDestroyed:
		h.broadcast(key, WireDestroyMessage, DestroyMessagePayload{
			ID:        event.Message.ID,
			Namespace: event.Namespace,
			Room:      event.Room,
		})
	}
}

func (h *Hub) broadcast(key roomKey, event string, data any) {
	members, ok := h.rooms[key]
	if !ok {
		return
	}
	payload, err := encode(event, data)
	if err != nil {
		h.logger.Error().Err(err).Str("event", event).Msg("failed to encode payload")
		return
	}
	for client := range members {
		h.deliver(client, event, payload)
	}
}

func (h *Hub) broadcastAll(event string, data any) {
	payload, err := encode(event, data)
	if err != nil {
		h.logger.Error().Err(err).Str("event", event).Msg("failed to encode payload")
		return
	}
	for _, members := range h.rooms {
		for client := range members {
			h.deliver(client, event, payload)
		}
	}
}

func (h *Hub) deliver(client *Client, event string, payload []byte) {
	select {
	case client.send <- payload:
		metrics.BroadcastsTotal.WithLabelValues(event).Inc()
	default:
		// Send queue full: the client misses this event.
		client.logger.Warn().Str("event", event).Msg("slow connection missed event")
	}
}

// Members reports how many connections are joined to the room. Returns 0
// once the hub has stopped.
func (h *Hub) Members(namespace, room string) int {
	query := memberQuery{roomKey{namespace, room}, make(chan int, 1)}
	select {
	case h.queries <- query:
		return <-query.reply
	case <-h.stopped:
		return 0
	}
}

// gatherTitles builds the payload for the global titles feed.
func (h *Hub) gatherTitles() []types.NoteTitle {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	keys, err := h.noteStore.Keylist(ctx)
	if err != nil {
		h.logger.Warn().Err(err).Msg("failed to list note titles")
		return nil
	}

	titles := make([]types.NoteTitle, 0, len(keys))
	for _, key := range keys {
		note, err := h.noteStore.Read(ctx, key)
		if err != nil {
			// Deleted between list and read; skip.
			continue
		}
		titles = append(titles, types.NoteTitle{Key: note.Key, Title: note.Title})
	}
	return titles
}

// ServeWS returns the handler for realtime connection handshakes. The
// session cookie is verified before the upgrade: an unauthenticated
// handshake is rejected with 401 and never reaches a room.
func (h *Hub) ServeWS(auth *Authenticator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, err := auth.Authenticate(r)
		if err != nil {
			metrics.AuthFailuresTotal.Inc()
			h.logger.Warn().Err(err).Str("remote", r.RemoteAddr).Msg("handshake rejected")
			http.Error(w, "authentication failed", http.StatusUnauthorized)
			return
		}

		room := r.URL.Query().Get("room")
		if room == "" {
			http.Error(w, "room is required", http.StatusBadRequest)
			return
		}
		namespace := r.URL.Query().Get("namespace")
		if namespace == "" {
			namespace = NamespaceNotes
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			h.logger.Warn().Err(err).Msg("upgrade failed")
			return
		}

		client := &Client{
			hub:       h,
			conn:      conn,
			send:      make(chan []byte, sendBuffer),
			identity:  identity,
			namespace: namespace,
			room:      room,
			logger: log.WithRoom(namespace, room).With().
				Str("identity", identity).Logger(),
		}
		// The run loop may already be gone; never block a handshake on
		// a stopped hub.
		select {
		case h.register <- client:
		case <-h.done:
			conn.Close()
			return
		}

		go client.writePump()
		go client.readPump()
	}
}
