package realtime

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	// writeWait bounds a single write to a peer.
	writeWait = 10 * time.Second

	// pongWait is how long a peer may stay silent before the read side
	// gives up. Pings go out at pingPeriod to keep healthy peers inside
	// the window.
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	maxMessageSize = 8192

	// sendBuffer is the per-connection outbound queue. A connection
	// that cannot drain it misses events rather than stalling the hub.
	sendBuffer = 64

	// actionTimeout bounds store calls triggered by client actions so a
	// hung backend cannot pin the read pump.
	actionTimeout = 10 * time.Second
)

// Client is one live websocket connection: a verified identity joined to a
// single (namespace, room). Its lifetime is
// connecting → authenticating → joined → closed; instances only exist once
// joined, since authentication happens during the handshake.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	identity  string
	namespace string
	room      string
	logger    zerolog.Logger
}

// readPump consumes client actions until the connection drops, then leaves
// the room. create-message and delete-message mutate the message store; the
// resulting events come back to this room through the hub.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Debug().Err(err).Msg("connection dropped")
			}
			return
		}

		var envelope Envelope
		if err := json.Unmarshal(raw, &envelope); err != nil {
			c.logger.Warn().Err(err).Msg("discarding malformed frame")
			continue
		}
		c.handleAction(envelope)
	}
}

func (c *Client) handleAction(envelope Envelope) {
	ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
	defer cancel()

	switch envelope.Event {
	case ActionCreateMessage:
		var req CreateMessage
		if err := json.Unmarshal(envelope.Data, &req); err != nil {
			c.logger.Warn().Err(err).Msg("discarding malformed create-message")
			return
		}
		// A connection may only post into the room it joined.
		if req.Namespace != c.namespace || req.Room != c.room {
			c.logger.Warn().Str("namespace", req.Namespace).Str("room", req.Room).
				Msg("discarding create-message for a different room")
			return
		}
		if req.From == "" {
			req.From = c.identity
		}
		if _, err := c.hub.msgStore.Post(ctx, req.From, req.Namespace, req.Room, req.Message); err != nil {
			c.logger.Error().Err(err).Msg("failed to create message")
		}

	case ActionDeleteMessage:
		var req DeleteMessage
		if err := json.Unmarshal(envelope.Data, &req); err != nil {
			c.logger.Warn().Err(err).Msg("discarding malformed delete-message")
			return
		}
		if err := c.hub.msgStore.Destroy(ctx, req.ID); err != nil {
			c.logger.Error().Err(err).Int64("id", req.ID).Msg("failed to delete message")
		}

	default:
		c.logger.Warn().Str("event", envelope.Event).Msg("unknown action")
	}
}

// writePump drains the send queue to the peer and keeps it alive with
// pings. The hub closes the send channel to disconnect the client.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
