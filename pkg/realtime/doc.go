/*
Package realtime provides the websocket layer: the room broadcaster (Hub),
the per-connection pumps, and the session-cookie authenticator.

# Architecture

	┌────────────────────── REALTIME ──────────────────────────┐
	│                                                           │
	│  handshake ──► Authenticator (session cookie → identity)  │
	│       │              rejected: 401, never joins a room    │
	│       ▼                                                   │
	│  upgrade ──► Client (readPump / writePump)                │
	│       │                                                   │
	│       ▼                                                   │
	│  Hub run loop                                             │
	│    - join/leave: rooms[(namespace, room)] membership      │
	│    - note store events → room matching the note key       │
	│      plus global notetitles to every connection           │
	│    - message store events → the event's (namespace, room) │
	│                                                           │
	└───────────────────────────────────────────────────────────┘

# Ordering and Delivery

One goroutine owns all membership state and all deliveries, so events for
the same room reach connections in store commit order, and a connection
leaving mid-broadcast is never delivered to after leaving. There is no
cross-room ordering guarantee and no replay: disconnected clients re-fetch
room history through the recent-messages read path.

# Connection Lifecycle

connecting → authenticating → joined(room) → closed. Authentication is part
of the handshake; a Client value only exists once joined. Client-submitted
create-message/delete-message actions go through the message store, and the
resulting events come back to the room via the hub, so every member
(including the sender) observes the same stream.
*/
package realtime
