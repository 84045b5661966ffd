/*
Package messages provides the per-room chat message store.

Messages belong to a (namespace, room) pair, where the room is typically a
note key. The store assigns each message a stable, monotonically increasing
id; that id is the sole handle used for destruction.

Two implementations share the Store contract:

  - MemoryStore: process-local, used with the memory and filesystem note
    backends and in tests
  - SQLiteStore: one table with an AUTOINCREMENT id column, used when the
    sqlite note backend is selected

Both publish message.created and message.destroyed events through the same
broker contract as the note stores, so the realtime hub treats note and
message events uniformly. The destroyed event carries the full message so
the hub can resolve the target room from the payload.

There is no durable delivery guarantee beyond the Recent window: a client
that missed events re-fetches the last RecentLimit messages for its room on
reconnect.
*/
package messages
