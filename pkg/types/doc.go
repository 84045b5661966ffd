/*
Package types defines the core data structures used throughout Notewire.

This package contains the fundamental types of the domain model: notes,
per-room chat messages, note titles for index views, and sessions. These
types are used by all other packages for persistence, event payloads, and
API communication.

All types are designed to be:
  - Serializable (JSON for persisted records and wire payloads)
  - Immutable where possible (stores replace notes, never patch them)
  - Self-documenting (clear field names and comments)

# Core Types

Note:
  - Key: caller-chosen identifier, unique within a store
  - Title, Body: note content
  - JSON()/NoteFromJSON(): the flat persisted encoding

Message:
  - Belongs to a (namespace, room) pair; room is typically a note key
  - ID: store-assigned, stable, sole handle for destruction
  - Timestamp: store-assigned creation time

Session:
  - Binds a session identifier to a verified identity with an expiry
*/
package types
