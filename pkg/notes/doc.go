/*
Package notes provides the pluggable note persistence layer: a single Store
contract, four interchangeable backends, and the registry that owns the one
active store per process.

# Architecture

	┌───────────────────── NOTE STORAGE ──────────────────────┐
	│                                                          │
	│  ┌────────────────────────────────────────────┐         │
	│  │               Registry                      │         │
	│  │  - Open(cfg) selects a backend by name      │         │
	│  │  - At most one active store                 │         │
	│  │  - Re-select while active: ErrAlreadySelected│        │
	│  │  - Close clears the singleton               │         │
	│  └──────────────────┬─────────────────────────┘         │
	│                     │                                    │
	│  ┌──────────────────▼─────────────────────────┐         │
	│  │            Store interface                  │         │
	│  │  Create/Update/Read/Destroy/Keylist/Count   │         │
	│  │  Events() broker, Close                     │         │
	│  └───┬──────────┬──────────┬──────────┬───────┘         │
	│      │          │          │          │                  │
	│   memory    filesystem   sqlite     bolt                 │
	│   (map)     (file/key)   (1 table)  (1 bucket)           │
	│                                                          │
	└──────────────────────────────────────────────────────────┘

All four backends satisfy identical observable semantics; the conformance
suite in conformance_test.go runs unmodified against each.

# Event Contract

Every committed mutation publishes exactly one event on the store's broker
before the mutating call returns: note.created and note.updated carry the
note, note.destroyed carries only the key. Reads never publish. Each backend
serializes its commit+publish step, so subscribers observe events in commit
order.

# Concurrency

Mutations to the same key are not serialized across callers for the memory
and filesystem backends: concurrent writers interleave and the last write
wins. The sqlite backend's uniqueness constraint guards Create only. The
filesystem backend writes via temp-file-and-rename so readers never observe
a partial record.

# Key Validation

Keys containing path separators are rejected with ErrInvalidKey before any
backend I/O, closing the path-traversal hole a filesystem backend would
otherwise have. The check is backend-independent so every backend accepts
the same key space.
*/
package notes
