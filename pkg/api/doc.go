// Package api provides the HTTP surface of the application.
//
// # Architecture
//
//	┌──────────────────────────────────────────────────────┐
//	│                      Server                          │
//	│                                                      │
//	│  POST /login ──────────► session.Store (cookie)      │
//	│  POST /logout                                        │
//	│                                                      │
//	│  POST   /notes ────────┐                             │
//	│  GET    /notes         │                             │
//	│  GET    /notes/{key}   ├───► notes.Store             │
//	│  PUT    /notes/{key}   │                             │
//	│  DELETE /notes/{key} ──┘                             │
//	│                                                      │
//	│  GET /notes/{key}/messages ──► messages.Store        │
//	│                                                      │
//	│  GET /ws ──────────────► realtime.Hub (upgrade)      │
//	│                                                      │
//	│  GET /healthz   GET /metrics                         │
//	└──────────────────────────────────────────────────────┘
//
// # Error Mapping
//
// Store errors translate to HTTP statuses:
//
//	ErrInvalidKey        400 Bad Request
//	ErrNotFound          404 Not Found
//	ErrDuplicateKey      409 Conflict
//	ErrStoreClosed       503 Service Unavailable
//	ErrStoreUnavailable  503 Service Unavailable
//	ErrTimeout           504 Gateway Timeout
//
// Every mutation that succeeds has already published its domain event by
// the time the response is written, so a client that calls PUT /notes/{key}
// and then receives the websocket push sees them in that order.
package api
