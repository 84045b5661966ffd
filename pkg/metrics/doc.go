/*
Package metrics exposes Prometheus collectors for Notewire.

Collected series cover the three layers of the core: store operations
(counts and outcomes per op), event delivery (events handed to the hub,
payloads fanned out per wire event name), and realtime connection state
(active connections, active rooms, rejected handshakes). HTTP request
counts come from the API server's logging middleware.

All collectors are registered at package init; the API server mounts
Handler() on /metrics.
*/
package metrics
