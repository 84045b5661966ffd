// Package client wraps the HTTP API for CLI usage. It covers the note CRUD
// routes and the recent-messages view; realtime subscriptions go through a
// websocket connection, not this client.
package client
