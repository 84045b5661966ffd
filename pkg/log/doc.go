/*
Package log provides structured logging for Notewire using zerolog.

The log package wraps the zerolog library to provide JSON-structured logging
with component-specific loggers, configurable log levels, and helper
functions for common logging patterns. All logs include timestamps and
support filtering by severity level.

# Usage

Initializing the logger (done once in cmd/notewire):

	log.Init(log.Config{
		Level:      log.InfoLevel,
		JSONOutput: true,
	})

Component loggers:

	logger := log.WithComponent("realtime")
	logger.Info().Str("room", room).Msg("connection joined")

Backend loggers carry the active store backend name:

	logger := log.WithBackend("filesystem")
	logger.Error().Err(err).Str("key", key).Msg("read failed")

# Log Levels

  - debug: verbose internals (event delivery, room membership changes)
  - info: lifecycle events (store opened, server listening, connection joined)
  - warn: recoverable anomalies (slow subscriber dropped an event)
  - error: failed operations surfaced to callers

# Integration Points

Every package obtains its logger through WithComponent or WithBackend rather
than importing zerolog directly, so output format and level are controlled
in one place.
*/
package log
