package notes

import (
	"context"
	"errors"
)

// Sentinel errors returned by stores and the registry. Callers match with
// errors.Is; the HTTP layer maps them to response codes.
var (
	// ErrInvalidKey is returned for keys containing path-separator
	// characters, before any backend I/O happens.
	ErrInvalidKey = errors.New("invalid note key")

	// ErrNotFound is returned when no note exists for the given key.
	ErrNotFound = errors.New("note not found")

	// ErrDuplicateKey is returned by Create when a note with the key
	// already exists. The existing note is unaffected.
	ErrDuplicateKey = errors.New("note already exists")

	// ErrCorruptRecord is returned when a persisted record cannot be
	// decoded (for example a partial or hand-damaged file).
	ErrCorruptRecord = errors.New("corrupt note record")

	// ErrStoreUnavailable is returned when a backend cannot be reached
	// or constructed (bad root directory, unreachable database).
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrStoreClosed is returned for any operation after Close.
	ErrStoreClosed = errors.New("store closed")

	// ErrAlreadySelected is returned by the registry when a store is
	// opened while another is still active.
	ErrAlreadySelected = errors.New("a store is already selected")

	// ErrTimeout is returned when a backend call exceeds its deadline.
	ErrTimeout = errors.New("store operation timed out")
)

// ctxErr maps context cancellation and deadline errors onto the store error
// taxonomy so callers see ErrTimeout rather than a raw context error.
func ctxErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.DeadlineExceeded):
		return ErrTimeout
	default:
		return err
	}
}
