package messages

import (
	"context"
	"errors"

	"github.com/notewire/notewire/pkg/events"
	"github.com/notewire/notewire/pkg/types"
)

// RecentLimit is the size of the recent-messages window returned by Recent.
// Disconnected clients use this read path to catch up; there is no replay.
const RecentLimit = 20

var (
	// ErrNotFound is returned when no message exists for the given id.
	ErrNotFound = errors.New("message not found")

	// ErrStoreClosed is returned for any operation after Close.
	ErrStoreClosed = errors.New("message store closed")

	// ErrStoreUnavailable is returned when the backing database cannot
	// be reached or constructed.
	ErrStoreUnavailable = errors.New("message store unavailable")
)

// Store persists per-room chat messages and publishes an event for every
// committed mutation, mirroring the note store's event contract.
type Store interface {
	// Post stores a new message and assigns its id and timestamp.
	Post(ctx context.Context, from, namespace, room, text string) (*types.Message, error)

	// Destroy removes the message with the given id. Fails with
	// ErrNotFound. The emitted event carries the id and its
	// (namespace, room) so the broadcaster can target the right room.
	Destroy(ctx context.Context, id int64) error

	// Recent returns up to RecentLimit most recent messages for the
	// (namespace, room) pair, in chronological order.
	Recent(ctx context.Context, namespace, room string) ([]*types.Message, error)

	// Events returns the broker this store publishes mutation events on.
	Events() *events.Broker

	// Close releases resources. Idempotent.
	Close() error
}
