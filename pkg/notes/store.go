package notes

import (
	"context"
	"fmt"
	"strings"

	"github.com/notewire/notewire/pkg/events"
	"github.com/notewire/notewire/pkg/types"
)

// Store is the capability contract every note backend satisfies. All
// implementations expose identical observable semantics; the conformance
// suite in this package runs unmodified against each of them.
//
// Mutating operations publish a typed event through Events() before they
// return. Reads never emit events.
type Store interface {
	// Create stores a new note. Fails with ErrDuplicateKey if a note
	// with the key already exists.
	Create(ctx context.Context, key, title, body string) (*types.Note, error)

	// Update replaces an existing note. Fails with ErrNotFound.
	Update(ctx context.Context, key, title, body string) (*types.Note, error)

	// Read returns the note for key. Fails with ErrNotFound.
	Read(ctx context.Context, key string) (*types.Note, error)

	// Destroy removes the note for key. Fails with ErrNotFound.
	Destroy(ctx context.Context, key string) error

	// Keylist returns the keys of all committed notes. Order is
	// implementation-defined.
	Keylist(ctx context.Context) ([]string, error)

	// Count returns the number of stored notes.
	Count(ctx context.Context) (int, error)

	// Events returns the broker this store publishes mutation events on.
	Events() *events.Broker

	// Close releases backend resources. Idempotent; subsequent
	// operations fail with ErrStoreClosed.
	Close() error
}

// Backend names accepted in configuration.
const (
	BackendMemory     = "memory"
	BackendFilesystem = "filesystem"
	BackendSQLite     = "sqlite"
	BackendBolt       = "bolt"
)

// Config selects and parameterizes a backend.
type Config struct {
	// Backend is one of the Backend* constants.
	Backend string `yaml:"backend"`

	// Root is the storage directory for the filesystem backend.
	Root string `yaml:"root"`

	// DSN is the database file path for the sqlite backend.
	DSN string `yaml:"dsn"`

	// Path is the database file path for the bolt backend.
	Path string `yaml:"path"`

	// Watch enables the external-edit watcher on the filesystem
	// backend. Changes made outside the process surface as updated
	// events.
	Watch bool `yaml:"watch"`
}

// Open constructs the backend named by cfg. Construction failures surface
// as ErrStoreUnavailable.
func Open(cfg Config) (Store, error) {
	switch cfg.Backend {
	case BackendMemory:
		return NewMemoryStore(), nil
	case BackendFilesystem:
		return NewFSStore(cfg.Root, cfg.Watch)
	case BackendSQLite:
		return NewSQLiteStore(cfg.DSN)
	case BackendBolt:
		return NewBoltStore(cfg.Path)
	default:
		return nil, fmt.Errorf("%w: unknown backend %q", ErrStoreUnavailable, cfg.Backend)
	}
}

// ValidateKey rejects keys that could escape a filesystem storage root.
// The check is backend-independent so that all backends accept the same
// key space.
func ValidateKey(key string) error {
	if key == "" {
		return fmt.Errorf("%w: empty key", ErrInvalidKey)
	}
	if strings.ContainsAny(key, `/\`) {
		return fmt.Errorf("%w: %q contains a path separator", ErrInvalidKey, key)
	}
	return nil
}
