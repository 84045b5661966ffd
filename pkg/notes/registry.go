package notes

import (
	"fmt"
	"sync"

	"github.com/notewire/notewire/pkg/log"
)

// Registry owns the single active Store for the process. Opening a second
// store while one is active fails with ErrAlreadySelected: the registry
// never swaps a live store out from under connected clients. Callers must
// Close first.
type Registry struct {
	mu     sync.Mutex
	active Store
	name   string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// DefaultRegistry is the process-wide registry the server uses.
var DefaultRegistry = NewRegistry()

// Open constructs the backend named by cfg and installs it as the active
// store. A construction failure leaves the registry empty; no
// half-initialized store becomes visible.
func (r *Registry) Open(cfg Config) (Store, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.active != nil {
		return nil, fmt.Errorf("%w: %q is active", ErrAlreadySelected, r.name)
	}

	store, err := Open(cfg)
	if err != nil {
		return nil, err
	}

	r.active = store
	r.name = cfg.Backend
	logger := log.WithComponent("registry")
	logger.Info().Str("backend", cfg.Backend).Msg("store selected")
	return store, nil
}

// Active returns the current store, or ErrStoreUnavailable when none is
// selected (never opened, or closed).
func (r *Registry) Active() (Store, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.active == nil {
		return nil, fmt.Errorf("%w: no store selected", ErrStoreUnavailable)
	}
	return r.active, nil
}

// Name returns the backend name of the active store, or "" when none.
func (r *Registry) Name() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.name
}

// Close closes the active store and clears the registry so a subsequent
// Active fails rather than silently recreating a store. Idempotent.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.active == nil {
		return nil
	}
	err := r.active.Close()
	r.active = nil
	r.name = ""
	return err
}
