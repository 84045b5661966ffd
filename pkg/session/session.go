package session

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/notewire/notewire/pkg/types"
)

// ErrNotFound is returned when a session id is unknown or expired. Callers
// cannot distinguish the two; both mean the bearer is unauthenticated.
var ErrNotFound = errors.New("session not found")

// DefaultTTL is the session lifetime when the config does not set one.
const DefaultTTL = 24 * time.Hour

// Lookup is the narrow read-side contract the realtime authenticator
// consumes: session id in, verified identity out.
type Lookup interface {
	Lookup(id string) (identity string, err error)
}

// Store is an in-memory session store with TTL expiry. Sessions are
// ephemeral: they do not survive a restart, which matches cookie-bound
// browser sessions.
type Store struct {
	mu       sync.RWMutex
	ttl      time.Duration
	sessions map[string]*types.Session
	done     chan struct{}
	once     sync.Once

	// now is replaceable in tests.
	now func() time.Time
}

// NewStore creates a session store and starts its background sweep. A
// non-positive ttl falls back to DefaultTTL.
func NewStore(ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	s := &Store{
		ttl:      ttl,
		sessions: make(map[string]*types.Session),
		done:     make(chan struct{}),
		now:      time.Now,
	}
	go s.sweep()
	return s
}

// Create issues a new session for the identity and returns its id.
func (s *Store) Create(identity string) string {
	id := uuid.NewString()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[id] = &types.Session{
		ID:       id,
		Identity: identity,
		Expiry:   s.now().Add(s.ttl),
	}
	return id
}

// Lookup resolves a session id to its identity. Expired sessions are
// removed on sight and reported as ErrNotFound.
func (s *Store) Lookup(id string) (string, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return "", ErrNotFound
	}

	if sess.Expired(s.now()) {
		s.mu.Lock()
		delete(s.sessions, id)
		s.mu.Unlock()
		return "", ErrNotFound
	}
	return sess.Identity, nil
}

// Destroy removes a session. Unknown ids are a no-op; logout is idempotent.
func (s *Store) Destroy(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}

// Len returns the number of live sessions, counting expired-but-unswept
// entries out.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := s.now()
	count := 0
	for _, sess := range s.sessions {
		if !sess.Expired(now) {
			count++
		}
	}
	return count
}

// Close stops the background sweep. Idempotent.
func (s *Store) Close() {
	s.once.Do(func() { close(s.done) })
}

func (s *Store) sweep() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.mu.Lock()
			now := s.now()
			for id, sess := range s.sessions {
				if sess.Expired(now) {
					delete(s.sessions, id)
				}
			}
			s.mu.Unlock()
		case <-s.done:
			return
		}
	}
}
