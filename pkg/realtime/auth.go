package realtime

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/notewire/notewire/pkg/session"
)

// ErrAuthenticationFailed is returned when a connection handshake carries
// no session cookie, or one that does not resolve to a live session.
var ErrAuthenticationFailed = errors.New("authentication failed")

// SessionCookieName is the cookie carrying the session id. The HTTP login
// handler sets it; the realtime handshake reads it.
const SessionCookieName = "notewire.sid"

// Authenticator bridges an inbound connection's session cookie to a
// verified identity. It runs during the handshake, before any room join is
// possible, so an unauthenticated actor never enters a room.
type Authenticator struct {
	sessions session.Lookup
}

// NewAuthenticator creates an authenticator over the given session lookup.
func NewAuthenticator(sessions session.Lookup) *Authenticator {
	return &Authenticator{sessions: sessions}
}

// Authenticate resolves the request's session cookie to an identity.
func (a *Authenticator) Authenticate(r *http.Request) (string, error) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		return "", fmt.Errorf("%w: no session cookie", ErrAuthenticationFailed)
	}

	identity, err := a.sessions.Lookup(cookie.Value)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAuthenticationFailed, err)
	}
	return identity, nil
}
