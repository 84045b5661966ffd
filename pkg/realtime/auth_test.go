package realtime

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notewire/notewire/pkg/session"
)

func TestAuthenticateResolvesIdentity(t *testing.T) {
	sessions := session.NewStore(time.Hour)
	defer sessions.Close()
	auth := NewAuthenticator(sessions)

	sid := sessions.Create("alice")
	r := httptest.NewRequest(http.MethodGet, "/ws", nil)
	r.AddCookie(&http.Cookie{Name: SessionCookieName, Value: sid})

	identity, err := auth.Authenticate(r)
	require.NoError(t, err)
	assert.Equal(t, "alice", identity)
}

func TestAuthenticateFailures(t *testing.T) {
	sessions := session.NewStore(time.Hour)
	defer sessions.Close()
	auth := NewAuthenticator(sessions)

	t.Run("no cookie", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/ws", nil)
		_, err := auth.Authenticate(r)
		assert.ErrorIs(t, err, ErrAuthenticationFailed)
	})

	t.Run("unknown session", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/ws", nil)
		r.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "stale"})
		_, err := auth.Authenticate(r)
		assert.ErrorIs(t, err, ErrAuthenticationFailed)
	})

	t.Run("destroyed session", func(t *testing.T) {
		sid := sessions.Create("bob")
		sessions.Destroy(sid)
		r := httptest.NewRequest(http.MethodGet, "/ws", nil)
		r.AddCookie(&http.Cookie{Name: SessionCookieName, Value: sid})
		_, err := auth.Authenticate(r)
		assert.ErrorIs(t, err, ErrAuthenticationFailed)
	})
}
