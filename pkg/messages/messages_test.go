package messages

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notewire/notewire/pkg/events"
)

func openStores(t *testing.T) map[string]Store {
	t.Helper()

	sqliteStore, err := NewSQLiteStore(filepath.Join(t.TempDir(), "messages.sqlite3"))
	require.NoError(t, err)

	stores := map[string]Store{
		"memory": NewMemoryStore(),
		"sqlite": sqliteStore,
	}
	t.Cleanup(func() {
		for _, store := range stores {
			store.Close()
		}
	})
	return stores
}

func TestPostAssignsStableIDs(t *testing.T) {
	ctx := context.Background()
	for name, store := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			first, err := store.Post(ctx, "alice", "/notes", "abc", "hi")
			require.NoError(t, err)
			second, err := store.Post(ctx, "bob", "/notes", "abc", "hello")
			require.NoError(t, err)

			assert.Greater(t, second.ID, first.ID)
			assert.Equal(t, "alice", first.From)
			assert.False(t, first.Timestamp.IsZero())
		})
	}
}

func TestRecentWindowChronological(t *testing.T) {
	ctx := context.Background()
	for name, store := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			for i := 0; i < RecentLimit+5; i++ {
				_, err := store.Post(ctx, "alice", "/notes", "abc", fmt.Sprintf("msg-%d", i))
				require.NoError(t, err)
			}
			// Another room's traffic must not leak in.
			_, err := store.Post(ctx, "mallory", "/notes", "xyz", "other room")
			require.NoError(t, err)

			recent, err := store.Recent(ctx, "/notes", "abc")
			require.NoError(t, err)
			require.Len(t, recent, RecentLimit)

			// Oldest entries fell out of the window; order is chronological.
			assert.Equal(t, "msg-5", recent[0].Message)
			assert.Equal(t, fmt.Sprintf("msg-%d", RecentLimit+4), recent[RecentLimit-1].Message)
			for i := 1; i < len(recent); i++ {
				assert.Greater(t, recent[i].ID, recent[i-1].ID)
			}
		})
	}
}

func TestDestroyByID(t *testing.T) {
	ctx := context.Background()
	for name, store := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			msg, err := store.Post(ctx, "alice", "/notes", "abc", "delete me")
			require.NoError(t, err)

			require.NoError(t, store.Destroy(ctx, msg.ID))
			assert.ErrorIs(t, store.Destroy(ctx, msg.ID), ErrNotFound)

			recent, err := store.Recent(ctx, "/notes", "abc")
			require.NoError(t, err)
			assert.Empty(t, recent)
		})
	}
}

func TestMessageEvents(t *testing.T) {
	ctx := context.Background()
	for name, store := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			sub := store.Events().Subscribe()
			defer store.Events().Unsubscribe(sub)

			msg, err := store.Post(ctx, "alice", "/notes", "abc", "hi")
			require.NoError(t, err)
			require.NoError(t, store.Destroy(ctx, msg.ID))

			require.Len(t, sub, 2)

			event := <-sub
			assert.Equal(t, events.EventMessageCreated, event.Type)
			assert.Equal(t, "/notes", event.Namespace)
			assert.Equal(t, "abc", event.Room)
			assert.Equal(t, msg.ID, event.Message.ID)

			event = <-sub
			assert.Equal(t, events.EventMessageDestroyed, event.Type)
			assert.Equal(t, "abc", event.Room)
			assert.Equal(t, msg.ID, event.Message.ID)
		})
	}
}

func TestClosedStore(t *testing.T) {
	ctx := context.Background()
	for name, store := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, store.Close())
			require.NoError(t, store.Close())

			_, err := store.Post(ctx, "alice", "/notes", "abc", "hi")
			assert.ErrorIs(t, err, ErrStoreClosed)
			_, err = store.Recent(ctx, "/notes", "abc")
			assert.ErrorIs(t, err, ErrStoreClosed)
			assert.ErrorIs(t, store.Destroy(ctx, 1), ErrStoreClosed)
		})
	}
}
