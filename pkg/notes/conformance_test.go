package notes

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notewire/notewire/pkg/events"
)

// openBackends constructs one store per backend, each on its own temp
// fixture. Every conformance test runs unmodified against all of them.
func openBackends(t *testing.T) map[string]Store {
	t.Helper()

	fsStore, err := NewFSStore(t.TempDir(), false)
	require.NoError(t, err)

	sqliteStore, err := NewSQLiteStore(filepath.Join(t.TempDir(), "notes.sqlite3"))
	require.NoError(t, err)

	boltStore, err := NewBoltStore(filepath.Join(t.TempDir(), "notes.db"))
	require.NoError(t, err)

	stores := map[string]Store{
		BackendMemory:     NewMemoryStore(),
		BackendFilesystem: fsStore,
		BackendSQLite:     sqliteStore,
		BackendBolt:       boltStore,
	}
	t.Cleanup(func() {
		for _, store := range stores {
			store.Close()
		}
	})
	return stores
}

func TestCreateThenRead(t *testing.T) {
	ctx := context.Background()
	for name, store := range openBackends(t) {
		t.Run(name, func(t *testing.T) {
			created, err := store.Create(ctx, "abc", "Hello", "World")
			require.NoError(t, err)

			got, err := store.Read(ctx, "abc")
			require.NoError(t, err)
			assert.Equal(t, created, got)
		})
	}
}

func TestCreateDuplicateKey(t *testing.T) {
	ctx := context.Background()
	for name, store := range openBackends(t) {
		t.Run(name, func(t *testing.T) {
			_, err := store.Create(ctx, "abc", "first", "body")
			require.NoError(t, err)

			_, err = store.Create(ctx, "abc", "second", "body")
			assert.ErrorIs(t, err, ErrDuplicateKey)

			// The first note is unaffected.
			got, err := store.Read(ctx, "abc")
			require.NoError(t, err)
			assert.Equal(t, "first", got.Title)
		})
	}
}

func TestUpdateMissingKey(t *testing.T) {
	ctx := context.Background()
	for name, store := range openBackends(t) {
		t.Run(name, func(t *testing.T) {
			_, err := store.Update(ctx, "nope", "title", "body")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestDestroy(t *testing.T) {
	ctx := context.Background()
	for name, store := range openBackends(t) {
		t.Run(name, func(t *testing.T) {
			_, err := store.Create(ctx, "abc", "Hello", "World")
			require.NoError(t, err)
			_, err = store.Create(ctx, "keep", "stays", "here")
			require.NoError(t, err)

			require.NoError(t, store.Destroy(ctx, "abc"))

			_, err = store.Read(ctx, "abc")
			assert.ErrorIs(t, err, ErrNotFound)

			keys, err := store.Keylist(ctx)
			require.NoError(t, err)
			assert.NotContains(t, keys, "abc")
			assert.Contains(t, keys, "keep")

			assert.ErrorIs(t, store.Destroy(ctx, "abc"), ErrNotFound)
		})
	}
}

func TestKeylistAndCount(t *testing.T) {
	ctx := context.Background()
	for name, store := range openBackends(t) {
		t.Run(name, func(t *testing.T) {
			keys, err := store.Keylist(ctx)
			require.NoError(t, err)
			assert.Empty(t, keys)

			for i := 0; i < 5; i++ {
				_, err := store.Create(ctx, fmt.Sprintf("note-%d", i), "t", "b")
				require.NoError(t, err)
			}

			keys, err = store.Keylist(ctx)
			require.NoError(t, err)
			assert.Len(t, keys, 5)
			for i := 0; i < 5; i++ {
				assert.Contains(t, keys, fmt.Sprintf("note-%d", i))
			}

			count, err := store.Count(ctx)
			require.NoError(t, err)
			assert.Equal(t, 5, count)
		})
	}
}

func TestInvalidKeyRejectedBeforeBackend(t *testing.T) {
	ctx := context.Background()
	for name, store := range openBackends(t) {
		t.Run(name, func(t *testing.T) {
			for _, key := range []string{"", "a/b", `a\b`, "../escape"} {
				_, err := store.Create(ctx, key, "t", "b")
				assert.ErrorIs(t, err, ErrInvalidKey, "create %q", key)

				_, err = store.Read(ctx, key)
				assert.ErrorIs(t, err, ErrInvalidKey, "read %q", key)

				err = store.Destroy(ctx, key)
				assert.ErrorIs(t, err, ErrInvalidKey, "destroy %q", key)
			}

			count, err := store.Count(ctx)
			require.NoError(t, err)
			assert.Zero(t, count)
		})
	}
}

func TestOperationsAfterClose(t *testing.T) {
	ctx := context.Background()
	for name, store := range openBackends(t) {
		t.Run(name, func(t *testing.T) {
			_, err := store.Create(ctx, "abc", "t", "b")
			require.NoError(t, err)

			require.NoError(t, store.Close())
			require.NoError(t, store.Close(), "close must be idempotent")

			_, err = store.Create(ctx, "def", "t", "b")
			assert.ErrorIs(t, err, ErrStoreClosed)
			_, err = store.Read(ctx, "abc")
			assert.ErrorIs(t, err, ErrStoreClosed)
			_, err = store.Update(ctx, "abc", "t", "b")
			assert.ErrorIs(t, err, ErrStoreClosed)
			assert.ErrorIs(t, store.Destroy(ctx, "abc"), ErrStoreClosed)
			_, err = store.Keylist(ctx)
			assert.ErrorIs(t, err, ErrStoreClosed)
			_, err = store.Count(ctx)
			assert.ErrorIs(t, err, ErrStoreClosed)
		})
	}
}

func TestMutationEventsInCommitOrder(t *testing.T) {
	ctx := context.Background()
	for name, store := range openBackends(t) {
		t.Run(name, func(t *testing.T) {
			sub := store.Events().Subscribe()
			defer store.Events().Unsubscribe(sub)

			_, err := store.Create(ctx, "abc", "v0", "b")
			require.NoError(t, err)
			_, err = store.Update(ctx, "abc", "v1", "b")
			require.NoError(t, err)
			_, err = store.Update(ctx, "abc", "v2", "b")
			require.NoError(t, err)
			require.NoError(t, store.Destroy(ctx, "abc"))

			// Events are already buffered: publish happens before the
			// mutating call returns.
			require.Len(t, sub, 4)

			event := <-sub
			assert.Equal(t, events.EventNoteCreated, event.Type)
			assert.Equal(t, "v0", event.Note.Title)

			event = <-sub
			assert.Equal(t, events.EventNoteUpdated, event.Type)
			assert.Equal(t, "v1", event.Note.Title)

			event = <-sub
			assert.Equal(t, events.EventNoteUpdated, event.Type)
			assert.Equal(t, "v2", event.Note.Title)

			event = <-sub
			assert.Equal(t, events.EventNoteDestroyed, event.Type)
			assert.Equal(t, "abc", event.Key)
			assert.Nil(t, event.Note, "destroyed carries only the key")
		})
	}
}

func TestReadsDoNotEmitEvents(t *testing.T) {
	ctx := context.Background()
	for name, store := range openBackends(t) {
		t.Run(name, func(t *testing.T) {
			_, err := store.Create(ctx, "abc", "t", "b")
			require.NoError(t, err)

			sub := store.Events().Subscribe()
			defer store.Events().Unsubscribe(sub)

			_, err = store.Read(ctx, "abc")
			require.NoError(t, err)
			_, err = store.Keylist(ctx)
			require.NoError(t, err)
			_, err = store.Count(ctx)
			require.NoError(t, err)

			assert.Empty(t, sub)
		})
	}
}

// Concurrent writers to the same key interleave; the accepted behavior is
// last write wins, never corruption or a lost record.
func TestConcurrentUpdatesLastWriteWins(t *testing.T) {
	ctx := context.Background()
	for name, store := range openBackends(t) {
		t.Run(name, func(t *testing.T) {
			_, err := store.Create(ctx, "abc", "seed", "b")
			require.NoError(t, err)

			var wg sync.WaitGroup
			titles := make(map[string]bool)
			for i := 0; i < 8; i++ {
				title := fmt.Sprintf("writer-%d", i)
				titles[title] = true
				wg.Add(1)
				go func() {
					defer wg.Done()
					_, err := store.Update(ctx, "abc", title, "b")
					assert.NoError(t, err)
				}()
			}
			wg.Wait()

			got, err := store.Read(ctx, "abc")
			require.NoError(t, err)
			assert.True(t, titles[got.Title], "surviving title %q must come from one writer", got.Title)

			count, err := store.Count(ctx)
			require.NoError(t, err)
			assert.Equal(t, 1, count)
		})
	}
}
