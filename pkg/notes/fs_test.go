package notes

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notewire/notewire/pkg/events"
)

func TestFSStorePersistedFormat(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	store, err := NewFSStore(root, false)
	require.NoError(t, err)
	defer store.Close()

	_, err = store.Create(ctx, "abc", "Hello", "World")
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(root, "abc.json"))
	require.NoError(t, err)

	var record map[string]string
	require.NoError(t, json.Unmarshal(data, &record))
	assert.Equal(t, map[string]string{
		"key":   "abc",
		"title": "Hello",
		"body":  "World",
	}, record)

	require.NoError(t, store.Destroy(ctx, "abc"))
	assert.NoFileExists(t, filepath.Join(root, "abc.json"))

	keys, err := store.Keylist(ctx)
	require.NoError(t, err)
	assert.NotContains(t, keys, "abc")
}

func TestFSStoreCorruptRecord(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	store, err := NewFSStore(root, false)
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, os.WriteFile(filepath.Join(root, "bad.json"), []byte(`{"key": "bad", "ti`), 0o644))

	_, err = store.Read(ctx, "bad")
	assert.ErrorIs(t, err, ErrCorruptRecord)
}

func TestFSStoreKeylistSkipsForeignFiles(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	store, err := NewFSStore(root, false)
	require.NoError(t, err)
	defer store.Close()

	_, err = store.Create(ctx, "real", "t", "b")
	require.NoError(t, err)

	// Leftover temp file, unrelated file, subdirectory: all invisible.
	require.NoError(t, os.WriteFile(filepath.Join(root, tmpPrefix+"123"), []byte("{}"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "README.md"), []byte("hi"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(root, "sub.json"), 0o755))

	keys, err := store.Keylist(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"real"}, keys)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestFSStoreUnusableRoot(t *testing.T) {
	// A file where the root directory should be.
	parent := t.TempDir()
	blocked := filepath.Join(parent, "blocked")
	require.NoError(t, os.WriteFile(blocked, []byte("x"), 0o644))

	_, err := NewFSStore(blocked, false)
	assert.ErrorIs(t, err, ErrStoreUnavailable)

	_, err = NewFSStore("", false)
	assert.ErrorIs(t, err, ErrStoreUnavailable)
}

func TestFSStoreWatchExternalEdit(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	store, err := NewFSStore(root, true)
	require.NoError(t, err)
	defer store.Close()

	_, err = store.Create(ctx, "abc", "Hello", "World")
	require.NoError(t, err)

	sub := store.Events().Subscribe()
	defer store.Events().Unsubscribe(sub)

	// Let the own-write suppression window pass, then edit the file as
	// an external process would.
	time.Sleep(ownWriteWindow + 50*time.Millisecond)
	edited := []byte(`{"key":"abc","title":"Edited","body":"Elsewhere"}`)
	require.NoError(t, os.WriteFile(filepath.Join(root, "abc.json"), edited, 0o644))

	select {
	case event := <-sub:
		assert.Equal(t, events.EventNoteUpdated, event.Type)
		assert.Equal(t, "abc", event.Key)
		assert.Equal(t, "Edited", event.Note.Title)
	case <-time.After(3 * time.Second):
		t.Fatal("no event for external edit")
	}
}

func TestFSStoreWatchSeesExternalEditAfterFailedDestroy(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	store, err := NewFSStore(root, true)
	require.NoError(t, err)
	defer store.Close()

	sub := store.Events().Subscribe()
	defer store.Events().Unsubscribe(sub)

	// A destroy that never removed anything must not suppress the
	// watcher for that key.
	require.ErrorIs(t, store.Destroy(ctx, "ghost"), ErrNotFound)

	created := []byte(`{"key":"ghost","title":"External","body":"Edit"}`)
	require.NoError(t, os.WriteFile(filepath.Join(root, "ghost.json"), created, 0o644))

	select {
	case event := <-sub:
		assert.Equal(t, events.EventNoteUpdated, event.Type)
		assert.Equal(t, "ghost", event.Key)
		assert.Equal(t, "External", event.Note.Title)
	case <-time.After(3 * time.Second):
		t.Fatal("no event for external edit after failed destroy")
	}
}

func TestFSStoreWatchIgnoresOwnWrites(t *testing.T) {
	ctx := context.Background()
	store, err := NewFSStore(t.TempDir(), true)
	require.NoError(t, err)
	defer store.Close()

	sub := store.Events().Subscribe()
	defer store.Events().Unsubscribe(sub)

	_, err = store.Create(ctx, "abc", "Hello", "World")
	require.NoError(t, err)

	// The create event arrives synchronously.
	event := <-sub
	assert.Equal(t, events.EventNoteCreated, event.Type)

	// The watcher must not re-emit the store's own write.
	select {
	case event := <-sub:
		t.Fatalf("unexpected event %s for own write", event.Type)
	case <-time.After(watchDebounce * 5):
	}
}
