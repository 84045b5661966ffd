package notes

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistrySelectAndActive(t *testing.T) {
	registry := NewRegistry()

	_, err := registry.Active()
	assert.ErrorIs(t, err, ErrStoreUnavailable)

	store, err := registry.Open(Config{Backend: BackendMemory})
	require.NoError(t, err)
	assert.Equal(t, BackendMemory, registry.Name())

	active, err := registry.Active()
	require.NoError(t, err)
	assert.Same(t, store, active)
}

func TestRegistryRejectsSecondSelect(t *testing.T) {
	registry := NewRegistry()
	_, err := registry.Open(Config{Backend: BackendMemory})
	require.NoError(t, err)

	// Same name or different name: both fail while one is active.
	_, err = registry.Open(Config{Backend: BackendMemory})
	assert.ErrorIs(t, err, ErrAlreadySelected)
	_, err = registry.Open(Config{Backend: BackendFilesystem, Root: t.TempDir()})
	assert.ErrorIs(t, err, ErrAlreadySelected)
}

func TestRegistryCloseClearsSingleton(t *testing.T) {
	ctx := context.Background()
	registry := NewRegistry()
	store, err := registry.Open(Config{Backend: BackendMemory})
	require.NoError(t, err)

	require.NoError(t, registry.Close())
	require.NoError(t, registry.Close(), "close must be idempotent")

	_, err = registry.Active()
	assert.ErrorIs(t, err, ErrStoreUnavailable)
	assert.Empty(t, registry.Name())

	// The closed store refuses further work rather than recreating state.
	_, err = store.Read(ctx, "abc")
	assert.ErrorIs(t, err, ErrStoreClosed)

	// A new store may be selected after close.
	_, err = registry.Open(Config{Backend: BackendBolt, Path: t.TempDir() + "/notes.db"})
	require.NoError(t, err)
	require.NoError(t, registry.Close())
}

func TestRegistryConstructionFailureLeavesNothingVisible(t *testing.T) {
	registry := NewRegistry()

	_, err := registry.Open(Config{Backend: "postgres"})
	assert.ErrorIs(t, err, ErrStoreUnavailable)

	_, err = registry.Open(Config{Backend: BackendFilesystem, Root: ""})
	assert.ErrorIs(t, err, ErrStoreUnavailable)

	_, err = registry.Active()
	assert.ErrorIs(t, err, ErrStoreUnavailable)

	// The registry can still select a working backend afterwards.
	_, err = registry.Open(Config{Backend: BackendMemory})
	require.NoError(t, err)
	require.NoError(t, registry.Close())
}
