package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := Open("  ")
	require.Error(t, err)
}

func TestStoreLoadMissingKey(t *testing.T) {
	store := openTestStore(t)

	value, ok, err := store.Load(context.Background(), "catalog:products")
	require.NoError(t, err)
	require.False(t, ok)
	require.Nil(t, value)
}

func TestStoreSaveOverwritesAndRemove(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	require.NoError(t, store.Save(ctx, "k", []byte("first")))
	require.NoError(t, store.Save(ctx, "k", []byte("second")))

	value, ok, err := store.Load(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "second", string(value))

	require.NoError(t, store.Remove(ctx, "k"))
	_, ok, err = store.Load(ctx, "k")
	require.NoError(t, err)
	require.False(t, ok)

	// removing again is a no-op
	require.NoError(t, store.Remove(ctx, "k"))
}

func TestStoreSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "cache.db")

	store, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, "k", []byte(`{"version":"v2"}`)))
	require.NoError(t, store.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	value, ok, err := reopened.Load(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	require.JSONEq(t, `{"version":"v2"}`, string(value))
}

func TestNilStoreReportsNotConfigured(t *testing.T) {
	var store *Store
	_, _, err := store.Load(context.Background(), "k")
	require.Error(t, err)
	require.NoError(t, store.Close())
}
