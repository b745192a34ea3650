package devstore_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nuitsjp/teams-board/internal/storage"
	"github.com/nuitsjp/teams-board/internal/storage/devstore"
)

func newStore(t *testing.T) *devstore.Store {
	t.Helper()
	store, err := devstore.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestWriteReadRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	require.NoError(t, store.Write(ctx, "data/index.json", []byte(`{"version":1}`), storage.ContentTypeJSON))

	got, err := store.Read(ctx, "data/index.json")
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"version":1}`), got)
}

func TestWriteOverwritesExisting(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	require.NoError(t, store.Write(ctx, "a", []byte("old"), "text/csv"))
	require.NoError(t, store.Write(ctx, "a", []byte("new"), "text/csv"))

	got, err := store.Read(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, []byte("new"), got)
}

func TestReadMissingObject(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	_, err := store.Read(ctx, "data/sessions/missing/0.json")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
