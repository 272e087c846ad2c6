package indexer

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFileCheckpointStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state", "checkpoint.json")
	store := NewFileCheckpointStore(path, true)

	_, ok, err := store.Load(ctx)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, store.Save(ctx, 1234))

	version, ok, err := store.Load(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint64(1234), version)

	_, err = os.Stat(path + ".tmp")
	require.True(t, os.IsNotExist(err))
}

func TestFileCheckpointStoreDisabled(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "checkpoint.json")
	store := NewFileCheckpointStore(path, false)

	require.NoError(t, store.Save(ctx, 10))
	_, err := os.Stat(path)
	require.True(t, os.IsNotExist(err))

	_, ok, err := store.Load(ctx)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestFileCheckpointStoreCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "checkpoint.json")
	require.NoError(t, os.WriteFile(path, []byte("{"), 0o644))

	_, _, err := NewFileCheckpointStore(path, true).Load(context.Background())
	require.Error(t, err)
}
