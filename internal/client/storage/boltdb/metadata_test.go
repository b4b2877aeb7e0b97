package boltdb

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStorage_LastSyncTimestamp(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	t.Run("never synced", func(t *testing.T) {
		ts, err := store.GetLastSyncTimestamp(ctx, "folder")
		require.NoError(t, err)
		assert.Equal(t, int64(0), ts)
	})

	t.Run("save and get", func(t *testing.T) {
		require.NoError(t, store.SaveLastSyncTimestamp(ctx, "folder", 1700000000000))

		ts, err := store.GetLastSyncTimestamp(ctx, "folder")
		require.NoError(t, err)
		assert.Equal(t, int64(1700000000000), ts)
	})

	t.Run("overwrite", func(t *testing.T) {
		require.NoError(t, store.SaveLastSyncTimestamp(ctx, "folder", 1700000005000))

		ts, err := store.GetLastSyncTimestamp(ctx, "folder")
		require.NoError(t, err)
		assert.Equal(t, int64(1700000005000), ts)
	})

	t.Run("backends are independent", func(t *testing.T) {
		require.NoError(t, store.SaveLastSyncTimestamp(ctx, "s3", 42))

		all, err := store.LastSyncTimestamps(ctx)
		require.NoError(t, err)
		assert.Equal(t, map[string]int64{"folder": 1700000005000, "s3": 42}, all)
	})
}

func TestStorage_LastSyncTimestampClosed(t *testing.T) {
	store, _ := createTestStorage(t)
	require.NoError(t, store.Close())

	_, err := store.GetLastSyncTimestamp(context.Background(), "folder")
	assert.Error(t, err)
	assert.Error(t, store.SaveLastSyncTimestamp(context.Background(), "folder", 1))
}
