package boltdb

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStorage_LastSyncTime(t *testing.T) {
	ctx := context.Background()
	store := newTestStorage(t)

	// До первой синхронизации возвращается нулевое время
	got, err := store.GetLastSyncTime(ctx)
	require.NoError(t, err)
	assert.True(t, got.IsZero())

	now := time.Date(2025, 3, 1, 10, 30, 0, 123, time.UTC)
	require.NoError(t, store.SaveLastSyncTime(ctx, now))

	got, err = store.GetLastSyncTime(ctx)
	require.NoError(t, err)
	assert.True(t, now.Equal(got))
}

func TestStorage_PeerID(t *testing.T) {
	ctx := context.Background()
	store := newTestStorage(t)

	peerID, err := store.GetPeerID(ctx)
	require.NoError(t, err)
	assert.Empty(t, peerID)

	require.NoError(t, store.SavePeerID(ctx, "alice-laptop"))

	peerID, err = store.GetPeerID(ctx)
	require.NoError(t, err)
	assert.Equal(t, "alice-laptop", peerID)
}
