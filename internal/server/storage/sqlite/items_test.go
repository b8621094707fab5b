package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/itemsync/internal/models"
	"github.com/iudanet/itemsync/internal/server/storage"
)

var t0 = time.Date(2025, 1, 1, 12, 0, 0, 123_000_000, time.UTC)

func setupTestStorage(t *testing.T) *Storage {
	t.Helper()
	s, err := New(context.Background(), filepath.Join(t.TempDir(), "server.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStorage_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	s := setupTestStorage(t)

	created, err := s.CreateItem(ctx, "alice", "local-42", &models.Item{Title: "Groceries", Content: "milk", UpdatedAt: t0})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.False(t, models.IsLocalID(created.ID))
	assert.Equal(t, int64(1), created.Version)
	assert.Equal(t, t0, created.CreatedAt)

	got, err := s.GetItem(ctx, "alice", created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, got)

	// Чужой владелец элемент не видит
	_, err = s.GetItem(ctx, "bob", created.ID)
	assert.ErrorIs(t, err, storage.ErrItemNotFound)
}

func TestStorage_CreateIsIdempotentByClientID(t *testing.T) {
	ctx := context.Background()
	s := setupTestStorage(t)

	first, err := s.CreateItem(ctx, "alice", "local-42", &models.Item{Title: "a", UpdatedAt: t0})
	require.NoError(t, err)
	again, err := s.CreateItem(ctx, "alice", "local-42", &models.Item{Title: "a", UpdatedAt: t0})
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)

	// Тот же client_id у другого владельца независим
	other, err := s.CreateItem(ctx, "bob", "local-42", &models.Item{Title: "b", UpdatedAt: t0})
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, other.ID)

	// Без client_id каждый create новый
	x, err := s.CreateItem(ctx, "alice", "", &models.Item{UpdatedAt: t0})
	require.NoError(t, err)
	y, err := s.CreateItem(ctx, "alice", "", &models.Item{UpdatedAt: t0})
	require.NoError(t, err)
	assert.NotEqual(t, x.ID, y.ID)
}

func TestStorage_UpdateItem_LastWriterWins(t *testing.T) {
	tests := []struct {
		name      string
		updatedAt time.Time
		wantTitle string
		wantErr   bool
	}{
		{name: "newer applies", updatedAt: t0.Add(time.Millisecond), wantTitle: "new"},
		{name: "equal rejected", updatedAt: t0, wantTitle: "old", wantErr: true},
		{name: "older rejected", updatedAt: t0.Add(-time.Hour), wantTitle: "old", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			s := setupTestStorage(t)

			created, err := s.CreateItem(ctx, "alice", "", &models.Item{Title: "old", UpdatedAt: t0})
			require.NoError(t, err)

			updated, err := s.UpdateItem(ctx, "alice", &models.Item{ID: created.ID, Title: "new", UpdatedAt: tt.updatedAt})
			if tt.wantErr {
				var conflict *storage.ConflictError
				require.ErrorAs(t, err, &conflict)
				assert.ErrorIs(t, err, storage.ErrStaleUpdate)
				assert.Equal(t, "old", conflict.Current.Title)
			} else {
				require.NoError(t, err)
				assert.Equal(t, int64(2), updated.Version)
			}

			got, err := s.GetItem(ctx, "alice", created.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.wantTitle, got.Title)
		})
	}
}

func TestStorage_UpdateMissing(t *testing.T) {
	s := setupTestStorage(t)
	_, err := s.UpdateItem(context.Background(), "alice", &models.Item{ID: "nope", UpdatedAt: t0})
	assert.ErrorIs(t, err, storage.ErrItemNotFound)
}

func TestStorage_DeleteItem(t *testing.T) {
	ctx := context.Background()
	s := setupTestStorage(t)

	created, err := s.CreateItem(ctx, "alice", "", &models.Item{UpdatedAt: t0})
	require.NoError(t, err)

	assert.ErrorIs(t, s.DeleteItem(ctx, "bob", created.ID), storage.ErrItemNotFound)
	require.NoError(t, s.DeleteItem(ctx, "alice", created.ID))
	assert.ErrorIs(t, s.DeleteItem(ctx, "alice", created.ID), storage.ErrItemNotFound)
}

func TestStorage_ListItemsPages(t *testing.T) {
	ctx := context.Background()
	s := setupTestStorage(t)

	var ids []string
	for i := 0; i < 5; i++ {
		it, err := s.CreateItem(ctx, "alice", "", &models.Item{UpdatedAt: t0})
		require.NoError(t, err)
		ids = append(ids, it.ID)
	}
	_, err := s.CreateItem(ctx, "bob", "", &models.Item{UpdatedAt: t0})
	require.NoError(t, err)

	var seen []string
	cursor := ""
	pages := 0
	for {
		page, next, err := s.ListItems(ctx, "alice", cursor, 2)
		require.NoError(t, err)
		pages++
		for _, it := range page {
			seen = append(seen, it.ID)
		}
		if next == "" {
			break
		}
		cursor = next
	}

	assert.Equal(t, 3, pages)
	assert.ElementsMatch(t, ids, seen)
	assert.IsIncreasing(t, seen)
}

func TestStorage_Ping(t *testing.T) {
	s := setupTestStorage(t)
	assert.NoError(t, s.Ping(context.Background()))
}
