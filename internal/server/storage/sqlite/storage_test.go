package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/itemsync/internal/models"
)

func TestNew_ReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "reopen.db")

	s, err := New(ctx, path)
	require.NoError(t, err)

	created, err := s.CreateItem(ctx, "alice", "", &models.Item{Title: "kept", UpdatedAt: time.Now().UTC()})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	// Повторный запуск миграций не должен ничего ломать
	s, err = New(ctx, path)
	require.NoError(t, err)
	defer s.Close()

	got, err := s.GetItem(ctx, "alice", created.ID)
	require.NoError(t, err)
	assert.Equal(t, "kept", got.Title)
}

func TestNew_InvalidPath(t *testing.T) {
	_, err := New(context.Background(), filepath.Join(t.TempDir(), "missing", "dir", "x.db"))
	require.Error(t, err)
}
