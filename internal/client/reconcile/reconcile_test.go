package reconcile

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/itemsync/internal/client/storage"
	"github.com/iudanet/itemsync/internal/client/storage/boltdb"
	"github.com/iudanet/itemsync/internal/metrics"
	"github.com/iudanet/itemsync/internal/models"
)

var t0 = time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

func newTestEngine(t *testing.T) (*Engine, *boltdb.Storage, *metrics.Metrics) {
	t.Helper()
	store, err := boltdb.New(context.Background(), filepath.Join(t.TempDir(), "reconcile.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	m := metrics.New(prometheus.NewRegistry())
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(store, store, &sync.Mutex{}, logger, m), store, m
}

func TestApplyRemoteCreate_Inserts(t *testing.T) {
	ctx := context.Background()
	engine, store, _ := newTestEngine(t)

	var changed []*models.Item
	engine.OnItemChanged(func(item *models.Item) { changed = append(changed, item) })

	outcome, err := engine.ApplyRemoteCreate(ctx, &models.Item{ID: "srv-1", Title: "a", UpdatedAt: t0, NeedsSync: true})
	require.NoError(t, err)
	assert.Equal(t, OutcomeInserted, outcome)

	got, err := store.GetItem(ctx, "srv-1")
	require.NoError(t, err)
	// Элемент с сервера всегда чистый
	assert.False(t, got.NeedsSync)
	require.Len(t, changed, 1)
	assert.Equal(t, "srv-1", changed[0].ID)
}

func TestApplyRemoteCreate_RegeneratesCollidingLocalID(t *testing.T) {
	ctx := context.Background()
	engine, store, _ := newTestEngine(t)

	local := &models.Item{ID: "local-abc", Title: "mine", NeedsSync: true, UpdatedAt: t0}
	require.NoError(t, store.PutItem(ctx, local))
	require.NoError(t, store.PutChange(ctx, &models.PendingChange{Seq: "01", ItemID: "local-abc", Op: models.OpCreate, Item: local}))

	outcome, err := engine.ApplyRemoteCreate(ctx, &models.Item{ID: "local-abc", Title: "theirs", UpdatedAt: t0})
	require.NoError(t, err)
	assert.Equal(t, OutcomeRegenerated, outcome)

	items, err := store.ListItems(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)

	var mine *models.Item
	for _, it := range items {
		if it.ID != "local-abc" {
			mine = it
		}
	}
	require.NotNil(t, mine)
	assert.True(t, models.IsLocalID(mine.ID))
	assert.Equal(t, "mine", mine.Title)
	assert.True(t, mine.NeedsSync)

	// Отложенный create переехал на новый ID
	change, err := store.GetChange(ctx, mine.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OpCreate, change.Op)

	theirs, err := store.GetItem(ctx, "local-abc")
	require.NoError(t, err)
	assert.Equal(t, "theirs", theirs.Title)
	assert.False(t, theirs.NeedsSync)
}

func TestApplyRemoteUpdate(t *testing.T) {
	tests := []struct {
		local       *models.Item
		remote      *models.Item
		name        string
		wantTitle   string
		wantOutcome Outcome
	}{
		{
			name:        "absent inserts",
			remote:      &models.Item{ID: "srv-1", Title: "remote", UpdatedAt: t0},
			wantOutcome: OutcomeInserted,
			wantTitle:   "remote",
		},
		{
			name:        "clean and strictly newer applies",
			local:       &models.Item{ID: "srv-1", Title: "local", UpdatedAt: t0},
			remote:      &models.Item{ID: "srv-1", Title: "remote", UpdatedAt: t0.Add(time.Second)},
			wantOutcome: OutcomeUpdated,
			wantTitle:   "remote",
		},
		{
			name:        "clean and equal timestamp ignored",
			local:       &models.Item{ID: "srv-1", Title: "local", UpdatedAt: t0},
			remote:      &models.Item{ID: "srv-1", Title: "remote", UpdatedAt: t0},
			wantOutcome: OutcomeIgnored,
			wantTitle:   "local",
		},
		{
			name:        "clean and older ignored",
			local:       &models.Item{ID: "srv-1", Title: "local", UpdatedAt: t0},
			remote:      &models.Item{ID: "srv-1", Title: "remote", UpdatedAt: t0.Add(-time.Minute)},
			wantOutcome: OutcomeIgnored,
			wantTitle:   "local",
		},
		{
			name:        "dirty never clobbered even by newer",
			local:       &models.Item{ID: "srv-1", Title: "local", UpdatedAt: t0, NeedsSync: true},
			remote:      &models.Item{ID: "srv-1", Title: "remote", UpdatedAt: t0.Add(time.Hour)},
			wantOutcome: OutcomeIgnored,
			wantTitle:   "local",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			engine, store, m := newTestEngine(t)
			if tt.local != nil {
				require.NoError(t, store.PutItem(ctx, tt.local))
			}

			outcome, err := engine.ApplyRemoteUpdate(ctx, tt.remote)
			require.NoError(t, err)
			assert.Equal(t, tt.wantOutcome, outcome)

			got, err := store.GetItem(ctx, tt.remote.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.wantTitle, got.Title)
			assert.Equal(t, 1.0, testutil.ToFloat64(m.RemoteApplied.WithLabelValues(string(tt.wantOutcome))))
		})
	}
}

// Грязный элемент 7 изменён в T, пришло обновление с меткой T-10s
func TestApplyRemoteUpdate_StaleUpdateForDirtyItem(t *testing.T) {
	ctx := context.Background()
	engine, store, _ := newTestEngine(t)

	local := &models.Item{ID: "7", Title: "local edit", UpdatedAt: t0, NeedsSync: true}
	require.NoError(t, store.PutItem(ctx, local))

	outcome, err := engine.ApplyRemoteUpdate(ctx, &models.Item{ID: "7", Title: "stale", UpdatedAt: t0.Add(-10 * time.Second)})
	require.NoError(t, err)
	assert.Equal(t, OutcomeIgnored, outcome)

	got, err := store.GetItem(ctx, "7")
	require.NoError(t, err)
	assert.Equal(t, local, got)
}

// item.deleted для 9, пока в очереди лежит правка
func TestApplyRemoteDelete_DiscardsPendingEdit(t *testing.T) {
	ctx := context.Background()
	engine, store, _ := newTestEngine(t)

	item := &models.Item{ID: "9", Title: "edited", Content: "draft", NeedsSync: true}
	require.NoError(t, store.PutItem(ctx, item))
	require.NoError(t, store.PutChange(ctx, &models.PendingChange{Seq: "01", ItemID: "9", Op: models.OpUpdate, Item: item}))

	var removed []string
	engine.OnItemRemoved(func(id string) { removed = append(removed, id) })

	outcome, err := engine.ApplyRemoteDelete(ctx, "9")
	require.NoError(t, err)
	assert.Equal(t, OutcomeRemoved, outcome)
	assert.Equal(t, []string{"9"}, removed)

	_, err = store.GetItem(ctx, "9")
	assert.ErrorIs(t, err, storage.ErrItemNotFound)
	_, err = store.GetChange(ctx, "9")
	assert.ErrorIs(t, err, storage.ErrChangeNotFound)

	// Повторное удаление безвредно
	outcome, err = engine.ApplyRemoteDelete(ctx, "9")
	require.NoError(t, err)
	assert.Equal(t, OutcomeIgnored, outcome)
	assert.Len(t, removed, 1)
}

func TestApplyEditOperation(t *testing.T) {
	ctx := context.Background()
	engine, store, _ := newTestEngine(t)

	require.NoError(t, store.PutItem(ctx, &models.Item{ID: "srv-1", Content: "buy milk", UpdatedAt: t0}))
	require.NoError(t, store.PutItem(ctx, &models.Item{ID: "srv-2", Content: "mine", NeedsSync: true}))

	outcome, err := engine.ApplyEditOperation(ctx, "srv-1", models.EditOperation{Type: models.EditReplace, Position: 4, Length: 4, Text: "eggs"})
	require.NoError(t, err)
	assert.Equal(t, OutcomeUpdated, outcome)

	got, err := store.GetItem(ctx, "srv-1")
	require.NoError(t, err)
	assert.Equal(t, "buy eggs", got.Content)
	assert.Equal(t, t0, got.UpdatedAt.UTC())

	outcome, err = engine.ApplyEditOperation(ctx, "srv-2", models.EditOperation{Type: models.EditInsert, Position: 0, Text: "x"})
	require.NoError(t, err)
	assert.Equal(t, OutcomeIgnored, outcome)

	_, err = engine.ApplyEditOperation(ctx, "srv-1", models.EditOperation{Type: models.EditDelete, Position: 7, Length: 5})
	assert.ErrorIs(t, err, models.ErrOperationOutOfRange)

	_, err = engine.ApplyEditOperation(ctx, "missing", models.EditOperation{Type: models.EditInsert, Text: "x"})
	assert.ErrorIs(t, err, storage.ErrItemNotFound)
}

func TestRemoveMissing(t *testing.T) {
	ctx := context.Background()
	engine, store, _ := newTestEngine(t)

	require.NoError(t, store.PutItem(ctx, &models.Item{ID: "srv-1"}))
	require.NoError(t, store.PutItem(ctx, &models.Item{ID: "srv-2"}))
	require.NoError(t, store.PutItem(ctx, &models.Item{ID: "srv-3", NeedsSync: true}))
	require.NoError(t, store.PutItem(ctx, &models.Item{ID: "local-4", NeedsSync: true}))

	removed, err := engine.RemoveMissing(ctx, map[string]struct{}{"srv-1": {}})
	require.NoError(t, err)
	assert.Equal(t, []string{"srv-2"}, removed)

	items, err := store.ListItems(ctx)
	require.NoError(t, err)
	assert.Len(t, items, 3)
}
