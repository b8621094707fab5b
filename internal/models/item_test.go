package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestItem_IsNewerThan(t *testing.T) {
	base := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		self     *Item
		other    *Item
		name     string
		expected bool
	}{
		{
			name:     "self updated later",
			self:     &Item{UpdatedAt: base.Add(time.Second)},
			other:    &Item{UpdatedAt: base},
			expected: true,
		},
		{
			name:     "self updated earlier",
			self:     &Item{UpdatedAt: base.Add(-10 * time.Second)},
			other:    &Item{UpdatedAt: base},
			expected: false,
		},
		{
			name:     "equal timestamps are not newer",
			self:     &Item{UpdatedAt: base},
			other:    &Item{UpdatedAt: base},
			expected: false,
		},
		{
			name:     "nil other",
			self:     &Item{UpdatedAt: base},
			other:    nil,
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.self.IsNewerThan(tt.other))
		})
	}
}

func TestItem_Clone(t *testing.T) {
	original := &Item{ID: "srv-1", Title: "Groceries", Content: "milk", NeedsSync: true}

	clone := original.Clone()
	require.NotNil(t, clone)
	assert.Equal(t, original, clone)

	// Изменение копии не затрагивает оригинал
	clone.Title = "changed"
	assert.Equal(t, "Groceries", original.Title)

	var nilItem *Item
	assert.Nil(t, nilItem.Clone())
}

func TestLocalID(t *testing.T) {
	id := NewLocalID()
	assert.True(t, IsLocalID(id))
	assert.NotEqual(t, id, NewLocalID())

	assert.True(t, IsLocalID("local-42"))
	assert.False(t, IsLocalID("srv-99"))
	assert.False(t, IsLocalID(""))
}

func TestPendingChange_Clone(t *testing.T) {
	change := &PendingChange{
		Seq:    "01HZ",
		ItemID: "local-1",
		Op:     OpCreate,
		Item:   &Item{ID: "local-1", Title: "a"},
	}

	clone := change.Clone()
	clone.Item.Title = "b"
	assert.Equal(t, "a", change.Item.Title)
	assert.True(t, OpCreate.Valid())
	assert.False(t, ChangeOp("upsert").Valid())
}
