package storage

import (
	"context"

	"github.com/iudanet/itemsync/internal/models"
)

//go:generate moq -out itemstorage_mock.go . ItemStorage

// ItemStorage defines the local key-addressable item store
type ItemStorage interface {
	// GetItem retrieves an item by ID
	// Returns ErrItemNotFound if item doesn't exist
	GetItem(ctx context.Context, id string) (*models.Item, error)

	// PutItem stores or replaces an item
	PutItem(ctx context.Context, item *models.Item) error

	// DeleteItem removes an item; deleting a missing item is not an error
	DeleteItem(ctx context.Context, id string) error

	// ListItems returns all items including tombstones, ordered by ID
	ListItems(ctx context.Context) ([]*models.Item, error)

	// ListDirty returns items with NeedsSync set
	ListDirty(ctx context.Context) ([]*models.Item, error)

	// MutateItem reads, modifies and writes an item in one transaction.
	// fn receives nil if the item doesn't exist; returning nil deletes the item.
	MutateItem(ctx context.Context, id string, fn func(item *models.Item) (*models.Item, error)) error

	// RemapItem moves the item stored under oldID to item.ID together with its
	// pending change, if any. Returns ErrItemExists if item.ID is taken.
	RemapItem(ctx context.Context, oldID string, item *models.Item) error
}
