package storage

import (
	"context"

	"github.com/iudanet/itemsync/internal/models"
)

//go:generate moq -out itemstorage_mock.go . ItemStorage

// ItemStorage defines interface for server-side item persistence.
// Every item belongs to exactly one owner (token subject).
type ItemStorage interface {
	// CreateItem stores a new item and assigns its ID.
	// A repeated create with the same non-empty clientID returns the item created first.
	CreateItem(ctx context.Context, owner, clientID string, item *models.Item) (*models.Item, error)

	// UpdateItem replaces title and content when item.UpdatedAt is strictly newer
	// than the stored one. Otherwise returns *ConflictError carrying the stored item.
	// Returns ErrItemNotFound if the item doesn't exist
	UpdateItem(ctx context.Context, owner string, item *models.Item) (*models.Item, error)

	// DeleteItem removes the item
	// Returns ErrItemNotFound if the item doesn't exist
	DeleteItem(ctx context.Context, owner, id string) error

	// GetItem retrieves a single item
	GetItem(ctx context.Context, owner, id string) (*models.Item, error)

	// ListItems returns up to limit items ordered by ID, starting after cursor.
	// next is empty on the last page.
	ListItems(ctx context.Context, owner, cursor string, limit int) (items []*models.Item, next string, err error)
}
