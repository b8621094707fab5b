package storage

import (
	"context"

	"github.com/iudanet/itemsync/internal/models"
)

//go:generate moq -out outboxstorage_mock.go . OutboxStorage

// OutboxStorage defines durable storage for pending changes.
// At most one change exists per item.
type OutboxStorage interface {
	// PutChange stores a change, replacing any change for the same item
	PutChange(ctx context.Context, change *models.PendingChange) error

	// GetChange returns the pending change for an item
	// Returns ErrChangeNotFound if there is none
	GetChange(ctx context.Context, itemID string) (*models.PendingChange, error)

	// DeleteChange removes the pending change for an item; missing is not an error
	DeleteChange(ctx context.Context, itemID string) error

	// ListChanges returns all pending changes in FIFO (Seq) order
	ListChanges(ctx context.Context) ([]*models.PendingChange, error)

	// CountChanges returns the number of pending changes
	CountChanges(ctx context.Context) (int, error)
}
