package api

import (
	"context"

	"github.com/iudanet/itemsync/internal/models"
)

//go:generate moq -out remotestore_mock.go . RemoteStore TokenSource

// RemoteStore authoritative item store on the server
type RemoteStore interface {
	// ListItems returns one page of items; an empty next cursor means the last page
	ListItems(ctx context.Context, cursor string, limit int) ([]*models.Item, string, error)

	// CreateItem creates an item and returns it with the server-assigned ID
	CreateItem(ctx context.Context, item *models.Item) (*models.Item, error)

	// UpdateItem sends the full item snapshot
	UpdateItem(ctx context.Context, item *models.Item) (*models.Item, error)

	// DeleteItem removes an item. Returns ErrNotFound if the server doesn't have it
	DeleteItem(ctx context.Context, id string) error
}

// TokenSource выдает bearer токен для запросов
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}
