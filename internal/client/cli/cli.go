package cli

import (
	"context"

	"github.com/iudanet/itemsync/internal/client/data"
	"github.com/iudanet/itemsync/internal/client/iocli"
	"github.com/iudanet/itemsync/internal/client/presence"
	"github.com/iudanet/itemsync/internal/client/storage"
	"github.com/iudanet/itemsync/internal/client/sync"
	"github.com/iudanet/itemsync/internal/models"
)

//go:generate moq -out items_mock.go . Items
//go:generate moq -out authenticator_mock.go . Authenticator

// Items локальные операции над элементами
type Items interface {
	CreateItem(ctx context.Context, title, content string) (*models.Item, error)
	UpdateItem(ctx context.Context, id string, patch data.Patch) (*models.Item, error)
	DeleteItem(ctx context.Context, id string) error
	GetItem(ctx context.Context, id string) (*models.Item, error)
	ListItems(ctx context.Context) ([]*models.Item, error)
	PendingCount(ctx context.Context) (int, error)
}

// Authenticator хранение учетных данных
type Authenticator interface {
	Login(ctx context.Context, token, serverURL string) (*storage.AuthData, error)
	Current(ctx context.Context) (*storage.AuthData, error)
	Logout(ctx context.Context) error
}

// Events события работающего движка синхронизации
type Events interface {
	OnItemChanged(fn func(item *models.Item))
	OnItemRemoved(fn func(id string))
	OnPresenceChanged(fn func(presence.Change))
	OnLockLost(fn func(presence.LockLost))
	OnSyncStateChanged(fn func(sync.Status))
}

type Cli struct {
	io    iocli.IO
	items Items
	auth  Authenticator
	meta  storage.MetadataStorage
}

func New(io iocli.IO, items Items, auth Authenticator, meta storage.MetadataStorage) *Cli {
	return &Cli{
		io:    io,
		items: items,
		auth:  auth,
		meta:  meta,
	}
}
