package storage

import (
	"context"
	"time"
)

//go:generate moq -out metadata_mock.go . MetadataStorage

// MetadataStorage defines interface for storing client metadata
type MetadataStorage interface {
	// SaveLastSyncTime saves the time of the last successful full sync
	SaveLastSyncTime(ctx context.Context, t time.Time) error

	// GetLastSyncTime retrieves the time of the last successful full sync
	// Returns zero time if no sync has been performed yet
	GetLastSyncTime(ctx context.Context) (time.Time, error)

	// SavePeerID persists the identity this client uses for presence
	SavePeerID(ctx context.Context, peerID string) error

	// GetPeerID returns the persisted peer identity or an empty string
	GetPeerID(ctx context.Context) (string, error)
}
