package boltdb

import (
	"context"
	"encoding/binary"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

var (
	keyLastSyncTime = []byte("last_sync_time")
	keyPeerID       = []byte("peer_id")
)

// SaveLastSyncTime saves the time of the last successful full sync
func (s *Storage) SaveLastSyncTime(ctx context.Context, t time.Time) error {
	return s.update(func(tx *bbolt.Tx) error {
		// Храним unix nano в big endian
		buf := make([]byte, 8)
		binary.BigEndian.PutUint64(buf, uint64(t.UnixNano()))

		if err := tx.Bucket(bucketMetadata).Put(keyLastSyncTime, buf); err != nil {
			return fmt.Errorf("failed to save last sync time: %w", err)
		}
		return nil
	})
}

// GetLastSyncTime retrieves the time of the last successful full sync
// Returns zero time if no sync has been performed yet
func (s *Storage) GetLastSyncTime(ctx context.Context) (time.Time, error) {
	var t time.Time

	err := s.view(func(tx *bbolt.Tx) error {
		buf := tx.Bucket(bucketMetadata).Get(keyLastSyncTime)
		if len(buf) != 8 {
			// Синхронизации ещё не было
			return nil
		}
		t = time.Unix(0, int64(binary.BigEndian.Uint64(buf)))
		return nil
	})
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to get last sync time: %w", err)
	}

	return t, nil
}

// SavePeerID persists the peer identity
func (s *Storage) SavePeerID(ctx context.Context, peerID string) error {
	return s.update(func(tx *bbolt.Tx) error {
		if err := tx.Bucket(bucketMetadata).Put(keyPeerID, []byte(peerID)); err != nil {
			return fmt.Errorf("failed to save peer id: %w", err)
		}
		return nil
	})
}

// GetPeerID returns the persisted peer identity or an empty string
func (s *Storage) GetPeerID(ctx context.Context) (string, error) {
	var peerID string

	err := s.view(func(tx *bbolt.Tx) error {
		peerID = string(tx.Bucket(bucketMetadata).Get(keyPeerID))
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to get peer id: %w", err)
	}

	return peerID, nil
}
