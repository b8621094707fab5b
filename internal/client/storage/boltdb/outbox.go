package boltdb

import (
	"context"
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/iudanet/itemsync/internal/client/storage"
	"github.com/iudanet/itemsync/internal/models"
)

// PutChange stores a pending change keyed by its Seq.
// If the item already has a change under a different Seq, the old one is removed.
func (s *Storage) PutChange(ctx context.Context, change *models.PendingChange) error {
	if change == nil || change.Seq == "" || change.ItemID == "" {
		return fmt.Errorf("change without seq or item id")
	}

	return s.update(func(tx *bbolt.Tx) error {
		return putChange(tx, change)
	})
}

// GetChange returns the pending change for an item
func (s *Storage) GetChange(ctx context.Context, itemID string) (*models.PendingChange, error) {
	var change *models.PendingChange

	err := s.view(func(tx *bbolt.Tx) error {
		var err error
		change, err = getChange(tx, itemID)
		return err
	})
	if err != nil {
		return nil, err
	}

	return change, nil
}

// DeleteChange removes the pending change for an item
func (s *Storage) DeleteChange(ctx context.Context, itemID string) error {
	return s.update(func(tx *bbolt.Tx) error {
		return deleteChange(tx, itemID)
	})
}

// ListChanges returns pending changes ordered by Seq.
// ULID keys sort lexicographically in creation order, so cursor order is FIFO.
func (s *Storage) ListChanges(ctx context.Context) ([]*models.PendingChange, error) {
	changes := make([]*models.PendingChange, 0)

	err := s.view(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketOutbox).ForEach(func(k, v []byte) error {
			change := &models.PendingChange{}
			if err := json.Unmarshal(v, change); err != nil {
				return fmt.Errorf("failed to unmarshal change %s: %w", k, err)
			}
			changes = append(changes, change)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	return changes, nil
}

// CountChanges returns the number of pending changes
func (s *Storage) CountChanges(ctx context.Context) (int, error) {
	var count int

	err := s.view(func(tx *bbolt.Tx) error {
		count = tx.Bucket(bucketOutbox).Stats().KeyN
		return nil
	})
	if err != nil {
		return 0, err
	}

	return count, nil
}

func getChange(tx *bbolt.Tx, itemID string) (*models.PendingChange, error) {
	seq := tx.Bucket(bucketOutboxIndex).Get([]byte(itemID))
	if seq == nil {
		return nil, storage.ErrChangeNotFound
	}

	data := tx.Bucket(bucketOutbox).Get(seq)
	if data == nil {
		return nil, storage.ErrChangeNotFound
	}

	change := &models.PendingChange{}
	if err := json.Unmarshal(data, change); err != nil {
		return nil, fmt.Errorf("failed to unmarshal change: %w", err)
	}
	return change, nil
}

func putChange(tx *bbolt.Tx, change *models.PendingChange) error {
	index := tx.Bucket(bucketOutboxIndex)
	outbox := tx.Bucket(bucketOutbox)

	// Одна запись на элемент: старый seq удаляем
	if prev := index.Get([]byte(change.ItemID)); prev != nil && string(prev) != change.Seq {
		if err := outbox.Delete(prev); err != nil {
			return fmt.Errorf("failed to delete previous change: %w", err)
		}
	}

	data, err := json.Marshal(change)
	if err != nil {
		return fmt.Errorf("failed to marshal change: %w", err)
	}
	if err := outbox.Put([]byte(change.Seq), data); err != nil {
		return fmt.Errorf("failed to save change: %w", err)
	}
	if err := index.Put([]byte(change.ItemID), []byte(change.Seq)); err != nil {
		return fmt.Errorf("failed to save change index: %w", err)
	}
	return nil
}

func deleteChange(tx *bbolt.Tx, itemID string) error {
	index := tx.Bucket(bucketOutboxIndex)

	seq := index.Get([]byte(itemID))
	if seq == nil {
		return nil
	}
	// seq указывает на память транзакции, копируем перед удалением
	key := append([]byte(nil), seq...)

	if err := tx.Bucket(bucketOutbox).Delete(key); err != nil {
		return fmt.Errorf("failed to delete change: %w", err)
	}
	if err := index.Delete([]byte(itemID)); err != nil {
		return fmt.Errorf("failed to delete change index: %w", err)
	}
	return nil
}
