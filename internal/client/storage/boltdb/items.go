package boltdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/iudanet/itemsync/internal/client/storage"
	"github.com/iudanet/itemsync/internal/models"
)

// GetItem retrieves an item by ID
func (s *Storage) GetItem(ctx context.Context, id string) (*models.Item, error) {
	var item *models.Item

	err := s.view(func(tx *bbolt.Tx) error {
		var err error
		item, err = getItem(tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	return item, nil
}

// PutItem stores or replaces an item
func (s *Storage) PutItem(ctx context.Context, item *models.Item) error {
	if item == nil || item.ID == "" {
		return fmt.Errorf("item without id")
	}

	return s.update(func(tx *bbolt.Tx) error {
		return putItem(tx, item)
	})
}

// DeleteItem removes an item by ID
func (s *Storage) DeleteItem(ctx context.Context, id string) error {
	return s.update(func(tx *bbolt.Tx) error {
		if err := tx.Bucket(bucketItems).Delete([]byte(id)); err != nil {
			return fmt.Errorf("failed to delete item: %w", err)
		}
		return nil
	})
}

// ListItems returns all stored items ordered by ID
func (s *Storage) ListItems(ctx context.Context) ([]*models.Item, error) {
	return s.listItems(func(*models.Item) bool { return true })
}

// ListDirty returns items that need to be synced
func (s *Storage) ListDirty(ctx context.Context) ([]*models.Item, error) {
	return s.listItems(func(item *models.Item) bool { return item.NeedsSync })
}

func (s *Storage) listItems(filter func(*models.Item) bool) ([]*models.Item, error) {
	items := make([]*models.Item, 0)

	err := s.view(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketItems).ForEach(func(k, v []byte) error {
			item := &models.Item{}
			if err := json.Unmarshal(v, item); err != nil {
				return fmt.Errorf("failed to unmarshal item %s: %w", k, err)
			}
			if filter(item) {
				items = append(items, item)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	return items, nil
}

// MutateItem applies fn to the current item state inside one write transaction
func (s *Storage) MutateItem(ctx context.Context, id string, fn func(item *models.Item) (*models.Item, error)) error {
	return s.update(func(tx *bbolt.Tx) error {
		current, err := getItem(tx, id)
		if err != nil && !errors.Is(err, storage.ErrItemNotFound) {
			return err
		}

		next, err := fn(current)
		if err != nil {
			return err
		}

		// nil означает удаление
		if next == nil {
			return tx.Bucket(bucketItems).Delete([]byte(id))
		}
		if next.ID != id {
			return fmt.Errorf("mutate must not change item id (%s -> %s)", id, next.ID)
		}
		return putItem(tx, next)
	})
}

// RemapItem re-keys an item and its pending change in one transaction
func (s *Storage) RemapItem(ctx context.Context, oldID string, item *models.Item) error {
	if item == nil || item.ID == "" {
		return fmt.Errorf("item without id")
	}

	return s.update(func(tx *bbolt.Tx) error {
		items := tx.Bucket(bucketItems)

		if oldID != item.ID && items.Get([]byte(item.ID)) != nil {
			return fmt.Errorf("remap %s -> %s: %w", oldID, item.ID, storage.ErrItemExists)
		}

		if err := items.Delete([]byte(oldID)); err != nil {
			return fmt.Errorf("failed to delete old item: %w", err)
		}
		if err := putItem(tx, item); err != nil {
			return err
		}

		// Переносим отложенное изменение, если оно есть
		change, err := getChange(tx, oldID)
		if errors.Is(err, storage.ErrChangeNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := deleteChange(tx, oldID); err != nil {
			return err
		}
		change.ItemID = item.ID
		if change.Item != nil {
			change.Item.ID = item.ID
		}
		return putChange(tx, change)
	})
}

func getItem(tx *bbolt.Tx, id string) (*models.Item, error) {
	data := tx.Bucket(bucketItems).Get([]byte(id))
	if data == nil {
		return nil, storage.ErrItemNotFound
	}

	item := &models.Item{}
	if err := json.Unmarshal(data, item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal item: %w", err)
	}
	return item, nil
}

func putItem(tx *bbolt.Tx, item *models.Item) error {
	data, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("failed to marshal item: %w", err)
	}
	if err := tx.Bucket(bucketItems).Put([]byte(item.ID), data); err != nil {
		return fmt.Errorf("failed to save item: %w", err)
	}
	return nil
}
