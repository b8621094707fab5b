package storage

import (
	"errors"

	"github.com/iudanet/itemsync/internal/models"
)

// Common storage errors
var (
	// ErrItemNotFound indicates that item was not found for this owner
	ErrItemNotFound = errors.New("item not found")

	// ErrStaleUpdate indicates that the stored item is not older than the update
	ErrStaleUpdate = errors.New("stale update")
)

// ConflictError отказ LWW: хранимая версия не старше присланной
type ConflictError struct {
	Current *models.Item
}

func (e *ConflictError) Error() string {
	return "stale update: item " + e.Current.ID + " has a newer or equal version"
}

func (e *ConflictError) Unwrap() error {
	return ErrStaleUpdate
}
