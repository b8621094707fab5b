package storage

import "errors"

// Common client storage errors
var (
	// ErrAuthNotFound indicates that no authentication data exists
	ErrAuthNotFound = errors.New("authentication data not found")

	// ErrItemNotFound indicates that item was not found
	ErrItemNotFound = errors.New("item not found")

	// ErrChangeNotFound indicates that no pending change exists for the item
	ErrChangeNotFound = errors.New("pending change not found")

	// ErrItemExists indicates that an item with the target ID already exists
	ErrItemExists = errors.New("item already exists")

	// ErrStorageClosed indicates that storage is closed
	ErrStorageClosed = errors.New("storage is closed")
)
