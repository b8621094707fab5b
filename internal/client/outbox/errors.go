package outbox

import "errors"

var (
	// ErrItemDeleted элемент ожидает удаления, изменять его нельзя
	ErrItemDeleted = errors.New("item is pending deletion")

	// ErrInvalidOp неизвестная операция
	ErrInvalidOp = errors.New("invalid change operation")

	// ErrStopped change log остановлен
	ErrStopped = errors.New("change log stopped")
)
