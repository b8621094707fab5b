package data

import "errors"

var (
	// ErrTitleTooLong заголовок длиннее MaxTitleLength символов
	ErrTitleTooLong = errors.New("title too long")
	// ErrItemDeleted элемент ожидает удаления и не может быть изменен
	ErrItemDeleted = errors.New("item is deleted")
)
