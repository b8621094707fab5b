package jwt

import "errors"

var (
	// ErrInvalidToken токен не прошел проверку подписи, срока или формата
	ErrInvalidToken = errors.New("invalid token")

	// ErrEmptySubject токен без владельца не выпускается
	ErrEmptySubject = errors.New("empty subject")
)
