package auth

import "errors"

var (
	// ErrNotAuthenticated токен не сохранен
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrTokenExpired срок действия сохраненного токена истек
	ErrTokenExpired = errors.New("token expired")
	// ErrInvalidToken токен не является JWT
	ErrInvalidToken = errors.New("invalid token")
)
