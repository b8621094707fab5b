package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/iudanet/itemsync/internal/models"
)

var (
	// ErrNotFound сервер не знает элемент
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized токен отсутствует, просрочен или отвергнут сервером
	ErrUnauthorized = errors.New("unauthorized")

	// ErrConflict сервер хранит более новую версию элемента
	ErrConflict = errors.New("conflict")

	// ErrUnavailable circuit breaker разомкнут
	ErrUnavailable = errors.New("remote store unavailable")
)

// StatusError ответ сервера с неуспешным кодом
type StatusError struct {
	// Current версия элемента на сервере, приходит с 409
	Current    *models.Item
	Message    string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("server error (%d): %s", e.StatusCode, e.Message)
}

// Unwrap сопоставляет код ответа с sentinel-ошибками пакета
func (e *StatusError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrUnauthorized
	case http.StatusConflict:
		return ErrConflict
	}
	return nil
}

// ConflictCurrent возвращает серверную версию элемента из ошибки 409
func ConflictCurrent(err error) (*models.Item, bool) {
	var se *StatusError
	if !errors.As(err, &se) || se.StatusCode != http.StatusConflict || se.Current == nil {
		return nil, false
	}
	return se.Current.Clone(), true
}

// isClientError ошибка на стороне запроса: не считаем её сбоем сервера
func isClientError(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode >= 400 && se.StatusCode < 500
}
