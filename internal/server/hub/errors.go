package hub

import "errors"

var (
	// ErrMissingToken запрос на подключение без токена
	ErrMissingToken = errors.New("missing token")

	// ErrHubClosed хаб остановлен и новые сессии не принимает
	ErrHubClosed = errors.New("hub closed")
)
