package connection

import "context"

//go:generate moq -out dialer_mock.go . Dialer

// Dialer устанавливает соединение с сервером
type Dialer interface {
	// Dial возвращает ErrUnauthorized, если сервер отверг credential
	Dial(ctx context.Context, credential string) (Transport, error)
}

// Transport двунаправленный канал кадров.
// ReadMessage вызывается только из одной горутины; запись сериализует Manager.
type Transport interface {
	ReadMessage() ([]byte, error)
	WriteMessage(data []byte) error
	// Close отправляет кадр штатного закрытия и освобождает соединение; идемпотентен
	Close(reason string) error
}
