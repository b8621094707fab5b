package connection

import "errors"

var (
	// ErrNotConnected Send вызван вне состояния connected
	ErrNotConnected = errors.New("not connected")
	// ErrUnauthorized сервер отверг учетные данные при установке соединения
	ErrUnauthorized = errors.New("unauthorized")
	// ErrReconnectExhausted исчерпаны попытки переподключения
	ErrReconnectExhausted = errors.New("reconnect attempts exhausted")
	// ErrServerClosed сервер штатно закрыл соединение (код 1000)
	ErrServerClosed = errors.New("server closed connection")
	// ErrHeartbeatTimeout не получен pong на предыдущий ping
	ErrHeartbeatTimeout = errors.New("heartbeat timeout")
	// ErrClosed менеджер закрыт
	ErrClosed = errors.New("connection manager closed")
)
