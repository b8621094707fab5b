package protocol

import (
	"errors"
	"fmt"
)

// Причины отказа декодирования
var (
	// ErrMalformedFrame кадр не является JSON-конвертом
	ErrMalformedFrame = errors.New("malformed frame")

	// ErrInvalidType поле type не соответствует формату namespaced типа
	ErrInvalidType = errors.New("invalid message type")

	// ErrMissingPayload payload отсутствует или равен null
	ErrMissingPayload = errors.New("missing payload")

	// ErrUnknownType тип сообщения не поддерживается
	ErrUnknownType = errors.New("unknown message type")

	// ErrInvalidPayload payload не проходит проверку формы
	ErrInvalidPayload = errors.New("invalid payload")
)

// DecodeError описывает отвергнутый входящий кадр.
// Reason всегда один из sentinel-ошибок пакета, Err содержит детали.
type DecodeError struct {
	Reason error
	Err    error
	Type   string
}

func (e *DecodeError) Error() string {
	msg := e.Reason.Error()
	if e.Type != "" {
		msg = fmt.Sprintf("%s (type %q)", msg, e.Type)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *DecodeError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Reason}
	}
	return []error{e.Reason, e.Err}
}

// ReasonLabel короткая метка причины для логов и метрик
func ReasonLabel(err error) string {
	switch {
	case errors.Is(err, ErrMalformedFrame):
		return "malformed"
	case errors.Is(err, ErrInvalidType):
		return "invalid_type"
	case errors.Is(err, ErrMissingPayload):
		return "missing_payload"
	case errors.Is(err, ErrUnknownType):
		return "unknown_type"
	case errors.Is(err, ErrInvalidPayload):
		return "invalid_payload"
	default:
		return "other"
	}
}
