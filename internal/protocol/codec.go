package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/go-playground/validator/v10"

	"github.com/iudanet/itemsync/internal/models"
	"github.com/iudanet/itemsync/internal/validation"
)

// TypePattern формат поля type: сегменты из латинских букв и цифр, разделённые точкой
var TypePattern = regexp.MustCompile(`^[a-zA-Z0-9]+(\.[a-zA-Z0-9]+)*$`)

var nullPayload = []byte("null")

type wireEnvelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type outEnvelope struct {
	Type    string  `json:"type"`
	Payload Payload `json:"payload"`
}

// Codec кодирует и декодирует конверты протокола.
// Безопасен для конкурентного использования.
type Codec struct {
	validate *validator.Validate
}

// NewCodec создает кодек
func NewCodec() *Codec {
	v := validation.NewValidator()
	v.RegisterStructValidation(validateEditOperation, models.EditOperation{})
	return &Codec{validate: v}
}

// validateEditOperation delete и replace должны затрагивать хотя бы один символ
func validateEditOperation(sl validator.StructLevel) {
	op := sl.Current().Interface().(models.EditOperation)
	if (op.Type == models.EditDelete || op.Type == models.EditReplace) && op.Length == 0 {
		sl.ReportError(op.Length, "length", "Length", "gt", "0")
	}
}

// Encode сериализует сообщение. Нагрузка проверяется теми же правилами,
// что и при декодировании, поэтому кодек не выпускает кадр, который сам бы отверг.
func (c *Codec) Encode(msgType string, payload Payload) ([]byte, error) {
	if !TypePattern.MatchString(msgType) {
		return nil, fmt.Errorf("failed to encode %q: %w", msgType, ErrInvalidType)
	}
	if payload == nil {
		return nil, fmt.Errorf("failed to encode %q: %w", msgType, ErrMissingPayload)
	}
	if !payloadMatches(msgType, payload) {
		return nil, fmt.Errorf("failed to encode %q with %T: %w", msgType, payload, ErrInvalidPayload)
	}
	if err := c.validate.Struct(payload); err != nil {
		return nil, fmt.Errorf("failed to encode %q: %w: %v", msgType, ErrInvalidPayload, err)
	}

	data, err := json.Marshal(outEnvelope{Type: msgType, Payload: payload})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal envelope: %w", err)
	}
	return data, nil
}

// Decode разбирает входящий кадр. Любой отказ возвращается как *DecodeError.
func (c *Codec) Decode(frame []byte) (Envelope, error) {
	var wire wireEnvelope
	if err := json.Unmarshal(frame, &wire); err != nil {
		return Envelope{}, &DecodeError{Reason: ErrMalformedFrame, Err: err}
	}

	if !TypePattern.MatchString(wire.Type) {
		return Envelope{}, &DecodeError{Reason: ErrInvalidType, Type: wire.Type}
	}

	raw := bytes.TrimSpace(wire.Payload)
	if len(raw) == 0 || bytes.Equal(raw, nullPayload) {
		return Envelope{}, &DecodeError{Reason: ErrMissingPayload, Type: wire.Type}
	}

	var (
		payload Payload
		err     error
	)

	switch wire.Type {
	case TypePing, TypePong:
		payload, err = decodeAs[Heartbeat](c, raw)
	case TypeItemCreated, TypeItemUpdated:
		payload, err = decodeAs[ItemPayload](c, raw)
	case TypeItemDeleted:
		payload, err = decodeAs[ItemDeleted](c, raw)
	case TypePresenceUpdate:
		payload, err = decodeAs[PresenceUpdate](c, raw)
	case TypeEditingUpdate:
		payload, err = decodeAs[EditingUpdate](c, raw)
	case TypeEditingOperation:
		payload, err = decodeAs[EditingOperation](c, raw)
	case TypePresenceJoin, TypePresenceLeave, TypeEditingRequest, TypeEditingRelease:
		payload, err = decodeAs[PresenceIntent](c, raw)
	default:
		return Envelope{}, &DecodeError{Reason: ErrUnknownType, Type: wire.Type}
	}

	if err != nil {
		return Envelope{}, &DecodeError{Reason: ErrInvalidPayload, Type: wire.Type, Err: err}
	}

	return Envelope{Type: wire.Type, Payload: payload}, nil
}

func decodeAs[T Payload](c *Codec, raw json.RawMessage) (Payload, error) {
	var p T
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, err
	}
	if err := c.validate.Struct(p); err != nil {
		return nil, err
	}
	return p, nil
}

// payloadMatches проверяет, что тип нагрузки соответствует типу сообщения
func payloadMatches(msgType string, payload Payload) bool {
	switch payload.(type) {
	case Heartbeat:
		return msgType == TypePing || msgType == TypePong
	case ItemPayload:
		return msgType == TypeItemCreated || msgType == TypeItemUpdated
	case ItemDeleted:
		return msgType == TypeItemDeleted
	case PresenceUpdate:
		return msgType == TypePresenceUpdate
	case EditingUpdate:
		return msgType == TypeEditingUpdate
	case EditingOperation:
		return msgType == TypeEditingOperation
	case PresenceIntent:
		switch msgType {
		case TypePresenceJoin, TypePresenceLeave, TypeEditingRequest, TypeEditingRelease:
			return true
		}
	}
	return false
}
