package models

import (
	"errors"
	"fmt"
)

// EditOpType тип операции совместного редактирования
type EditOpType string

const (
	EditInsert  EditOpType = "insert"
	EditDelete  EditOpType = "delete"
	EditReplace EditOpType = "replace"
)

// ErrOperationOutOfRange позиция или длина операции выходят за границы текста
var ErrOperationOutOfRange = errors.New("edit operation out of range")

// EditOperation операция над содержимым элемента.
// Position и Length считаются в символах (рунах), не в байтах.
type EditOperation struct {
	Type     EditOpType `json:"type" validate:"required,oneof=insert delete replace"`
	Text     string     `json:"text,omitempty"`
	Position int        `json:"position" validate:"gte=0"`
	Length   int        `json:"length,omitempty" validate:"gte=0"`
}

// Apply применяет операцию к content и возвращает новый текст
func (op EditOperation) Apply(content string) (string, error) {
	runes := []rune(content)
	if op.Position < 0 || op.Position > len(runes) || op.Length < 0 {
		return "", fmt.Errorf("%w: position %d, length %d, size %d", ErrOperationOutOfRange, op.Position, op.Length, len(runes))
	}

	switch op.Type {
	case EditInsert:
		out := make([]rune, 0, len(runes)+len(op.Text))
		out = append(out, runes[:op.Position]...)
		out = append(out, []rune(op.Text)...)
		out = append(out, runes[op.Position:]...)
		return string(out), nil
	case EditDelete, EditReplace:
		end := op.Position + op.Length
		if end > len(runes) {
			return "", fmt.Errorf("%w: position %d, length %d, size %d", ErrOperationOutOfRange, op.Position, op.Length, len(runes))
		}
		out := make([]rune, 0, len(runes))
		out = append(out, runes[:op.Position]...)
		if op.Type == EditReplace {
			out = append(out, []rune(op.Text)...)
		}
		out = append(out, runes[end:]...)
		return string(out), nil
	default:
		return "", fmt.Errorf("unknown edit operation type %q", op.Type)
	}
}
