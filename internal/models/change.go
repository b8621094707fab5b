package models

import "time"

// ChangeOp тип отложенной операции
type ChangeOp string

const (
	OpCreate ChangeOp = "create"
	OpUpdate ChangeOp = "update"
	OpDelete ChangeOp = "delete"
)

// Valid проверяет, что операция известна
func (o ChangeOp) Valid() bool {
	switch o {
	case OpCreate, OpUpdate, OpDelete:
		return true
	}
	return false
}

// PendingChange запись outbox: локальная мутация, ещё не подтверждённая сервером.
// На каждый элемент приходится не более одной записи.
type PendingChange struct {
	EnqueuedAt time.Time `json:"enqueued_at"`          // EnqueuedAt время первой постановки в очередь
	Item       *Item     `json:"item"`                 // Item последний снимок элемента
	Seq        string    `json:"seq"`                  // Seq ULID, задаёт FIFO порядок
	ItemID     string    `json:"item_id"`              // ItemID идентификатор элемента
	Op         ChangeOp  `json:"op"`                   // Op операция
	LastError  string    `json:"last_error,omitempty"` // LastError текст последней ошибки отправки
	Attempts   int       `json:"attempts"`             // Attempts количество неудачных попыток
	Revision   int64     `json:"revision"`             // Revision растёт при каждом слиянии
}

// Clone создает глубокую копию записи
func (c *PendingChange) Clone() *PendingChange {
	if c == nil {
		return nil
	}
	out := *c
	out.Item = c.Item.Clone()
	return &out
}
