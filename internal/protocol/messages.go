package protocol

import (
	"time"

	"github.com/iudanet/itemsync/internal/models"
)

// Типы сообщений
const (
	TypePing = "ping"
	TypePong = "pong"

	TypeItemCreated = "item.created"
	TypeItemUpdated = "item.updated"
	TypeItemDeleted = "item.deleted"

	TypePresenceUpdate = "presence.update"
	TypePresenceJoin   = "presence.join"
	TypePresenceLeave  = "presence.leave"

	TypeEditingUpdate    = "item.editing.update"
	TypeEditingOperation = "item.editing.operation"
	TypeEditingRequest   = "item.editing.request"
	TypeEditingRelease   = "item.editing.release"
)

// Payload закрытое объединение полезных нагрузок.
// Конкретный тип определяется полем type конверта.
type Payload interface {
	isPayload()
}

// Envelope декодированное сообщение
type Envelope struct {
	Payload Payload
	Type    string
}

// Heartbeat нагрузка ping/pong
type Heartbeat struct {
	Timestamp int64 `json:"timestamp" validate:"gte=0"`
}

// ItemPayload полное представление элемента для item.created и item.updated
type ItemPayload struct {
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at" validate:"required"`
	ID        string    `json:"id" validate:"required,identifier"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Version   int64     `json:"version" validate:"gte=0"`
}

// ItemDeleted нагрузка item.deleted
type ItemDeleted struct {
	ID string `json:"id" validate:"required,identifier"`
}

// PresenceUpdate полный список зрителей элемента по данным сервера
type PresenceUpdate struct {
	ItemID  string   `json:"item_id" validate:"required,identifier"`
	Viewers []string `json:"viewers" validate:"dive,identifier"`
}

// EditingUpdate текущий редактор элемента; nil означает, что блокировка свободна
type EditingUpdate struct {
	Editor *string `json:"editor" validate:"omitempty,identifier"`
	ItemID string  `json:"item_id" validate:"required,identifier"`
}

// EditingOperation операция, выполненная редактором элемента
type EditingOperation struct {
	ItemID    string               `json:"item_id" validate:"required,identifier"`
	Peer      string               `json:"peer" validate:"required,identifier"`
	Operation models.EditOperation `json:"operation"`
}

// PresenceIntent намерение пира: join/leave просмотра, request/release блокировки
type PresenceIntent struct {
	ItemID string `json:"item_id" validate:"required,identifier"`
	Peer   string `json:"peer" validate:"required,identifier"`
}

func (Heartbeat) isPayload()        {}
func (ItemPayload) isPayload()      {}
func (ItemDeleted) isPayload()      {}
func (PresenceUpdate) isPayload()   {}
func (EditingUpdate) isPayload()    {}
func (EditingOperation) isPayload() {}
func (PresenceIntent) isPayload()   {}

// NewItemPayload формирует нагрузку из модели
func NewItemPayload(item *models.Item) ItemPayload {
	return ItemPayload{
		ID:        item.ID,
		Title:     item.Title,
		Content:   item.Content,
		CreatedAt: item.CreatedAt,
		UpdatedAt: item.UpdatedAt,
		Version:   item.Version,
	}
}

// ToItem конвертирует нагрузку в модель; элемент пришёл с сервера, поэтому он чистый
func (p ItemPayload) ToItem() *models.Item {
	return &models.Item{
		ID:        p.ID,
		Title:     p.Title,
		Content:   p.Content,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
		Version:   p.Version,
	}
}

// EditorOrEmpty возвращает редактора или пустую строку
func (p EditingUpdate) EditorOrEmpty() string {
	if p.Editor == nil {
		return ""
	}
	return *p.Editor
}
