package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// LocalIDPrefix префикс временных идентификаторов, которые клиент выдаёт
// элементам до подтверждения сервером.
const LocalIDPrefix = "local-"

// Item представляет синхронизируемый элемент коллекции пользователя.
// Локально для каждого ID существует ровно один авторитетный Item.
type Item struct {
	CreatedAt time.Time `json:"created_at"` // CreatedAt время создания
	UpdatedAt time.Time `json:"updated_at"` // UpdatedAt время последнего изменения, используется для LWW
	ID        string    `json:"id"`         // ID серверный идентификатор либо временный local-*
	Title     string    `json:"title"`      // Title заголовок
	Content   string    `json:"content"`    // Content тело элемента
	Version   int64     `json:"version"`    // Version версия, выданная сервером (информативно)
	NeedsSync bool      `json:"needs_sync"` // NeedsSync есть локальные изменения, не подтверждённые сервером
	Tombstone bool      `json:"tombstone"`  // Tombstone локально удалён, удаление ещё не подтверждено
}

// NewLocalID генерирует новый временный идентификатор
func NewLocalID() string {
	return LocalIDPrefix + uuid.NewString()
}

// IsLocalID сообщает, что идентификатор временный и сервер его ещё не знает
func IsLocalID(id string) bool {
	return strings.HasPrefix(id, LocalIDPrefix)
}

// IsNewerThan сообщает, что элемент строго новее other по UpdatedAt.
// Равные метки не считаются более новыми: при равенстве побеждает существующая версия.
func (i *Item) IsNewerThan(other *Item) bool {
	if other == nil {
		return true
	}
	return i.UpdatedAt.After(other.UpdatedAt)
}

// Clone создает копию элемента
func (i *Item) Clone() *Item {
	if i == nil {
		return nil
	}
	c := *i
	return &c
}
