package api

import "time"

// Item представление элемента в REST API
type Item struct {
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Version   int64     `json:"version"`
}

// ItemRequest тело запроса на создание или обновление элемента
type ItemRequest struct {
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at" validate:"required"`
	Title     string    `json:"title" validate:"max=512"`
	Content   string    `json:"content"`
	// ClientID временный идентификатор клиента; повторный create с тем же ClientID
	// возвращает уже созданный элемент
	ClientID string `json:"client_id,omitempty" validate:"omitempty,identifier"`
}

// ListItemsResponse страница списка элементов
type ListItemsResponse struct {
	NextCursor string `json:"next_cursor,omitempty"` // пусто на последней странице
	Items      []Item `json:"items"`
}
