package handlers

import "context"

// contextKey тип для ключей контекста
type contextKey string

// OwnerKey ключ для хранения владельца коллекции в контексте
const OwnerKey contextKey = "owner"

// WithOwner возвращает контекст с владельцем коллекции
func WithOwner(ctx context.Context, owner string) context.Context {
	return context.WithValue(ctx, OwnerKey, owner)
}

// GetOwner извлекает владельца коллекции из контекста запроса
func GetOwner(ctx context.Context) (string, bool) {
	owner, ok := ctx.Value(OwnerKey).(string)
	return owner, ok && owner != ""
}
