package handlers

import "context"

// contextKey тип ключей контекста запроса
type contextKey string

// UserIDKey ключ user_id, который кладет auth middleware
const UserIDKey contextKey = "user_id"

// WithUserID возвращает контекст с user_id
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, UserIDKey, userID)
}

// GetUserID извлекает user_id из контекста
func GetUserID(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(UserIDKey).(string)
	return userID, ok && userID != ""
}
