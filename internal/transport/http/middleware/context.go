package middleware

import (
	"context"

	"github.com/google/uuid"
)

// ctxKey — приватный тип ключей контекста, чтобы не пересекаться с чужими.
type ctxKey int

const (
	ctxRequestID ctxKey = iota
	ctxCaller
)

// Caller — личность вызывающего из проверенного access-токена.
type Caller struct {
	AccountID  uuid.UUID
	HolderName string
}

// RequestIDFrom возвращает request id из контекста (пустая строка, если нет).
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(ctxRequestID).(string)
	return id
}

// CallerFrom возвращает личность вызывающего и признак её наличия.
// Заполняется мидлваром RequireAuth.
func CallerFrom(ctx context.Context) (Caller, bool) {
	c, ok := ctx.Value(ctxCaller).(Caller)
	return c, ok
}
