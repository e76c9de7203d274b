package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/pribylovaa/go-banking-service/internal/service"
	"github.com/pribylovaa/go-banking-service/internal/transport/http/httperr"
)

// TokenValidator проверяет access-токен и возвращает владельца.
// В проде это *service.Service; в тестах — стаб.
type TokenValidator interface {
	ValidateToken(ctx context.Context, accessToken string) (uuid.UUID, string, error)
}

// bearerToken извлекает Bearer-токен из Authorization.
// Пустая строка, если заголовка нет или формат не тот.
func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(auth, prefix) || len(auth) == len(prefix) {
		return ""
	}

	return strings.TrimSpace(auth[len(prefix):])
}

// RequireAuth проверяет Bearer-токен через validator и кладёт личность
// вызывающего (Caller) в контекст. Запрос без токена или с невалидным
// токеном отклоняется с 401 до хендлера.
func RequireAuth(validator TokenValidator) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				httperr.WriteError(w, r, service.ErrInvalidToken)
				return
			}

			accountID, holderName, err := validator.ValidateToken(r.Context(), token)
			if err != nil {
				httperr.WriteError(w, r, err)
				return
			}

			caller := Caller{AccountID: accountID, HolderName: holderName}
			ctx := context.WithValue(r.Context(), ctxCaller, caller)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
