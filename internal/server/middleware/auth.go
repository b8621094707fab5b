package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/iudanet/itemsync/internal/server/handlers"
	"github.com/iudanet/itemsync/internal/server/jwt"
)

//go:generate moq -out token_validator_mock.go . TokenValidator

// TokenValidator проверяет токен доступа
type TokenValidator interface {
	Validate(token string) (*jwt.Claims, error)
}

// Auth создает middleware для проверки Bearer токена.
// Владелец коллекции (subject токена) кладется в контекст запроса.
func Auth(logger *slog.Logger, tokens TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				logger.Warn("Missing Authorization header", "path", r.URL.Path)
				writeError(w, "missing token", http.StatusUnauthorized)
				return
			}

			// Ожидаем формат: "Bearer <token>"
			scheme, token, ok := strings.Cut(authHeader, " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
				logger.Warn("Invalid Authorization header format")
				writeError(w, "invalid token format", http.StatusUnauthorized)
				return
			}

			claims, err := tokens.Validate(strings.TrimSpace(token))
			if err != nil {
				logger.Warn("Invalid access token", "error", err)
				writeError(w, "invalid token", http.StatusUnauthorized)
				return
			}

			logger.Debug("Request authenticated", "owner", claims.Owner())
			next.ServeHTTP(w, r.WithContext(handlers.WithOwner(r.Context(), claims.Owner())))
		})
	}
}
