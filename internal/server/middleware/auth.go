package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/iudanet/fitsync/internal/server/handlers"
)

// AuthMiddleware создает middleware для проверки JWT токена
func AuthMiddleware(logger *slog.Logger, jwtConfig handlers.JWTConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				logger.Warn("Missing Authorization header", "path", r.URL.Path)
				handlers.WriteError(w, http.StatusUnauthorized, "unauthorized: missing token")
				return
			}

			// Ожидаем формат: "Bearer <token>"
			scheme, token, found := strings.Cut(authHeader, " ")
			if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
				logger.Warn("Invalid Authorization header format")
				handlers.WriteError(w, http.StatusUnauthorized, "unauthorized: invalid token format")
				return
			}

			claims, err := handlers.ValidateAccessToken(jwtConfig, strings.TrimSpace(token))
			if err != nil {
				logger.Warn("Invalid access token", "error", err)
				handlers.WriteError(w, http.StatusUnauthorized, "unauthorized: invalid token")
				return
			}

			logger.Debug("User authenticated", "user_id", claims.UserID)
			next.ServeHTTP(w, r.WithContext(handlers.WithUserID(r.Context(), claims.UserID)))
		})
	}
}
