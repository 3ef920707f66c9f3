package middleware

import (
	"context"
	"net/http"
)

// SessionValidator проверяет id админской сессии.
type SessionValidator interface {
	Validate(ctx context.Context, sessionID string) error
}

// RequireAdmin пропускает запрос только с действующей админской сессией.
func RequireAdmin(validator SessionValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sessionID := SessionIDFromRequest(r)
			if sessionID == "" {
				writeError(w, http.StatusUnauthorized, "Authentication required")
				return
			}

			if err := validator.Validate(r.Context(), sessionID); err != nil {
				writeError(w, http.StatusUnauthorized, "Session expired or invalid")
				return
			}

			ctx := context.WithValue(r.Context(), sessionContextKey, sessionID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
