package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
)

type contextKey string

const sessionContextKey contextKey = "admin_session"

const (
	SessionHeader     = "X-Session-Id"
	sessionQueryParam = "session"
)

// SessionIDFromRequest достаёт id сессии из заголовка X-Session-Id.
// Браузерный WebSocket не умеет слать заголовки, поэтому есть запасной ?session=.
func SessionIDFromRequest(r *http.Request) string {
	if id := strings.TrimSpace(r.Header.Get(SessionHeader)); id != "" {
		return id
	}
	return strings.TrimSpace(r.URL.Query().Get(sessionQueryParam))
}

// GetSessionIDFromContext возвращает id сессии, проверенной RequireAdmin.
func GetSessionIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(sessionContextKey).(string)
	return id, ok && id != ""
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
