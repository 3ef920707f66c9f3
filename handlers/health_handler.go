package handlers

import (
	"context"
	"net/http"
	"time"
)

// Pinger - то, что умеет проверить соединение с БД (*sql.DB).
type Pinger interface {
	PingContext(ctx context.Context) error
}

type HealthHandler struct {
	db Pinger
}

func NewHealthHandler(db Pinger) *HealthHandler {
	return &HealthHandler{db: db}
}

// Health godoc
// @Summary Проверка живости сервиса и БД
// @Tags misc
// @Produce json
// @Success 200 {object} map[string]interface{} "status ok"
// @Failure 503 {object} map[string]interface{} "БД недоступна"
// @Router /health [get]
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status, code := "ok", http.StatusOK
	if h.db != nil {
		if err := h.db.PingContext(ctx); err != nil {
			status, code = "degraded", http.StatusServiceUnavailable
		}
	}

	response := jsonResponse{"status": status, "timestamp": time.Now().UTC()}
	if err := writeJSON(w, code, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
