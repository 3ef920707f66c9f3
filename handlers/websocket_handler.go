package handlers

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/Dosada05/speech-ballots/live"
	"github.com/Dosada05/speech-ballots/services"
)

type WebSocketHandler struct {
	hub               *live.Hub
	tournamentService services.TournamentService
	upgrader          websocket.Upgrader
	logger            *slog.Logger
}

// NewWebSocketHandler принимает соединения только с Origin фронтенда (или без Origin).
func NewWebSocketHandler(hub *live.Hub, ts services.TournamentService, frontendURL string, logger *slog.Logger) *WebSocketHandler {
	allowed := originOf(frontendURL)
	return &WebSocketHandler{
		hub:               hub,
		tournamentService: ts,
		logger:            logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || strings.EqualFold(origin, allowed)
			},
		},
	}
}

func originOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return raw
	}
	return u.Scheme + "://" + u.Host
}

// ServeWs godoc
// @Summary Лента отправленных бюллетеней турнира (WebSocket)
// @Description Браузер не может передать заголовок, поэтому сессия принимается и в ?session=.
// @Tags admin
// @Param id path string true "Tournament ID"
// @Param session query string false "Admin session ID"
// @Failure 401 {object} map[string]string "Нет сессии"
// @Failure 404 {object} map[string]string "Турнир не найден"
// @Security AdminSession
// @Router /admin/ws/tournaments/{id} [get]
func (h *WebSocketHandler) ServeWs(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if _, err := h.tournamentService.Get(r.Context(), id); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade сам отвечает клиенту
		h.logger.Warn("failed to upgrade websocket connection", slog.String("tournament_id", id), slog.Any("error", err))
		return
	}

	client := live.NewClient(h.hub, conn, live.TournamentRoom(id))
	if !h.hub.Join(client) {
		conn.Close()
		return
	}

	go client.WritePump()
	go client.ReadPump()
}
