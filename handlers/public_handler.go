package handlers

import (
	"net/http"

	"github.com/Dosada05/speech-ballots/services"
)

// PublicHandler - эндпоинты экрана судьи, доступные без входа.
type PublicHandler struct {
	tournamentService services.TournamentService
	competitorService services.CompetitorService
	eventTypeService  services.EventTypeService
}

func NewPublicHandler(ts services.TournamentService, cs services.CompetitorService, es services.EventTypeService) *PublicHandler {
	return &PublicHandler{
		tournamentService: ts,
		competitorService: cs,
		eventTypeService:  es,
	}
}

// Status godoc
// @Summary Есть ли сейчас активный турнир
// @Tags public
// @Produce json
// @Success 200 {object} services.TournamentStatusView
// @Failure 500 {object} map[string]string "Внутренняя ошибка"
// @Router /api/status [get]
func (h *PublicHandler) Status(w http.ResponseWriter, r *http.Request) {
	view, err := h.tournamentService.Status(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, view, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Competitors godoc
// @Summary Участники активного турнира
// @Tags public
// @Produce json
// @Success 200 {object} services.Roster
// @Failure 404 {object} map[string]string "Нет активного турнира"
// @Router /api/competitors [get]
func (h *PublicHandler) Competitors(w http.ResponseWriter, r *http.Request) {
	roster, err := h.competitorService.ActiveRoster(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, roster, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// EventTypes godoc
// @Summary Справочник видов выступлений с рубриками
// @Tags public
// @Produce json
// @Success 200 {array} models.EventType
// @Router /api/event-types [get]
func (h *PublicHandler) EventTypes(w http.ResponseWriter, r *http.Request) {
	eventTypes, err := h.eventTypeService.List(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, eventTypes, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
