package handlers

import (
	"net/http"
	"strings"

	"github.com/Dosada05/speech-ballots/models"
	"github.com/Dosada05/speech-ballots/services"
)

type CompetitorHandler struct {
	competitorService services.CompetitorService
}

func NewCompetitorHandler(cs services.CompetitorService) *CompetitorHandler {
	return &CompetitorHandler{
		competitorService: cs,
	}
}

// List godoc
// @Summary Участники турнира
// @Tags admin
// @Produce json
// @Param tournamentId query string true "Tournament ID"
// @Success 200 {array} models.Competitor
// @Failure 400 {object} map[string]string "Нет tournamentId"
// @Security AdminSession
// @Router /admin/competitors [get]
func (h *CompetitorHandler) List(w http.ResponseWriter, r *http.Request) {
	tournamentID := strings.TrimSpace(r.URL.Query().Get("tournamentId"))
	if tournamentID == "" {
		errorResponse(w, r, http.StatusBadRequest, "tournamentId is required")
		return
	}

	competitors, err := h.competitorService.ListByTournament(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if competitors == nil {
		competitors = []models.Competitor{}
	}

	if err := writeJSON(w, http.StatusOK, competitors, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Create godoc
// @Summary Добавить участника
// @Tags admin
// @Accept json
// @Produce json
// @Param input body services.CompetitorInput true "Участник"
// @Success 200 {object} map[string]interface{} "success, competitor"
// @Failure 400 {object} map[string]string "Ошибка валидации"
// @Failure 409 {object} map[string]string "Email уже занят в турнире"
// @Security AdminSession
// @Router /admin/competitors [post]
func (h *CompetitorHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input services.CompetitorInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	competitor, err := h.competitorService.Create(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"success": true, "competitor": competitor}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Update godoc
// @Summary Изменить участника
// @Tags admin
// @Accept json
// @Produce json
// @Param id path string true "Competitor ID"
// @Param input body services.CompetitorInput true "Имя и email"
// @Success 200 {object} map[string]interface{} "success, competitor"
// @Failure 404 {object} map[string]string "Не найден"
// @Security AdminSession
// @Router /admin/competitors/{id} [put]
func (h *CompetitorHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.CompetitorInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	competitor, err := h.competitorService.Update(r.Context(), id, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"success": true, "competitor": competitor}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Delete godoc
// @Summary Удалить участника вместе с его бюллетенями
// @Tags admin
// @Produce json
// @Param id path string true "Competitor ID"
// @Success 200 {object} map[string]interface{} "success"
// @Failure 404 {object} map[string]string "Не найден"
// @Security AdminSession
// @Router /admin/competitors/{id} [delete]
func (h *CompetitorHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.competitorService.Delete(r.Context(), id); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"success": true}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ResendLink godoc
// @Summary Повторно отправить ссылку участнику
// @Tags admin
// @Produce json
// @Param id path string true "Competitor ID"
// @Success 200 {object} map[string]interface{} "success, message"
// @Failure 404 {object} map[string]string "Не найден"
// @Security AdminSession
// @Router /admin/competitors/{id}/resend [post]
func (h *CompetitorHandler) ResendLink(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.competitorService.ResendLink(r.Context(), id); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"success": true, "message": "Magic link resent"}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
