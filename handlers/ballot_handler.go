package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/Dosada05/speech-ballots/models"
	"github.com/Dosada05/speech-ballots/repositories"
	"github.com/Dosada05/speech-ballots/services"
)

type BallotHandler struct {
	ballotService services.BallotService
}

func NewBallotHandler(bs services.BallotService) *BallotHandler {
	return &BallotHandler{
		ballotService: bs,
	}
}

// SaveDraft godoc
// @Summary Сохранить черновик бюллетеня
// @Description Создаёт или перезаписывает открытый черновик для (deviceId, competitorId, eventTypeId). Оценки не проверяются.
// @Tags ballots
// @Accept json
// @Produce json
// @Param input body services.BallotInput true "Поля бюллетеня"
// @Success 200 {object} map[string]interface{} "success, ballotId, savedAt"
// @Failure 400 {object} map[string]string "Не хватает идентификаторов"
// @Failure 404 {object} map[string]string "Нет активного турнира"
// @Router /api/ballots/draft [post]
func (h *BallotHandler) SaveDraft(w http.ResponseWriter, r *http.Request) {
	var input services.BallotInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	meta := models.RequestMeta{
		IPAddress: clientIP(r),
		UserAgent: r.UserAgent(),
	}
	saved, err := h.ballotService.SaveDraft(r.Context(), input, meta)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{
		"success":  true,
		"ballotId": saved.BallotID,
		"savedAt":  saved.SavedAt,
	}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetDraft godoc
// @Summary Получить открытый черновик
// @Tags ballots
// @Produce json
// @Param deviceId query string true "Device ID"
// @Param competitorId query string true "Competitor ID"
// @Param eventTypeId query int true "Event type ID"
// @Success 200 {object} services.DraftLookup
// @Failure 400 {object} map[string]string "Не хватает параметров"
// @Router /api/ballots/draft [get]
func (h *BallotHandler) GetDraft(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	key := models.DraftKey{
		DeviceID:     query.Get("deviceId"),
		CompetitorID: query.Get("competitorId"),
	}
	if raw := query.Get("eventTypeId"); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil || id <= 0 {
			badRequestResponse(w, r, errors.New("invalid eventTypeId query parameter"))
			return
		}
		key.EventTypeID = id
	}

	lookup, err := h.ballotService.GetDraft(r.Context(), key)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, lookup, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Submit godoc
// @Summary Отправить бюллетень
// @Description Проверяет все пять оценок (1..5) и место (1..5), затем переводит черновик в submitted или создаёт новый бюллетень.
// @Tags ballots
// @Accept json
// @Produce json
// @Param input body services.BallotInput true "Поля бюллетеня"
// @Success 200 {object} map[string]interface{} "success, ballotId, message"
// @Failure 400 {object} map[string]string "Ошибка валидации"
// @Failure 404 {object} map[string]string "Нет активного турнира"
// @Failure 409 {object} map[string]string "Бюллетень уже отправлен"
// @Router /api/ballots/submit [post]
func (h *BallotHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var input services.BallotInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	meta := models.RequestMeta{
		IPAddress: clientIP(r),
		UserAgent: r.UserAgent(),
	}
	ballot, err := h.ballotService.Submit(r.Context(), input, meta)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{
		"success":  true,
		"ballotId": ballot.ID,
		"message":  "Ballot submitted successfully!",
	}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// PDF godoc
// @Summary PDF бюллетеня (не реализовано)
// @Tags ballots
// @Produce json
// @Param id path string true "Ballot ID"
// @Failure 501 {object} map[string]string "Не реализовано"
// @Router /api/ballots/{id}/pdf [get]
func (h *BallotHandler) PDF(w http.ResponseWriter, r *http.Request) {
	errorResponse(w, r, http.StatusNotImplemented, "PDF generation not implemented yet")
}

// List godoc
// @Summary Список бюллетеней (админ)
// @Tags admin
// @Produce json
// @Param tournamentId query string false "Tournament ID"
// @Param status query string false "draft | submitted"
// @Success 200 {array} models.Ballot
// @Failure 400 {object} map[string]string "Неверный статус"
// @Failure 401 {object} map[string]string "Нет сессии"
// @Security AdminSession
// @Router /admin/ballots [get]
func (h *BallotHandler) List(w http.ResponseWriter, r *http.Request) {
	var filter repositories.ListBallotsFilter
	query := r.URL.Query()

	if tournamentID := strings.TrimSpace(query.Get("tournamentId")); tournamentID != "" {
		filter.TournamentID = &tournamentID
	}
	if statusStr := query.Get("status"); statusStr != "" {
		status := models.BallotStatus(statusStr)
		if !status.Valid() {
			badRequestResponse(w, r, errors.New("invalid status query parameter"))
			return
		}
		filter.Status = &status
	}

	ballots, err := h.ballotService.ListBallots(r.Context(), filter)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if ballots == nil {
		ballots = []models.Ballot{}
	}

	if err := writeJSON(w, http.StatusOK, ballots, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
