package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/Dosada05/speech-ballots/models"
	"github.com/Dosada05/speech-ballots/services"
)

type TournamentHandler struct {
	tournamentService services.TournamentService
	competitorService services.CompetitorService
	rankingService    services.RankingService
}

func NewTournamentHandler(ts services.TournamentService, cs services.CompetitorService, rs services.RankingService) *TournamentHandler {
	return &TournamentHandler{
		tournamentService: ts,
		competitorService: cs,
		rankingService:    rs,
	}
}

// dispatchResponse собирает ответ рассылки; errors отдаётся, только если есть.
func dispatchResponse(d services.LinkDispatch) jsonResponse {
	response := jsonResponse{
		"success":          true,
		"emailsSent":       d.EmailsSent,
		"totalCompetitors": d.TotalCompetitors,
	}
	if len(d.Errors) > 0 {
		response["errors"] = d.Errors
	}
	return response
}

// List godoc
// @Summary Все турниры, новые первыми
// @Tags admin
// @Produce json
// @Success 200 {array} models.Tournament
// @Security AdminSession
// @Router /admin/tournaments [get]
func (h *TournamentHandler) List(w http.ResponseWriter, r *http.Request) {
	tournaments, err := h.tournamentService.List(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if tournaments == nil {
		tournaments = []models.Tournament{}
	}

	if err := writeJSON(w, http.StatusOK, tournaments, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Create godoc
// @Summary Создать турнир
// @Description Текущий активный турнир закрывается в той же транзакции.
// @Tags admin
// @Accept json
// @Produce json
// @Param input body services.CreateTournamentInput true "Название и дата"
// @Success 200 {object} map[string]interface{} "success, tournament"
// @Failure 400 {object} map[string]string "Ошибка валидации"
// @Security AdminSession
// @Router /admin/tournaments [post]
func (h *TournamentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input services.CreateTournamentInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	tournament, err := h.tournamentService.Create(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"success": true, "tournament": tournament}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Get godoc
// @Summary Турнир по ID
// @Tags admin
// @Produce json
// @Param id path string true "Tournament ID"
// @Success 200 {object} models.Tournament
// @Failure 404 {object} map[string]string "Не найден"
// @Security AdminSession
// @Router /admin/tournaments/{id} [get]
func (h *TournamentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	tournament, err := h.tournamentService.Get(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, tournament, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Close godoc
// @Summary Закрыть турнир и разослать ссылки
// @Tags admin
// @Produce json
// @Param id path string true "Tournament ID"
// @Success 200 {object} map[string]interface{} "success, tournament, emailsSent, totalCompetitors"
// @Failure 404 {object} map[string]string "Не найден"
// @Failure 409 {object} map[string]string "Уже закрыт"
// @Security AdminSession
// @Router /admin/tournaments/{id}/close [put]
func (h *TournamentHandler) Close(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	result, err := h.tournamentService.Close(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := dispatchResponse(result.LinkDispatch)
	response["tournament"] = result.Tournament
	if result.ArchiveURL != "" {
		response["archiveUrl"] = result.ArchiveURL
	}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// SendAllLinks godoc
// @Summary Разослать ссылки всем участникам турнира
// @Tags admin
// @Produce json
// @Param id path string true "Tournament ID"
// @Success 200 {object} map[string]interface{} "success, emailsSent, totalCompetitors, errors"
// @Failure 404 {object} map[string]string "Не найден"
// @Security AdminSession
// @Router /admin/tournaments/{id}/send-all-links [post]
func (h *TournamentHandler) SendAllLinks(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	dispatch, err := h.tournamentService.SendAllLinks(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, dispatchResponse(*dispatch), nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListPast godoc
// @Summary Закрытые турниры для импорта участников
// @Tags admin
// @Produce json
// @Success 200 {array} models.Tournament
// @Security AdminSession
// @Router /admin/past-tournaments [get]
func (h *TournamentHandler) ListPast(w http.ResponseWriter, r *http.Request) {
	tournaments, err := h.tournamentService.ListPast(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if tournaments == nil {
		tournaments = []models.Tournament{}
	}

	if err := writeJSON(w, http.StatusOK, tournaments, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// CompetitorsForImport godoc
// @Summary Участники турнира в виде кандидатов на импорт
// @Tags admin
// @Produce json
// @Param id path string true "Source tournament ID"
// @Success 200 {array} services.ImportCandidate
// @Security AdminSession
// @Router /admin/tournaments/{id}/competitors-for-import [get]
func (h *TournamentHandler) CompetitorsForImport(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	candidates, err := h.competitorService.ListForImport(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if candidates == nil {
		candidates = []services.ImportCandidate{}
	}

	if err := writeJSON(w, http.StatusOK, candidates, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

type importInput struct {
	Competitors []services.ImportCandidate `json:"competitors"`
}

// ImportCompetitors godoc
// @Summary Импорт участников в турнир
// @Description Участники с уже занятым email пропускаются.
// @Tags admin
// @Accept json
// @Produce json
// @Param id path string true "Destination tournament ID"
// @Param input body importInput true "Кандидаты"
// @Success 200 {object} map[string]interface{} "success, imported, skipped"
// @Failure 400 {object} map[string]string "Нет массива competitors"
// @Failure 404 {object} map[string]string "Турнир не найден"
// @Security AdminSession
// @Router /admin/tournaments/{id}/import-competitors [post]
func (h *TournamentHandler) ImportCompetitors(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input importInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.Competitors == nil {
		errorResponse(w, r, http.StatusBadRequest, "Competitors array is required")
		return
	}

	result, err := h.competitorService.Import(r.Context(), id, input.Competitors)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{
		"success":  true,
		"imported": result.Imported,
		"skipped":  result.Skipped,
	}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Rankings godoc
// @Summary Рейтинг турнира по видам выступлений
// @Tags admin
// @Produce json
// @Param id path string true "Tournament ID"
// @Success 200 {array} models.EventLeaderboard
// @Failure 404 {object} map[string]string "Не найден"
// @Security AdminSession
// @Router /admin/tournaments/{id}/rankings [get]
func (h *TournamentHandler) Rankings(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	leaderboards, err := h.rankingService.Rankings(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, leaderboards, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// RankingsXLSX godoc
// @Summary Рейтинг турнира в Excel
// @Tags admin
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param id path string true "Tournament ID"
// @Success 200 {file} file
// @Failure 404 {object} map[string]string "Не найден"
// @Security AdminSession
// @Router /admin/tournaments/{id}/rankings.xlsx [get]
func (h *TournamentHandler) RankingsXLSX(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	export, err := h.rankingService.ExportXLSX(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(export.Data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(export.Data); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ArchiveRankings godoc
// @Summary Выгрузить таблицу результатов в хранилище
// @Tags admin
// @Produce json
// @Param id path string true "Tournament ID"
// @Success 200 {object} map[string]interface{} "success, key, url"
// @Failure 404 {object} map[string]string "Не найден"
// @Failure 503 {object} map[string]string "Хранилище не настроено"
// @Security AdminSession
// @Router /admin/tournaments/{id}/rankings/archive [post]
func (h *TournamentHandler) ArchiveRankings(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	upload, err := h.rankingService.Archive(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{"success": true, "key": upload.Key, "url": upload.Location}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
