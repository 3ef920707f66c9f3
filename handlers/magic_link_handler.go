package handlers

import (
	"net/http"
	"time"

	"github.com/Dosada05/speech-ballots/models"
	"github.com/Dosada05/speech-ballots/services"
)

type MagicLinkHandler struct {
	magicLinkService services.MagicLinkService
}

func NewMagicLinkHandler(ms services.MagicLinkService) *MagicLinkHandler {
	return &MagicLinkHandler{
		magicLinkService: ms,
	}
}

type magicCompetitorView struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

type magicTournamentView struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	MeetingDate time.Time `json:"meetingDate"`
}

type magicBallotView struct {
	ID              string               `json:"id"`
	EventType       string               `json:"eventType"`
	EventTypeConfig *models.RubricConfig `json:"eventTypeConfig"`
	JudgeName       string               `json:"judgeName"`
	models.Scores
	models.Comments
	TotalTimeSeconds *int       `json:"totalTimeSeconds"`
	SpeakerRank      *int       `json:"speakerRank"`
	SubmittedAt      *time.Time `json:"submittedAt"`
}

type magicLinkResponse struct {
	Competitor magicCompetitorView `json:"competitor"`
	Tournament magicTournamentView `json:"tournament"`
	Ballots    []magicBallotView   `json:"ballots"`
	ExpiresAt  time.Time           `json:"expiresAt"`
}

func newMagicLinkResponse(res *services.MagicLinkResult) magicLinkResponse {
	out := magicLinkResponse{
		Competitor: magicCompetitorView{
			ID:        res.Competitor.ID,
			FirstName: res.Competitor.FirstName,
			LastName:  res.Competitor.LastName,
		},
		Tournament: magicTournamentView{
			ID:          res.Tournament.ID,
			Name:        res.Tournament.Name,
			MeetingDate: res.Tournament.MeetingDate,
		},
		Ballots:   make([]magicBallotView, 0, len(res.Ballots)),
		ExpiresAt: res.ExpiresAt,
	}
	for _, b := range res.Ballots {
		out.Ballots = append(out.Ballots, magicBallotView{
			ID:               b.ID,
			EventType:        b.EventTypeName,
			EventTypeConfig:  b.RubricConfig,
			JudgeName:        b.JudgeName,
			Scores:           b.Scores,
			Comments:         b.Comments,
			TotalTimeSeconds: b.TotalTimeSeconds,
			SpeakerRank:      b.SpeakerRank,
			SubmittedAt:      b.SubmittedAt,
		})
	}
	return out
}

// Resolve godoc
// @Summary Бюллетени участника по ссылке из письма
// @Tags public
// @Produce json
// @Param token path string true "Magic token"
// @Success 200 {object} magicLinkResponse
// @Failure 403 {object} map[string]string "Срок ссылки истёк"
// @Failure 404 {object} map[string]string "Неизвестная ссылка"
// @Router /api/magic/{token} [get]
func (h *MagicLinkHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	token, err := getIDFromURL(r, "token")
	if err != nil {
		notFoundResponse(w, r, "Invalid magic link")
		return
	}

	result, err := h.magicLinkService.Resolve(r.Context(), token)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, newMagicLinkResponse(result), nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
