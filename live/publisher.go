package live

import (
	"time"

	"github.com/Dosada05/speech-ballots/models"
)

const TypeBallotSubmitted = "ballot_submitted"

// SubmissionNotice - то, что видит админская панель при отправке бюллетеня.
// Оценки и комментарии в ленту не попадают.
type SubmissionNotice struct {
	BallotID       string     `json:"ballotId"`
	TournamentID   string     `json:"tournamentId"`
	CompetitorID   string     `json:"competitorId"`
	CompetitorName string     `json:"competitorName,omitempty"`
	EventTypeID    int        `json:"eventTypeId"`
	JudgeName      string     `json:"judgeName"`
	SubmittedAt    *time.Time `json:"submittedAt,omitempty"`
}

// HubPublisher транслирует отправленные бюллетени в комнату турнира.
type HubPublisher struct {
	hub *Hub
}

func NewHubPublisher(hub *Hub) *HubPublisher {
	return &HubPublisher{hub: hub}
}

func (p *HubPublisher) PublishSubmission(b *models.Ballot) {
	if p == nil || p.hub == nil || b == nil {
		return
	}
	room := TournamentRoom(b.TournamentID)
	p.hub.BroadcastToRoom(room, Message{
		Type: TypeBallotSubmitted,
		Payload: SubmissionNotice{
			BallotID:       b.ID,
			TournamentID:   b.TournamentID,
			CompetitorID:   b.CompetitorID,
			CompetitorName: b.CompetitorName,
			EventTypeID:    b.EventTypeID,
			JudgeName:      b.JudgeName,
			SubmittedAt:    b.SubmittedAt,
		},
		RoomID: room,
	})
}
