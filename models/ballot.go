package models

import "time"

// BallotStatus - жизненный цикл бюллетеня: draft -> submitted, обратного перехода нет.
type BallotStatus string

const (
	BallotDraft     BallotStatus = "draft"
	BallotSubmitted BallotStatus = "submitted"
)

func (s BallotStatus) Valid() bool {
	return s == BallotDraft || s == BallotSubmitted
}

func (s BallotStatus) CanTransitionTo(next BallotStatus) bool {
	return s == BallotDraft && next == BallotSubmitted
}

const (
	MinScore = 1
	MaxScore = 5

	MinSpeakerRank = 1
	MaxSpeakerRank = 5
)

// Scores - пять оценок по категориям рубрики. nil означает "не выставлено".
type Scores struct {
	Content               *int `json:"scoreContent"`
	OrganizationCitations *int `json:"scoreOrganizationCitations"`
	Category3             *int `json:"scoreCategory3"`
	Category4             *int `json:"scoreCategory4"`
	Impact                *int `json:"scoreImpact"`
}

// All возвращает оценки в порядке колонок.
func (s Scores) All() [5]*int {
	return [5]*int{s.Content, s.OrganizationCitations, s.Category3, s.Category4, s.Impact}
}

// Comments - комментарии судьи по категориям и общий.
type Comments struct {
	Content               string `json:"commentsContent"`
	OrganizationCitations string `json:"commentsOrganizationCitations"`
	Category3             string `json:"commentsCategory3"`
	Category4             string `json:"commentsCategory4"`
	Impact                string `json:"commentsImpact"`
	Overall               string `json:"overallComments"`
}

type Ballot struct {
	ID           string `json:"id" db:"id"`
	TournamentID string `json:"tournamentId" db:"tournament_id"`
	CompetitorID string `json:"competitorId" db:"competitor_id"`
	EventTypeID  int    `json:"eventTypeId" db:"event_type_id"`
	DeviceID     string `json:"deviceId" db:"device_id"`
	JudgeName    string `json:"judgeName" db:"judge_name"`

	Scores
	Comments

	TotalTimeSeconds *int `json:"totalTimeSeconds,omitempty" db:"total_time_seconds"`
	SpeakerRank      *int `json:"speakerRank,omitempty" db:"speaker_rank"`

	Status       BallotStatus `json:"status" db:"status"`
	DraftSavedAt *time.Time   `json:"draftSavedAt,omitempty" db:"draft_saved_at"`
	SubmittedAt  *time.Time   `json:"submittedAt,omitempty" db:"submitted_at"`
	IPAddress    string       `json:"ipAddress,omitempty" db:"ip_address"`
	UserAgent    string       `json:"userAgent,omitempty" db:"user_agent"`
	CreatedAt    time.Time    `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time    `json:"updatedAt" db:"updated_at"`

	// Заполняются запросами с JOIN
	CompetitorName string        `json:"competitorName,omitempty" db:"-"`
	EventTypeName  string        `json:"eventTypeName,omitempty" db:"-"`
	RubricConfig   *RubricConfig `json:"rubricConfig,omitempty" db:"-"`
}

// DraftKey - ключ уникальности открытого черновика.
type DraftKey struct {
	DeviceID     string
	CompetitorID string
	EventTypeID  int
}

// RequestMeta - метаданные запроса, сохраняемые при отправке.
type RequestMeta struct {
	IPAddress string
	UserAgent string
}
