package models

import "time"

// Competitor - участник турнира. MagicToken уникален и не меняется после создания.
type Competitor struct {
	ID              string     `json:"id" db:"id"`
	TournamentID    string     `json:"tournamentId" db:"tournament_id"`
	FirstName       string     `json:"firstName" db:"first_name"`
	LastName        string     `json:"lastName" db:"last_name"`
	Email           string     `json:"email" db:"email"`
	MagicToken      string     `json:"-" db:"magic_token"`
	MagicLinkSentAt *time.Time `json:"magicLinkSentAt,omitempty" db:"magic_link_sent_at"`
	CreatedAt       time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt       time.Time  `json:"updatedAt" db:"updated_at"`

	BallotCount int `json:"ballotCount" db:"-"`
}

func (c Competitor) FullName() string {
	return c.FirstName + " " + c.LastName
}
