package models

import "time"

// TournamentStatus представляет статусы турнира, соответствующие CHECK в БД.
type TournamentStatus string

const (
	TournamentActive TournamentStatus = "active"
	TournamentClosed TournamentStatus = "closed"
)

// Valid сообщает, является ли статус одним из известных значений.
func (s TournamentStatus) Valid() bool {
	return s == TournamentActive || s == TournamentClosed
}

// CanTransitionTo: единственный разрешённый переход active -> closed.
func (s TournamentStatus) CanTransitionTo(next TournamentStatus) bool {
	return s == TournamentActive && next == TournamentClosed
}

// Tournament представляет один турнир (одну встречу клуба).
type Tournament struct {
	ID          string           `json:"id" db:"id"`
	Name        string           `json:"name" db:"name"`
	MeetingDate time.Time        `json:"meetingDate" db:"meeting_date"`
	Status      TournamentStatus `json:"status" db:"status"`
	CreatedAt   time.Time        `json:"createdAt" db:"created_at"`
	ClosedAt    *time.Time       `json:"closedAt,omitempty" db:"closed_at"`

	// Агрегаты, заполняются запросами со счётчиками
	CompetitorCount int `json:"competitorCount" db:"-"`
	BallotCount     int `json:"ballotCount" db:"-"`
}

// MagicLinkExpiry: ссылка действительна год после даты встречи.
// 29 февраля переходит в 28 февраля, а не в 1 марта.
func (t Tournament) MagicLinkExpiry() time.Time {
	d := t.MeetingDate
	expiry := d.AddDate(1, 0, 0)
	if expiry.Day() != d.Day() {
		// день месяца не существует в следующем году: последний день того же месяца
		expiry = expiry.AddDate(0, 0, -expiry.Day())
	}
	return expiry
}
