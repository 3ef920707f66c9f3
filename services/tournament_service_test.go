package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/speech-ballots/models"
)

type tournamentFixture struct {
	svc         TournamentService
	tournaments *fakeTournamentRepo
	competitors *fakeCompetitorRepo
	ballots     *fakeBallotRepo
	notifier    *fakeNotifier
	uploader    *fakeUploader
}

func newTournamentFixture(t *testing.T, withStorage bool, tournaments []models.Tournament, competitors ...models.Competitor) *tournamentFixture {
	t.Helper()
	mailer, err := NewMagicLinkMailer("https://ballots.example.com/")
	require.NoError(t, err)

	f := &tournamentFixture{
		tournaments: newFakeTournamentRepo(tournaments...),
		competitors: newFakeCompetitorRepo(competitors...),
		ballots:     &fakeBallotRepo{},
		notifier:    &fakeNotifier{failFor: map[string]error{}},
	}
	var ranking RankingService
	if withStorage {
		f.uploader = &fakeUploader{}
		ranking = NewRankingService(f.tournaments, f.ballots, f.uploader, discardLogger())
	} else {
		ranking = NewRankingService(f.tournaments, f.ballots, nil, discardLogger())
	}
	clock := func() time.Time { return testNow }
	sender := NewLinkSender(f.notifier, mailer, f.competitors, clock, discardLogger(), 2)
	f.svc = NewTournamentService(&fakeTx{}, f.tournaments, f.competitors, sender, ranking, clock, discardLogger())
	return f
}

func roster() []models.Competitor {
	return []models.Competitor{
		{ID: "c1", TournamentID: "t1", FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com", MagicToken: "tok-1"},
		{ID: "c2", TournamentID: "t1", FirstName: "Alan", LastName: "Turing", Email: "alan@example.com", MagicToken: "tok-2"},
		{ID: "c3", TournamentID: "t1", FirstName: "Grace", LastName: "Hopper", Email: "grace@example.com", MagicToken: "tok-3"},
	}
}

func TestTournamentService_CreateClosesPreviousActive(t *testing.T) {
	f := newTournamentFixture(t, false, []models.Tournament{activeTournament()})

	created, err := f.svc.Create(context.Background(), CreateTournamentInput{Name: " Fall Open ", MeetingDate: "2025-09-20"})
	require.NoError(t, err)
	assert.Equal(t, "Fall Open", created.Name)
	assert.Equal(t, models.TournamentActive, created.Status)
	assert.Equal(t, time.Date(2025, 9, 20, 0, 0, 0, 0, time.UTC), created.MeetingDate)

	assert.Equal(t, models.TournamentClosed, f.tournaments.status("t1"))

	status, err := f.svc.Status(context.Background())
	require.NoError(t, err)
	assert.True(t, status.HasActiveTournament)
	assert.Equal(t, created.ID, status.Tournament.ID)
}

func TestTournamentService_CreateValidation(t *testing.T) {
	f := newTournamentFixture(t, false, nil)

	tests := []struct {
		name  string
		input CreateTournamentInput
	}{
		{"no name", CreateTournamentInput{MeetingDate: "2025-09-20"}},
		{"no date", CreateTournamentInput{Name: "Fall Open"}},
		{"bad date", CreateTournamentInput{Name: "Fall Open", MeetingDate: "20/09/2025"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Create(context.Background(), tt.input)
			assert.ErrorIs(t, err, ErrValidationFailed)
		})
	}

	created, err := f.svc.Create(context.Background(), CreateTournamentInput{Name: "RFC", MeetingDate: "2025-09-20T09:00:00-05:00"})
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 9, 20, 14, 0, 0, 0, time.UTC), created.MeetingDate)
}

func TestTournamentService_StatusWithoutActive(t *testing.T) {
	f := newTournamentFixture(t, false, nil)

	status, err := f.svc.Status(context.Background())
	require.NoError(t, err)
	assert.False(t, status.HasActiveTournament)
	assert.Nil(t, status.Tournament)
	assert.Equal(t, "No active tournament. Please check back later.", status.Message)
}

func TestTournamentService_CloseSendsLinks(t *testing.T) {
	f := newTournamentFixture(t, false, []models.Tournament{activeTournament()}, roster()...)

	res, err := f.svc.Close(context.Background(), "t1")
	require.NoError(t, err)

	assert.Equal(t, models.TournamentClosed, res.Tournament.Status)
	assert.Equal(t, 3, res.EmailsSent)
	assert.Equal(t, 3, res.TotalCompetitors)
	assert.Empty(t, res.Errors)
	assert.Empty(t, res.ArchiveURL)

	assert.Equal(t, []string{"ada@example.com", "alan@example.com", "grace@example.com"}, f.notifier.recipients())
	for _, mail := range f.notifier.sent {
		assert.Equal(t, "Your NCFCA Speech Ballots - Spring Qualifier", mail.Subject)
		assert.Contains(t, mail.Body, "https://ballots.example.com/ballots/tok-")
	}
	assert.Len(t, f.competitors.linkSentAt, 3)
}

func TestTournamentService_ClosePartialDelivery(t *testing.T) {
	f := newTournamentFixture(t, false, []models.Tournament{activeTournament()}, roster()...)
	f.notifier.failFor["alan@example.com"] = errSMTPDown

	res, err := f.svc.Close(context.Background(), "t1")
	require.NoError(t, err, "delivery failure does not undo the close")

	assert.Equal(t, models.TournamentClosed, f.tournaments.status("t1"))
	assert.Equal(t, 2, res.EmailsSent)
	assert.Equal(t, 3, res.TotalCompetitors)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "Alan Turing: ")
	assert.Contains(t, res.Errors[0], "connection refused")
	assert.NotContains(t, f.competitors.linkSentAt, "c2")
}

func TestTournamentService_CloseConflicts(t *testing.T) {
	closed := activeTournament()
	closed.Status = models.TournamentClosed
	f := newTournamentFixture(t, false, []models.Tournament{closed})

	_, err := f.svc.Close(context.Background(), "t1")
	assert.ErrorIs(t, err, ErrTournamentAlreadyClosed)
	assert.Empty(t, f.notifier.sent)

	_, err = f.svc.Close(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrTournamentNotFound)
}

func TestTournamentService_CloseArchivesRankings(t *testing.T) {
	f := newTournamentFixture(t, true, []models.Tournament{activeTournament()}, roster()...)
	f.ballots.ballots = []*models.Ballot{
		{ID: "b1", TournamentID: "t1", CompetitorID: "c1", CompetitorName: "Ada Lovelace", EventTypeID: 1,
			EventTypeName: "Original Persuasive", Status: models.BallotSubmitted, Scores: fullScores(4)},
	}

	res, err := f.svc.Close(context.Background(), "t1")
	require.NoError(t, err)
	require.Equal(t, []string{"rankings/t1/rankings-2025-03-14.xlsx"}, f.uploader.keys)
	assert.Equal(t, "https://files.example.com/rankings/t1/rankings-2025-03-14.xlsx", res.ArchiveURL)
	assert.Positive(t, f.uploader.size)
}

func TestTournamentService_CloseSurvivesArchiveFailure(t *testing.T) {
	f := newTournamentFixture(t, true, []models.Tournament{activeTournament()})
	f.uploader.err = errSMTPDown

	res, err := f.svc.Close(context.Background(), "t1")
	require.NoError(t, err)
	assert.Empty(t, res.ArchiveURL)
	assert.Equal(t, models.TournamentClosed, f.tournaments.status("t1"))
}

func TestTournamentService_SendAllLinks(t *testing.T) {
	f := newTournamentFixture(t, false, []models.Tournament{activeTournament()}, roster()...)

	res, err := f.svc.SendAllLinks(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, 3, res.EmailsSent)
	assert.Equal(t, models.TournamentActive, f.tournaments.status("t1"), "sending links does not close")

	_, err = f.svc.SendAllLinks(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrTournamentNotFound)
}

func TestTournamentService_ListPast(t *testing.T) {
	older := models.Tournament{ID: "t0", Name: "Winter", MeetingDate: time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC), Status: models.TournamentClosed}
	newer := models.Tournament{ID: "t2", Name: "Fall", MeetingDate: time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC), Status: models.TournamentClosed}
	f := newTournamentFixture(t, false, []models.Tournament{older, activeTournament(), newer})

	past, err := f.svc.ListPast(context.Background())
	require.NoError(t, err)
	require.Len(t, past, 2)
	assert.Equal(t, "t2", past[0].ID)
	assert.Equal(t, "t0", past[1].ID)
}
