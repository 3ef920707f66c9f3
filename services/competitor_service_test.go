package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/speech-ballots/models"
)

type competitorFixture struct {
	svc         CompetitorService
	competitors *fakeCompetitorRepo
	notifier    *fakeNotifier
}

func newCompetitorFixture(t *testing.T, tournaments []models.Tournament, competitors ...models.Competitor) *competitorFixture {
	t.Helper()
	mailer, err := NewMagicLinkMailer("https://ballots.example.com")
	require.NoError(t, err)
	f := &competitorFixture{
		competitors: newFakeCompetitorRepo(competitors...),
		notifier:    &fakeNotifier{},
	}
	tournamentRepo := newFakeTournamentRepo(tournaments...)
	sender := NewLinkSender(f.notifier, mailer, f.competitors, func() time.Time { return testNow }, discardLogger(), 0)
	f.svc = NewCompetitorService(&fakeTx{}, f.competitors, tournamentRepo, sender, discardLogger())
	return f
}

func TestCompetitorService_Create(t *testing.T) {
	f := newCompetitorFixture(t, []models.Tournament{activeTournament()})

	c, err := f.svc.Create(context.Background(), CompetitorInput{
		TournamentID: "t1", FirstName: " Ada ", LastName: "Lovelace", Email: "ada@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, "Ada", c.FirstName)
	assert.Len(t, c.MagicToken, magicTokenBytes*2)

	_, err = f.svc.Create(context.Background(), CompetitorInput{
		TournamentID: "t1", FirstName: "Ada", LastName: "King", Email: "ADA@example.com",
	})
	assert.ErrorIs(t, err, ErrCompetitorEmailConflict)
}

func TestCompetitorService_CreateValidation(t *testing.T) {
	f := newCompetitorFixture(t, []models.Tournament{activeTournament()})

	tests := []struct {
		name    string
		input   CompetitorInput
		wantErr error
	}{
		{"no first name", CompetitorInput{TournamentID: "t1", LastName: "L", Email: "a@example.com"}, ErrMissingField},
		{"no email", CompetitorInput{TournamentID: "t1", FirstName: "A", LastName: "L"}, ErrMissingField},
		{"bad email", CompetitorInput{TournamentID: "t1", FirstName: "A", LastName: "L", Email: "not-an-email"}, ErrInvalidEmail},
		{"no tournament", CompetitorInput{FirstName: "A", LastName: "L", Email: "a@example.com"}, ErrMissingField},
		{"unknown tournament", CompetitorInput{TournamentID: "t9", FirstName: "A", LastName: "L", Email: "a@example.com"}, ErrTournamentNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Create(context.Background(), tt.input)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
	assert.Zero(t, f.competitors.createCalls)
}

func TestCompetitorService_UpdateKeepsToken(t *testing.T) {
	f := newCompetitorFixture(t, []models.Tournament{activeTournament()}, roster()...)

	c, err := f.svc.Update(context.Background(), "c1", CompetitorInput{FirstName: "Augusta", LastName: "King", Email: "augusta@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "tok-1", c.MagicToken)

	stored, err := f.competitors.GetByID(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, "augusta@example.com", stored.Email)

	_, err = f.svc.Update(context.Background(), "missing", CompetitorInput{FirstName: "A", LastName: "B", Email: "a@example.com"})
	assert.ErrorIs(t, err, ErrCompetitorNotFound)
}

func TestCompetitorService_Delete(t *testing.T) {
	f := newCompetitorFixture(t, []models.Tournament{activeTournament()}, roster()...)

	require.NoError(t, f.svc.Delete(context.Background(), "c1"))
	assert.ErrorIs(t, f.svc.Delete(context.Background(), "c1"), ErrCompetitorNotFound)
}

func TestCompetitorService_ActiveRoster(t *testing.T) {
	f := newCompetitorFixture(t, []models.Tournament{activeTournament()}, roster()...)

	r, err := f.svc.ActiveRoster(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "t1", r.TournamentID)
	assert.Equal(t, "Spring Qualifier", r.TournamentName)
	require.Len(t, r.Competitors, 3)
	assert.Equal(t, "Hopper", r.Competitors[0].LastName)

	empty := newCompetitorFixture(t, nil)
	_, err = empty.svc.ActiveRoster(context.Background())
	assert.ErrorIs(t, err, ErrNoActiveTournament)
}

func TestCompetitorService_ResendLink(t *testing.T) {
	f := newCompetitorFixture(t, []models.Tournament{activeTournament()}, roster()...)

	require.NoError(t, f.svc.ResendLink(context.Background(), "c2"))
	require.Len(t, f.notifier.sent, 1)
	assert.Equal(t, "alan@example.com", f.notifier.sent[0].To)
	assert.Contains(t, f.notifier.sent[0].Body, "https://ballots.example.com/ballots/tok-2")
	assert.Equal(t, testNow, f.competitors.linkSentAt["c2"])

	assert.ErrorIs(t, f.svc.ResendLink(context.Background(), "missing"), ErrCompetitorNotFound)
}

func TestCompetitorService_ResendLinkDeliveryFailure(t *testing.T) {
	f := newCompetitorFixture(t, []models.Tournament{activeTournament()}, roster()...)
	f.notifier.failFor = map[string]error{"alan@example.com": errSMTPDown}

	err := f.svc.ResendLink(context.Background(), "c2")
	assert.ErrorIs(t, err, errSMTPDown)
	assert.NotContains(t, f.competitors.linkSentAt, "c2")
}

func TestCompetitorService_ImportDeduplicates(t *testing.T) {
	past := activeTournament()
	past.ID, past.Status = "t0", models.TournamentClosed
	dest := models.Tournament{ID: "t2", Name: "Fall Open", MeetingDate: testNow, Status: models.TournamentActive}
	f := newCompetitorFixture(t, []models.Tournament{past, dest},
		models.Competitor{ID: "x1", TournamentID: "t2", FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com", MagicToken: "x"},
	)

	res, err := f.svc.Import(context.Background(), "t2", []ImportCandidate{
		{FirstName: "Ada", LastName: "Lovelace", Email: "ADA@example.com"},
		{FirstName: "Alan", LastName: "Turing", Email: "alan@example.com"},
		{FirstName: "Alan", LastName: "Turing", Email: "Alan@Example.com"},
		{FirstName: "Grace", LastName: "Hopper", Email: "grace@example.com"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Imported)
	assert.Equal(t, 2, res.Skipped)

	list, err := f.svc.ListByTournament(context.Background(), "t2")
	require.NoError(t, err)
	assert.Len(t, list, 3)

	tokens := map[string]bool{}
	for _, c := range list {
		tokens[c.MagicToken] = true
	}
	assert.Len(t, tokens, 3, "every imported competitor gets a fresh token")
}

func TestCompetitorService_ImportErrors(t *testing.T) {
	f := newCompetitorFixture(t, []models.Tournament{activeTournament()})

	_, err := f.svc.Import(context.Background(), "t1", nil)
	assert.ErrorIs(t, err, ErrValidationFailed)

	_, err = f.svc.Import(context.Background(), "t1", []ImportCandidate{{FirstName: "A", LastName: "B", Email: "bad"}})
	assert.ErrorIs(t, err, ErrInvalidEmail)

	_, err = f.svc.Import(context.Background(), "t9", []ImportCandidate{{FirstName: "A", LastName: "B", Email: "a@example.com"}})
	assert.ErrorIs(t, err, ErrTournamentNotFound)
	assert.Zero(t, f.competitors.createCalls)
}

func TestCompetitorService_ListForImport(t *testing.T) {
	f := newCompetitorFixture(t, []models.Tournament{activeTournament()}, roster()...)

	candidates, err := f.svc.ListForImport(context.Background(), "t1")
	require.NoError(t, err)
	require.Len(t, candidates, 3)
	assert.Equal(t, ImportCandidate{FirstName: "Grace", LastName: "Hopper", Email: "grace@example.com"}, candidates[0])

	_, err = f.svc.ListForImport(context.Background(), "t9")
	assert.ErrorIs(t, err, ErrTournamentNotFound)
}
