package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Dosada05/speech-ballots/models"
	"github.com/Dosada05/speech-ballots/repositories"
	"github.com/Dosada05/speech-ballots/storage"
)

var testNow = time.Date(2025, 3, 14, 18, 0, 0, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// testClock - управляемые часы для тестов.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock(t time.Time) *testClock { return &testClock{now: t} }

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func (c *testClock) Advance(d time.Duration) { c.Set(c.Now().Add(d)) }

type fakeTx struct {
	calls int
}

func (f *fakeTx) WithinTx(_ context.Context, fn func(exec repositories.SQLExecutor) error) error {
	f.calls++
	return fn(nil)
}

type fakeTournamentRepo struct {
	mu          sync.Mutex
	tournaments map[string]*models.Tournament
	getErr      error
}

func newFakeTournamentRepo(ts ...models.Tournament) *fakeTournamentRepo {
	r := &fakeTournamentRepo{tournaments: make(map[string]*models.Tournament)}
	for i := range ts {
		t := ts[i]
		r.tournaments[t.ID] = &t
	}
	return r
}

func (r *fakeTournamentRepo) Create(_ context.Context, _ repositories.SQLExecutor, t *models.Tournament) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t.Status == models.TournamentActive {
		for _, existing := range r.tournaments {
			if existing.Status == models.TournamentActive {
				return repositories.ErrActiveTournamentExists
			}
		}
	}
	t.CreatedAt = testNow
	cp := *t
	r.tournaments[t.ID] = &cp
	return nil
}

func (r *fakeTournamentRepo) GetByID(_ context.Context, id string) (*models.Tournament, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.getErr != nil {
		return nil, r.getErr
	}
	t, ok := r.tournaments[id]
	if !ok {
		return nil, repositories.ErrTournamentNotFound
	}
	cp := *t
	return &cp, nil
}

func (r *fakeTournamentRepo) GetActive(_ context.Context, _ repositories.SQLExecutor) (*models.Tournament, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tournaments {
		if t.Status == models.TournamentActive {
			cp := *t
			return &cp, nil
		}
	}
	return nil, repositories.ErrNoActiveTournamentFound
}

func (r *fakeTournamentRepo) List(_ context.Context, filter repositories.ListTournamentsFilter) ([]models.Tournament, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Tournament
	for _, t := range r.tournaments {
		if filter.Status != nil && t.Status != *filter.Status {
			continue
		}
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool {
		if filter.ByMeetingDate {
			return out[i].MeetingDate.After(out[j].MeetingDate)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *fakeTournamentRepo) CloseActive(_ context.Context, _ repositories.SQLExecutor, at time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, t := range r.tournaments {
		if t.Status == models.TournamentActive {
			t.Status = models.TournamentClosed
			t.ClosedAt = timePtr(at)
			n++
		}
	}
	return n, nil
}

func (r *fakeTournamentRepo) Close(_ context.Context, _ repositories.SQLExecutor, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tournaments[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	if t.Status != models.TournamentActive {
		return repositories.ErrTournamentNotActive
	}
	t.Status = models.TournamentClosed
	t.ClosedAt = timePtr(at)
	return nil
}

func (r *fakeTournamentRepo) status(id string) models.TournamentStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tournaments[id].Status
}

type fakeCompetitorRepo struct {
	mu          sync.Mutex
	competitors map[string]*models.Competitor
	linkSentAt  map[string]time.Time
	createCalls int
}

func newFakeCompetitorRepo(cs ...models.Competitor) *fakeCompetitorRepo {
	r := &fakeCompetitorRepo{
		competitors: make(map[string]*models.Competitor),
		linkSentAt:  make(map[string]time.Time),
	}
	for i := range cs {
		c := cs[i]
		r.competitors[c.ID] = &c
	}
	return r
}

func (r *fakeCompetitorRepo) emailTakenLocked(tournamentID, email, exceptID string) bool {
	for _, c := range r.competitors {
		if c.ID != exceptID && c.TournamentID == tournamentID && strings.EqualFold(c.Email, email) {
			return true
		}
	}
	return false
}

func (r *fakeCompetitorRepo) Create(_ context.Context, _ repositories.SQLExecutor, c *models.Competitor) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.createCalls++
	if r.emailTakenLocked(c.TournamentID, c.Email, "") {
		return repositories.ErrCompetitorEmailConflict
	}
	cp := *c
	r.competitors[c.ID] = &cp
	return nil
}

func (r *fakeCompetitorRepo) GetByID(_ context.Context, id string) (*models.Competitor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.competitors[id]
	if !ok {
		return nil, repositories.ErrCompetitorNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *fakeCompetitorRepo) GetByToken(_ context.Context, token string) (*models.Competitor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.competitors {
		if c.MagicToken == token {
			cp := *c
			return &cp, nil
		}
	}
	return nil, repositories.ErrCompetitorNotFound
}

func (r *fakeCompetitorRepo) Update(_ context.Context, c *models.Competitor) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.competitors[c.ID]
	if !ok {
		return repositories.ErrCompetitorNotFound
	}
	if r.emailTakenLocked(existing.TournamentID, c.Email, c.ID) {
		return repositories.ErrCompetitorEmailConflict
	}
	existing.FirstName, existing.LastName, existing.Email = c.FirstName, c.LastName, c.Email
	return nil
}

func (r *fakeCompetitorRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.competitors[id]; !ok {
		return repositories.ErrCompetitorNotFound
	}
	delete(r.competitors, id)
	return nil
}

func (r *fakeCompetitorRepo) ListByTournament(_ context.Context, tournamentID string) ([]models.Competitor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Competitor
	for _, c := range r.competitors {
		if c.TournamentID == tournamentID {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].LastName != out[j].LastName {
			return out[i].LastName < out[j].LastName
		}
		return out[i].FirstName < out[j].FirstName
	})
	return out, nil
}

func (r *fakeCompetitorRepo) MarkLinkSent(_ context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.competitors[id]; !ok {
		return repositories.ErrCompetitorNotFound
	}
	r.linkSentAt[id] = at
	return nil
}

type fakeBallotRepo struct {
	mu      sync.Mutex
	ballots []*models.Ballot
	// createErrs отдаются по очереди первыми вызовами Create
	createErrs []error
	writes     int
}

func (r *fakeBallotRepo) FindOpenDraft(_ context.Context, _ repositories.SQLExecutor, key models.DraftKey) (*models.Ballot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.ballots {
		if b.Status == models.BallotDraft && b.DeviceID == key.DeviceID &&
			b.CompetitorID == key.CompetitorID && b.EventTypeID == key.EventTypeID {
			cp := *b
			return &cp, nil
		}
	}
	return nil, repositories.ErrBallotNotFound
}

func (r *fakeBallotRepo) Create(_ context.Context, _ repositories.SQLExecutor, b *models.Ballot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.createErrs) > 0 {
		err := r.createErrs[0]
		r.createErrs = r.createErrs[1:]
		return err
	}
	r.writes++
	cp := *b
	cp.CreatedAt, cp.UpdatedAt = testNow, testNow
	r.ballots = append(r.ballots, &cp)
	return nil
}

func (r *fakeBallotRepo) replaceLocked(b *models.Ballot) error {
	for i, existing := range r.ballots {
		if existing.ID == b.ID {
			if existing.Status != models.BallotDraft {
				return repositories.ErrBallotAlreadySubmitted
			}
			cp := *b
			r.ballots[i] = &cp
			r.writes++
			return nil
		}
	}
	return repositories.ErrBallotNotFound
}

func (r *fakeBallotRepo) UpdateDraft(_ context.Context, _ repositories.SQLExecutor, b *models.Ballot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.replaceLocked(b)
}

func (r *fakeBallotRepo) MarkSubmitted(_ context.Context, _ repositories.SQLExecutor, b *models.Ballot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.replaceLocked(b)
}

func (r *fakeBallotRepo) List(_ context.Context, filter repositories.ListBallotsFilter) ([]models.Ballot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Ballot
	for _, b := range r.ballots {
		if filter.TournamentID != nil && b.TournamentID != *filter.TournamentID {
			continue
		}
		if filter.Status != nil && b.Status != *filter.Status {
			continue
		}
		out = append(out, *b)
	}
	return out, nil
}

// ListSubmittedByCompetitor отдаёт и черновики, чтобы проверить фильтр в сервисе.
func (r *fakeBallotRepo) ListSubmittedByCompetitor(_ context.Context, competitorID string) ([]models.Ballot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Ballot
	for _, b := range r.ballots {
		if b.CompetitorID == competitorID {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (r *fakeBallotRepo) ListSubmittedForRanking(_ context.Context, tournamentID string) ([]models.Ballot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Ballot
	for _, b := range r.ballots {
		if b.TournamentID == tournamentID && b.Status == models.BallotSubmitted {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (r *fakeBallotRepo) all() []models.Ballot {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Ballot, 0, len(r.ballots))
	for _, b := range r.ballots {
		out = append(out, *b)
	}
	return out
}

type sentEmail struct {
	To, Subject, Body string
}

type fakeNotifier struct {
	mu      sync.Mutex
	sent    []sentEmail
	failFor map[string]error
}

func (n *fakeNotifier) Send(_ context.Context, to, subject, body string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if err := n.failFor[to]; err != nil {
		return err
	}
	n.sent = append(n.sent, sentEmail{To: to, Subject: subject, Body: body})
	return nil
}

func (n *fakeNotifier) recipients() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, 0, len(n.sent))
	for _, s := range n.sent {
		out = append(out, s.To)
	}
	sort.Strings(out)
	return out
}

type fakePublisher struct {
	mu        sync.Mutex
	published []models.Ballot
}

func (p *fakePublisher) PublishSubmission(b *models.Ballot) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.published = append(p.published, *b)
}

type fakeUploader struct {
	keys        []string
	contentType string
	size        int
	err         error
}

func (u *fakeUploader) Upload(_ context.Context, key, contentType string, reader io.Reader) (*storage.UploadResult, error) {
	if u.err != nil {
		return nil, u.err
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}
	u.keys = append(u.keys, key)
	u.contentType = contentType
	u.size = len(data)
	return &storage.UploadResult{Key: key, Location: u.GetPublicURL(key)}, nil
}

func (u *fakeUploader) GetPublicURL(key string) string {
	return "https://files.example.com/" + key
}

var errSMTPDown = errors.New("smtp: connection refused")

func intPtr(v int) *int { return &v }

func activeTournament() models.Tournament {
	return models.Tournament{
		ID:          "t1",
		Name:        "Spring Qualifier",
		MeetingDate: time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC),
		Status:      models.TournamentActive,
		CreatedAt:   testNow.Add(-time.Hour),
	}
}
