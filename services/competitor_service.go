package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Dosada05/speech-ballots/models"
	"github.com/Dosada05/speech-ballots/repositories"
)

type CompetitorInput struct {
	TournamentID string `json:"tournamentId,omitempty"`
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	Email        string `json:"email"`
}

// ImportCandidate - участник прошлого турнира, доступный для импорта.
type ImportCandidate struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
}

type ImportResult struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}

// Roster - участники активного турнира для экрана судьи.
type Roster struct {
	TournamentID   string        `json:"tournamentId"`
	TournamentName string        `json:"tournamentName"`
	Competitors    []RosterEntry `json:"competitors"`
}

type RosterEntry struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

type CompetitorService interface {
	Create(ctx context.Context, input CompetitorInput) (*models.Competitor, error)
	Update(ctx context.Context, id string, input CompetitorInput) (*models.Competitor, error)
	Delete(ctx context.Context, id string) error
	ListByTournament(ctx context.Context, tournamentID string) ([]models.Competitor, error)
	ActiveRoster(ctx context.Context) (*Roster, error)
	ResendLink(ctx context.Context, id string) error
	ListForImport(ctx context.Context, tournamentID string) ([]ImportCandidate, error)
	Import(ctx context.Context, tournamentID string, candidates []ImportCandidate) (*ImportResult, error)
}

type competitorService struct {
	tx             repositories.Transactor
	competitorRepo repositories.CompetitorRepository
	tournamentRepo repositories.TournamentRepository
	linkSender     *LinkSender
	logger         *slog.Logger
}

func NewCompetitorService(
	tx repositories.Transactor,
	competitorRepo repositories.CompetitorRepository,
	tournamentRepo repositories.TournamentRepository,
	linkSender *LinkSender,
	logger *slog.Logger,
) CompetitorService {
	return &competitorService{
		tx:             tx,
		competitorRepo: competitorRepo,
		tournamentRepo: tournamentRepo,
		linkSender:     linkSender,
		logger:         logger,
	}
}

func cleanCompetitorInput(in CompetitorInput) (CompetitorInput, error) {
	out := CompetitorInput{
		TournamentID: strings.TrimSpace(in.TournamentID),
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Email:        strings.TrimSpace(in.Email),
	}
	var missing []string
	if out.FirstName == "" {
		missing = append(missing, "firstName")
	}
	if out.LastName == "" {
		missing = append(missing, "lastName")
	}
	if out.Email == "" {
		missing = append(missing, "email")
	}
	if len(missing) > 0 {
		return out, fmt.Errorf("%w: %w: %s", ErrValidationFailed, ErrMissingField, strings.Join(missing, ", "))
	}
	if err := validateEmail(out.Email); err != nil {
		return out, fmt.Errorf("%w: %w", ErrValidationFailed, err)
	}
	return out, nil
}

func mapCompetitorRepoError(err error) error {
	switch {
	case errors.Is(err, repositories.ErrCompetitorNotFound):
		return ErrCompetitorNotFound
	case errors.Is(err, repositories.ErrCompetitorEmailConflict):
		return ErrCompetitorEmailConflict
	case errors.Is(err, repositories.ErrCompetitorInvalidTourn):
		return ErrTournamentNotFound
	}
	return err
}

func (s *competitorService) requireTournament(ctx context.Context, id string) (*models.Tournament, error) {
	t, err := s.tournamentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to get tournament %s: %w", id, err)
	}
	return t, nil
}

func (s *competitorService) newCompetitor(tournamentID string, in CompetitorInput) (*models.Competitor, error) {
	token, err := generateSecureToken(magicTokenBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to generate magic token: %w", err)
	}
	return &models.Competitor{
		ID:           newID(),
		TournamentID: tournamentID,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Email:        in.Email,
		MagicToken:   token,
	}, nil
}

func (s *competitorService) Create(ctx context.Context, input CompetitorInput) (*models.Competitor, error) {
	in, err := cleanCompetitorInput(input)
	if err != nil {
		return nil, err
	}
	if in.TournamentID == "" {
		return nil, fmt.Errorf("%w: %w: tournamentId", ErrValidationFailed, ErrMissingField)
	}
	if _, err := s.requireTournament(ctx, in.TournamentID); err != nil {
		return nil, err
	}

	c, err := s.newCompetitor(in.TournamentID, in)
	if err != nil {
		return nil, err
	}
	if err := s.competitorRepo.Create(ctx, nil, c); err != nil {
		return nil, fmt.Errorf("failed to create competitor: %w", mapCompetitorRepoError(err))
	}
	return c, nil
}

// Update исправляет имя и email. Токен ссылки не меняется.
func (s *competitorService) Update(ctx context.Context, id string, input CompetitorInput) (*models.Competitor, error) {
	in, err := cleanCompetitorInput(input)
	if err != nil {
		return nil, err
	}
	c, err := s.competitorRepo.GetByID(ctx, id)
	if err != nil {
		return nil, mapCompetitorRepoError(err)
	}
	c.FirstName = in.FirstName
	c.LastName = in.LastName
	c.Email = in.Email
	if err := s.competitorRepo.Update(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to update competitor %s: %w", id, mapCompetitorRepoError(err))
	}
	return c, nil
}

func (s *competitorService) Delete(ctx context.Context, id string) error {
	if err := s.competitorRepo.Delete(ctx, id); err != nil {
		return mapCompetitorRepoError(err)
	}
	return nil
}

func (s *competitorService) ListByTournament(ctx context.Context, tournamentID string) ([]models.Competitor, error) {
	if strings.TrimSpace(tournamentID) == "" {
		return nil, fmt.Errorf("%w: %w: tournamentId", ErrValidationFailed, ErrMissingField)
	}
	competitors, err := s.competitorRepo.ListByTournament(ctx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list competitors: %w", err)
	}
	return competitors, nil
}

func (s *competitorService) ActiveRoster(ctx context.Context) (*Roster, error) {
	t, err := s.tournamentRepo.GetActive(ctx, nil)
	if err != nil {
		if errors.Is(err, repositories.ErrNoActiveTournamentFound) {
			return nil, ErrNoActiveTournament
		}
		return nil, fmt.Errorf("failed to load active tournament: %w", err)
	}
	competitors, err := s.competitorRepo.ListByTournament(ctx, t.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list competitors: %w", err)
	}

	roster := &Roster{TournamentID: t.ID, TournamentName: t.Name, Competitors: make([]RosterEntry, 0, len(competitors))}
	for _, c := range competitors {
		roster.Competitors = append(roster.Competitors, RosterEntry{ID: c.ID, FirstName: c.FirstName, LastName: c.LastName})
	}
	return roster, nil
}

func (s *competitorService) ResendLink(ctx context.Context, id string) error {
	c, err := s.competitorRepo.GetByID(ctx, id)
	if err != nil {
		return mapCompetitorRepoError(err)
	}
	t, err := s.requireTournament(ctx, c.TournamentID)
	if err != nil {
		return err
	}
	if err := s.linkSender.SendOne(ctx, t, c); err != nil {
		return fmt.Errorf("failed to resend magic link: %w", err)
	}
	return nil
}

func (s *competitorService) ListForImport(ctx context.Context, tournamentID string) ([]ImportCandidate, error) {
	if _, err := s.requireTournament(ctx, tournamentID); err != nil {
		return nil, err
	}
	competitors, err := s.competitorRepo.ListByTournament(ctx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list competitors: %w", err)
	}
	out := make([]ImportCandidate, 0, len(competitors))
	for _, c := range competitors {
		out = append(out, ImportCandidate{FirstName: c.FirstName, LastName: c.LastName, Email: c.Email})
	}
	return out, nil
}

// Import добавляет участников в турнир, пропуская email (без учёта регистра),
// которые уже есть в турнире или повторяются в самом списке.
func (s *competitorService) Import(ctx context.Context, tournamentID string, candidates []ImportCandidate) (*ImportResult, error) {
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: competitors array is required", ErrValidationFailed)
	}

	cleaned := make([]CompetitorInput, 0, len(candidates))
	for i, cand := range candidates {
		in, err := cleanCompetitorInput(CompetitorInput{FirstName: cand.FirstName, LastName: cand.LastName, Email: cand.Email})
		if err != nil {
			return nil, fmt.Errorf("competitor #%d: %w", i+1, err)
		}
		cleaned = append(cleaned, in)
	}

	if _, err := s.requireTournament(ctx, tournamentID); err != nil {
		return nil, err
	}
	existing, err := s.competitorRepo.ListByTournament(ctx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list existing competitors: %w", err)
	}
	seen := make(map[string]bool, len(existing)+len(cleaned))
	for _, c := range existing {
		seen[normalizeEmail(c.Email)] = true
	}

	toCreate := make([]*models.Competitor, 0, len(cleaned))
	for _, in := range cleaned {
		key := normalizeEmail(in.Email)
		if seen[key] {
			continue
		}
		seen[key] = true
		c, err := s.newCompetitor(tournamentID, in)
		if err != nil {
			return nil, err
		}
		toCreate = append(toCreate, c)
	}

	err = s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		for _, c := range toCreate {
			if err := s.competitorRepo.Create(ctx, exec, c); err != nil {
				return mapCompetitorRepoError(err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to import competitors: %w", err)
	}

	result := &ImportResult{Imported: len(toCreate), Skipped: len(candidates) - len(toCreate)}
	s.logger.Info("competitors imported",
		slog.String("tournament_id", tournamentID),
		slog.Int("imported", result.Imported),
		slog.Int("skipped", result.Skipped),
	)
	return result, nil
}
