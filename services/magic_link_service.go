package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Dosada05/speech-ballots/models"
	"github.com/Dosada05/speech-ballots/repositories"
)

// MagicLinkResult - то, что участник видит по своей ссылке.
type MagicLinkResult struct {
	Competitor *models.Competitor `json:"competitor"`
	Tournament *models.Tournament `json:"tournament"`
	Ballots    []models.Ballot    `json:"ballots"`
	ExpiresAt  time.Time          `json:"expiresAt"`
}

type MagicLinkService interface {
	Resolve(ctx context.Context, token string) (*MagicLinkResult, error)
}

type magicLinkService struct {
	competitorRepo repositories.CompetitorRepository
	tournamentRepo repositories.TournamentRepository
	ballotRepo     repositories.BallotRepository
	clock          Clock
}

func NewMagicLinkService(
	competitorRepo repositories.CompetitorRepository,
	tournamentRepo repositories.TournamentRepository,
	ballotRepo repositories.BallotRepository,
	clock Clock,
) MagicLinkService {
	return &magicLinkService{
		competitorRepo: competitorRepo,
		tournamentRepo: tournamentRepo,
		ballotRepo:     ballotRepo,
		clock:          clockOrDefault(clock),
	}
}

func (s *magicLinkService) Resolve(ctx context.Context, token string) (*MagicLinkResult, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrInvalidMagicLink
	}

	competitor, err := s.competitorRepo.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, repositories.ErrCompetitorNotFound) {
			return nil, ErrInvalidMagicLink
		}
		return nil, fmt.Errorf("failed to look up magic link: %w", err)
	}

	tournament, err := s.tournamentRepo.GetByID(ctx, competitor.TournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrInvalidMagicLink
		}
		return nil, fmt.Errorf("failed to load tournament %s: %w", competitor.TournamentID, err)
	}

	expiresAt := tournament.MagicLinkExpiry()
	if s.clock().After(expiresAt) {
		return nil, ErrMagicLinkExpired
	}

	ballots, err := s.ballotRepo.ListSubmittedByCompetitor(ctx, competitor.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load ballots for competitor %s: %w", competitor.ID, err)
	}

	// Черновики по ссылке не отдаются.
	visible := make([]models.Ballot, 0, len(ballots))
	for _, b := range ballots {
		if b.Status == models.BallotSubmitted {
			visible = append(visible, b)
		}
	}
	sort.SliceStable(visible, func(i, j int) bool {
		return submittedAfter(visible[i].SubmittedAt, visible[j].SubmittedAt)
	})

	return &MagicLinkResult{
		Competitor: competitor,
		Tournament: tournament,
		Ballots:    visible,
		ExpiresAt:  expiresAt,
	}, nil
}

// submittedAfter: новые первыми, бюллетени без времени отправки в конце.
func submittedAfter(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a != nil && b == nil
	}
	return a.After(*b)
}
