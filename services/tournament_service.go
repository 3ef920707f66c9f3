package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Dosada05/speech-ballots/models"
	"github.com/Dosada05/speech-ballots/repositories"
)

const noActiveTournamentMessage = "No active tournament. Please check back later."

type CreateTournamentInput struct {
	Name        string `json:"name"`
	MeetingDate string `json:"meetingDate"`
}

// TournamentStatusView - ответ публичного эндпоинта статуса.
type TournamentStatusView struct {
	HasActiveTournament bool               `json:"hasActiveTournament"`
	Tournament          *models.Tournament `json:"tournament"`
	Message             string             `json:"message,omitempty"`
}

// CloseResult - итог закрытия турнира и рассылки ссылок.
type CloseResult struct {
	Tournament *models.Tournament `json:"tournament"`
	LinkDispatch
	ArchiveURL string `json:"archiveUrl,omitempty"`
}

type TournamentService interface {
	Create(ctx context.Context, input CreateTournamentInput) (*models.Tournament, error)
	Get(ctx context.Context, id string) (*models.Tournament, error)
	List(ctx context.Context) ([]models.Tournament, error)
	ListPast(ctx context.Context) ([]models.Tournament, error)
	Status(ctx context.Context) (*TournamentStatusView, error)
	Close(ctx context.Context, id string) (*CloseResult, error)
	SendAllLinks(ctx context.Context, id string) (*LinkDispatch, error)
}

type tournamentService struct {
	tx             repositories.Transactor
	tournamentRepo repositories.TournamentRepository
	competitorRepo repositories.CompetitorRepository
	linkSender     *LinkSender
	rankingService RankingService
	clock          Clock
	logger         *slog.Logger
}

func NewTournamentService(
	tx repositories.Transactor,
	tournamentRepo repositories.TournamentRepository,
	competitorRepo repositories.CompetitorRepository,
	linkSender *LinkSender,
	rankingService RankingService,
	clock Clock,
	logger *slog.Logger,
) TournamentService {
	return &tournamentService{
		tx:             tx,
		tournamentRepo: tournamentRepo,
		competitorRepo: competitorRepo,
		linkSender:     linkSender,
		rankingService: rankingService,
		clock:          clockOrDefault(clock),
		logger:         logger,
	}
}

// parseMeetingDate принимает дату "2006-01-02" или RFC3339.
func parseMeetingDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, fmt.Errorf("%w: %w", ErrValidationFailed, ErrInvalidMeetingDate)
	}
	if d, err := time.Parse("2006-01-02", raw); err == nil {
		return d, nil
	}
	d, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: meeting date %q must be YYYY-MM-DD or RFC3339", ErrValidationFailed, raw)
	}
	return d.UTC(), nil
}

// Create закрывает текущий активный турнир и создаёт новый в одной транзакции.
func (s *tournamentService) Create(ctx context.Context, input CreateTournamentInput) (*models.Tournament, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: %w: name", ErrValidationFailed, ErrMissingField)
	}
	meetingDate, err := parseMeetingDate(input.MeetingDate)
	if err != nil {
		return nil, err
	}

	t := &models.Tournament{
		ID:          newID(),
		Name:        name,
		MeetingDate: meetingDate,
		Status:      models.TournamentActive,
	}

	var closed int64
	err = s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		n, err := s.tournamentRepo.CloseActive(ctx, exec, s.clock())
		if err != nil {
			return fmt.Errorf("failed to close active tournament: %w", err)
		}
		closed = n
		return s.tournamentRepo.Create(ctx, exec, t)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create tournament: %w", err)
	}

	s.logger.Info("tournament created",
		slog.String("tournament_id", t.ID),
		slog.String("name", t.Name),
		slog.Int64("auto_closed", closed),
	)
	return t, nil
}

func (s *tournamentService) Get(ctx context.Context, id string) (*models.Tournament, error) {
	t, err := s.tournamentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to get tournament %s: %w", id, err)
	}
	return t, nil
}

func (s *tournamentService) List(ctx context.Context) ([]models.Tournament, error) {
	tournaments, err := s.tournamentRepo.List(ctx, repositories.ListTournamentsFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to list tournaments: %w", err)
	}
	return tournaments, nil
}

func (s *tournamentService) ListPast(ctx context.Context) ([]models.Tournament, error) {
	closed := models.TournamentClosed
	tournaments, err := s.tournamentRepo.List(ctx, repositories.ListTournamentsFilter{
		Status:        &closed,
		ByMeetingDate: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list past tournaments: %w", err)
	}
	return tournaments, nil
}

func (s *tournamentService) Status(ctx context.Context) (*TournamentStatusView, error) {
	t, err := s.tournamentRepo.GetActive(ctx, nil)
	if err != nil {
		if errors.Is(err, repositories.ErrNoActiveTournamentFound) {
			return &TournamentStatusView{HasActiveTournament: false, Message: noActiveTournamentMessage}, nil
		}
		return nil, fmt.Errorf("failed to check tournament status: %w", err)
	}
	return &TournamentStatusView{HasActiveTournament: true, Tournament: t}, nil
}

// Close переводит турнир в closed, затем рассылает ссылки и архивирует результаты.
// Ошибки рассылки и архивации не отменяют закрытие.
func (s *tournamentService) Close(ctx context.Context, id string) (*CloseResult, error) {
	t, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !t.Status.CanTransitionTo(models.TournamentClosed) {
		return nil, ErrTournamentAlreadyClosed
	}

	if err := s.tournamentRepo.Close(ctx, nil, id, s.clock()); err != nil {
		if errors.Is(err, repositories.ErrTournamentNotActive) {
			return nil, ErrTournamentAlreadyClosed
		}
		return nil, fmt.Errorf("failed to close tournament %s: %w", id, err)
	}

	t, err = s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.logger.Info("tournament closed", slog.String("tournament_id", id))

	dispatch, err := s.dispatch(ctx, t)
	if err != nil {
		return nil, err
	}
	result := &CloseResult{Tournament: t, LinkDispatch: *dispatch}

	if s.rankingService != nil {
		archived, err := s.rankingService.Archive(ctx, id)
		switch {
		case err == nil:
			result.ArchiveURL = archived.Location
		case errors.Is(err, ErrStorageNotConfigured):
		default:
			s.logger.Error("failed to archive rankings", slog.String("tournament_id", id), slog.Any("error", err))
		}
	}
	return result, nil
}

func (s *tournamentService) SendAllLinks(ctx context.Context, id string) (*LinkDispatch, error) {
	t, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.dispatch(ctx, t)
}

func (s *tournamentService) dispatch(ctx context.Context, t *models.Tournament) (*LinkDispatch, error) {
	competitors, err := s.competitorRepo.ListByTournament(ctx, t.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list competitors for tournament %s: %w", t.ID, err)
	}
	result := s.linkSender.SendAll(ctx, t, competitors)
	return &result, nil
}
