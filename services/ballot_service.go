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

// DraftTTL - возраст, после которого черновик считается просроченным (строка не удаляется).
const DraftTTL = 48 * time.Hour

const draftExpiredMessage = "Draft expired (older than 48 hours)"

// BallotInput - поля бюллетеня от судьи. Для черновика обязательны только идентификаторы.
type BallotInput struct {
	DeviceID     string `json:"deviceId"`
	CompetitorID string `json:"competitorId"`
	EventTypeID  int    `json:"eventTypeId"`
	JudgeName    string `json:"judgeName"`

	models.Scores
	models.Comments

	TotalTimeSeconds *int `json:"totalTimeSeconds"`
	SpeakerRank      *int `json:"speakerRank"`
}

func (in BallotInput) key() models.DraftKey {
	return models.DraftKey{DeviceID: in.DeviceID, CompetitorID: in.CompetitorID, EventTypeID: in.EventTypeID}
}

type DraftSaved struct {
	BallotID string    `json:"ballotId"`
	SavedAt  time.Time `json:"savedAt"`
}

type DraftLookup struct {
	HasDraft bool           `json:"hasDraft"`
	Draft    *models.Ballot `json:"draft,omitempty"`
	Message  string         `json:"message,omitempty"`
}

// SubmissionPublisher получает уведомление о каждом отправленном бюллетене.
type SubmissionPublisher interface {
	PublishSubmission(ballot *models.Ballot)
}

type BallotService interface {
	SaveDraft(ctx context.Context, input BallotInput, meta models.RequestMeta) (*DraftSaved, error)
	GetDraft(ctx context.Context, key models.DraftKey) (*DraftLookup, error)
	Submit(ctx context.Context, input BallotInput, meta models.RequestMeta) (*models.Ballot, error)
	ListBallots(ctx context.Context, filter repositories.ListBallotsFilter) ([]models.Ballot, error)
}

type ballotService struct {
	tx             repositories.Transactor
	ballotRepo     repositories.BallotRepository
	tournamentRepo repositories.TournamentRepository
	publisher      SubmissionPublisher
	clock          Clock
	logger         *slog.Logger
}

func NewBallotService(
	tx repositories.Transactor,
	ballotRepo repositories.BallotRepository,
	tournamentRepo repositories.TournamentRepository,
	publisher SubmissionPublisher,
	clock Clock,
	logger *slog.Logger,
) BallotService {
	return &ballotService{
		tx:             tx,
		ballotRepo:     ballotRepo,
		tournamentRepo: tournamentRepo,
		publisher:      publisher,
		clock:          clockOrDefault(clock),
		logger:         logger,
	}
}

func validateDraftKey(key models.DraftKey) error {
	var missing []string
	if strings.TrimSpace(key.DeviceID) == "" {
		missing = append(missing, "deviceId")
	}
	if strings.TrimSpace(key.CompetitorID) == "" {
		missing = append(missing, "competitorId")
	}
	if key.EventTypeID <= 0 {
		missing = append(missing, "eventTypeId")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %w: %s", ErrValidationFailed, ErrMissingField, strings.Join(missing, ", "))
	}
	return nil
}

func validateSubmission(in BallotInput) error {
	var missing []string
	if strings.TrimSpace(in.CompetitorID) == "" {
		missing = append(missing, "competitorId")
	}
	if in.EventTypeID <= 0 {
		missing = append(missing, "eventTypeId")
	}
	if strings.TrimSpace(in.JudgeName) == "" {
		missing = append(missing, "judgeName")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %w: %s", ErrValidationFailed, ErrMissingField, strings.Join(missing, ", "))
	}
	if err := validateFinalScores(in.Scores); err != nil {
		return err
	}
	if in.SpeakerRank != nil && !inRange(*in.SpeakerRank, models.MinSpeakerRank, models.MaxSpeakerRank) {
		return fmt.Errorf("%w: %w: %d", ErrValidationFailed, ErrSpeakerRankInvalid, *in.SpeakerRank)
	}
	return nil
}

func applyInput(b *models.Ballot, in BallotInput) {
	b.JudgeName = strings.TrimSpace(in.JudgeName)
	b.Scores = in.Scores
	b.Comments = in.Comments
	b.TotalTimeSeconds = in.TotalTimeSeconds
	b.SpeakerRank = in.SpeakerRank
}

func (s *ballotService) activeTournament(ctx context.Context, exec repositories.SQLExecutor) (*models.Tournament, error) {
	t, err := s.tournamentRepo.GetActive(ctx, exec)
	if err != nil {
		if errors.Is(err, repositories.ErrNoActiveTournamentFound) {
			return nil, ErrNoActiveTournament
		}
		return nil, fmt.Errorf("failed to load active tournament: %w", err)
	}
	return t, nil
}

func mapBallotWriteError(err error) error {
	switch {
	case errors.Is(err, repositories.ErrBallotInvalidReference):
		return fmt.Errorf("%w: unknown competitor or event type", ErrNotFound)
	case errors.Is(err, repositories.ErrBallotAlreadySubmitted):
		return ErrBallotAlreadySubmitted
	}
	return err
}

// withDraftRetry повторяет транзакцию один раз, если параллельный запрос успел создать черновик с тем же ключом.
func (s *ballotService) withDraftRetry(ctx context.Context, fn func(exec repositories.SQLExecutor) error) error {
	err := s.tx.WithinTx(ctx, fn)
	if errors.Is(err, repositories.ErrDraftConflict) {
		s.logger.Warn("concurrent draft insert detected, retrying")
		err = s.tx.WithinTx(ctx, fn)
	}
	return err
}

func (s *ballotService) SaveDraft(ctx context.Context, input BallotInput, meta models.RequestMeta) (*DraftSaved, error) {
	if err := validateDraftKey(input.key()); err != nil {
		return nil, err
	}

	var saved *models.Ballot
	err := s.withDraftRetry(ctx, func(exec repositories.SQLExecutor) error {
		tournament, err := s.activeTournament(ctx, exec)
		if err != nil {
			return err
		}
		now := s.clock()

		draft, err := s.ballotRepo.FindOpenDraft(ctx, exec, input.key())
		switch {
		case err == nil:
			applyInput(draft, input)
			draft.DraftSavedAt = timePtr(now)
			draft.IPAddress, draft.UserAgent = meta.IPAddress, meta.UserAgent
			if err := s.ballotRepo.UpdateDraft(ctx, exec, draft); err != nil {
				return err
			}
			saved = draft
			return nil
		case errors.Is(err, repositories.ErrBallotNotFound):
			draft = &models.Ballot{
				ID:           newID(),
				TournamentID: tournament.ID,
				CompetitorID: input.CompetitorID,
				EventTypeID:  input.EventTypeID,
				DeviceID:     input.DeviceID,
				Status:       models.BallotDraft,
				DraftSavedAt: timePtr(now),
				IPAddress:    meta.IPAddress,
				UserAgent:    meta.UserAgent,
			}
			applyInput(draft, input)
			if err := s.ballotRepo.Create(ctx, exec, draft); err != nil {
				return err
			}
			saved = draft
			return nil
		default:
			return err
		}
	})
	if err != nil {
		if errors.Is(err, ErrNoActiveTournament) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to save draft: %w", mapBallotWriteError(err))
	}

	return &DraftSaved{BallotID: saved.ID, SavedAt: *saved.DraftSavedAt}, nil
}

func (s *ballotService) GetDraft(ctx context.Context, key models.DraftKey) (*DraftLookup, error) {
	if err := validateDraftKey(key); err != nil {
		return nil, err
	}

	draft, err := s.ballotRepo.FindOpenDraft(ctx, nil, key)
	if err != nil {
		if errors.Is(err, repositories.ErrBallotNotFound) {
			return &DraftLookup{HasDraft: false}, nil
		}
		return nil, fmt.Errorf("failed to load draft: %w", err)
	}

	if draft.DraftSavedAt == nil || s.clock().Sub(*draft.DraftSavedAt) > DraftTTL {
		return &DraftLookup{HasDraft: false, Message: draftExpiredMessage}, nil
	}
	return &DraftLookup{HasDraft: true, Draft: draft}, nil
}

func (s *ballotService) Submit(ctx context.Context, input BallotInput, meta models.RequestMeta) (*models.Ballot, error) {
	if err := validateSubmission(input); err != nil {
		return nil, err
	}

	var submitted *models.Ballot
	err := s.withDraftRetry(ctx, func(exec repositories.SQLExecutor) error {
		tournament, err := s.activeTournament(ctx, exec)
		if err != nil {
			return err
		}
		now := s.clock()

		if input.DeviceID != "" {
			draft, err := s.ballotRepo.FindOpenDraft(ctx, exec, input.key())
			switch {
			case err == nil:
				if !draft.Status.CanTransitionTo(models.BallotSubmitted) {
					return ErrBallotAlreadySubmitted
				}
				applyInput(draft, input)
				draft.Status = models.BallotSubmitted
				draft.SubmittedAt = timePtr(now)
				draft.IPAddress = meta.IPAddress
				draft.UserAgent = meta.UserAgent
				if err := s.ballotRepo.MarkSubmitted(ctx, exec, draft); err != nil {
					return err
				}
				submitted = draft
				return nil
			case !errors.Is(err, repositories.ErrBallotNotFound):
				return err
			}
		}

		ballot := &models.Ballot{
			ID:           newID(),
			TournamentID: tournament.ID,
			CompetitorID: input.CompetitorID,
			EventTypeID:  input.EventTypeID,
			DeviceID:     input.DeviceID,
			Status:       models.BallotSubmitted,
			SubmittedAt:  timePtr(now),
			IPAddress:    meta.IPAddress,
			UserAgent:    meta.UserAgent,
		}
		applyInput(ballot, input)
		if err := s.ballotRepo.Create(ctx, exec, ballot); err != nil {
			return err
		}
		submitted = ballot
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrNoActiveTournament) || errors.Is(err, ErrBallotAlreadySubmitted) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to submit ballot: %w", mapBallotWriteError(err))
	}

	s.logger.Info("ballot submitted",
		slog.String("ballot_id", submitted.ID),
		slog.String("tournament_id", submitted.TournamentID),
		slog.String("competitor_id", submitted.CompetitorID),
		slog.Int("event_type_id", submitted.EventTypeID),
	)
	if s.publisher != nil {
		s.publisher.PublishSubmission(submitted)
	}
	return submitted, nil
}

func (s *ballotService) ListBallots(ctx context.Context, filter repositories.ListBallotsFilter) ([]models.Ballot, error) {
	if filter.Status != nil && !filter.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown ballot status %q", ErrValidationFailed, *filter.Status)
	}
	ballots, err := s.ballotRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list ballots: %w", err)
	}
	return ballots, nil
}
