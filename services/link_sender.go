package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/Dosada05/speech-ballots/models"
	"github.com/Dosada05/speech-ballots/repositories"
)

const defaultSendConcurrency = 4

// LinkDispatch - итог массовой рассылки. Частичный успех - нормальный результат.
type LinkDispatch struct {
	EmailsSent       int      `json:"emailsSent"`
	TotalCompetitors int      `json:"totalCompetitors"`
	Errors           []string `json:"errors"`
}

// LinkSender рассылает участникам письма со ссылками на их бюллетени.
type LinkSender struct {
	notifier       Notifier
	mailer         *MagicLinkMailer
	competitorRepo repositories.CompetitorRepository
	clock          Clock
	logger         *slog.Logger
	concurrency    int
}

func NewLinkSender(
	notifier Notifier,
	mailer *MagicLinkMailer,
	competitorRepo repositories.CompetitorRepository,
	clock Clock,
	logger *slog.Logger,
	concurrency int,
) *LinkSender {
	if concurrency <= 0 {
		concurrency = defaultSendConcurrency
	}
	return &LinkSender{
		notifier:       notifier,
		mailer:         mailer,
		competitorRepo: competitorRepo,
		clock:          clockOrDefault(clock),
		logger:         logger,
		concurrency:    concurrency,
	}
}

// SendOne отправляет письмо одному участнику и отмечает время отправки.
func (s *LinkSender) SendOne(ctx context.Context, t *models.Tournament, c *models.Competitor) error {
	body, err := s.mailer.Body(c, t)
	if err != nil {
		return err
	}
	if err := s.notifier.Send(ctx, c.Email, s.mailer.Subject(t), body); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", c.Email, err)
	}
	if err := s.competitorRepo.MarkLinkSent(ctx, c.ID, s.clock()); err != nil {
		// Письмо уже ушло, поэтому ошибку только логируем.
		s.logger.Error("failed to record magic link sent time",
			slog.String("competitor_id", c.ID), slog.Any("error", err))
	}
	return nil
}

// SendAll рассылает письма всем участникам. Ошибка одного адресата не прерывает остальных.
func (s *LinkSender) SendAll(ctx context.Context, t *models.Tournament, competitors []models.Competitor) LinkDispatch {
	result := LinkDispatch{TotalCompetitors: len(competitors), Errors: []string{}}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for i := range competitors {
		c := &competitors[i]
		g.Go(func() error {
			err := s.SendOne(gctx, t, c)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				s.logger.Warn("magic link delivery failed",
					slog.String("competitor_id", c.ID), slog.Any("error", err))
				result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", c.FullName(), err))
				return nil
			}
			result.EmailsSent++
			return nil
		})
	}
	_ = g.Wait()

	sort.Strings(result.Errors)
	s.logger.Info("magic links dispatched",
		slog.String("tournament_id", t.ID),
		slog.Int("sent", result.EmailsSent),
		slog.Int("total", result.TotalCompetitors),
	)
	return result
}
