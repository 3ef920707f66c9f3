package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/Dosada05/speech-ballots/models"
	"github.com/Dosada05/speech-ballots/rankings"
	"github.com/Dosada05/speech-ballots/repositories"
	"github.com/Dosada05/speech-ballots/storage"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var ErrStorageNotConfigured = errors.New("object storage is not configured")

// RankingsExport - готовая к отдаче таблица результатов.
type RankingsExport struct {
	Filename    string
	ContentType string
	Data        []byte
}

type RankingService interface {
	Rankings(ctx context.Context, tournamentID string) ([]models.EventLeaderboard, error)
	ExportXLSX(ctx context.Context, tournamentID string) (*RankingsExport, error)
	Archive(ctx context.Context, tournamentID string) (*storage.UploadResult, error)
}

type rankingService struct {
	tournamentRepo repositories.TournamentRepository
	ballotRepo     repositories.BallotRepository
	uploader       storage.FileUploader
	logger         *slog.Logger
}

// NewRankingService: uploader может быть nil, тогда архивирование отключено.
func NewRankingService(
	tournamentRepo repositories.TournamentRepository,
	ballotRepo repositories.BallotRepository,
	uploader storage.FileUploader,
	logger *slog.Logger,
) RankingService {
	return &rankingService{
		tournamentRepo: tournamentRepo,
		ballotRepo:     ballotRepo,
		uploader:       uploader,
		logger:         logger,
	}
}

func (s *rankingService) loadTournament(ctx context.Context, id string) (*models.Tournament, error) {
	t, err := s.tournamentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to load tournament %s: %w", id, err)
	}
	return t, nil
}

func (s *rankingService) compute(ctx context.Context, t *models.Tournament) ([]models.EventLeaderboard, error) {
	ballots, err := s.ballotRepo.ListSubmittedForRanking(ctx, t.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load submitted ballots for tournament %s: %w", t.ID, err)
	}

	entries := make([]rankings.Entry, 0, len(ballots))
	for _, b := range ballots {
		if b.Status != models.BallotSubmitted {
			continue
		}
		entries = append(entries, rankings.Entry{
			EventTypeID:    b.EventTypeID,
			EventTypeName:  b.EventTypeName,
			CompetitorID:   b.CompetitorID,
			CompetitorName: b.CompetitorName,
			Scores:         b.Scores,
		})
	}
	return rankings.Compute(entries), nil
}

func (s *rankingService) Rankings(ctx context.Context, tournamentID string) ([]models.EventLeaderboard, error) {
	t, err := s.loadTournament(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	return s.compute(ctx, t)
}

func (s *rankingService) ExportXLSX(ctx context.Context, tournamentID string) (*RankingsExport, error) {
	t, err := s.loadTournament(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	boards, err := s.compute(ctx, t)
	if err != nil {
		return nil, err
	}

	data, err := buildRankingsWorkbook(boards)
	if err != nil {
		return nil, fmt.Errorf("failed to build rankings workbook for tournament %s: %w", t.ID, err)
	}
	return &RankingsExport{
		Filename:    rankingsFilename(t),
		ContentType: xlsxContentType,
		Data:        data,
	}, nil
}

func (s *rankingService) Archive(ctx context.Context, tournamentID string) (*storage.UploadResult, error) {
	if s.uploader == nil {
		return nil, ErrStorageNotConfigured
	}
	export, err := s.ExportXLSX(ctx, tournamentID)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("rankings/%s/%s", tournamentID, export.Filename)
	result, err := s.uploader.Upload(ctx, key, export.ContentType, bytes.NewReader(export.Data))
	if err != nil {
		return nil, fmt.Errorf("failed to archive rankings for tournament %s: %w", tournamentID, err)
	}
	s.logger.Info("rankings archived", slog.String("tournament_id", tournamentID), slog.String("key", result.Key))
	return result, nil
}

var rankingsHeader = []interface{}{"Rank", "Competitor", "Total Score", "Ballots", "Average Score"}

// sheetName приводит название вида выступления к допустимому имени листа Excel.
func sheetName(name string, used map[string]bool) string {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case ':', '\\', '/', '?', '*', '[', ']':
			return '-'
		}
		return r
	}, strings.TrimSpace(name))
	if cleaned == "" {
		cleaned = "Event"
	}
	if runes := []rune(cleaned); len(runes) > 28 {
		cleaned = string(runes[:28])
	}
	candidate := cleaned
	for i := 2; used[candidate]; i++ {
		candidate = fmt.Sprintf("%s %d", cleaned, i)
	}
	used[candidate] = true
	return candidate
}

func buildRankingsWorkbook(boards []models.EventLeaderboard) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	defaultSheet := f.GetSheetName(f.GetActiveSheetIndex())
	used := make(map[string]bool)

	if len(boards) == 0 {
		name := sheetName("Rankings", used)
		if err := f.SetSheetName(defaultSheet, name); err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(name, "A1", &rankingsHeader); err != nil {
			return nil, err
		}
	}

	for i, board := range boards {
		name := sheetName(board.EventTypeName, used)
		if i == 0 {
			if err := f.SetSheetName(defaultSheet, name); err != nil {
				return nil, err
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return nil, err
		}

		if err := f.SetSheetRow(name, "A1", &rankingsHeader); err != nil {
			return nil, err
		}
		for r, st := range board.Competitors {
			axis, err := excelize.CoordinatesToCellName(1, r+2)
			if err != nil {
				return nil, err
			}
			row := []interface{}{st.Rank, st.CompetitorName, st.TotalScore, st.BallotCount, st.AverageScore}
			if err := f.SetSheetRow(name, axis, &row); err != nil {
				return nil, err
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func rankingsFilename(t *models.Tournament) string {
	return fmt.Sprintf("rankings-%s.xlsx", t.MeetingDate.Format("2006-01-02"))
}
