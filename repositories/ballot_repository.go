package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/speech-ballots/models"
)

var (
	ErrBallotNotFound         = errors.New("ballot not found")
	ErrBallotAlreadySubmitted = errors.New("ballot is already submitted")
	ErrDraftConflict          = errors.New("open draft already exists for device, competitor and event type")
	ErrBallotInvalidReference = errors.New("invalid competitor or event type reference")
)

var ballotConstraintErrors = map[string]error{
	"ballots_open_draft_idx":     ErrDraftConflict,
	"ballots_competitor_id_fkey": ErrBallotInvalidReference,
	"ballots_event_type_id_fkey": ErrBallotInvalidReference,
	"ballots_tournament_id_fkey": ErrBallotInvalidReference,
}

type ListBallotsFilter struct {
	TournamentID *string
	Status       *models.BallotStatus
}

type BallotRepository interface {
	FindOpenDraft(ctx context.Context, exec SQLExecutor, key models.DraftKey) (*models.Ballot, error)
	Create(ctx context.Context, exec SQLExecutor, b *models.Ballot) error
	UpdateDraft(ctx context.Context, exec SQLExecutor, b *models.Ballot) error
	MarkSubmitted(ctx context.Context, exec SQLExecutor, b *models.Ballot) error
	List(ctx context.Context, filter ListBallotsFilter) ([]models.Ballot, error)
	ListSubmittedByCompetitor(ctx context.Context, competitorID string) ([]models.Ballot, error)
	ListSubmittedForRanking(ctx context.Context, tournamentID string) ([]models.Ballot, error)
}

type postgresBallotRepository struct {
	db *sql.DB
}

func NewPostgresBallotRepository(db *sql.DB) BallotRepository {
	return &postgresBallotRepository{db: db}
}

func (r *postgresBallotRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const ballotColumns = `
	b.id, b.tournament_id, b.competitor_id, b.event_type_id, b.device_id, b.judge_name,
	b.score_content, b.score_organization_citations, b.score_category_3, b.score_category_4, b.score_impact,
	b.comments_content, b.comments_organization_citations, b.comments_category_3, b.comments_category_4,
	b.comments_impact, b.overall_comments,
	b.total_time_seconds, b.speaker_rank, b.status, b.draft_saved_at, b.submitted_at,
	b.ip_address, b.user_agent, b.created_at, b.updated_at`

func ballotDest(b *models.Ballot) []interface{} {
	return []interface{}{
		&b.ID, &b.TournamentID, &b.CompetitorID, &b.EventTypeID, &b.DeviceID, &b.JudgeName,
		&b.Scores.Content, &b.Scores.OrganizationCitations, &b.Scores.Category3, &b.Scores.Category4, &b.Scores.Impact,
		&b.Comments.Content, &b.Comments.OrganizationCitations, &b.Comments.Category3, &b.Comments.Category4,
		&b.Comments.Impact, &b.Comments.Overall,
		&b.TotalTimeSeconds, &b.SpeakerRank, &b.Status, &b.DraftSavedAt, &b.SubmittedAt,
		&b.IPAddress, &b.UserAgent, &b.CreatedAt, &b.UpdatedAt,
	}
}

// FindOpenDraft ищет открытый черновик по ключу и блокирует строку до конца транзакции.
func (r *postgresBallotRepository) FindOpenDraft(ctx context.Context, exec SQLExecutor, key models.DraftKey) (*models.Ballot, error) {
	query := `SELECT` + ballotColumns + `
		FROM ballots b
		WHERE b.device_id = $1 AND b.competitor_id = $2 AND b.event_type_id = $3 AND b.status = $4
		LIMIT 1
		FOR UPDATE`

	b := &models.Ballot{}
	err := r.getExecutor(exec).QueryRowContext(ctx, query,
		key.DeviceID, key.CompetitorID, key.EventTypeID, models.BallotDraft,
	).Scan(ballotDest(b)...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBallotNotFound
		}
		return nil, err
	}
	return b, nil
}

func (r *postgresBallotRepository) Create(ctx context.Context, exec SQLExecutor, b *models.Ballot) error {
	query := `
		INSERT INTO ballots (
			id, tournament_id, competitor_id, event_type_id, device_id, judge_name,
			score_content, score_organization_citations, score_category_3, score_category_4, score_impact,
			comments_content, comments_organization_citations, comments_category_3, comments_category_4,
			comments_impact, overall_comments,
			total_time_seconds, speaker_rank, status, draft_saved_at, submitted_at, ip_address, user_agent
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24)
		RETURNING created_at, updated_at`

	err := r.getExecutor(exec).QueryRowContext(ctx, query,
		b.ID, b.TournamentID, b.CompetitorID, b.EventTypeID, b.DeviceID, b.JudgeName,
		b.Scores.Content, b.Scores.OrganizationCitations, b.Scores.Category3, b.Scores.Category4, b.Scores.Impact,
		b.Comments.Content, b.Comments.OrganizationCitations, b.Comments.Category3, b.Comments.Category4,
		b.Comments.Impact, b.Comments.Overall,
		b.TotalTimeSeconds, b.SpeakerRank, b.Status, b.DraftSavedAt, b.SubmittedAt, b.IPAddress, b.UserAgent,
	).Scan(&b.CreatedAt, &b.UpdatedAt)
	return mapPQError(err, ballotConstraintErrors)
}

// UpdateDraft перезаписывает поля черновика, draft_saved_at и метаданные запроса.
func (r *postgresBallotRepository) UpdateDraft(ctx context.Context, exec SQLExecutor, b *models.Ballot) error {
	query := `
		UPDATE ballots SET
			judge_name = $1,
			score_content = $2, score_organization_citations = $3, score_category_3 = $4,
			score_category_4 = $5, score_impact = $6,
			comments_content = $7, comments_organization_citations = $8, comments_category_3 = $9,
			comments_category_4 = $10, comments_impact = $11, overall_comments = $12,
			total_time_seconds = $13, speaker_rank = $14, draft_saved_at = $15,
			ip_address = $16, user_agent = $17, updated_at = NOW()
		WHERE id = $18 AND status = $19
		RETURNING updated_at`

	err := r.getExecutor(exec).QueryRowContext(ctx, query,
		b.JudgeName,
		b.Scores.Content, b.Scores.OrganizationCitations, b.Scores.Category3, b.Scores.Category4, b.Scores.Impact,
		b.Comments.Content, b.Comments.OrganizationCitations, b.Comments.Category3, b.Comments.Category4,
		b.Comments.Impact, b.Comments.Overall,
		b.TotalTimeSeconds, b.SpeakerRank, b.DraftSavedAt, b.IPAddress, b.UserAgent,
		b.ID, models.BallotDraft,
	).Scan(&b.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrBallotAlreadySubmitted
	}
	return mapPQError(err, ballotConstraintErrors)
}

// MarkSubmitted переводит черновик в submitted, перезаписывая поля финальными значениями.
func (r *postgresBallotRepository) MarkSubmitted(ctx context.Context, exec SQLExecutor, b *models.Ballot) error {
	query := `
		UPDATE ballots SET
			judge_name = $1,
			score_content = $2, score_organization_citations = $3, score_category_3 = $4,
			score_category_4 = $5, score_impact = $6,
			comments_content = $7, comments_organization_citations = $8, comments_category_3 = $9,
			comments_category_4 = $10, comments_impact = $11, overall_comments = $12,
			total_time_seconds = $13, speaker_rank = $14,
			status = $15, submitted_at = $16, ip_address = $17, user_agent = $18, updated_at = NOW()
		WHERE id = $19 AND status = $20
		RETURNING updated_at`

	err := r.getExecutor(exec).QueryRowContext(ctx, query,
		b.JudgeName,
		b.Scores.Content, b.Scores.OrganizationCitations, b.Scores.Category3, b.Scores.Category4, b.Scores.Impact,
		b.Comments.Content, b.Comments.OrganizationCitations, b.Comments.Category3, b.Comments.Category4,
		b.Comments.Impact, b.Comments.Overall,
		b.TotalTimeSeconds, b.SpeakerRank,
		models.BallotSubmitted, b.SubmittedAt, b.IPAddress, b.UserAgent,
		b.ID, models.BallotDraft,
	).Scan(&b.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrBallotAlreadySubmitted
	}
	return mapPQError(err, ballotConstraintErrors)
}

func (r *postgresBallotRepository) List(ctx context.Context, filter ListBallotsFilter) ([]models.Ballot, error) {
	query := `SELECT` + ballotColumns + `,
			c.first_name || ' ' || c.last_name, e.display_name
		FROM ballots b
		JOIN competitors c ON c.id = b.competitor_id
		JOIN event_types e ON e.id = b.event_type_id
		WHERE 1=1`

	args := []interface{}{}
	argID := 1
	if filter.TournamentID != nil {
		query += fmt.Sprintf(" AND b.tournament_id = $%d", argID)
		args = append(args, *filter.TournamentID)
		argID++
	}
	if filter.Status != nil {
		query += fmt.Sprintf(" AND b.status = $%d", argID)
		args = append(args, *filter.Status)
	}
	query += " ORDER BY b.created_at DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ballots := make([]models.Ballot, 0)
	for rows.Next() {
		var b models.Ballot
		dest := append(ballotDest(&b), &b.CompetitorName, &b.EventTypeName)
		if scanErr := rows.Scan(dest...); scanErr != nil {
			return nil, scanErr
		}
		ballots = append(ballots, b)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return ballots, nil
}

// ListSubmittedByCompetitor возвращает только отправленные бюллетени, новые первыми.
func (r *postgresBallotRepository) ListSubmittedByCompetitor(ctx context.Context, competitorID string) ([]models.Ballot, error) {
	query := `SELECT` + ballotColumns + `, e.display_name, e.rubric_config
		FROM ballots b
		JOIN event_types e ON e.id = b.event_type_id
		WHERE b.competitor_id = $1 AND b.status = $2
		ORDER BY b.submitted_at DESC`

	rows, err := r.db.QueryContext(ctx, query, competitorID, models.BallotSubmitted)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ballots := make([]models.Ballot, 0)
	for rows.Next() {
		var b models.Ballot
		var cfg models.RubricConfig
		dest := append(ballotDest(&b), &b.EventTypeName, &cfg)
		if scanErr := rows.Scan(dest...); scanErr != nil {
			return nil, scanErr
		}
		b.RubricConfig = &cfg
		ballots = append(ballots, b)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return ballots, nil
}

func (r *postgresBallotRepository) ListSubmittedForRanking(ctx context.Context, tournamentID string) ([]models.Ballot, error) {
	status := models.BallotSubmitted
	return r.List(ctx, ListBallotsFilter{TournamentID: &tournamentID, Status: &status})
}
