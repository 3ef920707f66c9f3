package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/Dosada05/speech-ballots/models"
)

var (
	ErrCompetitorNotFound      = errors.New("competitor not found")
	ErrCompetitorEmailConflict = errors.New("competitor email already exists in tournament")
	ErrMagicTokenConflict      = errors.New("magic token already in use")
	ErrCompetitorInvalidTourn  = errors.New("invalid tournament reference")
)

var competitorConstraintErrors = map[string]error{
	"competitors_tournament_email_idx": ErrCompetitorEmailConflict,
	"competitors_magic_token_key":      ErrMagicTokenConflict,
	"competitors_tournament_id_fkey":   ErrCompetitorInvalidTourn,
}

type CompetitorRepository interface {
	Create(ctx context.Context, exec SQLExecutor, c *models.Competitor) error
	GetByID(ctx context.Context, id string) (*models.Competitor, error)
	GetByToken(ctx context.Context, token string) (*models.Competitor, error)
	Update(ctx context.Context, c *models.Competitor) error
	Delete(ctx context.Context, id string) error
	ListByTournament(ctx context.Context, tournamentID string) ([]models.Competitor, error)
	MarkLinkSent(ctx context.Context, id string, at time.Time) error
}

type postgresCompetitorRepository struct {
	db *sql.DB
}

func NewPostgresCompetitorRepository(db *sql.DB) CompetitorRepository {
	return &postgresCompetitorRepository{db: db}
}

func (r *postgresCompetitorRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const competitorColumns = `
	c.id, c.tournament_id, c.first_name, c.last_name, c.email, c.magic_token,
	c.magic_link_sent_at, c.created_at, c.updated_at,
	(SELECT COUNT(*) FROM ballots b WHERE b.competitor_id = c.id)`

func scanCompetitor(row rowScanner, c *models.Competitor) error {
	return row.Scan(
		&c.ID, &c.TournamentID, &c.FirstName, &c.LastName, &c.Email, &c.MagicToken,
		&c.MagicLinkSentAt, &c.CreatedAt, &c.UpdatedAt, &c.BallotCount,
	)
}

func (r *postgresCompetitorRepository) Create(ctx context.Context, exec SQLExecutor, c *models.Competitor) error {
	query := `
		INSERT INTO competitors (id, tournament_id, first_name, last_name, email, magic_token)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at`

	err := r.getExecutor(exec).QueryRowContext(ctx, query,
		c.ID, c.TournamentID, c.FirstName, c.LastName, c.Email, c.MagicToken,
	).Scan(&c.CreatedAt, &c.UpdatedAt)
	return mapPQError(err, competitorConstraintErrors)
}

func (r *postgresCompetitorRepository) getOne(ctx context.Context, where string, arg interface{}) (*models.Competitor, error) {
	query := `SELECT` + competitorColumns + ` FROM competitors c WHERE ` + where

	c := &models.Competitor{}
	if err := scanCompetitor(r.db.QueryRowContext(ctx, query, arg), c); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCompetitorNotFound
		}
		return nil, err
	}
	return c, nil
}

func (r *postgresCompetitorRepository) GetByID(ctx context.Context, id string) (*models.Competitor, error) {
	return r.getOne(ctx, "c.id = $1", id)
}

func (r *postgresCompetitorRepository) GetByToken(ctx context.Context, token string) (*models.Competitor, error) {
	return r.getOne(ctx, "c.magic_token = $1", token)
}

// Update меняет только имя и email. Токен не изменяется.
func (r *postgresCompetitorRepository) Update(ctx context.Context, c *models.Competitor) error {
	query := `
		UPDATE competitors SET first_name = $1, last_name = $2, email = $3, updated_at = NOW()
		WHERE id = $4
		RETURNING updated_at`

	err := r.db.QueryRowContext(ctx, query, c.FirstName, c.LastName, c.Email, c.ID).Scan(&c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrCompetitorNotFound
	}
	return mapPQError(err, competitorConstraintErrors)
}

func (r *postgresCompetitorRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM competitors WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrCompetitorNotFound)
}

func (r *postgresCompetitorRepository) ListByTournament(ctx context.Context, tournamentID string) ([]models.Competitor, error) {
	query := `SELECT` + competitorColumns + `
		FROM competitors c
		WHERE c.tournament_id = $1
		ORDER BY c.last_name ASC, c.first_name ASC`

	rows, err := r.db.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	competitors := make([]models.Competitor, 0)
	for rows.Next() {
		var c models.Competitor
		if scanErr := scanCompetitor(rows, &c); scanErr != nil {
			return nil, scanErr
		}
		competitors = append(competitors, c)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return competitors, nil
}

func (r *postgresCompetitorRepository) MarkLinkSent(ctx context.Context, id string, at time.Time) error {
	result, err := r.db.ExecContext(ctx, `UPDATE competitors SET magic_link_sent_at = $1 WHERE id = $2`, at, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrCompetitorNotFound)
}
