package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Dosada05/speech-ballots/models"
)

var (
	ErrTournamentNotFound      = errors.New("tournament not found")
	ErrTournamentNotActive     = errors.New("tournament is not active")
	ErrActiveTournamentExists  = errors.New("another tournament is already active")
	ErrNoActiveTournamentFound = errors.New("no active tournament")
)

type ListTournamentsFilter struct {
	Status        *models.TournamentStatus
	ByMeetingDate bool // сортировка по дате встречи вместо даты создания
	Limit         int
	Offset        int
}

type TournamentRepository interface {
	Create(ctx context.Context, exec SQLExecutor, t *models.Tournament) error
	GetByID(ctx context.Context, id string) (*models.Tournament, error)
	GetActive(ctx context.Context, exec SQLExecutor) (*models.Tournament, error)
	List(ctx context.Context, filter ListTournamentsFilter) ([]models.Tournament, error)
	CloseActive(ctx context.Context, exec SQLExecutor, at time.Time) (int64, error)
	Close(ctx context.Context, exec SQLExecutor, id string, at time.Time) error
}

type postgresTournamentRepository struct {
	db *sql.DB
}

func NewPostgresTournamentRepository(db *sql.DB) TournamentRepository {
	return &postgresTournamentRepository{db: db}
}

func (r *postgresTournamentRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const tournamentColumns = `
	t.id, t.name, t.meeting_date, t.status, t.created_at, t.closed_at,
	(SELECT COUNT(*) FROM competitors c WHERE c.tournament_id = t.id),
	(SELECT COUNT(*) FROM ballots b WHERE b.tournament_id = t.id)`

func scanTournament(row rowScanner, t *models.Tournament) error {
	return row.Scan(
		&t.ID, &t.Name, &t.MeetingDate, &t.Status, &t.CreatedAt, &t.ClosedAt,
		&t.CompetitorCount, &t.BallotCount,
	)
}

func (r *postgresTournamentRepository) Create(ctx context.Context, exec SQLExecutor, t *models.Tournament) error {
	query := `
		INSERT INTO tournaments (id, name, meeting_date, status)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`

	err := r.getExecutor(exec).QueryRowContext(ctx, query, t.ID, t.Name, t.MeetingDate, t.Status).Scan(&t.CreatedAt)
	return mapPQError(err, map[string]error{
		"tournaments_single_active_idx": ErrActiveTournamentExists,
	})
}

func (r *postgresTournamentRepository) GetByID(ctx context.Context, id string) (*models.Tournament, error) {
	query := `SELECT` + tournamentColumns + ` FROM tournaments t WHERE t.id = $1`

	t := &models.Tournament{}
	err := scanTournament(r.db.QueryRowContext(ctx, query, id), t)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	return t, nil
}

func (r *postgresTournamentRepository) GetActive(ctx context.Context, exec SQLExecutor) (*models.Tournament, error) {
	query := `SELECT` + tournamentColumns + ` FROM tournaments t WHERE t.status = $1 LIMIT 1`

	t := &models.Tournament{}
	err := scanTournament(r.getExecutor(exec).QueryRowContext(ctx, query, models.TournamentActive), t)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoActiveTournamentFound
		}
		return nil, err
	}
	return t, nil
}

func (r *postgresTournamentRepository) List(ctx context.Context, filter ListTournamentsFilter) ([]models.Tournament, error) {
	query := `SELECT` + tournamentColumns + ` FROM tournaments t WHERE 1=1`

	args := []interface{}{}
	argID := 1

	if filter.Status != nil {
		query += fmt.Sprintf(" AND t.status = $%d", argID)
		args = append(args, *filter.Status)
		argID++
	}

	if filter.ByMeetingDate {
		query += " ORDER BY t.meeting_date DESC, t.created_at DESC"
	} else {
		query += " ORDER BY t.created_at DESC"
	}

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argID)
		args = append(args, filter.Limit)
		argID++
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argID)
		args = append(args, filter.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tournaments := make([]models.Tournament, 0)
	for rows.Next() {
		var t models.Tournament
		if scanErr := scanTournament(rows, &t); scanErr != nil {
			return nil, scanErr
		}
		tournaments = append(tournaments, t)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return tournaments, nil
}

// CloseActive закрывает все активные турниры и возвращает их количество.
func (r *postgresTournamentRepository) CloseActive(ctx context.Context, exec SQLExecutor, at time.Time) (int64, error) {
	query := `UPDATE tournaments SET status = $1, closed_at = $2 WHERE status = $3`

	result, err := r.getExecutor(exec).ExecContext(ctx, query, models.TournamentClosed, at, models.TournamentActive)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *postgresTournamentRepository) Close(ctx context.Context, exec SQLExecutor, id string, at time.Time) error {
	query := `UPDATE tournaments SET status = $1, closed_at = $2 WHERE id = $3 AND status = $4`

	result, err := r.getExecutor(exec).ExecContext(ctx, query, models.TournamentClosed, at, id, models.TournamentActive)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrTournamentNotActive)
}
