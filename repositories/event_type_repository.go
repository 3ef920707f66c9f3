package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Dosada05/speech-ballots/models"
)

var ErrEventTypeNotFound = errors.New("event type not found")

type EventTypeRepository interface {
	List(ctx context.Context) ([]models.EventType, error)
	GetByID(ctx context.Context, id int) (*models.EventType, error)
	Upsert(ctx context.Context, et *models.EventType) error
}

type postgresEventTypeRepository struct {
	db *sql.DB
}

func NewPostgresEventTypeRepository(db *sql.DB) EventTypeRepository {
	return &postgresEventTypeRepository{db: db}
}

func (r *postgresEventTypeRepository) List(ctx context.Context) ([]models.EventType, error) {
	query := `
		SELECT id, name, display_name, rubric_config, created_at
		FROM event_types
		ORDER BY display_name ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	eventTypes := make([]models.EventType, 0)
	for rows.Next() {
		var et models.EventType
		if scanErr := rows.Scan(&et.ID, &et.Name, &et.DisplayName, &et.RubricConfig, &et.CreatedAt); scanErr != nil {
			return nil, scanErr
		}
		eventTypes = append(eventTypes, et)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return eventTypes, nil
}

func (r *postgresEventTypeRepository) GetByID(ctx context.Context, id int) (*models.EventType, error) {
	query := `SELECT id, name, display_name, rubric_config, created_at FROM event_types WHERE id = $1`

	et := &models.EventType{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&et.ID, &et.Name, &et.DisplayName, &et.RubricConfig, &et.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEventTypeNotFound
		}
		return nil, err
	}
	return et, nil
}

// Upsert вставляет вид выступления или обновляет существующий с тем же name.
func (r *postgresEventTypeRepository) Upsert(ctx context.Context, et *models.EventType) error {
	query := `
		INSERT INTO event_types (name, display_name, rubric_config)
		VALUES ($1, $2, $3)
		ON CONFLICT (name) DO UPDATE
			SET display_name = EXCLUDED.display_name, rubric_config = EXCLUDED.rubric_config
		RETURNING id, created_at`

	return r.db.QueryRowContext(ctx, query, et.Name, et.DisplayName, et.RubricConfig).Scan(&et.ID, &et.CreatedAt)
}
