package db

import (
	"context"
	"database/sql"
	"fmt"
)

// Migrate создаёт таблицы и индексы. Повторный вызов безопасен (IF NOT EXISTS).
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

const schema = `
CREATE TABLE IF NOT EXISTS tournaments (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    meeting_date TIMESTAMPTZ NOT NULL,
    status TEXT NOT NULL DEFAULT 'active' CHECK (status IN ('active', 'closed')),
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    closed_at TIMESTAMPTZ
);

-- Не более одного активного турнира
CREATE UNIQUE INDEX IF NOT EXISTS tournaments_single_active_idx
    ON tournaments (status) WHERE status = 'active';

CREATE TABLE IF NOT EXISTS competitors (
    id TEXT PRIMARY KEY,
    tournament_id TEXT NOT NULL REFERENCES tournaments(id) ON DELETE CASCADE,
    first_name TEXT NOT NULL,
    last_name TEXT NOT NULL,
    email TEXT NOT NULL,
    magic_token TEXT NOT NULL,
    magic_link_sent_at TIMESTAMPTZ,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    CONSTRAINT competitors_magic_token_key UNIQUE (magic_token)
);

CREATE INDEX IF NOT EXISTS idx_competitors_tournament_id ON competitors(tournament_id);
CREATE UNIQUE INDEX IF NOT EXISTS competitors_tournament_email_idx
    ON competitors (tournament_id, LOWER(email));

CREATE TABLE IF NOT EXISTS event_types (
    id SERIAL PRIMARY KEY,
    name TEXT NOT NULL UNIQUE,
    display_name TEXT NOT NULL,
    rubric_config JSONB NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS ballots (
    id TEXT PRIMARY KEY,
    tournament_id TEXT NOT NULL REFERENCES tournaments(id) ON DELETE CASCADE,
    competitor_id TEXT NOT NULL REFERENCES competitors(id) ON DELETE CASCADE,
    event_type_id INTEGER NOT NULL REFERENCES event_types(id),
    device_id TEXT NOT NULL DEFAULT '',
    judge_name TEXT NOT NULL DEFAULT '',
    score_content INTEGER,
    score_organization_citations INTEGER,
    score_category_3 INTEGER,
    score_category_4 INTEGER,
    score_impact INTEGER,
    comments_content TEXT NOT NULL DEFAULT '',
    comments_organization_citations TEXT NOT NULL DEFAULT '',
    comments_category_3 TEXT NOT NULL DEFAULT '',
    comments_category_4 TEXT NOT NULL DEFAULT '',
    comments_impact TEXT NOT NULL DEFAULT '',
    overall_comments TEXT NOT NULL DEFAULT '',
    total_time_seconds INTEGER,
    speaker_rank INTEGER,
    status TEXT NOT NULL DEFAULT 'draft' CHECK (status IN ('draft', 'submitted')),
    draft_saved_at TIMESTAMPTZ,
    submitted_at TIMESTAMPTZ,
    ip_address TEXT NOT NULL DEFAULT '',
    user_agent TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    -- Черновик может быть неполным, отправленный бюллетень - нет
    CONSTRAINT ballots_submitted_scores_check CHECK (
        status = 'draft' OR (
            COALESCE(score_content, 0) BETWEEN 1 AND 5
            AND COALESCE(score_organization_citations, 0) BETWEEN 1 AND 5
            AND COALESCE(score_category_3, 0) BETWEEN 1 AND 5
            AND COALESCE(score_category_4, 0) BETWEEN 1 AND 5
            AND COALESCE(score_impact, 0) BETWEEN 1 AND 5
            AND (speaker_rank IS NULL OR speaker_rank BETWEEN 1 AND 5)
        )
    )
);

CREATE INDEX IF NOT EXISTS idx_ballots_tournament_status ON ballots(tournament_id, status);
CREATE INDEX IF NOT EXISTS idx_ballots_competitor_status ON ballots(competitor_id, status);

-- Один открытый черновик на (устройство, участник, вид выступления)
CREATE UNIQUE INDEX IF NOT EXISTS ballots_open_draft_idx
    ON ballots (device_id, competitor_id, event_type_id) WHERE status = 'draft';
`
