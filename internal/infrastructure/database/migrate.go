package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema statements are idempotent so db-init can run repeatedly.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS words (
		id               BIGSERIAL PRIMARY KEY,
		english          TEXT NOT NULL,
		turkish          TEXT NOT NULL,
		category         TEXT NOT NULL DEFAULT '',
		example_sentence TEXT NOT NULL DEFAULT '',
		UNIQUE (english, turkish)
	)`,
	`CREATE TABLE IF NOT EXISTS user_progress (
		user_id         BIGINT NOT NULL,
		word_id         BIGINT NOT NULL REFERENCES words (id) ON DELETE CASCADE,
		direction       TEXT NOT NULL,
		leitner_box     INT NOT NULL DEFAULT 0,
		times_asked     INT NOT NULL DEFAULT 0,
		times_correct   INT NOT NULL DEFAULT 0,
		last_asked      TIMESTAMPTZ,
		first_learned   TIMESTAMPTZ,
		session_counter INT NOT NULL DEFAULT 0,
		PRIMARY KEY (user_id, word_id, direction)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_user_progress_box ON user_progress (user_id, direction, leitner_box)`,
	`CREATE TABLE IF NOT EXISTS sessions (
		id            TEXT PRIMARY KEY,
		user_id       BIGINT NOT NULL,
		session_type  TEXT NOT NULL,
		category      TEXT NOT NULL DEFAULT '',
		words_asked   INT NOT NULL DEFAULT 0,
		words_correct INT NOT NULL DEFAULT 0,
		stars_earned  INT NOT NULL DEFAULT 0,
		started_at    TIMESTAMPTZ NOT NULL,
		updated_at    TIMESTAMPTZ NOT NULL,
		ended_at      TIMESTAMPTZ,
		abandoned     BOOLEAN NOT NULL DEFAULT FALSE
	)`,
	`CREATE INDEX IF NOT EXISTS idx_sessions_user ON sessions (user_id, started_at)`,
	`CREATE INDEX IF NOT EXISTS idx_sessions_open ON sessions (updated_at) WHERE ended_at IS NULL`,
	`CREATE TABLE IF NOT EXISTS learner_stats (
		user_id          BIGINT PRIMARY KEY,
		total_stars      INT NOT NULL DEFAULT 0,
		current_streak   INT NOT NULL DEFAULT 0,
		longest_streak   INT NOT NULL DEFAULT 0,
		last_active_date TIMESTAMPTZ
	)`,
	`CREATE TABLE IF NOT EXISTS daily_activity (
		user_id            BIGINT NOT NULL,
		activity_date      TIMESTAMPTZ NOT NULL,
		sessions_completed INT NOT NULL DEFAULT 0,
		words_asked        INT NOT NULL DEFAULT 0,
		words_correct      INT NOT NULL DEFAULT 0,
		stars_earned       INT NOT NULL DEFAULT 0,
		PRIMARY KEY (user_id, activity_date)
	)`,
	`CREATE TABLE IF NOT EXISTS achievements (
		user_id          BIGINT NOT NULL,
		achievement_type TEXT NOT NULL,
		earned_at        TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (user_id, achievement_type)
	)`,
}

// Migrate applies the full schema to the target database.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
