package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nbennett1978/vocab-trainer/internal/entity"
	"github.com/nbennett1978/vocab-trainer/internal/repository"
)

type sessionHeaderRepository struct{ pool *pgxpool.Pool }

// NewSessionHeaderRepository creates session header data access over a pgx
// pool.
func NewSessionHeaderRepository(pool *pgxpool.Pool) repository.SessionHeaderRepository {
	return &sessionHeaderRepository{pool: pool}
}

func (r *sessionHeaderRepository) Create(ctx context.Context, header *entity.SessionHeader) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO sessions (id, user_id, session_type, category, words_asked, words_correct, stars_earned, started_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)`,
		header.ID, header.UserID, header.Type, header.Category,
		header.WordsAsked, header.WordsCorrect, header.StarsEarned, header.StartedAt)
	if err != nil {
		return fmt.Errorf("create session header: %w", err)
	}
	return nil
}

func (r *sessionHeaderRepository) UpdateTally(ctx context.Context, userID int64, sessionID string, asked, correct, stars int) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE sessions SET words_asked = $3, words_correct = $4, stars_earned = $5, updated_at = now()
		 WHERE user_id = $1 AND id = $2`,
		userID, sessionID, asked, correct, stars)
	if err != nil {
		return fmt.Errorf("update session tally: %w", err)
	}
	return nil
}

func (r *sessionHeaderRepository) Close(ctx context.Context, userID int64, sessionID string, asked, correct, stars int, endedAt time.Time, abandoned bool) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE sessions SET words_asked = $3, words_correct = $4, stars_earned = $5,
		   ended_at = $6, abandoned = $7, updated_at = $6
		 WHERE user_id = $1 AND id = $2`,
		userID, sessionID, asked, correct, stars, endedAt, abandoned)
	if err != nil {
		return fmt.Errorf("close session header: %w", err)
	}
	return nil
}

func (r *sessionHeaderRepository) CloseStale(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE sessions SET ended_at = now(), abandoned = TRUE, updated_at = now()
		 WHERE ended_at IS NULL AND updated_at < $1`,
		cutoff)
	if err != nil {
		return 0, fmt.Errorf("close stale sessions: %w", err)
	}
	return tag.RowsAffected(), nil
}
