package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nbennett1978/vocab-trainer/internal/entity"
	"github.com/nbennett1978/vocab-trainer/internal/repository"
)

type progressRepository struct{ pool *pgxpool.Pool }

// NewProgressRepository creates progress data access over a pgx pool.
func NewProgressRepository(pool *pgxpool.Pool) repository.ProgressRepository {
	return &progressRepository{pool: pool}
}

const progressColumns = `user_id, word_id, direction, leitner_box, times_asked, times_correct, last_asked, first_learned, session_counter`

func scanProgress(row pgx.Row) (*entity.ProgressRecord, error) {
	var (
		rec          entity.ProgressRecord
		lastAsked    *time.Time
		firstLearned *time.Time
	)
	err := row.Scan(&rec.UserID, &rec.WordID, &rec.Direction, &rec.LeitnerBox,
		&rec.TimesAsked, &rec.TimesCorrect, &lastAsked, &firstLearned, &rec.SessionCounter)
	if err != nil {
		return nil, err
	}
	if lastAsked != nil {
		rec.LastAsked = *lastAsked
	}
	if firstLearned != nil {
		rec.FirstLearned = *firstLearned
	}
	return &rec, nil
}

// nullableTime maps the zero time to SQL NULL.
func nullableTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}

func (r *progressRepository) Get(ctx context.Context, userID, wordID int64, direction entity.Direction) (*entity.ProgressRecord, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+progressColumns+` FROM user_progress
		 WHERE user_id = $1 AND word_id = $2 AND direction = $3`,
		userID, wordID, direction)
	rec, err := scanProgress(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, entity.ErrProgressNotFound
		}
		return nil, fmt.Errorf("get progress: %w", err)
	}
	return rec, nil
}

func (r *progressRepository) Update(ctx context.Context, rec *entity.ProgressRecord) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO user_progress (`+progressColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (user_id, word_id, direction) DO UPDATE SET
		   leitner_box = EXCLUDED.leitner_box,
		   times_asked = EXCLUDED.times_asked,
		   times_correct = EXCLUDED.times_correct,
		   last_asked = EXCLUDED.last_asked,
		   first_learned = EXCLUDED.first_learned,
		   session_counter = EXCLUDED.session_counter`,
		rec.UserID, rec.WordID, rec.Direction, rec.LeitnerBox,
		rec.TimesAsked, rec.TimesCorrect,
		nullableTime(rec.LastAsked), nullableTime(rec.FirstLearned), rec.SessionCounter)
	if err != nil {
		return fmt.Errorf("upsert progress: %w", err)
	}
	return nil
}

func (r *progressRepository) List(ctx context.Context, q repository.ProgressQuery) ([]entity.ProgressRecord, error) {
	query := `SELECT p.user_id, p.word_id, p.direction, p.leitner_box, p.times_asked,
	                 p.times_correct, p.last_asked, p.first_learned, p.session_counter
	          FROM user_progress p`
	args := []any{q.UserID}
	if q.Category != "" {
		query += ` JOIN words w ON w.id = p.word_id`
	}
	query += ` WHERE p.user_id = $1`
	if q.Direction != entity.DirectionUnspecified {
		args = append(args, q.Direction)
		query += fmt.Sprintf(" AND p.direction = $%d", len(args))
	}
	if len(q.Boxes) > 0 {
		args = append(args, q.Boxes)
		query += fmt.Sprintf(" AND p.leitner_box = ANY($%d)", len(args))
	}
	if q.Category != "" {
		args = append(args, q.Category)
		query += fmt.Sprintf(" AND w.category = $%d", len(args))
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list progress: %w", err)
	}
	defer rows.Close()

	var out []entity.ProgressRecord
	for rows.Next() {
		rec, err := scanProgress(rows)
		if err != nil {
			return nil, fmt.Errorf("scan progress: %w", err)
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

func (r *progressRepository) ListNewWordIDs(ctx context.Context, userID int64, category string) ([]int64, error) {
	// A word is new while the learner has no progress above box 0 in either
	// direction, including words with no progress rows at all.
	rows, err := r.pool.Query(ctx,
		`SELECT w.id FROM words w
		 LEFT JOIN user_progress p ON p.word_id = w.id AND p.user_id = $1
		 WHERE $2 = '' OR w.category = $2
		 GROUP BY w.id
		 HAVING COALESCE(bool_and(p.leitner_box = 0), true)`,
		userID, category)
	if err != nil {
		return nil, fmt.Errorf("list new words: %w", err)
	}
	defer rows.Close()
	return scanIDs(rows)
}

func (r *progressRepository) Promote(ctx context.Context, userID int64, wordIDs []int64, box int) error {
	if len(wordIDs) == 0 {
		return nil
	}
	b := &pgx.Batch{}
	for _, id := range wordIDs {
		for _, d := range entity.Directions() {
			b.Queue(
				`INSERT INTO user_progress (user_id, word_id, direction, leitner_box)
				 VALUES ($1, $2, $3, $4)
				 ON CONFLICT (user_id, word_id, direction) DO UPDATE SET leitner_box = EXCLUDED.leitner_box`,
				userID, id, d, box)
		}
	}
	br := r.pool.SendBatch(ctx, b)
	for i := 0; i < b.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return fmt.Errorf("promote words: %w", err)
		}
	}
	return br.Close()
}

func (r *progressRepository) ListMasteredWordIDs(ctx context.Context, userID int64, masteryBox int) ([]int64, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT word_id FROM user_progress
		 WHERE user_id = $1
		 GROUP BY word_id
		 HAVING bool_and(leitner_box >= $2) AND count(*) = $3`,
		userID, masteryBox, len(entity.Directions()))
	if err != nil {
		return nil, fmt.Errorf("list mastered words: %w", err)
	}
	defer rows.Close()
	return scanIDs(rows)
}

func (r *progressRepository) CountMastered(ctx context.Context, userID int64, masteryBox int) (int64, error) {
	var n int64
	err := r.pool.QueryRow(ctx,
		`SELECT count(*) FROM (
		   SELECT word_id FROM user_progress
		   WHERE user_id = $1
		   GROUP BY word_id
		   HAVING bool_and(leitner_box >= $2) AND count(*) = $3
		 ) mastered`,
		userID, masteryBox, len(entity.Directions())).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count mastered words: %w", err)
	}
	return n, nil
}

func scanIDs(rows pgx.Rows) ([]int64, error) {
	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan id: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
