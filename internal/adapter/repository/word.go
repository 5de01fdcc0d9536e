// Package repository provides PostgreSQL-backed implementations of the
// persistence interfaces, built directly on a pgx connection pool.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nbennett1978/vocab-trainer/internal/entity"
	"github.com/nbennett1978/vocab-trainer/internal/repository"
)

type wordRepository struct{ pool *pgxpool.Pool }

// NewWordRepository creates word data access over a pgx pool. Words are
// read-only here; the admin tooling owns writes.
func NewWordRepository(pool *pgxpool.Pool) repository.WordRepository {
	return &wordRepository{pool: pool}
}

func (r *wordRepository) GetByID(ctx context.Context, id int64) (*entity.Word, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, english, turkish, category, example_sentence FROM words WHERE id = $1`, id)
	var w entity.Word
	if err := row.Scan(&w.ID, &w.English, &w.Turkish, &w.Category, &w.ExampleSentence); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, entity.ErrWordNotFound
		}
		return nil, fmt.Errorf("get word: %w", err)
	}
	return &w, nil
}

func (r *wordRepository) ListByIDs(ctx context.Context, ids []int64) ([]entity.Word, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := r.pool.Query(ctx,
		`SELECT id, english, turkish, category, example_sentence FROM words WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("list words: %w", err)
	}
	defer rows.Close()

	out := make([]entity.Word, 0, len(ids))
	for rows.Next() {
		var w entity.Word
		if err := rows.Scan(&w.ID, &w.English, &w.Turkish, &w.Category, &w.ExampleSentence); err != nil {
			return nil, fmt.Errorf("scan word: %w", err)
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

func (r *wordRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM words`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count words: %w", err)
	}
	return n, nil
}

func (r *wordRepository) Categories(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT DISTINCT category FROM words WHERE category <> '' ORDER BY category`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
