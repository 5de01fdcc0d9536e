package repository

import (
	"context"

	"github.com/nbennett1978/vocab-trainer/internal/entity"
)

// WordRepository exposes read-only access to the shared vocabulary. The admin
// subsystem owns writes.
type WordRepository interface {
	GetByID(ctx context.Context, id int64) (*entity.Word, error)
	ListByIDs(ctx context.Context, ids []int64) ([]entity.Word, error)
	Count(ctx context.Context) (int64, error)
	Categories(ctx context.Context) ([]string, error)
}
