package repository

import (
	"context"

	"github.com/nbennett1978/vocab-trainer/internal/entity"
)

// ProgressQuery narrows progress listings. Zero values mean "no filter";
// an empty Direction matches both directions.
type ProgressQuery struct {
	UserID    int64
	Direction entity.Direction
	Category  string
	Boxes     []int
}

// ProgressRepository abstracts persistence for per-word learning progress to
// keep the scheduler and session engine storage agnostic.
type ProgressRepository interface {
	Get(ctx context.Context, userID, wordID int64, direction entity.Direction) (*entity.ProgressRecord, error)
	// Update persists the record, creating it when absent. The box, counters
	// and timestamps of one record commit together.
	Update(ctx context.Context, rec *entity.ProgressRecord) error
	List(ctx context.Context, q ProgressQuery) ([]entity.ProgressRecord, error)
	// ListNewWordIDs returns IDs of words whose records sit at box 0 in both
	// directions, optionally filtered by category.
	ListNewWordIDs(ctx context.Context, userID int64, category string) ([]int64, error)
	// Promote moves both direction records of the given words into the target
	// box, seeding them into the working set.
	Promote(ctx context.Context, userID int64, wordIDs []int64, box int) error
	// ListMasteredWordIDs returns IDs of words whose records reached the
	// mastery box in both directions.
	ListMasteredWordIDs(ctx context.Context, userID int64, masteryBox int) ([]int64, error)
	CountMastered(ctx context.Context, userID int64, masteryBox int) (int64, error)
}
