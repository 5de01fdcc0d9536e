package repository

import (
	"context"
	"time"

	"github.com/nbennett1978/vocab-trainer/internal/entity"
)

// StatsRepository persists cumulative learner stats, per-day activity and
// achievements.
type StatsRepository interface {
	// GetLearnerStats returns (nil, nil) when the user has no stats row yet.
	GetLearnerStats(ctx context.Context, userID int64) (*entity.LearnerStats, error)
	UpsertLearnerStats(ctx context.Context, stats *entity.LearnerStats) error
	// AddDailyActivity adds the counters onto the user's row for the given
	// date, creating it when absent.
	AddDailyActivity(ctx context.Context, activity entity.DailyActivity) error
	// GrantAchievement creates the achievement once; it reports false when the
	// user already holds it.
	GrantAchievement(ctx context.Context, userID int64, achievementType string, at time.Time) (bool, error)
	ListAchievements(ctx context.Context, userID int64) ([]entity.Achievement, error)
}
