package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nbennett1978/vocab-trainer/internal/entity"
	"github.com/nbennett1978/vocab-trainer/internal/repository"
)

// CompletionStats is what a finished session contributes to the learner's
// long-term record.
type CompletionStats struct {
	CurrentStreak   int
	LongestStreak   int
	TotalStars      int
	NewAchievements []string
}

// StatsUsecase maintains streaks, daily activity and achievements. It is
// invoked once per completed session and never by retries or abandons.
type StatsUsecase struct {
	stats    repository.StatsRepository
	progress repository.ProgressRepository
	log      *logrus.Logger
	now      func() time.Time
}

// NewStatsUsecase creates a stats usecase.
func NewStatsUsecase(stats repository.StatsRepository, progress repository.ProgressRepository, log *logrus.Logger) *StatsUsecase {
	return &StatsUsecase{
		stats:    stats,
		progress: progress,
		log:      log,
		now:      time.Now,
	}
}

// RecordCompletion applies one completed session to the learner's cumulative
// stats: streak update, star total, daily activity row, and any achievement
// milestones newly crossed.
func (u *StatsUsecase) RecordCompletion(ctx context.Context, userID int64, asked, correct, stars int) (*CompletionStats, error) {
	now := u.now()

	stats, err := u.stats.GetLearnerStats(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load learner stats: %w", err)
	}
	if stats == nil {
		stats = &entity.LearnerStats{UserID: userID}
	}
	stats.RecordActivity(now)
	stats.TotalStars += stars
	if err := u.stats.UpsertLearnerStats(ctx, stats); err != nil {
		return nil, fmt.Errorf("save learner stats: %w", err)
	}

	if err := u.stats.AddDailyActivity(ctx, entity.DailyActivity{
		UserID:            userID,
		Date:              entity.DateOf(now),
		SessionsCompleted: 1,
		WordsAsked:        asked,
		WordsCorrect:      correct,
		StarsEarned:       stars,
	}); err != nil {
		return nil, fmt.Errorf("record daily activity: %w", err)
	}

	earned, err := u.grantMilestones(ctx, userID, stats.CurrentStreak, now)
	if err != nil {
		return nil, err
	}

	u.log.WithFields(logrus.Fields{
		"user_id": userID,
		"streak":  stats.CurrentStreak,
		"stars":   stats.TotalStars,
	}).Info("session recorded")

	return &CompletionStats{
		CurrentStreak:   stats.CurrentStreak,
		LongestStreak:   stats.LongestStreak,
		TotalStars:      stats.TotalStars,
		NewAchievements: earned,
	}, nil
}

// grantMilestones checks both milestone ladders and grants every crossed
// milestone the learner does not hold yet.
func (u *StatsUsecase) grantMilestones(ctx context.Context, userID int64, streak int, now time.Time) ([]string, error) {
	mastered, err := u.progress.CountMastered(ctx, userID, entity.MasteryBox)
	if err != nil {
		return nil, fmt.Errorf("count mastered words: %w", err)
	}

	var earned []string
	for _, m := range entity.MasteredMilestones {
		if mastered < int64(m) {
			break
		}
		created, err := u.stats.GrantAchievement(ctx, userID, entity.MasteredAchievementType(m), now)
		if err != nil {
			return nil, fmt.Errorf("grant achievement: %w", err)
		}
		if created {
			earned = append(earned, entity.MasteredAchievementType(m))
		}
	}
	for _, m := range entity.StreakMilestones {
		if streak < m {
			break
		}
		created, err := u.stats.GrantAchievement(ctx, userID, entity.StreakAchievementType(m), now)
		if err != nil {
			return nil, fmt.Errorf("grant achievement: %w", err)
		}
		if created {
			earned = append(earned, entity.StreakAchievementType(m))
		}
	}
	return earned, nil
}

// LearnerStats returns the learner's cumulative stats, zero-valued when the
// learner has not trained yet.
func (u *StatsUsecase) LearnerStats(ctx context.Context, userID int64) (*entity.LearnerStats, error) {
	stats, err := u.stats.GetLearnerStats(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load learner stats: %w", err)
	}
	if stats == nil {
		stats = &entity.LearnerStats{UserID: userID}
	}
	return stats, nil
}

// Achievements lists everything the learner has earned so far.
func (u *StatsUsecase) Achievements(ctx context.Context, userID int64) ([]entity.Achievement, error) {
	return u.stats.ListAchievements(ctx, userID)
}
