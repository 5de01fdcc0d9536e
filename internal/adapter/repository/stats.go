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

type statsRepository struct{ pool *pgxpool.Pool }

// NewStatsRepository creates learner stats data access over a pgx pool.
func NewStatsRepository(pool *pgxpool.Pool) repository.StatsRepository {
	return &statsRepository{pool: pool}
}

func (r *statsRepository) GetLearnerStats(ctx context.Context, userID int64) (*entity.LearnerStats, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT user_id, total_stars, current_streak, longest_streak, last_active_date
		 FROM learner_stats WHERE user_id = $1`, userID)
	var (
		stats      entity.LearnerStats
		lastActive *time.Time
	)
	err := row.Scan(&stats.UserID, &stats.TotalStars, &stats.CurrentStreak, &stats.LongestStreak, &lastActive)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get learner stats: %w", err)
	}
	if lastActive != nil {
		stats.LastActiveDate = *lastActive
	}
	return &stats, nil
}

func (r *statsRepository) UpsertLearnerStats(ctx context.Context, stats *entity.LearnerStats) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO learner_stats (user_id, total_stars, current_streak, longest_streak, last_active_date)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (user_id) DO UPDATE SET
		   total_stars = EXCLUDED.total_stars,
		   current_streak = EXCLUDED.current_streak,
		   longest_streak = EXCLUDED.longest_streak,
		   last_active_date = EXCLUDED.last_active_date`,
		stats.UserID, stats.TotalStars, stats.CurrentStreak, stats.LongestStreak,
		nullableTime(stats.LastActiveDate))
	if err != nil {
		return fmt.Errorf("upsert learner stats: %w", err)
	}
	return nil
}

func (r *statsRepository) AddDailyActivity(ctx context.Context, activity entity.DailyActivity) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO daily_activity (user_id, activity_date, sessions_completed, words_asked, words_correct, stars_earned)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (user_id, activity_date) DO UPDATE SET
		   sessions_completed = daily_activity.sessions_completed + EXCLUDED.sessions_completed,
		   words_asked = daily_activity.words_asked + EXCLUDED.words_asked,
		   words_correct = daily_activity.words_correct + EXCLUDED.words_correct,
		   stars_earned = daily_activity.stars_earned + EXCLUDED.stars_earned`,
		activity.UserID, activity.Date, activity.SessionsCompleted,
		activity.WordsAsked, activity.WordsCorrect, activity.StarsEarned)
	if err != nil {
		return fmt.Errorf("add daily activity: %w", err)
	}
	return nil
}

func (r *statsRepository) GrantAchievement(ctx context.Context, userID int64, achievementType string, at time.Time) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`INSERT INTO achievements (user_id, achievement_type, earned_at)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (user_id, achievement_type) DO NOTHING`,
		userID, achievementType, at)
	if err != nil {
		return false, fmt.Errorf("grant achievement: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *statsRepository) ListAchievements(ctx context.Context, userID int64) ([]entity.Achievement, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT user_id, achievement_type, earned_at FROM achievements
		 WHERE user_id = $1 ORDER BY earned_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("list achievements: %w", err)
	}
	defer rows.Close()

	var out []entity.Achievement
	for rows.Next() {
		var a entity.Achievement
		if err := rows.Scan(&a.UserID, &a.Type, &a.EarnedAt); err != nil {
			return nil, fmt.Errorf("scan achievement: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
