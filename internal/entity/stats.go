package entity

import (
	"fmt"
	"time"
)

// Achievement milestone ladders. Each is granted at most once per type.
var (
	MasteredMilestones = []int{10, 25, 50, 100, 250, 500}
	StreakMilestones   = []int{3, 7, 14, 30, 60, 100}
)

// MasteredAchievementType names the achievement for N fully mastered words.
func MasteredAchievementType(n int) string { return fmt.Sprintf("mastered_%d", n) }

// StreakAchievementType names the achievement for an N-day activity streak.
func StreakAchievementType(n int) string { return fmt.Sprintf("streak_%d", n) }

// Achievement is a one-time award; (UserID, Type) is unique and rows are
// never updated after creation.
type Achievement struct {
	UserID   int64
	Type     string
	EarnedAt time.Time
}

// DailyActivity accumulates per-day training counters for a learner.
type DailyActivity struct {
	UserID            int64
	Date              time.Time
	SessionsCompleted int
	WordsAsked        int
	WordsCorrect      int
	StarsEarned       int
}

// LearnerStats holds per-user cumulative counters, mutated only at session
// end.
type LearnerStats struct {
	UserID         int64
	TotalStars     int
	CurrentStreak  int
	LongestStreak  int
	LastActiveDate time.Time
}

// DateOf truncates a timestamp to its calendar date, keeping the location.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// RecordActivity applies the streak rules for activity at the given time:
// same calendar day leaves the streak unchanged, exactly one day later
// increments it, a larger gap resets it to 1, and the first-ever activity
// starts it at 1.
func (s *LearnerStats) RecordActivity(at time.Time) {
	day := DateOf(at)
	switch {
	case s.LastActiveDate.IsZero():
		s.CurrentStreak = 1
	case day.Equal(DateOf(s.LastActiveDate)):
		// Second session on the same day; nothing to do.
	case day.Equal(DateOf(s.LastActiveDate).AddDate(0, 0, 1)):
		s.CurrentStreak++
	default:
		s.CurrentStreak = 1
	}
	if s.CurrentStreak > s.LongestStreak {
		s.LongestStreak = s.CurrentStreak
	}
	s.LastActiveDate = day
}
