// Package usecase implements the training workflows on top of the entity
// model: running a drill session, applying answers to spaced-repetition
// progress, and rolling completed sessions into learner stats.
package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/nbennett1978/vocab-trainer/internal/entity"
	"github.com/nbennett1978/vocab-trainer/internal/infrastructure/config"
	"github.com/nbennett1978/vocab-trainer/internal/repository"
	"github.com/nbennett1978/vocab-trainer/internal/scheduler"
	"github.com/nbennett1978/vocab-trainer/pkg/answermatch"
)

// PresentedWord is one prompt as shown to the learner.
type PresentedWord struct {
	WordID    int64
	Prompt    string
	Direction entity.Direction
	Example   string
	Position  int
	Total     int
	IsRetry   bool
}

// StartResult reports a freshly started session and its first prompt.
type StartResult struct {
	SessionID  string
	TotalWords int
	First      *PresentedWord
}

// SubmitResult is the outcome of one submitted answer. When AllowRetry is set
// the cursor has not moved and the learner gets one immediate retry of the
// same word.
type SubmitResult struct {
	Verdict       answermatch.Verdict
	Accuracy      int
	Message       string
	AllowRetry    bool
	CorrectAnswer string
	CharFlags     []bool
	StarsEarned   int
	Completed     bool
	Next          *PresentedWord
	Summary       *SessionSummary
}

// SessionSummary wraps up a finished session for the learner.
type SessionSummary struct {
	WordsAsked      int
	WordsCorrect    int
	Accuracy        int
	Stars           int
	CurrentStreak   int
	LongestStreak   int
	NewAchievements []string
}

// SessionView is a read-only snapshot of an in-flight session. AwaitingRetry
// tells a reconnecting client that the current word is mid-retry, so the next
// answer must match exactly.
type SessionView struct {
	SessionID     string
	Type          entity.SessionType
	State         entity.SessionState
	WordsAsked    int
	WordsCorrect  int
	Stars         int
	AwaitingRetry bool
	Current       *PresentedWord
}

// sessionLocks serializes operations per session key. Different sessions
// proceed in parallel; two submits against the same session never interleave.
type sessionLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newSessionLocks() *sessionLocks {
	return &sessionLocks{locks: make(map[string]*sync.Mutex)}
}

func (l *sessionLocks) acquire(key string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.locks[key]
	if !ok {
		m = &sync.Mutex{}
		l.locks[key] = m
	}
	return m
}

func (l *sessionLocks) forget(key string) {
	l.mu.Lock()
	delete(l.locks, key)
	l.mu.Unlock()
}

// SessionUsecase drives drill sessions end to end: queue construction through
// the scheduler, answer evaluation through the matcher, progress mutation, and
// the completion rollup into stats.
type SessionUsecase struct {
	sched    *scheduler.Scheduler
	matcher  *answermatch.Matcher
	sessions repository.SessionStore
	headers  repository.SessionHeaderRepository
	progress repository.ProgressRepository
	words    repository.WordRepository
	stats    *StatsUsecase
	cfg      *config.Training
	log      *logrus.Logger
	locks    *sessionLocks
	now      func() time.Time
}

// NewSessionUsecase creates the session engine.
func NewSessionUsecase(
	sched *scheduler.Scheduler,
	matcher *answermatch.Matcher,
	sessions repository.SessionStore,
	headers repository.SessionHeaderRepository,
	progress repository.ProgressRepository,
	words repository.WordRepository,
	stats *StatsUsecase,
	cfg *config.Training,
	log *logrus.Logger,
) *SessionUsecase {
	return &SessionUsecase{
		sched:    sched,
		matcher:  matcher,
		sessions: sessions,
		headers:  headers,
		progress: progress,
		words:    words,
		stats:    stats,
		cfg:      cfg,
		log:      log,
		locks:    newSessionLocks(),
		now:      time.Now,
	}
}

// growsWorkingSet reports whether a session type pulls new material into the
// rotation. Weak-word and review sessions drill existing material only.
func growsWorkingSet(t entity.SessionType) bool {
	return t != entity.SessionTypeWeakWords && t != entity.SessionTypeReviewMastered
}

// Start builds a session queue and returns the first prompt. An unspecified
// direction yields a mixed session drilling both ways.
func (u *SessionUsecase) Start(ctx context.Context, userID int64, sessionType entity.SessionType, direction entity.Direction, category string) (*StartResult, error) {
	if !sessionType.Valid() {
		return nil, entity.ErrInvalidSessionType
	}
	if sessionType == entity.SessionTypeCategory && category == "" {
		return nil, fmt.Errorf("category session requires a category")
	}
	if sessionType != entity.SessionTypeCategory {
		category = ""
	}

	count := u.cfg.SessionSize(string(sessionType))

	var (
		queue []entity.SessionWordEntry
		err   error
	)
	if direction == entity.DirectionUnspecified {
		queue, err = u.sched.SelectMixed(ctx, userID, sessionType, category, count)
	} else {
		if !direction.Valid() {
			return nil, fmt.Errorf("unknown direction %q", direction)
		}
		if growsWorkingSet(sessionType) {
			if err := u.sched.EnsureWorkingSet(ctx, userID); err != nil {
				return nil, err
			}
		}
		queue, err = u.sched.SelectWords(ctx, userID, sessionType, direction, category, count)
	}
	if err != nil {
		return nil, err
	}
	if len(queue) == 0 {
		return nil, u.noWordsError(ctx, userID)
	}

	now := u.now()
	sess := entity.NewSession(uuid.NewString(), userID, sessionType, category, queue, now)
	sess.State = entity.SessionInProgress
	u.sessions.Put(sess)

	if err := u.headers.Create(ctx, &entity.SessionHeader{
		ID:        sess.ID,
		UserID:    userID,
		Type:      sessionType,
		Category:  category,
		StartedAt: now,
	}); err != nil {
		u.log.WithError(err).Warn("session header not persisted")
	}

	u.log.WithFields(logrus.Fields{
		"user_id":    userID,
		"session_id": sess.ID,
		"type":       sessionType,
		"words":      len(queue),
	}).Info("session started")

	return &StartResult{
		SessionID:  sess.ID,
		TotalWords: len(queue),
		First:      presentedCurrent(sess),
	}, nil
}

// noWordsError decides which flavor of empty-selection failure to report.
func (u *SessionUsecase) noWordsError(ctx context.Context, userID int64) error {
	total, err := u.words.Count(ctx)
	if err != nil {
		return &entity.NoWordsError{}
	}
	mastered, err := u.progress.CountMastered(ctx, userID, entity.MasteryBox)
	if err != nil {
		return &entity.NoWordsError{}
	}
	return &entity.NoWordsError{AllMastered: total > 0 && mastered >= total}
}

// SubmitAnswer evaluates the learner's answer for the current word and moves
// the session forward. A near miss on the first try holds the cursor and
// offers one immediate retry; on the retry only an exact match counts.
func (u *SessionUsecase) SubmitAnswer(ctx context.Context, userID int64, sessionID, answer string) (*SubmitResult, error) {
	mu := u.locks.acquire(entity.SessionKey(userID, sessionID))
	mu.Lock()
	defer mu.Unlock()

	sess, ok := u.sessions.Get(userID, sessionID)
	if !ok {
		return nil, entity.ErrSessionNotFound
	}
	entry, ok := sess.Current()
	if !ok {
		return nil, entity.ErrNoCurrentWord
	}

	now := u.now()
	u.sessions.Touch(userID, sessionID, now)

	res := u.matcher.Evaluate(answer, entry.ExpectedAnswer(), entry.ExpectsInfinitive())

	if !sess.AwaitingRetry && res.Verdict == answermatch.VerdictAlmost {
		sess.AwaitingRetry = true
		u.sessions.Put(sess)
		return &SubmitResult{
			Verdict:    res.Verdict,
			Accuracy:   res.Accuracy,
			Message:    res.Message,
			AllowRetry: true,
			CharFlags:  answermatch.AlignChars(answer, entry.ExpectedAnswer()),
		}, nil
	}

	correct := res.Verdict == answermatch.VerdictCorrect
	wasRetry := sess.AwaitingRetry
	sess.AwaitingRetry = false

	starsEarned := 0
	if !entry.IsRetryAttempt {
		if err := u.applyProgress(ctx, sess.UserID, entry, correct, now); err != nil {
			return nil, err
		}
		sess.Results = append(sess.Results, entity.AnswerOutcome{
			WordID:    entry.Word.ID,
			Direction: entry.Direction,
			Correct:   correct,
			Accuracy:  res.Accuracy,
		})
		if correct {
			starsEarned = 1
			sess.Stars += starsEarned
		}
		if err := u.headers.UpdateTally(ctx, sess.UserID, sess.ID, sess.WordsAsked(), sess.WordsCorrect(), sess.Stars); err != nil {
			u.log.WithError(err).Warn("session tally not persisted")
		}
	}

	if !correct && entry.RetryCount < u.cfg.MaxDelayedRetries {
		clone := entry
		clone.IsRetryAttempt = true
		clone.RetryCount++
		sess.InsertAt(sess.Cursor+u.cfg.RetryGap, clone)
	}

	sess.Advance()

	out := &SubmitResult{
		Verdict:       res.Verdict,
		Accuracy:      res.Accuracy,
		Message:       res.Message,
		CorrectAnswer: entry.ExpectedAnswer(),
		StarsEarned:   starsEarned,
	}
	if wasRetry && !correct {
		// A retry that is still off, even narrowly, resolves as a miss.
		out.Verdict = answermatch.VerdictIncorrect
		out.Message = ""
	}
	if !correct {
		out.CharFlags = answermatch.AlignChars(answer, entry.ExpectedAnswer())
	}

	if sess.State == entity.SessionComplete {
		summary, err := u.finalize(ctx, sess, false)
		if err != nil {
			return nil, err
		}
		out.Completed = true
		out.Summary = summary
		return out, nil
	}

	u.sessions.Put(sess)
	out.Next = presentedCurrent(sess)
	return out, nil
}

func (u *SessionUsecase) applyProgress(ctx context.Context, userID int64, entry entity.SessionWordEntry, correct bool, now time.Time) error {
	rec, err := u.progress.Get(ctx, userID, entry.Word.ID, entry.Direction)
	switch {
	case errors.Is(err, entity.ErrProgressNotFound):
		rec = &entity.ProgressRecord{UserID: userID, WordID: entry.Word.ID, Direction: entry.Direction}
	case err != nil:
		return fmt.Errorf("load progress: %w", err)
	}
	rec.ApplyAnswer(correct, now)
	if err := u.progress.Update(ctx, rec); err != nil {
		return fmt.Errorf("save progress: %w", err)
	}
	return nil
}

// GetSessionState returns a snapshot of an in-flight session.
func (u *SessionUsecase) GetSessionState(ctx context.Context, userID int64, sessionID string) (*SessionView, error) {
	mu := u.locks.acquire(entity.SessionKey(userID, sessionID))
	mu.Lock()
	defer mu.Unlock()

	sess, ok := u.sessions.Get(userID, sessionID)
	if !ok {
		return nil, entity.ErrSessionNotFound
	}
	return &SessionView{
		SessionID:     sess.ID,
		Type:          sess.Type,
		State:         sess.State,
		WordsAsked:    sess.WordsAsked(),
		WordsCorrect:  sess.WordsCorrect(),
		Stars:         sess.Stars,
		AwaitingRetry: sess.AwaitingRetry,
		Current:       presentedCurrent(sess),
	}, nil
}

// SaveProgress flushes the session tally to the persistent header and marks
// the session active. The in-memory state stays authoritative.
func (u *SessionUsecase) SaveProgress(ctx context.Context, userID int64, sessionID string) error {
	mu := u.locks.acquire(entity.SessionKey(userID, sessionID))
	mu.Lock()
	defer mu.Unlock()

	sess, ok := u.sessions.Get(userID, sessionID)
	if !ok {
		return entity.ErrSessionNotFound
	}
	u.sessions.Touch(userID, sessionID, u.now())
	if err := u.headers.UpdateTally(ctx, sess.UserID, sess.ID, sess.WordsAsked(), sess.WordsCorrect(), sess.Stars); err != nil {
		return fmt.Errorf("save session tally: %w", err)
	}
	u.sessions.Put(sess)
	return nil
}

// EndSession finishes a session early. Everything answered so far counts
// toward stats, streaks and achievements.
func (u *SessionUsecase) EndSession(ctx context.Context, userID int64, sessionID string) (*SessionSummary, error) {
	mu := u.locks.acquire(entity.SessionKey(userID, sessionID))
	mu.Lock()
	defer mu.Unlock()

	sess, ok := u.sessions.Get(userID, sessionID)
	if !ok {
		return nil, entity.ErrSessionNotFound
	}
	return u.finalize(ctx, sess, false)
}

// AbandonSession drops a session. Word progress already applied stays, but
// the session contributes nothing to streaks or achievements.
func (u *SessionUsecase) AbandonSession(ctx context.Context, userID int64, sessionID string) error {
	mu := u.locks.acquire(entity.SessionKey(userID, sessionID))
	mu.Lock()
	defer mu.Unlock()

	sess, ok := u.sessions.Get(userID, sessionID)
	if !ok {
		return entity.ErrSessionNotFound
	}
	_, err := u.finalize(ctx, sess, true)
	return err
}

// AbandonStale abandons every in-memory session idle past the configured
// timeout, then closes header rows orphaned by a crash of a previous process.
// Returns how many sessions were swept in total.
func (u *SessionUsecase) AbandonStale(ctx context.Context) int {
	cutoff := u.now().Add(-u.cfg.SessionIdleTimeout)
	swept := 0
	for _, sess := range u.sessions.Stale(cutoff) {
		err := u.AbandonSession(ctx, sess.UserID, sess.ID)
		switch {
		case errors.Is(err, entity.ErrSessionNotFound):
			// Finished between listing and sweeping.
		case err != nil:
			u.log.WithError(err).WithField("session_id", sess.ID).Warn("stale session not abandoned")
		default:
			swept++
		}
	}
	if swept > 0 {
		u.log.WithField("count", swept).Info("stale sessions abandoned")
	}

	orphans, err := u.headers.CloseStale(ctx, cutoff)
	switch {
	case err != nil:
		u.log.WithError(err).Warn("orphaned session rows not closed")
	case orphans > 0:
		u.log.WithField("count", orphans).Info("orphaned session rows closed")
	}
	return swept + int(orphans)
}

// finalize closes out a session: persists the final header, rolls stats for a
// proper completion, and drops the in-memory state.
func (u *SessionUsecase) finalize(ctx context.Context, sess *entity.Session, abandoned bool) (*SessionSummary, error) {
	now := u.now()
	if abandoned {
		sess.State = entity.SessionAbandoned
	} else {
		sess.State = entity.SessionComplete
	}
	if err := u.headers.Close(ctx, sess.UserID, sess.ID, sess.WordsAsked(), sess.WordsCorrect(), sess.Stars, now, abandoned); err != nil {
		u.log.WithError(err).Warn("session header not closed")
	}

	summary := &SessionSummary{
		WordsAsked:   sess.WordsAsked(),
		WordsCorrect: sess.WordsCorrect(),
		Stars:        sess.Stars,
	}
	if summary.WordsAsked > 0 {
		summary.Accuracy = int(math.Round(float64(summary.WordsCorrect) / float64(summary.WordsAsked) * 100))
	}
	if !abandoned {
		cs, err := u.stats.RecordCompletion(ctx, sess.UserID, summary.WordsAsked, summary.WordsCorrect, summary.Stars)
		if err != nil {
			return nil, err
		}
		summary.CurrentStreak = cs.CurrentStreak
		summary.LongestStreak = cs.LongestStreak
		summary.NewAchievements = cs.NewAchievements
	}

	u.sessions.Delete(sess.UserID, sess.ID)
	u.locks.forget(sess.Key())
	return summary, nil
}

func presentedCurrent(sess *entity.Session) *PresentedWord {
	entry, ok := sess.Current()
	if !ok {
		return nil
	}
	return &PresentedWord{
		WordID:    entry.Word.ID,
		Prompt:    entry.Prompt(),
		Direction: entry.Direction,
		Example:   entry.Word.ClozeSentence(),
		Position:  sess.Cursor + 1,
		Total:     len(sess.Queue),
		IsRetry:   entry.IsRetryAttempt,
	}
}
