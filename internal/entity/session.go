package entity

import (
	"fmt"
	"time"
)

// SessionState is the lifecycle of a training session.
type SessionState string

const (
	SessionCreated    SessionState = "created"
	SessionInProgress SessionState = "in_progress"
	SessionComplete   SessionState = "complete"
	SessionAbandoned  SessionState = "abandoned"
)

// SessionWordEntry binds a word to a drill direction for one queue position.
// Retry clones carry IsRetryAttempt so they never touch persisted progress.
type SessionWordEntry struct {
	Word           Word
	Direction      Direction
	IsRetryAttempt bool
	RetryCount     int
}

// Prompt returns the text shown to the learner for this entry.
func (e SessionWordEntry) Prompt() string { return e.Word.Prompt(e.Direction) }

// ExpectedAnswer returns the text the learner must type for this entry.
func (e SessionWordEntry) ExpectedAnswer() string { return e.Word.Answer(e.Direction) }

// ExpectsInfinitive reports whether the answer is an English verb, where a
// leading "to " is accepted as equivalent.
func (e SessionWordEntry) ExpectsInfinitive() bool {
	return e.Direction == DirectionTRToEN && e.Word.IsVerb()
}

// AnswerOutcome records one resolved first-attempt answer.
type AnswerOutcome struct {
	WordID    int64
	Direction Direction
	Correct   bool
	Accuracy  int
}

// Session is the in-memory state of one training run: an ordered queue of
// entries, a cursor, and the accumulated results. It is the source of truth
// for in-flight state; the persisted SessionHeader is a recovery mirror only.
type Session struct {
	ID       string
	UserID   int64
	Type     SessionType
	Category string
	Queue    []SessionWordEntry
	Cursor   int
	Results  []AnswerOutcome
	Stars    int
	// AwaitingRetry is set between a near-miss answer and the learner's one
	// immediate retry of the same entry.
	AwaitingRetry bool
	State         SessionState
	StartedAt     time.Time
	LastActivity  time.Time
}

// NewSession builds a session over the given queue.
func NewSession(id string, userID int64, sessionType SessionType, category string, queue []SessionWordEntry, now time.Time) *Session {
	return &Session{
		ID:           id,
		UserID:       userID,
		Type:         sessionType,
		Category:     category,
		Queue:        queue,
		State:        SessionCreated,
		StartedAt:    now,
		LastActivity: now,
	}
}

// SessionKey builds the composite store key for a session.
func SessionKey(userID int64, sessionID string) string {
	return fmt.Sprintf("%d/%s", userID, sessionID)
}

// Key returns the composite store key for this session.
func (s *Session) Key() string { return SessionKey(s.UserID, s.ID) }

// Current returns the queue entry under the cursor.
func (s *Session) Current() (SessionWordEntry, bool) {
	if s.Cursor < 0 || s.Cursor >= len(s.Queue) {
		return SessionWordEntry{}, false
	}
	return s.Queue[s.Cursor], true
}

// InsertAt splices an entry into the queue at index i, clamped to the queue
// bounds.
func (s *Session) InsertAt(i int, e SessionWordEntry) {
	if i < 0 {
		i = 0
	}
	if i > len(s.Queue) {
		i = len(s.Queue)
	}
	s.Queue = append(s.Queue, SessionWordEntry{})
	copy(s.Queue[i+1:], s.Queue[i:])
	s.Queue[i] = e
}

// Advance moves the cursor to the next entry and flips the session to
// Complete once the queue is exhausted.
func (s *Session) Advance() {
	s.Cursor++
	if s.Cursor >= len(s.Queue) {
		s.State = SessionComplete
	}
}

// WordsAsked counts resolved first-attempt answers.
func (s *Session) WordsAsked() int { return len(s.Results) }

// WordsCorrect counts correct first-attempt answers.
func (s *Session) WordsCorrect() int {
	n := 0
	for _, r := range s.Results {
		if r.Correct {
			n++
		}
	}
	return n
}

// SessionHeader is the lightweight persisted mirror of a session, kept for
// crash recovery and reporting.
type SessionHeader struct {
	ID           string
	UserID       int64
	Type         SessionType
	Category     string
	WordsAsked   int
	WordsCorrect int
	StarsEarned  int
	StartedAt    time.Time
	EndedAt      *time.Time
	Abandoned    bool
}
