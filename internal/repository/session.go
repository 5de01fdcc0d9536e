package repository

import (
	"context"
	"time"

	"github.com/nbennett1978/vocab-trainer/internal/entity"
)

// SessionStore holds in-flight sessions. Implementations must be safe for
// concurrent use across sessions; serialization of calls against one session
// is the engine's job.
type SessionStore interface {
	Get(userID int64, sessionID string) (*entity.Session, bool)
	Put(session *entity.Session)
	Delete(userID int64, sessionID string)
	// Touch refreshes the session's last-activity timestamp. The timestamp
	// is owned by the store so Stale scans never race with engine writes.
	Touch(userID int64, sessionID string, at time.Time)
	// Stale returns sessions whose last activity predates the cutoff.
	Stale(cutoff time.Time) []*entity.Session
}

// SessionHeaderRepository persists the lightweight session mirror used for
// crash recovery and reporting.
type SessionHeaderRepository interface {
	Create(ctx context.Context, header *entity.SessionHeader) error
	UpdateTally(ctx context.Context, userID int64, sessionID string, asked, correct, stars int) error
	Close(ctx context.Context, userID int64, sessionID string, asked, correct, stars int, endedAt time.Time, abandoned bool) error
	// CloseStale marks every still-open row whose last update predates the
	// cutoff as abandoned. It reconciles rows orphaned by a crash, where no
	// in-memory session survives to be swept.
	CloseStale(ctx context.Context, cutoff time.Time) (int64, error)
}
