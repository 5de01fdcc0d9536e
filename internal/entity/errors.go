package entity

import "errors"

// Domain errors for the training core. All failures surface as structured
// results; nothing in the core retries on its own.
var (
	ErrSessionNotFound    = errors.New("session not found")
	ErrNoCurrentWord      = errors.New("session has no current word")
	ErrInvalidSessionType = errors.New("invalid session type")
	ErrWordNotFound       = errors.New("word not found")
	ErrProgressNotFound   = errors.New("progress record not found")
)

// NoWordsError reports that word selection produced an empty set. AllMastered
// distinguishes "the learner finished everything" from "nothing is configured".
type NoWordsError struct {
	AllMastered bool
}

func (e *NoWordsError) Error() string {
	if e.AllMastered {
		return "no words available: all words mastered"
	}
	return "no words available"
}
