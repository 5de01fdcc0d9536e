package entity

import "time"

// Leitner box bounds. Box 0 means the word has not entered the learner's
// working set yet; boxes 1-5 carry increasing review intervals.
const (
	MinBox = 0
	// FirstBox is where wrong answers land, regardless of the previous box.
	FirstBox = 1
	MaxBox   = 5
	// MasteryBox is the single source of truth for "mastered": a word counts
	// as fully mastered once both of its direction records sit in this box.
	MasteryBox = 5
)

// ProgressRecord tracks one learner's history with one word in one direction.
// Exactly one record exists per (user, word, direction); it is mutated only
// when a first-attempt answer resolves, never for in-session retry clones.
type ProgressRecord struct {
	UserID         int64
	WordID         int64
	Direction      Direction
	LeitnerBox     int
	TimesAsked     int
	TimesCorrect   int
	LastAsked      time.Time
	FirstLearned   time.Time
	SessionCounter int
}

// InWorkingSet reports whether the word is in active rotation.
func (p *ProgressRecord) InWorkingSet() bool {
	return p.LeitnerBox > MinBox
}

// ApplyAnswer commits a resolved first-attempt answer: a correct answer
// promotes the word one box (capped at MaxBox), a wrong answer drops it back
// to FirstBox, never to 0.
func (p *ProgressRecord) ApplyAnswer(correct bool, now time.Time) {
	p.TimesAsked++
	p.SessionCounter++
	p.LastAsked = now
	if p.FirstLearned.IsZero() {
		p.FirstLearned = now
	}
	if correct {
		p.TimesCorrect++
		if p.LeitnerBox < MaxBox {
			p.LeitnerBox++
		}
		return
	}
	p.LeitnerBox = FirstBox
}
