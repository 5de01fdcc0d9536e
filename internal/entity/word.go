package entity

import "strings"

// ClozeMarker is the placeholder an example sentence may embed where the
// drilled word belongs.
const ClozeMarker = "{word}"

// Word is a shared vocabulary entry. Words are owned by the admin subsystem
// and read-only to the training core.
type Word struct {
	ID              int64
	English         string
	Turkish         string
	Category        string
	ExampleSentence string
}

// Prompt returns the side of the word shown to the learner for a direction.
func (w Word) Prompt(d Direction) string {
	if d == DirectionTRToEN {
		return w.Turkish
	}
	return w.English
}

// Answer returns the side of the word the learner must type for a direction.
func (w Word) Answer(d Direction) string {
	if d == DirectionTRToEN {
		return w.English
	}
	return w.Turkish
}

// IsVerb reports whether the word belongs to the verb category. Verbs answered
// in English accept an optional "to " infinitive prefix.
func (w Word) IsVerb() bool {
	c := strings.ToLower(strings.TrimSpace(w.Category))
	return c == "verb" || c == "verbs"
}

// ClozeSentence renders the example sentence with the drilled word blanked
// out. Returns "" when the word has no example.
func (w Word) ClozeSentence() string {
	if w.ExampleSentence == "" {
		return ""
	}
	return strings.ReplaceAll(w.ExampleSentence, ClozeMarker, "_____")
}
