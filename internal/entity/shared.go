package entity

import "strings"

// Direction identifies which way a word is drilled: shown in one language,
// answered in the other.
type Direction string

const (
	DirectionUnspecified Direction = ""
	DirectionENToTR      Direction = "en_to_tr"
	DirectionTRToEN      Direction = "tr_to_en"
)

// Directions lists the two drill directions in a stable order.
func Directions() []Direction {
	return []Direction{DirectionENToTR, DirectionTRToEN}
}

// Valid reports whether the direction is one of the supported values.
func (d Direction) Valid() bool {
	return d == DirectionENToTR || d == DirectionTRToEN
}

// Opposite returns the reverse drill direction.
func (d Direction) Opposite() Direction {
	switch d {
	case DirectionENToTR:
		return DirectionTRToEN
	case DirectionTRToEN:
		return DirectionENToTR
	default:
		return DirectionUnspecified
	}
}

// ParseDirection converts an arbitrary string into a supported Direction value.
func ParseDirection(s string) Direction {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "en_to_tr":
		return DirectionENToTR
	case "tr_to_en":
		return DirectionTRToEN
	default:
		return DirectionUnspecified
	}
}

// SessionType selects the word-selection strategy for a training session.
type SessionType string

const (
	SessionTypeStandard       SessionType = "standard"
	SessionTypeQuick          SessionType = "quick"
	SessionTypeWeakWords      SessionType = "weak_words"
	SessionTypeReviewMastered SessionType = "review_mastered"
	SessionTypeCategory       SessionType = "category"
)

// Valid reports whether the session type is one of the supported values.
func (t SessionType) Valid() bool {
	switch t {
	case SessionTypeStandard, SessionTypeQuick, SessionTypeWeakWords,
		SessionTypeReviewMastered, SessionTypeCategory:
		return true
	default:
		return false
	}
}

// ParseSessionType converts an arbitrary string into a SessionType.
func ParseSessionType(s string) (SessionType, error) {
	t := SessionType(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", ErrInvalidSessionType
	}
	return t, nil
}
