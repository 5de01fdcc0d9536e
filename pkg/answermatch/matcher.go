// Package answermatch normalizes and fuzzily compares a learner's typed
// answer against the expected answer. It is pure and storage free.
package answermatch

import (
	"math"
	"strings"

	"github.com/agext/levenshtein"
)

// Verdict classifies a submitted answer.
type Verdict string

const (
	VerdictCorrect   Verdict = "correct"
	VerdictAlmost    Verdict = "almost"
	VerdictIncorrect Verdict = "incorrect"
)

// Result is the outcome of evaluating one answer. Accuracy is 0-100.
type Result struct {
	Verdict  Verdict
	Accuracy int
	Message  string
}

// DefaultAlmostThreshold is the accuracy at or above which a wrong answer
// counts as a typo rather than a miss.
const DefaultAlmostThreshold = 75

// Matcher evaluates answers with a configurable typo-tolerance threshold.
type Matcher struct {
	AlmostThreshold int
}

// New returns a matcher with the default threshold.
func New() *Matcher {
	return &Matcher{AlmostThreshold: DefaultAlmostThreshold}
}

// accentFolds maps Turkish accented letters (and the circumflexed variants
// that show up in loanwords) to their ASCII base letters. İ must be folded
// before lowercasing: Go lowercases it to "i" plus a combining dot.
var accentFolds = map[rune]rune{
	'ç': 'c', 'Ç': 'c',
	'ğ': 'g', 'Ğ': 'g',
	'ı': 'i', 'İ': 'i',
	'ö': 'o', 'Ö': 'o',
	'ş': 's', 'Ş': 's',
	'ü': 'u', 'Ü': 'u',
	'â': 'a', 'Â': 'a',
	'î': 'i', 'Î': 'i',
	'û': 'u', 'Û': 'u',
}

// Normalize prepares a string for comparison: accents folded to ASCII,
// lowercased, hyphens treated as spaces, internal whitespace collapsed,
// surrounding whitespace trimmed.
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if folded, ok := accentFolds[r]; ok {
			r = folded
		}
		if r == '-' {
			r = ' '
		}
		b.WriteRune(r)
	}
	return strings.Join(strings.Fields(strings.ToLower(b.String())), " ")
}

// Distance returns the Levenshtein edit distance between two strings.
func Distance(a, b string) int {
	return levenshtein.Distance(a, b, nil)
}

// Accuracy converts an edit distance over two strings into a 0-100 score.
func Accuracy(d int, a, b string) int {
	maxLen := len([]rune(a))
	if n := len([]rune(b)); n > maxLen {
		maxLen = n
	}
	if maxLen == 0 {
		return 0
	}
	acc := int(math.Round(float64(maxLen-d) / float64(maxLen) * 100))
	if d > 0 && acc > 99 {
		// A one-letter slip in a very long answer must not round up to a
		// perfect score; 100 is reserved for exact matches.
		acc = 99
	}
	if acc < 0 {
		acc = 0
	}
	return acc
}

// Evaluate compares a learner's answer against the expected one. When
// verbReversed is set the expected answer is an English infinitive and a
// leading "to " is optional on both sides.
func (m *Matcher) Evaluate(userAnswer, correctAnswer string, verbReversed bool) Result {
	user := Normalize(userAnswer)
	want := Normalize(correctAnswer)

	if verbReversed {
		userBare := strings.TrimPrefix(user, "to ")
		wantBare := strings.TrimPrefix(want, "to ")
		if user == want || userBare == wantBare {
			return Result{Verdict: VerdictCorrect, Accuracy: 100}
		}
		// Neither form matches; score against whichever pair is closer.
		if Distance(userBare, wantBare) < Distance(user, want) {
			user, want = userBare, wantBare
		}
	}

	if user == want {
		return Result{Verdict: VerdictCorrect, Accuracy: 100}
	}

	d := Distance(user, want)
	acc := Accuracy(d, user, want)
	correctChars := maxRuneLen(user, want) - d
	if acc >= m.AlmostThreshold && correctChars >= 1 && d > 0 {
		return Result{Verdict: VerdictAlmost, Accuracy: acc, Message: "So close! Check your spelling and try once more."}
	}
	return Result{Verdict: VerdictIncorrect, Accuracy: acc}
}

func maxRuneLen(a, b string) int {
	n := len([]rune(a))
	if m := len([]rune(b)); m > n {
		return m
	}
	return n
}

// AlignChars flags, per character of the learner's answer, whether it matches
// the expected answer at the same position under accent folding. This feeds
// UI highlighting of wrong answers only; it performs no edit-distance
// alignment and is never used to judge correctness.
func AlignChars(userAnswer, correctAnswer string) []bool {
	user := []rune(Normalize(userAnswer))
	want := []rune(Normalize(correctAnswer))
	flags := make([]bool, len(user))
	for i, r := range user {
		flags[i] = i < len(want) && want[i] == r
	}
	return flags
}
