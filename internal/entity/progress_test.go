package entity

import (
	"testing"
	"time"
)

func TestApplyAnswerBoxTransitions(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	for box := FirstBox; box <= MaxBox; box++ {
		correct := ProgressRecord{LeitnerBox: box}
		correct.ApplyAnswer(true, now)
		want := box + 1
		if want > MaxBox {
			want = MaxBox
		}
		if correct.LeitnerBox != want {
			t.Errorf("correct from box %d: got %d, want %d", box, correct.LeitnerBox, want)
		}

		wrong := ProgressRecord{LeitnerBox: box}
		wrong.ApplyAnswer(false, now)
		if wrong.LeitnerBox != FirstBox {
			t.Errorf("wrong from box %d: got %d, want %d", box, wrong.LeitnerBox, FirstBox)
		}
	}
}

func TestApplyAnswerClimbsToTopAndStays(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	rec := ProgressRecord{LeitnerBox: FirstBox}

	// Four promotions carry box 1 to box 5; a fifth correct answer stays put.
	for i := 0; i < 4; i++ {
		rec.ApplyAnswer(true, now)
	}
	if rec.LeitnerBox != MaxBox {
		t.Fatalf("after 4 correct answers from box 1: got box %d, want %d", rec.LeitnerBox, MaxBox)
	}
	rec.ApplyAnswer(true, now)
	if rec.LeitnerBox != MaxBox {
		t.Fatalf("extra correct answer at the top: got box %d, want %d", rec.LeitnerBox, MaxBox)
	}
	if rec.TimesAsked != 5 || rec.TimesCorrect != 5 || rec.SessionCounter != 5 {
		t.Errorf("counters: asked=%d correct=%d counter=%d, want 5/5/5", rec.TimesAsked, rec.TimesCorrect, rec.SessionCounter)
	}
}

func TestApplyAnswerTimestamps(t *testing.T) {
	first := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	later := first.Add(48 * time.Hour)

	rec := ProgressRecord{LeitnerBox: FirstBox}
	rec.ApplyAnswer(false, first)
	if !rec.FirstLearned.Equal(first) {
		t.Errorf("FirstLearned not set on first answer: %v", rec.FirstLearned)
	}
	rec.ApplyAnswer(true, later)
	if !rec.FirstLearned.Equal(first) {
		t.Errorf("FirstLearned moved on later answer: %v", rec.FirstLearned)
	}
	if !rec.LastAsked.Equal(later) {
		t.Errorf("LastAsked not updated: %v", rec.LastAsked)
	}
}
