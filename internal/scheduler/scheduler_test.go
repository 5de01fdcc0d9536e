package scheduler

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/nbennett1978/vocab-trainer/internal/entity"
	"github.com/nbennett1978/vocab-trainer/internal/infrastructure/config"
	"github.com/nbennett1978/vocab-trainer/internal/repository"
)

type fakeWordRepo struct {
	words map[int64]entity.Word
}

func newFakeWordRepo(words ...entity.Word) *fakeWordRepo {
	r := &fakeWordRepo{words: make(map[int64]entity.Word, len(words))}
	for _, w := range words {
		r.words[w.ID] = w
	}
	return r
}

func (r *fakeWordRepo) GetByID(ctx context.Context, id int64) (*entity.Word, error) {
	if w, ok := r.words[id]; ok {
		copy := w
		return &copy, nil
	}
	return nil, entity.ErrWordNotFound
}

func (r *fakeWordRepo) ListByIDs(ctx context.Context, ids []int64) ([]entity.Word, error) {
	out := make([]entity.Word, 0, len(ids))
	for _, id := range ids {
		if w, ok := r.words[id]; ok {
			out = append(out, w)
		}
	}
	return out, nil
}

func (r *fakeWordRepo) Count(ctx context.Context) (int64, error) {
	return int64(len(r.words)), nil
}

func (r *fakeWordRepo) Categories(ctx context.Context) ([]string, error) {
	seen := map[string]bool{}
	var out []string
	for _, w := range r.words {
		if !seen[w.Category] {
			seen[w.Category] = true
			out = append(out, w.Category)
		}
	}
	return out, nil
}

type fakeProgressRepo struct {
	mu    sync.RWMutex
	recs  map[string]*entity.ProgressRecord
	words *fakeWordRepo
}

func newFakeProgressRepo(words *fakeWordRepo) *fakeProgressRepo {
	return &fakeProgressRepo{recs: make(map[string]*entity.ProgressRecord), words: words}
}

func progressKey(userID, wordID int64, d entity.Direction) string {
	return fmt.Sprintf("%d/%d/%s", userID, wordID, d)
}

func (r *fakeProgressRepo) put(rec entity.ProgressRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	copy := rec
	r.recs[progressKey(rec.UserID, rec.WordID, rec.Direction)] = &copy
}

// seedWord registers records for both directions at the given boxes.
func (r *fakeProgressRepo) seedWord(userID, wordID int64, boxEN, boxTR int) {
	r.put(entity.ProgressRecord{UserID: userID, WordID: wordID, Direction: entity.DirectionENToTR, LeitnerBox: boxEN})
	r.put(entity.ProgressRecord{UserID: userID, WordID: wordID, Direction: entity.DirectionTRToEN, LeitnerBox: boxTR})
}

func (r *fakeProgressRepo) Get(ctx context.Context, userID, wordID int64, d entity.Direction) (*entity.ProgressRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if rec, ok := r.recs[progressKey(userID, wordID, d)]; ok {
		copy := *rec
		return &copy, nil
	}
	return nil, entity.ErrProgressNotFound
}

func (r *fakeProgressRepo) Update(ctx context.Context, rec *entity.ProgressRecord) error {
	r.put(*rec)
	return nil
}

func (r *fakeProgressRepo) List(ctx context.Context, q repository.ProgressQuery) ([]entity.ProgressRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	boxes := map[int]bool{}
	for _, b := range q.Boxes {
		boxes[b] = true
	}
	var out []entity.ProgressRecord
	for _, rec := range r.recs {
		if rec.UserID != q.UserID {
			continue
		}
		if q.Direction != entity.DirectionUnspecified && rec.Direction != q.Direction {
			continue
		}
		if len(boxes) > 0 && !boxes[rec.LeitnerBox] {
			continue
		}
		if q.Category != "" {
			w, ok := r.words.words[rec.WordID]
			if !ok || w.Category != q.Category {
				continue
			}
		}
		out = append(out, *rec)
	}
	return out, nil
}

func (r *fakeProgressRepo) ListNewWordIDs(ctx context.Context, userID int64, category string) ([]int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	newInBoth := map[int64]int{}
	for _, rec := range r.recs {
		if rec.UserID == userID && rec.LeitnerBox == entity.MinBox {
			newInBoth[rec.WordID]++
		}
	}
	var out []int64
	for id, n := range newInBoth {
		if n < len(entity.Directions()) {
			continue
		}
		if category != "" {
			w, ok := r.words.words[id]
			if !ok || w.Category != category {
				continue
			}
		}
		out = append(out, id)
	}
	return out, nil
}

func (r *fakeProgressRepo) Promote(ctx context.Context, userID int64, wordIDs []int64, box int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range wordIDs {
		for _, d := range entity.Directions() {
			if rec, ok := r.recs[progressKey(userID, id, d)]; ok {
				rec.LeitnerBox = box
			}
		}
	}
	return nil
}

func (r *fakeProgressRepo) ListMasteredWordIDs(ctx context.Context, userID int64, masteryBox int) ([]int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	mastered := map[int64]int{}
	for _, rec := range r.recs {
		if rec.UserID == userID && rec.LeitnerBox >= masteryBox {
			mastered[rec.WordID]++
		}
	}
	var out []int64
	for id, n := range mastered {
		if n >= len(entity.Directions()) {
			out = append(out, id)
		}
	}
	return out, nil
}

func (r *fakeProgressRepo) CountMastered(ctx context.Context, userID int64, masteryBox int) (int64, error) {
	ids, err := r.ListMasteredWordIDs(ctx, userID, masteryBox)
	return int64(len(ids)), err
}

func testTraining() *config.Training {
	return &config.Training{
		BoxIntervals:         map[string]int{"1": 1, "2": 2, "3": 4, "4": 8, "5": 16},
		InitialWorkingSet:    4,
		ExpandStep:           2,
		ExpandThreshold:      0.60,
		RefresherProbability: 0,
		MaxDelayedRetries:    2,
		RetryGap:             4,
	}
}

func testWords(n int) []entity.Word {
	words := make([]entity.Word, 0, n)
	for i := 1; i <= n; i++ {
		words = append(words, entity.Word{
			ID:       int64(i),
			English:  fmt.Sprintf("english-%d", i),
			Turkish:  fmt.Sprintf("turkish-%d", i),
			Category: "basics",
		})
	}
	return words
}

func newTestScheduler(cfg *config.Training, words *fakeWordRepo, progress *fakeProgressRepo) *Scheduler {
	return New(words, progress, cfg, rand.New(rand.NewSource(1)))
}

func TestEnsureWorkingSetSeedsInitialBatch(t *testing.T) {
	words := newFakeWordRepo(testWords(10)...)
	progress := newFakeProgressRepo(words)
	for i := int64(1); i <= 10; i++ {
		progress.seedWord(42, i, 0, 0)
	}
	cfg := testTraining()
	s := newTestScheduler(cfg, words, progress)

	if err := s.EnsureWorkingSet(context.Background(), 42); err != nil {
		t.Fatalf("EnsureWorkingSet: %v", err)
	}

	working, _ := progress.List(context.Background(), repository.ProgressQuery{UserID: 42, Boxes: workingBoxes()})
	if len(working) != cfg.InitialWorkingSet*2 {
		t.Fatalf("seeded %d records, want %d (both directions)", len(working), cfg.InitialWorkingSet*2)
	}
	// Both directions of each seeded word move together.
	perWord := map[int64]int{}
	for _, rec := range working {
		if rec.LeitnerBox != entity.FirstBox {
			t.Fatalf("seeded into box %d, want %d", rec.LeitnerBox, entity.FirstBox)
		}
		perWord[rec.WordID]++
	}
	for id, n := range perWord {
		if n != 2 {
			t.Fatalf("word %d seeded in %d directions, want 2", id, n)
		}
	}
}

func TestEnsureWorkingSetExpandsOnGoodRate(t *testing.T) {
	words := newFakeWordRepo(testWords(10)...)
	progress := newFakeProgressRepo(words)
	for i := int64(1); i <= 4; i++ {
		progress.seedWord(42, i, 2, 2)
	}
	for i := int64(5); i <= 10; i++ {
		progress.seedWord(42, i, 0, 0)
	}
	// 8 of 10 answers correct: above the 0.60 threshold.
	progress.put(entity.ProgressRecord{UserID: 42, WordID: 1, Direction: entity.DirectionENToTR, LeitnerBox: 2, TimesAsked: 10, TimesCorrect: 8})

	cfg := testTraining()
	s := newTestScheduler(cfg, words, progress)
	if err := s.EnsureWorkingSet(context.Background(), 42); err != nil {
		t.Fatalf("EnsureWorkingSet: %v", err)
	}

	ids, _ := progress.ListNewWordIDs(context.Background(), 42, "")
	if len(ids) != 6-cfg.ExpandStep {
		t.Fatalf("%d new words left, want %d", len(ids), 6-cfg.ExpandStep)
	}
}

func TestEnsureWorkingSetHoldsOnPoorRate(t *testing.T) {
	words := newFakeWordRepo(testWords(10)...)
	progress := newFakeProgressRepo(words)
	for i := int64(1); i <= 4; i++ {
		progress.seedWord(42, i, 1, 1)
	}
	for i := int64(5); i <= 10; i++ {
		progress.seedWord(42, i, 0, 0)
	}
	// 3 of 10 correct: struggling, no new material.
	progress.put(entity.ProgressRecord{UserID: 42, WordID: 1, Direction: entity.DirectionENToTR, LeitnerBox: 1, TimesAsked: 10, TimesCorrect: 3})

	s := newTestScheduler(testTraining(), words, progress)
	if err := s.EnsureWorkingSet(context.Background(), 42); err != nil {
		t.Fatalf("EnsureWorkingSet: %v", err)
	}

	ids, _ := progress.ListNewWordIDs(context.Background(), 42, "")
	if len(ids) != 6 {
		t.Fatalf("%d new words left, want 6 (no expansion)", len(ids))
	}
}

func TestSelectWeakWordsPrefersRecentBottomBoxes(t *testing.T) {
	words := newFakeWordRepo(testWords(6)...)
	progress := newFakeProgressRepo(words)
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	for i := int64(1); i <= 3; i++ {
		progress.put(entity.ProgressRecord{
			UserID: 42, WordID: i, Direction: entity.DirectionENToTR,
			LeitnerBox: 1, LastAsked: base.Add(time.Duration(i) * time.Hour),
		})
	}
	s := newTestScheduler(testTraining(), words, progress)

	entries, err := s.SelectWords(context.Background(), 42, entity.SessionTypeWeakWords, entity.DirectionENToTR, "", 2)
	if err != nil {
		t.Fatalf("SelectWords: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("selected %d entries, want 2", len(entries))
	}
	// Most recently asked first.
	if entries[0].Word.ID != 3 || entries[1].Word.ID != 2 {
		t.Fatalf("unexpected order: %d, %d", entries[0].Word.ID, entries[1].Word.ID)
	}
}

func TestSelectWeakWordsHasNoNewWordFallback(t *testing.T) {
	words := newFakeWordRepo(testWords(4)...)
	progress := newFakeProgressRepo(words)
	// Upper-box words that are not due (counter 3 is not divisible by the
	// box-4 interval of 8), plus plenty of never-seen words.
	progress.put(entity.ProgressRecord{UserID: 42, WordID: 1, Direction: entity.DirectionENToTR, LeitnerBox: 4, SessionCounter: 3})
	progress.seedWord(42, 2, 0, 0)
	progress.seedWord(42, 3, 0, 0)

	s := newTestScheduler(testTraining(), words, progress)
	entries, err := s.SelectWords(context.Background(), 42, entity.SessionTypeWeakWords, entity.DirectionENToTR, "", 5)
	if err != nil {
		t.Fatalf("SelectWords: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("weak-words session picked up %d words, want 0 (no box-0 fallback)", len(entries))
	}
}

func TestSelectReviewMastered(t *testing.T) {
	words := newFakeWordRepo(testWords(8)...)
	progress := newFakeProgressRepo(words)
	for i := int64(1); i <= 5; i++ {
		progress.put(entity.ProgressRecord{UserID: 42, WordID: i, Direction: entity.DirectionENToTR, LeitnerBox: 3 + int(i%3)})
	}
	progress.put(entity.ProgressRecord{UserID: 42, WordID: 6, Direction: entity.DirectionENToTR, LeitnerBox: 1})

	s := newTestScheduler(testTraining(), words, progress)
	entries, err := s.SelectWords(context.Background(), 42, entity.SessionTypeReviewMastered, entity.DirectionENToTR, "", 3)
	if err != nil {
		t.Fatalf("SelectWords: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("selected %d, want 3", len(entries))
	}
	for _, e := range entries {
		if e.Word.ID == 6 {
			t.Fatalf("box-1 word leaked into a review session")
		}
	}
}

func TestSelectDueFillsFromWorkingSetThenNewWords(t *testing.T) {
	words := newFakeWordRepo(testWords(8)...)
	progress := newFakeProgressRepo(words)
	// One due word, one non-due working-set word, rest unseen.
	progress.put(entity.ProgressRecord{UserID: 42, WordID: 1, Direction: entity.DirectionENToTR, LeitnerBox: 1})
	progress.put(entity.ProgressRecord{UserID: 42, WordID: 2, Direction: entity.DirectionENToTR, LeitnerBox: 4, SessionCounter: 3})
	for i := int64(3); i <= 8; i++ {
		progress.seedWord(42, i, 0, 0)
	}

	s := newTestScheduler(testTraining(), words, progress)
	entries, err := s.SelectWords(context.Background(), 42, entity.SessionTypeStandard, entity.DirectionENToTR, "", 5)
	if err != nil {
		t.Fatalf("SelectWords: %v", err)
	}
	if len(entries) != 5 {
		t.Fatalf("selected %d, want 5", len(entries))
	}
	assertNoDuplicatePairs(t, entries)

	got := map[int64]bool{}
	for _, e := range entries {
		got[e.Word.ID] = true
	}
	if !got[1] || !got[2] {
		t.Fatalf("due and working-set words missing from selection: %v", got)
	}
}

func TestSelectDueRefresherInjection(t *testing.T) {
	words := newFakeWordRepo(testWords(6)...)
	progress := newFakeProgressRepo(words)
	progress.put(entity.ProgressRecord{UserID: 42, WordID: 1, Direction: entity.DirectionENToTR, LeitnerBox: 1})
	// Word 5 is fully mastered in both directions.
	progress.seedWord(42, 5, entity.MasteryBox, entity.MasteryBox)

	cfg := testTraining()
	cfg.RefresherProbability = 1.0
	s := newTestScheduler(cfg, words, progress)

	entries, err := s.SelectWords(context.Background(), 42, entity.SessionTypeStandard, entity.DirectionENToTR, "", 1)
	if err != nil {
		t.Fatalf("SelectWords: %v", err)
	}
	found := false
	for _, e := range entries {
		if e.Word.ID == 5 {
			found = true
		}
	}
	if !found {
		t.Fatalf("refresher word not spliced in: %+v", entries)
	}
	assertNoDuplicatePairs(t, entries)
}

func TestSelectMixedSplitsAndBackfills(t *testing.T) {
	words := newFakeWordRepo(testWords(6)...)
	progress := newFakeProgressRepo(words)
	// Three words drillable EN→TR, only one TR→EN.
	for i := int64(1); i <= 3; i++ {
		progress.put(entity.ProgressRecord{UserID: 42, WordID: i, Direction: entity.DirectionENToTR, LeitnerBox: 1})
	}
	progress.put(entity.ProgressRecord{UserID: 42, WordID: 4, Direction: entity.DirectionTRToEN, LeitnerBox: 1})

	s := newTestScheduler(testTraining(), words, progress)
	entries, err := s.SelectMixed(context.Background(), 42, entity.SessionTypeStandard, "", 4)
	if err != nil {
		t.Fatalf("SelectMixed: %v", err)
	}
	if len(entries) != 4 {
		t.Fatalf("selected %d, want 4 after backfill", len(entries))
	}
	assertNoDuplicatePairs(t, entries)

	perDir := map[entity.Direction]int{}
	for _, e := range entries {
		perDir[e.Direction]++
	}
	if perDir[entity.DirectionTRToEN] != 1 || perDir[entity.DirectionENToTR] != 3 {
		t.Fatalf("direction split %v, want 1 TR→EN and 3 EN→TR", perDir)
	}
}

func TestSelectMixedEmptyVocabulary(t *testing.T) {
	words := newFakeWordRepo()
	progress := newFakeProgressRepo(words)
	s := newTestScheduler(testTraining(), words, progress)

	entries, err := s.SelectMixed(context.Background(), 42, entity.SessionTypeStandard, "", 10)
	if err != nil {
		t.Fatalf("SelectMixed: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("selected %d from an empty vocabulary", len(entries))
	}
}

func assertNoDuplicatePairs(t *testing.T, entries []entity.SessionWordEntry) {
	t.Helper()
	seen := map[string]bool{}
	for _, e := range entries {
		key := fmt.Sprintf("%d/%s", e.Word.ID, e.Direction)
		if seen[key] {
			t.Fatalf("duplicate word+direction pair %s", key)
		}
		seen[key] = true
	}
}
