// Package scheduler implements the Leitner box spaced-repetition scheduler:
// it grows each learner's working set and selects the word queue for a
// training session.
package scheduler

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/samber/lo"

	"github.com/nbennett1978/vocab-trainer/internal/entity"
	"github.com/nbennett1978/vocab-trainer/internal/infrastructure/config"
	"github.com/nbennett1978/vocab-trainer/internal/repository"
)

// Scheduler selects the words a learner sees. Randomness comes from an
// injected source so selection is deterministic under test.
type Scheduler struct {
	words    repository.WordRepository
	progress repository.ProgressRepository
	cfg      *config.Training
	rng      *rand.Rand
}

// New wires a scheduler. A nil rng falls back to a time-seeded source.
func New(words repository.WordRepository, progress repository.ProgressRepository, cfg *config.Training, rng *rand.Rand) *Scheduler {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Scheduler{
		words:    words,
		progress: progress,
		cfg:      cfg,
		rng:      rng,
	}
}

func workingBoxes() []int { return []int{1, 2, 3, 4, 5} }

// isDue reports whether a working-set word is eligible for review this
// session. Box 1 is always due; higher boxes come up when the word's session
// counter divides evenly by the box interval.
func (s *Scheduler) isDue(rec entity.ProgressRecord) bool {
	if rec.LeitnerBox <= entity.MinBox {
		return false
	}
	if rec.LeitnerBox == entity.FirstBox {
		return true
	}
	interval := s.cfg.Interval(rec.LeitnerBox)
	if interval <= 1 {
		return true
	}
	return rec.SessionCounter%interval == 0
}

// EnsureWorkingSet grows the learner's active rotation: an empty working set
// is seeded with the configured initial batch, and a learner answering well
// enough (success rate at or above the expansion threshold, 1.0 with no data)
// earns an expansion batch. Both directions of a word are promoted together.
func (s *Scheduler) EnsureWorkingSet(ctx context.Context, userID int64) error {
	working, err := s.progress.List(ctx, repository.ProgressQuery{UserID: userID, Boxes: workingBoxes()})
	if err != nil {
		return fmt.Errorf("list working set: %w", err)
	}
	if len(working) == 0 {
		return s.promoteNewWords(ctx, userID, s.cfg.InitialWorkingSet)
	}

	asked, correct := 0, 0
	for _, rec := range working {
		asked += rec.TimesAsked
		correct += rec.TimesCorrect
	}
	rate := 1.0
	if asked > 0 {
		rate = float64(correct) / float64(asked)
	}
	if rate >= s.cfg.ExpandThreshold {
		return s.promoteNewWords(ctx, userID, s.cfg.ExpandStep)
	}
	return nil
}

func (s *Scheduler) promoteNewWords(ctx context.Context, userID int64, n int) error {
	if n <= 0 {
		return nil
	}
	ids, err := s.progress.ListNewWordIDs(ctx, userID, "")
	if err != nil {
		return fmt.Errorf("list new words: %w", err)
	}
	if len(ids) == 0 {
		return nil
	}
	s.rng.Shuffle(len(ids), func(i, j int) { ids[i], ids[j] = ids[j], ids[i] })
	if len(ids) > n {
		ids = ids[:n]
	}
	if err := s.progress.Promote(ctx, userID, ids, entity.FirstBox); err != nil {
		return fmt.Errorf("promote new words: %w", err)
	}
	return nil
}

// SelectWords picks up to count words for one direction according to the
// session type. The result never contains the same word twice.
func (s *Scheduler) SelectWords(ctx context.Context, userID int64, sessionType entity.SessionType, direction entity.Direction, category string, count int) ([]entity.SessionWordEntry, error) {
	if count <= 0 {
		return nil, nil
	}
	switch sessionType {
	case entity.SessionTypeWeakWords:
		return s.selectWeak(ctx, userID, direction, count)
	case entity.SessionTypeReviewMastered:
		return s.selectReview(ctx, userID, direction, count)
	default:
		return s.selectDue(ctx, userID, direction, category, count)
	}
}

// selectWeak picks the most recently asked words from the bottom boxes,
// topped up with due words. It deliberately has no fallback to unseen words:
// a weak-words session drills what the learner already struggled with.
func (s *Scheduler) selectWeak(ctx context.Context, userID int64, direction entity.Direction, count int) ([]entity.SessionWordEntry, error) {
	weak, err := s.progress.List(ctx, repository.ProgressQuery{
		UserID:    userID,
		Direction: direction,
		Boxes:     []int{1, 2},
	})
	if err != nil {
		return nil, fmt.Errorf("list weak words: %w", err)
	}
	sort.SliceStable(weak, func(i, j int) bool { return weak[i].LastAsked.After(weak[j].LastAsked) })

	seen := make(map[int64]bool, count)
	ids := make([]int64, 0, count)
	for _, rec := range weak {
		if len(ids) >= count {
			break
		}
		if !seen[rec.WordID] {
			seen[rec.WordID] = true
			ids = append(ids, rec.WordID)
		}
	}

	if len(ids) < count {
		working, err := s.progress.List(ctx, repository.ProgressQuery{
			UserID:    userID,
			Direction: direction,
			Boxes:     workingBoxes(),
		})
		if err != nil {
			return nil, fmt.Errorf("list working set: %w", err)
		}
		due := lo.Filter(working, func(rec entity.ProgressRecord, _ int) bool {
			return s.isDue(rec) && !seen[rec.WordID]
		})
		sortByBoxThenLastAsked(due)
		for _, rec := range due {
			if len(ids) >= count {
				break
			}
			seen[rec.WordID] = true
			ids = append(ids, rec.WordID)
		}
	}

	return s.buildEntries(ctx, ids, direction)
}

// selectReview shuffles everything in the upper boxes and truncates.
func (s *Scheduler) selectReview(ctx context.Context, userID int64, direction entity.Direction, count int) ([]entity.SessionWordEntry, error) {
	mastered, err := s.progress.List(ctx, repository.ProgressQuery{
		UserID:    userID,
		Direction: direction,
		Boxes:     []int{3, 4, 5},
	})
	if err != nil {
		return nil, fmt.Errorf("list mastered words: %w", err)
	}
	s.rng.Shuffle(len(mastered), func(i, j int) { mastered[i], mastered[j] = mastered[j], mastered[i] })
	if len(mastered) > count {
		mastered = mastered[:count]
	}
	ids := lo.Map(mastered, func(rec entity.ProgressRecord, _ int) int64 { return rec.WordID })
	return s.buildEntries(ctx, ids, direction)
}

// selectDue serves standard, quick and category sessions: due words first,
// then the rest of the working set, then unseen words, with a small chance of
// splicing in one fully mastered refresher. The result is shuffled.
func (s *Scheduler) selectDue(ctx context.Context, userID int64, direction entity.Direction, category string, count int) ([]entity.SessionWordEntry, error) {
	working, err := s.progress.List(ctx, repository.ProgressQuery{
		UserID:    userID,
		Direction: direction,
		Category:  category,
		Boxes:     workingBoxes(),
	})
	if err != nil {
		return nil, fmt.Errorf("list working set: %w", err)
	}

	due := lo.Filter(working, func(rec entity.ProgressRecord, _ int) bool { return s.isDue(rec) })
	sortByBoxThenLastAsked(due)

	seen := make(map[int64]bool, count)
	ids := make([]int64, 0, count+1)
	for _, rec := range due {
		if len(ids) >= count {
			break
		}
		if !seen[rec.WordID] {
			seen[rec.WordID] = true
			ids = append(ids, rec.WordID)
		}
	}

	if len(ids) < count {
		rest := lo.Filter(working, func(rec entity.ProgressRecord, _ int) bool { return !seen[rec.WordID] })
		sortByBoxThenLastAsked(rest)
		for _, rec := range rest {
			if len(ids) >= count {
				break
			}
			seen[rec.WordID] = true
			ids = append(ids, rec.WordID)
		}
	}

	if len(ids) < count {
		fresh, err := s.progress.ListNewWordIDs(ctx, userID, category)
		if err != nil {
			return nil, fmt.Errorf("list new words: %w", err)
		}
		s.rng.Shuffle(len(fresh), func(i, j int) { fresh[i], fresh[j] = fresh[j], fresh[i] })
		for _, id := range fresh {
			if len(ids) >= count {
				break
			}
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}

	// Occasionally splice in one fully mastered word as a refresher,
	// regardless of how full the selection is.
	if s.rng.Float64() < s.cfg.RefresherProbability {
		mastered, err := s.progress.ListMasteredWordIDs(ctx, userID, entity.MasteryBox)
		if err != nil {
			return nil, fmt.Errorf("list fully mastered words: %w", err)
		}
		if len(mastered) > 0 {
			pick := mastered[s.rng.Intn(len(mastered))]
			if !seen[pick] {
				seen[pick] = true
				ids = append(ids, pick)
			}
		}
	}

	entries, err := s.buildEntries(ctx, ids, direction)
	if err != nil {
		return nil, err
	}
	s.rng.Shuffle(len(entries), func(i, j int) { entries[i], entries[j] = entries[j], entries[i] })
	return entries, nil
}

// SelectMixed runs the selection once per direction with the target count
// split evenly (remainder to a random direction), backfills a short direction
// from the other's surplus without exceeding what that direction produced,
// and shuffles the combined queue.
func (s *Scheduler) SelectMixed(ctx context.Context, userID int64, sessionType entity.SessionType, category string, count int) ([]entity.SessionWordEntry, error) {
	if count <= 0 {
		return nil, nil
	}
	// Weak-word and review sessions drill existing material only; growing the
	// working set here would hand them words the learner has never seen.
	if sessionType != entity.SessionTypeWeakWords && sessionType != entity.SessionTypeReviewMastered {
		if err := s.EnsureWorkingSet(ctx, userID); err != nil {
			return nil, err
		}
	}

	dirs := entity.Directions()
	share := map[entity.Direction]int{dirs[0]: count / 2, dirs[1]: count / 2}
	if count%2 != 0 {
		share[dirs[s.rng.Intn(len(dirs))]]++
	}

	surplus := make(map[entity.Direction][]entity.SessionWordEntry, len(dirs))
	out := make([]entity.SessionWordEntry, 0, count)
	for _, d := range dirs {
		sel, err := s.SelectWords(ctx, userID, sessionType, d, category, count)
		if err != nil {
			return nil, err
		}
		take := share[d]
		if take > len(sel) {
			take = len(sel)
		}
		out = append(out, sel[:take]...)
		surplus[d] = sel[take:]
	}

	for _, d := range dirs {
		if len(out) >= count {
			break
		}
		need := count - len(out)
		if need > len(surplus[d]) {
			need = len(surplus[d])
		}
		out = append(out, surplus[d][:need]...)
	}

	s.rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out, nil
}

func (s *Scheduler) buildEntries(ctx context.Context, ids []int64, direction entity.Direction) ([]entity.SessionWordEntry, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	words, err := s.words.ListByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load words: %w", err)
	}
	byID := lo.KeyBy(words, func(w entity.Word) int64 { return w.ID })
	entries := make([]entity.SessionWordEntry, 0, len(ids))
	for _, id := range ids {
		w, ok := byID[id]
		if !ok {
			// Word deleted since the progress row was written; skip it.
			continue
		}
		entries = append(entries, entity.SessionWordEntry{Word: w, Direction: direction})
	}
	return entries, nil
}

func sortByBoxThenLastAsked(recs []entity.ProgressRecord) {
	sort.SliceStable(recs, func(i, j int) bool {
		if recs[i].LeitnerBox != recs[j].LeitnerBox {
			return recs[i].LeitnerBox < recs[j].LeitnerBox
		}
		return recs[i].LastAsked.Before(recs[j].LastAsked)
	})
}
