package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/nbennett1978/vocab-trainer/internal/entity"
	"github.com/nbennett1978/vocab-trainer/internal/repository"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

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

type fakeSessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*entity.Session
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{sessions: make(map[string]*entity.Session)}
}

func (s *fakeSessionStore) Get(userID int64, sessionID string) (*entity.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[entity.SessionKey(userID, sessionID)]
	return sess, ok
}

func (s *fakeSessionStore) Put(sess *entity.Session) {
	s.mu.Lock()
	s.sessions[sess.Key()] = sess
	s.mu.Unlock()
}

func (s *fakeSessionStore) Delete(userID int64, sessionID string) {
	s.mu.Lock()
	delete(s.sessions, entity.SessionKey(userID, sessionID))
	s.mu.Unlock()
}

func (s *fakeSessionStore) Touch(userID int64, sessionID string, at time.Time) {
	s.mu.Lock()
	if sess, ok := s.sessions[entity.SessionKey(userID, sessionID)]; ok {
		sess.LastActivity = at
	}
	s.mu.Unlock()
}

func (s *fakeSessionStore) Stale(cutoff time.Time) []*entity.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*entity.Session
	for _, sess := range s.sessions {
		if sess.LastActivity.Before(cutoff) {
			out = append(out, sess)
		}
	}
	return out
}

func (s *fakeSessionStore) len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

type closedHeader struct {
	asked     int
	correct   int
	stars     int
	endedAt   time.Time
	abandoned bool
}

type fakeHeaderRepo struct {
	mu      sync.Mutex
	created []entity.SessionHeader
	tallies map[string]int
	updated map[string]time.Time
	closed  map[string]closedHeader
}

func newFakeHeaderRepo() *fakeHeaderRepo {
	return &fakeHeaderRepo{
		tallies: make(map[string]int),
		updated: make(map[string]time.Time),
		closed:  make(map[string]closedHeader),
	}
}

func (r *fakeHeaderRepo) Create(ctx context.Context, header *entity.SessionHeader) error {
	r.mu.Lock()
	r.created = append(r.created, *header)
	r.updated[entity.SessionKey(header.UserID, header.ID)] = header.StartedAt
	r.mu.Unlock()
	return nil
}

func (r *fakeHeaderRepo) UpdateTally(ctx context.Context, userID int64, sessionID string, asked, correct, stars int) error {
	r.mu.Lock()
	r.tallies[entity.SessionKey(userID, sessionID)]++
	r.mu.Unlock()
	return nil
}

func (r *fakeHeaderRepo) Close(ctx context.Context, userID int64, sessionID string, asked, correct, stars int, endedAt time.Time, abandoned bool) error {
	r.mu.Lock()
	r.closed[entity.SessionKey(userID, sessionID)] = closedHeader{
		asked: asked, correct: correct, stars: stars, endedAt: endedAt, abandoned: abandoned,
	}
	r.mu.Unlock()
	return nil
}

func (r *fakeHeaderRepo) CloseStale(ctx context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, h := range r.created {
		key := entity.SessionKey(h.UserID, h.ID)
		if _, ok := r.closed[key]; ok {
			continue
		}
		if !r.updated[key].Before(cutoff) {
			continue
		}
		r.closed[key] = closedHeader{
			asked: h.WordsAsked, correct: h.WordsCorrect, stars: h.StarsEarned,
			endedAt: cutoff, abandoned: true,
		}
		n++
	}
	return n, nil
}

type fakeStatsRepo struct {
	mu           sync.Mutex
	stats        map[int64]*entity.LearnerStats
	daily        []entity.DailyActivity
	achievements map[string]entity.Achievement
}

func newFakeStatsRepo() *fakeStatsRepo {
	return &fakeStatsRepo{
		stats:        make(map[int64]*entity.LearnerStats),
		achievements: make(map[string]entity.Achievement),
	}
}

func (r *fakeStatsRepo) GetLearnerStats(ctx context.Context, userID int64) (*entity.LearnerStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.stats[userID]; ok {
		copy := *s
		return &copy, nil
	}
	return nil, nil
}

func (r *fakeStatsRepo) UpsertLearnerStats(ctx context.Context, stats *entity.LearnerStats) error {
	r.mu.Lock()
	copy := *stats
	r.stats[stats.UserID] = &copy
	r.mu.Unlock()
	return nil
}

func (r *fakeStatsRepo) AddDailyActivity(ctx context.Context, activity entity.DailyActivity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, a := range r.daily {
		if a.UserID == activity.UserID && a.Date.Equal(activity.Date) {
			r.daily[i].SessionsCompleted += activity.SessionsCompleted
			r.daily[i].WordsAsked += activity.WordsAsked
			r.daily[i].WordsCorrect += activity.WordsCorrect
			r.daily[i].StarsEarned += activity.StarsEarned
			return nil
		}
	}
	r.daily = append(r.daily, activity)
	return nil
}

func (r *fakeStatsRepo) GrantAchievement(ctx context.Context, userID int64, achievementType string, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := fmt.Sprintf("%d/%s", userID, achievementType)
	if _, ok := r.achievements[key]; ok {
		return false, nil
	}
	r.achievements[key] = entity.Achievement{UserID: userID, Type: achievementType, EarnedAt: at}
	return true, nil
}

func (r *fakeStatsRepo) ListAchievements(ctx context.Context, userID int64) ([]entity.Achievement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.Achievement
	for _, a := range r.achievements {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}
