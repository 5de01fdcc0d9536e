// Package sessionstore keeps in-flight training sessions in process memory.
// A session lives here from start to completion; only the lightweight header
// is persisted.
package sessionstore

import (
	"sync"
	"time"

	"github.com/nbennett1978/vocab-trainer/internal/entity"
	"github.com/nbennett1978/vocab-trainer/internal/repository"
)

type memoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*entity.Session
}

// NewMemoryStore creates an empty in-memory session store.
func NewMemoryStore() repository.SessionStore {
	return &memoryStore{sessions: make(map[string]*entity.Session)}
}

func (s *memoryStore) Get(userID int64, sessionID string) (*entity.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[entity.SessionKey(userID, sessionID)]
	return sess, ok
}

func (s *memoryStore) Put(sess *entity.Session) {
	s.mu.Lock()
	s.sessions[sess.Key()] = sess
	s.mu.Unlock()
}

func (s *memoryStore) Delete(userID int64, sessionID string) {
	s.mu.Lock()
	delete(s.sessions, entity.SessionKey(userID, sessionID))
	s.mu.Unlock()
}

func (s *memoryStore) Touch(userID int64, sessionID string, at time.Time) {
	s.mu.Lock()
	if sess, ok := s.sessions[entity.SessionKey(userID, sessionID)]; ok {
		sess.LastActivity = at
	}
	s.mu.Unlock()
}

func (s *memoryStore) Stale(cutoff time.Time) []*entity.Session {
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
