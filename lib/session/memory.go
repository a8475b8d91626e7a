package session

import (
	"context"
	"sync"
	"time"

	"irtracker/lib/models"
)

// MemoryStorage keeps sessions in process memory
type MemoryStorage struct {
	mu        sync.RWMutex
	sessions  map[string]models.Session
	startTime time.Time
}

// NewMemoryStorage creates an empty storage
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{sessions: make(map[string]models.Session)}
}

func (s *MemoryStorage) Load(ctx context.Context, id string) (models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[id]
	if !ok {
		return models.Session{}, ErrNotFound
	}
	return session, nil
}

func (s *MemoryStorage) Save(ctx context.Context, session models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = session
	return nil
}

func (s *MemoryStorage) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; !ok {
		return ErrNotFound
	}
	delete(s.sessions, id)
	return nil
}

func (s *MemoryStorage) SystemStartTime(ctx context.Context, now time.Time) (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.startTime.IsZero() {
		s.startTime = now
	}
	return s.startTime, nil
}

// DeleteExpired removes sessions idle since before cutoff
func (s *MemoryStorage) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed int64
	for id, session := range s.sessions {
		if session.LastActivity.Before(cutoff) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed, nil
}
