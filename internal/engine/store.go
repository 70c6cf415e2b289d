// internal/engine/store.go
package engine

import (
	"sync"

	"github.com/google/uuid"
)

// MatchStore is the in-memory registry of live matches.
type MatchStore struct {
	mu      sync.RWMutex
	matches map[uuid.UUID]*Match
}

func NewMatchStore() *MatchStore {
	return &MatchStore{matches: make(map[uuid.UUID]*Match)}
}

func (s *MatchStore) AddMatch(m *Match) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.matches[m.ID] = m
}

func (s *MatchStore) GetMatch(id uuid.UUID) (*Match, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.matches[id]
	return m, ok
}

// GetMatchByRoom returns the live match bound to a room, if any.
func (s *MatchStore) GetMatchByRoom(roomID uuid.UUID) (*Match, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, m := range s.matches {
		if m.RoomID == roomID {
			return m, true
		}
	}
	return nil, false
}

// DeleteMatch disposes the match's timers and removes it from the registry.
func (s *MatchStore) DeleteMatch(id uuid.UUID) {
	s.mu.Lock()
	m, ok := s.matches[id]
	delete(s.matches, id)
	s.mu.Unlock()
	if ok {
		m.Dispose()
	}
}
