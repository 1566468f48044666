package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"certitrack/internal/domain"
)

// Store keeps history entries in memory, ordered by append. Used by unit
// tests and DSN-less development mode.
type Store struct {
	mu      sync.RWMutex
	entries map[uuid.UUID][]domain.HistoryEntry
}

func New() *Store {
	return &Store{entries: make(map[uuid.UUID][]domain.HistoryEntry)}
}

func (s *Store) Append(_ context.Context, entry *domain.HistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[entry.RequestID] = append(s.entries[entry.RequestID], *entry)
	return nil
}

func (s *Store) ListByRequest(_ context.Context, requestID uuid.UUID) ([]domain.HistoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.HistoryEntry{}, s.entries[requestID]...), nil
}

func (s *Store) Latest(_ context.Context, requestID uuid.UUID) (*domain.HistoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries := s.entries[requestID]
	if len(entries) == 0 {
		return nil, nil
	}
	latest := entries[len(entries)-1]
	return &latest, nil
}
