package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"certitrack/internal/domain"
	"certitrack/pkg/platform/sentinel"
)

// Store keeps physical-document records in memory for tests and DSN-less
// development mode.
type Store struct {
	mu        sync.RWMutex
	documents map[uuid.UUID]*domain.PhysicalDocument
}

func New() *Store {
	return &Store{documents: make(map[uuid.UUID]*domain.PhysicalDocument)}
}

// Seed inserts a document directly, for test setup.
func (s *Store) Seed(doc domain.PhysicalDocument) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.documents[doc.ID] = &doc
}

func (s *Store) Get(_ context.Context, id uuid.UUID) (*domain.PhysicalDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.documents[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	clone := *doc
	return &clone, nil
}

func (s *Store) SetStatus(_ context.Context, id uuid.UUID, status domain.DocumentStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.documents[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	doc.Status = status
	doc.UpdatedAt = time.Now()
	return nil
}
