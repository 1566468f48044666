package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"certitrack/internal/domain"
	"certitrack/internal/workflow"
	"certitrack/pkg/platform/sentinel"
)

// Store keeps request records in memory with the same compare-and-set
// semantics as the postgres store: ApplyTransition commits only when the
// stored state still equals the observed one. Used by unit tests and
// DSN-less development mode.
type Store struct {
	mu       sync.RWMutex
	requests map[uuid.UUID]*domain.Request
}

func New() *Store {
	return &Store{requests: make(map[uuid.UUID]*domain.Request)}
}

func (s *Store) Create(_ context.Context, req *domain.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.requests[req.ID]; exists {
		return sentinel.ErrConflict
	}
	clone := *req
	s.requests[req.ID] = &clone
	return nil
}

func (s *Store) Get(_ context.Context, id uuid.UUID) (*domain.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	req, ok := s.requests[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	clone := *req
	return &clone, nil
}

func (s *Store) ApplyTransition(
	_ context.Context,
	id uuid.UUID,
	from, to domain.State,
	stamps workflow.Stamps,
	note *string,
) (*domain.Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	req, ok := s.requests[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if req.CurrentState != from {
		return nil, sentinel.ErrConflict
	}
	req.CurrentState = to
	stamps.ApplyTo(req)
	if note != nil {
		req.Note = *note
	}
	clone := *req
	return &clone, nil
}

func (s *Store) AttachRefs(_ context.Context, id uuid.UUID, refs workflow.LinkedRefs) (*domain.Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	req, ok := s.requests[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if refs.PaymentID != nil {
		req.PaymentID = refs.PaymentID
	}
	if refs.PhysicalDocumentID != nil {
		req.PhysicalDocumentID = refs.PhysicalDocumentID
	}
	if refs.CertificateID != nil {
		req.CertificateID = refs.CertificateID
	}
	clone := *req
	return &clone, nil
}
