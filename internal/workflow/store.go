package workflow

import (
	"context"

	"github.com/google/uuid"

	"certitrack/internal/domain"
)

// LinkedRefs carries optional foreign references to attach to a request.
// Nil fields are left untouched.
type LinkedRefs struct {
	PaymentID          *uuid.UUID
	PhysicalDocumentID *uuid.UUID
	CertificateID      *uuid.UUID
}

// RequestStore is the persistence capability the engine is handed at
// construction. Implementations must make ApplyTransition a single atomic
// compare-and-set on the current state: when the stored state no longer
// equals from, the write must not happen and sentinel.ErrConflict must come
// back, so that of two racing callers exactly one wins.
type RequestStore interface {
	Create(ctx context.Context, req *domain.Request) error
	Get(ctx context.Context, id uuid.UUID) (*domain.Request, error)
	ApplyTransition(ctx context.Context, id uuid.UUID, from, to domain.State, stamps Stamps, note *string) (*domain.Request, error)
	AttachRefs(ctx context.Context, id uuid.UUID, refs LinkedRefs) (*domain.Request, error)
}
