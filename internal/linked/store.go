// Package linked gives the workflow narrow access to records owned by other
// subsystems. Only the physical-document status is ever written back; the
// rest of those records' lifecycle is external.
package linked

import (
	"context"

	"github.com/google/uuid"

	"certitrack/internal/domain"
)

// DocumentStore reads and status-flips physical-document records in the
// archive ledger.
type DocumentStore interface {
	Get(ctx context.Context, id uuid.UUID) (*domain.PhysicalDocument, error)
	SetStatus(ctx context.Context, id uuid.UUID, status domain.DocumentStatus) error
}
