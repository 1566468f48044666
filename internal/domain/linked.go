package domain

import (
	"time"

	"github.com/google/uuid"
)

// DocumentStatus is the narrow status field certitrack writes back to the
// physical-document record owned by the archive subsystem.
type DocumentStatus string

const (
	DocumentStatusArchived DocumentStatus = "archived"
	DocumentStatusInSearch DocumentStatus = "in_search"
	DocumentStatusLocated  DocumentStatus = "located"
)

// PhysicalDocument is the archive ledger entry a request refers to. Its
// lifecycle belongs to the archive subsystem; certitrack only flips Status
// when the request enters a search-related state.
type PhysicalDocument struct {
	ID        uuid.UUID      `json:"id"`
	Status    DocumentStatus `json:"status"`
	UpdatedAt time.Time      `json:"updated_at"`
}
