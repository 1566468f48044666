package domain

import (
	"time"

	"github.com/google/uuid"
)

// HistoryEntry is one immutable audit record of a past transition. Entries
// for a request form a chain: each entry's FromState equals the previous
// entry's ToState, and FromState is nil only on the creation entry.
// ActorID is nil for system-initiated transitions.
type HistoryEntry struct {
	ID        uuid.UUID      `json:"id"`
	RequestID uuid.UUID      `json:"request_id"`
	FromState *State         `json:"from_state,omitempty"`
	ToState   State          `json:"to_state"`
	ActorID   *uuid.UUID     `json:"actor_id,omitempty"`
	Role      Role           `json:"role"`
	Note      string         `json:"note,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}
