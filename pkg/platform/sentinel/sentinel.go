package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores return these (optionally
// wrapped) so services can translate them into domain errors.
//
// These represent factual states about stored records, not business rulings:
// - ErrNotFound: record does not exist in the store
// - ErrConflict: a compare-and-set write observed a stale current state
// - ErrUnavailable: backing store temporarily unreachable
//
// For business-rule failures (illegal transition, unauthorized role), use
// pkg/domain-errors directly.
var (
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrUnavailable = errors.New("unavailable")
)
