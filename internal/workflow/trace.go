package workflow

import (
	"time"

	"github.com/google/uuid"

	"certitrack/internal/domain"
)

// RejectionDocumentNotLocated is the fixed reason recorded when the archive
// search comes up empty.
const RejectionDocumentNotLocated = "requested record not located in archive"

// Stamps are the trazabilidad field updates applied to the request record in
// the same write as the state change. Nil fields are left untouched.
type Stamps struct {
	SubmittedBy        *uuid.UUID
	SubmittedAt        *time.Time
	PaymentValidatedBy *uuid.UUID
	PaymentValidatedAt *time.Time
	ProcessingBy       *uuid.UUID
	ProcessingAt       *time.Time
	IssuedAt           *time.Time
	DeliveredBy        *uuid.UUID
	DeliveredAt        *time.Time
	RejectedAt         *time.Time
	RejectionReason    *string
}

// IsZero reports whether the projection stamps nothing.
func (s Stamps) IsZero() bool {
	return s == Stamps{}
}

// ProjectStamps maps a target state to the trazabilidad fields it stamps.
// Pure: same inputs, same stamps. States without a documented stamp return
// the zero value. Issuance stamps only a timestamp because it can be
// system-driven; the actor, when present, is still recorded in history.
func ProjectStamps(target domain.State, actorID *uuid.UUID, now time.Time) Stamps {
	switch target {
	case domain.StateRegistered:
		return Stamps{SubmittedBy: actorID, SubmittedAt: &now}
	case domain.StatePaymentValidated:
		return Stamps{PaymentValidatedBy: actorID, PaymentValidatedAt: &now}
	case domain.StateDigitizing:
		return Stamps{ProcessingBy: actorID, ProcessingAt: &now}
	case domain.StateIssued:
		return Stamps{IssuedAt: &now}
	case domain.StateDelivered:
		return Stamps{DeliveredBy: actorID, DeliveredAt: &now}
	case domain.StateDocumentMissing:
		reason := RejectionDocumentNotLocated
		return Stamps{RejectedAt: &now, RejectionReason: &reason}
	default:
		return Stamps{}
	}
}

// ApplyTo copies the non-nil stamps onto req. Shared by the store
// implementations so memory and postgres stamp identically.
func (s Stamps) ApplyTo(req *domain.Request) {
	if s.SubmittedBy != nil {
		req.SubmittedBy = s.SubmittedBy
	}
	if s.SubmittedAt != nil {
		req.SubmittedAt = s.SubmittedAt
	}
	if s.PaymentValidatedBy != nil {
		req.PaymentValidatedBy = s.PaymentValidatedBy
	}
	if s.PaymentValidatedAt != nil {
		req.PaymentValidatedAt = s.PaymentValidatedAt
	}
	if s.ProcessingBy != nil {
		req.ProcessingBy = s.ProcessingBy
	}
	if s.ProcessingAt != nil {
		req.ProcessingAt = s.ProcessingAt
	}
	if s.IssuedAt != nil {
		req.IssuedAt = s.IssuedAt
	}
	if s.DeliveredBy != nil {
		req.DeliveredBy = s.DeliveredBy
	}
	if s.DeliveredAt != nil {
		req.DeliveredAt = s.DeliveredAt
	}
	if s.RejectedAt != nil {
		req.RejectedAt = s.RejectedAt
	}
	if s.RejectionReason != nil {
		req.RejectionReason = *s.RejectionReason
	}
}
