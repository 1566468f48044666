// Package domain holds the shared model types for certificate-issuance
// cases. Keep these transport-agnostic so stores, the workflow engine, and
// effect sinks can all depend on them without cycles.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// State is one lifecycle stage of a certificate request.
type State string

const (
	StateRegistered       State = "registered"
	StateRouted           State = "routed_to_processor"
	StateSearching        State = "search_in_progress"
	StateDocumentLocated  State = "document_located_awaiting_payment"
	StateDocumentMissing  State = "document_not_located"
	StatePaymentValidated State = "payment_validated"
	StateDigitizing       State = "digitization_in_progress"
	StateRegulatorReview  State = "pending_regulator_review"
	StateCorrections      State = "returned_with_corrections"
	StateRegistration     State = "pending_registration"
	StateSignature        State = "pending_signature"
	StateIssued           State = "document_issued"
	StateDelivered        State = "delivered"
)

// Role is the authorization class of an actor performing transitions.
type Role string

const (
	// RoleSystem represents unattended transitions (payment webhooks,
	// scheduled jobs). It is authorized for every transition.
	RoleSystem    Role = "system"
	RoleApplicant Role = "public_requester"
	RoleClerk     Role = "intake_clerk"
	RoleProcessor Role = "processor"
	RoleRegulator Role = "regulator"
	RoleRegistrar Role = "registrar"
	RoleSigner    Role = "signing_authority"
	RoleAdmin     Role = "administrator"
)

type Priority string

const (
	PriorityNormal Priority = "normal"
	PriorityUrgent Priority = "urgent"
)

// Request is a certificate-issuance case tracked through the approval
// pipeline. The trazabilidad fields record who reached each milestone and
// when; they are stamped by the workflow engine as part of the same write
// that changes the state, never independently.
type Request struct {
	ID           uuid.UUID `json:"id"`
	CurrentState State     `json:"current_state"`
	Priority     Priority  `json:"priority"`

	ApplicantName string `json:"applicant_name"`
	ContactEmail  string `json:"contact_email"`

	// Note is the free-text observation from the most recent transition.
	// It is replaced, not appended.
	Note string `json:"note,omitempty"`

	SubmittedBy        *uuid.UUID `json:"submitted_by,omitempty"`
	SubmittedAt        *time.Time `json:"submitted_at,omitempty"`
	PaymentValidatedBy *uuid.UUID `json:"payment_validated_by,omitempty"`
	PaymentValidatedAt *time.Time `json:"payment_validated_at,omitempty"`
	ProcessingBy       *uuid.UUID `json:"processing_by,omitempty"`
	ProcessingAt       *time.Time `json:"processing_at,omitempty"`
	IssuedAt           *time.Time `json:"issued_at,omitempty"`
	DeliveredBy        *uuid.UUID `json:"delivered_by,omitempty"`
	DeliveredAt        *time.Time `json:"delivered_at,omitempty"`
	RejectedAt         *time.Time `json:"rejected_at,omitempty"`
	RejectionReason    string     `json:"rejection_reason,omitempty"`

	// References to records owned by other subsystems. Optional until the
	// respective workflow stage attaches them.
	PaymentID          *uuid.UUID `json:"payment_id,omitempty"`
	PhysicalDocumentID *uuid.UUID `json:"physical_document_id,omitempty"`
	CertificateID      *uuid.UUID `json:"certificate_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}
