package httptransport

// Request payloads for the transition API. Field-level validation beyond
// decoding belongs to the callers' form layer; the engine re-checks
// everything that matters.

type createRequest struct {
	ApplicantName string `json:"applicant_name"`
	ContactEmail  string `json:"contact_email"`
	Priority      string `json:"priority,omitempty"`
	ActorID       string `json:"actor_id,omitempty"`
	Role          string `json:"role,omitempty"`
}

type transitionRequest struct {
	TargetState string         `json:"target_state"`
	ActorID     string         `json:"actor_id,omitempty"`
	Role        string         `json:"role,omitempty"`
	Note        *string        `json:"note,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

type attachRequest struct {
	PaymentID          string `json:"payment_id,omitempty"`
	PhysicalDocumentID string `json:"physical_document_id,omitempty"`
	CertificateID      string `json:"certificate_id,omitempty"`
}
