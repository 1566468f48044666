// Package notify hands state-change notifications to the delivery
// subsystem. Delivery itself (templating, retries, provider fan-out) is that
// subsystem's concern; certitrack only enqueues.
package notify

import (
	"context"

	"github.com/google/uuid"

	"certitrack/internal/domain"
)

// Kind names the notification template the delivery subsystem should render.
type Kind string

const (
	KindDocumentLocated  Kind = "document_located"
	KindDocumentMissing  Kind = "document_not_located"
	KindPaymentValidated Kind = "payment_validated"
	KindDocumentIssued   Kind = "document_issued"
)

// Notification references a request and the state it just reached.
type Notification struct {
	Kind      Kind           `json:"kind"`
	Channel   string         `json:"channel"`
	RequestID uuid.UUID      `json:"request_id"`
	State     domain.State   `json:"state"`
	Data      map[string]any `json:"data,omitempty"`
}

// Notifier enqueues a notification for delivery.
type Notifier interface {
	Send(ctx context.Context, n Notification) error
}
