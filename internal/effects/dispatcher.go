// Package effects runs the post-transition fan-out: notification dispatch
// and linked physical-document synchronization. Both run strictly after the
// state change has committed, as two independently supervised
// fire-and-forget tasks. A failure in either is logged and dropped; the
// request's own state is the source of truth and is never rolled back.
package effects

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"certitrack/internal/domain"
	"certitrack/internal/linked"
	"certitrack/internal/notify"
	"certitrack/internal/workflow/metrics"
)

// notificationKinds names the target states that notify the applicant.
var notificationKinds = map[domain.State]notify.Kind{
	domain.StateDocumentLocated:  notify.KindDocumentLocated,
	domain.StateDocumentMissing:  notify.KindDocumentMissing,
	domain.StatePaymentValidated: notify.KindPaymentValidated,
	domain.StateIssued:           notify.KindDocumentIssued,
}

// documentSync names the target states that flip the linked
// physical-document status, and the status each one writes.
var documentSync = map[domain.State]domain.DocumentStatus{
	domain.StateSearching:       domain.DocumentStatusInSearch,
	domain.StateDocumentLocated: domain.DocumentStatusLocated,
}

// Dispatcher fans committed transitions out to the two effect classes.
type Dispatcher struct {
	notifier  notify.Notifier
	documents linked.DocumentStore
	logger    *slog.Logger
	metrics   *metrics.Metrics
	timeout   time.Duration
	wg        sync.WaitGroup
}

func NewDispatcher(
	notifier notify.Notifier,
	documents linked.DocumentStore,
	logger *slog.Logger,
	m *metrics.Metrics,
) *Dispatcher {
	return &Dispatcher{
		notifier:  notifier,
		documents: documents,
		logger:    logger,
		metrics:   m,
		timeout:   10 * time.Second,
	}
}

// Dispatch launches the applicable effects for the committed transition and
// returns immediately. The caller's context is deliberately not used: the
// transition has committed, so effects run under their own deadline even if
// the caller has already gone away.
func (d *Dispatcher) Dispatch(req domain.Request, to domain.State) {
	if kind, ok := notificationKinds[to]; ok {
		d.wg.Add(1)
		go d.sendNotification(req, to, kind)
	}
	if status, ok := documentSync[to]; ok && req.PhysicalDocumentID != nil {
		docID := *req.PhysicalDocumentID
		d.wg.Add(1)
		go d.syncDocument(req, docID, status)
	}
}

// Wait blocks until all in-flight effects finish. Used by graceful shutdown
// and tests; the engine itself never calls it.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) sendNotification(req domain.Request, to domain.State, kind notify.Kind) {
	defer d.wg.Done()
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	n := notify.Notification{
		Kind:      kind,
		Channel:   req.ContactEmail,
		RequestID: req.ID,
		State:     to,
		Data: map[string]any{
			"applicant_name": req.ApplicantName,
			"priority":       string(req.Priority),
		},
	}
	if err := d.notifier.Send(ctx, n); err != nil {
		d.metrics.EffectFailures.WithLabelValues("notification").Inc()
		d.logger.ErrorContext(ctx, "notification dispatch failed",
			"request_id", req.ID,
			"kind", kind,
			"error", err,
		)
	}
}

func (d *Dispatcher) syncDocument(req domain.Request, docID uuid.UUID, status domain.DocumentStatus) {
	defer d.wg.Done()
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	if err := d.documents.SetStatus(ctx, docID, status); err != nil {
		d.metrics.EffectFailures.WithLabelValues("document_sync").Inc()
		d.logger.ErrorContext(ctx, "physical document sync failed",
			"request_id", req.ID,
			"document_id", docID,
			"status", status,
			"error", err,
		)
	}
}
