// Package workflow is the request lifecycle core: the transition table, the
// role gate, the per-target invariant checks, the trazabilidad projection,
// and the engine that orchestrates one state change end to end.
package workflow

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"certitrack/internal/domain"
	"certitrack/internal/history"
	"certitrack/internal/workflow/metrics"
	dErrors "certitrack/pkg/domain-errors"
	"certitrack/pkg/platform/sentinel"
)

// EffectDispatcher fans out post-transition side effects. Implementations
// must return without waiting for the effects to complete; the engine never
// blocks its caller on them.
type EffectDispatcher interface {
	Dispatch(req domain.Request, to domain.State)
}

// Decision is the answer to a can-transition query.
type Decision struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

// Service is the transition engine. It owns the read-check-write sequence
// for a state change; everything around it (transport, validation, document
// rendering) calls into this narrow API.
type Service struct {
	requests RequestStore
	ledger   *history.Ledger
	effects  EffectDispatcher
	logger   *slog.Logger
	metrics  *metrics.Metrics
	tracer   trace.Tracer

	// now is swappable in tests.
	now func() time.Time
}

func NewService(
	requests RequestStore,
	ledger *history.Ledger,
	effects EffectDispatcher,
	logger *slog.Logger,
	m *metrics.Metrics,
) *Service {
	return &Service{
		requests: requests,
		ledger:   ledger,
		effects:  effects,
		logger:   logger,
		metrics:  m,
		tracer:   otel.Tracer("certitrack/workflow"),
		now:      time.Now,
	}
}

// Create registers a new certificate request in the intake state, stamps the
// submission trazabilidad fields, and appends the creation history entry
// (nil from-state).
func (s *Service) Create(
	ctx context.Context,
	applicantName, contactEmail string,
	priority domain.Priority,
	actorID *uuid.UUID,
	role domain.Role,
) (*domain.Request, error) {
	if strings.TrimSpace(applicantName) == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "applicant name is required")
	}
	if priority == "" {
		priority = domain.PriorityNormal
	}
	if priority != domain.PriorityNormal && priority != domain.PriorityUrgent {
		return nil, dErrors.Newf(dErrors.CodeBadRequest, "unknown priority %q", priority)
	}
	if !ValidRole(role) {
		return nil, dErrors.Newf(dErrors.CodeBadRequest, "unknown role %q", role)
	}

	now := s.now()
	req := &domain.Request{
		ID:            uuid.New(),
		CurrentState:  domain.StateRegistered,
		Priority:      priority,
		ApplicantName: applicantName,
		ContactEmail:  contactEmail,
		CreatedAt:     now,
	}
	ProjectStamps(domain.StateRegistered, actorID, now).ApplyTo(req)

	if err := s.requests.Create(ctx, req); err != nil {
		return nil, dErrors.New(dErrors.CodeStorageUnavailable, "could not persist request")
	}

	s.appendHistory(ctx, &domain.HistoryEntry{
		RequestID: req.ID,
		FromState: nil,
		ToState:   domain.StateRegistered,
		ActorID:   actorID,
		Role:      role,
		CreatedAt: now,
	})
	return req, nil
}

// Get returns the current request snapshot.
func (s *Service) Get(ctx context.Context, requestID uuid.UUID) (*domain.Request, error) {
	return s.load(ctx, requestID)
}

// Transition moves a request to target on behalf of (actorID, role). The
// legality checks run before any write; the state change plus the
// trazabilidad stamps commit as one atomic compare-and-set. The history
// append is best-effort and side effects are dispatched without being
// awaited: a committed transition is never undone by downstream bookkeeping.
func (s *Service) Transition(
	ctx context.Context,
	requestID uuid.UUID,
	target domain.State,
	actorID *uuid.UUID,
	role domain.Role,
	note *string,
	metadata map[string]any,
) (*domain.Request, error) {
	ctx, span := s.tracer.Start(ctx, "workflow.transition", trace.WithAttributes(
		attribute.String("request.id", requestID.String()),
		attribute.String("transition.target", string(target)),
		attribute.String("transition.role", string(role)),
	))
	defer span.End()
	timer := prometheus.NewTimer(s.metrics.TransitionDuration)
	defer timer.ObserveDuration()

	snap, err := s.authorize(ctx, requestID, target, role)
	if err != nil {
		s.metrics.TransitionsTotal.WithLabelValues(string(target), "rejected").Inc()
		return nil, err
	}

	now := s.now()
	from := snap.Request.CurrentState
	stamps := ProjectStamps(target, actorID, now)

	updated, err := s.requests.ApplyTransition(ctx, requestID, from, target, stamps, note)
	if err != nil {
		s.metrics.TransitionsTotal.WithLabelValues(string(target), "rejected").Inc()
		switch {
		case errors.Is(err, sentinel.ErrConflict):
			// Lost the race: a concurrent caller committed first. Re-observe
			// the new current state and report what is legal from there. No
			// automatic retry; the caller decides.
			current, loadErr := s.load(ctx, requestID)
			if loadErr != nil {
				return nil, loadErr
			}
			return nil, illegalTransition(current.CurrentState, target)
		case errors.Is(err, sentinel.ErrNotFound):
			return nil, notFound(requestID)
		default:
			return nil, dErrors.New(dErrors.CodeStorageUnavailable, "could not commit transition")
		}
	}
	s.metrics.TransitionsTotal.WithLabelValues(string(target), "committed").Inc()

	var noteText string
	if note != nil {
		noteText = *note
	}
	s.appendHistory(ctx, &domain.HistoryEntry{
		RequestID: requestID,
		FromState: &from,
		ToState:   target,
		ActorID:   actorID,
		Role:      role,
		Note:      noteText,
		Metadata:  metadata,
		CreatedAt: now,
	})

	s.effects.Dispatch(*updated, target)
	return updated, nil
}

// CanTransition answers whether the transition would be admitted right now,
// running the exact same legality checks as Transition without mutating
// anything. A missing request or unreachable storage is an error; a
// business-rule rejection is a Decision with the reason.
func (s *Service) CanTransition(
	ctx context.Context,
	requestID uuid.UUID,
	target domain.State,
	role domain.Role,
) (Decision, error) {
	_, err := s.authorize(ctx, requestID, target, role)
	if err != nil {
		code := dErrors.CodeOf(err)
		if code == dErrors.CodeNotFound || code == dErrors.CodeStorageUnavailable {
			return Decision{}, err
		}
		return Decision{Allowed: false, Reason: dErrors.MessageOf(err)}, nil
	}
	return Decision{Allowed: true}, nil
}

// History returns the ordered audit trail for a request.
func (s *Service) History(ctx context.Context, requestID uuid.UUID) ([]domain.HistoryEntry, error) {
	if _, err := s.load(ctx, requestID); err != nil {
		return nil, err
	}
	entries, err := s.ledger.ListByRequest(ctx, requestID)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeStorageUnavailable, "could not read history")
	}
	return entries, nil
}

// Attach records foreign references (payment, physical document,
// certificate document) on the request so the respective preconditions can
// be satisfied. The referenced records are owned by other subsystems.
func (s *Service) Attach(ctx context.Context, requestID uuid.UUID, refs LinkedRefs) (*domain.Request, error) {
	if refs.PaymentID == nil && refs.PhysicalDocumentID == nil && refs.CertificateID == nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "no references to attach")
	}
	updated, err := s.requests.AttachRefs(ctx, requestID, refs)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, notFound(requestID)
		}
		return nil, dErrors.New(dErrors.CodeStorageUnavailable, "could not attach references")
	}
	return updated, nil
}

// authorize runs the pre-write legality checks: existence, transition table,
// role gate, precondition gate. Shared verbatim by Transition and
// CanTransition so the two can never diverge.
func (s *Service) authorize(
	ctx context.Context,
	requestID uuid.UUID,
	target domain.State,
	role domain.Role,
) (Snapshot, error) {
	req, err := s.load(ctx, requestID)
	if err != nil {
		return Snapshot{}, err
	}

	rule, ok := RuleFor(req.CurrentState)
	if !ok || !containsState(rule.Next, target) {
		return Snapshot{}, illegalTransition(req.CurrentState, target)
	}

	if !IsAuthorized(req.CurrentState, role) {
		return Snapshot{}, dErrors.Newf(dErrors.CodeUnauthorizedRole,
			"role %s may not move a request out of %s; authorized roles: %s",
			role, req.CurrentState, joinRoles(AuthorizedRoles(req.CurrentState)))
	}

	snap := Snapshot{Request: *req}
	if HasPrecondition(target) {
		latest, err := s.ledger.Latest(ctx, requestID)
		if err != nil {
			return Snapshot{}, dErrors.New(dErrors.CodeStorageUnavailable, "could not read history")
		}
		if latest != nil {
			snap.LastState = &latest.ToState
		}
		if err := CheckPrecondition(target, snap); err != nil {
			return Snapshot{}, err
		}
	}
	return snap, nil
}

func (s *Service) load(ctx context.Context, requestID uuid.UUID) (*domain.Request, error) {
	req, err := s.requests.Get(ctx, requestID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, notFound(requestID)
		}
		return nil, dErrors.New(dErrors.CodeStorageUnavailable, "could not load request")
	}
	return req, nil
}

// appendHistory is best-effort: an audit failure never undoes a committed
// transition, but it is never silent either.
func (s *Service) appendHistory(ctx context.Context, entry *domain.HistoryEntry) {
	if err := s.ledger.Append(ctx, entry); err != nil {
		s.metrics.HistoryAppendFailures.Inc()
		s.logger.ErrorContext(ctx, "history append failed for committed transition",
			"request_id", entry.RequestID,
			"to_state", entry.ToState,
			"error", err,
		)
	}
}

func notFound(requestID uuid.UUID) error {
	return dErrors.Newf(dErrors.CodeNotFound, "request %s not found", requestID)
}

func illegalTransition(current, target domain.State) error {
	next := AllowedNext(current)
	if len(next) == 0 {
		return dErrors.Newf(dErrors.CodeIllegalTransition,
			"cannot move from %s to %s; %s is terminal", current, target, current)
	}
	return dErrors.Newf(dErrors.CodeIllegalTransition,
		"cannot move from %s to %s; legal next states: %s", current, target, joinStates(next))
}

func containsState(states []domain.State, target domain.State) bool {
	for _, s := range states {
		if s == target {
			return true
		}
	}
	return false
}

func joinStates(states []domain.State) string {
	parts := make([]string, len(states))
	for i, s := range states {
		parts[i] = string(s)
	}
	return strings.Join(parts, ", ")
}

func joinRoles(roles []domain.Role) string {
	parts := make([]string, len(roles))
	for i, r := range roles {
		parts[i] = string(r)
	}
	return strings.Join(parts, ", ")
}
