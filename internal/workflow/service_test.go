package workflow_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/suite"

	"certitrack/internal/domain"
	"certitrack/internal/history"
	histmem "certitrack/internal/history/store/memory"
	"certitrack/internal/workflow"
	"certitrack/internal/workflow/metrics"
	wfmem "certitrack/internal/workflow/store/memory"
	dErrors "certitrack/pkg/domain-errors"
)

// recordingDispatcher captures effect dispatches so tests can assert the
// engine hands committed transitions to the side-effect layer.
type recordingDispatcher struct {
	mu    sync.Mutex
	calls []domain.State
}

func (d *recordingDispatcher) Dispatch(_ domain.Request, to domain.State) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, to)
}

func (d *recordingDispatcher) dispatched() []domain.State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]domain.State{}, d.calls...)
}

// failingHistoryStore simulates an audit backend outage.
type failingHistoryStore struct{}

func (failingHistoryStore) Append(context.Context, *domain.HistoryEntry) error {
	return errors.New("audit backend down")
}

func (failingHistoryStore) ListByRequest(context.Context, uuid.UUID) ([]domain.HistoryEntry, error) {
	return nil, nil
}

func (failingHistoryStore) Latest(context.Context, uuid.UUID) (*domain.HistoryEntry, error) {
	return nil, nil
}

type ServiceSuite struct {
	suite.Suite
	ctx        context.Context
	requests   *wfmem.Store
	histStore  *histmem.Store
	dispatcher *recordingDispatcher
	svc        *workflow.Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.requests = wfmem.New()
	s.histStore = histmem.New()
	s.dispatcher = &recordingDispatcher{}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ledger := history.NewLedger(s.histStore, logger)
	s.svc = workflow.NewService(s.requests, ledger, s.dispatcher, logger,
		metrics.NewWith(prometheus.NewRegistry()))
}

func (s *ServiceSuite) newRequest() *domain.Request {
	actor := uuid.New()
	req, err := s.svc.Create(s.ctx, "Maria Gonzalez", "maria@example.com",
		domain.PriorityNormal, &actor, domain.RoleApplicant)
	s.Require().NoError(err)
	return req
}

// advance drives a request through the pipeline with the system role so
// individual tests can start from any mid-pipeline state.
func (s *ServiceSuite) advance(id uuid.UUID, states ...domain.State) *domain.Request {
	var req *domain.Request
	var err error
	for _, target := range states {
		req, err = s.svc.Transition(s.ctx, id, target, nil, domain.RoleSystem, nil, nil)
		s.Require().NoError(err, "advancing to %s", target)
	}
	return req
}

func (s *ServiceSuite) TestCreate() {
	s.Run("registers the request and appends the creation entry", func() {
		req := s.newRequest()
		s.Equal(domain.StateRegistered, req.CurrentState)
		s.Require().NotNil(req.SubmittedAt)
		s.Require().NotNil(req.SubmittedBy)

		entries, err := s.svc.History(s.ctx, req.ID)
		s.Require().NoError(err)
		s.Require().Len(entries, 1)
		s.Nil(entries[0].FromState)
		s.Equal(domain.StateRegistered, entries[0].ToState)
		s.Equal(domain.RoleApplicant, entries[0].Role)
	})

	s.Run("rejects a blank applicant name", func() {
		_, err := s.svc.Create(s.ctx, "  ", "", domain.PriorityNormal, nil, domain.RoleSystem)
		s.Require().Error(err)
		s.True(dErrors.Is(err, dErrors.CodeBadRequest))
	})

	s.Run("rejects an unknown priority", func() {
		_, err := s.svc.Create(s.ctx, "Jon", "", domain.Priority("whenever"), nil, domain.RoleSystem)
		s.Require().Error(err)
		s.True(dErrors.Is(err, dErrors.CodeBadRequest))
	})

	s.Run("system creation leaves the submitter unset", func() {
		req, err := s.svc.Create(s.ctx, "Batch Import", "", domain.PriorityNormal, nil, domain.RoleSystem)
		s.Require().NoError(err)
		s.Nil(req.SubmittedBy)
		s.NotNil(req.SubmittedAt)
	})
}

func (s *ServiceSuite) TestTransitionHappyPath() {
	req := s.newRequest()
	actor := uuid.New()

	updated, err := s.svc.Transition(s.ctx, req.ID, domain.StateRouted,
		&actor, domain.RoleClerk, nil, nil)
	s.Require().NoError(err)
	s.Equal(domain.StateRouted, updated.CurrentState)

	entries, err := s.svc.History(s.ctx, req.ID)
	s.Require().NoError(err)
	s.Require().Len(entries, 2)
	last := entries[1]
	s.Require().NotNil(last.FromState)
	s.Equal(domain.StateRegistered, *last.FromState)
	s.Equal(domain.StateRouted, last.ToState)
	s.Equal(actor, *last.ActorID)
	s.Equal(domain.RoleClerk, last.Role)

	s.Equal([]domain.State{domain.StateRouted}, s.dispatcher.dispatched())
}

func (s *ServiceSuite) TestTransitionRejections() {
	s.Run("unknown request", func() {
		_, err := s.svc.Transition(s.ctx, uuid.New(), domain.StateRouted,
			nil, domain.RoleSystem, nil, nil)
		s.Require().Error(err)
		s.True(dErrors.Is(err, dErrors.CodeNotFound))
	})

	s.Run("target not in the table row", func() {
		req := s.newRequest()
		_, err := s.svc.Transition(s.ctx, req.ID, domain.StateDelivered,
			nil, domain.RoleSystem, nil, nil)
		s.Require().Error(err)
		s.True(dErrors.Is(err, dErrors.CodeIllegalTransition))
		s.Contains(dErrors.MessageOf(err), string(domain.StateRouted),
			"rejection names the legal next states")
	})

	s.Run("role not authorized for the current state", func() {
		req := s.newRequest()
		_, err := s.svc.Transition(s.ctx, req.ID, domain.StateRouted,
			nil, domain.RoleRegulator, nil, nil)
		s.Require().Error(err)
		s.True(dErrors.Is(err, dErrors.CodeUnauthorizedRole))
	})

	s.Run("terminal state admits nothing", func() {
		req := s.newRequest()
		payment, cert := uuid.New(), uuid.New()
		_, err := s.svc.Attach(s.ctx, req.ID, workflow.LinkedRefs{PaymentID: &payment, CertificateID: &cert})
		s.Require().NoError(err)
		s.advance(req.ID,
			domain.StateRouted, domain.StateSearching, domain.StateDocumentLocated,
			domain.StatePaymentValidated, domain.StateDigitizing, domain.StateRegulatorReview,
			domain.StateRegistration, domain.StateSignature, domain.StateIssued,
			domain.StateDelivered,
		)
		_, err = s.svc.Transition(s.ctx, req.ID, domain.StateRegistered,
			nil, domain.RoleSystem, nil, nil)
		s.Require().Error(err)
		s.True(dErrors.Is(err, dErrors.CodeIllegalTransition))
		s.Contains(dErrors.MessageOf(err), "terminal")
	})

	s.Run("rejection appends no history and dispatches no effects", func() {
		req := s.newRequest()
		before, err := s.svc.History(s.ctx, req.ID)
		s.Require().NoError(err)
		dispatchedBefore := len(s.dispatcher.dispatched())

		_, err = s.svc.Transition(s.ctx, req.ID, domain.StateDelivered,
			nil, domain.RoleSystem, nil, nil)
		s.Require().Error(err)

		after, err := s.svc.History(s.ctx, req.ID)
		s.Require().NoError(err)
		s.Len(after, len(before))
		s.Len(s.dispatcher.dispatched(), dispatchedBefore)

		current, err := s.svc.Get(s.ctx, req.ID)
		s.Require().NoError(err)
		s.Equal(domain.StateRegistered, current.CurrentState)
	})
}

func (s *ServiceSuite) TestPaymentValidationPrecondition() {
	req := s.newRequest()
	s.advance(req.ID, domain.StateRouted, domain.StateSearching, domain.StateDocumentLocated)

	s.Run("blocked until a payment is attached", func() {
		_, err := s.svc.Transition(s.ctx, req.ID, domain.StatePaymentValidated,
			nil, domain.RoleSystem, nil, nil)
		s.Require().Error(err)
		s.True(dErrors.Is(err, dErrors.CodePreconditionUnmet))

		current, err := s.svc.Get(s.ctx, req.ID)
		s.Require().NoError(err)
		s.Equal(domain.StateDocumentLocated, current.CurrentState)
	})

	s.Run("passes with a payment, replaces the note, stamps the validator", func() {
		payment := uuid.New()
		_, err := s.svc.Attach(s.ctx, req.ID, workflow.LinkedRefs{PaymentID: &payment})
		s.Require().NoError(err)

		actor := uuid.New()
		note := "paid in cash at counter 3"
		updated, err := s.svc.Transition(s.ctx, req.ID, domain.StatePaymentValidated,
			&actor, domain.RoleClerk, &note, nil)
		s.Require().NoError(err)
		s.Equal(note, updated.Note)
		s.Require().NotNil(updated.PaymentValidatedBy)
		s.Equal(actor, *updated.PaymentValidatedBy)
		s.NotNil(updated.PaymentValidatedAt)
	})
}

func (s *ServiceSuite) TestRegistrationPrecondition() {
	s.Run("passes when history confirms regulator review", func() {
		req := s.newRequest()
		payment := uuid.New()
		_, err := s.svc.Attach(s.ctx, req.ID, workflow.LinkedRefs{PaymentID: &payment})
		s.Require().NoError(err)
		s.advance(req.ID,
			domain.StateRouted, domain.StateSearching, domain.StateDocumentLocated,
			domain.StatePaymentValidated, domain.StateDigitizing, domain.StateRegulatorReview,
		)

		updated, err := s.svc.Transition(s.ctx, req.ID, domain.StateRegistration,
			nil, domain.RoleRegulator, nil, nil)
		s.Require().NoError(err)
		s.Equal(domain.StateRegistration, updated.CurrentState)
	})

	s.Run("blocked when the request state was set without an audit trail", func() {
		// Seed the store directly: current state claims review but no
		// history entry ever recorded it.
		req := &domain.Request{
			ID:            uuid.New(),
			CurrentState:  domain.StateRegulatorReview,
			Priority:      domain.PriorityNormal,
			ApplicantName: "No Paper Trail",
		}
		s.Require().NoError(s.requests.Create(s.ctx, req))

		_, err := s.svc.Transition(s.ctx, req.ID, domain.StateRegistration,
			nil, domain.RoleSystem, nil, nil)
		s.Require().Error(err)
		s.True(dErrors.Is(err, dErrors.CodePreconditionUnmet))
	})
}

func (s *ServiceSuite) TestIssuancePrecondition() {
	req := s.newRequest()
	payment := uuid.New()
	_, err := s.svc.Attach(s.ctx, req.ID, workflow.LinkedRefs{PaymentID: &payment})
	s.Require().NoError(err)
	s.advance(req.ID,
		domain.StateRouted, domain.StateSearching, domain.StateDocumentLocated,
		domain.StatePaymentValidated, domain.StateDigitizing, domain.StateRegulatorReview,
		domain.StateRegistration, domain.StateSignature,
	)

	_, err = s.svc.Transition(s.ctx, req.ID, domain.StateIssued,
		nil, domain.RoleSystem, nil, nil)
	s.Require().Error(err)
	s.True(dErrors.Is(err, dErrors.CodePreconditionUnmet))

	cert := uuid.New()
	_, err = s.svc.Attach(s.ctx, req.ID, workflow.LinkedRefs{CertificateID: &cert})
	s.Require().NoError(err)

	updated, err := s.svc.Transition(s.ctx, req.ID, domain.StateIssued,
		nil, domain.RoleSystem, nil, nil)
	s.Require().NoError(err)
	s.Equal(domain.StateIssued, updated.CurrentState)
	s.NotNil(updated.IssuedAt)
}

func (s *ServiceSuite) TestRejectionPath() {
	req := s.newRequest()
	s.advance(req.ID, domain.StateRouted, domain.StateSearching)

	actor := uuid.New()
	updated, err := s.svc.Transition(s.ctx, req.ID, domain.StateDocumentMissing,
		&actor, domain.RoleProcessor, nil, nil)
	s.Require().NoError(err)
	s.Require().NotNil(updated.RejectedAt)
	s.Equal(workflow.RejectionDocumentNotLocated, updated.RejectionReason)

	s.Run("a missing document can loop back to a new search", func() {
		back, err := s.svc.Transition(s.ctx, req.ID, domain.StateSearching,
			&actor, domain.RoleProcessor, nil, nil)
		s.Require().NoError(err)
		s.Equal(domain.StateSearching, back.CurrentState)
	})
}

func (s *ServiceSuite) TestConcurrentTransitionsExactlyOneWins() {
	req := s.newRequest()
	s.advance(req.ID, domain.StateRouted, domain.StateSearching)

	targets := []domain.State{domain.StateDocumentLocated, domain.StateDocumentMissing}
	results := make([]error, len(targets))

	var wg sync.WaitGroup
	for i, target := range targets {
		wg.Add(1)
		go func(i int, target domain.State) {
			defer wg.Done()
			_, results[i] = s.svc.Transition(s.ctx, req.ID, target,
				nil, domain.RoleSystem, nil, nil)
		}(i, target)
	}
	wg.Wait()

	var committed, rejected int
	for _, err := range results {
		if err == nil {
			committed++
			continue
		}
		rejected++
		s.True(dErrors.Is(err, dErrors.CodeIllegalTransition),
			"loser must surface an illegal transition, got %v", err)
	}
	s.Equal(1, committed)
	s.Equal(1, rejected)

	entries, err := s.svc.History(s.ctx, req.ID)
	s.Require().NoError(err)
	s.Len(entries, 4, "creation, two advances, one committed race winner")
}

func (s *ServiceSuite) TestCanTransition() {
	req := s.newRequest()

	s.Run("admits what transition would admit", func() {
		decision, err := s.svc.CanTransition(s.ctx, req.ID, domain.StateRouted, domain.RoleClerk)
		s.Require().NoError(err)
		s.True(decision.Allowed)
		s.Empty(decision.Reason)
	})

	s.Run("explains a business rejection without erroring", func() {
		decision, err := s.svc.CanTransition(s.ctx, req.ID, domain.StateRouted, domain.RoleRegulator)
		s.Require().NoError(err)
		s.False(decision.Allowed)
		s.NotEmpty(decision.Reason)
	})

	s.Run("unknown request is an error, not a decision", func() {
		_, err := s.svc.CanTransition(s.ctx, uuid.New(), domain.StateRouted, domain.RoleSystem)
		s.Require().Error(err)
		s.True(dErrors.Is(err, dErrors.CodeNotFound))
	})

	s.Run("never mutates", func() {
		before, err := s.svc.History(s.ctx, req.ID)
		s.Require().NoError(err)

		_, err = s.svc.CanTransition(s.ctx, req.ID, domain.StateRouted, domain.RoleClerk)
		s.Require().NoError(err)
		_, err = s.svc.CanTransition(s.ctx, req.ID, domain.StateRouted, domain.RoleClerk)
		s.Require().NoError(err)

		after, err := s.svc.History(s.ctx, req.ID)
		s.Require().NoError(err)
		s.Len(after, len(before))

		current, err := s.svc.Get(s.ctx, req.ID)
		s.Require().NoError(err)
		s.Equal(domain.StateRegistered, current.CurrentState)
		s.Empty(s.dispatcher.dispatched())
	})
}

func (s *ServiceSuite) TestAttach() {
	req := s.newRequest()

	s.Run("rejects an empty attachment", func() {
		_, err := s.svc.Attach(s.ctx, req.ID, workflow.LinkedRefs{})
		s.Require().Error(err)
		s.True(dErrors.Is(err, dErrors.CodeBadRequest))
	})

	s.Run("records references without touching the state", func() {
		payment, doc := uuid.New(), uuid.New()
		updated, err := s.svc.Attach(s.ctx, req.ID, workflow.LinkedRefs{
			PaymentID:          &payment,
			PhysicalDocumentID: &doc,
		})
		s.Require().NoError(err)
		s.Equal(payment, *updated.PaymentID)
		s.Equal(doc, *updated.PhysicalDocumentID)
		s.Nil(updated.CertificateID)
		s.Equal(domain.StateRegistered, updated.CurrentState)
	})

	s.Run("unknown request", func() {
		payment := uuid.New()
		_, err := s.svc.Attach(s.ctx, uuid.New(), workflow.LinkedRefs{PaymentID: &payment})
		s.Require().Error(err)
		s.True(dErrors.Is(err, dErrors.CodeNotFound))
	})
}

// TestHistoryAppendFailureDoesNotUndoCommit pins the best-effort contract:
// the transition stands even when the audit backend is down.
func TestHistoryAppendFailureDoesNotUndoCommit(t *testing.T) {
	ctx := context.Background()
	requests := wfmem.New()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ledger := history.NewLedger(failingHistoryStore{}, logger)
	svc := workflow.NewService(requests, ledger, &recordingDispatcher{}, logger,
		metrics.NewWith(prometheus.NewRegistry()))

	req, err := svc.Create(ctx, "Ana Flores", "", domain.PriorityUrgent, nil, domain.RoleSystem)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	updated, err := svc.Transition(ctx, req.ID, domain.StateRouted, nil, domain.RoleSystem, nil, nil)
	if err != nil {
		t.Fatalf("transition should survive an audit outage: %v", err)
	}
	if updated.CurrentState != domain.StateRouted {
		t.Fatalf("expected routed, got %s", updated.CurrentState)
	}

	current, err := svc.Get(ctx, req.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if current.CurrentState != domain.StateRouted {
		t.Fatalf("commit was undone, state is %s", current.CurrentState)
	}
}
