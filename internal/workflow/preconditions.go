package workflow

import (
	"certitrack/internal/domain"
	dErrors "certitrack/pkg/domain-errors"
)

// Snapshot is the read-only view the precondition checks run against. The
// engine assembles it before any write; checks must not mutate it.
type Snapshot struct {
	Request domain.Request

	// LastState is the to-state of the request's most recent history entry,
	// nil when the request has no history. Populated only when the target
	// state carries a history-sensitive precondition.
	LastState *domain.State
}

// CheckFunc validates one target-state invariant against a snapshot. A nil
// return admits the transition.
type CheckFunc func(snap Snapshot) error

// preconditions registers the target states that carry an invariant. Any
// state absent from this map is admitted unconditionally, which keeps the
// set of checked states enumerable and each check unit-testable on its own.
var preconditions = map[domain.State]CheckFunc{
	domain.StatePaymentValidated: requirePaymentAttached,
	domain.StateRegistration:     requireRegulatorApproval,
	domain.StateIssued:           requireCertificateAttached,
}

// HasPrecondition reports whether entering target requires an invariant
// check.
func HasPrecondition(target domain.State) bool {
	_, ok := preconditions[target]
	return ok
}

// CheckPrecondition runs the invariant for target, if one is registered.
func CheckPrecondition(target domain.State, snap Snapshot) error {
	check, ok := preconditions[target]
	if !ok {
		return nil
	}
	return check(snap)
}

func requirePaymentAttached(snap Snapshot) error {
	if snap.Request.PaymentID == nil {
		return dErrors.New(dErrors.CodePreconditionUnmet,
			"payment validation requires a linked payment record")
	}
	return nil
}

// requireRegulatorApproval admits registration only when the regulator
// actually reviewed the case: the most recent history entry must have landed
// on pending_regulator_review, and the current state must agree with it. If
// a data repair ever set the current state without a matching history
// append, the divergence blocks here instead of letting an unreviewed case
// through.
func requireRegulatorApproval(snap Snapshot) error {
	if snap.LastState == nil || *snap.LastState != domain.StateRegulatorReview {
		return dErrors.New(dErrors.CodePreconditionUnmet,
			"registration requires the case to come out of regulator review")
	}
	if snap.Request.CurrentState != domain.StateRegulatorReview {
		return dErrors.New(dErrors.CodePreconditionUnmet,
			"current state disagrees with history; refusing registration until repaired")
	}
	return nil
}

func requireCertificateAttached(snap Snapshot) error {
	if snap.Request.CertificateID == nil {
		return dErrors.New(dErrors.CodePreconditionUnmet,
			"issuing requires a linked certificate document")
	}
	return nil
}
