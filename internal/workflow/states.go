package workflow

import (
	"certitrack/internal/domain"
)

// Rule describes the legal moves out of a state and the roles authorized to
// perform them. Roles are granted per current state, matching how the
// departments own slices of the pipeline: the processor owns the search
// stages, the regulator owns review, and so on.
type Rule struct {
	Next  []domain.State
	Roles []domain.Role
}

// transitionTable is the static lifecycle of a certificate request. Every
// non-terminal state has an outgoing rule; StateDelivered is the only
// terminal state. StateDocumentMissing loops back to search so a case can be
// reopened when new archive information appears.
var transitionTable = map[domain.State]Rule{
	domain.StateRegistered: {
		Next:  []domain.State{domain.StateRouted},
		Roles: []domain.Role{domain.RoleClerk, domain.RoleAdmin},
	},
	domain.StateRouted: {
		Next:  []domain.State{domain.StateSearching},
		Roles: []domain.Role{domain.RoleProcessor, domain.RoleAdmin},
	},
	domain.StateSearching: {
		Next:  []domain.State{domain.StateDocumentLocated, domain.StateDocumentMissing},
		Roles: []domain.Role{domain.RoleProcessor, domain.RoleAdmin},
	},
	domain.StateDocumentLocated: {
		Next:  []domain.State{domain.StatePaymentValidated},
		Roles: []domain.Role{domain.RoleClerk, domain.RoleAdmin},
	},
	domain.StateDocumentMissing: {
		Next:  []domain.State{domain.StateSearching},
		Roles: []domain.Role{domain.RoleProcessor, domain.RoleAdmin},
	},
	domain.StatePaymentValidated: {
		Next:  []domain.State{domain.StateDigitizing},
		Roles: []domain.Role{domain.RoleProcessor, domain.RoleAdmin},
	},
	domain.StateDigitizing: {
		Next:  []domain.State{domain.StateRegulatorReview},
		Roles: []domain.Role{domain.RoleProcessor, domain.RoleAdmin},
	},
	domain.StateRegulatorReview: {
		Next:  []domain.State{domain.StateRegistration, domain.StateCorrections},
		Roles: []domain.Role{domain.RoleRegulator, domain.RoleAdmin},
	},
	domain.StateCorrections: {
		Next:  []domain.State{domain.StateDigitizing},
		Roles: []domain.Role{domain.RoleProcessor, domain.RoleAdmin},
	},
	domain.StateRegistration: {
		Next:  []domain.State{domain.StateSignature},
		Roles: []domain.Role{domain.RoleRegistrar, domain.RoleAdmin},
	},
	domain.StateSignature: {
		Next:  []domain.State{domain.StateIssued},
		Roles: []domain.Role{domain.RoleSigner, domain.RoleAdmin},
	},
	domain.StateIssued: {
		Next:  []domain.State{domain.StateDelivered},
		Roles: []domain.Role{domain.RoleClerk, domain.RoleAdmin},
	},
}

// States enumerates every lifecycle state, terminal included.
func States() []domain.State {
	return []domain.State{
		domain.StateRegistered,
		domain.StateRouted,
		domain.StateSearching,
		domain.StateDocumentLocated,
		domain.StateDocumentMissing,
		domain.StatePaymentValidated,
		domain.StateDigitizing,
		domain.StateRegulatorReview,
		domain.StateCorrections,
		domain.StateRegistration,
		domain.StateSignature,
		domain.StateIssued,
		domain.StateDelivered,
	}
}

// Roles enumerates every actor role, the system pseudo-role included.
func Roles() []domain.Role {
	return []domain.Role{
		domain.RoleSystem,
		domain.RoleApplicant,
		domain.RoleClerk,
		domain.RoleProcessor,
		domain.RoleRegulator,
		domain.RoleRegistrar,
		domain.RoleSigner,
		domain.RoleAdmin,
	}
}

// RuleFor returns the outgoing rule for a state. ok is false for the
// terminal state and for unknown states.
func RuleFor(state domain.State) (Rule, bool) {
	rule, ok := transitionTable[state]
	return rule, ok
}

// AllowedNext returns the legal target states from the given state. Empty
// for the terminal state.
func AllowedNext(state domain.State) []domain.State {
	rule, ok := transitionTable[state]
	if !ok {
		return nil
	}
	return append([]domain.State{}, rule.Next...)
}

// AuthorizedRoles returns the roles that may transition out of the given
// state. The system pseudo-role is added as an explicit union so the escape
// hatch for automated transitions stays visible in the authorization data,
// not buried in a conditional.
func AuthorizedRoles(state domain.State) []domain.Role {
	rule, ok := transitionTable[state]
	if !ok {
		return nil
	}
	roles := append([]domain.Role{}, rule.Roles...)
	return append(roles, domain.RoleSystem)
}

// IsAuthorized reports whether role may transition out of state.
func IsAuthorized(state domain.State, role domain.Role) bool {
	for _, r := range AuthorizedRoles(state) {
		if r == role {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the state has no outgoing transitions.
func IsTerminal(state domain.State) bool {
	_, ok := transitionTable[state]
	return !ok && ValidState(state)
}

// ValidState reports whether s is one of the enumerated lifecycle states.
func ValidState(s domain.State) bool {
	for _, known := range States() {
		if known == s {
			return true
		}
	}
	return false
}

// ValidRole reports whether r is one of the enumerated roles.
func ValidRole(r domain.Role) bool {
	for _, known := range Roles() {
		if known == r {
			return true
		}
	}
	return false
}
