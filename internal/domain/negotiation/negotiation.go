package negotiation

import (
	"time"

	"github.com/dataspace-connector/connector/internal/domain/apperr"
	"github.com/dataspace-connector/connector/internal/domain/entity"
)

// EntityName is used in errors and logs.
const EntityName = "negotiation"

// State represents a contract negotiation state.
type State string

const (
	StateRequested  State = "REQUESTED"
	StateOffered    State = "OFFERED"
	StateAccepted   State = "ACCEPTED"
	StateAgreed     State = "AGREED"
	StateVerified   State = "VERIFIED"
	StateFinalized  State = "FINALIZED"
	StateTerminated State = "TERMINATED"
)

// transitions is the legal move graph. ACCEPTED -> OFFERED is the only
// backward edge (re-offer after a failed acceptance check).
var transitions = map[State][]State{
	StateRequested:  {StateOffered, StateTerminated},
	StateOffered:    {StateAccepted, StateTerminated},
	StateAccepted:   {StateAgreed, StateOffered, StateTerminated},
	StateAgreed:     {StateVerified, StateTerminated},
	StateVerified:   {StateFinalized, StateTerminated},
	StateFinalized:  {},
	StateTerminated: {},
}

// States returns every state in lifecycle order.
func States() []State {
	return []State{
		StateRequested,
		StateOffered,
		StateAccepted,
		StateAgreed,
		StateVerified,
		StateFinalized,
		StateTerminated,
	}
}

// Valid reports whether s is a known state.
func (s State) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// IsTerminal reports whether s has no outgoing transitions.
func (s State) IsTerminal() bool {
	next, ok := transitions[s]
	return ok && len(next) == 0
}

// ReachedAgreement reports whether an agreement may reference a
// negotiation in state s.
func (s State) ReachedAgreement() bool {
	switch s {
	case StateAgreed, StateVerified, StateFinalized:
		return true
	default:
		return false
	}
}

// AllowedTransitions returns a copy of the legal targets from s.
func AllowedTransitions(s State) []State {
	next := transitions[s]
	out := make([]State, len(next))
	copy(out, next)
	return out
}

// CanTransition reports whether from -> to is a legal move. Unknown states
// have no legal moves.
func CanTransition(from, to State) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Negotiation is a contract negotiation between two participants.
type Negotiation struct {
	entity.Base
	State   State   `json:"state"`
	Issuer  string  `json:"issuer"`
	OfferID *string `json:"offerId,omitempty"`
}

// New creates a negotiation in REQUESTED.
func New(issuer string, offerID *string) *Negotiation {
	return &Negotiation{
		Base:    entity.NewBase(),
		State:   StateRequested,
		Issuer:  issuer,
		OfferID: cloneString(offerID),
	}
}

// Hydrate rebuilds a negotiation from storage. The state is taken as-is
// since it was reached through legal transitions when it was written.
func Hydrate(base entity.Base, state State, issuer string, offerID *string) *Negotiation {
	return &Negotiation{
		Base:    base,
		State:   state,
		Issuer:  issuer,
		OfferID: cloneString(offerID),
	}
}

// CanTransitionTo validates a move from the current state.
func (n *Negotiation) CanTransitionTo(target State) bool {
	return CanTransition(n.State, target)
}

// Clone returns a deep copy.
func (n *Negotiation) Clone() *Negotiation {
	if n == nil {
		return nil
	}
	c := *n
	c.OfferID = cloneString(n.OfferID)
	return &c
}

// Transition returns a copy of n moved to target with a refreshed
// UpdatedAt. n itself is never modified.
func Transition(n *Negotiation, target State) (*Negotiation, error) {
	return TransitionAt(n, target, time.Now().UTC())
}

// TransitionAt is Transition with an explicit timestamp.
func TransitionAt(n *Negotiation, target State, at time.Time) (*Negotiation, error) {
	if !n.CanTransitionTo(target) {
		return nil, apperr.InvalidTransition(EntityName, string(n.State), string(target))
	}
	next := n.Clone()
	next.State = target
	next.Touch(at)
	return next, nil
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
