package negotiation

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/dataspace-connector/connector/internal/domain/apperr"
	"github.com/dataspace-connector/connector/internal/domain/event"
	"github.com/dataspace-connector/connector/internal/domain/negotiation"
)

// DefaultRetries is the number of re-reads after a concurrent write.
const DefaultRetries = 3

// Admitter decides whether an issuer may open a negotiation.
type Admitter interface {
	Admit(ctx context.Context, issuer string) error
}

// Service runs the negotiation lifecycle on top of a repository.
type Service struct {
	repo      negotiation.Repository
	admission Admitter
	events    event.Publisher
	retries   int
	logger    zerolog.Logger
}

func NewService(repo negotiation.Repository, admission Admitter, events event.Publisher, retries int, logger zerolog.Logger) *Service {
	if events == nil {
		events = event.Discard{}
	}
	if retries < 0 {
		retries = 0
	}
	return &Service{
		repo:      repo,
		admission: admission,
		events:    events,
		retries:   retries,
		logger:    logger.With().Str("service", "negotiation").Logger(),
	}
}

// Request opens a negotiation in REQUESTED for issuer.
func (s *Service) Request(ctx context.Context, issuer string, offerID *string) (*negotiation.Negotiation, error) {
	if s.admission != nil {
		if err := s.admission.Admit(ctx, issuer); err != nil {
			return nil, err
		}
	}
	n, err := s.repo.Create(ctx, negotiation.New(issuer, offerID))
	if err != nil {
		return nil, err
	}
	s.events.Publish(event.New(event.TypeNegotiationRequested, n.ID, map[string]interface{}{
		"state":  n.State,
		"issuer": n.Issuer,
	}))
	s.logger.Info().Str("negotiation_id", n.ID).Str("issuer", issuer).Msg("negotiation requested")
	return n, nil
}

func (s *Service) Get(ctx context.Context, id string) (*negotiation.Negotiation, error) {
	n, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if n == nil {
		return nil, apperr.NotFound(negotiation.EntityName, id)
	}
	return n, nil
}

func (s *Service) List(ctx context.Context) ([]*negotiation.Negotiation, error) {
	return s.repo.FindAll(ctx)
}

// Transition moves negotiation id to target. A write that loses a race is
// retried against the fresh state, so legality is always judged on what
// is actually stored.
func (s *Service) Transition(ctx context.Context, id string, target negotiation.State) (*negotiation.Negotiation, error) {
	if !target.Valid() {
		return nil, apperr.ValidationFailed("unknown negotiation state",
			apperr.Violation{Path: "/state", Description: fmt.Sprintf("unknown state %q", target)})
	}
	for attempt := 0; ; attempt++ {
		current, err := s.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		next, err := negotiation.Transition(current, target)
		if err != nil {
			return nil, err
		}
		saved, err := s.repo.Update(ctx, next)
		if err == nil {
			s.events.Publish(event.New(event.TypeNegotiationTransitioned, saved.ID, map[string]interface{}{
				"from":     current.State,
				"to":       saved.State,
				"revision": saved.Revision,
			}))
			s.logger.Info().
				Str("negotiation_id", id).
				Str("from", string(current.State)).
				Str("to", string(saved.State)).
				Msg("negotiation transitioned")
			return saved, nil
		}
		if !apperr.IsKind(err, apperr.KindConflict) || attempt >= s.retries {
			return nil, err
		}
		s.logger.Debug().Str("negotiation_id", id).Int("attempt", attempt+1).Msg("concurrent update, retrying transition")
	}
}

// Terminate moves a negotiation to TERMINATED.
func (s *Service) Terminate(ctx context.Context, id string) (*negotiation.Negotiation, error) {
	return s.Transition(ctx, id, negotiation.StateTerminated)
}
