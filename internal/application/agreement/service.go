package agreement

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/dataspace-connector/connector/internal/domain/agreement"
	"github.com/dataspace-connector/connector/internal/domain/apperr"
	"github.com/dataspace-connector/connector/internal/domain/event"
	"github.com/dataspace-connector/connector/internal/domain/negotiation"
)

// Service records agreements for negotiations that reached agreement.
type Service struct {
	// createMu serializes the one-agreement check with the insert.
	createMu     sync.Mutex
	repo         agreement.Repository
	negotiations negotiation.Repository
	events       event.Publisher
	logger       zerolog.Logger
}

func NewService(repo agreement.Repository, negotiations negotiation.Repository, events event.Publisher, logger zerolog.Logger) *Service {
	if events == nil {
		events = event.Discard{}
	}
	return &Service{
		repo:         repo,
		negotiations: negotiations,
		events:       events,
		logger:       logger.With().Str("service", "agreement").Logger(),
	}
}

// Create records the agreement of negotiationID. The negotiation must exist,
// be in AGREED or later, and not already have an agreement.
func (s *Service) Create(ctx context.Context, negotiationID string) (*agreement.Agreement, error) {
	if strings.TrimSpace(negotiationID) == "" {
		return nil, apperr.ValidationFailed("negotiationId is required",
			apperr.Violation{Path: "/negotiationId", Description: "required"})
	}
	s.createMu.Lock()
	defer s.createMu.Unlock()

	n, err := s.negotiations.FindByID(ctx, negotiationID)
	if err != nil {
		return nil, err
	}
	if n == nil {
		return nil, apperr.NotFound(negotiation.EntityName, negotiationID)
	}
	if !n.State.ReachedAgreement() {
		return nil, apperr.Conflict(negotiation.EntityName, negotiationID,
			fmt.Sprintf("negotiation %s is %s and has not reached agreement", negotiationID, n.State))
	}
	existing, err := s.ForNegotiation(ctx, negotiationID)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return nil, apperr.Conflict(agreement.EntityName, existing[0].ID,
			fmt.Sprintf("negotiation %s already has agreement %s", negotiationID, existing[0].ID))
	}

	a, err := s.repo.Create(ctx, agreement.New(negotiationID))
	if err != nil {
		return nil, err
	}
	s.events.Publish(event.New(event.TypeAgreementCreated, negotiationID, map[string]string{"agreementId": a.ID}))
	s.logger.Info().Str("agreement_id", a.ID).Str("negotiation_id", negotiationID).Msg("agreement created")
	return a, nil
}

func (s *Service) Get(ctx context.Context, id string) (*agreement.Agreement, error) {
	a, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, apperr.NotFound(agreement.EntityName, id)
	}
	return a, nil
}

func (s *Service) List(ctx context.Context) ([]*agreement.Agreement, error) {
	return s.repo.FindAll(ctx)
}

// ForNegotiation returns the agreements that reference negotiationID.
func (s *Service) ForNegotiation(ctx context.Context, negotiationID string) ([]*agreement.Agreement, error) {
	all, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*agreement.Agreement, 0, 1)
	for _, a := range all {
		if a.NegotiationID == negotiationID {
			out = append(out, a)
		}
	}
	return out, nil
}
