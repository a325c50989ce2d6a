package asset

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/dataspace-connector/connector/internal/domain/apperr"
	"github.com/dataspace-connector/connector/internal/domain/asset"
	"github.com/dataspace-connector/connector/internal/domain/participant"
)

// Service manages the assets offered in the catalog.
type Service struct {
	repo         asset.Repository
	participants participant.Repository
	logger       zerolog.Logger
}

// NewService creates an asset service. When participants is non-nil, the
// owning participant of every written asset must exist.
func NewService(repo asset.Repository, participants participant.Repository, logger zerolog.Logger) *Service {
	return &Service{
		repo:         repo,
		participants: participants,
		logger:       logger.With().Str("service", "asset").Logger(),
	}
}

func (s *Service) Create(ctx context.Context, props asset.Props) (*asset.Asset, error) {
	a := asset.New(props)
	if err := s.validate(ctx, a); err != nil {
		return nil, err
	}
	created, err := s.repo.Create(ctx, a)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("asset_id", created.ID).Str("external_id", created.ExternalID).Msg("asset created")
	return created, nil
}

func (s *Service) Get(ctx context.Context, id string) (*asset.Asset, error) {
	a, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, apperr.NotFound(asset.EntityName, id)
	}
	return a, nil
}

func (s *Service) List(ctx context.Context) ([]*asset.Asset, error) {
	return s.repo.FindAll(ctx)
}

// ListByParticipant returns the assets owned by participantID.
func (s *Service) ListByParticipant(ctx context.Context, participantID string) ([]*asset.Asset, error) {
	all, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*asset.Asset, 0, len(all))
	for _, a := range all {
		if a.ParticipantID == participantID {
			out = append(out, a)
		}
	}
	return out, nil
}

// Update replaces the fields of asset id. A non-zero revision must match
// the stored one.
func (s *Service) Update(ctx context.Context, id string, props asset.Props, revision int64) (*asset.Asset, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	next := asset.New(props)
	next.Base = current.Base
	if revision != 0 {
		next.Revision = revision
	}
	if props.Status == "" {
		next.Status = current.Status
	}
	if err := s.validate(ctx, next); err != nil {
		return nil, err
	}
	next.Touch(time.Now())
	return s.repo.Update(ctx, next)
}

// SetStatus moves asset id to status.
func (s *Service) SetStatus(ctx context.Context, id string, status asset.Status) (*asset.Asset, error) {
	if err := asset.ValidateStatus(status); err != nil {
		return nil, err
	}
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	current.Status = status
	current.Touch(time.Now())
	updated, err := s.repo.Update(ctx, current)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("asset_id", id).Str("status", string(status)).Msg("asset status changed")
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

func (s *Service) validate(ctx context.Context, a *asset.Asset) error {
	if err := asset.Validate(a); err != nil {
		return err
	}
	if s.participants == nil {
		return nil
	}
	owner, err := s.participants.FindByID(ctx, a.ParticipantID)
	if err != nil {
		return err
	}
	if owner == nil {
		return apperr.ValidationFailed("invalid asset",
			apperr.Violation{Path: "/participantId", Description: "unknown participant " + a.ParticipantID})
	}
	return nil
}
