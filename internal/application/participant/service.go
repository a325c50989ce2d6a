package participant

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/dataspace-connector/connector/internal/domain/apperr"
	"github.com/dataspace-connector/connector/internal/domain/participant"
)

// Service manages dataspace members.
type Service struct {
	// didMu serializes the DID uniqueness check with the write.
	didMu  sync.Mutex
	repo   participant.Repository
	logger zerolog.Logger
}

func NewService(repo participant.Repository, logger zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger.With().Str("service", "participant").Logger(),
	}
}

// Create registers a participant. DIDs are unique.
func (s *Service) Create(ctx context.Context, props participant.Props) (*participant.Participant, error) {
	p := participant.New(props)
	if err := participant.Validate(p); err != nil {
		return nil, err
	}
	s.didMu.Lock()
	defer s.didMu.Unlock()
	existing, err := s.FindByDID(ctx, p.DID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperr.Conflict(participant.EntityName, existing.ID,
			fmt.Sprintf("participant with did %s already exists", p.DID))
	}
	created, err := s.repo.Create(ctx, p)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("participant_id", created.ID).Str("did", created.DID).Msg("participant registered")
	return created, nil
}

func (s *Service) Get(ctx context.Context, id string) (*participant.Participant, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, apperr.NotFound(participant.EntityName, id)
	}
	return p, nil
}

func (s *Service) List(ctx context.Context) ([]*participant.Participant, error) {
	return s.repo.FindAll(ctx)
}

// FindByDID returns the participant with did, or nil.
func (s *Service) FindByDID(ctx context.Context, did string) (*participant.Participant, error) {
	all, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	for _, p := range all {
		if p.DID == did {
			return p, nil
		}
	}
	return nil, nil
}

// Update replaces the mutable fields of participant id. A non-zero revision
// must match the stored one.
func (s *Service) Update(ctx context.Context, id string, props participant.Props, revision int64) (*participant.Participant, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if revision != 0 {
		current.Revision = revision
	}
	next := participant.New(props)
	next.Base = current.Base
	if props.Status == "" {
		next.Status = current.Status
	}
	if err := participant.Validate(next); err != nil {
		return nil, err
	}
	if next.DID != current.DID {
		s.didMu.Lock()
		defer s.didMu.Unlock()
		other, err := s.FindByDID(ctx, next.DID)
		if err != nil {
			return nil, err
		}
		if other != nil {
			return nil, apperr.Conflict(participant.EntityName, other.ID,
				fmt.Sprintf("participant with did %s already exists", next.DID))
		}
	}
	next.Touch(time.Now())
	return s.repo.Update(ctx, next)
}

// SetStatus changes the membership status of participant id.
func (s *Service) SetStatus(ctx context.Context, id string, status participant.Status) (*participant.Participant, error) {
	if err := participant.ValidateStatus(status); err != nil {
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
	s.logger.Info().Str("participant_id", id).Str("status", string(status)).Msg("participant status changed")
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}
