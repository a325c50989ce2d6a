// Package memory provides the reference in-memory implementation of the
// repository contract, used by tests and single-process deployments.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/dataspace-connector/connector/internal/domain/agreement"
	"github.com/dataspace-connector/connector/internal/domain/apperr"
	"github.com/dataspace-connector/connector/internal/domain/asset"
	"github.com/dataspace-connector/connector/internal/domain/negotiation"
	"github.com/dataspace-connector/connector/internal/domain/participant"
	"github.com/dataspace-connector/connector/internal/domain/repository"
)

var (
	_ negotiation.Repository = (*Store[*negotiation.Negotiation])(nil)
	_ agreement.Repository   = (*Store[*agreement.Agreement])(nil)
	_ asset.Repository       = (*Store[*asset.Asset])(nil)
	_ participant.Repository = (*Store[*participant.Participant])(nil)
)

// Store keeps entities keyed by identity. Values are cloned on the way in
// and out, so callers never share a stored value.
type Store[T repository.Entity[T]] struct {
	name  string
	mu    sync.RWMutex
	items map[string]T
	order []string
}

// NewStore creates an empty store. name is used in error messages.
func NewStore[T repository.Entity[T]](name string) *Store[T] {
	return &Store[T]{
		name:  name,
		items: make(map[string]T),
	}
}

func NewNegotiationRepository() *Store[*negotiation.Negotiation] {
	return NewStore[*negotiation.Negotiation](negotiation.EntityName)
}

func NewAgreementRepository() *Store[*agreement.Agreement] {
	return NewStore[*agreement.Agreement](agreement.EntityName)
}

func NewAssetRepository() *Store[*asset.Asset] {
	return NewStore[*asset.Asset](asset.EntityName)
}

func NewParticipantRepository() *Store[*participant.Participant] {
	return NewStore[*participant.Participant](participant.EntityName)
}

// FindByID returns a copy of the stored entity, or the zero value.
func (s *Store[T]) FindByID(ctx context.Context, id string) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, apperr.StorageUnavailable(err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.items[id]
	if !ok {
		return zero, nil
	}
	return item.Clone(), nil
}

// FindAll returns copies in insertion order.
func (s *Store[T]) FindAll(ctx context.Context) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperr.StorageUnavailable(err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]T, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.items[id].Clone())
	}
	return out, nil
}

// Create stores a copy of e. A taken identity is a Conflict.
func (s *Store[T]) Create(ctx context.Context, e T) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, apperr.StorageUnavailable(err)
	}
	id := e.EntityID()
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.items[id]; exists {
		return zero, apperr.Conflict(s.name, id, fmt.Sprintf("%s %s already exists", s.name, id))
	}
	stored := e.Clone()
	if stored.EntityRevision() < 1 {
		stored.SetRevision(1)
	}
	s.items[id] = stored
	s.order = append(s.order, id)
	return stored.Clone(), nil
}

// Update replaces the stored value when e carries the current revision.
func (s *Store[T]) Update(ctx context.Context, e T) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, apperr.StorageUnavailable(err)
	}
	id := e.EntityID()
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.items[id]
	if !ok {
		return zero, apperr.NotFound(s.name, id)
	}
	if current.EntityRevision() != e.EntityRevision() {
		return zero, apperr.Conflict(s.name, id, fmt.Sprintf(
			"%s %s was modified concurrently (revision %d, stored %d)",
			s.name, id, e.EntityRevision(), current.EntityRevision()))
	}
	stored := e.Clone()
	stored.SetRevision(current.EntityRevision() + 1)
	s.items[id] = stored
	return stored.Clone(), nil
}

// Delete removes id. Absent identities are ignored.
func (s *Store[T]) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return apperr.StorageUnavailable(err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return nil
	}
	delete(s.items, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// Len returns the number of stored entities.
func (s *Store[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}
