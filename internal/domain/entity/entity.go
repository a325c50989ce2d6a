package entity

import (
	"time"

	"github.com/google/uuid"
)

// Base holds the identity, timestamps and write revision shared by every
// persisted entity.
type Base struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	Revision  int64     `json:"revision"`
}

// NewBase creates a base with a fresh identity at revision 1.
func NewBase() Base {
	now := time.Now().UTC()
	return Base{
		ID:        uuid.NewString(),
		CreatedAt: now,
		UpdatedAt: now,
		Revision:  1,
	}
}

// EntityID returns the identity.
func (b Base) EntityID() string {
	return b.ID
}

// EntityRevision returns the write revision.
func (b Base) EntityRevision() int64 {
	return b.Revision
}

// SetRevision sets the write revision. Only stores call this.
func (b *Base) SetRevision(r int64) {
	b.Revision = r
}

// Touch refreshes UpdatedAt.
func (b *Base) Touch(at time.Time) {
	b.UpdatedAt = at.UTC()
}
