package agreement

import "github.com/dataspace-connector/connector/internal/domain/entity"

// EntityName is used in errors and logs.
const EntityName = "agreement"

// Agreement is the finalized outcome of a negotiation.
type Agreement struct {
	entity.Base
	NegotiationID string `json:"negotiationId"`
}

// New creates an agreement for the given negotiation.
func New(negotiationID string) *Agreement {
	return &Agreement{
		Base:          entity.NewBase(),
		NegotiationID: negotiationID,
	}
}

// Clone returns a copy.
func (a *Agreement) Clone() *Agreement {
	if a == nil {
		return nil
	}
	c := *a
	return &c
}
