package httpapi

import (
	"time"

	"github.com/dataspace-connector/connector/internal/domain/agreement"
	"github.com/dataspace-connector/connector/internal/domain/negotiation"
)

type negotiationView struct {
	ID        string            `json:"@id"`
	Type      string            `json:"@type"`
	State     negotiation.State `json:"state"`
	Issuer    string            `json:"issuer,omitempty"`
	OfferID   *string           `json:"offerId,omitempty"`
	Revision  int64             `json:"revision"`
	CreatedAt time.Time         `json:"createdAt"`
	UpdatedAt time.Time         `json:"updatedAt"`
}

func toNegotiationView(n *negotiation.Negotiation) negotiationView {
	return negotiationView{
		ID:        n.ID,
		Type:      "dspace:ContractNegotiation",
		State:     n.State,
		Issuer:    n.Issuer,
		OfferID:   n.OfferID,
		Revision:  n.Revision,
		CreatedAt: n.CreatedAt,
		UpdatedAt: n.UpdatedAt,
	}
}

type agreementView struct {
	ID            string    `json:"@id"`
	Type          string    `json:"@type"`
	NegotiationID string    `json:"negotiationId"`
	CreatedAt     time.Time `json:"createdAt"`
}

func toAgreementView(a *agreement.Agreement) agreementView {
	return agreementView{
		ID:            a.ID,
		Type:          "dspace:ContractAgreement",
		NegotiationID: a.NegotiationID,
		CreatedAt:     a.CreatedAt,
	}
}

// protocolView renders a dispatcher result in its wire form.
func protocolView(body interface{}) interface{} {
	switch v := body.(type) {
	case *negotiation.Negotiation:
		return toNegotiationView(v)
	case *agreement.Agreement:
		return toAgreementView(v)
	default:
		return v
	}
}
