package dsp

import "encoding/json"

// Message types carried in the envelope's type field.
const (
	TypeCatalogQuery         = "catalog:query"
	TypeNegotiationRequest   = "negotiation:request"
	TypeNegotiationOffer     = "negotiation:offer"
	TypeNegotiationAccept    = "negotiation:accept"
	TypeNegotiationAgree     = "negotiation:agree"
	TypeNegotiationVerify    = "negotiation:verify"
	TypeNegotiationFinalize  = "negotiation:finalize"
	TypeNegotiationTerminate = "negotiation:terminate"
	TypeAgreementCreate      = "agreement:create"
)

// Message is the envelope shared by every protocol message.
type Message struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Timestamp string          `json:"timestamp"`
	Issuer    string          `json:"issuer"`
	Data      json.RawMessage `json:"data"`
}

// NegotiationRef is the payload of messages that address an existing
// negotiation.
type NegotiationRef struct {
	NegotiationID string `json:"negotiationId"`
}

// NegotiationRequest is the payload of negotiation:request.
type NegotiationRequest struct {
	OfferID *string `json:"offerId,omitempty"`
}

// DecodeData unmarshals the payload into v.
func (m *Message) DecodeData(v interface{}) error {
	if len(m.Data) == 0 {
		return nil
	}
	return json.Unmarshal(m.Data, v)
}

const envelopeSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "id": { "type": "string", "format": "uuid" },
    "type": { "type": "string", "minLength": 1 },
    "timestamp": { "type": "string", "format": "date-time" },
    "issuer": { "type": "string", "minLength": 1 },
    "data": { "type": "object", "additionalProperties": true }
  },
  "required": ["id", "type", "timestamp", "issuer", "data"],
  "additionalProperties": false
}`
