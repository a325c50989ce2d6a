package event

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Type names a lifecycle event.
type Type string

const (
	TypeNegotiationRequested    Type = "negotiation.requested"
	TypeNegotiationTransitioned Type = "negotiation.transitioned"
	TypeAgreementCreated        Type = "agreement.created"
)

// Event is published after a negotiation or agreement change is persisted.
type Event struct {
	ID            string          `json:"id"`
	Type          Type            `json:"type"`
	NegotiationID string          `json:"negotiationId"`
	Data          json.RawMessage `json:"data,omitempty"`
	Timestamp     time.Time       `json:"timestamp"`
}

// New creates an event, encoding data as JSON.
func New(t Type, negotiationID string, data interface{}) *Event {
	var raw json.RawMessage
	if data != nil {
		if b, err := json.Marshal(data); err == nil {
			raw = b
		}
	}
	return &Event{
		ID:            uuid.NewString(),
		Type:          t,
		NegotiationID: negotiationID,
		Data:          raw,
		Timestamp:     time.Now().UTC(),
	}
}

// Publisher delivers events to subscribers. Publish must not block.
type Publisher interface {
	Publish(evt *Event)
}

// Discard drops every event.
type Discard struct{}

func (Discard) Publish(*Event) {}
