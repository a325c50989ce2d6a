// Package protocol routes validated DSP messages to the lifecycle services.
package protocol

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/dataspace-connector/connector/internal/application/agreement"
	"github.com/dataspace-connector/connector/internal/application/catalog"
	appnegotiation "github.com/dataspace-connector/connector/internal/application/negotiation"
	"github.com/dataspace-connector/connector/internal/domain/apperr"
	"github.com/dataspace-connector/connector/internal/domain/negotiation"
	"github.com/dataspace-connector/connector/internal/dsp"
)

var transitionTargets = map[string]negotiation.State{
	dsp.TypeNegotiationOffer:     negotiation.StateOffered,
	dsp.TypeNegotiationAccept:    negotiation.StateAccepted,
	dsp.TypeNegotiationAgree:     negotiation.StateAgreed,
	dsp.TypeNegotiationVerify:    negotiation.StateVerified,
	dsp.TypeNegotiationFinalize:  negotiation.StateFinalized,
	dsp.TypeNegotiationTerminate: negotiation.StateTerminated,
}

// TargetState returns the negotiation state a message type moves to.
func TargetState(messageType string) (negotiation.State, bool) {
	s, ok := transitionTargets[messageType]
	return s, ok
}

// Reply is the outcome of one dispatched message.
type Reply struct {
	MessageID string      `json:"messageId"`
	Type      string      `json:"type"`
	Body      interface{} `json:"body"`
}

// Dispatcher validates and routes inbound protocol messages.
type Dispatcher struct {
	validator    *dsp.Validator
	negotiations *appnegotiation.Service
	agreements   *agreement.Service
	catalog      *catalog.Service
	logger       zerolog.Logger
}

func NewDispatcher(
	validator *dsp.Validator,
	negotiations *appnegotiation.Service,
	agreements *agreement.Service,
	catalog *catalog.Service,
	logger zerolog.Logger,
) *Dispatcher {
	return &Dispatcher{
		validator:    validator,
		negotiations: negotiations,
		agreements:   agreements,
		catalog:      catalog,
		logger:       logger.With().Str("service", "protocol").Logger(),
	}
}

// Handle validates raw against the envelope schema and applies it.
func (d *Dispatcher) Handle(ctx context.Context, raw []byte) (*Reply, error) {
	if err := d.validator.ValidateJSON(raw).Err(); err != nil {
		return nil, err
	}
	var msg dsp.Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		return nil, apperr.ValidationFailed("invalid message envelope",
			apperr.Violation{Path: "/", Description: err.Error()})
	}
	body, err := d.apply(ctx, &msg)
	if err != nil {
		d.logger.Debug().Err(err).Str("message_id", msg.ID).Str("type", msg.Type).Msg("message rejected")
		return nil, err
	}
	d.logger.Debug().Str("message_id", msg.ID).Str("type", msg.Type).Str("issuer", msg.Issuer).Msg("message applied")
	return &Reply{MessageID: msg.ID, Type: msg.Type, Body: body}, nil
}

func (d *Dispatcher) apply(ctx context.Context, msg *dsp.Message) (interface{}, error) {
	switch msg.Type {
	case dsp.TypeCatalogQuery:
		return d.catalog.Catalog(ctx)
	case dsp.TypeNegotiationRequest:
		var req dsp.NegotiationRequest
		if err := decode(msg, &req); err != nil {
			return nil, err
		}
		return d.negotiations.Request(ctx, msg.Issuer, req.OfferID)
	case dsp.TypeAgreementCreate:
		ref, err := negotiationRef(msg)
		if err != nil {
			return nil, err
		}
		return d.agreements.Create(ctx, ref.NegotiationID)
	}
	if target, ok := TargetState(msg.Type); ok {
		ref, err := negotiationRef(msg)
		if err != nil {
			return nil, err
		}
		return d.negotiations.Transition(ctx, ref.NegotiationID, target)
	}
	return nil, apperr.ValidationFailed("unsupported message type",
		apperr.Violation{Path: "/type", Description: fmt.Sprintf("unsupported message type %q", msg.Type)})
}

func negotiationRef(msg *dsp.Message) (dsp.NegotiationRef, error) {
	var ref dsp.NegotiationRef
	if err := decode(msg, &ref); err != nil {
		return ref, err
	}
	if ref.NegotiationID == "" {
		return ref, apperr.ValidationFailed("invalid message data",
			apperr.Violation{Path: "/data/negotiationId", Description: "required"})
	}
	return ref, nil
}

func decode(msg *dsp.Message, v interface{}) error {
	if err := msg.DecodeData(v); err != nil {
		return apperr.ValidationFailed("invalid message data",
			apperr.Violation{Path: "/data", Description: err.Error()})
	}
	return nil
}
