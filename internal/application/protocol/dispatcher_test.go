package protocol

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dataspace-connector/connector/internal/application/agreement"
	"github.com/dataspace-connector/connector/internal/application/catalog"
	appnegotiation "github.com/dataspace-connector/connector/internal/application/negotiation"
	agreementdomain "github.com/dataspace-connector/connector/internal/domain/agreement"
	"github.com/dataspace-connector/connector/internal/domain/apperr"
	"github.com/dataspace-connector/connector/internal/domain/negotiation"
	"github.com/dataspace-connector/connector/internal/dsp"
	"github.com/dataspace-connector/connector/internal/infrastructure/memory"
)

func newDispatcher() *Dispatcher {
	logger := zerolog.Nop()
	negotiations := memory.NewNegotiationRepository()
	negotiationSvc := appnegotiation.NewService(negotiations, nil, nil, appnegotiation.DefaultRetries, logger)
	agreementSvc := agreement.NewService(memory.NewAgreementRepository(), negotiations, nil, logger)
	catalogSvc := catalog.NewService(memory.NewAssetRepository(), "", logger)
	return NewDispatcher(dsp.MustNewValidator(), negotiationSvc, agreementSvc, catalogSvc, logger)
}

func message(t *testing.T, typ string, data interface{}) []byte {
	t.Helper()
	raw, err := json.Marshal(map[string]interface{}{
		"id":        uuid.NewString(),
		"type":      typ,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"issuer":    "did:web:consumer",
		"data":      data,
	})
	require.NoError(t, err)
	return raw
}

func TestDispatcher_FullNegotiation(t *testing.T) {
	ctx := context.Background()
	d := newDispatcher()

	reply, err := d.Handle(ctx, message(t, dsp.TypeNegotiationRequest, map[string]interface{}{"offerId": "offer-1"}))
	require.NoError(t, err)
	n := reply.Body.(*negotiation.Negotiation)
	assert.Equal(t, negotiation.StateRequested, n.State)
	assert.Equal(t, "did:web:consumer", n.Issuer)

	for _, typ := range []string{dsp.TypeNegotiationOffer, dsp.TypeNegotiationAccept, dsp.TypeNegotiationAgree} {
		reply, err = d.Handle(ctx, message(t, typ, map[string]interface{}{"negotiationId": n.ID}))
		require.NoError(t, err, typ)
	}
	assert.Equal(t, negotiation.StateAgreed, reply.Body.(*negotiation.Negotiation).State)

	reply, err = d.Handle(ctx, message(t, dsp.TypeAgreementCreate, map[string]interface{}{"negotiationId": n.ID}))
	require.NoError(t, err)
	assert.Equal(t, n.ID, reply.Body.(*agreementdomain.Agreement).NegotiationID)
}

func TestDispatcher_CatalogQuery(t *testing.T) {
	reply, err := newDispatcher().Handle(context.Background(), message(t, dsp.TypeCatalogQuery, map[string]interface{}{}))

	require.NoError(t, err)
	assert.IsType(t, &catalog.Catalog{}, reply.Body)
}

func TestDispatcher_Rejections(t *testing.T) {
	tests := []struct {
		name string
		raw  func(t *testing.T) []byte
		kind apperr.Kind
	}{
		{"invalid envelope", func(t *testing.T) []byte { return []byte(`{"type":"catalog:query"}`) }, apperr.KindValidationFailed},
		{"unsupported type", func(t *testing.T) []byte { return message(t, "transfer:start", map[string]interface{}{}) }, apperr.KindValidationFailed},
		{"missing negotiation id", func(t *testing.T) []byte { return message(t, dsp.TypeNegotiationOffer, map[string]interface{}{}) }, apperr.KindValidationFailed},
		{"unknown negotiation", func(t *testing.T) []byte {
			return message(t, dsp.TypeNegotiationOffer, map[string]interface{}{"negotiationId": "missing"})
		}, apperr.KindNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newDispatcher().Handle(context.Background(), tt.raw(t))
			assert.Equal(t, tt.kind, apperr.KindOf(err))
		})
	}
}

func TestDispatcher_IllegalMove(t *testing.T) {
	ctx := context.Background()
	d := newDispatcher()
	reply, err := d.Handle(ctx, message(t, dsp.TypeNegotiationRequest, map[string]interface{}{}))
	require.NoError(t, err)
	id := reply.Body.(*negotiation.Negotiation).ID

	_, err = d.Handle(ctx, message(t, dsp.TypeNegotiationFinalize, map[string]interface{}{"negotiationId": id}))

	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)
}

func TestTargetState(t *testing.T) {
	s, ok := TargetState(dsp.TypeNegotiationTerminate)
	assert.True(t, ok)
	assert.Equal(t, negotiation.StateTerminated, s)

	_, ok = TargetState(dsp.TypeNegotiationRequest)
	assert.False(t, ok)
}
