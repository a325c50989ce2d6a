// Package admission decides whether a participant may open a negotiation.
package admission

import (
	"context"
	"fmt"
	"strings"

	"github.com/Knetic/govaluate"
	"github.com/rs/zerolog"

	"github.com/dataspace-connector/connector/internal/domain/apperr"
	"github.com/dataspace-connector/connector/internal/domain/participant"
)

// ParticipantLookup resolves an issuer DID to its participant record.
type ParticipantLookup interface {
	FindByDID(ctx context.Context, did string) (*participant.Participant, error)
}

// Policy evaluates an admission rule such as
//
//	status == 'ACTIVE' && trustLevel >= 2 && 'DataConsumer' IN roles
//
// against the issuer's participant record.
type Policy struct {
	rule   string
	expr   *govaluate.EvaluableExpression
	lookup ParticipantLookup
	logger zerolog.Logger
}

// NewPolicy compiles rule. An empty rule admits every issuer.
func NewPolicy(rule string, lookup ParticipantLookup, logger zerolog.Logger) (*Policy, error) {
	p := &Policy{
		rule:   strings.TrimSpace(rule),
		lookup: lookup,
		logger: logger.With().Str("service", "admission").Logger(),
	}
	if p.rule == "" {
		return p, nil
	}
	expr, err := govaluate.NewEvaluableExpression(p.rule)
	if err != nil {
		return nil, fmt.Errorf("invalid admission rule %q: %w", p.rule, err)
	}
	p.expr = expr
	return p, nil
}

// Rule returns the compiled rule text.
func (p *Policy) Rule() string {
	return p.rule
}

// Admit returns nil when issuer may open a negotiation and a Forbidden
// error otherwise.
func (p *Policy) Admit(ctx context.Context, issuer string) error {
	if p.expr == nil {
		return nil
	}
	if p.lookup == nil {
		return apperr.Forbidden("admission rule configured without a participant registry")
	}
	pt, err := p.lookup.FindByDID(ctx, issuer)
	if err != nil {
		return err
	}
	if pt == nil {
		p.logger.Info().Str("issuer", issuer).Msg("admission denied: unknown issuer")
		return apperr.Forbidden(fmt.Sprintf("issuer %q is not a registered participant", issuer))
	}
	ok, err := p.evaluate(pt)
	if err != nil {
		p.logger.Warn().Err(err).Str("issuer", issuer).Msg("admission rule failed to evaluate")
		return apperr.Forbidden(fmt.Sprintf("admission rule could not be evaluated for %q: %v", issuer, err))
	}
	if !ok {
		p.logger.Info().Str("issuer", issuer).Str("rule", p.rule).Msg("admission denied")
		return apperr.Forbidden(fmt.Sprintf("issuer %q does not satisfy the admission rule", issuer))
	}
	return nil
}

func (p *Policy) evaluate(pt *participant.Participant) (bool, error) {
	result, err := p.expr.Evaluate(Parameters(pt))
	if err != nil {
		return false, err
	}
	v, ok := result.(bool)
	if !ok {
		return false, fmt.Errorf("rule did not evaluate to boolean")
	}
	return v, nil
}

// Parameters exposes a participant to admission expressions.
func Parameters(pt *participant.Participant) map[string]interface{} {
	roles := make([]interface{}, 0, len(pt.Roles))
	for _, r := range pt.Roles {
		roles = append(roles, string(r))
	}
	return map[string]interface{}{
		"did":        pt.DID,
		"name":       pt.Name,
		"status":     string(pt.Status),
		"active":     pt.IsActive(),
		"trustLevel": float64(pt.TrustLevel),
		"roles":      roles,
	}
}
