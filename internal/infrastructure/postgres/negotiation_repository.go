package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dataspace-connector/connector/internal/domain/entity"
	"github.com/dataspace-connector/connector/internal/domain/negotiation"
)

const negotiationColumns = `id, state, issuer, offer_id, revision, created_at, updated_at`

var _ negotiation.Repository = (*NegotiationRepository)(nil)

// NegotiationRepository implements negotiation.Repository.
type NegotiationRepository struct {
	pool *pgxpool.Pool
}

func NewNegotiationRepository(pool *pgxpool.Pool) *NegotiationRepository {
	return &NegotiationRepository{pool: pool}
}

func (r *NegotiationRepository) FindByID(ctx context.Context, id string) (*negotiation.Negotiation, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+negotiationColumns+` FROM negotiations WHERE id=$1`, id)
	n, err := scanNegotiation(row)
	return n, classify(err)
}

func (r *NegotiationRepository) FindAll(ctx context.Context) ([]*negotiation.Negotiation, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+negotiationColumns+` FROM negotiations ORDER BY created_at, id`)
	if err != nil {
		return nil, classify(err)
	}
	return collect(rows, scanNegotiation)
}

func (r *NegotiationRepository) Create(ctx context.Context, n *negotiation.Negotiation) (*negotiation.Negotiation, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO negotiations (id, state, issuer, offer_id, revision, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING `+negotiationColumns,
		n.ID, string(n.State), n.Issuer, n.OfferID, initialRevision(n.Revision), n.CreatedAt, n.UpdatedAt)
	created, err := scanNegotiation(row)
	if err != nil {
		return nil, classifyCreate(negotiation.EntityName, n.ID, err)
	}
	return created, nil
}

func (r *NegotiationRepository) Update(ctx context.Context, n *negotiation.Negotiation) (*negotiation.Negotiation, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE negotiations
		SET state=$2, issuer=$3, offer_id=$4, updated_at=$5, revision=revision+1
		WHERE id=$1 AND revision=$6
		RETURNING `+negotiationColumns,
		n.ID, string(n.State), n.Issuer, n.OfferID, n.UpdatedAt, n.Revision)
	updated, err := scanNegotiation(row)
	if err != nil {
		return nil, classify(err)
	}
	if updated == nil {
		return nil, missedUpdate(ctx, r.pool, "negotiations", negotiation.EntityName, n.ID, n.Revision)
	}
	return updated, nil
}

func (r *NegotiationRepository) Delete(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM negotiations WHERE id=$1`, id)
	return classify(err)
}

func scanNegotiation(row pgx.Row) (*negotiation.Negotiation, error) {
	var (
		base    entity.Base
		state   string
		issuer  string
		offerID *string
	)
	if err := row.Scan(&base.ID, &state, &issuer, &offerID, &base.Revision, &base.CreatedAt, &base.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	base.CreatedAt = utc(base.CreatedAt)
	base.UpdatedAt = utc(base.UpdatedAt)
	return negotiation.Hydrate(base, negotiation.State(state), issuer, offerID), nil
}
