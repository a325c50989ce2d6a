package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dataspace-connector/connector/internal/domain/agreement"
)

const agreementColumns = `id, negotiation_id, revision, created_at, updated_at`

var _ agreement.Repository = (*AgreementRepository)(nil)

// AgreementRepository implements agreement.Repository.
type AgreementRepository struct {
	pool *pgxpool.Pool
}

func NewAgreementRepository(pool *pgxpool.Pool) *AgreementRepository {
	return &AgreementRepository{pool: pool}
}

func (r *AgreementRepository) FindByID(ctx context.Context, id string) (*agreement.Agreement, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+agreementColumns+` FROM agreements WHERE id=$1`, id)
	a, err := scanAgreement(row)
	return a, classify(err)
}

func (r *AgreementRepository) FindAll(ctx context.Context) ([]*agreement.Agreement, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+agreementColumns+` FROM agreements ORDER BY created_at, id`)
	if err != nil {
		return nil, classify(err)
	}
	return collect(rows, scanAgreement)
}

func (r *AgreementRepository) Create(ctx context.Context, a *agreement.Agreement) (*agreement.Agreement, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO agreements (id, negotiation_id, revision, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING `+agreementColumns,
		a.ID, a.NegotiationID, initialRevision(a.Revision), a.CreatedAt, a.UpdatedAt)
	created, err := scanAgreement(row)
	if err != nil {
		return nil, classifyCreate(agreement.EntityName, a.ID, err)
	}
	return created, nil
}

func (r *AgreementRepository) Update(ctx context.Context, a *agreement.Agreement) (*agreement.Agreement, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE agreements
		SET negotiation_id=$2, updated_at=$3, revision=revision+1
		WHERE id=$1 AND revision=$4
		RETURNING `+agreementColumns,
		a.ID, a.NegotiationID, a.UpdatedAt, a.Revision)
	updated, err := scanAgreement(row)
	if err != nil {
		return nil, classify(err)
	}
	if updated == nil {
		return nil, missedUpdate(ctx, r.pool, "agreements", agreement.EntityName, a.ID, a.Revision)
	}
	return updated, nil
}

func (r *AgreementRepository) Delete(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM agreements WHERE id=$1`, id)
	return classify(err)
}

func scanAgreement(row pgx.Row) (*agreement.Agreement, error) {
	var a agreement.Agreement
	if err := row.Scan(&a.ID, &a.NegotiationID, &a.Revision, &a.CreatedAt, &a.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	a.CreatedAt = utc(a.CreatedAt)
	a.UpdatedAt = utc(a.UpdatedAt)
	return &a, nil
}
