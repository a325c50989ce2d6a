package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dataspace-connector/connector/internal/domain/asset"
)

const assetColumns = `id, external_id, participant_id, asset_type, title, description, version, status, revision, created_at, updated_at`

var _ asset.Repository = (*AssetRepository)(nil)

// AssetRepository implements asset.Repository.
type AssetRepository struct {
	pool *pgxpool.Pool
}

func NewAssetRepository(pool *pgxpool.Pool) *AssetRepository {
	return &AssetRepository{pool: pool}
}

func (r *AssetRepository) FindByID(ctx context.Context, id string) (*asset.Asset, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+assetColumns+` FROM assets WHERE id=$1`, id)
	a, err := scanAsset(row)
	return a, classify(err)
}

func (r *AssetRepository) FindAll(ctx context.Context) ([]*asset.Asset, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+assetColumns+` FROM assets ORDER BY created_at, id`)
	if err != nil {
		return nil, classify(err)
	}
	return collect(rows, scanAsset)
}

func (r *AssetRepository) Create(ctx context.Context, a *asset.Asset) (*asset.Asset, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO assets
		(id, external_id, participant_id, asset_type, title, description, version, status, revision, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		RETURNING `+assetColumns,
		a.ID, a.ExternalID, a.ParticipantID, string(a.AssetType), a.Title, a.Description, a.Version, string(a.Status),
		initialRevision(a.Revision), a.CreatedAt, a.UpdatedAt)
	created, err := scanAsset(row)
	if err != nil {
		return nil, classifyCreate(asset.EntityName, a.ID, err)
	}
	return created, nil
}

func (r *AssetRepository) Update(ctx context.Context, a *asset.Asset) (*asset.Asset, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE assets
		SET external_id=$2, participant_id=$3, asset_type=$4, title=$5, description=$6, version=$7, status=$8,
			updated_at=$9, revision=revision+1
		WHERE id=$1 AND revision=$10
		RETURNING `+assetColumns,
		a.ID, a.ExternalID, a.ParticipantID, string(a.AssetType), a.Title, a.Description, a.Version, string(a.Status),
		a.UpdatedAt, a.Revision)
	updated, err := scanAsset(row)
	if err != nil {
		return nil, classify(err)
	}
	if updated == nil {
		return nil, missedUpdate(ctx, r.pool, "assets", asset.EntityName, a.ID, a.Revision)
	}
	return updated, nil
}

func (r *AssetRepository) Delete(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM assets WHERE id=$1`, id)
	return classify(err)
}

func scanAsset(row pgx.Row) (*asset.Asset, error) {
	var (
		a         asset.Asset
		assetType string
		status    string
	)
	if err := row.Scan(&a.ID, &a.ExternalID, &a.ParticipantID, &assetType, &a.Title, &a.Description, &a.Version, &status,
		&a.Revision, &a.CreatedAt, &a.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	a.AssetType = asset.Type(assetType)
	a.Status = asset.Status(status)
	a.CreatedAt = utc(a.CreatedAt)
	a.UpdatedAt = utc(a.UpdatedAt)
	return &a, nil
}
