package repo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"brandstudio/internal/domain"
)

// AssetRepositoryPG implements domain.AssetRepository.
type AssetRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewAssetRepository creates a new asset repository backed by PostgreSQL.
func NewAssetRepository(pool *pgxpool.Pool) *AssetRepositoryPG {
	return &AssetRepositoryPG{pool: pool}
}

// Create inserts an asset row. Assets are immutable after creation.
func (r *AssetRepositoryPG) Create(ctx context.Context, asset *domain.Asset) error {
	query := `
INSERT INTO assets (id, business_id, kind, content, prompt, aspect_ratio, style_preset, subject_id, model_tier, width, height, bytes)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12);
`
	_, err := r.pool.Exec(ctx, query,
		asset.ID,
		asset.BusinessID,
		asset.Kind,
		asset.Content,
		asset.Prompt,
		asset.AspectRatio,
		asset.StylePreset,
		asset.SubjectID,
		asset.ModelTier,
		asset.Width,
		asset.Height,
		asset.Bytes,
	)
	return err
}

// GetByID fetches an asset by its identifier.
func (r *AssetRepositoryPG) GetByID(ctx context.Context, assetID string) (*domain.Asset, error) {
	query := selectAssetColumns + `
WHERE id = $1;
`
	row := r.pool.QueryRow(ctx, query, assetID)
	asset, err := scanAsset(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return asset, nil
}

// ListByBusiness returns the business's assets, newest first.
func (r *AssetRepositoryPG) ListByBusiness(ctx context.Context, businessID string) ([]domain.Asset, error) {
	query := selectAssetColumns + `
WHERE business_id = $1
ORDER BY created_at DESC;
`
	rows, err := r.pool.Query(ctx, query, businessID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var assets []domain.Asset
	for rows.Next() {
		asset, err := scanAsset(rows)
		if err != nil {
			return nil, err
		}
		assets = append(assets, *asset)
	}
	return assets, rows.Err()
}

const selectAssetColumns = `
SELECT id, business_id, kind, content, prompt, aspect_ratio, style_preset, subject_id, model_tier, width, height, bytes, created_at
FROM assets`

func scanAsset(row pgx.Row) (*domain.Asset, error) {
	var asset domain.Asset
	if err := row.Scan(
		&asset.ID,
		&asset.BusinessID,
		&asset.Kind,
		&asset.Content,
		&asset.Prompt,
		&asset.AspectRatio,
		&asset.StylePreset,
		&asset.SubjectID,
		&asset.ModelTier,
		&asset.Width,
		&asset.Height,
		&asset.Bytes,
		&asset.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &asset, nil
}
