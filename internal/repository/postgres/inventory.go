package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/egannguyen/jewellery-storefront/internal/entity"
	"github.com/egannguyen/jewellery-storefront/internal/repository"
)

type inventoryRepository struct {
	db *sql.DB
}

// NewInventoryRepository creates a new InventoryRepository backed by Postgres.
func NewInventoryRepository(db *sql.DB) repository.InventoryRepository {
	return &inventoryRepository{db: db}
}

func (r *inventoryRepository) ReadStock(ctx context.Context, productSlug, variantKey string) (int, bool, error) {
	var remaining int
	err := r.db.QueryRowContext(ctx,
		"SELECT remaining FROM inventory_levels WHERE product_slug = $1 AND variant_key = $2",
		productSlug, variantKey,
	).Scan(&remaining)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to read stock: %w", err)
	}
	return remaining, true, nil
}

func (r *inventoryRepository) ListBySlug(ctx context.Context, productSlug string) ([]entity.InventoryLevel, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT product_slug, variant_key, remaining FROM inventory_levels WHERE product_slug = $1",
		productSlug,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query inventory: %w", err)
	}
	defer rows.Close()

	levels := []entity.InventoryLevel{}
	for rows.Next() {
		var l entity.InventoryLevel
		if err := rows.Scan(&l.ProductSlug, &l.VariantKey, &l.Remaining); err != nil {
			return nil, fmt.Errorf("failed to scan inventory level: %w", err)
		}
		levels = append(levels, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating inventory rows: %w", err)
	}
	return levels, nil
}

func (r *inventoryRepository) UpsertLevel(ctx context.Context, level entity.InventoryLevel) error {
	if level.Remaining < 0 {
		return fmt.Errorf("%w: %s/%s", entity.ErrInsufficientStock, level.ProductSlug, level.VariantKey)
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO inventory_levels (product_slug, variant_key, remaining, updated_at)
		 VALUES ($1, $2, $3, NOW())
		 ON CONFLICT (product_slug, variant_key) DO UPDATE SET remaining = EXCLUDED.remaining, updated_at = NOW()`,
		level.ProductSlug, level.VariantKey, level.Remaining,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert inventory level: %w", err)
	}
	return nil
}
