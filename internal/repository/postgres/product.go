package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/egannguyen/jewellery-storefront/internal/entity"
	"github.com/egannguyen/jewellery-storefront/internal/repository"
)

const productColumns = "id, slug, title, description, base_price, option_groups, ring_sizes, in_stock, image_url, category"

type productRepository struct {
	db *sql.DB
}

// NewProductRepository creates a new ProductRepository backed by Postgres.
func NewProductRepository(db *sql.DB) repository.ProductRepository {
	return &productRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (entity.Product, error) {
	var (
		p          entity.Product
		groupsJSON []byte
		sizesJSON  []byte
		inStock    sql.NullBool
	)
	if err := row.Scan(&p.ID, &p.Slug, &p.Title, &p.Description, &p.BasePrice, &groupsJSON, &sizesJSON, &inStock, &p.ImageURL, &p.Category); err != nil {
		return p, err
	}
	if err := json.Unmarshal(groupsJSON, &p.OptionGroups); err != nil {
		return p, fmt.Errorf("failed to decode option groups of %s: %w", p.Slug, err)
	}
	if err := json.Unmarshal(sizesJSON, &p.RingSizes); err != nil {
		return p, fmt.Errorf("failed to decode ring sizes of %s: %w", p.Slug, err)
	}
	if inStock.Valid {
		v := inStock.Bool
		p.InStock = &v
	}
	return p, nil
}

func (r *productRepository) FindAll(ctx context.Context) ([]entity.Product, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+productColumns+" FROM products ORDER BY title")
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var products []entity.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating product rows: %w", err)
	}
	return products, nil
}

func (r *productRepository) FindBySlug(ctx context.Context, slug string) (*entity.Product, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+productColumns+" FROM products WHERE slug = $1", slug)
	p, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load product %s: %w", slug, err)
	}
	return &p, nil
}

func (r *productRepository) Seed(ctx context.Context, products []entity.Product) error {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM products").Scan(&count)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil // already seeded
	}

	for _, p := range products {
		groups, err := json.Marshal(p.OptionGroups)
		if err != nil {
			return fmt.Errorf("failed to encode option groups of %s: %w", p.Slug, err)
		}
		sizes := p.RingSizes
		if sizes == nil {
			sizes = []string{}
		}
		sizesJSON, err := json.Marshal(sizes)
		if err != nil {
			return fmt.Errorf("failed to encode ring sizes of %s: %w", p.Slug, err)
		}
		var inStock sql.NullBool
		if p.InStock != nil {
			inStock = sql.NullBool{Bool: *p.InStock, Valid: true}
		}
		_, err = r.db.ExecContext(ctx,
			"INSERT INTO products ("+productColumns+") VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)",
			p.ID, p.Slug, p.Title, p.Description, p.BasePrice, groups, sizesJSON, inStock, p.ImageURL, p.Category,
		)
		if err != nil {
			return fmt.Errorf("failed to seed product %s: %w", p.Slug, err)
		}
	}
	return nil
}
