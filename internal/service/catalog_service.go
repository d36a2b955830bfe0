package service

import (
	"context"
	"fmt"

	"github.com/egannguyen/jewellery-storefront/internal/entity"
	"github.com/egannguyen/jewellery-storefront/internal/repository"
)

// CatalogService is the read side of the product catalog.
type CatalogService struct {
	productRepo repository.ProductRepository
}

func NewCatalogService(productRepo repository.ProductRepository) *CatalogService {
	return &CatalogService{productRepo: productRepo}
}

// GetProducts returns every product, or those in category when it is set.
func (s *CatalogService) GetProducts(ctx context.Context, category string) ([]entity.Product, error) {
	products, err := s.productRepo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	if category == "" {
		return products, nil
	}
	filtered := make([]entity.Product, 0, len(products))
	for _, p := range products {
		if p.Category == category {
			filtered = append(filtered, p)
		}
	}
	return filtered, nil
}

// GetProduct returns the product with slug or entity.ErrProductNotFound.
func (s *CatalogService) GetProduct(ctx context.Context, slug string) (*entity.Product, error) {
	p, err := s.productRepo.FindBySlug(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("failed to look up product %s: %w", slug, err)
	}
	if p == nil {
		return nil, fmt.Errorf("%w: %s", entity.ErrProductNotFound, slug)
	}
	return p, nil
}
