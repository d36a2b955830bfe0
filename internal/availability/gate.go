// Package availability answers whether a requested quantity of a product
// variant can be fulfilled from recorded stock. It is advisory: nothing is
// reserved between the check and the order.
package availability

import (
	"context"
	"fmt"
	"strings"

	"github.com/egannguyen/jewellery-storefront/internal/entity"
)

// Unlimited is reported as Remaining for variants without a stock record.
const Unlimited = -1

// StockReader reads the persisted inventory ledger.
type StockReader interface {
	// ReadStock returns the remaining units of a variant, or ok=false when
	// no record exists.
	ReadStock(ctx context.Context, productSlug, variantKey string) (remaining int, ok bool, err error)
	ListBySlug(ctx context.Context, productSlug string) ([]entity.InventoryLevel, error)
}

// ProductLookup is the slice of the catalog the gate needs.
type ProductLookup interface {
	FindBySlug(ctx context.Context, slug string) (*entity.Product, error)
}

// Availability is the result of a stock check.
type Availability struct {
	Available bool `json:"available"`
	Remaining int  `json:"remaining"`
	Tracked   bool `json:"tracked"`
}

// Gate checks requested quantities against the inventory ledger.
type Gate struct {
	stock   StockReader
	catalog ProductLookup
}

// NewGate creates a Gate. catalog may be nil, in which case untracked
// variants are always available.
func NewGate(stock StockReader, catalog ProductLookup) *Gate {
	return &Gate{stock: stock, catalog: catalog}
}

// CheckAvailability reports whether requestedQty units of a variant can be
// fulfilled. Variants without a stock record are available with unlimited
// stock unless the catalog marks the product out of stock. Missing records
// and unknown products are results, not errors; only malformed input is.
func (g *Gate) CheckAvailability(ctx context.Context, productSlug, variantKey string, requestedQty int) (Availability, error) {
	if strings.TrimSpace(productSlug) == "" {
		return Availability{}, entity.NewValidationError(entity.ErrInvalidRequest, "product_slug", "is required")
	}
	if requestedQty <= 0 {
		return Availability{}, entity.NewValidationError(entity.ErrInvalidRequest, "quantity", "must be positive, got %d", requestedQty)
	}
	if variantKey == "" {
		variantKey = entity.DefaultVariantKey
	}

	remaining, ok, err := g.stock.ReadStock(ctx, productSlug, variantKey)
	if err != nil {
		return Availability{}, fmt.Errorf("failed to read stock for %s/%s: %w", productSlug, variantKey, err)
	}
	if ok {
		return Availability{Available: remaining >= requestedQty, Remaining: remaining, Tracked: true}, nil
	}

	if g.catalog != nil {
		p, err := g.catalog.FindBySlug(ctx, productSlug)
		if err != nil {
			return Availability{}, fmt.Errorf("failed to look up product %s: %w", productSlug, err)
		}
		if p != nil && p.ExplicitlyOutOfStock() {
			return Availability{Available: false, Remaining: 0}, nil
		}
	}
	return Availability{Available: true, Remaining: Unlimited}, nil
}

// ListInventory returns every recorded variant level for a product, in no
// particular order. An empty result does not imply the product is unknown.
func (g *Gate) ListInventory(ctx context.Context, productSlug string) ([]entity.InventoryLevel, error) {
	if strings.TrimSpace(productSlug) == "" {
		return nil, entity.NewValidationError(entity.ErrInvalidRequest, "product_slug", "is required")
	}
	levels, err := g.stock.ListBySlug(ctx, productSlug)
	if err != nil {
		return nil, fmt.Errorf("failed to list inventory for %s: %w", productSlug, err)
	}
	if levels == nil {
		levels = []entity.InventoryLevel{}
	}
	return levels, nil
}
