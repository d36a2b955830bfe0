package repository

import (
	"context"
	"errors"

	"github.com/egannguyen/jewellery-storefront/internal/entity"
)

// ErrConcurrency is returned by SaveEvents when the stream moved past the expected version.
var ErrConcurrency = errors.New("concurrency exception")

// ProductRepository is the catalog.
type ProductRepository interface {
	FindAll(ctx context.Context) ([]entity.Product, error)
	// FindBySlug returns nil, nil when no product has the slug.
	FindBySlug(ctx context.Context, slug string) (*entity.Product, error)
	// Seed inserts initial products if none exist.
	Seed(ctx context.Context, products []entity.Product) error
}

// InventoryRepository is the read model of the inventory ledger.
type InventoryRepository interface {
	ReadStock(ctx context.Context, productSlug, variantKey string) (int, bool, error)
	ListBySlug(ctx context.Context, productSlug string) ([]entity.InventoryLevel, error)
	UpsertLevel(ctx context.Context, level entity.InventoryLevel) error
}

// OrderRepository handles the order read model.
type OrderRepository interface {
	UpdateOrderProjection(ctx context.Context, event entity.Event) error
	FindRecent(ctx context.Context, limit int) ([]entity.Order, error)
	// FindByID returns nil, nil when the order is unknown.
	FindByID(ctx context.Context, orderID string) (*entity.Order, error)
}

// InquiryRepository persists bespoke-order leads.
type InquiryRepository interface {
	Create(ctx context.Context, inquiry *entity.Inquiry) error
	// List returns the newest inquiries first; an empty status matches all.
	List(ctx context.Context, status string, limit int) ([]entity.Inquiry, error)
	// UpdateStatus returns entity.ErrInquiryNotFound for unknown ids.
	UpdateStatus(ctx context.Context, inquiryID, status string) error
}

// EventStore handles appending and loading events for an aggregate stream.
type EventStore interface {
	SaveEvents(ctx context.Context, streamID string, streamType string, expectedVersion int, events []entity.Event) error
	LoadEvents(ctx context.Context, streamID string) ([]entity.EventStoreRecord, error)
}
