// Package memory holds in-process repositories used when the storefront runs
// with DEV_MODE=true and by tests. Every method copies on the way in and out
// so callers never share state with the store.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/egannguyen/jewellery-storefront/internal/entity"
	"github.com/egannguyen/jewellery-storefront/internal/repository"
	"github.com/google/uuid"
)

// --- Products ---

type productRepository struct {
	mu       sync.RWMutex
	products []entity.Product
}

// NewProductRepository creates an empty in-memory catalog.
func NewProductRepository() repository.ProductRepository {
	return &productRepository{}
}

func (r *productRepository) FindAll(ctx context.Context) ([]entity.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]entity.Product, len(r.products))
	copy(out, r.products)
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out, nil
}

func (r *productRepository) FindBySlug(ctx context.Context, slug string) (*entity.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.products {
		if p.Slug == slug {
			cp := p
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *productRepository) Seed(ctx context.Context, products []entity.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.products) > 0 {
		return nil
	}
	r.products = append(r.products, products...)
	return nil
}

// --- Inventory ---

type inventoryKey struct{ slug, variant string }

type inventoryRepository struct {
	mu     sync.RWMutex
	levels map[inventoryKey]int
}

// NewInventoryRepository creates an empty in-memory inventory read model.
func NewInventoryRepository() repository.InventoryRepository {
	return &inventoryRepository{levels: make(map[inventoryKey]int)}
}

func (r *inventoryRepository) ReadStock(ctx context.Context, productSlug, variantKey string) (int, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n, ok := r.levels[inventoryKey{productSlug, variantKey}]
	return n, ok, nil
}

func (r *inventoryRepository) ListBySlug(ctx context.Context, productSlug string) ([]entity.InventoryLevel, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []entity.InventoryLevel{}
	for k, n := range r.levels {
		if k.slug == productSlug {
			out = append(out, entity.InventoryLevel{ProductSlug: k.slug, VariantKey: k.variant, Remaining: n})
		}
	}
	return out, nil
}

func (r *inventoryRepository) UpsertLevel(ctx context.Context, level entity.InventoryLevel) error {
	if level.Remaining < 0 {
		return fmt.Errorf("%w: %s/%s", entity.ErrInsufficientStock, level.ProductSlug, level.VariantKey)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.levels[inventoryKey{level.ProductSlug, level.VariantKey}] = level.Remaining
	return nil
}

// --- Orders ---

type orderRepository struct {
	mu     sync.RWMutex
	orders map[string]entity.Order
}

// NewOrderRepository creates an empty in-memory order projection.
func NewOrderRepository() repository.OrderRepository {
	return &orderRepository{orders: make(map[string]entity.Order)}
}

func (r *orderRepository) UpdateOrderProjection(ctx context.Context, event entity.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch e := event.(type) {
	case entity.OrderPlaced:
		if _, exists := r.orders[e.OrderID]; exists {
			return nil
		}
		r.orders[e.OrderID] = entity.Order{
			ID:               e.OrderID,
			SessionID:        e.SessionID,
			Items:            append([]entity.OrderItem(nil), e.Items...),
			TotalPrice:       e.TotalPrice,
			Currency:         e.Currency,
			Status:           entity.OrderStatusPending,
			PaymentSessionID: e.PaymentSessionID,
			CreatedAt:        e.PlacedAt,
		}
	case entity.OrderConfirmed:
		o, ok := r.orders[e.OrderID]
		if !ok {
			return fmt.Errorf("%w: %s", entity.ErrOrderNotFound, e.OrderID)
		}
		o.Status = entity.OrderStatusConfirmed
		r.orders[e.OrderID] = o
	default:
		return fmt.Errorf("unknown event for order projection: %s", event.EventType())
	}
	return nil
}

func (r *orderRepository) FindRecent(ctx context.Context, limit int) ([]entity.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]entity.Order, 0, len(r.orders))
	for _, o := range r.orders {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *orderRepository) FindByID(ctx context.Context, orderID string) (*entity.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.orders[orderID]
	if !ok {
		return nil, nil
	}
	return &o, nil
}

// --- Inquiries ---

type inquiryRepository struct {
	mu        sync.RWMutex
	inquiries []entity.Inquiry
}

// NewInquiryRepository creates an empty in-memory inquiry store.
func NewInquiryRepository() repository.InquiryRepository {
	return &inquiryRepository{}
}

func (r *inquiryRepository) Create(ctx context.Context, inquiry *entity.Inquiry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *inquiry
	cp.Attachments = append([]string(nil), inquiry.Attachments...)
	r.inquiries = append(r.inquiries, cp)
	return nil
}

func (r *inquiryRepository) List(ctx context.Context, status string, limit int) ([]entity.Inquiry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []entity.Inquiry{}
	for i := len(r.inquiries) - 1; i >= 0; i-- {
		inq := r.inquiries[i]
		if status != "" && inq.Status != status {
			continue
		}
		out = append(out, inq)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *inquiryRepository) UpdateStatus(ctx context.Context, inquiryID, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.inquiries {
		if r.inquiries[i].ID == inquiryID {
			r.inquiries[i].Status = status
			return nil
		}
	}
	return fmt.Errorf("%w: %s", entity.ErrInquiryNotFound, inquiryID)
}

// --- Event store ---

type eventStore struct {
	mu      sync.Mutex
	streams map[string][]entity.EventStoreRecord
}

// NewEventStore creates an in-memory EventStore with the same version
// semantics as the Postgres one.
func NewEventStore() repository.EventStore {
	return &eventStore{streams: make(map[string][]entity.EventStoreRecord)}
}

// SaveEvents appends to an inventory or order stream when expectedVersion
// matches the stream length.
func (s *eventStore) SaveEvents(ctx context.Context, streamID string, streamType string, expectedVersion int, events []entity.Event) error {
	if len(events) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	current := len(s.streams[streamID])
	if current != expectedVersion {
		return fmt.Errorf("%w: expected version %d, got %d", repository.ErrConcurrency, expectedVersion, current)
	}

	now := time.Now()
	version := expectedVersion
	for _, event := range events {
		version++
		payload, err := json.Marshal(event)
		if err != nil {
			return fmt.Errorf("failed to marshal event %s: %w", event.EventType(), err)
		}
		s.streams[streamID] = append(s.streams[streamID], entity.EventStoreRecord{
			ID:         uuid.NewString(),
			StreamID:   streamID,
			StreamType: streamType,
			Version:    version,
			EventType:  event.EventType(),
			Payload:    payload,
			CreatedAt:  now,
		})
	}
	return nil
}

func (s *eventStore) LoadEvents(ctx context.Context, streamID string) ([]entity.EventStoreRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]entity.EventStoreRecord(nil), s.streams[streamID]...), nil
}
