package service

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	attmem "github.com/egannguyen/jewellery-storefront/internal/attachment/memory"
	"github.com/egannguyen/jewellery-storefront/internal/availability"
	"github.com/egannguyen/jewellery-storefront/internal/entity"
	"github.com/egannguyen/jewellery-storefront/internal/payment"
	"github.com/egannguyen/jewellery-storefront/internal/pricing"
	"github.com/egannguyen/jewellery-storefront/internal/repository"
	"github.com/egannguyen/jewellery-storefront/internal/repository/memory"
	storemem "github.com/egannguyen/jewellery-storefront/internal/storage/memory"
)

func boolPtr(b bool) *bool { return &b }

var (
	solitaire = entity.Product{
		ID:        "p-1",
		Title:     "Solitaire Ring",
		Slug:      "solitaire-ring",
		BasePrice: 120000,
		OptionGroups: []entity.OptionGroup{
			{Name: entity.GroupMetal, Required: true, Values: []entity.OptionValue{
				{Name: "Yellow Gold"}, {Name: "White Gold", PriceDelta: 5000}, {Name: "Platinum", PriceDelta: 20000},
			}},
			{Name: entity.GroupStone, Values: []entity.OptionValue{
				{Name: "Diamond"}, {Name: "Sapphire", PriceDelta: -10000},
			}},
		},
		RingSizes: []string{"6", "7", "8"},
		Category:  "rings",
	}
	pendant = entity.Product{
		ID:        "p-2",
		Title:     "Pearl Pendant",
		Slug:      "pearl-pendant",
		BasePrice: 35000,
		Category:  "necklaces",
	}
	soldOut = entity.Product{
		ID:        "p-3",
		Title:     "Emerald Studs",
		Slug:      "emerald-studs",
		BasePrice: 89000,
		InStock:   boolPtr(false),
		Category:  "earrings",
	}
)

type published struct {
	Topic string
	Key   string
	Event any
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []published
	err    error
}

func (p *recordingPublisher) PublishEvent(ctx context.Context, topic, key string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, published{Topic: topic, Key: key, Event: event})
	return nil
}

func (p *recordingPublisher) topics() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Topic)
	}
	return out
}

type testEnv struct {
	catalog     repository.ProductRepository
	levels      repository.InventoryRepository
	orders      repository.OrderRepository
	inquiries   repository.InquiryRepository
	events      repository.EventStore
	store       *storemem.Store
	attachments *attmem.Store
	publisher   *recordingPublisher
	gateway     *payment.FakeGateway

	cartSvc      *CartService
	shopperSvc   *ShopperService
	catalogSvc   *CatalogService
	inventorySvc *InventoryService
	orderSvc     *OrderService
	checkoutSvc  *CheckoutService
	inquirySvc   *InquiryService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	env := &testEnv{
		catalog:     memory.NewProductRepository(),
		levels:      memory.NewInventoryRepository(),
		orders:      memory.NewOrderRepository(),
		inquiries:   memory.NewInquiryRepository(),
		events:      memory.NewEventStore(),
		store:       storemem.NewStore(),
		attachments: attmem.NewStore("https://files.test"),
		publisher:   &recordingPublisher{},
		gateway:     &payment.FakeGateway{},
	}
	require.NoError(t, env.catalog.Seed(ctx, []entity.Product{solitaire, pendant, soldOut}))

	locker := storemem.NewLocker()
	resolver := pricing.NewResolver(pricing.WithMaxPerAdd(5), pricing.WithDiagnostics(func(pricing.Diagnostic) {}))
	gate := availability.NewGate(env.levels, env.catalog)

	env.cartSvc = NewCartService(env.catalog, resolver, gate, env.store, locker, time.Hour)
	env.shopperSvc = NewShopperService(env.catalog, env.store, locker, time.Hour)
	env.catalogSvc = NewCatalogService(env.catalog)
	env.inventorySvc = NewInventoryService(env.events, env.levels, env.catalog)
	env.orderSvc = NewOrderService(env.orders, env.events, env.publisher, env.inventorySvc)
	env.checkoutSvc = NewCheckoutService(env.cartSvc, env.catalog, resolver, gate, env.gateway, env.orderSvc, "gbp")
	env.inquirySvc = NewInquiryService(env.inquiries, env.attachments, env.publisher)
	return env
}

func ringSelection(metal, size string) entity.Selection {
	sel := entity.Selection{Options: map[string]string{}}
	if metal != "" {
		sel.Options[entity.GroupMetal] = metal
	}
	if size != "" {
		sel.Options[entity.GroupRingSize] = size
	}
	return sel
}

// roundTrip re-decodes a published event the way a broker consumer would.
func roundTrip[T any](t *testing.T, event any) *T {
	t.Helper()
	raw, err := json.Marshal(event)
	require.NoError(t, err)
	var out T
	require.NoError(t, json.Unmarshal(raw, &out))
	return &out
}
