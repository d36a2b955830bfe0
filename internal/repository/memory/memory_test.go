package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/egannguyen/jewellery-storefront/internal/entity"
	"github.com/egannguyen/jewellery-storefront/internal/repository"
)

func TestEventStore_VersionCheck(t *testing.T) {
	ctx := context.Background()
	store := NewEventStore()
	received := entity.StockReceived{ProductSlug: "band", VariantKey: "default", Quantity: 3}

	require.NoError(t, store.SaveEvents(ctx, "inventory-band", "inventory", 0, []entity.Event{received, received}))

	err := store.SaveEvents(ctx, "inventory-band", "inventory", 1, []entity.Event{received})
	assert.ErrorIs(t, err, repository.ErrConcurrency)

	require.NoError(t, store.SaveEvents(ctx, "inventory-band", "inventory", 2, []entity.Event{received}))

	records, err := store.LoadEvents(ctx, "inventory-band")
	require.NoError(t, err)
	require.Len(t, records, 3)
	for i, r := range records {
		assert.Equal(t, i+1, r.Version)
		assert.Equal(t, "StockReceived", r.EventType)
		assert.JSONEq(t, `{"product_slug":"band","variant_key":"default","quantity":3}`, string(r.Payload))
	}

	empty, err := store.LoadEvents(ctx, "inventory-unknown")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestEventStore_StreamsAreVersionedIndependently(t *testing.T) {
	ctx := context.Background()
	store := NewEventStore()
	stock := entity.InventoryStreamID("band")
	order := entity.OrderStreamID("o-1")

	require.NoError(t, store.SaveEvents(ctx, stock, "inventory", 0, []entity.Event{
		entity.StockLevelSet{ProductSlug: "band", VariantKey: "default", Level: 4},
	}))
	require.NoError(t, store.SaveEvents(ctx, order, "order", 0, []entity.Event{
		entity.OrderPlaced{OrderID: "o-1", Items: []entity.OrderItem{{ProductSlug: "band", VariantKey: "default", Quantity: 1}}},
	}))
	require.NoError(t, store.SaveEvents(ctx, stock, "inventory", 1, []entity.Event{
		entity.StockCommitted{ProductSlug: "band", VariantKey: "default", OrderID: "o-1", Quantity: 1},
	}))

	// A writer that loaded the stock stream before the commit loses.
	err := store.SaveEvents(ctx, stock, "inventory", 1, []entity.Event{
		entity.StockReceived{ProductSlug: "band", VariantKey: "default", Quantity: 2},
	})
	assert.ErrorIs(t, err, repository.ErrConcurrency)

	records, err := store.LoadEvents(ctx, stock)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "StockCommitted", records[1].EventType)
	assert.Equal(t, "inventory", records[1].StreamType)

	records, err = store.LoadEvents(ctx, order)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 1, records[0].Version)
	assert.Equal(t, "order", records[0].StreamType)
}

func TestInventoryRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewInventoryRepository()

	_, ok, err := repo.ReadStock(ctx, "band", "default")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, repo.UpsertLevel(ctx, entity.InventoryLevel{ProductSlug: "band", VariantKey: "default", Remaining: 4}))
	require.NoError(t, repo.UpsertLevel(ctx, entity.InventoryLevel{ProductSlug: "band", VariantKey: "default", Remaining: 0}))
	require.NoError(t, repo.UpsertLevel(ctx, entity.InventoryLevel{ProductSlug: "ring", VariantKey: "default", Remaining: 9}))

	n, ok, err := repo.ReadStock(ctx, "band", "default")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 0, n)

	levels, err := repo.ListBySlug(ctx, "band")
	require.NoError(t, err)
	assert.Equal(t, []entity.InventoryLevel{{ProductSlug: "band", VariantKey: "default", Remaining: 0}}, levels)
}

func TestOrderRepository_Projection(t *testing.T) {
	ctx := context.Background()
	repo := NewOrderRepository()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for i, id := range []string{"o-1", "o-2", "o-3"} {
		placed := entity.OrderPlaced{OrderID: id, TotalPrice: 1000, Items: []entity.OrderItem{{ProductSlug: "band", Quantity: 1}}, PlacedAt: base.Add(time.Duration(i) * time.Hour)}
		require.NoError(t, repo.UpdateOrderProjection(ctx, placed))
	}
	// Redelivery is ignored.
	require.NoError(t, repo.UpdateOrderProjection(ctx, entity.OrderPlaced{OrderID: "o-1", TotalPrice: 1}))
	require.NoError(t, repo.UpdateOrderProjection(ctx, entity.OrderConfirmed{OrderID: "o-2"}))

	err := repo.UpdateOrderProjection(ctx, entity.OrderConfirmed{OrderID: "o-9"})
	assert.ErrorIs(t, err, entity.ErrOrderNotFound)

	recent, err := repo.FindRecent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "o-3", recent[0].ID)
	assert.Equal(t, entity.OrderStatusConfirmed, recent[1].Status)

	o, err := repo.FindByID(ctx, "o-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1000), o.TotalPrice)
	assert.Equal(t, entity.OrderStatusPending, o.Status)

	missing, err := repo.FindByID(ctx, "o-9")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestInquiryRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewInquiryRepository()
	for _, id := range []string{"i-1", "i-2", "i-3"} {
		require.NoError(t, repo.Create(ctx, &entity.Inquiry{ID: id, Status: entity.InquiryStatusNew}))
	}
	require.NoError(t, repo.UpdateStatus(ctx, "i-2", entity.InquiryStatusQuoted))
	assert.ErrorIs(t, repo.UpdateStatus(ctx, "i-9", entity.InquiryStatusQuoted), entity.ErrInquiryNotFound)

	all, err := repo.List(ctx, "", 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "i-3", all[0].ID)

	quoted, err := repo.List(ctx, entity.InquiryStatusQuoted, 10)
	require.NoError(t, err)
	require.Len(t, quoted, 1)
	assert.Equal(t, "i-2", quoted[0].ID)
}
