package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/egannguyen/jewellery-storefront/internal/entity"
)

func TestInventoryService_RestockAndSetLevel(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	level, err := env.inventorySvc.Restock(ctx, "solitaire-ring", "platinum-size-7", 2)
	require.NoError(t, err)
	assert.Equal(t, 2, level.Remaining)

	level, err = env.inventorySvc.Restock(ctx, "solitaire-ring", "platinum-size-7", 3)
	require.NoError(t, err)
	assert.Equal(t, 5, level.Remaining)

	level, err = env.inventorySvc.SetLevel(ctx, "solitaire-ring", "", 1)
	require.NoError(t, err)
	assert.Equal(t, "default", level.VariantKey)

	n, ok, err := env.levels.ReadStock(ctx, "solitaire-ring", "platinum-size-7")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 5, n)

	records, err := env.events.LoadEvents(ctx, entity.InventoryStreamID("solitaire-ring"))
	require.NoError(t, err)
	assert.Len(t, records, 3)
}

func TestInventoryService_Rejects(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	_, err := env.inventorySvc.Restock(ctx, "tiara", "default", 1)
	assert.ErrorIs(t, err, entity.ErrProductNotFound)

	_, err = env.inventorySvc.Restock(ctx, "pearl-pendant", "default", 0)
	assert.ErrorIs(t, err, entity.ErrInvalidQuantity)

	_, err = env.inventorySvc.SetLevel(ctx, "pearl-pendant", "default", -1)
	assert.ErrorIs(t, err, entity.ErrInvalidRequest)
	assert.NotErrorIs(t, err, entity.ErrInsufficientStock)

	records, err := env.events.LoadEvents(ctx, entity.InventoryStreamID("pearl-pendant"))
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestInventoryService_CommitOrder(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	_, err := env.inventorySvc.SetLevel(ctx, "solitaire-ring", "platinum-size-7", 4)
	require.NoError(t, err)

	items := []entity.OrderItem{
		{ProductSlug: "solitaire-ring", VariantKey: "platinum-size-7", Quantity: 1},
		{ProductSlug: "solitaire-ring", VariantKey: "platinum-size-7", Quantity: 2},
		{ProductSlug: "pearl-pendant", VariantKey: "default", Quantity: 1}, // untracked
	}
	require.NoError(t, env.inventorySvc.CommitOrder(ctx, "o-1", items))

	n, _, err := env.levels.ReadStock(ctx, "solitaire-ring", "platinum-size-7")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, tracked, err := env.levels.ReadStock(ctx, "pearl-pendant", "default")
	require.NoError(t, err)
	assert.False(t, tracked)

	// Redelivery of the same order is a no-op.
	require.NoError(t, env.inventorySvc.CommitOrder(ctx, "o-1", items))
	n, _, err = env.levels.ReadStock(ctx, "solitaire-ring", "platinum-size-7")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestInventoryService_CommitOrderDrainsOversoldVariant(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	_, err := env.inventorySvc.SetLevel(ctx, "pearl-pendant", "default", 1)
	require.NoError(t, err)

	require.NoError(t, env.inventorySvc.CommitOrder(ctx, "o-2", []entity.OrderItem{
		{ProductSlug: "pearl-pendant", VariantKey: "default", Quantity: 3},
	}))

	n, ok, err := env.levels.ReadStock(ctx, "pearl-pendant", "default")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 0, n)
}
