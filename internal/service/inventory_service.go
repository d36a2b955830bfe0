package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/egannguyen/jewellery-storefront/internal/entity"
	"github.com/egannguyen/jewellery-storefront/internal/repository"
)

const maxAppendAttempts = 3

// InventoryService is the only writer of the inventory ledger. Changes are
// appended to the product's inventory stream and then projected into the
// levels the availability gate reads.
type InventoryService struct {
	eventStore repository.EventStore
	levels     repository.InventoryRepository
	catalog    repository.ProductRepository
}

func NewInventoryService(eventStore repository.EventStore, levels repository.InventoryRepository, catalog repository.ProductRepository) *InventoryService {
	return &InventoryService{eventStore: eventStore, levels: levels, catalog: catalog}
}

// Restock adds quantity units to a variant. An untracked variant starts
// being tracked at quantity.
func (s *InventoryService) Restock(ctx context.Context, slug, variantKey string, quantity int) (entity.InventoryLevel, error) {
	slog.Info("Service: Restocking", "product", slug, "variant", variantKey, "quantity", quantity)
	variantKey = normaliseVariantKey(variantKey)
	if err := s.requireProduct(ctx, slug); err != nil {
		return entity.InventoryLevel{}, err
	}
	agg, err := s.append(ctx, slug, func(*entity.InventoryAggregate) []entity.Event {
		return []entity.Event{entity.StockReceived{ProductSlug: slug, VariantKey: variantKey, Quantity: quantity}}
	})
	if err != nil {
		return entity.InventoryLevel{}, err
	}
	n, _ := agg.Level(variantKey)
	return entity.InventoryLevel{ProductSlug: slug, VariantKey: variantKey, Remaining: n}, nil
}

// SetLevel records an absolute stock count for a variant.
func (s *InventoryService) SetLevel(ctx context.Context, slug, variantKey string, level int) (entity.InventoryLevel, error) {
	slog.Info("Service: Setting stock level", "product", slug, "variant", variantKey, "level", level)
	variantKey = normaliseVariantKey(variantKey)
	if err := s.requireProduct(ctx, slug); err != nil {
		return entity.InventoryLevel{}, err
	}
	if _, err := s.append(ctx, slug, func(*entity.InventoryAggregate) []entity.Event {
		return []entity.Event{entity.StockLevelSet{ProductSlug: slug, VariantKey: variantKey, Level: level}}
	}); err != nil {
		return entity.InventoryLevel{}, err
	}
	return entity.InventoryLevel{ProductSlug: slug, VariantKey: variantKey, Remaining: level}, nil
}

// CommitOrder takes a confirmed order's units out of stock. It is safe to
// call again for the same order. Stock is not reserved at checkout, so a
// tracked variant may hold fewer units than the order needs; it is then
// drained to zero and the shortfall logged.
func (s *InventoryService) CommitOrder(ctx context.Context, orderID string, items []entity.OrderItem) error {
	slog.Info("Service: Committing stock", "order_id", orderID, "items", len(items))

	// slug -> variant key -> quantity
	wanted := make(map[string]map[string]int)
	for _, it := range items {
		key := normaliseVariantKey(it.VariantKey)
		if wanted[it.ProductSlug] == nil {
			wanted[it.ProductSlug] = make(map[string]int)
		}
		wanted[it.ProductSlug][key] += it.Quantity
	}
	slugs := make([]string, 0, len(wanted))
	for slug := range wanted {
		slugs = append(slugs, slug)
	}
	sort.Strings(slugs)

	for _, slug := range slugs {
		_, err := s.append(ctx, slug, func(agg *entity.InventoryAggregate) []entity.Event {
			if agg.HasCommitted(orderID) {
				return nil
			}
			keys := make([]string, 0, len(wanted[slug]))
			for k := range wanted[slug] {
				keys = append(keys, k)
			}
			sort.Strings(keys)

			var events []entity.Event
			for _, key := range keys {
				qty := wanted[slug][key]
				if onHand, tracked := agg.Level(key); tracked && onHand < qty {
					slog.Warn("Variant oversold", "order_id", orderID, "product", slug, "variant", key, "on_hand", onHand, "ordered", qty)
					qty = onHand
				}
				if qty <= 0 {
					continue
				}
				events = append(events, entity.StockCommitted{OrderID: orderID, ProductSlug: slug, VariantKey: key, Quantity: qty})
			}
			return events
		})
		if err != nil {
			return fmt.Errorf("failed to commit stock of %s for order %s: %w", slug, orderID, err)
		}
	}
	return nil
}

// append loads the product's inventory stream, asks decide for new events,
// validates and saves them, then projects the touched levels. A concurrent
// writer causes a reload and another decision.
func (s *InventoryService) append(ctx context.Context, slug string, decide func(*entity.InventoryAggregate) []entity.Event) (*entity.InventoryAggregate, error) {
	streamID := entity.InventoryStreamID(slug)

	for attempt := 1; ; attempt++ {
		records, err := s.eventStore.LoadEvents(ctx, streamID)
		if err != nil {
			return nil, fmt.Errorf("failed to load inventory history: %w", err)
		}
		agg := entity.NewInventoryAggregate(slug)
		if err := agg.Rehydrate(records); err != nil {
			return nil, fmt.Errorf("failed to rehydrate inventory aggregate: %w", err)
		}

		events := decide(agg)
		if len(events) == 0 {
			return agg, nil
		}

		expected := agg.GetVersion()
		for _, e := range events {
			if err := agg.Validate(e); err != nil {
				return nil, err
			}
			if err := agg.ApplyEvent(e); err != nil {
				return nil, err
			}
		}

		err = s.eventStore.SaveEvents(ctx, streamID, "inventory", expected, events)
		if errors.Is(err, repository.ErrConcurrency) && attempt < maxAppendAttempts {
			slog.Warn("Inventory stream moved, retrying", "product", slug, "attempt", attempt)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to save inventory events: %w", err)
		}

		if err := s.project(ctx, agg, events); err != nil {
			return nil, err
		}
		return agg, nil
	}
}

func (s *InventoryService) project(ctx context.Context, agg *entity.InventoryAggregate, events []entity.Event) error {
	seen := make(map[string]bool)
	for _, e := range events {
		var key string
		switch e := e.(type) {
		case entity.StockLevelSet:
			key = e.VariantKey
		case entity.StockReceived:
			key = e.VariantKey
		case entity.StockCommitted:
			key = e.VariantKey
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		n, tracked := agg.Level(key)
		if !tracked {
			continue
		}
		if err := s.levels.UpsertLevel(ctx, entity.InventoryLevel{ProductSlug: agg.ProductSlug, VariantKey: key, Remaining: n}); err != nil {
			return fmt.Errorf("failed to project stock level %s/%s: %w", agg.ProductSlug, key, err)
		}
	}
	return nil
}

func (s *InventoryService) requireProduct(ctx context.Context, slug string) error {
	p, err := s.catalog.FindBySlug(ctx, slug)
	if err != nil {
		return fmt.Errorf("failed to look up product %s: %w", slug, err)
	}
	if p == nil {
		return fmt.Errorf("%w: %s", entity.ErrProductNotFound, slug)
	}
	return nil
}

func normaliseVariantKey(key string) string {
	if key == "" {
		return entity.DefaultVariantKey
	}
	return key
}
