package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/egannguyen/jewellery-storefront/internal/entity"
	"github.com/egannguyen/jewellery-storefront/internal/messaging"
	"github.com/egannguyen/jewellery-storefront/internal/repository"
)

// OrderService orchestrates order-related business logic.
type OrderService struct {
	orderRepo  repository.OrderRepository // read model
	eventStore repository.EventStore
	publisher  messaging.Publisher
	inventory  *InventoryService
	now        func() time.Time
}

func NewOrderService(
	orderRepo repository.OrderRepository,
	eventStore repository.EventStore,
	publisher messaging.Publisher,
	inventory *InventoryService,
) *OrderService {
	return &OrderService{
		orderRepo:  orderRepo,
		eventStore: eventStore,
		publisher:  publisher,
		inventory:  inventory,
		now:        time.Now,
	}
}

// GetRecentOrders returns the latest orders.
func (s *OrderService) GetRecentOrders(ctx context.Context, limit int) ([]entity.Order, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.orderRepo.FindRecent(ctx, limit)
}

// GetOrder returns one order from the read model.
func (s *OrderService) GetOrder(ctx context.Context, orderID string) (*entity.Order, error) {
	o, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to load order %s: %w", orderID, err)
	}
	if o == nil {
		return nil, fmt.Errorf("%w: %s", entity.ErrOrderNotFound, orderID)
	}
	return o, nil
}

// PlaceOrder starts a new order stream with event, projects it and
// publishes it for downstream consumers.
func (s *OrderService) PlaceOrder(ctx context.Context, event entity.OrderPlaced) error {
	slog.Info("Service: Placing order", "order_id", event.OrderID, "items", len(event.Items), "total", event.TotalPrice)

	if len(event.Items) == 0 {
		return entity.ErrEmptyCart
	}
	err := s.eventStore.SaveEvents(ctx, entity.OrderStreamID(event.OrderID), "order", 0, []entity.Event{event})
	if errors.Is(err, repository.ErrConcurrency) {
		slog.Info("Order already exists (idempotency)", "order_id", event.OrderID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to save OrderPlaced event: %w", err)
	}

	if err := s.orderRepo.UpdateOrderProjection(ctx, event); err != nil {
		slog.Error("Failed to update projection for OrderPlaced", "order_id", event.OrderID, "err", err)
	}
	if err := s.publisher.PublishEvent(ctx, messaging.TopicOrdersPlaced, event.OrderID, event); err != nil {
		return fmt.Errorf("failed to publish OrderPlaced event: %w", err)
	}
	return nil
}

// ConfirmOrder marks an order paid. Confirming twice returns the order
// unchanged.
func (s *OrderService) ConfirmOrder(ctx context.Context, orderID string) (*entity.Order, error) {
	slog.Info("Service: Confirming order", "order_id", orderID)

	records, err := s.eventStore.LoadEvents(ctx, entity.OrderStreamID(orderID))
	if err != nil {
		return nil, fmt.Errorf("failed to load order events: %w", err)
	}
	agg := entity.NewOrderAggregate(orderID)
	if err := agg.Rehydrate(records); err != nil {
		return nil, fmt.Errorf("failed to rehydrate order aggregate: %w", err)
	}
	if !agg.Exists() {
		return nil, fmt.Errorf("%w: %s", entity.ErrOrderNotFound, orderID)
	}
	if agg.Status == entity.OrderStatusConfirmed {
		slog.Info("Order already confirmed", "order_id", orderID)
		// A previous attempt may have failed after appending the event.
		if err := s.inventory.CommitOrder(ctx, orderID, agg.Items); err != nil {
			return nil, fmt.Errorf("failed to commit stock for order %s: %w", orderID, err)
		}
		o := agg.Snapshot()
		return &o, nil
	}

	confirmed := entity.OrderConfirmed{
		OrderID:     orderID,
		Items:       agg.Items,
		ConfirmedAt: s.now().UTC(),
	}
	if err := s.eventStore.SaveEvents(ctx, agg.GetAggregateID(), "order", agg.GetVersion(), []entity.Event{confirmed}); err != nil {
		return nil, fmt.Errorf("failed to save OrderConfirmed event: %w", err)
	}
	if err := agg.ApplyEvent(confirmed); err != nil {
		return nil, err
	}

	if err := s.orderRepo.UpdateOrderProjection(ctx, confirmed); err != nil {
		slog.Error("Failed to update projection for OrderConfirmed", "order_id", orderID, "err", err)
	}
	if err := s.inventory.CommitOrder(ctx, orderID, agg.Items); err != nil {
		return nil, fmt.Errorf("failed to commit stock for order %s: %w", orderID, err)
	}
	if err := s.publisher.PublishEvent(ctx, messaging.TopicOrdersConfirmed, orderID, confirmed); err != nil {
		slog.Error("Failed to publish OrderConfirmed", "order_id", orderID, "err", err)
	}

	slog.Info("Order confirmed (Event Appended)", "order_id", orderID)
	o := agg.Snapshot()
	return &o, nil
}

// HandleOrderPlaced is triggered by the message broker when an order is placed.
func (s *OrderService) HandleOrderPlaced(ctx context.Context, event *entity.OrderPlaced) error {
	slog.Info("Projection: Updating OrderPlaced", "order_id", event.OrderID)
	return s.orderRepo.UpdateOrderProjection(ctx, *event)
}

// HandleOrderConfirmed updates the read model and takes the order's units
// out of stock. Replays of an order already committed by ConfirmOrder leave
// stock untouched.
func (s *OrderService) HandleOrderConfirmed(ctx context.Context, event *entity.OrderConfirmed) error {
	slog.Info("Projection: Updating OrderConfirmed", "order_id", event.OrderID)
	if err := s.orderRepo.UpdateOrderProjection(ctx, *event); err != nil {
		return fmt.Errorf("failed to project OrderConfirmed: %w", err)
	}
	return s.inventory.CommitOrder(ctx, event.OrderID, event.Items)
}
