package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/egannguyen/jewellery-storefront/internal/entity"
	"github.com/egannguyen/jewellery-storefront/internal/messaging"
	"github.com/egannguyen/jewellery-storefront/internal/service"
)

const consumerGroup = "storefront"

// decodeInto adapts a typed event handler to a raw payload handler.
func decodeInto[T any](name string, handle func(context.Context, *T) error) func(context.Context, []byte) error {
	return func(ctx context.Context, payload []byte) error {
		var event T
		if err := json.Unmarshal(payload, &event); err != nil {
			return fmt.Errorf("failed to unmarshal %s event: %w", name, err)
		}
		return handle(ctx, &event)
	}
}

// startConsumers subscribes the order projections. Each Consume call blocks
// until ctx is cancelled.
func startConsumers(ctx context.Context, sub messaging.Subscriber, orders *service.OrderService) {
	// orders.placed → read model
	go sub.Consume(ctx, messaging.TopicOrdersPlaced, consumerGroup+"-placed",
		decodeInto[entity.OrderPlaced]("OrderPlaced", orders.HandleOrderPlaced))

	// orders.confirmed → read model + stock commit
	go sub.Consume(ctx, messaging.TopicOrdersConfirmed, consumerGroup+"-confirmed",
		decodeInto[entity.OrderConfirmed]("OrderConfirmed", orders.HandleOrderConfirmed))
}
