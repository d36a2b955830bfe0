package entity

import (
	"encoding/json"
	"fmt"
	"time"
)

// OrderAggregate manages the state of an Order by replaying events.
type OrderAggregate struct {
	AggregateBase
	OrderID          string
	SessionID        string
	Items            []OrderItem
	TotalPrice       int64
	Currency         string
	PaymentSessionID string
	Status           string
	CreatedAt        time.Time
}

// NewOrderAggregate creates an empty OrderAggregate ready for replay.
func NewOrderAggregate(orderID string) *OrderAggregate {
	return &OrderAggregate{
		AggregateBase: AggregateBase{ID: OrderStreamID(orderID), Version: 0},
		OrderID:       orderID,
	}
}

// Exists reports whether the order has been placed.
func (a *OrderAggregate) Exists() bool {
	return a.Status != ""
}

// ApplyEvent mutates the aggregate state based on the event.
func (a *OrderAggregate) ApplyEvent(e Event) error {
	switch e := e.(type) {
	case OrderPlaced:
		a.SessionID = e.SessionID
		a.Items = e.Items
		a.TotalPrice = e.TotalPrice
		a.Currency = e.Currency
		a.PaymentSessionID = e.PaymentSessionID
		a.Status = OrderStatusPending
		if a.CreatedAt.IsZero() {
			a.CreatedAt = e.PlacedAt
		}
	case OrderConfirmed:
		a.Status = OrderStatusConfirmed
	default:
		return fmt.Errorf("unknown event type for OrderAggregate: %s", e.EventType())
	}
	a.Version++
	return nil
}

// Rehydrate rebuilds the aggregate from a list of records.
func (a *OrderAggregate) Rehydrate(records []EventStoreRecord) error {
	for _, rec := range records {
		var err error
		switch rec.EventType {
		case "OrderPlaced":
			var e OrderPlaced
			if err = json.Unmarshal(rec.Payload, &e); err == nil {
				err = a.ApplyEvent(e)
			}
		case "OrderConfirmed":
			var e OrderConfirmed
			if err = json.Unmarshal(rec.Payload, &e); err == nil {
				err = a.ApplyEvent(e)
			}
		default:
			return fmt.Errorf("unknown event type in stream: %s", rec.EventType)
		}
		if err != nil {
			return fmt.Errorf("failed to apply event from stream: %w", err)
		}
	}
	return nil
}

// Snapshot returns the read-model view of the aggregate.
func (a *OrderAggregate) Snapshot() Order {
	return Order{
		ID:               a.OrderID,
		SessionID:        a.SessionID,
		Items:            a.Items,
		TotalPrice:       a.TotalPrice,
		Currency:         a.Currency,
		Status:           a.Status,
		PaymentSessionID: a.PaymentSessionID,
		CreatedAt:        a.CreatedAt,
	}
}
