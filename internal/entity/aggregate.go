package entity

import "time"

// EventStoreRecord represents an event stored in the database.
type EventStoreRecord struct {
	ID         string    `json:"id"`
	StreamID   string    `json:"stream_id"`
	StreamType string    `json:"stream_type"`
	Version    int       `json:"version"`
	EventType  string    `json:"event_type"`
	Payload    []byte    `json:"payload"`
	CreatedAt  time.Time `json:"created_at"`
}

// Event represents a domain event.
type Event interface {
	EventType() string
}

// Aggregate represents an event-sourced aggregate root.
type Aggregate interface {
	GetAggregateID() string
	GetVersion() int
	ApplyEvent(event Event) error
}

// AggregateBase carries the identity and stream version shared by every aggregate.
type AggregateBase struct {
	ID      string `json:"id"`
	Version int    `json:"version"`
}

func (a *AggregateBase) GetAggregateID() string {
	return a.ID
}

func (a *AggregateBase) GetVersion() int {
	return a.Version
}

// InventoryStreamID is the event stream holding stock changes for one product.
func InventoryStreamID(productSlug string) string {
	return "inventory-" + productSlug
}

// OrderStreamID is the event stream of one order.
func OrderStreamID(orderID string) string {
	return "order-" + orderID
}
