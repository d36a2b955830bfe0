package messaging

import "context"

// Topics the storefront publishes and consumes.
const (
	TopicOrdersPlaced      = "orders.placed"
	TopicOrdersConfirmed   = "orders.confirmed"
	TopicInquiriesReceived = "inquiries.received"
)

// Publisher defines an interface for publishing events to a message broker.
type Publisher interface {
	PublishEvent(ctx context.Context, topic string, key string, event any) error
}

// Subscriber defines an interface for subscribing to a message topic.
// Consume blocks until ctx is done.
type Subscriber interface {
	Consume(ctx context.Context, topic string, groupID string, handler func(ctx context.Context, payload []byte) error)
}
