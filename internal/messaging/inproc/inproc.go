// Package inproc is an in-process broker on watermill's Go channel pub/sub,
// used in DEV_MODE and tests where no Kafka cluster is available.
package inproc

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/egannguyen/jewellery-storefront/internal/messaging"
)

const keyMetadata = "key"

// Broker implements messaging.Publisher and messaging.Subscriber.
type Broker struct {
	pubSub *gochannel.GoChannel
}

var (
	_ messaging.Publisher  = (*Broker)(nil)
	_ messaging.Subscriber = (*Broker)(nil)
)

// NewBroker creates a Broker. Published messages are kept and replayed to
// subscribers that attach later, so start-up order does not lose events.
func NewBroker(logger *slog.Logger) *Broker {
	return &Broker{
		pubSub: gochannel.NewGoChannel(
			gochannel.Config{OutputChannelBuffer: 64, Persistent: true},
			watermill.NewSlogLogger(logger),
		),
	}
}

func (b *Broker) PublishEvent(ctx context.Context, topic string, key string, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.Metadata.Set(keyMetadata, key)
	msg.SetContext(ctx)
	if err := b.pubSub.Publish(topic, msg); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", topic, err)
	}
	return nil
}

// Consume subscribes to topic. groupID is ignored: every subscriber gets
// every message.
func (b *Broker) Consume(ctx context.Context, topic string, groupID string, handler func(ctx context.Context, payload []byte) error) {
	messages, err := b.pubSub.Subscribe(ctx, topic)
	if err != nil {
		slog.Error("Failed to subscribe", "topic", topic, "err", err)
		return
	}
	for msg := range messages {
		if err := handler(ctx, msg.Payload); err != nil {
			slog.Error("Error handling message", "topic", topic, "uuid", msg.UUID, "err", err)
		}
		msg.Ack()
	}
	slog.Info("Consumer shutting down", "topic", topic)
}

// Close stops every subscription.
func (b *Broker) Close() error {
	return b.pubSub.Close()
}
