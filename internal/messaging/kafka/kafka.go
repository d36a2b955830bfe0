package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	kafkaGo "github.com/segmentio/kafka-go"

	"github.com/egannguyen/jewellery-storefront/internal/messaging"
)

// Broker publishes JSON events and runs consumer-group readers.
type Broker struct {
	brokers []string

	mu      sync.Mutex
	writers map[string]*kafkaGo.Writer
}

// NewKafkaBroker creates a new Kafka publisher and subscriber.
func NewKafkaBroker(brokers []string) *Broker {
	return &Broker{brokers: brokers, writers: make(map[string]*kafkaGo.Writer)}
}

var (
	_ messaging.Publisher  = (*Broker)(nil)
	_ messaging.Subscriber = (*Broker)(nil)
)

// writer returns the cached writer for topic.
func (k *Broker) writer(topic string) *kafkaGo.Writer {
	k.mu.Lock()
	defer k.mu.Unlock()
	w, ok := k.writers[topic]
	if !ok {
		w = &kafkaGo.Writer{
			Addr:                   kafkaGo.TCP(k.brokers...),
			Topic:                  topic,
			Balancer:               &kafkaGo.Hash{},
			RequiredAcks:           kafkaGo.RequireAll,
			AllowAutoTopicCreation: true,
			BatchTimeout:           10 * time.Millisecond,
		}
		k.writers[topic] = w
	}
	return w
}

func (k *Broker) PublishEvent(ctx context.Context, topic string, key string, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	err = k.writer(topic).WriteMessages(ctx, kafkaGo.Message{
		Key:   []byte(key),
		Value: payload,
	})
	if err != nil {
		return fmt.Errorf("failed to write to %s: %w", topic, err)
	}
	return nil
}

func (k *Broker) Consume(ctx context.Context, topic string, groupID string, handler func(ctx context.Context, payload []byte) error) {
	reader := kafkaGo.NewReader(kafkaGo.ReaderConfig{
		Brokers: k.brokers,
		Topic:   topic,
		GroupID: groupID,
	})
	defer reader.Close()

	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				slog.Info("Consumer shutting down", "topic", topic)
				return
			}
			slog.Error("Error reading message", "topic", topic, "err", err)
			continue
		}

		if err := handler(ctx, msg.Value); err != nil {
			slog.Error("Error handling message", "topic", topic, "offset", msg.Offset, "err", err)
		}
	}
}

// Close flushes and closes every writer.
func (k *Broker) Close() error {
	k.mu.Lock()
	defer k.mu.Unlock()
	var errs []error
	for topic, w := range k.writers {
		if err := w.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close writer %s: %w", topic, err))
		}
		delete(k.writers, topic)
	}
	return errors.Join(errs...)
}
