package inproc

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBroker_PublishThenConsume(t *testing.T) {
	b := NewBroker(slog.Default())
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, b.PublishEvent(ctx, "orders.placed", "o-1", map[string]string{"order_id": "o-1"}))

	got := make(chan string, 1)
	go b.Consume(ctx, "orders.placed", "test", func(ctx context.Context, payload []byte) error {
		var e map[string]string
		if err := json.Unmarshal(payload, &e); err != nil {
			return err
		}
		got <- e["order_id"]
		return nil
	})

	select {
	case id := <-got:
		assert.Equal(t, "o-1", id)
	case <-time.After(2 * time.Second):
		t.Fatal("event not delivered")
	}
}

func TestBroker_HandlerErrorDoesNotStopConsumer(t *testing.T) {
	b := NewBroker(slog.Default())
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	seen := make(chan int, 2)
	go b.Consume(ctx, "t", "test", func(ctx context.Context, payload []byte) error {
		var n int
		_ = json.Unmarshal(payload, &n)
		seen <- n
		if n == 1 {
			return assert.AnError
		}
		return nil
	})

	require.NoError(t, b.PublishEvent(ctx, "t", "k", 1))
	require.NoError(t, b.PublishEvent(ctx, "t", "k", 2))

	var got []int
	for len(got) < 2 {
		select {
		case n := <-seen:
			got = append(got, n)
		case <-time.After(2 * time.Second):
			t.Fatalf("delivered %v, want two messages", got)
		}
	}
	assert.ElementsMatch(t, []int{1, 2}, got)
}
