package events

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// DefaultChannel is the Redis pub/sub channel shared by web and worker.
const DefaultChannel = "rentaldesk:notifications"

// Publisher accepts notifications.
type Publisher interface {
	Publish(n Notification)
}

// Relay bridges the local bus and a Redis pub/sub channel so that
// notifications raised in the worker reach pages served by the web process.
type Relay struct {
	client  *redis.Client
	channel string
	logger  *slog.Logger
}

// NewRelay constructs a relay on channel.
func NewRelay(client *redis.Client, channel string, logger *slog.Logger) *Relay {
	if channel == "" {
		channel = DefaultChannel
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Relay{client: client, channel: channel, logger: logger}
}

// Forward publishes n on the Redis channel.
func (r *Relay) Forward(ctx context.Context, n Notification) error {
	payload, err := n.Encode()
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}
	if err := r.client.Publish(ctx, r.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish notification: %w", err)
	}
	return nil
}

// Run subscribes to the channel and republishes every message on bus until
// ctx is cancelled. ready, when non-nil, is closed once the subscription is
// confirmed.
func (r *Relay) Run(ctx context.Context, bus Publisher, ready chan<- struct{}) error {
	pubsub := r.client.Subscribe(ctx, r.channel)
	defer func() {
		_ = pubsub.Close()
	}()
	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", r.channel, err)
	}
	if ready != nil {
		close(ready)
	}

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			n, err := Decode([]byte(msg.Payload))
			if err != nil {
				r.logger.Warn("relay: drop malformed notification", slog.Any("error", err))
				continue
			}
			bus.Publish(n)
		}
	}
}
