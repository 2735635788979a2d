package realtime

import (
	"context"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// RedisBus delivers messages over Redis Pub/Sub.
type RedisBus struct {
	client *redis.Client
	logger zerolog.Logger
}

// NewRedisBus wraps an existing client. The caller owns the client.
func NewRedisBus(client *redis.Client, logger zerolog.Logger) *RedisBus {
	return &RedisBus{
		client: client,
		logger: logger.With().Str("component", "redis_bus").Logger(),
	}
}

// Publish sends payload to every current subscriber of channel.
func (b *RedisBus) Publish(ctx context.Context, channel string, payload []byte) error {
	if err := b.client.Publish(ctx, channel, payload).Err(); err != nil {
		return fmt.Errorf("redis publish %s: %w", channel, err)
	}
	return nil
}

// Subscribe blocks until Redis confirms the subscription, then forwards
// messages to handler on a dedicated goroutine until the subscription is closed.
func (b *RedisBus) Subscribe(ctx context.Context, channel string, handler Handler) (Subscription, error) {
	ps := b.client.Subscribe(ctx, channel)
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("redis subscribe %s: %w", channel, err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for msg := range ps.Channel() {
			handler([]byte(msg.Payload))
		}
	}()

	var once sync.Once
	return subscriptionFunc(func() error {
		var err error
		once.Do(func() {
			err = ps.Close()
			<-done
		})
		return err
	}), nil
}

// Close is a no-op; the shared client is closed by its owner.
func (b *RedisBus) Close() error {
	return nil
}
