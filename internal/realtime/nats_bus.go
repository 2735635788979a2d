package realtime

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// NATSBus delivers messages over core NATS subjects.
type NATSBus struct {
	conn   *nats.Conn
	logger zerolog.Logger
}

// DialNATS connects to url with reconnect settings suited to a long-lived gateway.
func DialNATS(url, name string, logger zerolog.Logger) (*NATSBus, error) {
	logger = logger.With().Str("component", "nats_bus").Logger()
	opts := []nats.Option{
		nats.Name(name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
		nats.ReconnectBufSize(5 * 1024 * 1024),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn().Err(err).Msg("nats disconnected")
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info().Str("url", nc.ConnectedUrl()).Msg("nats reconnected")
		}),
	}
	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return &NATSBus{conn: nc, logger: logger}, nil
}

// Publish sends payload on subject channel.
func (b *NATSBus) Publish(_ context.Context, channel string, payload []byte) error {
	if b.conn.IsClosed() {
		return ErrClosed
	}
	if err := b.conn.Publish(channel, payload); err != nil {
		return fmt.Errorf("nats publish %s: %w", channel, err)
	}
	return nil
}

// Subscribe registers an async subscription; NATS delivers messages for one
// subscription sequentially.
func (b *NATSBus) Subscribe(_ context.Context, channel string, handler Handler) (Subscription, error) {
	sub, err := b.conn.Subscribe(channel, func(msg *nats.Msg) {
		handler(msg.Data)
	})
	if err != nil {
		return nil, fmt.Errorf("nats subscribe %s: %w", channel, err)
	}
	return subscriptionFunc(func() error {
		if !sub.IsValid() {
			return nil
		}
		return sub.Unsubscribe()
	}), nil
}

// Close drains pending messages and closes the connection.
func (b *NATSBus) Close() error {
	return b.conn.Drain()
}
