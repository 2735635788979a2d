// Package realtime fans row-change notifications out to every session that is
// watching a room. Postgres triggers feed a Relay, the Relay publishes on a Bus
// and each Session Client listens through a Feed.
package realtime

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrClosed is returned when publishing on a bus that has been shut down.
var ErrClosed = errors.New("realtime bus closed")

// Handler receives one raw message. Handlers run on the bus delivery goroutine
// and must not block for long.
type Handler func(payload []byte)

// Subscription is a disposable handle returned by Subscribe.
type Subscription interface {
	Close() error
}

// Bus is a topic-based publish/subscribe transport.
type Bus interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string, handler Handler) (Subscription, error)
	Close() error
}

// Channels builds channel names under a shared prefix. Dots keep the names
// valid NATS subjects as well as Redis channels.
type Channels struct {
	Prefix string
}

// RoomState carries full room snapshots.
func (c Channels) RoomState(roomID uuid.UUID) string {
	return fmt.Sprintf("%s.room.%s.state", c.prefix(), roomID)
}

// RoomPlayers carries "something changed" player events.
func (c Channels) RoomPlayers(roomID uuid.UUID) string {
	return fmt.Sprintf("%s.room.%s.players", c.prefix(), roomID)
}

func (c Channels) prefix() string {
	if c.Prefix == "" {
		return "riddle"
	}
	return c.Prefix
}

type subscriptionFunc func() error

func (f subscriptionFunc) Close() error { return f() }
