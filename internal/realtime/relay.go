package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"

	"github.com/gokatarajesh/riddle-party/internal/game"
)

// RoomLoader reads the current room row.
type RoomLoader interface {
	GetByID(ctx context.Context, id uuid.UUID) (game.Room, error)
}

// Relay LISTENs on the trigger channel and republishes each change on the bus:
// room changes as full snapshots, player changes as refetch hints.
type Relay struct {
	pool      *pgxpool.Pool
	rooms     RoomLoader
	publisher *Publisher
	channel   string
	logger    zerolog.Logger
}

// NewRelay constructs a relay. pool may be nil in tests that only call Dispatch.
func NewRelay(pool *pgxpool.Pool, rooms RoomLoader, publisher *Publisher, channel string, logger zerolog.Logger) *Relay {
	return &Relay{
		pool:      pool,
		rooms:     rooms,
		publisher: publisher,
		channel:   channel,
		logger:    logger.With().Str("component", "realtime_relay").Logger(),
	}
}

// Run blocks until ctx is cancelled, reconnecting with capped exponential
// backoff when the listening connection drops.
func (r *Relay) Run(ctx context.Context) error {
	if r.pool == nil {
		return nil
	}
	backoff := retry.WithCappedDuration(30*time.Second, retry.NewExponential(500*time.Millisecond))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := r.listen(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		r.logger.Warn().Err(err).Msg("listen connection lost, reconnecting")
		return retry.RetryableError(err)
	})
}

func (r *Relay) listen(ctx context.Context) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire listen conn: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{r.channel}.Sanitize()); err != nil {
		return fmt.Errorf("listen %s: %w", r.channel, err)
	}
	r.logger.Info().Str("channel", r.channel).Msg("relay listening")

	for {
		n, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			return fmt.Errorf("wait for notification: %w", err)
		}
		r.Dispatch(ctx, []byte(n.Payload))
	}
}

// Dispatch handles one trigger payload. Errors are logged and counted; a
// missed publish is healed by the next change to the same room.
func (r *Relay) Dispatch(ctx context.Context, payload []byte) {
	var change Change
	if err := json.Unmarshal(payload, &change); err != nil {
		relayedChanges.WithLabelValues("unknown", "decode_error").Inc()
		r.logger.Warn().Err(err).Msg("failed to decode change notification")
		return
	}

	var err error
	switch change.Table {
	case tableRooms:
		err = r.relayRoom(ctx, change)
	case tablePlayers:
		err = r.publisher.Players(ctx, PlayersEvent{RoomID: change.RoomID, PlayerID: change.ID, Op: change.Op})
	default:
		err = fmt.Errorf("unexpected table %q", change.Table)
	}

	if err != nil {
		relayedChanges.WithLabelValues(change.Table, "error").Inc()
		r.logger.Warn().Err(err).
			Str("table", change.Table).
			Str("room_id", change.RoomID.String()).
			Msg("failed to relay change")
		return
	}
	relayedChanges.WithLabelValues(change.Table, "ok").Inc()
}

func (r *Relay) relayRoom(ctx context.Context, change Change) error {
	room, err := r.rooms.GetByID(ctx, change.ID)
	if errors.Is(err, game.ErrRoomNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return r.publisher.Room(ctx, room)
}
