package realtime

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/riddle-party/internal/game"
)

// Feed turns raw bus messages into typed room and player callbacks.
type Feed struct {
	bus      Bus
	channels Channels
	logger   zerolog.Logger
}

// NewFeed wraps bus using prefix for channel names.
func NewFeed(bus Bus, prefix string, logger zerolog.Logger) *Feed {
	return &Feed{
		bus:      bus,
		channels: Channels{Prefix: prefix},
		logger:   logger.With().Str("component", "realtime_feed").Logger(),
	}
}

// SubscribeRoom calls fn with every full room snapshot published for roomID.
func (f *Feed) SubscribeRoom(ctx context.Context, roomID uuid.UUID, fn func(game.Room)) (Subscription, error) {
	sub, err := f.bus.Subscribe(ctx, f.channels.RoomState(roomID), func(payload []byte) {
		var room game.Room
		if err := json.Unmarshal(payload, &room); err != nil {
			droppedEvents.WithLabelValues("room_decode").Inc()
			f.logger.Warn().Err(err).Str("room_id", roomID.String()).Msg("failed to decode room snapshot")
			return
		}
		if room.ID != roomID {
			droppedEvents.WithLabelValues("room_mismatch").Inc()
			return
		}
		fn(room)
	})
	if err != nil {
		return nil, fmt.Errorf("subscribe room %s: %w", roomID, err)
	}
	return sub, nil
}

// SubscribePlayers calls fn whenever any player row in roomID changes.
func (f *Feed) SubscribePlayers(ctx context.Context, roomID uuid.UUID, fn func()) (Subscription, error) {
	sub, err := f.bus.Subscribe(ctx, f.channels.RoomPlayers(roomID), func(payload []byte) {
		var evt PlayersEvent
		if err := json.Unmarshal(payload, &evt); err != nil {
			droppedEvents.WithLabelValues("players_decode").Inc()
			f.logger.Warn().Err(err).Str("room_id", roomID.String()).Msg("failed to decode players event")
			return
		}
		if evt.RoomID != roomID {
			droppedEvents.WithLabelValues("players_mismatch").Inc()
			return
		}
		fn()
	})
	if err != nil {
		return nil, fmt.Errorf("subscribe players %s: %w", roomID, err)
	}
	return sub, nil
}

// Publisher writes typed events onto the bus.
type Publisher struct {
	bus      Bus
	channels Channels
}

// NewPublisher wraps bus using prefix for channel names.
func NewPublisher(bus Bus, prefix string) *Publisher {
	return &Publisher{bus: bus, channels: Channels{Prefix: prefix}}
}

// Room publishes a full room snapshot.
func (p *Publisher) Room(ctx context.Context, room game.Room) error {
	payload, err := json.Marshal(room)
	if err != nil {
		return fmt.Errorf("encode room: %w", err)
	}
	return p.bus.Publish(ctx, p.channels.RoomState(room.ID), payload)
}

// Players publishes a player-change event.
func (p *Publisher) Players(ctx context.Context, evt PlayersEvent) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("encode players event: %w", err)
	}
	return p.bus.Publish(ctx, p.channels.RoomPlayers(evt.RoomID), payload)
}
