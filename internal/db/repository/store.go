package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/gokatarajesh/riddle-party/internal/game"
)

// Store combines the room and player repositories behind the method set the
// session client consumes.
type Store struct {
	Rooms   *RoomRepository
	Players *PlayerRepository
}

// NewStore builds both repositories over db.
func NewStore(db DBTX) *Store {
	return &Store{Rooms: NewRoomRepository(db), Players: NewPlayerRepository(db)}
}

func (s *Store) CreateRoom(ctx context.Context, params game.NewRoom) (game.Room, error) {
	return s.Rooms.Create(ctx, params)
}

func (s *Store) GetRoomByCode(ctx context.Context, code string) (game.Room, error) {
	return s.Rooms.GetByCode(ctx, code)
}

func (s *Store) GetRoomByID(ctx context.Context, id uuid.UUID) (game.Room, error) {
	return s.Rooms.GetByID(ctx, id)
}

func (s *Store) UpdateRoom(ctx context.Context, id uuid.UUID, patch game.RoomPatch) (game.Room, error) {
	return s.Rooms.Update(ctx, id, patch)
}

func (s *Store) CreatePlayer(ctx context.Context, params game.NewPlayer) (game.Player, error) {
	return s.Players.Create(ctx, params)
}

func (s *Store) UpdatePlayer(ctx context.Context, id uuid.UUID, patch game.PlayerPatch) (game.Player, error) {
	return s.Players.Update(ctx, id, patch)
}

func (s *Store) ListPlayers(ctx context.Context, roomID uuid.UUID) ([]game.Player, error) {
	return s.Players.ListByRoom(ctx, roomID)
}
