package realtime

import "github.com/google/uuid"

// Change is the payload the database trigger sends with pg_notify.
type Change struct {
	Table  string    `json:"table"`
	Op     string    `json:"op"`
	ID     uuid.UUID `json:"id"`
	RoomID uuid.UUID `json:"room_id"`
}

const (
	tableRooms   = "rooms"
	tablePlayers = "players"
)

// PlayersEvent tells subscribers that some player row in the room changed.
// It carries no score data; listeners refetch the full list.
type PlayersEvent struct {
	RoomID   uuid.UUID `json:"room_id"`
	PlayerID uuid.UUID `json:"player_id"`
	Op       string    `json:"op"`
}
