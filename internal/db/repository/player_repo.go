package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/gokatarajesh/riddle-party/internal/game"
)

const playerColumns = `id, room_id, name, avatar, role, score, created_at`

const createPlayerSQL = `INSERT INTO players (room_id, name, avatar, role, score)
VALUES ($1, $2, $3, $4, 0)
RETURNING ` + playerColumns

const getPlayerSQL = `SELECT ` + playerColumns + ` FROM players WHERE id = $1`

// Scores never go down, even if a stale client writes an older total.
const updatePlayerScoreSQL = `UPDATE players SET score = GREATEST(score, $2)
WHERE id = $1
RETURNING ` + playerColumns

const listPlayersByRoomSQL = `SELECT ` + playerColumns + ` FROM players
WHERE room_id = $1
ORDER BY score DESC, created_at ASC`

// PlayerRepository persists players.
type PlayerRepository struct {
	db DBTX
}

// NewPlayerRepository constructs a player repository.
func NewPlayerRepository(db DBTX) *PlayerRepository {
	return &PlayerRepository{db: db}
}

// Create attaches a new zero-score player to a room.
func (r *PlayerRepository) Create(ctx context.Context, params game.NewPlayer) (game.Player, error) {
	row := r.db.QueryRow(ctx, createPlayerSQL, toPgUUID(params.RoomID), params.Name, params.Avatar, string(params.Role))
	player, err := scanPlayer(row)
	if err != nil {
		if pgCode(err) == pgForeignKeyViolation {
			return game.Player{}, game.ErrRoomNotFound
		}
		return game.Player{}, fmt.Errorf("create player: %w", err)
	}
	return player, nil
}

// GetByID fetches one player.
func (r *PlayerRepository) GetByID(ctx context.Context, id uuid.UUID) (game.Player, error) {
	player, err := scanPlayer(r.db.QueryRow(ctx, getPlayerSQL, toPgUUID(id)))
	if errors.Is(err, pgx.ErrNoRows) {
		return game.Player{}, game.ErrPlayerNotFound
	}
	if err != nil {
		return game.Player{}, fmt.Errorf("get player: %w", err)
	}
	return player, nil
}

// Update applies a partial player update.
func (r *PlayerRepository) Update(ctx context.Context, id uuid.UUID, patch game.PlayerPatch) (game.Player, error) {
	if patch.Score == nil {
		return r.GetByID(ctx, id)
	}
	player, err := scanPlayer(r.db.QueryRow(ctx, updatePlayerScoreSQL, toPgUUID(id), *patch.Score))
	if errors.Is(err, pgx.ErrNoRows) {
		return game.Player{}, game.ErrPlayerNotFound
	}
	if err != nil {
		return game.Player{}, fmt.Errorf("update player score: %w", err)
	}
	return player, nil
}

// ListByRoom returns every player in the room, highest score first.
func (r *PlayerRepository) ListByRoom(ctx context.Context, roomID uuid.UUID) ([]game.Player, error) {
	rows, err := r.db.Query(ctx, listPlayersByRoomSQL, toPgUUID(roomID))
	if err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}
	defer rows.Close()

	players := make([]game.Player, 0)
	for rows.Next() {
		player, err := scanPlayer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan player: %w", err)
		}
		players = append(players, player)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}
	return players, nil
}

func scanPlayer(row pgx.Row) (game.Player, error) {
	var (
		player game.Player
		id     pgtype.UUID
		roomID pgtype.UUID
		role   string
	)
	if err := row.Scan(&id, &roomID, &player.Name, &player.Avatar, &role, &player.Score, &player.CreatedAt); err != nil {
		return game.Player{}, err
	}
	player.ID = fromPgUUID(id)
	player.RoomID = fromPgUUID(roomID)
	player.Role = game.Role(role)
	return player, nil
}
