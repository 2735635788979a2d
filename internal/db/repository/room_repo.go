package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/gokatarajesh/riddle-party/internal/game"
)

const roomColumns = `id, code, status, current_question, difficulty, riddles, game_mode, created_at, updated_at`

const createRoomSQL = `INSERT INTO rooms (code, status, current_question, difficulty, game_mode)
VALUES ($1, 'LOBBY', 0, $2, $3)
RETURNING ` + roomColumns

const getRoomByCodeSQL = `SELECT ` + roomColumns + ` FROM rooms WHERE code = $1`

const getRoomByIDSQL = `SELECT ` + roomColumns + ` FROM rooms WHERE id = $1`

// RoomRepository persists rooms.
type RoomRepository struct {
	db DBTX
}

// NewRoomRepository constructs a room repository over a pool or transaction.
func NewRoomRepository(db DBTX) *RoomRepository {
	return &RoomRepository{db: db}
}

// Create inserts a room in LOBBY at question 0. A duplicate join code yields
// game.ErrCodeTaken so the caller can pick another.
func (r *RoomRepository) Create(ctx context.Context, params game.NewRoom) (game.Room, error) {
	row := r.db.QueryRow(ctx, createRoomSQL, params.Code, string(params.Difficulty), string(params.Mode))
	room, err := scanRoom(row)
	if err != nil {
		if pgCode(err) == pgUniqueViolation {
			return game.Room{}, game.ErrCodeTaken
		}
		return game.Room{}, fmt.Errorf("create room: %w", err)
	}
	return room, nil
}

// GetByCode looks a room up by its join code.
func (r *RoomRepository) GetByCode(ctx context.Context, code string) (game.Room, error) {
	room, err := scanRoom(r.db.QueryRow(ctx, getRoomByCodeSQL, code))
	if errors.Is(err, pgx.ErrNoRows) {
		return game.Room{}, game.ErrRoomNotFound
	}
	if err != nil {
		return game.Room{}, fmt.Errorf("get room by code: %w", err)
	}
	return room, nil
}

// GetByID fetches a room by primary key.
func (r *RoomRepository) GetByID(ctx context.Context, id uuid.UUID) (game.Room, error) {
	room, err := scanRoom(r.db.QueryRow(ctx, getRoomByIDSQL, toPgUUID(id)))
	if errors.Is(err, pgx.ErrNoRows) {
		return game.Room{}, game.ErrRoomNotFound
	}
	if err != nil {
		return game.Room{}, fmt.Errorf("get room: %w", err)
	}
	return room, nil
}

// Update applies a partial update and returns the stored row. When the patch
// carries expectations the write only lands if the row still matches them;
// otherwise game.ErrStaleWrite is returned.
func (r *RoomRepository) Update(ctx context.Context, id uuid.UUID, patch game.RoomPatch) (game.Room, error) {
	if patch.Empty() {
		return r.GetByID(ctx, id)
	}

	query, args, err := buildRoomUpdate(id, patch)
	if err != nil {
		return game.Room{}, err
	}

	room, err := scanRoom(r.db.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		if patch.ExpectQuestion != nil || patch.ExpectStatus != nil {
			return game.Room{}, game.ErrStaleWrite
		}
		return game.Room{}, game.ErrRoomNotFound
	}
	if err != nil {
		return game.Room{}, fmt.Errorf("update room: %w", err)
	}
	return room, nil
}

func buildRoomUpdate(id uuid.UUID, patch game.RoomPatch) (string, []any, error) {
	var (
		sets  = []string{"updated_at = now()"}
		where []string
		args  []any
	)
	bind := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if patch.Status != nil {
		sets = append(sets, "status = "+bind(string(*patch.Status)))
	}
	if patch.CurrentQuestion != nil {
		sets = append(sets, "current_question = "+bind(*patch.CurrentQuestion))
	}
	if patch.Riddles != nil {
		payload, err := json.Marshal(patch.Riddles)
		if err != nil {
			return "", nil, fmt.Errorf("encode riddles: %w", err)
		}
		sets = append(sets, "riddles = "+bind(payload))
	}

	where = append(where, "id = "+bind(toPgUUID(id)))
	if patch.ExpectQuestion != nil {
		where = append(where, "current_question = "+bind(*patch.ExpectQuestion))
	}
	if patch.ExpectStatus != nil {
		where = append(where, "status = "+bind(string(*patch.ExpectStatus)))
	}

	query := "UPDATE rooms SET " + strings.Join(sets, ", ") +
		" WHERE " + strings.Join(where, " AND ") +
		" RETURNING " + roomColumns
	return query, args, nil
}

func scanRoom(row pgx.Row) (game.Room, error) {
	var (
		room       game.Room
		id         pgtype.UUID
		status     string
		difficulty string
		mode       string
		riddles    []byte
	)
	if err := row.Scan(&id, &room.Code, &status, &room.CurrentQuestion, &difficulty, &riddles, &mode, &room.CreatedAt, &room.UpdatedAt); err != nil {
		return game.Room{}, err
	}
	room.ID = fromPgUUID(id)
	room.Status = game.Status(status)
	room.Difficulty = game.Difficulty(difficulty)
	room.Mode = game.Mode(mode)
	if len(riddles) > 0 && string(riddles) != "null" {
		if err := json.Unmarshal(riddles, &room.Riddles); err != nil {
			return game.Room{}, fmt.Errorf("decode riddles: %w", err)
		}
	}
	return room, nil
}
