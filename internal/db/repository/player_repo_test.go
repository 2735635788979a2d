package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/gokatarajesh/riddle-party/internal/game"
)

func playerRow(id, room byte, name, avatar, role string, score int) stubRow {
	return stubRow{values: []any{
		pgUUIDFromByte(id), pgUUIDFromByte(room), name, avatar, role, score, fixedTime,
	}}
}

func TestPlayerRepository_Create(t *testing.T) {
	db := new(mockDB)
	repo := NewPlayerRepository(db)

	db.On("QueryRow", mock.Anything, sqlContaining("INSERT INTO players"), []any{pgUUIDFromByte(1), "Host", game.HostAvatar, "HOST"}).
		Return(playerRow(9, 1, "Host", game.HostAvatar, "HOST", 0))

	player, err := repo.Create(context.Background(), game.NewPlayer{
		RoomID: uuidFromByte(1),
		Name:   "Host",
		Avatar: game.HostAvatar,
		Role:   game.RoleHost,
	})
	require.NoError(t, err)
	assert.True(t, player.IsHost())
	assert.Equal(t, uuidFromByte(1), player.RoomID)
	assert.Equal(t, 0, player.Score)
	db.AssertExpectations(t)
}

func TestPlayerRepository_CreateUnknownRoom(t *testing.T) {
	db := new(mockDB)
	repo := NewPlayerRepository(db)

	db.On("QueryRow", mock.Anything, mock.Anything, mock.Anything).
		Return(stubRow{err: &pgconn.PgError{Code: pgForeignKeyViolation}})

	_, err := repo.Create(context.Background(), game.NewPlayer{RoomID: uuidFromByte(1), Name: "x", Role: game.RoleGuest})
	assert.ErrorIs(t, err, game.ErrRoomNotFound)
}

func TestPlayerRepository_UpdateScore(t *testing.T) {
	db := new(mockDB)
	repo := NewPlayerRepository(db)

	db.On("QueryRow", mock.Anything, sqlContaining("GREATEST(score, $2)"), []any{pgUUIDFromByte(9), 15}).
		Return(playerRow(9, 1, "Ana", "🦊", "GUEST", 15))

	player, err := repo.Update(context.Background(), uuidFromByte(9), game.PlayerPatch{Score: game.Ptr(15)})
	require.NoError(t, err)
	assert.Equal(t, 15, player.Score)

	db.AssertExpectations(t)
}

func TestPlayerRepository_UpdateMissing(t *testing.T) {
	db := new(mockDB)
	repo := NewPlayerRepository(db)

	db.On("QueryRow", mock.Anything, mock.Anything, mock.Anything).Return(stubRow{err: pgx.ErrNoRows})

	_, err := repo.Update(context.Background(), uuidFromByte(9), game.PlayerPatch{Score: game.Ptr(1)})
	assert.ErrorIs(t, err, game.ErrPlayerNotFound)
}

func TestPlayerRepository_ListByRoom(t *testing.T) {
	db := new(mockDB)
	repo := NewPlayerRepository(db)

	rows := &stubRows{rows: []stubRow{
		playerRow(2, 1, "Bo", "🐼", "GUEST", 30),
		playerRow(3, 1, "Host", game.HostAvatar, "HOST", 15),
	}}
	db.On("Query", mock.Anything, sqlContaining("ORDER BY score DESC"), []any{pgUUIDFromByte(1)}).Return(rows, nil)

	players, err := repo.ListByRoom(context.Background(), uuidFromByte(1))
	require.NoError(t, err)
	require.Len(t, players, 2)
	assert.Equal(t, "Bo", players[0].Name)
	assert.Equal(t, game.RoleHost, players[1].Role)
}

func TestPlayerRepository_ListByRoomPropagatesErrors(t *testing.T) {
	db := new(mockDB)
	repo := NewPlayerRepository(db)

	boom := errors.New("connection reset")
	db.On("Query", mock.Anything, mock.Anything, mock.Anything).Return(nil, boom)

	_, err := repo.ListByRoom(context.Background(), uuidFromByte(1))
	assert.ErrorIs(t, err, boom)
}
