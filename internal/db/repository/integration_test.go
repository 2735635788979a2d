//go:build integration

package repository

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gokatarajesh/riddle-party/internal/db/migrations"
	"github.com/gokatarajesh/riddle-party/internal/game"
)

func setupPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()
	goose.SetBaseFS(migrations.FS)
	require.NoError(t, goose.SetDialect("postgres"))
	require.NoError(t, goose.Up(db, "."))

	_, err = pool.Exec(ctx, "TRUNCATE players, rooms")
	require.NoError(t, err)
	return pool
}

func TestIntegration_CreateJoinAndRank(t *testing.T) {
	pool := setupPool(t)
	ctx := context.Background()
	rooms := NewRoomRepository(pool)
	players := NewPlayerRepository(pool)

	room, err := rooms.Create(ctx, game.NewRoom{Code: "INTEG1", Difficulty: game.DifficultyMedium, Mode: game.ModeRiddles})
	require.NoError(t, err)
	assert.Equal(t, game.StatusLobby, room.Status)

	_, err = rooms.Create(ctx, game.NewRoom{Code: "INTEG1", Difficulty: game.DifficultyEasy, Mode: game.ModeRiddles})
	assert.ErrorIs(t, err, game.ErrCodeTaken)

	host, err := players.Create(ctx, game.NewPlayer{RoomID: room.ID, Name: "Host", Avatar: game.HostAvatar, Role: game.RoleHost})
	require.NoError(t, err)
	guest, err := players.Create(ctx, game.NewPlayer{RoomID: room.ID, Name: "Player 07", Avatar: "🐸", Role: game.RoleGuest})
	require.NoError(t, err)

	_, err = players.Update(ctx, guest.ID, game.PlayerPatch{Score: game.Ptr(15)})
	require.NoError(t, err)
	lowered, err := players.Update(ctx, guest.ID, game.PlayerPatch{Score: game.Ptr(5)})
	require.NoError(t, err)
	assert.Equal(t, 15, lowered.Score)

	ranked, err := players.ListByRoom(ctx, room.ID)
	require.NoError(t, err)
	require.Len(t, ranked, 2)
	assert.Equal(t, guest.ID, ranked[0].ID)
	assert.Equal(t, host.ID, ranked[1].ID)
}

func TestIntegration_ConditionalAdvance(t *testing.T) {
	pool := setupPool(t)
	ctx := context.Background()
	rooms := NewRoomRepository(pool)

	room, err := rooms.Create(ctx, game.NewRoom{Code: "INTEG2", Difficulty: game.DifficultyHard, Mode: game.ModeRiddles})
	require.NoError(t, err)

	riddles := make([]game.Riddle, 3)
	for i := range riddles {
		riddles[i] = game.Riddle{Question: "q", Options: []string{"a", "b", "c", "d"}, CorrectIndex: i}
	}
	started, err := rooms.Update(ctx, room.ID, game.RoomPatch{Status: game.Ptr(game.StatusPlaying), Riddles: riddles, CurrentQuestion: game.Ptr(0)})
	require.NoError(t, err)
	assert.Equal(t, riddles, started.Riddles)

	advanced, err := rooms.Update(ctx, room.ID, game.RoomPatch{CurrentQuestion: game.Ptr(1), ExpectQuestion: game.Ptr(0)})
	require.NoError(t, err)
	assert.Equal(t, 1, advanced.CurrentQuestion)

	_, err = rooms.Update(ctx, room.ID, game.RoomPatch{CurrentQuestion: game.Ptr(1), ExpectQuestion: game.Ptr(0)})
	assert.ErrorIs(t, err, game.ErrStaleWrite)
}
