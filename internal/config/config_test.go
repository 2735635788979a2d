package config

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *App {
	return &App{
		Postgres: Postgres{Host: "db", User: "riddle", Database: "riddle"},
		Redis:    Redis{Addr: "cache:6379"},
		Realtime: Realtime{Backend: BackendRedis},
		Content: Content{
			APIKey:  "0123456789abcdef",
			BaseURL: "https://example.test/v1beta",
		},
	}
}

func TestValidateAcceptsCompleteConfig(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestValidateListsEveryMissingKey(t *testing.T) {
	cfg := validConfig()
	cfg.Content.APIKey = "short"
	cfg.Postgres.Host = ""
	cfg.Realtime.Backend = BackendNATS
	cfg.Realtime.NATSURL = "localhost:4222"

	err := cfg.Validate()
	var cfgErr *ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Len(t, cfgErr.Missing, 3)
	assert.Contains(t, err.Error(), "API_KEY")
	assert.Contains(t, err.Error(), "PG_HOST")
	assert.Contains(t, err.Error(), "NATS_URL")
}

func TestValidateRejectsUnknownBackend(t *testing.T) {
	cfg := validConfig()
	cfg.Realtime.Backend = "carrier-pigeon"
	assert.Error(t, cfg.Validate())

	cfg.Realtime.Backend = BackendMemory
	assert.NoError(t, cfg.Validate())
}

func TestLoadAppliesDefaults(t *testing.T) {
	t.Setenv("PG_HOST", "db")
	t.Setenv("GAME_QUESTION_SECONDS", "30")

	cfg, err := Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "riddle-party", cfg.Name)
	assert.Equal(t, "db", cfg.Postgres.Host)
	assert.Equal(t, 30, cfg.Game.QuestionSeconds)
	assert.Equal(t, 10, cfg.Game.BaseScore)
	assert.Equal(t, BackendRedis, cfg.Realtime.Backend)
	assert.Equal(t, "host=db port=5432 user= password= dbname= sslmode=disable", cfg.Postgres.DSN())
}
