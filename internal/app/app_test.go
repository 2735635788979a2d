package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gokatarajesh/riddle-party/internal/config"
)

func TestSessionConfigMapsGameSettings(t *testing.T) {
	got := SessionConfig(config.Game{
		QuestionSeconds:      30,
		BaseScore:            10,
		TimeBonusDivisor:     2,
		GuessWhoMaxQuestions: 20,
		GuessWhoStep:         5,
		ScoreWriteRetries:    1,
		ScoreWriteBackoff:    200 * time.Millisecond,
		AutoAdvanceOnExpiry:  true,
	})

	assert.Equal(t, 30, got.QuestionSeconds)
	assert.Equal(t, 20, got.Scoring.GuessWhoCap)
	assert.Equal(t, 5, got.Scoring.GuessWhoStep)
	assert.Equal(t, uint64(1), got.ScoreWriteRetries)
	assert.True(t, got.AutoAdvanceOnExpiry)
}

func TestNewRejectsIncompleteConfig(t *testing.T) {
	cfg := &config.App{Name: "riddle-party", Env: "test", Realtime: config.Realtime{Backend: config.BackendMemory}}

	_, err := New(context.Background(), cfg)
	var cfgErr *config.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.NotEmpty(t, cfgErr.Missing)
}

func TestNewDegradedStartServesNotice(t *testing.T) {
	cfg := &config.App{Name: "riddle-party", Env: "test", AllowDegradedStart: true, Realtime: config.Realtime{Backend: config.BackendMemory}}

	application, err := New(context.Background(), cfg)
	require.NoError(t, err)
	assert.Nil(t, application.core)
	assert.Nil(t, application.hub)
	assert.NotNil(t, application.http)
	assert.Empty(t, application.workers)
}
