package config

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// Realtime backends.
const (
	BackendRedis  = "redis"
	BackendNATS   = "nats"
	BackendMemory = "memory"
)

// App holds core runtime configuration shared across services.
type App struct {
	Name                    string        `env:"APP_NAME" envDefault:"riddle-party"`
	Env                     string        `env:"APP_ENV" envDefault:"development"`
	HTTPAddr                string        `env:"HTTP_ADDR" envDefault:"0.0.0.0:8080"`
	PublicBaseURL           string        `env:"PUBLIC_BASE_URL" envDefault:"http://localhost:8080"`
	GracefulShutdownTimeout time.Duration `env:"GRACEFUL_SHUTDOWN_SECONDS" envDefault:"20s"`
	AllowDegradedStart      bool          `env:"ALLOW_DEGRADED_START" envDefault:"false"`

	Postgres Postgres
	Redis    Redis
	Realtime Realtime
	Content  Content
	Game     Game
	CORS     CORS
}

// Postgres captures connection info for the room store.
type Postgres struct {
	Host     string `env:"PG_HOST" envDefault:""`
	Port     int    `env:"PG_PORT" envDefault:"5432"`
	User     string `env:"PG_USER" envDefault:""`
	Password string `env:"PG_PASSWORD" envDefault:""`
	Database string `env:"PG_DATABASE" envDefault:""`
	SSLMode  string `env:"PG_SSL_MODE" envDefault:"disable"`
	MaxConns int    `env:"PG_MAX_CONNS" envDefault:"10"`
}

// DSN renders a libpq-style connection string.
func (p Postgres) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode)
}

// Redis holds pub/sub + pack pool configuration.
type Redis struct {
	Addr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
	PoolSize int    `env:"REDIS_POOL_SIZE" envDefault:"20"`
}

// Realtime selects the change-notification fan-out.
type Realtime struct {
	Backend       string `env:"REALTIME_BACKEND" envDefault:"redis"`
	NATSURL       string `env:"NATS_URL" envDefault:"nats://localhost:4222"`
	ChannelPrefix string `env:"REALTIME_CHANNEL_PREFIX" envDefault:"riddle"`
	// RelayEnabled runs the Postgres LISTEN relay inside this process.
	RelayEnabled bool `env:"REALTIME_RELAY_ENABLED" envDefault:"true"`
}

// Content configures the generative content provider.
type Content struct {
	APIKey      string        `env:"API_KEY" envDefault:""`
	Model       string        `env:"CONTENT_MODEL" envDefault:"gemini-2.5-flash"`
	BaseURL     string        `env:"CONTENT_BASE_URL" envDefault:"https://generativelanguage.googleapis.com/v1beta"`
	HTTPTimeout time.Duration `env:"CONTENT_HTTP_TIMEOUT" envDefault:"20s"`
	Language    string        `env:"CONTENT_LANGUAGE" envDefault:"English"`
	RiddleCount int           `env:"CONTENT_RIDDLE_COUNT" envDefault:"5"`

	PrefetchDepth    int           `env:"CONTENT_PREFETCH_DEPTH" envDefault:"2"`
	PrefetchInterval time.Duration `env:"CONTENT_PREFETCH_INTERVAL" envDefault:"1m"`
}

// Game groups gameplay defaults.
type Game struct {
	QuestionSeconds      int           `env:"GAME_QUESTION_SECONDS" envDefault:"20"`
	BaseScore            int           `env:"GAME_BASE_SCORE" envDefault:"10"`
	TimeBonusDivisor     int           `env:"GAME_TIME_BONUS_DIVISOR" envDefault:"2"`
	GuessWhoMaxQuestions int           `env:"GAME_GUESS_WHO_MAX_QUESTIONS" envDefault:"20"`
	GuessWhoStep         int           `env:"GAME_GUESS_WHO_STEP" envDefault:"5"`
	ScoreWriteRetries    uint64        `env:"GAME_SCORE_WRITE_RETRIES" envDefault:"1"`
	ScoreWriteBackoff    time.Duration `env:"GAME_SCORE_WRITE_BACKOFF" envDefault:"200ms"`
	AutoAdvanceOnExpiry  bool          `env:"GAME_AUTO_ADVANCE_ON_EXPIRY" envDefault:"true"`
}

// CORS holds the allowed browser origins for the WebSocket upgrade.
type CORS struct {
	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000,http://127.0.0.1:3000"`
}

// Load parses environment variables into App config.
func Load(ctx context.Context) (*App, error) {
	cfg := &App{}
	if err := env.ParseWithOptions(cfg, env.Options{RequiredIfNoDef: true}); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// ConfigurationError lists every missing or malformed setting. The application
// cannot operate until all of them are fixed.
type ConfigurationError struct {
	Missing []string
}

func (e *ConfigurationError) Error() string {
	return "incomplete configuration: " + strings.Join(e.Missing, ", ")
}

// Validate checks that the content credential and the room store endpoint are
// usable. It returns a *ConfigurationError naming every problem at once.
func (c *App) Validate() error {
	var missing []string
	if len(c.Content.APIKey) <= 10 {
		missing = append(missing, "content provider key (API_KEY)")
	}
	if c.Postgres.Host == "" {
		missing = append(missing, "room store host (PG_HOST)")
	}
	if c.Postgres.User == "" {
		missing = append(missing, "room store user (PG_USER)")
	}
	if c.Postgres.Database == "" {
		missing = append(missing, "room store database (PG_DATABASE)")
	}
	if !strings.HasPrefix(c.Content.BaseURL, "http") {
		missing = append(missing, "content provider endpoint (CONTENT_BASE_URL)")
	}

	switch c.Realtime.Backend {
	case BackendRedis:
		if c.Redis.Addr == "" {
			missing = append(missing, "realtime endpoint (REDIS_ADDR)")
		}
	case BackendNATS:
		if !strings.HasPrefix(c.Realtime.NATSURL, "nats://") && !strings.HasPrefix(c.Realtime.NATSURL, "tls://") {
			missing = append(missing, "realtime endpoint (NATS_URL)")
		}
	case BackendMemory:
	default:
		missing = append(missing, fmt.Sprintf("realtime backend %q (REALTIME_BACKEND)", c.Realtime.Backend))
	}

	if len(missing) > 0 {
		return &ConfigurationError{Missing: missing}
	}
	return nil
}
