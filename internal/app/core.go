package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/riddle-party/internal/config"
	"github.com/gokatarajesh/riddle-party/internal/content"
	"github.com/gokatarajesh/riddle-party/internal/content/gemini"
	"github.com/gokatarajesh/riddle-party/internal/db/migrations"
	"github.com/gokatarajesh/riddle-party/internal/db/repository"
	"github.com/gokatarajesh/riddle-party/internal/realtime"
	"github.com/gokatarajesh/riddle-party/internal/session"
	"github.com/gokatarajesh/riddle-party/internal/session/scoring"
)

// Core is the infrastructure every Session Client needs: the room store, the
// change feed and the content service. Both the API and the terminal client
// build one.
type Core struct {
	cfg    *config.App
	logger zerolog.Logger

	Pool    *pgxpool.Pool
	Redis   *redis.Client
	Bus     realtime.Bus
	Store   *repository.Store
	Feed    *realtime.Feed
	Model   *gemini.Client
	Packs   *content.PackPool
	Content *content.Service
}

// NewCore connects to Postgres, Redis and the selected realtime backend.
func NewCore(ctx context.Context, cfg *config.App, logger zerolog.Logger) (*Core, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.Postgres.DSN())
	if err != nil {
		return nil, fmt.Errorf("parse postgres config: %w", err)
	}
	if cfg.Postgres.MaxConns > 0 {
		poolCfg.MaxConns = int32(cfg.Postgres.MaxConns)
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})

	bus, err := newBus(cfg, redisClient, logger)
	if err != nil {
		pool.Close()
		_ = redisClient.Close()
		return nil, err
	}

	model := gemini.NewClient(gemini.Config{
		APIKey:       cfg.Content.APIKey,
		Model:        cfg.Content.Model,
		BaseURL:      cfg.Content.BaseURL,
		Timeout:      cfg.Content.HTTPTimeout,
		Language:     cfg.Content.Language,
		RiddleCount:  cfg.Content.RiddleCount,
		MaxQuestions: cfg.Game.GuessWhoMaxQuestions,
	}, logger)
	packs := content.NewPackPool(redisClient, cfg.Realtime.ChannelPrefix, 0)

	return &Core{
		cfg:     cfg,
		logger:  logger,
		Pool:    pool,
		Redis:   redisClient,
		Bus:     bus,
		Store:   repository.NewStore(pool),
		Feed:    realtime.NewFeed(bus, cfg.Realtime.ChannelPrefix, logger),
		Model:   model,
		Packs:   packs,
		Content: content.NewService(model, packs, logger),
	}, nil
}

func newBus(cfg *config.App, redisClient *redis.Client, logger zerolog.Logger) (realtime.Bus, error) {
	switch cfg.Realtime.Backend {
	case config.BackendRedis:
		return realtime.NewRedisBus(redisClient, logger), nil
	case config.BackendNATS:
		bus, err := realtime.DialNATS(cfg.Realtime.NATSURL, cfg.Name, logger)
		if err != nil {
			return nil, err
		}
		return bus, nil
	case config.BackendMemory:
		return realtime.NewMemoryBus(), nil
	default:
		return nil, fmt.Errorf("unknown realtime backend %q", cfg.Realtime.Backend)
	}
}

// NewSession builds a Session Client bound to this core.
func (c *Core) NewSession() *session.Client {
	return session.New(c.Store, c.Feed, c.Content, SessionConfig(c.cfg.Game), c.logger)
}

// NewRelay builds the Postgres to bus change relay.
func (c *Core) NewRelay() *realtime.Relay {
	publisher := realtime.NewPublisher(c.Bus, c.cfg.Realtime.ChannelPrefix)
	return realtime.NewRelay(c.Pool, c.Store.Rooms, publisher, migrations.Channel, c.logger)
}

// NewPrefetcher builds the worker that keeps the riddle pack pool topped up.
func (c *Core) NewPrefetcher() *content.Prefetcher {
	return content.NewPrefetcher(c.Model, c.Packs, c.cfg.Content.PrefetchDepth,
		c.cfg.Content.PrefetchInterval, c.cfg.Content.HTTPTimeout, c.logger)
}

// Ping checks Postgres and Redis.
func (c *Core) Ping(ctx context.Context) error {
	if err := c.Pool.Ping(ctx); err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	if err := c.Redis.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	return nil
}

// Close releases every connection.
func (c *Core) Close() error {
	var errs []error
	if err := c.Bus.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close bus: %w", err))
	}
	if err := c.Redis.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close redis: %w", err))
	}
	c.Pool.Close()
	return errors.Join(errs...)
}

// SessionConfig maps gameplay settings onto the session client.
func SessionConfig(g config.Game) session.Config {
	return session.Config{
		QuestionSeconds: g.QuestionSeconds,
		Scoring: scoring.Config{
			BaseScore:        g.BaseScore,
			TimeBonusDivisor: g.TimeBonusDivisor,
			GuessWhoStep:     g.GuessWhoStep,
			GuessWhoCap:      g.GuessWhoMaxQuestions,
		},
		ScoreWriteRetries:   g.ScoreWriteRetries,
		ScoreWriteBackoff:   g.ScoreWriteBackoff,
		AutoAdvanceOnExpiry: g.AutoAdvanceOnExpiry,
	}
}
