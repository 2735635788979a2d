package content

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/gokatarajesh/riddle-party/internal/game"
)

// Prefetcher keeps the pack pool topped up for every difficulty so that
// starting a game usually pops a ready set instead of waiting on the model.
type Prefetcher struct {
	provider Provider
	pool     PackStore
	depth    int
	interval time.Duration
	timeout  time.Duration
	logger   zerolog.Logger
}

// NewPrefetcher keeps depth packs per difficulty, checking every interval.
func NewPrefetcher(provider Provider, pool PackStore, depth int, interval, timeout time.Duration, logger zerolog.Logger) *Prefetcher {
	if depth <= 0 {
		depth = 2
	}
	if interval <= 0 {
		interval = time.Minute
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Prefetcher{
		provider: provider,
		pool:     pool,
		depth:    depth,
		interval: interval,
		timeout:  timeout,
		logger:   logger.With().Str("component", "riddle_prefetcher").Logger(),
	}
}

// Run blocks until context cancellation.
func (p *Prefetcher) Run(ctx context.Context) error {
	if p.provider == nil || p.pool == nil {
		return nil
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.Fill(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			p.Fill(ctx)
		}
	}
}

// Fill generates packs until every difficulty has depth of them or a call fails.
func (p *Prefetcher) Fill(ctx context.Context) {
	for _, difficulty := range game.Difficulties {
		for {
			if ctx.Err() != nil {
				return
			}
			n, err := p.pool.Len(ctx, difficulty)
			if err != nil {
				p.logger.Warn().Err(err).Msg("pack pool length check failed")
				return
			}
			if n >= int64(p.depth) {
				break
			}
			if !p.fetchOne(ctx, difficulty) {
				break
			}
		}
	}
}

func (p *Prefetcher) fetchOne(ctx context.Context, difficulty game.Difficulty) bool {
	callCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	riddles, err := p.provider.GenerateRiddles(callCtx, difficulty)
	if err == nil {
		err = ValidateRiddles(riddles)
	}
	if err != nil {
		providerFailures.WithLabelValues("prefetch").Inc()
		p.logger.Warn().Err(err).Str("difficulty", string(difficulty)).Msg("prefetch failed")
		return false
	}
	if err := p.pool.Push(ctx, difficulty, riddles); err != nil {
		p.logger.Warn().Err(err).Str("difficulty", string(difficulty)).Msg("failed to store prefetched pack")
		return false
	}
	prefetchedPacks.Inc()
	return true
}
