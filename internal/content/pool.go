package content

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/gokatarajesh/riddle-party/internal/game"
)

const defaultPackTTL = 6 * time.Hour

// PackStore holds ready-made riddle sets per difficulty.
type PackStore interface {
	Pop(ctx context.Context, difficulty game.Difficulty) ([]game.Riddle, bool, error)
	Push(ctx context.Context, difficulty game.Difficulty, riddles []game.Riddle) error
	Len(ctx context.Context, difficulty game.Difficulty) (int64, error)
}

// PackPool keeps prefetched riddle sets in Redis lists so starting a game
// rarely waits on the model.
type PackPool struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

var _ PackStore = (*PackPool)(nil)

// NewPackPool builds a pool whose keys live under prefix.
func NewPackPool(client *redis.Client, prefix string, ttl time.Duration) *PackPool {
	if ttl <= 0 {
		ttl = defaultPackTTL
	}
	if prefix == "" {
		prefix = "riddle"
	}
	return &PackPool{client: client, prefix: prefix, ttl: ttl}
}

func (p *PackPool) key(difficulty game.Difficulty) string {
	return strings.Join([]string{p.prefix, "packs", strings.ToLower(string(difficulty))}, ":")
}

// Pop removes the oldest pack. ok is false when the pool is empty.
func (p *PackPool) Pop(ctx context.Context, difficulty game.Difficulty) ([]game.Riddle, bool, error) {
	data, err := p.client.LPop(ctx, p.key(difficulty)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("pop pack: %w", err)
	}
	var riddles []game.Riddle
	if err := json.Unmarshal(data, &riddles); err != nil {
		return nil, false, fmt.Errorf("decode pack: %w", err)
	}
	return riddles, true, nil
}

// Push appends a pack and refreshes the list TTL.
func (p *PackPool) Push(ctx context.Context, difficulty game.Difficulty, riddles []game.Riddle) error {
	data, err := json.Marshal(riddles)
	if err != nil {
		return err
	}
	key := p.key(difficulty)
	pipe := p.client.TxPipeline()
	pipe.RPush(ctx, key, data)
	pipe.Expire(ctx, key, p.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("push pack: %w", err)
	}
	return nil
}

// Len reports how many packs are waiting.
func (p *PackPool) Len(ctx context.Context, difficulty game.Difficulty) (int64, error) {
	return p.client.LLen(ctx, p.key(difficulty)).Result()
}
