package content

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/gokatarajesh/riddle-party/internal/game"
)

// Service is the Provider sessions use. It never fails closed: riddle
// generation falls back to the built-in set, hints and chat replies fall back
// to an apology.
type Service struct {
	provider Provider
	pool     PackStore
	logger   zerolog.Logger
}

var _ Provider = (*Service)(nil)

// NewService wires a provider and an optional pack pool.
func NewService(provider Provider, pool PackStore, logger zerolog.Logger) *Service {
	return &Service{
		provider: provider,
		pool:     pool,
		logger:   logger.With().Str("component", "content_service").Logger(),
	}
}

// GenerateRiddles prefers a prefetched pack, then a live call, then the
// fallback set. It only returns an error when ctx is done.
func (s *Service) GenerateRiddles(ctx context.Context, difficulty game.Difficulty) ([]game.Riddle, error) {
	if s.pool != nil {
		riddles, ok, err := s.pool.Pop(ctx, difficulty)
		switch {
		case err != nil:
			s.logger.Warn().Err(err).Str("difficulty", string(difficulty)).Msg("pack pool unavailable")
		case ok && ValidateRiddles(riddles) == nil:
			riddleSource.WithLabelValues("pool").Inc()
			return riddles, nil
		case ok:
			s.logger.Warn().Str("difficulty", string(difficulty)).Msg("discarding malformed pooled pack")
		}
	}

	if s.provider != nil {
		riddles, err := s.provider.GenerateRiddles(ctx, difficulty)
		if err == nil {
			err = ValidateRiddles(riddles)
		}
		if err == nil {
			riddleSource.WithLabelValues("provider").Inc()
			return riddles, nil
		}
		providerFailures.WithLabelValues("riddles").Inc()
		s.logger.Warn().Err(err).Str("difficulty", string(difficulty)).Msg("riddle generation failed, using fallback set")
	}

	if err := ctx.Err(); err != nil {
		return nil, &ProviderError{Op: "riddles", Err: err}
	}
	riddleSource.WithLabelValues("fallback").Inc()
	return FallbackRiddles(difficulty), nil
}

// GenerateHint returns a hint or HintApology.
func (s *Service) GenerateHint(ctx context.Context, question, answer string) (string, error) {
	if s.provider == nil {
		return HintApology, nil
	}
	hint, err := s.provider.GenerateHint(ctx, question, answer)
	if err != nil || hint == "" {
		providerFailures.WithLabelValues("hint").Inc()
		s.logger.Warn().Err(err).Msg("hint generation failed")
		return HintApology, nil
	}
	return hint, nil
}

// StartGuessWho opens a conversation. Creation failures are returned so the
// caller can end the round; reply failures inside the session become apologies.
func (s *Service) StartGuessWho(ctx context.Context) (ChatSession, error) {
	if s.provider == nil {
		return nil, &ProviderError{Op: "chat", Err: ErrEmptyResponse}
	}
	chat, err := s.provider.StartGuessWho(ctx)
	if err != nil {
		providerFailures.WithLabelValues("chat_start").Inc()
		return nil, err
	}
	return &politeChat{inner: chat, logger: s.logger}, nil
}

type politeChat struct {
	mu     sync.Mutex
	inner  ChatSession
	logger zerolog.Logger
}

func (c *politeChat) Send(ctx context.Context, text string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	reply, err := c.inner.Send(ctx, text)
	if err != nil || reply == "" {
		providerFailures.WithLabelValues("chat").Inc()
		c.logger.Warn().Err(err).Msg("guess-who reply failed")
		return ChatApology, nil
	}
	return reply, nil
}
