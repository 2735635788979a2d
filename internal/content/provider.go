// Package content produces riddles, hints and guess-who conversations. A
// Provider talks to the generative model; Service layers the prefetched pack
// pool, shape validation and static fallbacks on top of it.
package content

import (
	"context"
	"errors"
	"fmt"

	"github.com/gokatarajesh/riddle-party/internal/game"
)

// Provider is a generative content backend.
type Provider interface {
	GenerateRiddles(ctx context.Context, difficulty game.Difficulty) ([]game.Riddle, error)
	GenerateHint(ctx context.Context, question, answer string) (string, error)
	StartGuessWho(ctx context.Context) (ChatSession, error)
}

// ChatSession is an opaque provider-held conversation. Callers own its
// lifetime but never inspect its turns.
type ChatSession interface {
	Send(ctx context.Context, text string) (string, error)
}

// ProviderError reports a failed or malformed generation call.
type ProviderError struct {
	Op  string
	Err error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("content provider %s: %v", e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// ErrEmptyResponse is wrapped when the model returns no usable text.
var ErrEmptyResponse = errors.New("empty model response")

// ValidateRiddles checks every riddle's shape and that the set is non-empty.
func ValidateRiddles(riddles []game.Riddle) error {
	if len(riddles) == 0 {
		return errors.New("no riddles")
	}
	for i, r := range riddles {
		if err := r.Validate(); err != nil {
			return fmt.Errorf("riddle %d: %w", i, err)
		}
	}
	return nil
}
