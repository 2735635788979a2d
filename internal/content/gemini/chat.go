package gemini

import (
	"context"
	"strings"
	"sync"

	"github.com/gokatarajesh/riddle-party/internal/content"
)

// chat keeps the running history the REST API needs on every call.
type chat struct {
	mu      sync.Mutex
	client  *Client
	system  *turn
	history []turn
}

func (c *chat) Send(ctx context.Context, text string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	contents := append(append([]turn(nil), c.history...), userTurn(text))
	reply, err := c.client.generate(ctx, generateRequest{
		SystemInstruction: c.system,
		Contents:          contents,
		GenerationConfig:  &generationConfig{Temperature: 0.8, MaxOutputTokens: 200},
	})
	if err != nil {
		return "", &content.ProviderError{Op: "chat", Err: err}
	}

	reply = strings.TrimSpace(reply)
	c.history = append(contents, modelTurn(reply))
	return reply, nil
}
