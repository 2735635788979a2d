// Package gemini implements content.Provider against the Gemini
// generateContent REST endpoint.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/gokatarajesh/riddle-party/internal/content"
	"github.com/gokatarajesh/riddle-party/internal/game"
)

// Config holds connection details for the model endpoint.
type Config struct {
	APIKey       string
	Model        string
	BaseURL      string
	Timeout      time.Duration
	Language     string
	RiddleCount  int
	MaxQuestions int
}

// Client implements content.Provider.
type Client struct {
	httpClient *http.Client
	config     Config
	logger     zerolog.Logger
}

var _ content.Provider = (*Client)(nil)

func NewClient(cfg Config, logger zerolog.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-2.5-flash"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	if cfg.Language == "" {
		cfg.Language = "English"
	}
	if cfg.RiddleCount <= 0 {
		cfg.RiddleCount = 5
	}
	if cfg.MaxQuestions <= 0 {
		cfg.MaxQuestions = 20
	}
	cfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	cfg.Model = strings.TrimPrefix(cfg.Model, "models/")

	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		config:     cfg,
		logger:     logger.With().Str("component", "gemini_client").Logger(),
	}
}

// GenerateRiddles asks for a JSON array of riddles constrained by a response schema.
func (c *Client) GenerateRiddles(ctx context.Context, difficulty game.Difficulty) ([]game.Riddle, error) {
	req := generateRequest{
		Contents: []turn{userTurn(riddlePrompt(c.config.RiddleCount, difficulty, c.config.Language))},
		GenerationConfig: &generationConfig{
			Temperature:      0.9,
			ResponseMimeType: "application/json",
			ResponseSchema:   riddleSchema,
		},
	}
	text, err := c.generate(ctx, req)
	if err != nil {
		return nil, &content.ProviderError{Op: "riddles", Err: err}
	}

	var riddles []game.Riddle
	if err := json.Unmarshal([]byte(cleanJSON(text)), &riddles); err != nil {
		return nil, &content.ProviderError{Op: "riddles", Err: fmt.Errorf("parse riddles: %w", err)}
	}
	if len(riddles) != c.config.RiddleCount {
		return nil, &content.ProviderError{Op: "riddles", Err: fmt.Errorf("got %d riddles, want %d", len(riddles), c.config.RiddleCount)}
	}
	if err := content.ValidateRiddles(riddles); err != nil {
		return nil, &content.ProviderError{Op: "riddles", Err: err}
	}
	return riddles, nil
}

// GenerateHint asks for a short clue that does not give the answer away.
func (c *Client) GenerateHint(ctx context.Context, question, answer string) (string, error) {
	req := generateRequest{
		Contents: []turn{userTurn(hintPrompt(question, answer, c.config.Language))},
		GenerationConfig: &generationConfig{
			Temperature:     0.7,
			MaxOutputTokens: 120,
		},
	}
	text, err := c.generate(ctx, req)
	if err != nil {
		return "", &content.ProviderError{Op: "hint", Err: err}
	}
	return strings.TrimSpace(text), nil
}

// StartGuessWho opens a conversation. No request is made until the first Send.
func (c *Client) StartGuessWho(_ context.Context) (content.ChatSession, error) {
	return &chat{
		client: c,
		system: &turn{Parts: []part{{Text: content.GuessWhoRules(c.config.MaxQuestions, c.config.Language)}}},
	}, nil
}

func (c *Client) generate(ctx context.Context, req generateRequest) (string, error) {
	if c.config.APIKey == "" {
		return "", fmt.Errorf("model api key not configured")
	}

	body, err := json.Marshal(req)
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", c.config.BaseURL, c.config.Model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", c.config.APIKey)

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("model returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var genResp generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&genResp); err != nil {
		return "", fmt.Errorf("decode model payload: %w", err)
	}
	c.logger.Debug().Dur("latency", time.Since(start)).Str("model", c.config.Model).Msg("generateContent")

	text := genResp.text()
	if text == "" {
		if genResp.PromptFeedback != nil && genResp.PromptFeedback.BlockReason != "" {
			return "", fmt.Errorf("prompt blocked: %s: %w", genResp.PromptFeedback.BlockReason, content.ErrEmptyResponse)
		}
		return "", content.ErrEmptyResponse
	}
	return text, nil
}

// cleanJSON strips markdown fences some models wrap around JSON output.
func cleanJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	return strings.TrimSpace(raw)
}
