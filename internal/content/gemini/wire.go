package gemini

import (
	"fmt"
	"strings"

	"github.com/gokatarajesh/riddle-party/internal/game"
)

type part struct {
	Text string `json:"text"`
}

type turn struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

func userTurn(text string) turn {
	return turn{Role: "user", Parts: []part{{Text: text}}}
}

func modelTurn(text string) turn {
	return turn{Role: "model", Parts: []part{{Text: text}}}
}

type schema struct {
	Type        string            `json:"type"`
	Description string            `json:"description,omitempty"`
	Items       *schema           `json:"items,omitempty"`
	Properties  map[string]schema `json:"properties,omitempty"`
	Required    []string          `json:"required,omitempty"`
}

type generationConfig struct {
	Temperature      float64 `json:"temperature,omitempty"`
	MaxOutputTokens  int     `json:"maxOutputTokens,omitempty"`
	ResponseMimeType string  `json:"responseMimeType,omitempty"`
	ResponseSchema   *schema `json:"responseSchema,omitempty"`
}

type generateRequest struct {
	SystemInstruction *turn             `json:"systemInstruction,omitempty"`
	Contents          []turn            `json:"contents"`
	GenerationConfig  *generationConfig `json:"generationConfig,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content      turn   `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
}

func (r generateResponse) text() string {
	if len(r.Candidates) == 0 {
		return ""
	}
	var b strings.Builder
	for _, p := range r.Candidates[0].Content.Parts {
		b.WriteString(p.Text)
	}
	return b.String()
}

var riddleSchema = &schema{
	Type: "ARRAY",
	Items: &schema{
		Type: "OBJECT",
		Properties: map[string]schema{
			"question":     {Type: "STRING", Description: "The riddle or fill-in-the-blank sentence."},
			"options":      {Type: "ARRAY", Items: &schema{Type: "STRING"}, Description: "Exactly four candidate answers."},
			"correctIndex": {Type: "INTEGER", Description: "Index of the correct option, 0 to 3."},
			"explanation":  {Type: "STRING", Description: "A short explanation of the correct answer."},
		},
		Required: []string{"question", "options", "correctIndex", "explanation"},
	},
}

func riddlePrompt(count int, difficulty game.Difficulty, language string) string {
	return fmt.Sprintf(
		"You are an expert at riddles and word puzzles. Generate %d riddles or missing-word puzzles in %s at %s difficulty. "+
			"Each must be fun and teach something, with exactly four options and one correct answer. Respond with JSON only.",
		count, language, strings.ToLower(string(difficulty)))
}

func hintPrompt(question, answer, language string) string {
	return fmt.Sprintf(
		"A player is stuck on this riddle: %q. The correct answer is %q. "+
			"Write one short hint in %s that nudges them toward it without saying the answer.",
		question, answer, language)
}
