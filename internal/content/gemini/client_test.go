package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gokatarajesh/riddle-party/internal/content"
	"github.com/gokatarajesh/riddle-party/internal/game"
)

type recordedCall struct {
	path string
	key  string
	body generateRequest
}

func modelServer(t *testing.T, replies ...string) (*httptest.Server, *[]recordedCall) {
	t.Helper()
	var (
		mu    sync.Mutex
		calls []recordedCall
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body generateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		mu.Lock()
		idx := len(calls)
		calls = append(calls, recordedCall{path: r.URL.Path, key: r.Header.Get("x-goog-api-key"), body: body})
		mu.Unlock()

		reply := replies[min(idx, len(replies)-1)]
		resp := map[string]any{
			"candidates": []any{
				map[string]any{"content": map[string]any{"role": "model", "parts": []any{map[string]any{"text": reply}}}},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func newTestClient(url string) *Client {
	return NewClient(Config{APIKey: "test-key-123456", Model: "models/test-model", BaseURL: url + "/"}, zerolog.Nop())
}

func riddlesJSON(n int) string {
	riddles := make([]game.Riddle, n)
	for i := range riddles {
		riddles[i] = game.Riddle{Question: fmt.Sprintf("q%d", i), Options: []string{"a", "b", "c", "d"}, CorrectIndex: i % 4, Explanation: "e"}
	}
	data, _ := json.Marshal(riddles)
	return string(data)
}

func TestGenerateRiddles(t *testing.T) {
	srv, calls := modelServer(t, "```json\n"+riddlesJSON(5)+"\n```")
	client := newTestClient(srv.URL)

	riddles, err := client.GenerateRiddles(context.Background(), game.DifficultyHard)
	require.NoError(t, err)
	assert.Len(t, riddles, 5)

	require.Len(t, *calls, 1)
	call := (*calls)[0]
	assert.Equal(t, "/models/test-model:generateContent", call.path)
	assert.Equal(t, "test-key-123456", call.key)
	require.NotNil(t, call.body.GenerationConfig)
	assert.Equal(t, "application/json", call.body.GenerationConfig.ResponseMimeType)
	require.NotNil(t, call.body.GenerationConfig.ResponseSchema)
	assert.Equal(t, []string{"question", "options", "correctIndex", "explanation"}, call.body.GenerationConfig.ResponseSchema.Items.Required)
	assert.Contains(t, call.body.Contents[0].Parts[0].Text, "hard difficulty")
}

func TestGenerateRiddlesRejectsMalformedShape(t *testing.T) {
	srv, _ := modelServer(t, `[{"question":"q","options":["a","b"],"correctIndex":0,"explanation":""}]`)
	client := newTestClient(srv.URL)

	_, err := client.GenerateRiddles(context.Background(), game.DifficultyEasy)
	var provErr *content.ProviderError
	require.True(t, errors.As(err, &provErr))
	assert.Equal(t, "riddles", provErr.Op)
}

func TestGenerateRiddlesRejectsWrongCount(t *testing.T) {
	for _, n := range []int{1, 4, 6} {
		srv, _ := modelServer(t, riddlesJSON(n))
		_, err := newTestClient(srv.URL).GenerateRiddles(context.Background(), game.DifficultyMedium)

		var provErr *content.ProviderError
		require.True(t, errors.As(err, &provErr), "count %d", n)
		assert.Contains(t, provErr.Error(), "want 5")
	}
}

func TestGenerateRiddlesRejectsNonJSON(t *testing.T) {
	srv, _ := modelServer(t, "here are some riddles!")
	client := newTestClient(srv.URL)

	_, err := client.GenerateRiddles(context.Background(), game.DifficultyEasy)
	assert.Error(t, err)
}

func TestGenerateErrorsOnStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).GenerateHint(context.Background(), "q", "a")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestGenerateRequiresKey(t *testing.T) {
	client := NewClient(Config{BaseURL: "http://unused.invalid"}, zerolog.Nop())
	_, err := client.GenerateHint(context.Background(), "q", "a")
	assert.Error(t, err)
}

func TestGenerateHint(t *testing.T) {
	srv, calls := modelServer(t, "  Think about time.  ")
	hint, err := newTestClient(srv.URL).GenerateHint(context.Background(), "What grows less?", "Age")
	require.NoError(t, err)
	assert.Equal(t, "Think about time.", hint)
	assert.Contains(t, (*calls)[0].body.Contents[0].Parts[0].Text, `"Age"`)
}

func TestChatKeepsHistory(t *testing.T) {
	srv, calls := modelServer(t, "🔴 No.", "🟢 Yes! "+content.SuccessMarker)
	client := newTestClient(srv.URL)

	session, err := client.StartGuessWho(context.Background())
	require.NoError(t, err)

	first, err := session.Send(context.Background(), "Is it a real person?")
	require.NoError(t, err)
	assert.Equal(t, "🔴 No.", first)

	second, err := session.Send(context.Background(), "Is it Sherlock Holmes?")
	require.NoError(t, err)
	assert.Contains(t, second, content.SuccessMarker)

	require.Len(t, *calls, 2)
	last := (*calls)[1].body
	require.NotNil(t, last.SystemInstruction)
	assert.Contains(t, last.SystemInstruction.Parts[0].Text, content.SuccessMarker)
	require.Len(t, last.Contents, 3)
	assert.Equal(t, "user", last.Contents[0].Role)
	assert.Equal(t, "model", last.Contents[1].Role)
	assert.Equal(t, "Is it Sherlock Holmes?", last.Contents[2].Parts[0].Text)
}

func TestCleanJSON(t *testing.T) {
	assert.Equal(t, "[]", cleanJSON("```json\n[]\n```"))
	assert.Equal(t, "{}", cleanJSON("  {}  "))
}
