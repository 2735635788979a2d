package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gokatarajesh/riddle-party/internal/config"
	httperrors "github.com/gokatarajesh/riddle-party/pkg/http/errors"
)

func get(t *testing.T, srv *http.Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealthzOK(t *testing.T) {
	srv := NewHTTPServer(&config.App{HTTPAddr: ":0"}, zerolog.Nop(), Routes{})
	rec := get(t, srv, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestDegradedModeBlocksFeatures(t *testing.T) {
	called := false
	srv := NewHTTPServer(&config.App{}, zerolog.Nop(), Routes{
		Missing:   []string{"content provider key (API_KEY)"},
		WebSocket: func(http.ResponseWriter, *http.Request) { called = true },
	})

	for _, path := range []string{"/healthz", "/ws", "/v1/rooms/ABC123"} {
		rec := get(t, srv, path)
		require.Equal(t, http.StatusServiceUnavailable, rec.Code, path)

		var body httperrors.ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, httperrors.ErrCodeConfigurationMissing, body.Error)
		assert.Equal(t, []any{"content provider key (API_KEY)"}, body.Details["missing"])
	}
	assert.False(t, called)
}

func TestPing(t *testing.T) {
	ok := NewHTTPServer(&config.App{}, zerolog.Nop(), Routes{Ping: func(context.Context) error { return nil }})
	assert.Equal(t, http.StatusOK, get(t, ok, "/v1/ping").Code)

	failing := NewHTTPServer(&config.App{}, zerolog.Nop(), Routes{Ping: func(context.Context) error { return errors.New("down") }})
	assert.Equal(t, http.StatusBadGateway, get(t, failing, "/v1/ping").Code)

	missing := NewHTTPServer(&config.App{}, zerolog.Nop(), Routes{})
	assert.Equal(t, http.StatusServiceUnavailable, get(t, missing, "/v1/ping").Code)
	assert.Equal(t, http.StatusServiceUnavailable, get(t, missing, "/ws").Code)
}

func TestRoomsRouteMounted(t *testing.T) {
	srv := NewHTTPServer(&config.App{}, zerolog.Nop(), Routes{
		Rooms: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTeapot)
		}),
	})
	assert.Equal(t, http.StatusTeapot, get(t, srv, "/v1/rooms/ABC123/qr").Code)
}
