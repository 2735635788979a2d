package server

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/riddle-party/internal/config"
	"github.com/gokatarajesh/riddle-party/internal/logging"
	httperrors "github.com/gokatarajesh/riddle-party/pkg/http/errors"
)

// Routes holds the feature handlers mounted on the API server. Nil handlers
// answer 503.
type Routes struct {
	// Ping checks upstream dependencies for /v1/ping.
	Ping func(ctx context.Context) error
	// Missing lists configuration problems. When non-empty the server runs in
	// degraded mode and every feature route returns the list instead.
	Missing   []string
	WebSocket http.HandlerFunc
	Rooms     http.Handler
}

// NewHTTPServer wires base routes (health, metrics) and the game routes.
func NewHTTPServer(cfg *config.App, logger zerolog.Logger, routes Routes) *http.Server {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if len(routes.Missing) > 0 {
			respondMissing(w, routes.Missing)
			return
		}
		httperrors.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("/v1/ping", func(w http.ResponseWriter, r *http.Request) {
		ctx := logging.IntoContext(r.Context(), logger)
		if routes.Ping == nil {
			httperrors.RespondServiceUnavailable(w, httperrors.ErrCodeServiceUnavailable, "Dependencies not configured")
			return
		}
		if err := routes.Ping(ctx); err != nil {
			log := logging.FromContext(ctx)
			log.Error().Err(err).Msg("dependency ping failed")
			httperrors.RespondError(w, http.StatusBadGateway, httperrors.ErrCodeServiceUnavailable, "upstream error")
			return
		}
		httperrors.RespondJSON(w, http.StatusOK, map[string]bool{"pong": true})
	})

	var wsHandler http.Handler
	if routes.WebSocket != nil {
		wsHandler = routes.WebSocket
	}
	mux.Handle("/ws", feature(routes.Missing, wsHandler))
	mux.Handle("/v1/rooms/", feature(routes.Missing, routes.Rooms))

	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func feature(missing []string, h http.Handler) http.Handler {
	if len(missing) > 0 {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			respondMissing(w, missing)
		})
	}
	if h == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			httperrors.RespondServiceUnavailable(w, httperrors.ErrCodeServiceUnavailable, "Feature not available")
		})
	}
	return h
}

func respondMissing(w http.ResponseWriter, missing []string) {
	httperrors.RespondErrorWithDetails(w, http.StatusServiceUnavailable,
		httperrors.ErrCodeConfigurationMissing,
		"The game cannot start until its configuration is complete",
		map[string]any{"missing": missing})
}
