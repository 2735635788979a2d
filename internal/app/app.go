package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/gokatarajesh/riddle-party/internal/config"
	"github.com/gokatarajesh/riddle-party/internal/gateway"
	"github.com/gokatarajesh/riddle-party/internal/logging"
	"github.com/gokatarajesh/riddle-party/internal/server"
	ws "github.com/gokatarajesh/riddle-party/pkg/http/ws"
)

// Application aggregates shared infrastructure (DB, cache, bus, HTTP server).
type Application struct {
	cfg    *config.App
	logger zerolog.Logger

	core    *Core
	hub     *ws.Hub
	gateway *gateway.Handler
	http    *http.Server

	workers   []worker
	bgCancels []context.CancelFunc
}

type worker struct {
	name string
	run  func(ctx context.Context) error
}

// New bootstraps logger, Postgres, Redis, the realtime bus and the HTTP server.
// An incomplete configuration is fatal unless AllowDegradedStart is set, in
// which case only the blocking configuration notice is served.
func New(ctx context.Context, cfg *config.App) (*Application, error) {
	logger := logging.New(cfg.Name, cfg.Env)
	logger.Info().Msg("starting application bootstrap")

	if err := cfg.Validate(); err != nil {
		var cfgErr *config.ConfigurationError
		if errors.As(err, &cfgErr) && cfg.AllowDegradedStart {
			logger.Error().Strs("missing", cfgErr.Missing).Msg("configuration incomplete, serving notice only")
			return &Application{
				cfg:    cfg,
				logger: logger,
				http:   server.NewHTTPServer(cfg, logger, server.Routes{Missing: cfgErr.Missing}),
			}, nil
		}
		return nil, err
	}

	core, err := NewCore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	hub := ws.NewHub(logging.Component(logger, "ws_hub"))
	wsHandler := gateway.NewHandler(hub, func() gateway.Session {
		return core.NewSession()
	}, cfg.CORS.AllowedOrigins, logger)
	roomHandler := gateway.NewRoomHandler(core.Store, hub, cfg.PublicBaseURL, logger)

	apiServer := server.NewHTTPServer(cfg, logger, server.Routes{
		Ping:      core.Ping,
		WebSocket: wsHandler.HandleWebSocket,
		Rooms:     roomHandler.Routes(),
	})

	application := &Application{
		cfg:     cfg,
		logger:  logger,
		core:    core,
		hub:     hub,
		gateway: wsHandler,
		http:    apiServer,
	}
	if cfg.Realtime.RelayEnabled {
		application.workers = append(application.workers, worker{name: "change relay", run: core.NewRelay().Run})
	}
	if cfg.Content.PrefetchDepth > 0 {
		application.workers = append(application.workers, worker{name: "riddle prefetcher", run: core.NewPrefetcher().Run})
	}
	return application, nil
}

// Run starts the HTTP server and waits for termination signals.
func (a *Application) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	a.startBackgroundWorkers(ctx)

	go func() {
		a.logger.Info().Str("addr", a.cfg.HTTPAddr).Msg("http server listening")
		if err := a.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	var runErr error
	select {
	case sig := <-sigCh:
		a.logger.Info().Str("signal", sig.String()).Msg("shutdown signal received")
	case err := <-errCh:
		runErr = fmt.Errorf("http server error: %w", err)
	case <-ctx.Done():
		a.logger.Warn().Msg("context canceled")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.GracefulShutdownTimeout)
	defer cancel()

	if a.hub != nil {
		if msg, err := ws.NewMessage(ws.TypeServerShutdown, ws.ServerShutdownPayload{Reason: "server restarting"}); err == nil {
			_ = a.hub.BroadcastAll(msg)
		}
	}
	if err := a.http.Shutdown(shutdownCtx); err != nil {
		a.logger.Error().Err(err).Msg("http shutdown error")
	}
	if a.hub != nil {
		a.hub.CloseAll()
	}
	// Sessions unsubscribe through the core's bus, so it must outlive them.
	if a.gateway != nil {
		if err := a.gateway.Wait(shutdownCtx); err != nil {
			a.logger.Warn().Err(err).Msg("sessions still open at shutdown")
		}
	}

	for _, cancel := range a.bgCancels {
		cancel()
	}

	if a.core != nil {
		if err := a.core.Close(); err != nil {
			a.logger.Error().Err(err).Msg("dependency shutdown error")
		}
	}

	a.logger.Info().Msg("shutdown complete")
	return runErr
}

func (a *Application) startBackgroundWorkers(ctx context.Context) {
	for _, w := range a.workers {
		bgCtx, cancel := context.WithCancel(ctx)
		a.bgCancels = append(a.bgCancels, cancel)
		go func() {
			if err := w.run(bgCtx); err != nil && !errors.Is(err, context.Canceled) {
				a.logger.Warn().Err(err).Str("worker", w.name).Msg("background worker stopped")
			}
		}()
	}
}
