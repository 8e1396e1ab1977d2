// Package app owns the application lifecycle: it wires the dependencies,
// starts the HTTP server, the websocket hub, and optionally the monitor
// loop, and tears everything down on shutdown.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/dexarb/internal/config"
	"github.com/alanyoungcy/dexarb/internal/domain"
	"github.com/alanyoungcy/dexarb/internal/server"
	"github.com/alanyoungcy/dexarb/internal/server/handler"
	"github.com/alanyoungcy/dexarb/internal/server/ws"
)

// App is the root application object. It owns the configuration, logger, and
// cleanup functions that run in reverse order on shutdown.
type App struct {
	cfg     *config.Config
	logger  *slog.Logger
	closers []func()
}

// New creates an App from the given configuration and logger.
func New(cfg *config.Config, logger *slog.Logger) *App {
	return &App{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "app")),
	}
}

// Run wires all dependencies and blocks until the context is cancelled or a
// fatal server error occurs.
func (a *App) Run(ctx context.Context) error {
	a.logger.InfoContext(ctx, "starting application",
		slog.String("log_level", a.cfg.LogLevel),
		slog.Int("venues", len(a.cfg.Venues)),
	)

	deps, cleanup, err := Wire(ctx, a.cfg, a.logger)
	if err != nil {
		return fmt.Errorf("app: wire dependencies: %w", err)
	}
	a.closers = append(a.closers, cleanup)

	hub := ws.NewHub(deps.Bus, deps.Monitor, a.logger)

	var venues handler.VenueChecker
	if a.cfg.Profit.StrictVenues {
		venues = deps.Calculator
	}

	handlers := server.Handlers{
		Health: handler.NewHealthHandler(map[string]handler.Pinger{
			"feed":     deps.Feed,
			"postgres": deps.PG,
			"redis":    deps.Redis,
		}, deps.Monitor, a.logger),
		Prices:     handler.NewPricesHandler(deps.Aggregator, a.logger),
		Arb:        handler.NewArbHandler(deps.Aggregator, deps.Detector, deps.History, a.logger),
		Historical: handler.NewHistoricalHandler(deps.History, a.logger),
		Trade:      handler.NewTradeHandler(deps.Simulator, venues, deps.BlobWriter, a.logger),
		Profit:     handler.NewProfitHandler(deps.Calculator, venues, a.logger),
		Monitor:    handler.NewMonitorHandler(deps.Monitor, a.logger),
	}

	srv := server.NewServer(server.Config{
		Port:        a.cfg.Server.Port,
		CORSOrigins: a.cfg.Server.CORSOrigins,
		APIKey:      a.cfg.Server.APIKey,
	}, handlers, hub, a.logger)

	if a.cfg.Monitor.Autostart {
		if err := deps.Monitor.Start(0); err != nil && err != domain.ErrAlreadyRunning {
			return fmt.Errorf("app: start monitor: %w", err)
		}
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := hub.Run(gctx); err != nil && err != context.Canceled {
			return fmt.Errorf("app: ws hub: %w", err)
		}
		return nil
	})

	g.Go(srv.Start)

	g.Go(func() error {
		<-gctx.Done()

		if deps.Monitor.Running() {
			if err := deps.Monitor.Stop(); err != nil && err != domain.ErrNotRunning {
				a.logger.Warn("app: stop monitor failed", slog.String("error", err.Error()))
			}
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// Close tears down all resources in reverse registration order. Safe to call
// multiple times.
func (a *App) Close() {
	a.logger.Info("shutting down application")
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
