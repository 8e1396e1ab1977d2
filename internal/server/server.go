// Package server assembles the REST and WebSocket API.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/alanyoungcy/dexarb/internal/server/handler"
	"github.com/alanyoungcy/dexarb/internal/server/middleware"
	"github.com/alanyoungcy/dexarb/internal/server/ws"
)

// Config holds the HTTP server configuration.
type Config struct {
	Port        int
	CORSOrigins []string
	APIKey      string // empty disables authentication
}

// Handlers aggregates the HTTP handlers the server registers.
type Handlers struct {
	Health     *handler.HealthHandler
	Prices     *handler.PricesHandler
	Arb        *handler.ArbHandler
	Historical *handler.HistoricalHandler
	Trade      *handler.TradeHandler
	Profit     *handler.ProfitHandler
	Monitor    *handler.MonitorHandler
}

// Server is the headless HTTP + WebSocket API server.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer registers all routes and wires the middleware chain
// (auth, logging, CORS).
func NewServer(cfg Config, handlers Handlers, wsHub *ws.Hub, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	// Health check.
	mux.HandleFunc("GET /api/health", handlers.Health.HealthCheck)

	// Live prices.
	mux.HandleFunc("GET /api/prices/current", handlers.Prices.Current)
	mux.HandleFunc("GET /api/prices/comparison", handlers.Prices.Comparison)

	// Arbitrage.
	mux.HandleFunc("POST /api/arbitrage/detect", handlers.Arb.Detect)
	mux.HandleFunc("GET /api/arbitrage/recent", handlers.Arb.Recent)

	// Historical data.
	mux.HandleFunc("GET /api/historical/prices", handlers.Historical.Prices)
	mux.HandleFunc("GET /api/historical/stats", handlers.Historical.Stats)

	// Paper trading.
	mux.HandleFunc("POST /api/trade/simulate", handlers.Trade.Simulate)
	mux.HandleFunc("GET /api/trade/statistics", handlers.Trade.Statistics)
	mux.HandleFunc("GET /api/trade/history", handlers.Trade.History)
	mux.HandleFunc("POST /api/trade/export", handlers.Trade.Export)

	// Profit model.
	mux.HandleFunc("POST /api/profit/calculate", handlers.Profit.Calculate)
	mux.HandleFunc("POST /api/profit/optimal-size", handlers.Profit.OptimalSize)

	// Monitoring control.
	mux.HandleFunc("POST /api/monitor/start", handlers.Monitor.Start)
	mux.HandleFunc("POST /api/monitor/stop", handlers.Monitor.Stop)
	mux.HandleFunc("GET /api/monitor/status", handlers.Monitor.Status)

	// WebSocket push.
	if wsHub != nil {
		mux.HandleFunc("GET /ws", wsHub.HandleWS)
	}

	var h http.Handler = mux
	h = middleware.Auth(cfg.APIKey)(h)
	h = middleware.Logging(logger)(h)
	h = middleware.CORS(cfg.CORSOrigins)(h)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: srv,
		logger:     logger,
	}
}

// Start listens for HTTP requests and blocks until the server errors or is
// shut down.
func (s *Server) Start() error {
	s.logger.Info("server: starting",
		slog.String("addr", s.httpServer.Addr),
	)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: listen: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests within the context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server: shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}
