package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/alanyoungcy/dexarb/internal/arbitrage"
	s3blob "github.com/alanyoungcy/dexarb/internal/blob/s3"
	"github.com/alanyoungcy/dexarb/internal/cache/redis"
	"github.com/alanyoungcy/dexarb/internal/config"
	"github.com/alanyoungcy/dexarb/internal/domain"
	"github.com/alanyoungcy/dexarb/internal/feed"
	"github.com/alanyoungcy/dexarb/internal/notify"
	"github.com/alanyoungcy/dexarb/internal/pricing"
	"github.com/alanyoungcy/dexarb/internal/profit"
	"github.com/alanyoungcy/dexarb/internal/service"
	"github.com/alanyoungcy/dexarb/internal/simulator"
	"github.com/alanyoungcy/dexarb/internal/store/postgres"
)

// Dependencies bundles everything the server and monitor need. It is
// constructed by Wire and torn down by the returned cleanup function.
type Dependencies struct {
	Feed       *feed.Client
	Aggregator *pricing.Aggregator
	Calculator *profit.Calculator
	Detector   *arbitrage.Detector
	Simulator  *simulator.Simulator
	History    *postgres.HistoryStore
	PG         *postgres.Client
	Redis      *redis.Client
	Bus        domain.SignalBus
	BlobWriter domain.BlobWriter
	Notifier   *notify.Notifier
	Monitor    *service.MonitorService
}

// Wire constructs all concrete dependencies from the configuration and
// returns them with a cleanup function that releases resources in reverse
// order.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	// --- Ethereum feed ---
	feedClient, err := feed.Dial(ctx, cfg.Ethereum.HTTPURL, logger)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: feed: %w", err)
	}
	closers = append(closers, feedClient.Close)
	deps.Feed = feedClient

	// Pool feeds in configured venue order; that order decides comparison
	// tie-breaks.
	sources := make([]pricing.Source, 0, len(cfg.Venues))
	for _, name := range cfg.VenueNames() {
		v := cfg.Venues[name]
		sources = append(sources, feed.NewPoolFeed(feedClient, feed.PoolConfig{
			Venue:         name,
			PoolAddress:   v.PoolAddress,
			BaseDecimals:  v.BaseDecimals,
			QuoteDecimals: v.QuoteDecimals,
			BaseIsToken0:  v.BaseIsToken0,
			CallTimeout:   cfg.Ethereum.CallTimeout.Duration,
		}))
	}
	deps.Aggregator = pricing.NewAggregator(sources, logger)

	// --- Profit model, detector, simulator ---
	deps.Calculator = profit.NewCalculator(profit.Config{
		FeeRates:        cfg.FeeRates(),
		DefaultFeeRate:  cfg.Profit.DefaultFeeRate,
		DefaultSlippage: cfg.Profit.DefaultSlippage,
		GasCostPerSwap:  cfg.Profit.GasCostPerSwap,
	})
	deps.Detector = arbitrage.NewDetector(deps.Calculator, arbitrage.Config{
		MinProfitUSD: cfg.Detector.MinProfitUSD,
		MinProfitPct: cfg.Detector.MinProfitPct,
		TradeSizes:   cfg.Detector.TradeSizes,
	}, logger)
	deps.Simulator = simulator.New(deps.Calculator, logger)

	// --- PostgreSQL ---
	pgClient, err := postgres.New(ctx, postgres.ClientConfig{
		DSN:      cfg.Database.DSN,
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		Database: cfg.Database.Database,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		SSLMode:  cfg.Database.SSLMode,
		MaxConns: cfg.Database.PoolMaxConns,
		MinConns: cfg.Database.PoolMinConns,
	})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: postgres: %w", err)
	}
	closers = append(closers, pgClient.Close)
	deps.PG = pgClient

	if cfg.Database.RunMigrations {
		if err := pgClient.RunMigrations(ctx); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
		}
	}
	deps.History = postgres.NewHistoryStore(pgClient.Pool())

	// --- Redis signal bus ---
	redisClient, err := redis.New(ctx, redis.ClientConfig{
		Addr:       cfg.Redis.Addr,
		Password:   cfg.Redis.Password,
		DB:         cfg.Redis.DB,
		PoolSize:   cfg.Redis.PoolSize,
		MaxRetries: cfg.Redis.MaxRetries,
		TLSEnabled: cfg.Redis.TLSEnabled,
	})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: redis: %w", err)
	}
	closers = append(closers, func() { _ = redisClient.Close() })
	deps.Redis = redisClient
	deps.Bus = redis.NewSignalBus(redisClient)

	// --- S3 exports (optional) ---
	if cfg.S3.Bucket != "" {
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			UseSSL:         cfg.S3.UseSSL,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}
		deps.BlobWriter = s3blob.NewWriter(s3Client)
	}

	// --- Notifications (optional) ---
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(
			cfg.Notify.TelegramToken,
			cfg.Notify.TelegramChatID,
		))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	if len(senders) > 0 {
		deps.Notifier = notify.NewNotifier(senders, cfg.Notify.Cooldown.Duration, logger)
	}

	// --- Monitor loop ---
	var alerter service.Alerter
	if deps.Notifier != nil {
		alerter = deps.Notifier
	}
	deps.Monitor = service.NewMonitorService(
		deps.Aggregator,
		deps.Detector,
		deps.History,
		deps.Bus,
		alerter,
		cfg.Monitor.Interval.Duration,
		logger,
	)

	return deps, cleanup, nil
}
