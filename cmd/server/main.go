package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	"github.com/Simplici0/cleanquote/internal/cache"
	"github.com/Simplici0/cleanquote/internal/config"
	"github.com/Simplici0/cleanquote/internal/db"
	"github.com/Simplici0/cleanquote/internal/migrations"
	"github.com/Simplici0/cleanquote/internal/obs"
	"github.com/Simplici0/cleanquote/internal/pricing"
	"github.com/Simplici0/cleanquote/internal/quotes"
	"github.com/Simplici0/cleanquote/internal/rates"
	"github.com/Simplici0/cleanquote/internal/seed"
	"github.com/Simplici0/cleanquote/internal/suburbs"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := obs.NewLogger(os.Stdout, cfg.LogFormat, cfg.LogLevel)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	database, err := db.Open(ctx, db.Dialect(cfg.DBDriver), cfg.DSN())
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer database.Close()

	if cfg.IsDev() || cfg.AutoMigrate {
		if err := migrations.Up(database); err != nil {
			return fmt.Errorf("run database migrations: %w", err)
		}
		version, err := migrations.Version(database)
		if err != nil {
			return fmt.Errorf("read schema version: %w", err)
		}
		logger.Info("database migrated", slog.String("driver", cfg.DBDriver), slog.Int64("version", version))
	}

	stats, err := seed.Run(ctx, database)
	if err != nil {
		return fmt.Errorf("seed database: %w", err)
	}
	logger.Info("seed complete", slog.Int("inserts", stats.Inserts), slog.Int("updates", stats.Updates))

	dataset, err := suburbs.LoadFile(cfg.SuburbDataPath)
	if err != nil {
		logger.Warn("suburb data unavailable, regional multipliers disabled",
			slog.String("path", cfg.SuburbDataPath), slog.Any("error", err))
		dataset = suburbs.Empty()
	} else {
		logger.Info("suburb data loaded", slog.Int("suburbs", dataset.Len()))
	}
	lookup := suburbs.NewLookup(dataset)

	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient, err = cache.New(ctx, cfg.RedisAddr)
		if err != nil {
			logger.Warn("redis unavailable, suburb cache disabled", slog.Any("error", err))
			redisClient = nil
		} else {
			defer func() {
				if err := redisClient.Close(); err != nil {
					logger.Warn("redis close", slog.Any("error", err))
				}
			}()
		}
	}

	estimator, ok := pricing.EstimatorByName(cfg.PricingEstimator)
	if !ok {
		return fmt.Errorf("unknown pricing estimator %q", cfg.PricingEstimator)
	}

	srv := newServer(serverDeps{
		Logger:   logger,
		Engine:   pricing.NewEngine(estimator),
		Lookup:   lookup,
		Resolver: suburbs.NewCachedResolver(lookup, redisClient, cfg.SuburbCacheTTL, logger),
		Quotes:   quotes.NewStore(database),
		Rates:    rates.NewStore(database),
		Metrics:  obs.NewMetrics(),
	})

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv.routes(cfg),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", slog.String("addr", httpServer.Addr), slog.String("estimator", cfg.PricingEstimator))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return nil
}
