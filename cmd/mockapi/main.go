// Command mockapi serves the shop admin API for local development.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"shop-admin/internal/app"
	"shop-admin/internal/config"
	"shop-admin/internal/database"
	"shop-admin/internal/events"
	"shop-admin/internal/repository"
	"shop-admin/internal/seed"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// A missing .env is fine; the environment still applies.
	_ = godotenv.Load()

	cfg, err := config.LoadServer()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := config.NewLogger(cfg.Logger)
	logger.Info().Msg("starting shop admin mock API")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	repos, seedNeeded, closeRepos, err := openRepositories(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeRepos()

	if seedNeeded {
		catalog, err := newSeedLoader(ctx, cfg, logger).Load(ctx, cfg.Seed.Path)
		if err != nil {
			return fmt.Errorf("failed to load seed catalog: %w", err)
		}
		if err := seed.Apply(ctx, catalog, repos, logger); err != nil {
			return err
		}
	}

	var publisher events.Publisher = events.Nop{}
	if cfg.Kafka.Enabled() {
		publisher = events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, logger)
		logger.Info().
			Strs("brokers", cfg.Kafka.Brokers).
			Str("topic", cfg.Kafka.Topic).
			Msg("publishing order status events")
	}
	defer publisher.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	handler := app.New(repos, app.Options{
		Operator:  cfg.Operator,
		Publisher: publisher,
		Registry:  reg,
		Logger:    logger,
	})

	server := &http.Server{
		Addr:         cfg.HTTP.Address(),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info().
			Str("address", cfg.HTTP.Address()).
			Bool("database", cfg.Database.Enabled).
			Msg("HTTP server started")
		serverErrors <- server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Info().
			Str("signal", sig.String()).
			Msg("shutdown signal received, starting graceful shutdown")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("failed to shutdown server gracefully")
			if closeErr := server.Close(); closeErr != nil {
				logger.Error().Err(closeErr).Msg("failed to close server")
			}
			return fmt.Errorf("server shutdown failed: %w", err)
		}

		logger.Info().Msg("server shutdown completed")
	}

	return nil
}

// openRepositories returns Postgres repositories when the database is
// enabled and in-memory ones otherwise. seedNeeded is true when the store
// holds no catalogue yet.
func openRepositories(ctx context.Context, cfg *config.ServerConfig, logger zerolog.Logger) (app.Repositories, bool, func(), error) {
	if !cfg.Database.Enabled {
		logger.Info().Msg("using in-memory store (DB_ENABLED=false)")
		return app.MemoryRepositories(repository.NewMemory()), true, func() {}, nil
	}

	pool, empty, err := database.Open(ctx, cfg.Database, logger)
	if err != nil {
		return app.Repositories{}, false, nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return postgresRepositories(pool, logger), empty, pool.Close, nil
}

func postgresRepositories(pool *pgxpool.Pool, logger zerolog.Logger) app.Repositories {
	return app.Repositories{
		Products:   repository.NewProductRepository(pool, logger),
		Categories: repository.NewCategoryRepository(pool, logger),
		Locations:  repository.NewLocationRepository(pool, logger),
		Orders:     repository.NewOrderRepository(pool, logger),
	}
}

func newSeedLoader(ctx context.Context, cfg *config.ServerConfig, logger zerolog.Logger) seed.Loader {
	if cfg.Seed.Path == "" {
		logger.Info().Msg("using built-in seed catalog")
		return seed.NewDefaultLoader()
	}

	fileLoader := seed.NewFileLoader(logger)
	var s3Loader seed.Loader
	if cfg.S3.Enabled {
		l, err := seed.NewS3Loader(ctx, cfg.S3.Bucket, cfg.S3.Region, logger)
		if err != nil {
			logger.Warn().
				Err(err).
				Msg("failed to initialise S3 loader, falling back to local file system only")
		} else {
			s3Loader = l
		}
	}
	return seed.NewFallbackLoader(s3Loader, fileLoader, cfg.S3.Prefix, cfg.S3.Enabled, logger)
}
