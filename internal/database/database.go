package database

import (
	"context"
	"fmt"
	"time"

	"shop-admin/internal/config"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// ApplicationName tags mock API sessions in pg_stat_activity.
const ApplicationName = "shop-admin-mockapi"

const (
	idleTimeout   = 10 * time.Minute
	healthCheck   = 30 * time.Second
	fallbackConns = 4
)

// PoolConfig translates cfg into pgx pool settings. Non-positive limits
// fall back to small development defaults.
func PoolConfig(cfg config.DatabaseConfig) (*pgxpool.Config, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	maxConns := cfg.MaxConnections
	if maxConns <= 0 {
		maxConns = fallbackConns
	}
	minConns := cfg.MinConnections
	if minConns < 0 {
		minConns = 0
	}
	if minConns > maxConns {
		minConns = maxConns
	}
	poolConfig.MaxConns = int32(maxConns)
	poolConfig.MinConns = int32(minConns)
	if cfg.MaxConnLifetime > 0 {
		poolConfig.MaxConnLifetime = time.Duration(cfg.MaxConnLifetime) * time.Second
	}
	poolConfig.MaxConnIdleTime = idleTimeout
	poolConfig.HealthCheckPeriod = healthCheck
	poolConfig.ConnConfig.RuntimeParams["application_name"] = ApplicationName
	return poolConfig, nil
}

// NewPool connects to the shop database and verifies it answers.
func NewPool(ctx context.Context, cfg config.DatabaseConfig, logger zerolog.Logger) (*pgxpool.Pool, error) {
	poolConfig, err := PoolConfig(cfg)
	if err != nil {
		return nil, err
	}

	logger.Info().
		Str("host", cfg.Host).
		Int("port", cfg.Port).
		Str("database", cfg.Database).
		Int32("max_connections", poolConfig.MaxConns).
		Msg("connecting to shop database")

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return pool, nil
}

// Open connects, applies the schema and reports whether the catalogue is
// still empty and needs seeding.
func Open(ctx context.Context, cfg config.DatabaseConfig, logger zerolog.Logger) (*pgxpool.Pool, bool, error) {
	pool, err := NewPool(ctx, cfg, logger)
	if err != nil {
		return nil, false, err
	}
	if err := EnsureSchema(ctx, pool, logger); err != nil {
		pool.Close()
		return nil, false, err
	}
	empty, err := IsEmpty(ctx, pool)
	if err != nil {
		pool.Close()
		return nil, false, err
	}
	logger.Info().Bool("seed_needed", empty).Msg("shop database ready")
	return pool, empty, nil
}
