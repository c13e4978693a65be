// Package postgres manages the PostgreSQL connection pool and schema
// migrations for the case-law store.
package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taxdesk/caselaw-intelligence/internal/config"
	"github.com/taxdesk/caselaw-intelligence/internal/infrastructure/monitoring/logging"
	appErrors "github.com/taxdesk/caselaw-intelligence/pkg/errors"
)

// connectTimeout bounds the initial pool construction and health check.
const connectTimeout = 10 * time.Second

// NewPool builds a pgx connection pool from the database configuration and
// verifies connectivity with a ping before returning.
func NewPool(ctx context.Context, cfg config.DatabaseConfig, logger logging.Logger) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.CodeDBConnectionError, "invalid database configuration")
	}

	poolCfg.MaxConns = int32(cfg.MaxConns)
	poolCfg.MinConns = int32(cfg.MinConns)
	if cfg.ConnMaxLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.ConnMaxLifetime
	}
	if cfg.ConnMaxIdleTime > 0 {
		poolCfg.MaxConnIdleTime = cfg.ConnMaxIdleTime
	}

	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.CodeDBConnectionError, "failed to create connection pool")
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, appErrors.Wrap(err, appErrors.CodeDBConnectionError, "database ping failed")
	}

	logger.Info("connected to postgres",
		logging.String("host", cfg.Host),
		logging.Int("port", cfg.Port),
		logging.String("database", cfg.DBName),
		logging.Int("max_conns", cfg.MaxConns))

	return pool, nil
}

// HealthCheck pings the pool with a short deadline.  Used by the readiness
// endpoint.
func HealthCheck(ctx context.Context, pool *pgxpool.Pool) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		return appErrors.Wrap(err, appErrors.CodeDBConnectionError, "database health check failed")
	}
	return nil
}
