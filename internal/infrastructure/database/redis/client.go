// Package redis provides the Redis connection used for sync-run leases.
package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taxdesk/caselaw-intelligence/internal/config"
	"github.com/taxdesk/caselaw-intelligence/internal/infrastructure/monitoring/logging"
	appErrors "github.com/taxdesk/caselaw-intelligence/pkg/errors"
)

// Client wraps a standalone go-redis client together with the configured key
// prefix.  Sentinel and cluster modes are not needed for a single lease
// keyspace.
type Client struct {
	rdb       *redis.Client
	keyPrefix string
	logger    logging.Logger
}

// NewClient connects to Redis and verifies connectivity with a ping.
func NewClient(cfg config.RedisConfig, logger logging.Logger) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, appErrors.Wrap(err, appErrors.CodeCacheError, "redis connection failed")
	}

	logger.Info("connected to redis", logging.String("addr", cfg.Addr), logging.Int("db", cfg.DB))

	return &Client{rdb: rdb, keyPrefix: cfg.KeyPrefix, logger: logger}, nil
}

// Raw exposes the underlying go-redis client.
func (c *Client) Raw() *redis.Client { return c.rdb }

// KeyPrefix returns the configured namespace prefix.
func (c *Client) KeyPrefix() string { return c.keyPrefix }

// HealthCheck pings redis with a short deadline.
func (c *Client) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := c.rdb.Ping(ctx).Err(); err != nil {
		return appErrors.Wrap(err, appErrors.CodeCacheError, "redis health check failed")
	}
	return nil
}

// Close releases the connection pool.
func (c *Client) Close() error { return c.rdb.Close() }
