// API server entry point: mirrors tax case law from the search provider and
// serves the browse, statistics and sync endpoints.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/taxdesk/caselaw-intelligence/internal/application/query"
	syncapp "github.com/taxdesk/caselaw-intelligence/internal/application/sync"
	"github.com/taxdesk/caselaw-intelligence/internal/cache"
	"github.com/taxdesk/caselaw-intelligence/internal/config"
	"github.com/taxdesk/caselaw-intelligence/internal/domain/caselaw"
	"github.com/taxdesk/caselaw-intelligence/internal/infrastructure/database/postgres"
	"github.com/taxdesk/caselaw-intelligence/internal/infrastructure/database/postgres/repositories"
	redisinfra "github.com/taxdesk/caselaw-intelligence/internal/infrastructure/database/redis"
	"github.com/taxdesk/caselaw-intelligence/internal/infrastructure/messaging/kafka"
	"github.com/taxdesk/caselaw-intelligence/internal/infrastructure/monitoring/logging"
	"github.com/taxdesk/caselaw-intelligence/internal/infrastructure/monitoring/prometheus"
	"github.com/taxdesk/caselaw-intelligence/internal/infrastructure/provider/indiankanoon"
	httpserver "github.com/taxdesk/caselaw-intelligence/internal/interfaces/http"
	"github.com/taxdesk/caselaw-intelligence/internal/interfaces/http/handlers"
)

const defaultConfigPath = "configs/config.yaml"

func main() {
	configPath := flag.String("config", defaultConfigPath, "path to configuration file")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.NewLogger(cfg.Log.Logging())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	logging.SetDefault(logger)

	// Hot-reload the log level when the config file changes on disk.  Only
	// applicable when configuration came from a file.
	if _, statErr := os.Stat(*configPath); statErr == nil {
		config.Watch(*configPath, func(next *config.Config) {
			if ls, ok := logger.(logging.LevelSetter); ok {
				ls.SetLevel(next.Log.Level)
			}
			logger.Info("configuration reloaded", logging.String("log_level", next.Log.Level))
		})
	}

	if err := run(cfg, logger); err != nil {
		logger.Fatal("apiserver exited", logging.Err(err))
	}
}

// loadConfig reads the YAML file when present, otherwise falls back to pure
// environment configuration (the container deployment path).
func loadConfig(path string) (*config.Config, error) {
	if _, err := os.Stat(path); err == nil {
		return config.Load(path)
	}
	return config.LoadFromEnv()
}

func run(cfg *config.Config, logger logging.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := postgres.RunMigrations(cfg.Database, logger); err != nil {
		return err
	}
	pool, err := postgres.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return err
	}
	defer pool.Close()

	redisClient, err := redisinfra.NewClient(cfg.Redis, logger)
	if err != nil {
		return err
	}
	defer redisClient.Close()

	repo := repositories.NewCaseLawRepository(pool, logger.Named("store"))
	metrics := prometheus.New()

	resultCache := cache.New(
		cache.WithTTL(cfg.Cache.TTL),
		cache.WithLogger(logger.Named("cache")))
	resultCache.StartSweeper(ctx, cfg.Cache.SweepInterval)

	querySvc := query.NewService(repo,
		query.WithCache(resultCache),
		query.WithMetrics(metrics),
		query.WithLogger(logger.Named("query")))

	provider := indiankanoon.NewClient(cfg.Provider.Endpoint, cfg.Provider.APIToken,
		indiankanoon.WithTimeout(cfg.Provider.Timeout),
		indiankanoon.WithLogger(logger.Named("provider")))

	leases := redisinfra.NewSyncLease(redisClient.Raw(), redisClient.KeyPrefix(), cfg.Sync.LeaseTTL, logger.Named("lease"))

	orchestratorOpts := []syncapp.Option{
		syncapp.WithLogger(logger.Named("sync")),
		syncapp.WithMetrics(metrics),
		syncapp.WithCacheInvalidator(querySvc.Invalidate),
		syncapp.WithPages(cfg.Sync.Pages),
		syncapp.WithRetry(cfg.Sync.MaxRetries, cfg.Sync.RetryBackoff),
		syncapp.WithPacing(cfg.Sync.RecordDelay, cfg.Sync.PageDelay),
		syncapp.WithLeaseManager(syncapp.LeaseManagerFunc(
			func(ctx context.Context, scope string) (syncapp.Lease, error) {
				return leases.Acquire(ctx, scope)
			})),
	}

	if cfg.Kafka.Enabled {
		producer := kafka.NewProducer(cfg.Kafka, logger.Named("kafka"))
		defer producer.Close()
		orchestratorOpts = append(orchestratorOpts, syncapp.WithEventPublisher(producer))
	}

	queryTable := caselaw.NewQueryTable(cfg.Sync.CategoryQueries, cfg.Sync.DefaultQuery)
	orchestrator := syncapp.NewOrchestrator(provider, repo, queryTable, orchestratorOpts...)

	router := httpserver.NewRouter(httpserver.RouterConfig{
		CaseLawHandler: handlers.NewCaseLawHandler(querySvc),
		SyncHandler:    handlers.NewSyncHandler(orchestrator),
		HealthHandler: handlers.NewHealthHandler(map[string]handlers.HealthCheck{
			"postgres": func(ctx context.Context) error { return postgres.HealthCheck(ctx, pool) },
			"redis":    redisClient.HealthCheck,
		}),
		Mode:    cfg.Server.Mode,
		Logger:  logger.Named("http"),
		Metrics: metrics,
	})

	server := httpserver.NewServer(cfg.Server, router, logger)

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	return server.Stop(context.Background())
}
