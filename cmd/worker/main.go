// Scheduler worker entry point: fires category sync runs on the configured
// weekly UTC schedule.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	syncapp "github.com/taxdesk/caselaw-intelligence/internal/application/sync"
	"github.com/taxdesk/caselaw-intelligence/internal/config"
	"github.com/taxdesk/caselaw-intelligence/internal/domain/caselaw"
	"github.com/taxdesk/caselaw-intelligence/internal/infrastructure/database/postgres"
	"github.com/taxdesk/caselaw-intelligence/internal/infrastructure/database/postgres/repositories"
	redisinfra "github.com/taxdesk/caselaw-intelligence/internal/infrastructure/database/redis"
	"github.com/taxdesk/caselaw-intelligence/internal/infrastructure/messaging/kafka"
	"github.com/taxdesk/caselaw-intelligence/internal/infrastructure/monitoring/logging"
	"github.com/taxdesk/caselaw-intelligence/internal/infrastructure/monitoring/prometheus"
	"github.com/taxdesk/caselaw-intelligence/internal/infrastructure/provider/indiankanoon"
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

	if err := run(cfg, logger); err != nil {
		logger.Fatal("worker exited", logging.Err(err))
	}
}

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

	provider := indiankanoon.NewClient(cfg.Provider.Endpoint, cfg.Provider.APIToken,
		indiankanoon.WithTimeout(cfg.Provider.Timeout),
		indiankanoon.WithLogger(logger.Named("provider")))

	leases := redisinfra.NewSyncLease(redisClient.Raw(), redisClient.KeyPrefix(), cfg.Sync.LeaseTTL, logger.Named("lease"))

	opts := []syncapp.Option{
		syncapp.WithLogger(logger.Named("sync")),
		syncapp.WithMetrics(metrics),
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
		opts = append(opts, syncapp.WithEventPublisher(producer))
	}

	queryTable := caselaw.NewQueryTable(cfg.Sync.CategoryQueries, cfg.Sync.DefaultQuery)
	orchestrator := syncapp.NewOrchestrator(provider, repo, queryTable, opts...)

	slots, err := syncapp.SlotsFromConfig(cfg.Worker.Schedule)
	if err != nil {
		return err
	}
	if len(slots) == 0 {
		logger.Warn("no schedule slots configured, worker will idle")
	}

	scheduler := syncapp.NewScheduler(orchestrator, slots,
		syncapp.WithSchedulerLogger(logger.Named("scheduler")))
	scheduler.Start(ctx, cfg.Worker.TickInterval)
	return nil
}
