// CLI entry point.  Builds the application services against the configured
// store and provider, then dispatches to the cobra command tree.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/taxdesk/caselaw-intelligence/internal/application/query"
	syncapp "github.com/taxdesk/caselaw-intelligence/internal/application/sync"
	"github.com/taxdesk/caselaw-intelligence/internal/config"
	"github.com/taxdesk/caselaw-intelligence/internal/domain/caselaw"
	"github.com/taxdesk/caselaw-intelligence/internal/infrastructure/database/postgres"
	"github.com/taxdesk/caselaw-intelligence/internal/infrastructure/database/postgres/repositories"
	redisinfra "github.com/taxdesk/caselaw-intelligence/internal/infrastructure/database/redis"
	"github.com/taxdesk/caselaw-intelligence/internal/infrastructure/monitoring/logging"
	"github.com/taxdesk/caselaw-intelligence/internal/infrastructure/provider/indiankanoon"
	"github.com/taxdesk/caselaw-intelligence/internal/interfaces/cli"
)

const defaultConfigPath = "configs/config.yaml"

func main() {
	root := cli.NewRootCommand(buildDependencies)
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

// buildDependencies wires the services a command needs.  The CLI talks to the
// store directly, so it shares the sync lease with the API server and worker.
func buildDependencies(ctx context.Context, configPath string) (*cli.Dependencies, func(), error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, nil, err
	}

	logCfg := cfg.Log.Logging()
	logCfg.Format = "console"
	logCfg.OutputPaths = []string{"stderr"}
	logger, err := logging.NewLogger(logCfg)
	if err != nil {
		return nil, nil, err
	}

	pool, err := postgres.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return nil, nil, err
	}

	redisClient, err := redisinfra.NewClient(cfg.Redis, logger)
	if err != nil {
		pool.Close()
		return nil, nil, err
	}

	repo := repositories.NewCaseLawRepository(pool, logger)
	querySvc := query.NewService(repo, query.WithLogger(logger))

	provider := indiankanoon.NewClient(cfg.Provider.Endpoint, cfg.Provider.APIToken,
		indiankanoon.WithTimeout(cfg.Provider.Timeout),
		indiankanoon.WithLogger(logger))

	leases := redisinfra.NewSyncLease(redisClient.Raw(), redisClient.KeyPrefix(), cfg.Sync.LeaseTTL, logger)

	orchestrator := syncapp.NewOrchestrator(provider, repo,
		caselaw.NewQueryTable(cfg.Sync.CategoryQueries, cfg.Sync.DefaultQuery),
		syncapp.WithLogger(logger),
		syncapp.WithPages(cfg.Sync.Pages),
		syncapp.WithRetry(cfg.Sync.MaxRetries, cfg.Sync.RetryBackoff),
		syncapp.WithPacing(cfg.Sync.RecordDelay, cfg.Sync.PageDelay),
		syncapp.WithLeaseManager(syncapp.LeaseManagerFunc(
			func(ctx context.Context, scope string) (syncapp.Lease, error) {
				return leases.Acquire(ctx, scope)
			})))

	cleanup := func() {
		redisClient.Close()
		pool.Close()
	}

	return &cli.Dependencies{
		Logger: logger,
		Reader: querySvc,
		Runner: orchestrator,
	}, cleanup, nil
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}
	if _, err := os.Stat(defaultConfigPath); err == nil {
		return config.Load(defaultConfigPath)
	}
	return config.LoadFromEnv()
}
