// Package cli implements the caselaw command-line tool: manual sync runs,
// case browsing and the statistics summary, driven by the same application
// services as the HTTP API.
package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	syncapp "github.com/taxdesk/caselaw-intelligence/internal/application/sync"
	"github.com/taxdesk/caselaw-intelligence/internal/domain/caselaw"
	"github.com/taxdesk/caselaw-intelligence/internal/infrastructure/monitoring/logging"
)

// Build-time variables injected via ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// CaseReader is the read-path surface CLI commands drive.
type CaseReader interface {
	List(ctx context.Context, f caselaw.QueryFilter, p caselaw.Page) (*caselaw.QueryResult, error)
	Statistics(ctx context.Context, year string) (*caselaw.Statistics, error)
}

// SyncRunner triggers one synchronisation pass.
type SyncRunner interface {
	Run(ctx context.Context, target syncapp.Target) (*syncapp.Result, error)
}

// Dependencies aggregates the services CLI commands need.
type Dependencies struct {
	Logger logging.Logger
	Reader CaseReader
	Runner SyncRunner
}

// Factory builds the dependencies once the config path flag is known.  The
// returned cleanup closes connections; it may be nil.
type Factory func(ctx context.Context, configPath string) (*Dependencies, func(), error)

// RootOptions holds the global flags.
type RootOptions struct {
	ConfigPath   string
	OutputFormat string
}

// NewRootCommand creates the root command with all subcommands attached.
// Dependencies are built lazily per invocation so `--help` and flag errors
// never open a database connection.
func NewRootCommand(factory Factory) *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "caselaw",
		Short:         "Tax case-law mirror and search tool",
		Long:          "caselaw maintains a local mirror of Indian tax case law synced from the\nIndian Kanoon API and answers category, year and free-text queries over it.",
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&opts.ConfigPath, "config", "c", "", "config file path")
	pf.StringVarP(&opts.OutputFormat, "output", "o", "table", "output format (table, json)")

	cmd.AddCommand(
		newSyncCmd(factory, opts),
		newSearchCmd(factory, opts),
		newStatsCmd(factory, opts),
	)

	return cmd
}

// withDependencies runs fn with freshly built dependencies and tears them
// down afterwards.
func withDependencies(cmd *cobra.Command, factory Factory, opts *RootOptions, fn func(ctx context.Context, deps *Dependencies) error) error {
	deps, cleanup, err := factory(cmd.Context(), opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}
	if cleanup != nil {
		defer cleanup()
	}
	return fn(cmd.Context(), deps)
}

func printJSON(cmd *cobra.Command, data interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}
