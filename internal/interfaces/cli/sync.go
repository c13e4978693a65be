package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	syncapp "github.com/taxdesk/caselaw-intelligence/internal/application/sync"
	"github.com/taxdesk/caselaw-intelligence/internal/domain/caselaw"
)

func newSyncCmd(factory Factory, opts *RootOptions) *cobra.Command {
	var (
		category string
		section  string
	)

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Run one synchronisation pass against the search provider",
		Long:  "Fetches the configured result pages from the provider, derives categories\nand upserts summaries and details. Without flags the broad default query\nruns; --category or --section narrow the pass.",
		RunE: func(cmd *cobra.Command, args []string) error {
			var target syncapp.Target
			if category != "" {
				c, ok := caselaw.ParseCategory(category)
				if !ok {
					return fmt.Errorf("unknown category %q", category)
				}
				target.Category = c
			}
			if section != "" {
				s, ok := caselaw.ParseTaxSection(section)
				if !ok {
					return fmt.Errorf("unknown tax section %q", section)
				}
				target.TaxSection = s
			}

			return withDependencies(cmd, factory, opts, func(ctx context.Context, deps *Dependencies) error {
				result, err := deps.Runner.Run(ctx, target)
				if err != nil {
					return err
				}
				if opts.OutputFormat == "json" {
					return printJSON(cmd, result)
				}
				fmt.Fprintln(cmd.OutOrStdout(), result.String())
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "sync one category (e.g. GST, ITAT)")
	cmd.Flags().StringVar(&section, "section", "", "sync one tax section (e.g. SECTION_148_IT)")
	cmd.MarkFlagsMutuallyExclusive("category", "section")

	return cmd
}
