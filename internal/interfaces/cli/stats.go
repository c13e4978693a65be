package cli

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/taxdesk/caselaw-intelligence/internal/domain/caselaw"
)

func newStatsCmd(factory Factory, opts *RootOptions) *cobra.Command {
	var year string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show per-category case counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDependencies(cmd, factory, opts, func(ctx context.Context, deps *Dependencies) error {
				stats, err := deps.Reader.Statistics(ctx, year)
				if err != nil {
					return err
				}
				if opts.OutputFormat == "json" {
					return printJSON(cmd, stats)
				}
				renderStatsTable(cmd, stats, year)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&year, "year", "", "narrow counts to one publish year")
	return cmd
}

func renderStatsTable(cmd *cobra.Command, stats *caselaw.Statistics, year string) {
	title := "Case law by category"
	if year != "" {
		title += " (" + year + ")"
	}
	fmt.Fprintln(cmd.OutOrStdout(), color.New(color.Bold).Sprint(title))

	table := tablewriter.NewWriter(cmd.OutOrStdout())
	table.SetHeader([]string{"Category", "Cases"})
	table.SetBorder(false)

	for _, c := range stats.CategoryCounts {
		table.Append([]string{string(c.Category), fmt.Sprintf("%d", c.Count)})
	}
	table.SetFooter([]string{"TOTAL", fmt.Sprintf("%d", stats.Total)})
	table.Render()
}
