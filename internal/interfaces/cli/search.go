package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/taxdesk/caselaw-intelligence/internal/domain/caselaw"
)

func newSearchCmd(factory Factory, opts *RootOptions) *cobra.Command {
	var (
		category string
		year     string
		section  string
		text     string
		page     int
		limit    int
		sortBy   string
	)

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Browse and search mirrored case law",
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := caselaw.QueryFilter{Year: year, SearchText: text}
			if category != "" {
				c, ok := caselaw.ParseCategory(category)
				if !ok {
					return fmt.Errorf("unknown category %q", category)
				}
				filter.Category = c
			}
			if section != "" {
				s, ok := caselaw.ParseTaxSection(section)
				if !ok {
					return fmt.Errorf("unknown tax section %q", section)
				}
				filter.TaxSection = s
			}

			pageReq := caselaw.Page{Number: page, Limit: limit, SortBy: sortBy, SortOrder: "desc"}

			return withDependencies(cmd, factory, opts, func(ctx context.Context, deps *Dependencies) error {
				result, err := deps.Reader.List(ctx, filter, pageReq)
				if err != nil {
					return err
				}
				if opts.OutputFormat == "json" {
					return printJSON(cmd, result)
				}
				renderCaseTable(cmd, result)
				return nil
			})
		},
	}

	f := cmd.Flags()
	f.StringVar(&category, "category", "", "filter by category")
	f.StringVar(&year, "year", "", "filter by publish year")
	f.StringVar(&section, "section", "", "filter by tax section")
	f.StringVarP(&text, "query", "q", "", "free-text search over title, headline and source")
	f.IntVar(&page, "page", 1, "result page")
	f.IntVar(&limit, "limit", 20, "results per page")
	f.StringVar(&sortBy, "sort", "", "sort column (publishdate, title, numcitedby)")

	return cmd
}

func renderCaseTable(cmd *cobra.Command, result *caselaw.QueryResult) {
	if len(result.Records) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no matching cases")
		return
	}

	table := tablewriter.NewWriter(cmd.OutOrStdout())
	table.SetHeader([]string{"TID", "Category", "Published", "Cited By", "Title"})
	table.SetBorder(false)
	table.SetAutoWrapText(false)

	for _, r := range result.Records {
		table.Append([]string{
			fmt.Sprintf("%d", r.TID),
			string(r.Category),
			r.PublishDate,
			fmt.Sprintf("%d", r.NumCitedBy),
			truncate(r.Title, 70),
		})
	}
	table.Render()

	fmt.Fprintf(cmd.OutOrStdout(), "\n%d of %d matching cases\n", len(result.Records), result.Total)
}

func truncate(s string, max int) string {
	s = strings.TrimSpace(s)
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
