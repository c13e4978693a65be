package cli_test

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	syncapp "github.com/taxdesk/caselaw-intelligence/internal/application/sync"
	"github.com/taxdesk/caselaw-intelligence/internal/domain/caselaw"
	"github.com/taxdesk/caselaw-intelligence/internal/infrastructure/monitoring/logging"
	"github.com/taxdesk/caselaw-intelligence/internal/interfaces/cli"
)

type fakeReader struct {
	lastFilter caselaw.QueryFilter
	result     caselaw.QueryResult
	stats      caselaw.Statistics
}

func (r *fakeReader) List(_ context.Context, f caselaw.QueryFilter, _ caselaw.Page) (*caselaw.QueryResult, error) {
	r.lastFilter = f
	result := r.result
	return &result, nil
}

func (r *fakeReader) Statistics(context.Context, string) (*caselaw.Statistics, error) {
	stats := r.stats
	return &stats, nil
}

type fakeRunner struct {
	lastTarget syncapp.Target
	result     *syncapp.Result
	calls      int
}

func (r *fakeRunner) Run(_ context.Context, target syncapp.Target) (*syncapp.Result, error) {
	r.calls++
	r.lastTarget = target
	return r.result, nil
}

type fixture struct {
	reader   *fakeReader
	runner   *fakeRunner
	cleanups int
}

func (f *fixture) factory(context.Context, string) (*cli.Dependencies, func(), error) {
	return &cli.Dependencies{
		Logger: logging.NewNopLogger(),
		Reader: f.reader,
		Runner: f.runner,
	}, func() { f.cleanups++ }, nil
}

func newFixture() *fixture {
	return &fixture{
		reader: &fakeReader{
			result: caselaw.QueryResult{
				Records: []caselaw.CaseSummary{{TID: 7, Title: "PCIT v. Example Traders", Category: caselaw.CategoryGST}},
				Total:   1,
			},
			stats: caselaw.Statistics{
				CategoryCounts: []caselaw.CategoryCount{{Category: caselaw.CategoryITAT, Count: 4}},
				Total:          4,
			},
		},
		runner: &fakeRunner{result: &syncapp.Result{NewSummaries: 2, TotalProcessed: 2}},
	}
}

func execute(t *testing.T, f *fixture, args ...string) (string, error) {
	t.Helper()
	root := cli.NewRootCommand(f.factory)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestSyncCommand(t *testing.T) {
	f := newFixture()

	out, err := execute(t, f, "sync", "--category", "gst")

	require.NoError(t, err)
	assert.Equal(t, caselaw.CategoryGST, f.runner.lastTarget.Category)
	assert.Contains(t, out, "processed=2")
	assert.Equal(t, 1, f.cleanups, "connections closed after the run")
}

func TestSyncCommand_SectionTarget(t *testing.T) {
	f := newFixture()

	_, err := execute(t, f, "sync", "--section", "SECTION_148_IT")

	require.NoError(t, err)
	assert.Equal(t, caselaw.Section148IT, f.runner.lastTarget.TaxSection)
}

func TestSyncCommand_RejectsUnknownCategory(t *testing.T) {
	f := newFixture()

	_, err := execute(t, f, "sync", "--category", "MARITIME")

	require.Error(t, err)
	assert.Zero(t, f.runner.calls, "no run for an invalid target")
}

func TestSyncCommand_CategoryAndSectionExclusive(t *testing.T) {
	f := newFixture()

	_, err := execute(t, f, "sync", "--category", "GST", "--section", "SECTION_7_GST")

	require.Error(t, err)
}

func TestSearchCommand_TableOutput(t *testing.T) {
	f := newFixture()

	out, err := execute(t, f, "search", "--category", "gst", "--year", "2024", "-q", "input tax credit")

	require.NoError(t, err)
	assert.Equal(t, caselaw.CategoryGST, f.reader.lastFilter.Category)
	assert.Equal(t, "2024", f.reader.lastFilter.Year)
	assert.Equal(t, "input tax credit", f.reader.lastFilter.SearchText)
	assert.Contains(t, out, "PCIT v. Example Traders")
	assert.Contains(t, out, "1 of 1 matching cases")
}

func TestSearchCommand_JSONOutput(t *testing.T) {
	f := newFixture()

	out, err := execute(t, f, "search", "-o", "json")

	require.NoError(t, err)
	var result caselaw.QueryResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	require.Len(t, result.Records, 1)
	assert.EqualValues(t, 7, result.Records[0].TID)
}

func TestStatsCommand(t *testing.T) {
	f := newFixture()

	out, err := execute(t, f, "stats")

	require.NoError(t, err)
	assert.Contains(t, out, "ITAT")
	assert.Contains(t, out, "4")
}

func TestStatsCommand_JSONOutput(t *testing.T) {
	f := newFixture()

	out, err := execute(t, f, "stats", "-o", "json")

	require.NoError(t, err)
	var stats caselaw.Statistics
	require.NoError(t, json.Unmarshal([]byte(out), &stats))
	assert.EqualValues(t, 4, stats.Total)
}
