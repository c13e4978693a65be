package sync_test

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	syncapp "github.com/taxdesk/caselaw-intelligence/internal/application/sync"
	"github.com/taxdesk/caselaw-intelligence/internal/domain/caselaw"
	"github.com/taxdesk/caselaw-intelligence/internal/infrastructure/messaging/kafka"
	"github.com/taxdesk/caselaw-intelligence/internal/infrastructure/provider/indiankanoon"
	appErrors "github.com/taxdesk/caselaw-intelligence/pkg/errors"
)

// stubProvider serves canned search pages and detail documents.
type stubProvider struct {
	pages          map[int][]indiankanoon.SearchDoc
	searchCalls    int
	searchQueries  []string
	failDetailTIDs map[int64]bool
	detailCalls    []int64
}

func (p *stubProvider) Search(_ context.Context, query string, page int, _ string) []indiankanoon.SearchDoc {
	p.searchCalls++
	p.searchQueries = append(p.searchQueries, query)
	return p.pages[page]
}

func (p *stubProvider) FetchDetail(_ context.Context, tid int64) (*indiankanoon.DocResponse, error) {
	p.detailCalls = append(p.detailCalls, tid)
	if p.failDetailTIDs[tid] {
		return nil, &indiankanoon.ProviderError{StatusCode: 500, Body: "boom"}
	}
	return &indiankanoon.DocResponse{TID: tid, Doc: "full text", NumCites: 1}, nil
}

// fakeRepo is an in-memory caselaw.Repository.
type fakeRepo struct {
	summaries       map[int64]caselaw.CaseSummary
	details         map[int64]caselaw.CaseDetail
	failSummaryTIDs map[int64]bool
	failDetailTIDs  map[int64]bool
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		summaries:       make(map[int64]caselaw.CaseSummary),
		details:         make(map[int64]caselaw.CaseDetail),
		failSummaryTIDs: make(map[int64]bool),
		failDetailTIDs:  make(map[int64]bool),
	}
}

func (r *fakeRepo) UpsertSummary(_ context.Context, s *caselaw.CaseSummary) (caselaw.UpsertOutcome, error) {
	if r.failSummaryTIDs[s.TID] {
		return 0, appErrors.New(appErrors.CodeDBQueryError, "write failed")
	}
	_, existed := r.summaries[s.TID]
	r.summaries[s.TID] = *s
	if existed {
		return caselaw.OutcomeUpdated, nil
	}
	return caselaw.OutcomeCreated, nil
}

func (r *fakeRepo) UpsertDetail(_ context.Context, d *caselaw.CaseDetail) (caselaw.UpsertOutcome, error) {
	if r.failDetailTIDs[d.TID] {
		return 0, appErrors.New(appErrors.CodeDBQueryError, "write failed")
	}
	if _, ok := r.summaries[d.TID]; !ok {
		return 0, appErrors.New(appErrors.ErrCodeCaseDetailOrphaned, "no summary")
	}
	_, existed := r.details[d.TID]
	r.details[d.TID] = *d
	if existed {
		return caselaw.OutcomeUpdated, nil
	}
	return caselaw.OutcomeCreated, nil
}

func (r *fakeRepo) GetByTID(_ context.Context, tid int64) (*caselaw.CaseSummary, error) {
	if s, ok := r.summaries[tid]; ok {
		return &s, nil
	}
	return nil, appErrors.New(appErrors.ErrCodeCaseNotFound, "not found")
}

func (r *fakeRepo) GetDetail(_ context.Context, tid int64) (*caselaw.CaseDetail, error) {
	if d, ok := r.details[tid]; ok {
		return &d, nil
	}
	return nil, appErrors.New(appErrors.ErrCodeCaseNotFound, "not found")
}

func (r *fakeRepo) Query(_ context.Context, _ caselaw.QueryFilter, _ caselaw.Page) (*caselaw.QueryResult, error) {
	return &caselaw.QueryResult{}, nil
}

func (r *fakeRepo) CountByCategory(_ context.Context, _ string) ([]caselaw.CategoryCount, error) {
	return nil, nil
}

func (r *fakeRepo) TotalCount(_ context.Context, _ string) (int64, error) {
	return int64(len(r.summaries)), nil
}

type recordedSleep struct {
	durations []time.Duration
}

func (s *recordedSleep) sleep(_ context.Context, d time.Duration) {
	s.durations = append(s.durations, d)
}

func doc(tid int64, source string) indiankanoon.SearchDoc {
	return indiankanoon.SearchDoc{TID: tid, Title: "case", DocSource: source, PublishDate: "1 April, 2024"}
}

func newOrchestrator(p syncapp.Provider, r caselaw.Repository, opts ...syncapp.Option) *syncapp.Orchestrator {
	base := []syncapp.Option{
		syncapp.WithPages([]int{1}),
		syncapp.WithSleep((&recordedSleep{}).sleep),
	}
	return syncapp.NewOrchestrator(p, r, caselaw.NewQueryTable(nil, ""), append(base, opts...)...)
}

func TestRun_DerivesCategoryWithoutTarget(t *testing.T) {
	t.Parallel()

	provider := &stubProvider{pages: map[int][]indiankanoon.SearchDoc{
		1: {doc(501, "CESTAT Mumbai")},
	}}
	repo := newFakeRepo()

	result, err := newOrchestrator(provider, repo).Run(context.Background(), syncapp.Target{})

	require.NoError(t, err)
	assert.Equal(t, 1, result.NewSummaries)
	assert.Equal(t, 1, result.NewDetails)
	assert.Equal(t, 1, result.TotalProcessed)
	assert.Zero(t, result.Errors)

	stored := repo.summaries[501]
	assert.Equal(t, caselaw.CategoryGST, stored.Category, `"cestat" belongs to the GST keyword group`)
	assert.Empty(t, stored.TaxSection)
}

func TestRun_CategoryTargetForcesCategory(t *testing.T) {
	t.Parallel()

	provider := &stubProvider{pages: map[int][]indiankanoon.SearchDoc{
		1: {doc(1, "Bombay High Court")},
	}}
	repo := newFakeRepo()

	_, err := newOrchestrator(provider, repo).Run(context.Background(),
		syncapp.Target{Category: caselaw.CategoryITAT})

	require.NoError(t, err)
	assert.Equal(t, caselaw.CategoryITAT, repo.summaries[1].Category)
	assert.Equal(t, "(ITAT OR income tax appellate tribunal)", provider.searchQueries[0])
}

func TestRun_SectionTargetSetsSectionAndParentCategory(t *testing.T) {
	t.Parallel()

	provider := &stubProvider{pages: map[int][]indiankanoon.SearchDoc{
		1: {doc(2, "Some Tribunal")},
	}}
	repo := newFakeRepo()

	_, err := newOrchestrator(provider, repo).Run(context.Background(),
		syncapp.Target{TaxSection: caselaw.Section148IT})

	require.NoError(t, err)
	stored := repo.summaries[2]
	assert.Equal(t, caselaw.CategoryIncomeTax, stored.Category)
	assert.Equal(t, caselaw.Section148IT, stored.TaxSection)
	assert.Contains(t, provider.searchQueries[0], "section 148")
}

func TestRun_InvalidTargetsRejected(t *testing.T) {
	t.Parallel()

	o := newOrchestrator(&stubProvider{}, newFakeRepo())

	_, err := o.Run(context.Background(), syncapp.Target{Category: "PATENTS"})
	assert.True(t, appErrors.IsCode(err, appErrors.ErrCodeCaseInvalidCategory))

	_, err = o.Run(context.Background(), syncapp.Target{TaxSection: "SECTION_1_VAT"})
	assert.True(t, appErrors.IsCode(err, appErrors.ErrCodeCaseInvalidCategory))
}

// A provider that always returns empty pages triggers exactly maxRetries
// search calls per page and the run still succeeds with zero records.
func TestRun_EmptyProviderRetriesThenContinues(t *testing.T) {
	t.Parallel()

	provider := &stubProvider{pages: map[int][]indiankanoon.SearchDoc{}}
	repo := newFakeRepo()
	sleeps := &recordedSleep{}

	o := syncapp.NewOrchestrator(provider, repo, caselaw.NewQueryTable(nil, ""),
		syncapp.WithPages([]int{1, 2}),
		syncapp.WithRetry(3, 2*time.Second),
		syncapp.WithSleep(sleeps.sleep))

	result, err := o.Run(context.Background(), syncapp.Target{})

	require.NoError(t, err)
	assert.Equal(t, 6, provider.searchCalls, "3 attempts for each of 2 pages")
	assert.Zero(t, result.TotalProcessed)
	assert.Zero(t, result.Errors)

	// backoff grows linearly with the attempt number: 2s then 4s per page,
	// plus the page delay between the two pages.
	assert.Contains(t, sleeps.durations, 2*time.Second)
	assert.Contains(t, sleeps.durations, 4*time.Second)
}

// One failing detail fetch is isolated: the batch continues, the error is
// counted, and the other records keep their details.
func TestRun_PartialFailureIsolation(t *testing.T) {
	t.Parallel()

	provider := &stubProvider{
		pages: map[int][]indiankanoon.SearchDoc{
			1: {doc(1, "ITAT Delhi"), doc(2, "ITAT Delhi"), doc(3, "ITAT Delhi")},
		},
		failDetailTIDs: map[int64]bool{2: true},
	}
	repo := newFakeRepo()

	result, err := newOrchestrator(provider, repo).Run(context.Background(), syncapp.Target{})

	require.NoError(t, err)
	assert.Equal(t, 3, result.TotalProcessed)
	assert.Equal(t, 1, result.Errors)
	assert.Equal(t, 3, result.NewSummaries, "summary still stored when the detail fetch fails")
	assert.Equal(t, 2, result.NewDetails)

	_, hasDetail2 := repo.details[2]
	assert.False(t, hasDetail2)
	_, hasDetail1 := repo.details[1]
	_, hasDetail3 := repo.details[3]
	assert.True(t, hasDetail1)
	assert.True(t, hasDetail3)
}

func TestRun_SummaryFailureSkipsDetailFetch(t *testing.T) {
	t.Parallel()

	provider := &stubProvider{pages: map[int][]indiankanoon.SearchDoc{
		1: {doc(7, "ITAT Delhi"), doc(8, "ITAT Delhi")},
	}}
	repo := newFakeRepo()
	repo.failSummaryTIDs[7] = true

	result, err := newOrchestrator(provider, repo).Run(context.Background(), syncapp.Target{})

	require.NoError(t, err)
	assert.Equal(t, 2, result.TotalProcessed)
	assert.Equal(t, 1, result.Errors)
	assert.Equal(t, 1, result.NewSummaries)
	assert.Equal(t, []int64{8}, provider.detailCalls, "no detail fetch for the failed summary")
}

func TestRun_SecondPassCountsUpdates(t *testing.T) {
	t.Parallel()

	provider := &stubProvider{pages: map[int][]indiankanoon.SearchDoc{
		1: {doc(1, "ITAT Delhi")},
	}}
	repo := newFakeRepo()
	o := newOrchestrator(provider, repo)

	first, err := o.Run(context.Background(), syncapp.Target{})
	require.NoError(t, err)
	assert.Equal(t, 1, first.NewSummaries)

	second, err := o.Run(context.Background(), syncapp.Target{})
	require.NoError(t, err)
	assert.Zero(t, second.NewSummaries)
	assert.Equal(t, 1, second.UpdatedSummaries)
	assert.Equal(t, 1, second.UpdatedDetails)

	total, _ := repo.TotalCount(context.Background(), "")
	assert.EqualValues(t, 1, total, "idempotent on tid")
}

type stubLease struct {
	released bool
}

func (l *stubLease) Release(_ context.Context) error {
	l.released = true
	return nil
}

func TestRun_HeldLeaseSkipsRun(t *testing.T) {
	t.Parallel()

	provider := &stubProvider{pages: map[int][]indiankanoon.SearchDoc{
		1: {doc(1, "ITAT Delhi")},
	}}
	lm := syncapp.LeaseManagerFunc(func(_ context.Context, _ string) (syncapp.Lease, error) {
		return nil, appErrors.New(appErrors.ErrCodeSyncInProgress, "held")
	})

	_, err := newOrchestrator(provider, newFakeRepo(), syncapp.WithLeaseManager(lm)).
		Run(context.Background(), syncapp.Target{Category: caselaw.CategoryGST})

	require.Error(t, err)
	assert.True(t, appErrors.IsCode(err, appErrors.ErrCodeSyncInProgress))
	assert.Zero(t, provider.searchCalls, "a held lease means no provider traffic")
}

func TestRun_LeaseReleasedAfterRun(t *testing.T) {
	t.Parallel()

	lease := &stubLease{}
	var gotScope string
	lm := syncapp.LeaseManagerFunc(func(_ context.Context, scope string) (syncapp.Lease, error) {
		gotScope = scope
		return lease, nil
	})
	provider := &stubProvider{pages: map[int][]indiankanoon.SearchDoc{
		1: {doc(1, "ITAT Delhi")},
	}}

	_, err := newOrchestrator(provider, newFakeRepo(), syncapp.WithLeaseManager(lm)).
		Run(context.Background(), syncapp.Target{Category: caselaw.CategoryITAT})

	require.NoError(t, err)
	assert.True(t, lease.released)
	assert.Equal(t, "ITAT", gotScope)
}

type stubPublisher struct {
	events []kafka.SyncRunEvent
	err    error
}

func (p *stubPublisher) PublishSyncRunCompleted(_ context.Context, e kafka.SyncRunEvent) error {
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, e)
	return nil
}

func TestRun_PublishesAuditEvent(t *testing.T) {
	t.Parallel()

	provider := &stubProvider{pages: map[int][]indiankanoon.SearchDoc{
		1: {doc(1, "CESTAT Mumbai"), doc(2, "ITAT Delhi")},
	}}
	pub := &stubPublisher{}

	result, err := newOrchestrator(provider, newFakeRepo(), syncapp.WithEventPublisher(pub)).
		Run(context.Background(), syncapp.Target{})

	require.NoError(t, err)
	require.Len(t, pub.events, 1)
	event := pub.events[0]
	assert.Equal(t, "all", event.Category)
	assert.Equal(t, result.NewSummaries, event.NewSummaries)
	assert.Equal(t, result.TotalProcessed, event.TotalProcessed)
}

func TestRun_PublisherFailureDoesNotFailRun(t *testing.T) {
	t.Parallel()

	provider := &stubProvider{pages: map[int][]indiankanoon.SearchDoc{
		1: {doc(1, "ITAT Delhi")},
	}}
	pub := &stubPublisher{err: stderrors.New("broker down")}

	result, err := newOrchestrator(provider, newFakeRepo(), syncapp.WithEventPublisher(pub)).
		Run(context.Background(), syncapp.Target{})

	require.NoError(t, err)
	assert.Equal(t, 1, result.NewSummaries)
}

func TestRun_CacheInvalidatedOnlyWhenRecordsProcessed(t *testing.T) {
	t.Parallel()

	invalidated := 0
	inv := syncapp.WithCacheInvalidator(func() { invalidated++ })

	provider := &stubProvider{pages: map[int][]indiankanoon.SearchDoc{
		1: {doc(1, "ITAT Delhi")},
	}}
	_, err := newOrchestrator(provider, newFakeRepo(), inv).Run(context.Background(), syncapp.Target{})
	require.NoError(t, err)
	assert.Equal(t, 1, invalidated)

	empty := &stubProvider{pages: map[int][]indiankanoon.SearchDoc{}}
	_, err = newOrchestrator(empty, newFakeRepo(), inv).Run(context.Background(), syncapp.Target{})
	require.NoError(t, err)
	assert.Equal(t, 1, invalidated, "empty run leaves the cache alone")
}

func TestRun_PacingDelaysApplied(t *testing.T) {
	t.Parallel()

	provider := &stubProvider{pages: map[int][]indiankanoon.SearchDoc{
		1: {doc(1, "ITAT Delhi"), doc(2, "ITAT Delhi")},
		2: {doc(3, "ITAT Delhi")},
	}}
	sleeps := &recordedSleep{}

	o := syncapp.NewOrchestrator(provider, newFakeRepo(), caselaw.NewQueryTable(nil, ""),
		syncapp.WithPages([]int{1, 2}),
		syncapp.WithPacing(200*time.Millisecond, time.Second),
		syncapp.WithSleep(sleeps.sleep))

	_, err := o.Run(context.Background(), syncapp.Target{})
	require.NoError(t, err)

	var recordDelays, pageDelays int
	for _, d := range sleeps.durations {
		switch d {
		case 200 * time.Millisecond:
			recordDelays++
		case time.Second:
			pageDelays++
		}
	}
	assert.Equal(t, 3, recordDelays, "one pacing delay per record, unconditionally")
	assert.Equal(t, 1, pageDelays, "one pacing delay between the two pages")
}

func TestRun_ContextCancellationAborts(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	provider := &stubProvider{pages: map[int][]indiankanoon.SearchDoc{
		1: {doc(1, "ITAT Delhi"), doc(2, "ITAT Delhi")},
	}}
	repo := newFakeRepo()

	o := syncapp.NewOrchestrator(provider, repo, caselaw.NewQueryTable(nil, ""),
		syncapp.WithPages([]int{1}),
		syncapp.WithSleep(func(_ context.Context, _ time.Duration) { cancel() }))

	result, err := o.Run(ctx, syncapp.Target{})

	require.Error(t, err)
	assert.True(t, appErrors.IsCode(err, appErrors.ErrCodeSyncAborted))
	require.NotNil(t, result, "partial counters survive an abort")
	assert.Equal(t, 1, result.TotalProcessed)
}
