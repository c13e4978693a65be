// Package sync implements the case-law synchronisation orchestrator.  A run
// pulls a bounded number of provider result pages for one target (a category,
// a tax section, or the broad default), derives the category per record, and
// persists every record with per-record error isolation: one bad record is
// counted and logged, never fatal to the batch.
package sync

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/taxdesk/caselaw-intelligence/internal/domain/caselaw"
	"github.com/taxdesk/caselaw-intelligence/internal/infrastructure/messaging/kafka"
	"github.com/taxdesk/caselaw-intelligence/internal/infrastructure/monitoring/logging"
	"github.com/taxdesk/caselaw-intelligence/internal/infrastructure/monitoring/prometheus"
	"github.com/taxdesk/caselaw-intelligence/internal/infrastructure/provider/indiankanoon"
	appErrors "github.com/taxdesk/caselaw-intelligence/pkg/errors"
)

// Provider is the outbound search surface the orchestrator drives.
// Satisfied by *indiankanoon.Client.
type Provider interface {
	Search(ctx context.Context, query string, page int, year string) []indiankanoon.SearchDoc
	FetchDetail(ctx context.Context, tid int64) (*indiankanoon.DocResponse, error)
}

// Lease is one held sync lease.
type Lease interface {
	Release(ctx context.Context) error
}

// LeaseManager hands out per-scope sync leases.  A held scope must yield an
// ErrCodeSyncInProgress error.
type LeaseManager interface {
	Acquire(ctx context.Context, scope string) (Lease, error)
}

// LeaseManagerFunc adapts a function to the LeaseManager interface.
type LeaseManagerFunc func(ctx context.Context, scope string) (Lease, error)

func (f LeaseManagerFunc) Acquire(ctx context.Context, scope string) (Lease, error) {
	return f(ctx, scope)
}

// EventPublisher emits the sync-run audit event.  Satisfied by
// *kafka.Producer.
type EventPublisher interface {
	PublishSyncRunCompleted(ctx context.Context, event kafka.SyncRunEvent) error
}

// Target selects what a run syncs.  A set TaxSection wins over Category; both
// empty means the broad default query over all categories.
type Target struct {
	Category   caselaw.Category
	TaxSection caselaw.TaxSection
}

// Scope names the lease scope and metric label for the target.
func (t Target) Scope() string {
	switch {
	case t.TaxSection != "":
		return string(t.TaxSection)
	case t.Category != "":
		return string(t.Category)
	default:
		return "all"
	}
}

// Result carries the counters of one finished run.
type Result struct {
	NewSummaries     int
	UpdatedSummaries int
	NewDetails       int
	UpdatedDetails   int
	Errors           int
	TotalProcessed   int
	StartedAt        time.Time
	Duration         time.Duration
}

// Defaults mirror the provider's fair-use guidance: three pages per run,
// three attempts per page, and fixed pacing delays between calls.
const (
	DefaultMaxRetries   = 3
	DefaultRetryBackoff = 2 * time.Second
	DefaultRecordDelay  = 200 * time.Millisecond
	DefaultPageDelay    = 1 * time.Second
)

// Orchestrator runs sync passes.  Construct with NewOrchestrator.
type Orchestrator struct {
	provider Provider
	repo     caselaw.Repository
	queries  *caselaw.QueryTable

	leases     LeaseManager
	events     EventPublisher
	metrics    *prometheus.Metrics
	logger     logging.Logger
	invalidate func()

	pages        []int
	maxRetries   int
	retryBackoff time.Duration
	recordDelay  time.Duration
	pageDelay    time.Duration

	sleep func(ctx context.Context, d time.Duration)
	now   func() time.Time
}

// Option customises an Orchestrator.
type Option func(*Orchestrator)

// WithLeaseManager enables cross-process run coordination.
func WithLeaseManager(lm LeaseManager) Option {
	return func(o *Orchestrator) { o.leases = lm }
}

// WithEventPublisher enables the best-effort run audit event.
func WithEventPublisher(p EventPublisher) Option {
	return func(o *Orchestrator) { o.events = p }
}

// WithMetrics enables run counters.
func WithMetrics(m *prometheus.Metrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// WithLogger sets the structured logger.
func WithLogger(l logging.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// WithCacheInvalidator registers a hook invoked after a run that wrote
// anything, so the read-path cache drops entries from before the sync.
func WithCacheInvalidator(f func()) Option {
	return func(o *Orchestrator) { o.invalidate = f }
}

// WithPages overrides the result pages fetched per run.
func WithPages(pages []int) Option {
	return func(o *Orchestrator) {
		if len(pages) > 0 {
			o.pages = pages
		}
	}
}

// WithRetry overrides the per-page attempt budget and backoff base.
func WithRetry(maxRetries int, backoff time.Duration) Option {
	return func(o *Orchestrator) {
		if maxRetries > 0 {
			o.maxRetries = maxRetries
		}
		if backoff > 0 {
			o.retryBackoff = backoff
		}
	}
}

// WithPacing overrides the unconditional delays between records and pages.
func WithPacing(recordDelay, pageDelay time.Duration) Option {
	return func(o *Orchestrator) {
		o.recordDelay = recordDelay
		o.pageDelay = pageDelay
	}
}

// WithSleep injects the sleep function.  Tests replace it to run instantly.
func WithSleep(sleep func(ctx context.Context, d time.Duration)) Option {
	return func(o *Orchestrator) {
		if sleep != nil {
			o.sleep = sleep
		}
	}
}

// WithClock injects the time source.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		if now != nil {
			o.now = now
		}
	}
}

// NewOrchestrator wires a sync orchestrator.  provider, repo and queries are
// required; everything else defaults to a lease-less, event-less run with the
// standard paging and pacing.
func NewOrchestrator(provider Provider, repo caselaw.Repository, queries *caselaw.QueryTable, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		provider:     provider,
		repo:         repo,
		queries:      queries,
		logger:       logging.NewNopLogger(),
		pages:        []int{1, 2, 3},
		maxRetries:   DefaultMaxRetries,
		retryBackoff: DefaultRetryBackoff,
		recordDelay:  DefaultRecordDelay,
		pageDelay:    DefaultPageDelay,
		sleep:        sleepWithContext,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func sleepWithContext(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// Run executes one sync pass for the target and returns its counters.
// Per-record failures are counted in Result.Errors; only a held lease, an
// invalid target, or context cancellation abort the run.
func (o *Orchestrator) Run(ctx context.Context, target Target) (*Result, error) {
	if target.Category != "" && !target.Category.Valid() {
		return nil, appErrors.New(appErrors.ErrCodeCaseInvalidCategory,
			fmt.Sprintf("unknown category %q", target.Category))
	}
	if target.TaxSection != "" && !target.TaxSection.Valid() {
		return nil, appErrors.New(appErrors.ErrCodeCaseInvalidCategory,
			fmt.Sprintf("unknown tax section %q", target.TaxSection))
	}

	scope := target.Scope()
	if o.leases != nil {
		lease, err := o.leases.Acquire(ctx, scope)
		if err != nil {
			return nil, err
		}
		defer func() {
			if rerr := lease.Release(context.WithoutCancel(ctx)); rerr != nil {
				o.logger.Warn("failed to release sync lease", logging.String("scope", scope), logging.Err(rerr))
			}
		}()
	}

	query, forced, section := o.resolveQuery(target)
	result := &Result{StartedAt: o.now()}

	o.logger.Info("sync run started",
		logging.String("scope", scope),
		logging.String("query", query),
		logging.Int("pages", len(o.pages)))

	for i, page := range o.pages {
		docs := o.fetchPage(ctx, query, page, scope)

		for _, doc := range docs {
			if err := ctx.Err(); err != nil {
				result.Duration = o.now().Sub(result.StartedAt)
				return result, appErrors.Wrap(err, appErrors.ErrCodeSyncAborted, "sync run cancelled")
			}
			o.processRecord(ctx, doc, forced, section, scope, result)
			o.sleep(ctx, o.recordDelay)
		}

		if i < len(o.pages)-1 {
			o.sleep(ctx, o.pageDelay)
		}
	}

	result.Duration = o.now().Sub(result.StartedAt)
	o.finishRun(ctx, target, scope, result)
	return result, nil
}

// resolveQuery picks the provider query and any forced category.  A section
// target wins: its query and parent category apply.  A category target forces
// that category with the category's query.  No target means the broad default
// query with per-record derivation.
func (o *Orchestrator) resolveQuery(target Target) (query string, forced caselaw.Category, section caselaw.TaxSection) {
	if target.TaxSection != "" {
		q, _ := target.TaxSection.Query()
		return q, target.TaxSection.Category(), target.TaxSection
	}
	if target.Category != "" {
		return o.queries.ForCategory(target.Category), target.Category, ""
	}
	return o.queries.Default(), "", ""
}

// fetchPage retrieves one result page with up to maxRetries attempts.  An
// empty result is retryable (the provider intermittently returns empty pages
// under load); exhausted retries yield an empty page and the run continues.
func (o *Orchestrator) fetchPage(ctx context.Context, query string, page int, scope string) []indiankanoon.SearchDoc {
	for attempt := 1; attempt <= o.maxRetries; attempt++ {
		docs := o.provider.Search(ctx, query, page, "")
		if len(docs) > 0 {
			return docs
		}
		if attempt < o.maxRetries {
			o.logger.Warn("empty search page, retrying",
				logging.Int("page", page),
				logging.Int("attempt", attempt))
			if o.metrics != nil {
				o.metrics.SyncRetriesTotal.WithLabelValues(scope).Inc()
			}
			o.sleep(ctx, o.retryBackoff*time.Duration(attempt))
		}
	}
	o.logger.Warn("search page empty after all attempts", logging.Int("page", page))
	return nil
}

// processRecord upserts one provider record and its detail document.  Every
// failure path increments Result.Errors and returns; the caller moves on to
// the next record.
func (o *Orchestrator) processRecord(ctx context.Context, doc indiankanoon.SearchDoc, forced caselaw.Category, section caselaw.TaxSection, scope string, result *Result) {
	result.TotalProcessed++
	if o.metrics != nil {
		o.metrics.SyncRecordsProcessed.WithLabelValues(scope).Inc()
	}

	category := forced
	if category == "" {
		category = caselaw.DeriveCategory(doc.DocSource)
	}

	summary := &caselaw.CaseSummary{
		TID:         doc.TID,
		Title:       doc.Title,
		Headline:    doc.Headline,
		DocSource:   doc.DocSource,
		PublishDate: doc.PublishDate,
		DocSize:     doc.DocSize,
		NumCitedBy:  doc.NumCitedBy,
		Category:    category,
		TaxSection:  section,
	}

	outcome, err := o.repo.UpsertSummary(ctx, summary)
	if err != nil {
		o.recordError(scope, "summary", doc.TID, err, result)
		return
	}
	if outcome == caselaw.OutcomeCreated {
		result.NewSummaries++
	} else {
		result.UpdatedSummaries++
	}

	detail, err := o.provider.FetchDetail(ctx, doc.TID)
	if err != nil {
		o.recordError(scope, "detail_fetch", doc.TID, err, result)
		return
	}

	outcome, err = o.repo.UpsertDetail(ctx, &caselaw.CaseDetail{
		TID:        detail.TID,
		Doc:        detail.Doc,
		NumCites:   detail.NumCites,
		NumCitedBy: detail.NumCitedBy,
		CiteTID:    detail.CiteTID,
		DivType:    detail.DivType,
		CourtCopy:  detail.CourtCopy,
		Agreement:  detail.Agreement,
		QueryAlert: detail.QueryAlert,
	})
	if err != nil {
		o.recordError(scope, "detail_store", doc.TID, err, result)
		return
	}
	if outcome == caselaw.OutcomeCreated {
		result.NewDetails++
	} else {
		result.UpdatedDetails++
	}
}

func (o *Orchestrator) recordError(scope, stage string, tid int64, err error, result *Result) {
	result.Errors++
	if o.metrics != nil {
		o.metrics.SyncRecordErrors.WithLabelValues(scope, stage).Inc()
	}
	o.logger.Error("record sync failed",
		logging.Int64("tid", tid),
		logging.String("stage", stage),
		logging.Err(err))
}

// finishRun records metrics, drops stale cache entries, and publishes the
// audit event.  All of it is best-effort; a broker outage never fails a run
// that already persisted its records.
func (o *Orchestrator) finishRun(ctx context.Context, target Target, scope string, result *Result) {
	status := "ok"
	if result.Errors > 0 {
		status = "partial"
	}

	if o.metrics != nil {
		o.metrics.SyncRunsTotal.WithLabelValues(scope, status).Inc()
		o.metrics.SyncRunDuration.WithLabelValues(scope).Observe(result.Duration.Seconds())
	}

	if o.invalidate != nil && result.TotalProcessed > 0 {
		o.invalidate()
	}

	o.logger.Info("sync run finished",
		logging.String("scope", scope),
		logging.String("status", status),
		logging.Int("processed", result.TotalProcessed),
		logging.Int("new_summaries", result.NewSummaries),
		logging.Int("updated_summaries", result.UpdatedSummaries),
		logging.Int("errors", result.Errors),
		logging.Duration("duration", result.Duration))

	if o.events != nil {
		event := kafka.SyncRunEvent{
			Category:         string(target.Category),
			TaxSection:       string(target.TaxSection),
			NewSummaries:     result.NewSummaries,
			UpdatedSummaries: result.UpdatedSummaries,
			NewDetails:       result.NewDetails,
			UpdatedDetails:   result.UpdatedDetails,
			Errors:           result.Errors,
			TotalProcessed:   result.TotalProcessed,
			DurationMS:       result.Duration.Milliseconds(),
			StartedAt:        result.StartedAt.UTC().Format(time.RFC3339),
		}
		if event.Category == "" {
			event.Category = scope
		}
		if err := o.events.PublishSyncRunCompleted(ctx, event); err != nil {
			o.logger.Warn("failed to publish sync run event", logging.Err(err))
		}
	}
}

// String renders the counters for CLI output.
func (r *Result) String() string {
	return "processed=" + strconv.Itoa(r.TotalProcessed) +
		" new=" + strconv.Itoa(r.NewSummaries) +
		" updated=" + strconv.Itoa(r.UpdatedSummaries) +
		" details=" + strconv.Itoa(r.NewDetails+r.UpdatedDetails) +
		" errors=" + strconv.Itoa(r.Errors)
}
