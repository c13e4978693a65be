// Package query implements the read path: filtered case browsing and the
// aggregate statistics behind the dashboard header, with a TTL result cache
// in front of the store.
package query

import (
	"context"
	"sync"

	"github.com/taxdesk/caselaw-intelligence/internal/cache"
	"github.com/taxdesk/caselaw-intelligence/internal/domain/caselaw"
	"github.com/taxdesk/caselaw-intelligence/internal/infrastructure/monitoring/logging"
	"github.com/taxdesk/caselaw-intelligence/internal/infrastructure/monitoring/prometheus"
)

// DefaultPageLimit matches the store's default page size.  Only requests with
// this limit (or none) are cache-eligible, because the cache key carries no
// limit dimension.
const DefaultPageLimit = 20

const (
	keyspacePages = "pages"
	keyspaceStats = "statistics"
)

// Service answers browse and statistics queries.  When a cache is attached,
// pages keyed purely by (page, category, year) and per-year statistics are
// served from it; free-text searches, section filters and custom sorts always
// hit the store.
type Service struct {
	repo    caselaw.Repository
	cache   *cache.ResultCache
	metrics *prometheus.Metrics
	logger  logging.Logger

	mu         sync.Mutex
	filterCtx  filterContext
	hasContext bool
}

// filterContext is the set of browse dimensions a reader is paging under.
type filterContext struct {
	category   caselaw.Category
	year       string
	taxSection caselaw.TaxSection
}

// Option customises a Service.
type Option func(*Service)

// WithCache attaches the result cache.
func WithCache(c *cache.ResultCache) Option {
	return func(s *Service) { s.cache = c }
}

// WithMetrics enables cache hit/miss counters.
func WithMetrics(m *prometheus.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithLogger sets the structured logger.
func WithLogger(l logging.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// NewService wires the read-path service around a repository.
func NewService(repo caselaw.Repository, opts ...Option) *Service {
	s := &Service{
		repo:   repo,
		logger: logging.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// cacheable reports whether a request shape fits the cache key.  Anything
// beyond (page, category, year) with default paging bypasses the cache.
func cacheable(f caselaw.QueryFilter, p caselaw.Page) bool {
	if f.SearchText != "" || f.TaxSection != "" {
		return false
	}
	if p.SortBy != "" || p.SortOrder != "" {
		return false
	}
	return p.Limit == 0 || p.Limit == DefaultPageLimit
}

// SetFilterContext records the browse dimensions the reader is paging under
// and drops every cached entry when the category, year or tax section differs
// from the previous context.  Cached pages belong to one browsing session at a
// time; switching dimensions starts a fresh one.  List applies it
// automatically, so callers only need it when changing filters out of band.
func (s *Service) SetFilterContext(f caselaw.QueryFilter) {
	next := filterContext{category: f.Category, year: f.Year, taxSection: f.TaxSection}

	s.mu.Lock()
	changed := s.hasContext && next != s.filterCtx
	s.filterCtx = next
	s.hasContext = true
	s.mu.Unlock()

	if changed {
		s.logger.Debug("filter context changed, dropping cached results")
		s.Invalidate()
	}
}

// List returns one page of summaries matching the filter.
func (s *Service) List(ctx context.Context, f caselaw.QueryFilter, p caselaw.Page) (*caselaw.QueryResult, error) {
	s.SetFilterContext(f)

	page := p.Number
	if page < 1 {
		page = 1
	}
	key := cache.PageKey{Page: page, Category: f.Category, Year: f.Year}

	useCache := s.cache != nil && cacheable(f, p)
	if useCache {
		if result, ok := s.cache.GetPage(key); ok {
			s.countCache(keyspacePages, true)
			s.logger.Debug("page cache hit", logging.String("key", key.String()))
			return &result, nil
		}
		s.countCache(keyspacePages, false)
	}

	result, err := s.repo.Query(ctx, f, p)
	if err != nil {
		return nil, err
	}

	if useCache {
		s.cache.PutPage(key, *result)
	}
	return result, nil
}

// Statistics returns per-category counts plus the total, optionally narrowed
// by the publish-year substring.
func (s *Service) Statistics(ctx context.Context, year string) (*caselaw.Statistics, error) {
	if s.cache != nil {
		if stats, ok := s.cache.GetStatistics(year); ok {
			s.countCache(keyspaceStats, true)
			return &stats, nil
		}
		s.countCache(keyspaceStats, false)
	}

	counts, err := s.repo.CountByCategory(ctx, year)
	if err != nil {
		return nil, err
	}
	total, err := s.repo.TotalCount(ctx, year)
	if err != nil {
		return nil, err
	}

	stats := caselaw.Statistics{CategoryCounts: counts, Total: total}
	if s.cache != nil {
		s.cache.PutStatistics(year, stats)
	}
	return &stats, nil
}

// GetCase returns one summary by TID.
func (s *Service) GetCase(ctx context.Context, tid int64) (*caselaw.CaseSummary, error) {
	return s.repo.GetByTID(ctx, tid)
}

// GetCaseDetail returns the full judgment document for a TID.
func (s *Service) GetCaseDetail(ctx context.Context, tid int64) (*caselaw.CaseDetail, error) {
	return s.repo.GetDetail(ctx, tid)
}

// Invalidate drops every cached entry.  Called when a sync run writes records
// and by clients switching filter dimensions.
func (s *Service) Invalidate() {
	if s.cache != nil {
		s.cache.InvalidateAll()
	}
}

func (s *Service) countCache(keyspace string, hit bool) {
	if s.metrics == nil {
		return
	}
	if hit {
		s.metrics.CacheHitsTotal.WithLabelValues(keyspace).Inc()
	} else {
		s.metrics.CacheMissesTotal.WithLabelValues(keyspace).Inc()
	}
}
