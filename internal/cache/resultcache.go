// Package cache implements the in-process result cache that sits in front of
// the case-law read path.  Entries live for a fixed TTL (24h by default)
// because the underlying store only changes when a sync pass runs; within a
// day the same (page, category, year) query always yields the same rows.
//
// The cache is a plain mutex-guarded map.  It serves a single API process on
// its read path only, so there is no cross-node consistency to maintain and a
// distributed cache would buy nothing.
package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/taxdesk/caselaw-intelligence/internal/domain/caselaw"
	"github.com/taxdesk/caselaw-intelligence/internal/infrastructure/monitoring/logging"
)

// DefaultTTL is the entry lifetime when none is configured.
const DefaultTTL = 24 * time.Hour

// PageKey identifies one cached result page.
type PageKey struct {
	Page     int
	Category caselaw.Category
	Year     string
}

func (k PageKey) String() string {
	return fmt.Sprintf("page=%d cat=%s year=%s", k.Page, k.Category, k.Year)
}

type pageEntry struct {
	result   caselaw.QueryResult
	storedAt time.Time
}

type statsEntry struct {
	stats    caselaw.Statistics
	storedAt time.Time
}

// ResultCache caches query pages keyed by (page, category, year) and
// aggregate statistics keyed by year.  The clock is injected so expiry is
// testable without sleeping.
type ResultCache struct {
	mu    sync.Mutex
	pages map[PageKey]pageEntry
	stats map[string]statsEntry

	ttl    time.Duration
	now    func() time.Time
	logger logging.Logger
}

// Option customises a ResultCache.
type Option func(*ResultCache)

// WithTTL overrides the default entry lifetime.
func WithTTL(ttl time.Duration) Option {
	return func(c *ResultCache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithClock injects the time source used for storing and expiring entries.
func WithClock(now func() time.Time) Option {
	return func(c *ResultCache) {
		if now != nil {
			c.now = now
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(l logging.Logger) Option {
	return func(c *ResultCache) { c.logger = l }
}

// New builds an empty ResultCache with the default TTL and wall clock.
func New(opts ...Option) *ResultCache {
	c := &ResultCache{
		pages:  make(map[PageKey]pageEntry),
		stats:  make(map[string]statsEntry),
		ttl:    DefaultTTL,
		now:    time.Now,
		logger: logging.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// TTL returns the configured entry lifetime.
func (c *ResultCache) TTL() time.Duration { return c.ttl }

// GetPage returns the cached result for a key if present and fresh.  Stale
// entries are evicted on access and reported as a miss.
func (c *ResultCache) GetPage(key PageKey) (caselaw.QueryResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.pages[key]
	if !ok {
		return caselaw.QueryResult{}, false
	}
	if c.expired(e.storedAt) {
		delete(c.pages, key)
		return caselaw.QueryResult{}, false
	}
	return e.result, true
}

// PutPage stores a result page, overwriting any previous entry with a fresh
// timestamp.
func (c *ResultCache) PutPage(key PageKey, result caselaw.QueryResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pages[key] = pageEntry{result: result, storedAt: c.now()}
}

// GetStatistics returns the cached aggregate counts for a year ("" for all
// years) if present and fresh.
func (c *ResultCache) GetStatistics(year string) (caselaw.Statistics, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.stats[year]
	if !ok {
		return caselaw.Statistics{}, false
	}
	if c.expired(e.storedAt) {
		delete(c.stats, year)
		return caselaw.Statistics{}, false
	}
	return e.stats, true
}

// PutStatistics stores aggregate counts for a year.
func (c *ResultCache) PutStatistics(year string, stats caselaw.Statistics) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stats[year] = statsEntry{stats: stats, storedAt: c.now()}
}

// InvalidateAll clears both keyspaces.  Called whenever a filter dimension
// (category, year, tax-section) changes, since stale cross-filter entries
// must not leak into the new filter context, and after every sync run.
func (c *ResultCache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pages = make(map[PageKey]pageEntry)
	c.stats = make(map[string]statsEntry)
}

// Len returns the number of live entries across both keyspaces, counting
// expired-but-unswept entries.
func (c *ResultCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pages) + len(c.stats)
}

// Sweep removes every expired entry and returns how many were dropped.
func (c *ResultCache) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for k, e := range c.pages {
		if c.expired(e.storedAt) {
			delete(c.pages, k)
			removed++
		}
	}
	for y, e := range c.stats {
		if c.expired(e.storedAt) {
			delete(c.stats, y)
			removed++
		}
	}
	return removed
}

// StartSweeper runs Sweep on the given interval until ctx is cancelled.
// A non-positive interval defaults to the cache TTL.
func (c *ResultCache) StartSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = c.ttl
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := c.Sweep(); n > 0 {
					c.logger.Debug("cache sweep", logging.Int("removed", n))
				}
			}
		}
	}()
}

func (c *ResultCache) expired(storedAt time.Time) bool {
	return c.now().Sub(storedAt) >= c.ttl
}
