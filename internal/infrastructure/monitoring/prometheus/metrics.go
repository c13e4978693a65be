// Package prometheus registers the service's metric families.  A Metrics
// value is built once per process against its own registry and injected into
// the components that record to it.
package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// DefaultHTTPDurationBuckets cover the API's expected latency range.
var DefaultHTTPDurationBuckets = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}

// Metrics holds every metric family the service records.
type Metrics struct {
	registry *prometheus.Registry

	// sync layer
	SyncRunsTotal        *prometheus.CounterVec
	SyncRunDuration      *prometheus.HistogramVec
	SyncRecordsProcessed *prometheus.CounterVec
	SyncRecordErrors     *prometheus.CounterVec
	SyncRetriesTotal     *prometheus.CounterVec

	// cache layer
	CacheHitsTotal   *prometheus.CounterVec
	CacheMissesTotal *prometheus.CounterVec

	// HTTP layer
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// New builds a Metrics value with all families registered on a fresh
// registry, including the standard Go and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		SyncRunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "caselaw_sync_runs_total",
			Help: "Completed sync runs by category and outcome.",
		}, []string{"category", "status"}),

		SyncRunDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "caselaw_sync_run_duration_seconds",
			Help:    "Wall-clock duration of sync runs.",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
		}, []string{"category"}),

		SyncRecordsProcessed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "caselaw_sync_records_processed_total",
			Help: "Provider records processed by sync runs.",
		}, []string{"category"}),

		SyncRecordErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "caselaw_sync_record_errors_total",
			Help: "Per-record failures isolated during sync runs.",
		}, []string{"category", "stage"}),

		SyncRetriesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "caselaw_sync_page_retries_total",
			Help: "Search page fetch retries.",
		}, []string{"category"}),

		CacheHitsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "caselaw_cache_hits_total",
			Help: "Result cache hits by keyspace.",
		}, []string{"keyspace"}),

		CacheMissesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "caselaw_cache_misses_total",
			Help: "Result cache misses by keyspace.",
		}, []string{"keyspace"}),

		HTTPRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "caselaw_http_requests_total",
			Help: "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status"}),

		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "caselaw_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: DefaultHTTPDurationBuckets,
		}, []string{"method", "route"}),
	}
}

// Registry exposes the underlying registry for the /metrics handler.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }
