// Package metrics defines the Prometheus metric collectors used across the
// monitoring core and exposes an HTTP handler for scraping.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors for the monitoring core.
type Metrics struct {
	MentionsIngestedTotal    *prometheus.CounterVec
	IngestErrorsTotal        *prometheus.CounterVec
	AnnotationsAppliedTotal  *prometheus.CounterVec
	AnalyticsQueriesTotal    *prometheus.CounterVec
	AnalyticsQueryDuration   *prometheus.HistogramVec
	CacheHitsTotal           prometheus.Counter
	CacheMissesTotal         prometheus.Counter
	CacheInvalidationsTotal  prometheus.Counter
	MembershipMutationsTotal *prometheus.CounterVec
	UnprocessedMentions      prometheus.Gauge
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	m := &Metrics{
		MentionsIngestedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mentions_ingested_total",
				Help: "Total mentions upserted into the store by source type.",
			},
			[]string{"source_type"},
		),
		IngestErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ingest_errors_total",
				Help: "Total ingest failures by stage (decode, identity, store).",
			},
			[]string{"stage"},
		),
		AnnotationsAppliedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "annotations_applied_total",
				Help: "Total annotation writes by kind (score, entities, categories).",
			},
			[]string{"kind"},
		),
		AnalyticsQueriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "analytics_queries_total",
				Help: "Total analytics queries by view (trend, average, entities, categories, texts).",
			},
			[]string{"view"},
		),
		AnalyticsQueryDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "analytics_query_duration_seconds",
				Help:    "Analytics query latency in seconds.",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"view"},
		),
		CacheHitsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "analytics_cache_hits_total",
				Help: "Total analytics cache hits.",
			},
		),
		CacheMissesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "analytics_cache_misses_total",
				Help: "Total analytics cache misses.",
			},
		),
		CacheInvalidationsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "analytics_cache_invalidations_total",
				Help: "Total analytics cache invalidations by keyword.",
			},
		),
		MembershipMutationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "membership_mutations_total",
				Help: "Total keyword/index membership mutations by entity and op.",
			},
			[]string{"entity", "op"},
		),
		UnprocessedMentions: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "unprocessed_mentions",
				Help: "Mentions awaiting a sentiment score, as of the last scan.",
			},
		),
	}

	prometheus.MustRegister(
		m.MentionsIngestedTotal,
		m.IngestErrorsTotal,
		m.AnnotationsAppliedTotal,
		m.AnalyticsQueriesTotal,
		m.AnalyticsQueryDuration,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
		m.CacheInvalidationsTotal,
		m.MembershipMutationsTotal,
		m.UnprocessedMentions,
	)
	return m
}

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
