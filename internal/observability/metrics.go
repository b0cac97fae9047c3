package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains the Prometheus metrics for the aggregation core.
// Counters and histograms are registered on the given registerer; pass
// prometheus.DefaultRegisterer in production and a fresh registry in tests.
type Metrics struct {
	// SearchesStarted counts per-source fetches initiated, labeled by source.
	SearchesStarted *prometheus.CounterVec

	// SearchesCompleted counts successful per-source fetches, labeled by source.
	SearchesCompleted *prometheus.CounterVec

	// SearchesFailed counts failed per-source fetches, labeled by source.
	SearchesFailed *prometheus.CounterVec

	// SearchDuration observes per-source fetch duration in seconds.
	SearchDuration *prometheus.HistogramVec

	// PapersPerSearch observes papers returned per source fetch.
	PapersPerSearch *prometheus.HistogramVec

	// PapersMerged counts duplicate records merged during aggregation.
	PapersMerged prometheus.Counter

	// AggregatedSearches counts multi-source searches executed.
	AggregatedSearches prometheus.Counter
}

// NewMetrics creates and registers all metrics on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		SearchesStarted: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "paperladder_searches_started_total",
			Help: "Per-source searches initiated.",
		}, []string{"source"}),

		SearchesCompleted: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "paperladder_searches_completed_total",
			Help: "Per-source searches that succeeded.",
		}, []string{"source"}),

		SearchesFailed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "paperladder_searches_failed_total",
			Help: "Per-source searches that failed.",
		}, []string{"source"}),

		SearchDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "paperladder_search_duration_seconds",
			Help:    "Per-source search duration in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"source"}),

		PapersPerSearch: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "paperladder_papers_per_search",
			Help:    "Papers returned per source search.",
			Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 250, 500, 1000},
		}, []string{"source"}),

		PapersMerged: factory.NewCounter(prometheus.CounterOpts{
			Name: "paperladder_papers_merged_total",
			Help: "Duplicate paper records merged during aggregation.",
		}),

		AggregatedSearches: factory.NewCounter(prometheus.CounterOpts{
			Name: "paperladder_aggregated_searches_total",
			Help: "Multi-source searches executed.",
		}),
	}
}
