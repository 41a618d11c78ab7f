// Package metrics exposes Prometheus instrumentation for the recommender,
// the snapshot store and the outbound fetchers. Collectors are registered
// on the default registry at init and served by promhttp at /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome label values.
const (
	OutcomeOK       = "ok"
	OutcomeNotFound = "not_found"
	OutcomeError    = "error"
)

var (
	// Recommendation metrics
	RecommendRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stockrec_recommend_requests_total",
			Help: "Total number of recommendation requests",
		},
		[]string{"kind", "outcome"}, // kind: "sector", "risk"
	)

	RecommendDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "stockrec_recommend_duration_seconds",
			Help:    "Time spent scoring one recommendation request",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
		[]string{"kind"},
	)

	RecommendCandidates = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "stockrec_recommend_candidates",
			Help:    "Number of scored candidate stocks per request",
			Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 250, 500},
		},
		[]string{"kind"},
	)

	// Snapshot metrics
	SnapshotLoads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stockrec_snapshot_loads_total",
			Help: "Total number of snapshot load attempts",
		},
		[]string{"outcome"},
	)

	SnapshotUsers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "stockrec_snapshot_users",
			Help: "Users with holdings in the current snapshot",
		},
	)

	SnapshotHoldings = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "stockrec_snapshot_holdings",
			Help: "Portfolio rows in the current snapshot",
		},
	)

	SnapshotStocks = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "stockrec_snapshot_stocks",
			Help: "Reference stocks in the current snapshot",
		},
	)

	// HTTP metrics
	APIRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stockrec_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "route", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "stockrec_api_request_duration_seconds",
			Help:    "API request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// Fetcher metrics
	FetchRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stockrec_fetch_requests_total",
			Help: "Total number of outbound data-source requests",
		},
		[]string{"source", "outcome"}, // outcome: "ok", "error", "cached", "circuit_open"
	)
)

// RecordRecommend records one recommendation request.
func RecordRecommend(kind, outcome string, candidates int, duration time.Duration) {
	RecommendRequests.WithLabelValues(kind, outcome).Inc()
	RecommendDuration.WithLabelValues(kind).Observe(duration.Seconds())
	if outcome == OutcomeOK {
		RecommendCandidates.WithLabelValues(kind).Observe(float64(candidates))
	}
}

// RecordSnapshotLoad records a load attempt. Gauges change only on success.
func RecordSnapshotLoad(users, holdings, stocks int, err error) {
	if err != nil {
		SnapshotLoads.WithLabelValues(OutcomeError).Inc()
		return
	}
	SnapshotLoads.WithLabelValues(OutcomeOK).Inc()
	SnapshotUsers.Set(float64(users))
	SnapshotHoldings.Set(float64(holdings))
	SnapshotStocks.Set(float64(stocks))
}

// RecordFetch records one outbound request.
func RecordFetch(source, outcome string) {
	FetchRequests.WithLabelValues(source, outcome).Inc()
}

// RecordAPIRequest records one served HTTP request. route is the matched
// route pattern, not the raw path, to bound label cardinality.
func RecordAPIRequest(method, route string, status int, duration time.Duration) {
	APIRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}
