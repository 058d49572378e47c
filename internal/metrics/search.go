package metrics

import "github.com/prometheus/client_golang/prometheus"

// Search pipeline Prometheus metrics.
var (
	SearchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "propsearch",
			Name:      "search_requests_total",
			Help:      "Total number of search requests",
		},
		[]string{"mode", "status"}, // mode: single / multi, status: ok / degraded / failed
	)

	StrategyDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "propsearch",
			Name:      "strategy_duration_seconds",
			Help:      "Retrieval strategy duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"strategy", "status"},
	)

	FusionCandidates = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "propsearch",
			Name:      "fusion_candidates",
			Help:      "Distinct candidates entering a fusion pass",
			Buckets:   []float64{10, 25, 50, 100, 250, 500, 1000},
		},
	)

	QualityMatchRatio = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "propsearch",
			Name:      "quality_avg_match_ratio",
			Help:      "Average required-feature match ratio over the quality window",
			Buckets:   []float64{0, 0.1, 0.25, 0.5, 0.75, 0.9, 1},
		},
	)
)

var searchMetricsRegistered bool

// RegisterSearchMetrics registers Prometheus search metrics. Must be called once from main.
func RegisterSearchMetrics() {
	if searchMetricsRegistered {
		return
	}
	prometheus.MustRegister(SearchRequestsTotal)
	prometheus.MustRegister(StrategyDuration)
	prometheus.MustRegister(FusionCandidates)
	prometheus.MustRegister(QualityMatchRatio)
	searchMetricsRegistered = true
}
