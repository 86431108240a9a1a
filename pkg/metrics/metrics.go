package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "outfits"

// Recommendation and replenishment Prometheus metrics.
var (
	RecommendTiersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recommend_tiers_total",
			Help:      "Candidate tiers executed while assembling recommendations",
		},
		[]string{"tier"},
	)

	RecommendUniqueExhaustedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recommend_unique_exhausted_total",
			Help:      "Recommendations that had to serve repeats",
		},
	)

	RecommendStoreErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recommend_store_errors_total",
			Help:      "Image store queries that failed during a tier",
		},
		[]string{"tier"},
	)

	WeatherLookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "weather_lookups_total",
			Help:      "Weather resolutions by source and result",
		},
		[]string{"source", "result"},
	)

	ReplenishJobsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "replenish_jobs_total",
			Help:      "Replenishment jobs by lifecycle outcome",
		},
		[]string{"result"},
	)

	ReplenishAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "replenish_attempts_total",
			Help:      "Image generation attempts by bucket and result",
		},
		[]string{"bucket", "result"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)
)

func init() {
	prometheus.MustRegister(
		RecommendTiersTotal,
		RecommendUniqueExhaustedTotal,
		RecommendStoreErrorsTotal,
		WeatherLookupsTotal,
		ReplenishJobsTotal,
		ReplenishAttemptsTotal,
		HTTPRequestDuration,
	)
}
