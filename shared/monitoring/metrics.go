package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "thread_analyzer_runs_total",
			Help: "Total number of pipeline runs by final status",
		},
		[]string{"status"},
	)

	RunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "thread_analyzer_run_duration_seconds",
			Help:    "Pipeline run duration in seconds",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		},
	)

	PostFetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "thread_analyzer_post_fetches_total",
			Help: "Total number of source API post fetches by outcome",
		},
		[]string{"outcome"},
	)

	RateLimitWaitsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "thread_analyzer_rate_limit_waits_total",
			Help: "Total number of rate-limit cooldowns taken before retrying a fetch",
		},
	)

	MediaDownloadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "thread_analyzer_media_downloads_total",
			Help: "Total number of media downloads by kind and outcome",
		},
		[]string{"kind", "outcome"},
	)

	AnalysesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "thread_analyzer_analyses_total",
			Help: "Total number of analyzer calls by kind and outcome",
		},
		[]string{"kind", "outcome"},
	)
)

// Outcome returns the metric label for an error value.
func Outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
