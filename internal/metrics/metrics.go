// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Submissions by trigger (MANUAL/TIMER_EXPIRY) and status.
	SubmissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mocktest_submissions_total",
			Help: "Total number of finished test submissions",
		},
		[]string{"trigger", "status"},
	)

	SubmissionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mocktest_submission_duration_seconds",
			Help:    "Time from submit to result summary",
			Buckets: []float64{0.5, 1, 2, 3, 5, 10},
		},
		[]string{"status"},
	)

	SyncFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mocktest_result_sync_failures_total",
			Help: "Results that could not be handed to persistence",
		},
	)

	LiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mocktest_live_sessions_current",
			Help: "Sessions currently held in memory",
		},
	)

	ResultsPersisted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mocktest_results_persisted_total",
			Help: "Results written by the persistence worker",
		},
		[]string{"mode"}, // mode: batch/single/requeued
	)

	GeneratorRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mocktest_generator_requests_total",
			Help: "Question generator calls to the upstream model",
		},
		[]string{"status"},
	)

	GeneratorDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "mocktest_generator_duration_seconds",
			Help:    "Time spent generating a draft paper",
			Buckets: prometheus.ExponentialBuckets(1, 2, 8),
		},
	)
)

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
