package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "jobboard_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "jobboard_http_request_duration_seconds",
		Help:    "Duration of HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	jobsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "jobboard_jobs_created_total",
		Help: "Count of jobs created by initial status",
	}, []string{"status"})

	applicationsSubmitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "jobboard_applications_submitted_total",
		Help: "Count of applications submitted",
	})

	stageTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "jobboard_stage_transitions_total",
		Help: "Count of application stage transitions by edge",
	}, []string{"from_stage", "to_stage"})

	openJobs = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "jobboard_open_jobs",
		Help: "Number of job postings currently open",
	})

	authFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "jobboard_auth_failures_total",
		Help: "Count of rejected requests by failure kind",
	}, []string{"kind"})
)

// ObserveHTTPRequest records an HTTP request metric
func ObserveHTTPRequest(method, path, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	httpRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// ObserveJobCreated increments the jobs-created counter.
func ObserveJobCreated(status string) {
	jobsCreated.WithLabelValues(status).Inc()
}

// ObserveApplicationSubmitted increments the applications counter.
func ObserveApplicationSubmitted() {
	applicationsSubmitted.Inc()
}

// ObserveStageTransition records one pipeline transition.
func ObserveStageTransition(fromStage, toStage string) {
	stageTransitions.WithLabelValues(fromStage, toStage).Inc()
}

// SetOpenJobs refreshes the open-postings gauge.
func SetOpenJobs(n int) {
	openJobs.Set(float64(n))
}

// ObserveAuthFailure records a rejected request by taxonomy kind.
func ObserveAuthFailure(kind string) {
	authFailures.WithLabelValues(kind).Inc()
}
