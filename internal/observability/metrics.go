package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce         sync.Once
	apiRequestsTotal     *prometheus.CounterVec
	apiLatencySeconds    *prometheus.HistogramVec
	apiErrorsTotal       *prometheus.CounterVec
	resumesRankedTotal   prometheus.Counter
	resumesSkippedTotal  *prometheus.CounterVec
	interviewsCompleted  *prometheus.CounterVec
	interviewTransitions *prometheus.CounterVec
	feedClients          prometheus.Gauge
)

// RegisterMetrics initialises the Prometheus collectors used by the API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		apiRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "talentflow",
			Name:      "http_requests_total",
			Help:      "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		apiLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "talentflow",
			Name:      "http_latency_seconds",
			Help:      "Latency distribution for API requests.",
			Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 15.0},
		}, []string{"method", "route"})

		apiErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "talentflow",
			Name:      "http_errors_total",
			Help:      "Total number of error responses returned by the API.",
		}, []string{"method", "route", "status"})

		resumesRankedTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "talentflow",
			Subsystem: "ranking",
			Name:      "resumes_ranked_total",
			Help:      "Resumes that were embedded and scored.",
		})

		resumesSkippedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "talentflow",
			Subsystem: "ranking",
			Name:      "resumes_skipped_total",
			Help:      "Resumes dropped from a ranking batch.",
		}, []string{"reason"})

		interviewsCompleted = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "talentflow",
			Subsystem: "interview",
			Name:      "completed_total",
			Help:      "Completed interviews by recommendation.",
		}, []string{"recommendation"})

		interviewTransitions = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "talentflow",
			Subsystem: "interview",
			Name:      "transitions_total",
			Help:      "Interview state transitions.",
		}, []string{"to"})

		feedClients = prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "talentflow",
			Subsystem: "interview",
			Name:      "feed_clients",
			Help:      "Connected recruiter feed websocket clients.",
		})

		prometheus.MustRegister(
			apiRequestsTotal,
			apiLatencySeconds,
			apiErrorsTotal,
			resumesRankedTotal,
			resumesSkippedTotal,
			interviewsCompleted,
			interviewTransitions,
			feedClients,
		)
	})
}

// APIRequests exposes the counter for API requests.
func APIRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return apiRequestsTotal
}

// APILatency exposes the latency histogram for API requests.
func APILatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return apiLatencySeconds
}

// APIErrors exposes the counter for error responses.
func APIErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return apiErrorsTotal
}

// ResumesRanked counts resumes that made it through scoring.
func ResumesRanked() prometheus.Counter {
	RegisterMetrics()
	return resumesRankedTotal
}

// ResumesSkipped counts dropped resumes by reason.
func ResumesSkipped() *prometheus.CounterVec {
	RegisterMetrics()
	return resumesSkippedTotal
}

// InterviewsCompleted counts completions by recommendation.
func InterviewsCompleted() *prometheus.CounterVec {
	RegisterMetrics()
	return interviewsCompleted
}

// InterviewTransitions counts state changes by target status.
func InterviewTransitions() *prometheus.CounterVec {
	RegisterMetrics()
	return interviewTransitions
}

// FeedClients tracks open recruiter feed connections.
func FeedClients() prometheus.Gauge {
	RegisterMetrics()
	return feedClients
}
