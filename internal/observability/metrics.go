package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce           sync.Once
	httpRequestsTotal      *prometheus.CounterVec
	httpDurationSeconds    *prometheus.HistogramVec
	progressComputations   prometheus.Counter
	documentUploadsTotal   *prometheus.CounterVec
	quizSubmissionsTotal   *prometheus.CounterVec
	progressFeedClients prometheus.Gauge
)

// RegisterMetrics initialises the Prometheus collectors exposed on /metrics.
func RegisterMetrics() {
	registerOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		httpDurationSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		progressComputations = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "progress_computations_total",
			Help: "Number of induction progress calculations performed.",
		})

		documentUploadsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "document_uploads_total",
			Help: "Document uploads partitioned by result.",
		}, []string{"result"})

		quizSubmissionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "quiz_submissions_total",
			Help: "Quiz submissions partitioned by quiz and result.",
		}, []string{"quiz", "result"})

		progressFeedClients = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "progress_feed_clients",
			Help: "Currently connected progress feed subscribers.",
		})

		prometheus.MustRegister(
			httpRequestsTotal,
			httpDurationSeconds,
			progressComputations,
			documentUploadsTotal,
			quizSubmissionsTotal,
			progressFeedClients,
		)
	})
}

// HTTPRequests exposes the request counter.
func HTTPRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

// HTTPLatency exposes the request latency histogram.
func HTTPLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpDurationSeconds
}

// ProgressComputations counts progress calculations.
func ProgressComputations() prometheus.Counter {
	RegisterMetrics()
	return progressComputations
}

// DocumentUploads counts upload attempts by result.
func DocumentUploads() *prometheus.CounterVec {
	RegisterMetrics()
	return documentUploadsTotal
}

// QuizSubmissions counts submissions by quiz and result.
func QuizSubmissions() *prometheus.CounterVec {
	RegisterMetrics()
	return quizSubmissionsTotal
}

// ProgressFeedClients tracks connected feed subscribers.
func ProgressFeedClients() prometheus.Gauge {
	RegisterMetrics()
	return progressFeedClients
}
