package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "fraud_stream_scorer"

var (
	FilesDetected = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_detected_total",
			Help:      "Published files seen by the watcher",
		},
	)

	FilesScored = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_scored_total",
			Help:      "Files scored, stored and announced",
		},
	)

	FilesSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_skipped_total",
			Help:      "Files not scored by this replica, by reason",
		},
		[]string{"reason"},
	)

	FilesFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_failed_total",
			Help:      "Files that could not be scored, by error code",
		},
		[]string{"code"},
	)

	DLQPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dlq_total",
			Help:      "Failures sent to the DLQ by error code",
		},
		[]string{"code"},
	)

	EndpointRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "endpoint_requests_total",
			Help:      "Scoring requests by outcome",
		},
		[]string{"outcome"},
	)

	EndpointLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "endpoint_request_duration_seconds",
			Help:      "Latency of a single scoring request",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)

	RecordsScored = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_scored_total",
			Help:      "Transaction records that received a prediction",
		},
	)

	LastAccuracy = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_file_accuracy",
			Help:      "Accuracy of predictions against labels for the last scored file",
		},
	)

	InflightFiles = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "inflight_files",
			Help:      "Files currently being processed (semaphore depth)",
		},
	)
)
