package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "fraud_stream_generator"

var (
	FilesPublished = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_published_total",
			Help:      "Files copied into the destination directory",
		},
	)

	RecordsGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_generated_total",
			Help:      "Records written per distribution set",
		},
		[]string{"distribution"},
	)

	CycleFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cycle_failures_total",
			Help:      "Generation cycles that aborted, by error code",
		},
		[]string{"code"},
	)

	CycleLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cycle_duration_seconds",
			Help:      "Time to assemble and publish one file, sleep excluded",
			Buckets:   prometheus.DefBuckets,
		},
	)

	Iteration = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "iteration",
			Help:      "Current loop counter",
		},
	)

	DistributionShifted = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "distribution_shifted",
			Help:      "1 once the shifted parameter set is active",
		},
	)
)
