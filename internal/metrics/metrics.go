package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Limit refresh metrics
	LimitRefreshTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agegate_limit_refresh_total",
			Help: "Total number of limit refresh cycles by outcome",
		},
		[]string{"outcome"}, // outcome: success, transport_error, http_status_error, decode_error
	)

	LimitRefreshDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "agegate_limit_refresh_duration_seconds",
			Help:    "Time taken for one limit fetch-and-decode cycle",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
	)

	AgeLimitSeconds = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "agegate_age_limit_seconds",
			Help: "Currently published age limit in seconds",
		},
	)

	// Evaluation metrics
	EventsEvaluatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "agegate_events_evaluated_total",
			Help: "Total number of events evaluated against the age limit",
		},
	)

	EventsExpiredTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "agegate_events_expired_total",
			Help: "Total number of events whose age exceeded the limit",
		},
	)

	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agegate_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "agegate_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint", "status"},
	)

	// Ingest metrics
	IngestEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agegate_ingest_events_total",
			Help: "Total number of events received",
		},
		[]string{"status"}, // status: accepted, rejected
	)

	// Worker metrics
	WorkerQueueSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "agegate_worker_queue_size",
			Help: "Current size of the worker queue",
		},
	)

	WorkerQueueCapacity = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "agegate_worker_queue_capacity",
			Help: "Capacity of the worker queue",
		},
	)

	WorkerProcessedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "agegate_worker_processed_total",
			Help: "Total number of events processed by workers",
		},
	)

	WorkerFailedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "agegate_worker_failed_total",
			Help: "Total number of events failed in workers",
		},
	)

	// Kafka producer metrics
	KafkaPublishTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agegate_kafka_publish_total",
			Help: "Total number of messages published to Kafka",
		},
		[]string{"status"}, // status: success, failed
	)

	KafkaPublishDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "agegate_kafka_publish_duration_seconds",
			Help:    "Time taken to publish to Kafka",
			Buckets: []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
	)

	KafkaPublishRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "agegate_kafka_publish_retries_total",
			Help: "Total number of Kafka publish retries",
		},
	)

	// Panic recovery
	PanicsRecovered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agegate_panics_recovered_total",
			Help: "Total number of panics recovered",
		},
		[]string{"component"},
	)
)
