package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Classification Metrics
var (
	// ClassificationsTotal tracks classified texts by resulting label
	ClassificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tweetpulse_classifications_total",
			Help: "Total classified texts by sentiment label",
		},
		[]string{"label"},
	)

	// ClassificationDuration tracks single-text classification latency in seconds
	ClassificationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tweetpulse_classification_duration_seconds",
			Help:    "Time to classify a single text",
			Buckets: []float64{.00001, .00005, .0001, .0005, .001, .005, .01},
		},
	)
)

// Ingest Metrics
var (
	// IngestRunsTotal tracks ingest runs by trigger (cli, web, cron) and result
	IngestRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tweetpulse_ingest_runs_total",
			Help: "Total ingest runs by trigger and result",
		},
		[]string{"trigger", "result"},
	)

	// IngestDuration tracks full ingest run duration in seconds
	IngestDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tweetpulse_ingest_duration_seconds",
			Help:    "Ingest run duration in seconds",
			Buckets: []float64{.1, .5, 1, 2.5, 5, 10, 30, 60, 120},
		},
	)

	// IngestSkippedRows tracks dataset rows skipped as unparsable
	IngestSkippedRows = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tweetpulse_ingest_skipped_rows_total",
			Help: "Total dataset rows skipped because text or time was unusable",
		},
	)

	// StoredTweets tracks the number of tweets stored per label after the last run
	StoredTweets = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "tweetpulse_stored_tweets",
			Help: "Tweets stored after the last ingest run, by sentiment label",
		},
		[]string{"label"},
	)
)

// HTTP Metrics
var (
	// PredictRequestsTotal tracks /predict requests by response status class
	PredictRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tweetpulse_predict_requests_total",
			Help: "Total prediction requests by outcome",
		},
		[]string{"outcome"},
	)

	// HTTPErrorsTotal tracks JSON error responses by error type
	HTTPErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tweetpulse_http_errors_total",
			Help: "Total HTTP error responses by error type",
		},
		[]string{"type"},
	)

	// HTTPRequestDuration tracks request latency by route pattern
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tweetpulse_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds by route",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)
)
