package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsRegistration(t *testing.T) {
	metrics := []prometheus.Collector{
		ClassificationsTotal,
		ClassificationDuration,
		IngestRunsTotal,
		IngestDuration,
		IngestSkippedRows,
		StoredTweets,
		PredictRequestsTotal,
		HTTPErrorsTotal,
		HTTPRequestDuration,
	}

	for _, metric := range metrics {
		desc := make(chan *prometheus.Desc, 1)
		metric.Describe(desc)
		close(desc)

		require.NotNil(t, <-desc, "metric should have a valid descriptor")
	}
}

func TestCounterMetrics(t *testing.T) {
	tests := []struct {
		name    string
		metric  *prometheus.CounterVec
		labels  prometheus.Labels
		incBy   int
		wantVal float64
	}{
		{
			name:    "classifications counter",
			metric:  ClassificationsTotal,
			labels:  prometheus.Labels{"label": "positive"},
			incBy:   5,
			wantVal: 5,
		},
		{
			name:    "ingest runs counter",
			metric:  IngestRunsTotal,
			labels:  prometheus.Labels{"trigger": "cron", "result": "success"},
			incBy:   2,
			wantVal: 2,
		},
		{
			name:    "predict requests counter",
			metric:  PredictRequestsTotal,
			labels:  prometheus.Labels{"outcome": "ok"},
			incBy:   3,
			wantVal: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.metric.Reset()

			for i := 0; i < tt.incBy; i++ {
				tt.metric.With(tt.labels).Inc()
			}

			val := testutil.ToFloat64(tt.metric.With(tt.labels))
			assert.Equal(t, tt.wantVal, val)
		})
	}
}

func TestStoredTweetsGauge(t *testing.T) {
	StoredTweets.WithLabelValues("neutral").Set(42)
	assert.Equal(t, float64(42), testutil.ToFloat64(StoredTweets.WithLabelValues("neutral")))
}
