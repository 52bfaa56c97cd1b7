// Package metrics provides Prometheus metrics for the PPR forecasting pipeline.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Fetch latency buckets in milliseconds. Season-log pages are slow.
var defaultFetchBuckets = []float64{50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000} //nolint:gochecknoglobals // bucket table

// Manager manages all Prometheus metrics for the pipeline.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Scrape metrics
	playersProcessed prometheus.Counter
	playersSkipped   *prometheus.CounterVec
	fetches          *prometheus.CounterVec
	fetchLatency     prometheus.Histogram

	// Output metrics
	rowsWritten     *prometheus.CounterVec
	examplesDropped prometheus.Counter

	// Model metrics
	modelTestMSE     prometheus.Gauge
	modelTestR2      prometheus.Gauge
	modelTrainRows   prometheus.Gauge
	modelFeatures    prometheus.Gauge
	predictionsTotal prometheus.Counter

	// Leaderboard metrics
	leaderboardPlayers prometheus.Gauge

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorsByComponent   *prometheus.CounterVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "pprforecast",
		subsystem:        "pipeline",
		histogramBuckets: defaultFetchBuckets,
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()
	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // flat list of metric definitions
	auto := promauto.With(m.registry)

	m.playersProcessed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "players_processed_total",
		Help:      "Players whose season log was fetched and written",
	})

	m.playersSkipped = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "players_skipped_total",
		Help:      "Players skipped, by cause",
	}, []string{"cause"})

	m.fetches = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "fetches_total",
		Help:      "Outbound page fetches by page kind and HTTP status",
	}, []string{"page", "status_code"})

	m.fetchLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "fetch_latency_milliseconds",
		Help:      "Latency of outbound page fetches, excluding pacing delay",
		Buckets:   m.histogramBuckets,
	})

	m.rowsWritten = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "rows_written_total",
		Help:      "Rows written to output files, by file kind",
	}, []string{"file"})

	m.examplesDropped = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "examples_dropped_total",
		Help:      "Training examples dropped because their window had no games played",
	})

	m.modelTestMSE = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "model",
		Name:      "test_mse",
		Help:      "Mean squared error of the last trained model on the held-out split",
	})

	m.modelTestR2 = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "model",
		Name:      "test_r2",
		Help:      "R-squared of the last trained model on the held-out split",
	})

	m.modelTrainRows = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "model",
		Name:      "train_rows",
		Help:      "Rows used to fit the last trained model",
	})

	m.modelFeatures = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "model",
		Name:      "features",
		Help:      "Number of input features of the last trained model",
	})

	m.predictionsTotal = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "model",
		Name:      "predictions_total",
		Help:      "Predictions produced",
	})

	m.leaderboardPlayers = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "leaderboard",
		Name:      "players",
		Help:      "Players loaded into the leaderboard",
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total number of HTTP requests by endpoint and method",
	}, []string{"endpoint", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "http",
		Name:      "request_duration_milliseconds",
		Help:      "HTTP request duration in milliseconds",
		Buckets:   prometheus.DefBuckets,
	}, []string{"endpoint", "method", "status_code"})

	m.errorsByComponent = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "errors_total",
		Help:      "Errors by component and type",
	}, []string{"component", "error_type"})
}

// RecordPlayerProcessed increments the processed players counter.
func RecordPlayerProcessed() {
	globalManager.playersProcessed.Inc()
}

// RecordPlayerSkipped increments the skipped players counter for cause.
func RecordPlayerSkipped(cause string) {
	globalManager.playersSkipped.WithLabelValues(cause).Inc()
}

// RecordFetch counts one fetch of page kind with the given status code.
// A status code of 0 means the request never produced a response.
func RecordFetch(page string, statusCode int) {
	globalManager.fetches.WithLabelValues(page, fmt.Sprintf("%d", statusCode)).Inc()
}

// RecordFetchLatency records fetch latency in milliseconds.
func RecordFetchLatency(latencyMs float64) {
	globalManager.fetchLatency.Observe(latencyMs)
}

// RecordRowsWritten adds n rows to the counter for file kind.
func RecordRowsWritten(file string, n int) {
	globalManager.rowsWritten.WithLabelValues(file).Add(float64(n))
}

// RecordExampleDropped increments the dropped examples counter.
func RecordExampleDropped() {
	globalManager.examplesDropped.Inc()
}

// UpdateModelQuality sets the held-out quality gauges.
func UpdateModelQuality(mse, r2 float64) {
	globalManager.modelTestMSE.Set(mse)
	globalManager.modelTestR2.Set(r2)
}

// UpdateModelShape sets the training rows and feature count gauges.
func UpdateModelShape(rows, features int) {
	globalManager.modelTrainRows.Set(float64(rows))
	globalManager.modelFeatures.Set(float64(features))
}

// RecordPredictions adds n to the predictions counter.
func RecordPredictions(n int) {
	globalManager.predictionsTotal.Add(float64(n))
}

// UpdateLeaderboardPlayers sets the number of players in the leaderboard.
func UpdateLeaderboardPlayers(count int) {
	globalManager.leaderboardPlayers.Set(float64(count))
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// WriteTextfile writes the current registry to path in the text exposition
// format, for node_exporter's textfile collector.
func WriteTextfile(path string) error {
	if path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, customRegistry); err != nil {
		return fmt.Errorf("%w: %w", ErrWriteTextfile, err)
	}
	return nil
}
