// Package metrics provides Prometheus metrics for the marks service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Run outcomes.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Manager owns every Prometheus collector of the service.
type Manager struct {
	namespace      string
	runBuckets     []float64
	latencyBuckets []float64
	constLabels    prometheus.Labels
	registry       prometheus.Registerer

	// Pipeline
	runsTotal      *prometheus.CounterVec
	runErrors      *prometheus.CounterVec
	runDuration    prometheus.Histogram
	datasetSize    prometheus.Gauge
	passingCount   prometheus.Gauge
	failingCount   prometheus.Gauge
	gradesAssigned *prometheus.CounterVec

	// Stage cache
	stageCacheHits    prometheus.Counter
	stageCacheMisses  prometheus.Counter
	stageCacheEntries prometheus.Gauge

	// Workers
	workerCount             prometheus.Gauge
	workerProcessingLatency prometheus.Histogram

	// Sheets
	sheetsDecoded *prometheus.CounterVec
	sheetsEncoded *prometheus.CounterVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorRateByComponent *prometheus.CounterVec
	errorRateByType      *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec
	errorLatency         *prometheus.HistogramVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// customRegistry keeps default Go collectors out of /healthz.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithRegistry(customRegistry))
}

// NewManager creates a new metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:      "marks",
		runBuckets:     prometheus.ExponentialBuckets(0.05, 4, 10),
		latencyBuckets: prometheus.ExponentialBuckets(0.5, 2, 14),
		constLabels:    prometheus.Labels{},
		registry:       prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

// Collectors are grouped under <namespace>_<subsystem>_<name>.
const (
	subsystemGrading = "grading"
	subsystemHTTP    = "http"
	subsystemSystem  = "system"
	subsystemErrors  = "errors"
)

func (m *Manager) counterOpts(subsystem, name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{Namespace: m.namespace, Subsystem: subsystem, Name: name, Help: help, ConstLabels: m.constLabels}
}

func (m *Manager) gaugeOpts(subsystem, name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{Namespace: m.namespace, Subsystem: subsystem, Name: name, Help: help, ConstLabels: m.constLabels}
}

func (m *Manager) histogramOpts(subsystem, name, help string, buckets []float64) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{Namespace: m.namespace, Subsystem: subsystem, Name: name, Help: help, Buckets: buckets, ConstLabels: m.constLabels}
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)

	m.runsTotal = auto.NewCounterVec(m.counterOpts(subsystemGrading, "runs_total", "Grading runs by outcome"), []string{"outcome"})
	m.runErrors = auto.NewCounterVec(m.counterOpts(subsystemGrading, "run_errors_total", "Failed grading runs by error kind"), []string{"kind"})
	m.runDuration = auto.NewHistogram(m.histogramOpts(subsystemGrading, "run_duration_milliseconds", "Grading run duration in milliseconds", m.runBuckets))
	m.datasetSize = auto.NewGauge(m.gaugeOpts(subsystemGrading, "dataset_records", "Records in the current dataset"))
	m.passingCount = auto.NewGauge(m.gaugeOpts(subsystemGrading, "passing_records", "Records that cleared the ESE threshold in the last run"))
	m.failingCount = auto.NewGauge(m.gaugeOpts(subsystemGrading, "failing_records", "Records graded F by the ESE threshold in the last run"))
	m.gradesAssigned = auto.NewCounterVec(m.counterOpts(subsystemGrading, "grades_assigned_total", "Grades assigned by label"), []string{"grade"})

	m.stageCacheHits = auto.NewCounter(m.counterOpts(subsystemGrading, "stage_cache_hits_total", "Runs that reused cached stage outputs"))
	m.stageCacheMisses = auto.NewCounter(m.counterOpts(subsystemGrading, "stage_cache_misses_total", "Runs that had to map both stages"))
	m.stageCacheEntries = auto.NewGauge(m.gaugeOpts(subsystemGrading, "stage_cache_entries", "Cached stage output pairs"))

	m.workerCount = auto.NewGauge(m.gaugeOpts(subsystemGrading, "worker_count", "Workers used for parallel stage mapping"))
	m.workerProcessingLatency = auto.NewHistogram(m.histogramOpts(subsystemGrading, "worker_job_latency_milliseconds", "Per-record mapping latency in milliseconds", m.runBuckets))

	m.sheetsDecoded = auto.NewCounterVec(m.counterOpts(subsystemGrading, "sheets_decoded_total", "Uploaded sheets decoded by format"), []string{"format"})
	m.sheetsEncoded = auto.NewCounterVec(m.counterOpts(subsystemGrading, "sheets_encoded_total", "Exported sheets encoded by format"), []string{"format"})

	m.httpRequests = auto.NewCounterVec(
		m.counterOpts(subsystemHTTP, "requests_total", "Total number of HTTP requests by endpoint and method"),
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpRequestDuration = auto.NewHistogramVec(
		m.histogramOpts(subsystemHTTP, "request_duration_milliseconds", "HTTP request duration in milliseconds", m.latencyBuckets),
		[]string{"endpoint", "method", "status_code"},
	)

	m.errorRateByComponent = auto.NewCounterVec(m.counterOpts(subsystemErrors, "by_component_total", "Errors by component and type"), []string{"component", "error_type"})
	m.errorRateByType = auto.NewCounterVec(m.counterOpts(subsystemErrors, "by_type_total", "Errors by type and severity"), []string{"error_type", "severity"})
	m.errorRateByEndpoint = auto.NewCounterVec(m.counterOpts(subsystemErrors, "by_endpoint_total", "Errors by endpoint"), []string{"endpoint", "method", "error_type"})
	m.errorLatency = auto.NewHistogramVec(m.histogramOpts(subsystemErrors, "latency_milliseconds", "Latency of failed operations", m.latencyBuckets), []string{"component", "error_type"})

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts(subsystemSystem, "memory_bytes", "Allocated heap bytes"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts(subsystemSystem, "goroutines", "Number of goroutines"))
	m.systemGCPauseTime = auto.NewHistogram(m.histogramOpts(subsystemSystem, "gc_pause_milliseconds", "Average GC pause in milliseconds", m.latencyBuckets))
}

// RecordRun counts a finished run by outcome.
func RecordRun(outcome string) {
	globalManager.runsTotal.WithLabelValues(outcome).Inc()
}

// RecordRunError counts a failed run by error kind.
func RecordRunError(kind string) {
	globalManager.runErrors.WithLabelValues(kind).Inc()
}

// RecordRunDuration observes a run duration in milliseconds.
func RecordRunDuration(ms float64) {
	globalManager.runDuration.Observe(ms)
}

// UpdateDatasetSize sets the current dataset size.
func UpdateDatasetSize(n int) {
	globalManager.datasetSize.Set(float64(n))
}

// UpdatePartition sets the passing and failing gauges of the last run.
func UpdatePartition(passing, failing int) {
	globalManager.passingCount.Set(float64(passing))
	globalManager.failingCount.Set(float64(failing))
}

// RecordGrades adds n to the counter of grade.
func RecordGrades(grade string, n int) {
	if n <= 0 {
		return
	}
	globalManager.gradesAssigned.WithLabelValues(grade).Add(float64(n))
}

// RecordStageCacheHit counts a stage cache hit.
func RecordStageCacheHit() {
	globalManager.stageCacheHits.Inc()
}

// RecordStageCacheMiss counts a stage cache miss.
func RecordStageCacheMiss() {
	globalManager.stageCacheMisses.Inc()
}

// UpdateStageCacheEntries sets the number of cached stage pairs.
func UpdateStageCacheEntries(n int) {
	globalManager.stageCacheEntries.Set(float64(n))
}

// UpdateWorkerCount sets the current worker count.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// RecordWorkerProcessingLatency records per-job latency.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordSheetDecoded counts a decoded upload.
func RecordSheetDecoded(format string) {
	globalManager.sheetsDecoded.WithLabelValues(format).Inc()
}

// RecordSheetEncoded counts an encoded export.
func RecordSheetEncoded(format string) {
	globalManager.sheetsEncoded.WithLabelValues(format).Inc()
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
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByType records an error with type and severity labels.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordErrorLatency records the latency of an operation that resulted in an error.
func RecordErrorLatency(component, errorType string, latencyMs float64) {
	globalManager.errorLatency.WithLabelValues(component, errorType).Observe(latencyMs)
}

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
