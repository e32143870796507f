// Package metrics provides Prometheus metrics for the gigmatch matching service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the matching service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Matching
	rankRequests            prometheus.Counter
	rankLatency             prometheus.Histogram
	candidatesScored        prometheus.Counter
	scoringLatency          prometheus.Histogram
	dimensionFailures       *prometheus.CounterVec
	matchesByBucket         *prometheus.CounterVec
	scoringDeadlineExceeded prometheus.Counter
	inlineFallbacks         prometheus.Counter

	// Weights
	weightOps    *prometheus.CounterVec
	weightsTotal prometheus.Gauge
	cacheLookups *prometheus.CounterVec

	// Engagements
	engagementsCreated prometheus.Counter
	transitions        *prometheus.CounterVec
	illegalTransitions prometheus.Counter

	// Queue
	queueSize        prometheus.Gauge
	queueCapacity    prometheus.Gauge
	queueUtilization prometheus.Gauge
	queueEnqueue     prometheus.Counter
	queueDequeue     prometheus.Counter
	queueEnqueueErr  prometheus.Counter

	// Workers
	workerCount             prometheus.Gauge
	workerActiveCount       prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrors            prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorsByComponent *prometheus.CounterVec
	errorsByEndpoint  *prometheus.CounterVec

	// System
	memoryUsage    prometheus.Gauge
	goroutineCount prometheus.Gauge
	gcPauseTime    prometheus.Histogram
	uptime         prometheus.Gauge
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "gigmatch",
		subsystem:        "matching",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	})
}

func (m *Manager) histogram(name, help string) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
		Buckets: m.histogramBuckets,
	})
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	m.rankRequests = m.counter("rank_requests_total", "Total number of ranking requests")
	m.rankLatency = m.histogram("rank_latency_milliseconds", "End-to-end ranking latency in milliseconds")
	m.candidatesScored = m.counter("candidates_scored_total", "Total number of agent/gig pairs scored")
	m.scoringLatency = m.histogram("scoring_latency_milliseconds", "Latency of a single pair score in milliseconds")
	m.dimensionFailures = m.counterVec("dimension_failures_total",
		"Dimensions that failed closed due to invalid input", "dimension")
	m.matchesByBucket = m.counterVec("matches_by_bucket_total", "Ranked matches by bucket", "bucket")
	m.scoringDeadlineExceeded = m.counter("scoring_deadline_exceeded_total",
		"Candidates failed closed because the ranking deadline expired")
	m.inlineFallbacks = m.counter("scoring_inline_fallback_total",
		"Candidates scored inline because the scoring queue was full")

	m.weightOps = m.counterVec("weight_operations_total", "Weight store operations", "op", "result")
	m.weightsTotal = m.gauge("weights_configured", "Number of gigs with configured weights")
	m.cacheLookups = m.counterVec("cache_lookups_total", "Read-through cache lookups", "cache", "result")

	m.engagementsCreated = m.counter("engagements_created_total", "Total number of engagements created")
	m.transitions = m.counterVec("engagement_transitions_total", "Engagement status transitions", "from", "to")
	m.illegalTransitions = m.counter("engagement_illegal_transitions_total", "Rejected engagement transitions")

	m.queueSize = m.gauge("queue_size", "Current number of scoring jobs waiting")
	m.queueCapacity = m.gauge("queue_capacity", "Maximum scoring queue capacity")
	m.queueUtilization = m.gauge("queue_utilization_ratio", "Queue utilization ratio (current size / capacity)")
	m.queueEnqueue = m.counter("queue_enqueue_total", "Total number of scoring jobs enqueued")
	m.queueDequeue = m.counter("queue_dequeue_total", "Total number of scoring jobs dequeued")
	m.queueEnqueueErr = m.counter("queue_enqueue_errors_total", "Total number of rejected enqueues")

	m.workerCount = m.gauge("worker_count", "Configured number of scoring workers")
	m.workerActiveCount = m.gauge("worker_active_count", "Number of running scoring workers")
	m.workerProcessingLatency = m.histogram("worker_processing_latency_milliseconds",
		"Worker job processing latency in milliseconds")
	m.workerErrors = m.counter("worker_errors_total", "Total number of worker errors")

	m.httpRequests = m.counterVec("http_requests_total",
		"Total number of HTTP requests by endpoint and method", "endpoint", "method", "status_code")
	m.httpRequestDuration = promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_milliseconds",
		Help:      "HTTP request duration in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})

	m.errorsByComponent = m.counterVec("errors_by_component_total",
		"Total number of errors by component", "component", "error_type")
	m.errorsByEndpoint = m.counterVec("errors_by_endpoint_total",
		"Total number of errors by endpoint", "endpoint", "method", "error_type")

	m.memoryUsage = m.gauge("system_memory_usage_bytes", "System memory usage in bytes")
	m.goroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
	m.gcPauseTime = m.histogram("system_gc_pause_time_milliseconds", "Last garbage collection pause in milliseconds")
	m.uptime = m.gauge("uptime_seconds", "Seconds since the service started")
}

// RecordRankRequest increments the ranking request counter.
func RecordRankRequest() { globalManager.rankRequests.Inc() }

// RecordRankLatency records end-to-end ranking latency.
func RecordRankLatency(latencyMs float64) { globalManager.rankLatency.Observe(latencyMs) }

// RecordCandidateScored increments the scored pairs counter.
func RecordCandidateScored() { globalManager.candidatesScored.Inc() }

// RecordScoringLatency records single pair scoring latency in milliseconds.
func RecordScoringLatency(latencyMs float64) { globalManager.scoringLatency.Observe(latencyMs) }

// RecordDimensionFailure counts a dimension that failed closed.
func RecordDimensionFailure(dimension string) {
	globalManager.dimensionFailures.WithLabelValues(dimension).Inc()
}

// RecordMatchBucket counts a ranked match in its bucket.
func RecordMatchBucket(bucket string) { globalManager.matchesByBucket.WithLabelValues(bucket).Inc() }

// RecordScoringDeadlineExceeded counts candidates dropped by the ranking deadline.
func RecordScoringDeadlineExceeded(n int) { globalManager.scoringDeadlineExceeded.Add(float64(n)) }

// RecordInlineFallback counts a candidate scored outside the pool.
func RecordInlineFallback() { globalManager.inlineFallbacks.Inc() }

// RecordWeightOperation counts a weight store operation by outcome.
func RecordWeightOperation(op, result string) {
	globalManager.weightOps.WithLabelValues(op, result).Inc()
}

// UpdateWeightsTotal sets the number of gigs with stored weights.
func UpdateWeightsTotal(count int) { globalManager.weightsTotal.Set(float64(count)) }

// RecordCacheLookup counts a cache hit or miss.
func RecordCacheLookup(cache, result string) {
	globalManager.cacheLookups.WithLabelValues(cache, result).Inc()
}

// RecordEngagementCreated increments the engagement creation counter.
func RecordEngagementCreated() { globalManager.engagementsCreated.Inc() }

// RecordTransition counts an accepted status transition.
func RecordTransition(from, to string) { globalManager.transitions.WithLabelValues(from, to).Inc() }

// RecordIllegalTransition counts a rejected status transition.
func RecordIllegalTransition() { globalManager.illegalTransitions.Inc() }

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) { globalManager.queueSize.Set(float64(size)) }

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) { globalManager.queueCapacity.Set(float64(capacity)) }

// UpdateQueueUtilization sets the queue utilization ratio.
func UpdateQueueUtilization(utilization float64) { globalManager.queueUtilization.Set(utilization) }

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() { globalManager.queueEnqueue.Inc() }

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() { globalManager.queueDequeue.Inc() }

// RecordQueueEnqueueError increments the enqueue error counter.
func RecordQueueEnqueueError() { globalManager.queueEnqueueErr.Inc() }

// UpdateWorkerCount sets the configured worker count.
func UpdateWorkerCount(count int) { globalManager.workerCount.Set(float64(count)) }

// UpdateWorkerActiveCount sets the number of running workers.
func UpdateWorkerActiveCount(count int) { globalManager.workerActiveCount.Set(float64(count)) }

// RecordWorkerProcessingLatency records worker processing latency.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() { globalManager.workerErrors.Inc() }

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

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorsByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) { globalManager.memoryUsage.Set(float64(bytes)) }

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) { globalManager.goroutineCount.Set(float64(count)) }

// RecordSystemGCPauseTime records a garbage collection pause.
func RecordSystemGCPauseTime(pauseMs float64) { globalManager.gcPauseTime.Observe(pauseMs) }

// UpdateUptime sets the service uptime.
func UpdateUptime(seconds float64) { globalManager.uptime.Set(seconds) }

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
