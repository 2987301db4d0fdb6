// Package metrics provides Prometheus metrics for the opstrack session tracker.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default metrics configuration constants.
const (
	defaultRefreshInterval = 10 * time.Second
)

// Manager manages all Prometheus metrics for the opstrack service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Feed Metrics - Inbound websocket traffic
	messagesReceived  *prometheus.CounterVec
	messagesDuplicate prometheus.Counter
	messagesMalformed prometheus.Counter
	eventsRouted      *prometheus.CounterVec

	// Queue Metrics - Ingest queue health
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueUtilization   prometheus.Gauge
	queueEnqueueRate   prometheus.Counter
	queueDequeueRate   prometheus.Counter
	queueEnqueueErrors prometheus.Counter

	// Tracking Metrics - Roster and derived state scale
	trackedPlayers       prometheus.Gauge
	onlinePlayers        prometheus.Gauge
	trackedRouters       prometheus.Gauge
	subscriptionRequests prometheus.Counter

	// Correlation Metrics - Quality of derived links
	revivesLinked     prometheus.Counter
	correlationMisses prometheus.Counter
	unresolvedLookups prometheus.Counter

	// Report Metrics
	reportLatency prometheus.Histogram
	reportErrors  prometheus.Counter
	lookupLatency prometheus.Histogram

	// HTTP Performance Metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Error Metrics
	errorRateByComponent *prometheus.CounterVec

	// System Metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
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
		namespace:        "opstrack",
		subsystem:        "tracker",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		customLabels:     make(map[string]string),
		metricPrefix:     "",
		registry:         prometheus.DefaultRegisterer,
	}

	// Apply all options
	for _, opt := range opts {
		opt(m)
	}

	// Initialize metrics
	m.initializeMetrics()

	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	// Ensure metrics are registered on the configured registry (custom by default)
	auto := promauto.With(m.registry)

	m.messagesReceived = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "messages_received_total",
			Help:      "Total number of raw feed messages received by channel",
		},
		[]string{"channel"},
	)

	m.messagesDuplicate = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "messages_duplicate_total",
		Help:      "Total number of duplicate feed messages rejected by the dedup window",
	})

	m.messagesMalformed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "messages_malformed_total",
		Help:      "Total number of feed messages dropped as malformed",
	})

	m.eventsRouted = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "events_routed_total",
			Help:      "Total number of parsed events routed to trackers by type",
		},
		[]string{"type"},
	)

	m.queueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "ingest_queue_size",
		Help:      "Current size of the ingest queue (backlog indicator)",
	})

	m.queueCapacity = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "ingest_queue_capacity",
		Help:      "Maximum ingest queue capacity",
	})

	m.queueUtilization = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "ingest_queue_utilization_ratio",
		Help:      "Ingest queue utilization ratio (current size / capacity)",
	})

	m.queueEnqueueRate = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "ingest_queue_enqueue_total",
		Help:      "Total number of messages enqueued for dispatch",
	})

	m.queueDequeueRate = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "ingest_queue_dequeue_total",
		Help:      "Total number of messages dequeued by the dispatcher",
	})

	m.queueEnqueueErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "ingest_queue_enqueue_errors_total",
		Help:      "Total number of enqueue failures (queue full or closed)",
	})

	m.trackedPlayers = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "tracked_players",
		Help:      "Total number of players currently tracked",
	})

	m.onlinePlayers = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "online_players",
		Help:      "Number of tracked players currently online",
	})

	m.trackedRouters = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "tracked_routers",
		Help:      "Total number of deployable devices tracked this session",
	})

	m.subscriptionRequests = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "subscription_requests_total",
		Help:      "Total number of subscription batches sent to the feed",
	})

	m.revivesLinked = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "revives_linked_total",
		Help:      "Total number of death events linked to a revive",
	})

	m.correlationMisses = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "correlation_misses_total",
		Help:      "Total number of correlation lookups that found no prior event",
	})

	m.unresolvedLookups = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "unresolved_lookups_total",
		Help:      "Total number of IDs that resolved to a placeholder record",
	})

	m.reportLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "report_generation_latency_milliseconds",
		Help:      "Report generation latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.reportErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "report_errors_total",
		Help:      "Total number of report generation errors",
	})

	m.lookupLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "lookup_latency_milliseconds",
		Help:      "Metadata lookup latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by endpoint and method",
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_request_duration_milliseconds",
			Help:      "HTTP request duration in milliseconds",
			Buckets:   m.histogramBuckets,
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.errorRateByComponent = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "errors_by_component_total",
			Help:      "Total number of errors by component",
		},
		[]string{"component", "error_type"},
	)

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_memory_usage_bytes",
		Help:      "Current heap memory usage in bytes",
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_goroutines",
		Help:      "Current number of goroutines",
	})

	m.systemGCPauseTime = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_gc_pause_milliseconds",
		Help:      "Average garbage collection pause time in milliseconds",
		Buckets:   m.histogramBuckets,
	})
}

// RecordMessageReceived increments the raw message counter for a feed channel.
func RecordMessageReceived(channel string) {
	globalManager.messagesReceived.WithLabelValues(channel).Inc()
}

// RecordMessageDuplicate increments the duplicate message counter.
func RecordMessageDuplicate() {
	globalManager.messagesDuplicate.Inc()
}

// RecordMessageMalformed increments the malformed message counter.
func RecordMessageMalformed() {
	globalManager.messagesMalformed.Inc()
}

// RecordEventRouted increments the routed events counter for an event type.
func RecordEventRouted(eventType string) {
	globalManager.eventsRouted.WithLabelValues(eventType).Inc()
}

// UpdateQueueSize sets the current ingest queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the maximum ingest queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// UpdateQueueUtilization sets the ingest queue utilization ratio.
func UpdateQueueUtilization(utilization float64) {
	globalManager.queueUtilization.Set(utilization)
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	globalManager.queueEnqueueRate.Inc()
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	globalManager.queueDequeueRate.Inc()
}

// RecordQueueEnqueueError increments the enqueue error counter.
func RecordQueueEnqueueError() {
	globalManager.queueEnqueueErrors.Inc()
}

// UpdateTrackedPlayers sets the tracked players count.
func UpdateTrackedPlayers(count int) {
	globalManager.trackedPlayers.Set(float64(count))
}

// UpdateOnlinePlayers sets the online players count.
func UpdateOnlinePlayers(count int) {
	globalManager.onlinePlayers.Set(float64(count))
}

// UpdateTrackedRouters sets the tracked routers count.
func UpdateTrackedRouters(count int) {
	globalManager.trackedRouters.Set(float64(count))
}

// RecordSubscriptionRequest increments the subscription batches counter.
func RecordSubscriptionRequest() {
	globalManager.subscriptionRequests.Inc()
}

// RecordReviveLinked increments the linked revives counter.
func RecordReviveLinked() {
	globalManager.revivesLinked.Inc()
}

// RecordCorrelationMiss increments the correlation misses counter.
func RecordCorrelationMiss() {
	globalManager.correlationMisses.Inc()
}

// RecordUnresolvedLookup increments the placeholder-resolution counter.
func RecordUnresolvedLookup() {
	globalManager.unresolvedLookups.Inc()
}

// RecordReportLatency records report generation latency in milliseconds.
func RecordReportLatency(latencyMs float64) {
	globalManager.reportLatency.Observe(latencyMs)
}

// RecordReportError increments the report errors counter.
func RecordReportError() {
	globalManager.reportErrors.Inc()
}

// RecordLookupLatency records metadata lookup latency in milliseconds.
func RecordLookupLatency(latencyMs float64) {
	globalManager.lookupLatency.Observe(latencyMs)
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

// UpdateSystemMemoryUsage sets the current heap memory usage.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the current goroutine count.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records an average GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
