// Package metrics provides Prometheus metrics for the duel reaction game.
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

// reactionBuckets covers human reaction times in milliseconds; the upper
// buckets line up with the 2s response timeout.
var reactionBuckets = []float64{100, 150, 200, 250, 300, 350, 400, 500, 650, 800, 1000, 1500, 2000} //nolint:gochecknoglobals // bucket layout

// Manager manages all Prometheus metrics for the duel service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Round Metrics - what the engine decided
	roundsTotal       *prometheus.CounterVec
	cuesTotal         *prometheus.CounterVec
	capturesTotal     *prometheus.CounterVec
	reactionTime      prometheus.Histogram
	falseStarts       prometheus.Counter
	samplerPollCycles prometheus.Counter
	matchesStarted    prometheus.Counter
	matchesConcluded  prometheus.Counter

	// Standings Metrics
	standingsPlayers prometheus.Gauge
	historySize      prometheus.Gauge

	// Queue Metrics - key events and round reports
	queueSize              *prometheus.GaugeVec
	queueCapacity          *prometheus.GaugeVec
	queueUtilization       *prometheus.GaugeVec
	queueEnqueueRate       *prometheus.CounterVec
	queueDequeueRate       *prometheus.CounterVec
	queueEnqueueErrors     *prometheus.CounterVec
	queueProcessingLatency prometheus.Histogram

	// Worker Metrics - report recorders
	workerActiveCount       prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrorRate         prometheus.Counter

	// Live feed
	liveSubscribers prometheus.Gauge
	liveDropped     prometheus.Counter

	// HTTP Performance Metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Error Metrics
	errorRateByComponent *prometheus.CounterVec
	errorRateByType      *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec
	errorLatency         *prometheus.HistogramVec

	// System Performance Metrics
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
		namespace:        "duel",
		subsystem:        "game",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		customLabels:     make(map[string]string),
		metricPrefix:     "",
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) name(base string) string {
	if m.metricPrefix == "" {
		return base
	}
	return m.metricPrefix + "_" + base
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)
	constLabels := prometheus.Labels(m.customLabels)

	m.roundsTotal = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("rounds_total"),
		Help:        "Total number of resolved rounds by outcome",
		ConstLabels: constLabels,
	}, []string{"outcome"})

	m.cuesTotal = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("cues_total"),
		Help:        "Total number of cues shown by kind",
		ConstLabels: constLabels,
	}, []string{"kind"})

	m.capturesTotal = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("captures_total"),
		Help:        "Total number of first-press captures by detection path",
		ConstLabels: constLabels,
	}, []string{"source"})

	m.reactionTime = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("reaction_time_milliseconds"),
		Help:        "Winning and faulting reaction times in milliseconds",
		Buckets:     reactionBuckets,
		ConstLabels: constLabels,
	})

	m.falseStarts = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("false_starts_total"),
		Help:        "Total number of presses during the waiting phase",
		ConstLabels: constLabels,
	})

	m.samplerPollCycles = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("sampler_poll_cycles_total"),
		Help:        "Total number of sampler cycles run while capturing",
		ConstLabels: constLabels,
	})

	m.matchesStarted = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("matches_started_total"),
		Help:        "Total number of matches started",
		ConstLabels: constLabels,
	})

	m.matchesConcluded = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("matches_concluded_total"),
		Help:        "Total number of matches that reached the target score",
		ConstLabels: constLabels,
	})

	m.standingsPlayers = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("standings_players"),
		Help:        "Number of players tracked in the session standings",
		ConstLabels: constLabels,
	})

	m.historySize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("history_size"),
		Help:        "Number of round reports retained in the session history",
		ConstLabels: constLabels,
	})

	m.queueSize = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("queue_size"),
		Help:        "Current size of a queue",
		ConstLabels: constLabels,
	}, []string{"queue"})

	m.queueCapacity = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("queue_capacity"),
		Help:        "Maximum capacity of a queue",
		ConstLabels: constLabels,
	}, []string{"queue"})

	m.queueUtilization = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("queue_utilization_ratio"),
		Help:        "Queue utilization ratio (size / capacity)",
		ConstLabels: constLabels,
	}, []string{"queue"})

	m.queueEnqueueRate = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("queue_enqueue_total"),
		Help:        "Total number of enqueue operations",
		ConstLabels: constLabels,
	}, []string{"queue"})

	m.queueDequeueRate = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("queue_dequeue_total"),
		Help:        "Total number of dequeue operations",
		ConstLabels: constLabels,
	}, []string{"queue"})

	m.queueEnqueueErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("queue_enqueue_errors_total"),
		Help:        "Total number of rejected enqueue operations",
		ConstLabels: constLabels,
	}, []string{"queue"})

	m.queueProcessingLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("queue_processing_latency_milliseconds"),
		Help:        "Enqueue latency in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: constLabels,
	})

	m.workerActiveCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("worker_active_count"),
		Help:        "Number of report recorder workers",
		ConstLabels: constLabels,
	})

	m.workerProcessingLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("worker_processing_latency_milliseconds"),
		Help:        "Time spent recording one round report in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: constLabels,
	})

	m.workerErrorRate = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("worker_errors_total"),
		Help:        "Total number of report recorder errors",
		ConstLabels: constLabels,
	})

	m.liveSubscribers = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("live_subscribers"),
		Help:        "Number of connected live feed subscribers",
		ConstLabels: constLabels,
	})

	m.liveDropped = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("live_dropped_total"),
		Help:        "Total number of live feed messages dropped for slow subscribers",
		ConstLabels: constLabels,
	})

	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.name("http_requests_total"),
			Help:        "Total number of HTTP requests by endpoint and method",
			ConstLabels: constLabels,
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.name("http_request_duration_milliseconds"),
			Help:        "HTTP request duration in milliseconds",
			Buckets:     m.histogramBuckets,
			ConstLabels: constLabels,
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.errorRateByComponent = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.name("errors_by_component_total"),
			Help:        "Total number of errors by component",
			ConstLabels: constLabels,
		},
		[]string{"component", "error_type"},
	)

	m.errorRateByType = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.name("errors_by_type_total"),
			Help:        "Total number of errors by type",
			ConstLabels: constLabels,
		},
		[]string{"error_type", "severity"},
	)

	m.errorRateByEndpoint = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.name("errors_by_endpoint_total"),
			Help:        "Total number of errors by endpoint",
			ConstLabels: constLabels,
		},
		[]string{"endpoint", "method", "error_type"},
	)

	m.errorLatency = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.name("error_latency_milliseconds"),
			Help:        "Latency of operations that resulted in errors",
			Buckets:     m.histogramBuckets,
			ConstLabels: constLabels,
		},
		[]string{"component", "error_type"},
	)

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("system_memory_usage_bytes"),
		Help:        "System memory usage in bytes",
		ConstLabels: constLabels,
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("system_goroutine_count"),
		Help:        "Number of goroutines",
		ConstLabels: constLabels,
	})

	m.systemGCPauseTime = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("system_gc_pause_time_milliseconds"),
		Help:        "GC pause time in milliseconds",
		Buckets:     []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
		ConstLabels: constLabels,
	})
}

// Round Metrics Functions.

// RecordRound increments the resolved round counter for an outcome label.
func RecordRound(outcome string) {
	if !globalManager.enabled {
		return
	}
	globalManager.roundsTotal.WithLabelValues(outcome).Inc()
}

// RecordCue increments the cue counter for a cue kind label.
func RecordCue(kind string) {
	if !globalManager.enabled {
		return
	}
	globalManager.cuesTotal.WithLabelValues(kind).Inc()
}

// RecordCapture increments the capture counter for a detection path label.
func RecordCapture(source string) {
	if !globalManager.enabled {
		return
	}
	globalManager.capturesTotal.WithLabelValues(source).Inc()
}

// RecordReactionTime records a reaction time in milliseconds.
func RecordReactionTime(latencyMs float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.reactionTime.Observe(latencyMs)
}

// RecordFalseStart increments the false start counter.
func RecordFalseStart() {
	if !globalManager.enabled {
		return
	}
	globalManager.falseStarts.Inc()
}

// RecordSamplerCycles adds n sampler cycles.
func RecordSamplerCycles(n int) {
	if !globalManager.enabled || n <= 0 {
		return
	}
	globalManager.samplerPollCycles.Add(float64(n))
}

// RecordMatchStarted increments the started matches counter.
func RecordMatchStarted() {
	if !globalManager.enabled {
		return
	}
	globalManager.matchesStarted.Inc()
}

// RecordMatchConcluded increments the concluded matches counter.
func RecordMatchConcluded() {
	if !globalManager.enabled {
		return
	}
	globalManager.matchesConcluded.Inc()
}

// UpdateStandingsPlayers sets the number of players in the standings.
func UpdateStandingsPlayers(count int) {
	globalManager.standingsPlayers.Set(float64(count))
}

// UpdateHistorySize sets the number of retained round reports.
func UpdateHistorySize(count int) {
	globalManager.historySize.Set(float64(count))
}

// Queue Metrics Functions.

// UpdateQueueSize sets the current size of the named queue.
func UpdateQueueSize(queue string, size int) {
	globalManager.queueSize.WithLabelValues(queue).Set(float64(size))
}

// UpdateQueueCapacity sets the maximum capacity of the named queue.
func UpdateQueueCapacity(queue string, capacity int) {
	globalManager.queueCapacity.WithLabelValues(queue).Set(float64(capacity))
}

// UpdateQueueUtilization sets the utilization ratio of the named queue.
func UpdateQueueUtilization(queue string, utilization float64) {
	globalManager.queueUtilization.WithLabelValues(queue).Set(utilization)
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue(queue string) {
	globalManager.queueEnqueueRate.WithLabelValues(queue).Inc()
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue(queue string) {
	globalManager.queueDequeueRate.WithLabelValues(queue).Inc()
}

// RecordQueueEnqueueError increments the enqueue error counter.
func RecordQueueEnqueueError(queue string) {
	globalManager.queueEnqueueErrors.WithLabelValues(queue).Inc()
}

// RecordQueueProcessingLatency records queue processing latency.
func RecordQueueProcessingLatency(latencyMs float64) {
	globalManager.queueProcessingLatency.Observe(latencyMs)
}

// Worker Metrics Functions.

// UpdateWorkerActiveCount sets the number of active workers.
func UpdateWorkerActiveCount(count int) {
	globalManager.workerActiveCount.Set(float64(count))
}

// RecordWorkerProcessingLatency records worker processing latency.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() {
	globalManager.workerErrorRate.Inc()
}

// Live Feed Metrics Functions.

// UpdateLiveSubscribers sets the number of live feed subscribers.
func UpdateLiveSubscribers(count int) {
	globalManager.liveSubscribers.Set(float64(count))
}

// RecordLiveDropped increments the dropped live message counter.
func RecordLiveDropped() {
	globalManager.liveDropped.Inc()
}

// HTTP Metrics Functions.

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// Error Metrics Functions.

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

// System Performance Metrics Functions.

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

// RefreshInterval reports how often background updaters should refresh gauges.
func RefreshInterval() time.Duration {
	return globalManager.refreshInterval
}
