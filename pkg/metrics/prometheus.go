// Package metrics provides Prometheus metrics for the plateduel rating service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the plateduel service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Core Business Metrics - the vote ledger is what really matters
	votesProcessed prometheus.Counter
	votesUndone    prometheus.Counter
	undoRejections *prometheus.CounterVec

	// Matchup Metrics
	matchupsGenerated prometheus.Counter
	matchupsExhausted prometheus.Counter

	// Replay Metrics - personal ranking reconstruction
	replaysComputed prometheus.Counter
	replayDuration  prometheus.Histogram

	// Store Metrics - transactional rating/ledger storage
	storeTxLatency prometheus.Histogram
	storeErrors    prometheus.Counter

	// Queue Metrics - rating event fan-out
	queueSize     prometheus.Gauge
	queueCapacity prometheus.Gauge
	queueEnqueues prometheus.Counter
	queueDequeues prometheus.Counter
	queueDropped  prometheus.Counter

	// Rank View Metrics - leaderboard read model snapshots
	rankViewSnapshotDuration prometheus.Histogram
	rankViewSnapshotLastUnix prometheus.Gauge
	rankViewEntities         prometheus.Gauge

	// Worker Metrics
	workerActiveCount prometheus.Gauge

	// HTTP Performance Metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Error Metrics - detailed error tracking
	errorsByComponent *prometheus.CounterVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "plateduel",
		subsystem:        "ratings",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}

	// Apply all options
	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	factory := promauto.With(m.registry)

	m.votesProcessed = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "votes_processed_total",
		Help:      "Total number of votes committed to the ledger.",
	})
	m.votesUndone = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "votes_undone_total",
		Help:      "Total number of votes reversed via undo.",
	})
	m.undoRejections = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "undo_rejections_total",
		Help:      "Undo requests rejected, partitioned by reason.",
	}, []string{"reason"})

	m.matchupsGenerated = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "matchups_generated_total",
		Help:      "Total number of matchups generated.",
	})
	m.matchupsExhausted = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "matchups_exhausted_total",
		Help:      "Matchup requests that found fewer than two eligible entities.",
	})

	m.replaysComputed = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "replays_computed_total",
		Help:      "Total number of personal ranking replays computed.",
	})
	m.replayDuration = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "replay_duration_ms",
		Help:      "Personal ranking replay duration in milliseconds.",
		Buckets:   m.histogramBuckets,
	})

	m.storeTxLatency = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "store_tx_latency_ms",
		Help:      "Latency of storage transactions in milliseconds.",
		Buckets:   m.histogramBuckets,
	})
	m.storeErrors = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "store_errors_total",
		Help:      "Total number of storage-layer failures.",
	})

	m.queueSize = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_size",
		Help:      "Current number of rating events waiting in the queue.",
	})
	m.queueCapacity = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_capacity",
		Help:      "Configured capacity of the rating event queue.",
	})
	m.queueEnqueues = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_enqueues_total",
		Help:      "Total number of rating events enqueued.",
	})
	m.queueDequeues = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_dequeues_total",
		Help:      "Total number of rating events dequeued.",
	})
	m.queueDropped = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_dropped_total",
		Help:      "Rating events dropped due to backpressure or shutdown.",
	})

	m.rankViewSnapshotDuration = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "rankview_snapshot_duration_ms",
		Help:      "Time taken to rebuild a leaderboard snapshot in milliseconds.",
		Buckets:   m.histogramBuckets,
	})
	m.rankViewSnapshotLastUnix = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "rankview_snapshot_last_unix",
		Help:      "Unix timestamp of the last published leaderboard snapshot.",
	})
	m.rankViewEntities = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "rankview_entities",
		Help:      "Number of entities tracked by the leaderboard read model.",
	})

	m.workerActiveCount = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "worker_active_count",
		Help:      "Number of active rank view workers.",
	})

	m.httpRequests = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_requests_total",
		Help:      "Total HTTP requests, partitioned by endpoint, method and status.",
	}, []string{"endpoint", "method", "status"})
	m.httpRequestDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_ms",
		Help:      "HTTP request duration in milliseconds.",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method", "status"})

	m.errorsByComponent = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "errors_by_component_total",
		Help:      "Errors partitioned by component and error type.",
	}, []string{"component", "error_type"})
}

// Global helper functions operating on the singleton manager.

// RecordVoteProcessed increments the committed vote counter.
func RecordVoteProcessed() {
	globalManager.votesProcessed.Inc()
}

// RecordVoteUndone increments the undone vote counter.
func RecordVoteUndone() {
	globalManager.votesUndone.Inc()
}

// RecordUndoRejection counts a rejected undo by reason.
func RecordUndoRejection(reason string) {
	globalManager.undoRejections.WithLabelValues(reason).Inc()
}

// RecordMatchupGenerated increments the matchup counter.
func RecordMatchupGenerated() {
	globalManager.matchupsGenerated.Inc()
}

// RecordMatchupExhausted counts a matchup request with too few candidates.
func RecordMatchupExhausted() {
	globalManager.matchupsExhausted.Inc()
}

// RecordReplay records a computed personal ranking replay and its duration.
func RecordReplay(durationMs float64) {
	globalManager.replaysComputed.Inc()
	globalManager.replayDuration.Observe(durationMs)
}

// RecordStoreTxLatency records the latency of a storage transaction.
func RecordStoreTxLatency(latencyMs float64) {
	globalManager.storeTxLatency.Observe(latencyMs)
}

// RecordStoreError increments the storage failure counter.
func RecordStoreError() {
	globalManager.storeErrors.Inc()
}

// UpdateQueueSize sets the current queue depth gauge.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the configured queue capacity gauge.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	globalManager.queueEnqueues.Inc()
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	globalManager.queueDequeues.Inc()
}

// RecordQueueDrop counts an event dropped due to backpressure.
func RecordQueueDrop() {
	globalManager.queueDropped.Inc()
}

// RecordRankViewSnapshot records a leaderboard snapshot rebuild.
func RecordRankViewSnapshot(durationMs float64, lastUnix float64) {
	globalManager.rankViewSnapshotDuration.Observe(durationMs)
	globalManager.rankViewSnapshotLastUnix.Set(lastUnix)
}

// UpdateRankViewEntities sets the tracked entity count gauge.
func UpdateRankViewEntities(count int) {
	globalManager.rankViewEntities.Set(float64(count))
}

// UpdateWorkerCount sets the active worker gauge.
func UpdateWorkerCount(count int) {
	globalManager.workerActiveCount.Set(float64(count))
}

// RecordHTTPRequest counts an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records an HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordErrorByComponent counts an error for a specific component.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// GetRegistry returns the custom Prometheus registry for exposition.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
