// Package metrics provides Prometheus metrics for the rank progression service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Progression
	progressRecorded *prometheus.CounterVec
	promotions       *prometheus.CounterVec
	rewardsGranted   *prometheus.CounterVec
	rewardsFailed    *prometheus.CounterVec
	notifyFailures   *prometheus.CounterVec
	gameEvents       *prometheus.CounterVec
	trackedPlayers   prometheus.Gauge

	// Rank store persistence
	storeLoads         *prometheus.CounterVec
	storeSaves         *prometheus.CounterVec
	storeSaveDuration  prometheus.Histogram
	storeSaveLastUnix  prometheus.Gauge
	leaderboardQueries *prometheus.CounterVec

	// Dispatch loop
	dispatchQueueSize     prometheus.Gauge
	dispatchQueueCapacity prometheus.Gauge
	dispatchRejected      prometheus.Counter
	dispatchTaskLatency   prometheus.Histogram

	// Host link
	hostConnections prometheus.Gauge
	hostEnvelopes   *prometheus.CounterVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorsByComponent *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
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
		namespace:        "ranks",
		subsystem:        "progression",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      name,
		Help:      help,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      name,
		Help:      help,
	})
}

func (m *Manager) histogram(name, help string) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      name,
		Help:      help,
		Buckets:   m.histogramBuckets,
	})
}

func (m *Manager) initializeMetrics() { //nolint:funlen // flat list of metric definitions
	m.progressRecorded = m.counterVec("progress_recorded_total", "Progress recordings by stat", "stat")
	m.promotions = m.counterVec("promotions_total", "Rank promotions by stat and label", "stat", "label")
	m.rewardsGranted = m.counterVec("rewards_granted_total", "Rewards handed to players by stat", "stat")
	m.rewardsFailed = m.counterVec("rewards_failed_total", "Reward grants rejected by the host", "stat")
	m.notifyFailures = m.counterVec("notify_failures_total", "Outbound notices the host did not accept", "kind")
	m.gameEvents = m.counterVec("game_events_total", "Game events received by type and outcome", "type", "outcome")
	m.trackedPlayers = m.gauge("tracked_players", "Players with a rank record")

	m.storeLoads = m.counterVec("store_loads_total", "Rank store loads by outcome", "outcome")
	m.storeSaves = m.counterVec("store_saves_total", "Rank store saves by outcome", "outcome")
	m.storeSaveDuration = m.histogram("store_save_duration_milliseconds", "Rank store save duration in milliseconds")
	m.storeSaveLastUnix = m.gauge("store_save_last_unix", "Unix time of the last successful save")
	m.leaderboardQueries = m.counterVec("leaderboard_queries_total", "Leaderboard queries by stat", "stat")

	m.dispatchQueueSize = m.gauge("dispatch_queue_size", "Tasks waiting for the dispatch loop")
	m.dispatchQueueCapacity = m.gauge("dispatch_queue_capacity", "Capacity of the dispatch queue")
	m.dispatchRejected = promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "dispatch_rejected_total",
		Help:      "Tasks rejected because the queue was full or closed",
	})
	m.dispatchTaskLatency = m.histogram("dispatch_task_latency_milliseconds", "Time a task spent executing on the dispatch loop")

	m.hostConnections = m.gauge("host_connections", "Hosts attached to the outbound link")
	m.hostEnvelopes = m.counterVec("host_envelopes_total", "Outbound envelopes by op and outcome", "op", "outcome")

	auto := promauto.With(m.registry)
	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests by endpoint and method",
	}, []string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_milliseconds",
		Help:      "HTTP request duration in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})

	m.errorsByComponent = m.counterVec("errors_by_component_total", "Total number of errors by component", "component", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_bytes", "Allocated heap bytes")
	m.systemGoroutineCount = m.gauge("system_goroutines", "Number of goroutines")
}

// RecordProgress counts one progress recording for stat.
func RecordProgress(stat string) {
	globalManager.progressRecorded.WithLabelValues(stat).Inc()
}

// RecordPromotion counts a promotion to label in stat.
func RecordPromotion(stat, label string) {
	globalManager.promotions.WithLabelValues(stat, label).Inc()
}

// RecordRewardGranted counts one successful reward grant.
func RecordRewardGranted(stat string) {
	globalManager.rewardsGranted.WithLabelValues(stat).Inc()
}

// RecordRewardFailed counts one rejected reward grant.
func RecordRewardFailed(stat string) {
	globalManager.rewardsFailed.WithLabelValues(stat).Inc()
}

// RecordNotifyFailure counts a notice the host did not accept.
func RecordNotifyFailure(kind string) {
	globalManager.notifyFailures.WithLabelValues(kind).Inc()
}

// RecordGameEvent counts a game event by type and outcome.
func RecordGameEvent(eventType, outcome string) {
	globalManager.gameEvents.WithLabelValues(eventType, outcome).Inc()
}

// UpdateTrackedPlayers sets the number of rank records.
func UpdateTrackedPlayers(count int) {
	globalManager.trackedPlayers.Set(float64(count))
}

// RecordStoreLoad counts a rank store load by outcome (ok, missing, corrupt).
func RecordStoreLoad(outcome string) {
	globalManager.storeLoads.WithLabelValues(outcome).Inc()
}

// RecordStoreSave counts a rank store save by outcome.
func RecordStoreSave(outcome string, durationMs float64) {
	globalManager.storeSaves.WithLabelValues(outcome).Inc()
	globalManager.storeSaveDuration.Observe(durationMs)
}

// UpdateStoreSaveLastUnix records the time of the last successful save.
func UpdateStoreSaveLastUnix(unix float64) {
	globalManager.storeSaveLastUnix.Set(unix)
}

// RecordLeaderboardQuery counts a leaderboard query.
func RecordLeaderboardQuery(stat string) {
	globalManager.leaderboardQueries.WithLabelValues(stat).Inc()
}

// UpdateDispatchQueueSize sets the dispatch backlog.
func UpdateDispatchQueueSize(size int) {
	globalManager.dispatchQueueSize.Set(float64(size))
}

// UpdateDispatchQueueCapacity sets the dispatch queue capacity.
func UpdateDispatchQueueCapacity(capacity int) {
	globalManager.dispatchQueueCapacity.Set(float64(capacity))
}

// RecordDispatchRejected counts a rejected task.
func RecordDispatchRejected() {
	globalManager.dispatchRejected.Inc()
}

// RecordDispatchTaskLatency records how long a task ran.
func RecordDispatchTaskLatency(latencyMs float64) {
	globalManager.dispatchTaskLatency.Observe(latencyMs)
}

// UpdateHostConnections sets the number of attached hosts.
func UpdateHostConnections(count int) {
	globalManager.hostConnections.Set(float64(count))
}

// RecordHostEnvelope counts an outbound envelope.
func RecordHostEnvelope(op, outcome string) {
	globalManager.hostEnvelopes.WithLabelValues(op, outcome).Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByComponent records an error by component and type.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// UpdateSystemMemoryUsage updates allocated heap bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount updates the goroutine gauge.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
