// Package metrics provides Prometheus metrics for the gameyfin front-end.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Backend call outcomes.
const (
	OutcomeSuccess        = "success"
	OutcomeHTTPError      = "http_error"
	OutcomeTransportError = "transport_error"
	OutcomeDecodeError    = "decode_error"
)

// Defaults applied by NewManager and Init.
const (
	DefaultNamespace = "gameyfin"
	DefaultSubsystem = "web"
)

// DefaultBuckets are the latency buckets in milliseconds.
var DefaultBuckets = []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000} //nolint:gochecknoglobals // read-only

// Job run results.
const (
	RunOK      = "ok"
	RunFailed  = "failed"
	RunSkipped = "skipped"
)

// Manager owns every metric exported by the front-end.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      map[string]string
	registry         prometheus.Registerer

	// Served pages and actions
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpErrors          *prometheus.CounterVec

	// Outbound calls to the backend library API
	backendCalls        *prometheus.CounterVec
	backendCallDuration *prometheus.HistogramVec

	// Navigation
	resolutions *prometheus.CounterVec

	// Scheduler
	scheduledRuns *prometheus.CounterVec
}

var (
	globalMu       sync.RWMutex
	globalManager  *Manager             //nolint:gochecknoglobals // singleton metrics manager
	customRegistry *prometheus.Registry //nolint:gochecknoglobals // metrics registry
)

func init() { //nolint:gochecknoinits // global metrics setup
	Init()
}

// Init replaces the global manager with one built from opts on a fresh
// registry that also carries the Go and process collectors. Call it at
// startup, before the registry is served.
func Init(opts ...Option) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	base := []Option{
		WithPrometheusRegistry(registry),
		WithNamespace(DefaultNamespace),
		WithSubsystem(DefaultSubsystem),
		WithHistogramBuckets(DefaultBuckets),
	}
	m := NewManager(append(base, opts...)...)

	globalMu.Lock()
	globalManager, customRegistry = m, registry
	globalMu.Unlock()
}

func global() *Manager {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalManager
}

// NewManager creates a metrics manager and registers its metrics.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        DefaultNamespace,
		subsystem:        DefaultSubsystem,
		histogramBuckets: DefaultBuckets,
		constLabels:      map[string]string{},
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "http_requests_total",
		Help:        "Total number of HTTP requests by endpoint, method and status code",
		ConstLabels: m.constLabels,
	}, []string{"endpoint", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "http_request_duration_milliseconds",
		Help:        "HTTP request duration in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	}, []string{"endpoint", "method", "status_code"})

	m.httpErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "http_errors_total",
		Help:        "HTTP responses with status >= 400 by endpoint, method and error type",
		ConstLabels: m.constLabels,
	}, []string{"endpoint", "method", "error_type"})

	m.backendCalls = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "backend_calls_total",
		Help:        "Calls to the backend library API by operation and outcome",
		ConstLabels: m.constLabels,
	}, []string{"operation", "outcome"})

	m.backendCallDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "backend_call_duration_milliseconds",
		Help:        "Latency of calls to the backend library API in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	}, []string{"operation"})

	m.resolutions = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "route_resolutions_total",
		Help:        "Page path resolutions by result kind",
		ConstLabels: m.constLabels,
	}, []string{"kind"})

	m.scheduledRuns = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "scheduled_runs_total",
		Help:        "Backend job runs, scheduled or on demand, by job name and result",
		ConstLabels: m.constLabels,
	}, []string{"job", "result"})
}

// RecordHTTPRequest records a served request and its duration.
func (m *Manager) RecordHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	m.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	m.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordHTTPError records a served request that ended with an error status.
func (m *Manager) RecordHTTPError(endpoint, method, errorType string) {
	m.httpErrors.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordBackendCall records one outbound call to the backend.
func (m *Manager) RecordBackendCall(operation, outcome string, durationMs float64) {
	m.backendCalls.WithLabelValues(operation, outcome).Inc()
	m.backendCallDuration.WithLabelValues(operation).Observe(durationMs)
}

// RecordResolution records a navigation result kind.
func (m *Manager) RecordResolution(kind string) {
	m.resolutions.WithLabelValues(kind).Inc()
}

// RecordScheduledRun records the result of a job run.
func (m *Manager) RecordScheduledRun(job, result string) {
	m.scheduledRuns.WithLabelValues(job, result).Inc()
}

// RecordHTTPRequest records a served request on the global manager.
func RecordHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	global().RecordHTTPRequest(endpoint, method, statusCode, durationMs)
}

// RecordHTTPError records an error response on the global manager.
func RecordHTTPError(endpoint, method, errorType string) {
	global().RecordHTTPError(endpoint, method, errorType)
}

// RecordBackendCall records a backend call on the global manager.
func RecordBackendCall(operation, outcome string, durationMs float64) {
	global().RecordBackendCall(operation, outcome, durationMs)
}

// RecordResolution records a navigation result on the global manager.
func RecordResolution(kind string) {
	global().RecordResolution(kind)
}

// RecordScheduledRun records a scheduled job result on the global manager.
func RecordScheduledRun(job, result string) {
	global().RecordScheduledRun(job, result)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return customRegistry
}
