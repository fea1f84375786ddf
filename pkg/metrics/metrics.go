package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all scheduling-service metrics
type Metrics struct {
	serviceName string
	registry    *prometheus.Registry

	// HTTP metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// Store metrics
	StoreOperations        *prometheus.CounterVec
	StoreOperationDuration *prometheus.HistogramVec

	// Cache metrics
	CacheOperations *prometheus.CounterVec

	// Event metrics
	EventsPublished *prometheus.CounterVec
	PublishDuration *prometheus.HistogramVec

	// Business metrics
	ShiftTransitions        *prometheus.CounterVec
	ClaimsSubmitted         *prometheus.CounterVec
	ClaimsResolved          *prometheus.CounterVec
	SwapsResolved           *prometheus.CounterVec
	NotificationsDelivered  *prometheus.CounterVec
	NotificationsSuppressed *prometheus.CounterVec
	ExpirySweeps            prometheus.Counter

	// Circuit breaker metrics
	CircuitBreakerState *prometheus.GaugeVec
}

// Config holds metrics configuration
type Config struct {
	ServiceName string
	Namespace   string
	Subsystem   string
}

// DefaultConfig returns default metrics configuration
func DefaultConfig(serviceName string) *Config {
	return &Config{
		ServiceName: serviceName,
		Namespace:   "scheduling",
		Subsystem:   serviceName,
	}
}

// New creates a new Metrics instance
func New(config *Config) *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(prometheus.NewGoCollector())
	registry.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))

	m := &Metrics{
		serviceName: config.ServiceName,
		registry:    registry,
	}

	m.HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: config.Namespace,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	m.HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: config.Namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path"})

	m.HTTPRequestsInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: config.Namespace,
		Name:      "http_requests_in_flight",
		Help:      "Number of in-flight HTTP requests",
	})

	m.StoreOperations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: config.Namespace,
		Name:      "store_operations_total",
		Help:      "Total number of store operations",
	}, []string{"collection", "operation", "status"})

	m.StoreOperationDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: config.Namespace,
		Name:      "store_operation_duration_seconds",
		Help:      "Store operation latency in seconds",
		Buckets:   prometheus.DefBuckets,
	}, []string{"collection", "operation"})

	m.CacheOperations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: config.Namespace,
		Name:      "cache_operations_total",
		Help:      "Total number of cache operations",
	}, []string{"operation", "status"})

	m.EventsPublished = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: config.Namespace,
		Name:      "events_published_total",
		Help:      "Total number of domain events published",
	}, []string{"topic", "eventType", "status"})

	m.PublishDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: config.Namespace,
		Name:      "event_publish_duration_seconds",
		Help:      "Domain event publish latency in seconds",
		Buckets:   prometheus.DefBuckets,
	}, []string{"topic"})

	m.ShiftTransitions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: config.Namespace,
		Name:      "shift_transitions_total",
		Help:      "Total number of accepted shift status transitions",
	}, []string{"from", "to"})

	m.ClaimsSubmitted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: config.Namespace,
		Name:      "claims_submitted_total",
		Help:      "Total number of shift claims submitted",
	}, []string{"crossTenant"})

	m.ClaimsResolved = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: config.Namespace,
		Name:      "claims_resolved_total",
		Help:      "Total number of shift claims resolved",
	}, []string{"outcome"})

	m.SwapsResolved = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: config.Namespace,
		Name:      "swaps_resolved_total",
		Help:      "Total number of shift swaps resolved",
	}, []string{"outcome"})

	m.NotificationsDelivered = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: config.Namespace,
		Name:      "notifications_delivered_total",
		Help:      "Total number of notification deliveries by channel outcome",
	}, []string{"channel", "status"})

	m.NotificationsSuppressed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: config.Namespace,
		Name:      "notifications_suppressed_total",
		Help:      "Total number of suppressed notification intents by reason",
	}, []string{"reason"})

	m.ExpirySweeps = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: config.Namespace,
		Name:      "expiry_sweeps_total",
		Help:      "Total number of expiry sweep runs",
	})

	m.CircuitBreakerState = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: config.Namespace,
		Name:      "circuit_breaker_state",
		Help:      "Circuit breaker state (0=closed, 1=half-open, 2=open)",
	}, []string{"name"})

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestsInFlight,
		m.StoreOperations,
		m.StoreOperationDuration,
		m.CacheOperations,
		m.EventsPublished,
		m.PublishDuration,
		m.ShiftTransitions,
		m.ClaimsSubmitted,
		m.ClaimsResolved,
		m.SwapsResolved,
		m.NotificationsDelivered,
		m.NotificationsSuppressed,
		m.ExpirySweeps,
		m.CircuitBreakerState,
	)

	return m
}

// IncrementHTTPRequestsInFlight increments the in-flight request gauge
func (m *Metrics) IncrementHTTPRequestsInFlight() {
	m.HTTPRequestsInFlight.Inc()
}

// DecrementHTTPRequestsInFlight decrements the in-flight request gauge
func (m *Metrics) DecrementHTTPRequestsInFlight() {
	m.HTTPRequestsInFlight.Dec()
}

// ObserveHTTPRequest records an HTTP request observation
func (m *Metrics) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// ObserveStoreOperation records a store operation observation
func (m *Metrics) ObserveStoreOperation(collection, operation string, err error, duration time.Duration) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.StoreOperations.WithLabelValues(collection, operation, status).Inc()
	m.StoreOperationDuration.WithLabelValues(collection, operation).Observe(duration.Seconds())
}

// ObserveCacheOperation records a cache operation observation
func (m *Metrics) ObserveCacheOperation(operation string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.CacheOperations.WithLabelValues(operation, status).Inc()
}

// ObserveEventPublish records a domain event publish observation
func (m *Metrics) ObserveEventPublish(topic, eventType string, err error, duration time.Duration) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.EventsPublished.WithLabelValues(topic, eventType, status).Inc()
	m.PublishDuration.WithLabelValues(topic).Observe(duration.Seconds())
}

// Handler returns an HTTP handler exposing the metrics registry
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
