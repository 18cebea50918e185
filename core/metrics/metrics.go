package metrics

import (
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sohosai/hyperdashi-server/core/apperror"
)

const namespace = "hyperdashi"

// Metrics holds every collector the service registers.
type Metrics struct {
	registry *prometheus.Registry

	operationsTotal   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec

	labelsAllocatedTotal  prometheus.Counter
	labelExhaustionsTotal prometheus.Counter

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	collectors []prometheus.Collector
}

// New creates the collectors and registers them on registry.
func New(registry *prometheus.Registry) (*Metrics, error) {
	m := &Metrics{registry: registry}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Metrics) initMetrics() {
	m.operationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "repository_operations_total",
			Help:      "Repository operations by entity, operation and outcome",
		},
		[]string{"entity", "operation", "status"},
	)
	m.operationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "repository_operation_duration_seconds",
			Help:      "Time taken by repository operations",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 14),
		},
		[]string{"entity", "operation"},
	)
	m.labelsAllocatedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "labels_allocated_total",
		Help:      "Labels drawn from the shared counter",
	})
	m.labelExhaustionsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "label_exhaustions_total",
		Help:      "Allocations rejected because the label space is exhausted",
	})
	m.httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status code",
		},
		[]string{"method", "route", "code"},
	)
	m.httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	m.collectors = []prometheus.Collector{
		m.operationsTotal,
		m.operationDuration,
		m.labelsAllocatedTotal,
		m.labelExhaustionsTotal,
		m.httpRequestsTotal,
		m.httpRequestDuration,
	}
}

// Describe implements prometheus.Collector.
func (m *Metrics) Describe(ch chan<- *prometheus.Desc) {
	for _, c := range m.collectors {
		c.Describe(ch)
	}
}

// Collect implements prometheus.Collector.
func (m *Metrics) Collect(ch chan<- prometheus.Metric) {
	for _, c := range m.collectors {
		c.Collect(ch)
	}
}

// Registry returns the registry the collectors were registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveOperation records one repository call that started at start and
// ended with err.
func (m *Metrics) ObserveOperation(entity, operation string, start time.Time, err error) {
	if m == nil {
		return
	}
	m.operationsTotal.WithLabelValues(entity, operation, status(err)).Inc()
	m.operationDuration.WithLabelValues(entity, operation).Observe(time.Since(start).Seconds())
}

// RecordLabelsAllocated adds n issued labels.
func (m *Metrics) RecordLabelsAllocated(n int) {
	if m == nil {
		return
	}
	m.labelsAllocatedTotal.Add(float64(n))
}

// RecordLabelExhaustion counts a rejected allocation.
func (m *Metrics) RecordLabelExhaustion() {
	if m == nil {
		return
	}
	m.labelExhaustionsTotal.Inc()
}

// Middleware records request counts and latency per matched route.
func (m *Metrics) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if m == nil {
			return c.Next()
		}
		start := time.Now()
		err := c.Next()

		code := c.Response().StatusCode()
		var fe *fiber.Error
		if errors.As(err, &fe) {
			code = fe.Code
		} else if err != nil {
			code = apperror.StatusCode(err)
		}

		route := c.Route().Path
		m.httpRequestsTotal.WithLabelValues(c.Method(), route, strconv.Itoa(code)).Inc()
		m.httpRequestDuration.WithLabelValues(c.Method(), route).Observe(time.Since(start).Seconds())
		return err
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry}))
}

// status classifies err into the outcome label.
func status(err error) string {
	switch {
	case err == nil:
		return "success"
	case apperror.Is(err, apperror.KindNotFound):
		return "not_found"
	case apperror.Is(err, apperror.KindBadRequest):
		return "bad_request"
	case apperror.Is(err, apperror.KindConflict):
		return "conflict"
	}
	return "error"
}
