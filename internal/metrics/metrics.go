// Package metrics defines the Prometheus collectors exported on /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

type Metrics struct {
	Registry *prometheus.Registry

	requests        *prometheus.HistogramVec
	ordersCreated   prometheus.Counter
	orderRevenue    prometheus.Counter
	orderStatus     *prometheus.CounterVec
	ordersDeleted   prometheus.Counter
	createRetries   prometheus.Counter
	eventsPublished *prometheus.CounterVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		Registry: reg,
		requests: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "bakery",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		ordersCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "bakery",
			Name:      "orders_created_total",
			Help:      "Orders persisted.",
		}),
		orderRevenue: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "bakery",
			Name:      "orders_value_total",
			Help:      "Sum of totalPrice over created orders.",
		}),
		orderStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bakery",
			Name:      "order_status_changes_total",
			Help:      "Status updates by target status.",
		}, []string{"status"}),
		ordersDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "bakery",
			Name:      "orders_deleted_total",
			Help:      "Orders removed by admins.",
		}),
		createRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "bakery",
			Name:      "order_number_retries_total",
			Help:      "Order number collisions that triggered a retry.",
		}),
		eventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bakery",
			Name:      "outbox_events_published_total",
			Help:      "Outbox events handed to the broker.",
		}, []string{"type"}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requests,
		m.ordersCreated,
		m.orderRevenue,
		m.orderStatus,
		m.ordersDeleted,
		m.createRetries,
		m.eventsPublished,
	)
	return m
}

// Middleware records request latency labelled by the matched route.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.requests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Observe(time.Since(start).Seconds())
	}
}

// The recorders below accept a nil receiver so callers can run without metrics.

func (m *Metrics) OrderCreated(total float64) {
	if m == nil {
		return
	}
	m.ordersCreated.Inc()
	if total > 0 {
		m.orderRevenue.Add(total)
	}
}

func (m *Metrics) OrderStatusChanged(status string) {
	if m == nil {
		return
	}
	m.orderStatus.WithLabelValues(status).Inc()
}

func (m *Metrics) OrderDeleted() {
	if m == nil {
		return
	}
	m.ordersDeleted.Inc()
}

func (m *Metrics) OrderNumberRetry() {
	if m == nil {
		return
	}
	m.createRetries.Inc()
}

func (m *Metrics) EventPublished(eventType string) {
	if m == nil {
		return
	}
	m.eventsPublished.WithLabelValues(eventType).Inc()
}
