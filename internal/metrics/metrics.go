// Package metrics exposes Prometheus collectors for moderation transitions and HTTP traffic.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// Transition outcomes.
const (
	OutcomeSuccess    = "success"
	OutcomeNotFound   = "not_found"
	OutcomeValidation = "validation"
	OutcomeConflict   = "conflict"
	OutcomeError      = "error"
)

// Metrics holds the service collectors. A nil *Metrics records nothing.
type Metrics struct {
	Transitions     *prometheus.CounterVec
	Notifications   *prometheus.CounterVec
	PublishFailures prometheus.Counter
	RequestCount    *prometheus.CounterVec
	RequestLatency  *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "moderation_transitions_total",
				Help: "Moderation operations by outcome",
			},
			[]string{"operation", "outcome"},
		),
		Notifications: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "moderation_notifications_created_total",
				Help: "Notifications written by moderation operations",
			},
			[]string{"type"},
		),
		PublishFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "moderation_notification_publish_failures_total",
				Help: "Notifications that could not be published to the broker",
			},
		),
		RequestCount: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total API requests received",
			},
			[]string{"endpoint", "method", "status"},
		),
		RequestLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Histogram of request latencies",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"endpoint", "method"},
		),
	}

	reg.MustRegister(m.Transitions, m.Notifications, m.PublishFailures, m.RequestCount, m.RequestLatency)
	return m
}

// ObserveTransition counts one moderation operation.
func (m *Metrics) ObserveTransition(operation, outcome string) {
	if m == nil {
		return
	}
	m.Transitions.WithLabelValues(operation, outcome).Inc()
}

// AddNotifications counts n written notifications of the given type.
func (m *Metrics) AddNotifications(typ string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.Notifications.WithLabelValues(typ).Add(float64(n))
}

// IncPublishFailures counts one failed broker publication.
func (m *Metrics) IncPublishFailures() {
	if m == nil {
		return
	}
	m.PublishFailures.Inc()
}

// Middleware records request count and latency labelled by route template.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		if m == nil {
			return
		}

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}
		method := c.Request.Method

		m.RequestCount.WithLabelValues(endpoint, method, strconv.Itoa(c.Writer.Status())).Inc()
		m.RequestLatency.WithLabelValues(endpoint, method).Observe(time.Since(start).Seconds())
	}
}
