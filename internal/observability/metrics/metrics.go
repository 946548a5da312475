package metrics

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
)

// HTTPMetrics instruments the gin request path.
type HTTPMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// Metrics exposes domain-level instruments.
type Metrics struct {
	ClaimsSubmitted   prometheus.Counter
	ClaimsCancelled   prometheus.Counter
	BatchesCreated    prometheus.Counter
	BatchesProcessed  *prometheus.CounterVec
	AllocationRetries prometheus.Counter
}

// NewHTTPMetrics registers the HTTP instruments on the provided registerer.
func NewHTTPMetrics(reg prometheus.Registerer) *HTTPMetrics {
	m := &HTTPMetrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "claimflow_http_requests_total",
			Help: "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "claimflow_http_request_duration_seconds",
			Help:    "HTTP request latency by route and method.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),
	}
	reg.MustRegister(m.requests, m.duration)
	return m
}

// New registers the domain instruments on the provided registerer.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ClaimsSubmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "claimflow_claims_submitted_total",
			Help: "Claims accepted through the submission path.",
		}),
		ClaimsCancelled: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "claimflow_claims_cancelled_total",
			Help: "Claims cancelled and detached from their batch.",
		}),
		BatchesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "claimflow_batches_created_total",
			Help: "Batches created by the allocator.",
		}),
		BatchesProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "claimflow_batches_processed_total",
			Help: "Batch processing attempts by result.",
		}, []string{"result"}),
		AllocationRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "claimflow_allocation_conflicts_total",
			Help: "Batch-create races resolved by retrying the find step.",
		}),
	}
	reg.MustRegister(
		m.ClaimsSubmitted,
		m.ClaimsCancelled,
		m.BatchesCreated,
		m.BatchesProcessed,
		m.AllocationRetries,
	)
	return m
}

// GinMiddleware records request counts and latency.
func GinMiddleware(m *HTTPMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if strings.TrimSpace(route) == "" {
			route = "unknown"
		}
		m.requests.WithLabelValues(route, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
		m.duration.WithLabelValues(route, c.Request.Method).Observe(time.Since(start).Seconds())
	}
}

// Module provides the prometheus registry and instruments.
var Module = fx.Module("observability.metrics",
	fx.Provide(func() *prometheus.Registry {
		reg := prometheus.NewRegistry()
		return reg
	}),
	fx.Provide(func(reg *prometheus.Registry) prometheus.Registerer { return reg }),
	fx.Provide(NewHTTPMetrics),
	fx.Provide(New),
)
