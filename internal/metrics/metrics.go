package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsTotal tracks total HTTP requests
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	// RequestDuration tracks HTTP request duration
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// OrdersTotal tracks order placement outcomes
	OrdersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orders_total",
			Help: "Total number of order placement attempts by result",
		},
		[]string{"result"},
	)

	// StockConflicts counts decrements rejected at commit time, i.e. races
	// that slipped past the advisory pre-check
	StockConflicts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "stock_commit_conflicts_total",
			Help: "Stock decrements rejected inside the order transaction",
		},
	)

	// CacheBreakerState tracks the cache circuit breaker (0=closed, 1=open, 2=half-open)
	CacheBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "cache_circuit_breaker_state",
			Help: "Cache circuit breaker state (0=closed, 1=open, 2=half-open)",
		},
		[]string{"circuit"},
	)
)

// Middleware creates a Gin middleware for automatic metrics collection
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		RequestsTotal.WithLabelValues(c.Request.Method, c.FullPath(), status).Inc()
		RequestDuration.WithLabelValues(c.Request.Method, c.FullPath()).Observe(duration)
	}
}
