package monitor

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector storefront metrics
type MetricsCollector struct {
	// business metrics
	orderPlacedTotal     *prometheus.CounterVec
	orderPlacedValue     prometheus.Counter
	promoValidationTotal *prometheus.CounterVec
	tradeTransitionTotal *prometheus.CounterVec
	notificationTotal    *prometheus.CounterVec
	realtimeClients      prometheus.Gauge

	// HTTP metrics
	httpRequestTotal    *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// NewMetricsCollector creates and registers the collectors
func NewMetricsCollector() *MetricsCollector {
	mc := &MetricsCollector{}

	mc.orderPlacedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "order_placed_total",
			Help: "Total number of order placement attempts",
		},
		[]string{"status"},
	)

	mc.orderPlacedValue = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "order_placed_value_total",
			Help: "Accumulated value of placed orders",
		},
	)

	mc.promoValidationTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "promo_validation_total",
			Help: "Total number of promo code validations",
		},
		[]string{"outcome"},
	)

	mc.tradeTransitionTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trade_transition_total",
			Help: "Total number of trade state transitions",
		},
		[]string{"transition", "status"},
	)

	mc.notificationTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notification_total",
			Help: "Total number of notifications written",
		},
		[]string{"scope", "type"},
	)

	mc.realtimeClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "realtime_clients",
			Help: "Number of connected realtime clients",
		},
	)

	mc.httpRequestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_request_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	mc.httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	return mc
}

// RecordOrderPlaced records one placement attempt
func (mc *MetricsCollector) RecordOrderPlaced(success bool, total float64) {
	status := "success"
	if !success {
		status = "failure"
	}
	mc.orderPlacedTotal.WithLabelValues(status).Inc()
	if success {
		mc.orderPlacedValue.Add(total)
	}
}

// RecordPromoValidation records one promo validation outcome
func (mc *MetricsCollector) RecordPromoValidation(outcome string) {
	mc.promoValidationTotal.WithLabelValues(outcome).Inc()
}

// RecordTradeTransition records one trade state transition attempt
func (mc *MetricsCollector) RecordTradeTransition(transition string, success bool) {
	status := "success"
	if !success {
		status = "failure"
	}
	mc.tradeTransitionTotal.WithLabelValues(transition, status).Inc()
}

// RecordNotification records one written notification
func (mc *MetricsCollector) RecordNotification(scope, notifType string) {
	mc.notificationTotal.WithLabelValues(scope, notifType).Inc()
}

// SetRealtimeClients sets the connected realtime client count
func (mc *MetricsCollector) SetRealtimeClients(n int) {
	mc.realtimeClients.Set(float64(n))
}

// HTTPMiddleware records request count and latency per route
func (mc *MetricsCollector) HTTPMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		mc.httpRequestTotal.WithLabelValues(
			c.Request.Method, path, strconv.Itoa(c.Writer.Status()),
		).Inc()
		mc.httpRequestDuration.WithLabelValues(
			c.Request.Method, path,
		).Observe(time.Since(start).Seconds())
	}
}

// Handler exposes the Prometheus scrape endpoint
func Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
