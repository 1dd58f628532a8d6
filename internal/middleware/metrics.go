package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

const metricNamespace = "voltride"

var (
	requestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricNamespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests served, by route and status.",
		},
		[]string{"method", "route", "status"},
	)

	requestErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricNamespace,
			Subsystem: "http",
			Name:      "request_errors_total",
			Help:      "HTTP error responses, split into client and server errors.",
		},
		[]string{"method", "route", "status", "error_type"},
	)

	requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: metricNamespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	requestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: metricNamespace,
			Subsystem: "http",
			Name:      "requests_in_flight",
			Help:      "Requests currently being handled.",
		},
	)
)

func Metrics(reg *prometheus.Registry) gin.HandlerFunc {
	reg.MustRegister(requestsTotal, requestErrorsTotal, requestDuration, requestsInFlight)

	return func(c *gin.Context) {
		start := time.Now()
		requestsInFlight.Inc()

		c.Next()

		requestsInFlight.Dec()

		status := strconv.Itoa(c.Writer.Status())
		// The route template keeps label cardinality bounded; raw paths
		// carry ride and bike ids.
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := c.Request.Method

		requestsTotal.WithLabelValues(method, route, status).Inc()
		requestDuration.WithLabelValues(method, route, status).Observe(time.Since(start).Seconds())

		switch code := c.Writer.Status(); {
		case code >= 500:
			requestErrorsTotal.WithLabelValues(method, route, status, "server").Inc()
		case code >= 400:
			requestErrorsTotal.WithLabelValues(method, route, status, "client").Inc()
		}
	}
}
