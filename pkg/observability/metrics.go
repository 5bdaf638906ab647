package observability

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_http_requests_total",
			Help: "Total number of HTTP requests processed by the chat service.",
		},
		[]string{"method", "route", "status"},
	)
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chat_http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)
	storeFallbackTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_store_fallback_total",
			Help: "Operations answered with a fallback because the document store was unreachable.",
		},
		[]string{"operation"},
	)
	eventPublishErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_event_publish_errors_total",
			Help: "Total number of message event publish errors.",
		},
		[]string{"event"},
	)
	loginAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_login_attempts_total",
			Help: "Login attempts by outcome.",
		},
		[]string{"outcome"},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpRequestDuration,
		storeFallbackTotal,
		eventPublishErrorsTotal,
		loginAttemptsTotal,
	)
}

// HTTPMetricsMiddleware count and time every request by route pattern
func HTTPMetricsMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		route := c.Route().Path
		if route == "" {
			route = c.Path()
		}
		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}

		httpRequestsTotal.WithLabelValues(c.Method(), route, strconv.Itoa(status)).Inc()
		httpRequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
		return err
	}
}

// Handler expose the default registry
func Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}

// IncStoreFallback record a fallback substitution for operation
func IncStoreFallback(operation string) {
	storeFallbackTotal.WithLabelValues(operation).Inc()
}

// IncEventPublishError record a failed event emission
func IncEventPublishError(event string) {
	eventPublishErrorsTotal.WithLabelValues(event).Inc()
}

// IncLogin record a login attempt, outcome is success or failure
func IncLogin(outcome string) {
	loginAttemptsTotal.WithLabelValues(outcome).Inc()
}
