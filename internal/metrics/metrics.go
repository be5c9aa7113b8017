// Package metrics exposes Prometheus metrics for the dashboard server.
//
// Metrics:
//   - rinsr_dashboard_http_requests_total: requests by method, route, status
//   - rinsr_dashboard_http_request_duration_seconds: request latency by method, route
//   - rinsr_dashboard_upstream_requests_total: upstream calls by resource, method, status
//   - rinsr_dashboard_upstream_request_duration_seconds: upstream latency by resource, method
//   - rinsr_dashboard_rate_limit_hits_total: rejected requests by endpoint
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rinsr/dashboard/internal/errs"
)

const (
	namespace = "rinsr"
	subsystem = "dashboard"
)

// Collector owns the registry and every metric. A nil *Collector records nothing.
type Collector struct {
	registry *prometheus.Registry

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec

	upstreamTotal    *prometheus.CounterVec
	upstreamDuration *prometheus.HistogramVec

	rateLimitHits *prometheus.CounterVec
}

// NewCollector creates a Collector. A nil registry gets a fresh one with the
// Go runtime and process collectors registered.
func NewCollector(registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	buckets := []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30}

	c := &Collector{
		registry: registry,
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests served",
			},
			[]string{"method", "route", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "http_request_duration_seconds",
				Help:      "Duration of HTTP requests in seconds",
				Buckets:   buckets,
			},
			[]string{"method", "route"},
		),
		upstreamTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "upstream_requests_total",
				Help:      "Total number of calls made to the upstream API",
			},
			[]string{"resource", "method", "status"},
		),
		upstreamDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "upstream_request_duration_seconds",
				Help:      "Duration of upstream API calls in seconds",
				Buckets:   buckets,
			},
			[]string{"resource", "method"},
		),
		rateLimitHits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "rate_limit_hits_total",
				Help:      "Total number of requests rejected by the rate limiter",
			},
			[]string{"endpoint"},
		),
	}

	registry.MustRegister(
		c.requestsTotal,
		c.requestDuration,
		c.upstreamTotal,
		c.upstreamDuration,
		c.rateLimitHits,
	)

	return c
}

// ObserveRequest records one served HTTP request.
func (c *Collector) ObserveRequest(method, route string, status int, duration time.Duration) {
	if c == nil {
		return
	}
	c.requestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.requestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// ObserveUpstream records one upstream call. status 0 means no answer.
func (c *Collector) ObserveUpstream(resource, method string, status int, duration time.Duration) {
	if c == nil {
		return
	}
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	c.upstreamTotal.WithLabelValues(resource, method, label).Inc()
	c.upstreamDuration.WithLabelValues(resource, method).Observe(duration.Seconds())
}

// RecordRateLimitHit counts a request rejected by the rate limiter.
func (c *Collector) RecordRateLimitHit(endpoint string) {
	if c == nil {
		return
	}
	c.rateLimitHits.WithLabelValues(endpoint).Inc()
}

// Registry returns the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
		ErrorHandling:     promhttp.ContinueOnError,
	})
}

// Middleware records every request handled by echo. Requests that matched
// no route are labelled "unmatched" to bound cardinality.
func (c *Collector) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			start := time.Now()
			err := next(ctx)

			// The global error handler writes the response after this returns,
			// so failed requests take their status from the error.
			status := ctx.Response().Status
			if err != nil {
				status = statusOf(err)
			}

			route := ctx.Path()
			if route == "" {
				route = "unmatched"
			}

			c.ObserveRequest(ctx.Request().Method, route, status, time.Since(start))
			return err
		}
	}
}

func statusOf(err error) int {
	var httpErr *errs.HTTPError
	var echoErr *echo.HTTPError

	switch {
	case errors.As(err, &httpErr):
		return httpErr.Status
	case errors.As(err, &echoErr):
		return echoErr.Code
	default:
		return http.StatusInternalServerError
	}
}
