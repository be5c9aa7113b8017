package handler

import (
	"context"
	"fmt"
	"net/http"
	"slices"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/rinsr/dashboard/internal/envelope"
	"github.com/rinsr/dashboard/internal/middleware"
	"github.com/rinsr/dashboard/internal/proxy"
	"github.com/rinsr/dashboard/internal/server"
)

const (
	statusHealthy       = "healthy"
	statusUnhealthy     = "unhealthy"
	statusUnconfigured  = "unconfigured"
	checkUpstream       = "upstream"
	checkRedis          = "redis"
	healthyMessage      = "Service is healthy"
	unhealthyMessage    = "Service is unhealthy"
	healthCheckEventKey = "HealthCheckError"
)

// CheckResult is the outcome of one dependency check.
type CheckResult struct {
	Status       string `json:"status"`
	ResponseTime string `json:"response_time,omitempty"`
	Error        string `json:"error,omitempty"`
}

// HealthReport is the data of the /status envelope.
type HealthReport struct {
	Status      string                 `json:"status"`
	Timestamp   time.Time              `json:"timestamp"`
	Environment string                 `json:"environment"`
	Checks      map[string]CheckResult `json:"checks"`
}

// HealthHandler reports whether the upstream API answers and, when
// configured, whether redis does.
type HealthHandler struct {
	Handler
}

func NewHealthHandler(s *server.Server) *HealthHandler {
	return &HealthHandler{
		Handler: NewHandler(s),
	}
}

// CheckHealth answers 200 when every required check passes and 503 otherwise.
//
// The upstream counts as reachable when it answers at all, whatever the
// status. Redis only backs a cache, so a failing redis is reported without
// making the service unhealthy.
func (h *HealthHandler) CheckHealth(c echo.Context) error {
	start := time.Now()
	cfg := h.server.Config.Observability.HealthChecks

	logger := middleware.GetLogger(c).With().
		Str("operation", "health_check").
		Logger()

	report := HealthReport{
		Status:      statusHealthy,
		Timestamp:   time.Now().UTC(),
		Environment: h.server.Config.Primary.Env,
		Checks:      make(map[string]CheckResult),
	}

	if cfg.Enabled {
		ctx, cancel := context.WithTimeout(c.Request().Context(), cfg.Timeout)
		defer cancel()

		if slices.Contains(cfg.Checks, checkUpstream) {
			result := h.checkUpstream(ctx, logger)
			report.Checks[checkUpstream] = result
			if result.Status != statusHealthy {
				report.Status = statusUnhealthy
			}
		}

		if slices.Contains(cfg.Checks, checkRedis) && h.server.Redis != nil {
			report.Checks[checkRedis] = h.checkRedis(ctx, logger)
		}
	}

	if report.Status != statusHealthy {
		logger.Warn().
			Dur("total_duration", time.Since(start)).
			Msg("health check failed")

		h.recordFailure("overall", "overall_unhealthy", time.Since(start), "")

		return c.JSON(http.StatusServiceUnavailable, envelope.Envelope{
			Success: false,
			Data:    envelope.Raw(report),
			Message: unhealthyMessage,
		})
	}

	logger.Debug().
		Dur("total_duration", time.Since(start)).
		Msg("health check passed")

	if err := c.JSON(http.StatusOK, envelope.Success(envelope.Raw(report), healthyMessage)); err != nil {
		logger.Error().Err(err).Msg("failed to write JSON response")
		return fmt.Errorf("failed to write JSON response: %w", err)
	}

	return nil
}

func (h *HealthHandler) checkUpstream(ctx context.Context, logger zerolog.Logger) CheckResult {
	base := proxy.NormalizeBaseURL(h.server.Config.Upstream.BaseURL)
	if base == "" {
		logger.Error().Msg("upstream health check failed: base URL is not configured")
		return CheckResult{Status: statusUnconfigured}
	}

	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, base, nil)
	if err != nil {
		return CheckResult{Status: statusUnhealthy, Error: err.Error()}
	}

	resp, err := h.server.Upstream.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		logger.Error().
			Err(err).
			Dur("response_time", elapsed).
			Msg("upstream health check failed")

		h.recordFailure(checkUpstream, "upstream_unreachable", elapsed, err.Error())

		return CheckResult{
			Status:       statusUnhealthy,
			ResponseTime: elapsed.String(),
			Error:        "upstream unreachable",
		}
	}
	_ = resp.Body.Close()

	logger.Debug().
		Int("upstream_status", resp.StatusCode).
		Dur("response_time", elapsed).
		Msg("upstream health check passed")

	return CheckResult{Status: statusHealthy, ResponseTime: elapsed.String()}
}

func (h *HealthHandler) checkRedis(ctx context.Context, logger zerolog.Logger) CheckResult {
	start := time.Now()

	if err := h.server.Redis.Ping(ctx).Err(); err != nil {
		elapsed := time.Since(start)

		logger.Error().
			Err(err).
			Dur("response_time", elapsed).
			Msg("redis health check failed")

		h.recordFailure(checkRedis, "redis_unhealthy", elapsed, err.Error())

		return CheckResult{
			Status:       statusUnhealthy,
			ResponseTime: elapsed.String(),
			Error:        err.Error(),
		}
	}

	return CheckResult{Status: statusHealthy, ResponseTime: time.Since(start).String()}
}

func (h *HealthHandler) recordFailure(check, errorType string, elapsed time.Duration, message string) {
	app := h.server.LoggerService.GetApplication()
	if app == nil {
		return
	}

	attrs := map[string]interface{}{
		"check_type":       check,
		"operation":        "health_check",
		"error_type":       errorType,
		"response_time_ms": elapsed.Milliseconds(),
	}
	if message != "" {
		attrs["error_message"] = message
	}
	app.RecordCustomEvent(healthCheckEventKey, attrs)
}
