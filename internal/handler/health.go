package handler

import (
	"context"
	"net/http"
	"slices"
	"time"

	"github.com/deppfellow/civil-registry/internal/middleware"
	"github.com/deppfellow/civil-registry/internal/server"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

const defaultHealthTimeout = 5 * time.Second

// healthCheck pings one dependency. Only required checks turn the overall
// status unhealthy; redis backs an optional cache tier and the job queue.
type healthCheck struct {
	name     string
	required bool
	ping     func(ctx context.Context) error
}

type HealthHandler struct {
	Handler
	env         string
	timeout     time.Duration
	checks      []healthCheck
	recordEvent func(eventType string, params map[string]any)
}

// NewHealthHandler checks the database and redis connections the server
// holds, limited to the names listed in observability.health_checks.checks.
func NewHealthHandler(s *server.Server) *HealthHandler {
	h := &HealthHandler{
		Handler: NewHandler(s),
		env:     s.Config.Primary.Env,
		timeout: defaultHealthTimeout,
	}

	enabled := func(string) bool { return true }
	if obs := s.Config.Observability; obs != nil {
		if obs.HealthChecks.Timeout > 0 {
			h.timeout = obs.HealthChecks.Timeout
		}
		if len(obs.HealthChecks.Checks) > 0 {
			enabled = func(name string) bool { return slices.Contains(obs.HealthChecks.Checks, name) }
		}
	}

	if s.DB != nil && enabled("database") {
		h.checks = append(h.checks, healthCheck{name: "database", required: true, ping: s.DB.Pool.Ping})
	}
	if s.Redis != nil && enabled("redis") {
		h.checks = append(h.checks, healthCheck{name: "redis", ping: func(ctx context.Context) error {
			return s.Redis.Ping(ctx).Err()
		}})
	}

	if s.LoggerService != nil {
		if app := s.LoggerService.GetApplication(); app != nil {
			h.recordEvent = app.RecordCustomEvent
		}
	}

	return h
}

// CheckHealth answers 200 when every required dependency responds and 503
// otherwise. Each check reports its status and response time.
func (h *HealthHandler) CheckHealth(c echo.Context) error {
	start := time.Now()
	logger := middleware.GetLogger(c).With().
		Str("operation", "health_check").
		Logger()

	checks := make(map[string]any, len(h.checks))
	healthy := true

	for _, check := range h.checks {
		ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
		checkStart := time.Now()
		err := check.ping(ctx)
		elapsed := time.Since(checkStart)
		cancel()

		if err != nil {
			checks[check.name] = map[string]any{
				"status":        "unhealthy",
				"response_time": elapsed.String(),
				"error":         err.Error(),
			}
			if check.required {
				healthy = false
			}

			logger.Error().
				Err(err).
				Str("check", check.name).
				Dur("response_time", elapsed).
				Msg("health check failed")

			h.record(map[string]any{
				"check_type":       check.name,
				"operation":        "health_check",
				"error_type":       check.name + "_unhealthy",
				"response_time_ms": elapsed.Milliseconds(),
				"error_message":    err.Error(),
			})
			continue
		}

		checks[check.name] = map[string]any{
			"status":        "healthy",
			"response_time": elapsed.String(),
		}
		logger.Debug().
			Str("check", check.name).
			Dur("response_time", elapsed).
			Msg("health check passed")
	}

	response := map[string]any{
		"status":      "healthy",
		"timestamp":   time.Now().UTC(),
		"environment": h.env,
		"checks":      checks,
	}

	status := http.StatusOK
	if !healthy {
		status = http.StatusServiceUnavailable
		response["status"] = "unhealthy"

		logger.Warn().Dur("total_duration", time.Since(start)).Msg("service unhealthy")
		h.record(map[string]any{
			"check_type":        "overall",
			"operation":         "health_check",
			"error_type":        "overall_unhealthy",
			"total_duration_ms": time.Since(start).Milliseconds(),
		})
	}

	if err := c.JSON(status, response); err != nil {
		return errors.Wrap(err, "write health response")
	}
	return nil
}

func (h *HealthHandler) record(params map[string]any) {
	if h.recordEvent != nil {
		h.recordEvent("HealthCheckError", params)
	}
}
