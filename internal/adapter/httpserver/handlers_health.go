package httpserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pscheid92/yggdrasil/internal/platform/version"
)

const readinessProbeTimeout = 5 * time.Second

// HealthCheck is a named readiness check. A nil error means healthy.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// BridgeCheck fails once the snapshot bridge worker has exited. Sessions stay
// connected after that but never receive another snapshot.
func BridgeCheck(bridge interface{ Running() bool }) HealthCheck {
	return HealthCheck{
		Name: "bridge",
		Check: func(context.Context) error {
			if !bridge.Running() {
				return errors.New("bridge worker is not running")
			}
			return nil
		},
	}
}

type readinessResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func (s *Server) registerHealthRoutes() {
	s.echo.GET("/health/live", s.handleLiveness)
	s.echo.GET("/health/ready", s.handleReadiness)
	s.echo.GET("/version", s.handleVersion)
}

func (s *Server) handleLiveness(c echo.Context) error {
	response := map[string]any{
		"status":  "ok",
		"uptime":  s.clock.Since(s.startTime).Seconds(),
		"version": version.Version,
	}
	if err := c.JSON(http.StatusOK, response); err != nil {
		return fmt.Errorf("failed to write liveness response: %w", err)
	}
	return nil
}

// handleReadiness runs every check and reports each result, so one failure does not hide another.
func (s *Server) handleReadiness(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), readinessProbeTimeout)
	defer cancel()

	response := readinessResponse{Status: "ready", Checks: make(map[string]string, len(s.healthChecks))}
	code := http.StatusOK

	for _, hc := range s.healthChecks {
		if err := hc.Check(ctx); err != nil {
			response.Checks[hc.Name] = err.Error()
			response.Status = "unhealthy"
			code = http.StatusServiceUnavailable
			slog.WarnContext(ctx, "Readiness check failed", "check", hc.Name, "error", err)
			continue
		}
		response.Checks[hc.Name] = "ok"
	}

	if err := c.JSON(code, response); err != nil {
		return fmt.Errorf("failed to write readiness response: %w", err)
	}
	return nil
}

func (s *Server) handleVersion(c echo.Context) error {
	if err := c.JSON(http.StatusOK, version.Get()); err != nil {
		return fmt.Errorf("failed to write version response: %w", err)
	}
	return nil
}
