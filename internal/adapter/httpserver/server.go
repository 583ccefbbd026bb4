package httpserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"
	"github.com/pscheid92/yggdrasil/internal/broadcast"
	"github.com/pscheid92/yggdrasil/internal/domain"
	"github.com/pscheid92/yggdrasil/internal/platform/config"
)

// stateStream hands out subscriptions to network snapshots. Publishing stays with its owner.
type stateStream = broadcast.Subscriber[domain.NetworkState]

type Server struct {
	echo   *echo.Echo
	config *config.Config
	clock  clockwork.Clock

	astronomy domain.AstronomyService
	network   stateStream

	connLimits   *ConnectionLimits
	upgrader     websocket.Upgrader
	healthChecks []HealthCheck
	startTime    time.Time
}

func NewServer(cfg *config.Config, astronomy domain.AstronomyService, network stateStream, clock clockwork.Clock, healthChecks []HealthCheck) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	srv := &Server{
		echo:      e,
		config:    cfg,
		clock:     clock,
		astronomy: astronomy,
		network:   network,
		connLimits: NewConnectionLimits(
			int64(cfg.MaxWebSocketConnections),
			cfg.MaxWebSocketConnectionsPerIP,
			cfg.WebSocketConnectRate,
			cfg.MaxWebSocketConnectionsPerIP,
			clock,
		),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
		healthChecks: healthChecks,
		startTime:    clock.Now(),
	}

	e.HTTPErrorHandler = srv.handleHTTPError
	srv.registerRoutes()

	return srv
}

func (s *Server) Start() error {
	slog.Info("Starting server", "port", s.config.Port)
	if err := s.echo.Start(":" + s.config.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	return nil
}

// handleHTTPError renders errors that escape the middleware chain, such as router 404s,
// in the same JSON shape as handler errors.
func (s *Server) handleHTTPError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var httpErr *echo.HTTPError
	if !errors.As(err, &httpErr) {
		if err := HandleError(c, err); err != nil {
			slog.Error("Failed to write error response", "error", err)
		}
		return
	}

	wrapped := WrapHTTPError(httpErr)
	if err := c.JSON(httpErr.Code, wrapped.ToResponse()); err != nil {
		slog.Error("Failed to write error response", "error", err)
	}
}
