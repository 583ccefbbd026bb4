package httpserver

import (
	"log/slog"

	"github.com/labstack/echo/v4"
	"github.com/pscheid92/yggdrasil/internal/broadcast"
	"github.com/pscheid92/yggdrasil/internal/domain"
	apperrors "github.com/pscheid92/yggdrasil/internal/platform/errors"
)

func (s *Server) registerHeimdallRoutes() {
	s.echo.GET("/ws/heimdall", s.handleHeimdallStream)
}

// handleHeimdallStream upgrades to a WebSocket and streams network snapshots until the
// client goes away or the broadcast channel closes.
func (s *Server) handleHeimdallStream(c echo.Context) error {
	ip := c.RealIP()
	if ok, reason := s.connLimits.Acquire(ip); !ok {
		return apperrors.RateLimitedError("too many stream connections").
			WithField("reason", reason).
			WithField("ip", ip)
	}
	defer s.connLimits.Release(ip)

	conn, err := s.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// The upgrader has already written the HTTP error response.
		slog.WarnContext(c.Request().Context(), "WebSocket upgrade failed", "ip", ip, "error", err)
		return nil
	}

	transport := broadcast.NewWebSocketTransport(conn, s.clock)
	defer transport.Close()
	ctx := transport.Start(c.Request().Context())

	session := broadcast.NewSession[domain.NetworkState](s.network, transport, s.clock)
	slog.DebugContext(ctx, "Stream session started", "session_id", session.ID(), "ip", ip)

	session.Run(ctx)
	return nil
}
