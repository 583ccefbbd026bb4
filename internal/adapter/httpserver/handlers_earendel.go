package httpserver

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	apperrors "github.com/pscheid92/yggdrasil/internal/platform/errors"
)

func (s *Server) registerEarendelRoutes() {
	g := s.echo.Group("/earendel", s.apiRateLimiter())
	g.GET("/apod", s.handleAPOD)
	g.GET("/apod-fits", s.handleAPODFits)
}

func (s *Server) handleAPOD(c echo.Context) error {
	picture, err := s.astronomy.PictureOfTheDay(c.Request().Context())
	if err != nil {
		return apperrors.InternalError("internal server error", err).WithField("route", "apod")
	}

	if err := c.JSON(http.StatusOK, picture); err != nil {
		return fmt.Errorf("failed to write picture response: %w", err)
	}
	return nil
}

func (s *Server) handleAPODFits(c echo.Context) error {
	listing, err := s.astronomy.FitsOfTheDay(c.Request().Context())
	if err != nil {
		return apperrors.InternalError("internal server error", err).WithField("route", "apod-fits")
	}

	if err := c.JSON(http.StatusOK, listing); err != nil {
		return fmt.Errorf("failed to write fits response: %w", err)
	}
	return nil
}
