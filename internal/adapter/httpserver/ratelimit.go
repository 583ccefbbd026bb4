package httpserver

import (
	"log/slog"
	"math"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pscheid92/yggdrasil/internal/metrics"
	apperrors "github.com/pscheid92/yggdrasil/internal/platform/errors"
	"golang.org/x/time/rate"
)

const minVisitorExpiry = 5 * time.Minute

// apiRateLimiter throttles the APOD API routes per client IP. Every request on those
// routes can reach NASA on a cold cache, so the budget protects the upstream key.
func (s *Server) apiRateLimiter() echo.MiddlewareFunc {
	limit := rate.Limit(s.config.APIRateLimit)
	burst := s.config.APIRateBurst
	retryAfter := strconv.Itoa(retryAfterSeconds(limit))

	store := middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:      limit,
		Burst:     burst,
		ExpiresIn: visitorExpiry(limit, burst),
	})

	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: store,
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		DenyHandler: func(c echo.Context, ip string, _ error) error {
			metrics.RateLimitRejections.Inc()
			slog.WarnContext(c.Request().Context(), "API rate limit exceeded", "ip", ip, "path", c.Path())

			c.Response().Header().Set(echo.HeaderRetryAfter, retryAfter)
			return HandleError(c, apperrors.RateLimitedError("rate limit exceeded").WithField("ip", ip))
		},
	})
}

// retryAfterSeconds is the time until one token is back in the bucket, rounded up.
func retryAfterSeconds(limit rate.Limit) int {
	if limit <= 0 {
		return 1
	}
	return max(1, int(math.Ceil(1/float64(limit))))
}

// visitorExpiry keeps a visitor long enough for a drained bucket to refill, so an
// expired entry never hands out a fresh burst early.
func visitorExpiry(limit rate.Limit, burst int) time.Duration {
	if limit <= 0 {
		return minVisitorExpiry
	}
	refill := time.Duration(float64(burst) / float64(limit) * float64(time.Second))
	return max(minVisitorExpiry, refill)
}
