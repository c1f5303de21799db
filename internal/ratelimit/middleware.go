package ratelimit

import (
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// KeyFunc derives the limiting key of a request.
type KeyFunc func(c echo.Context) string

// MiddlewareConfig configures Middleware.
type MiddlewareConfig struct {
	Limiter Limiter
	KeyFunc KeyFunc
	Skipper middleware.Skipper
	Logger  *slog.Logger
}

// RealIPKey limits by client address.
func RealIPKey(c echo.Context) string {
	return "ip:" + c.RealIP()
}

// Middleware rejects requests over budget with 429. Limiter errors let the
// request through.
func Middleware(cfg MiddlewareConfig) echo.MiddlewareFunc {
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = RealIPKey
	}
	if cfg.Skipper == nil {
		cfg.Skipper = middleware.DefaultSkipper
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if cfg.Limiter == nil || cfg.Skipper(c) {
				return next(c)
			}
			key := cfg.KeyFunc(c)
			decision, err := cfg.Limiter.Allow(c.Request().Context(), key)
			if err != nil {
				log.Warn("rate limiter unavailable", slog.String("key", key), slog.Any("error", err))
				return next(c)
			}
			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(decision.Limit))
			h.Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
			h.Set("X-RateLimit-Reset", strconv.FormatInt(decision.ResetAt.Unix(), 10))
			if !decision.Allowed {
				retry := int(math.Ceil(time.Until(decision.ResetAt).Seconds()))
				h.Set("Retry-After", strconv.Itoa(max(retry, 1)))
				return c.JSON(http.StatusTooManyRequests, map[string]string{"message": "Too many requests"})
			}
			return next(c)
		}
	}
}
