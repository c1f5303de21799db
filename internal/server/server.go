package server

import (
	"context"
	"log/slog"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/beybot/beybot/internal/auth"
	"github.com/beybot/beybot/internal/config"
	"github.com/beybot/beybot/internal/ratelimit"
	"github.com/beybot/beybot/internal/webhook"
)

// Handler registers its routes on the shared echo instance.
type Handler interface {
	Register(e *echo.Echo)
}

type Options struct {
	Addr      string
	JWTSecret string
	Logger    *slog.Logger
	// Limiter guards the authenticated API. Nil disables rate limiting.
	Limiter  ratelimit.Limiter
	Handlers []Handler
}

type Server struct {
	echo *echo.Echo
	addr string
}

func NewServer(opts Options) *Server {
	addr := opts.Addr
	if addr == "" {
		addr = config.DefaultHTTPAddr
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus: true,
		LogURI:    true,
		LogMethod: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			log.Info("request",
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
				slog.String("remote_ip", c.RealIP()),
			)
			return nil
		},
	}))
	e.Use(auth.JWTMiddleware(opts.JWTSecret, func(c echo.Context) bool {
		return shouldSkipJWT(c.Request().URL.Path)
	}))
	if opts.Limiter != nil {
		e.Use(ratelimit.Middleware(ratelimit.MiddlewareConfig{
			Limiter: opts.Limiter,
			KeyFunc: accountOrIPKey,
			Skipper: func(c echo.Context) bool {
				return !shouldRateLimit(c.Request().URL.Path)
			},
			Logger: log,
		}))
	}

	for _, h := range opts.Handlers {
		if h != nil {
			h.Register(e)
		}
	}
	return &Server{echo: e, addr: addr}
}

func (s *Server) Start() error {
	return s.echo.Start(s.addr)
}

func (s *Server) Stop(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// Echo exposes the router, mainly for in-process tests.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

func shouldSkipJWT(path string) bool {
	if path == "/ping" || path == "/health" {
		return true
	}
	return webhook.IsWebhookPath(path)
}

// shouldRateLimit covers the authenticated API. Webhook deliveries come from
// a handful of platform addresses and are never throttled.
func shouldRateLimit(path string) bool {
	if webhook.IsWebhookPath(path) {
		return false
	}
	return strings.HasPrefix(path, "/api/")
}

// accountOrIPKey limits authenticated callers per account and falls back to
// the client address.
func accountOrIPKey(c echo.Context) string {
	if userID, err := auth.UserIDFromContext(c); err == nil && userID != "" {
		return "account:" + userID
	}
	return ratelimit.RealIPKey(c)
}
