package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/solatis/tpaconsole/internal/core/metrics"
)

// RouterConfig assembles the HTTP surface. Nil middlewares are skipped.
type RouterConfig struct {
	Service     *Service
	Logger      zerolog.Logger
	CORSOrigins []string

	// Auth guards every /api/v1 route, the proxy included.
	Auth echo.MiddlewareFunc
	// RateLimit runs after Auth so limits key on the client ID.
	RateLimit echo.MiddlewareFunc
	// Proxy forwards ProxyPrefix/* to the backend.
	Proxy echo.MiddlewareFunc
	// Metrics, when set, instruments every request and serves GET /metrics.
	Metrics *metrics.Metrics
}

// NewRouter builds the echo instance serving the console API.
func NewRouter(cfg RouterConfig) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = ErrorHandler(cfg.Logger)

	e.Use(RequestID())
	e.Use(Logger(cfg.Logger))
	if cfg.Metrics != nil {
		// Outside Recovery so recovered panics are counted as 500s
		e.Use(Instrument(cfg.Metrics))
		e.GET("/metrics", echo.WrapHandler(cfg.Metrics.Handler()))
		cfg.Service.SetMetrics(cfg.Metrics)
	}
	e.Use(Recovery(cfg.Logger))
	if len(cfg.CORSOrigins) > 0 {
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins:  cfg.CORSOrigins,
			AllowHeaders:  []string{echo.HeaderContentType, echo.HeaderAuthorization, "X-API-Key", RequestIDHeader},
			ExposeHeaders: []string{RequestIDHeader, "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After"},
		}))
	}

	e.GET("/health", func(c echo.Context) error {
		return respond(c, http.StatusOK, "", map[string]string{"status": "ok"})
	})

	var guards []echo.MiddlewareFunc
	for _, mw := range []echo.MiddlewareFunc{cfg.Auth, cfg.RateLimit} {
		if mw != nil {
			guards = append(guards, mw)
		}
	}

	v1 := e.Group("/api/v1", guards...)
	cfg.Service.Register(v1)

	if cfg.Proxy != nil {
		v1.Any("/proxy/*", echo.NotFoundHandler, cfg.Proxy)
	}

	return e
}
