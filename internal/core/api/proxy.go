package api

import (
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/solatis/tpaconsole/internal/core/auth"
)

// ProxyPrefix is the console path whose remainder is forwarded verbatim.
const ProxyPrefix = "/api/v1/proxy"

// NewProxy forwards ProxyPrefix/* to the backend base URL unchanged: method,
// query, headers and body pass through, the console's own API key does not.
func NewProxy(baseURL string, timeout time.Duration, logger zerolog.Logger) (echo.MiddlewareFunc, error) {
	target, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid upstream URL: %w", err)
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.ResponseHeaderTimeout = timeout
	transport.DialContext = (&net.Dialer{Timeout: timeout}).DialContext

	proxy := middleware.ProxyWithConfig(middleware.ProxyConfig{
		Balancer: middleware.NewRoundRobinBalancer([]*middleware.ProxyTarget{{URL: target}}),
		Rewrite: map[string]string{
			ProxyPrefix + "/*": "/$1",
		},
		Transport: transport,
		ErrorHandler: func(c echo.Context, err error) error {
			logger.Warn().Err(err).Str("request_id", requestID(c)).Str("path", c.Request().URL.Path).Msg("proxy request failed")
			return echo.NewHTTPError(http.StatusBadGateway, "upstream backend unavailable")
		},
	})

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		forward := proxy(next)
		return func(c echo.Context) error {
			auth.StripKey(c.Request().Header)
			return forward(c)
		}
	}, nil
}
