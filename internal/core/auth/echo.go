package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// StatusCode maps an authentication error to an HTTP status.
func StatusCode(err error) int {
	switch {
	case errors.Is(err, ErrKeyRevoked):
		return http.StatusForbidden
	case errors.Is(err, ErrStore):
		return http.StatusServiceUnavailable
	default:
		return http.StatusUnauthorized
	}
}

// keyFromRequest reads X-API-Key, falling back to "Authorization: Bearer <key>".
func keyFromRequest(r *http.Request) string {
	if key := r.Header.Get(MetadataKey); key != "" {
		return strings.TrimSpace(key)
	}
	if authz := r.Header.Get(echo.HeaderAuthorization); strings.HasPrefix(authz, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(authz, "Bearer "))
	}
	return ""
}

// StripKey removes every header keyFromRequest reads a console key from.
// A Bearer token that is not a console key is left for the backend.
func StripKey(h http.Header) {
	h.Del(MetadataKey)
	authz := h.Get(echo.HeaderAuthorization)
	if strings.HasPrefix(authz, "Bearer ") &&
		strings.HasPrefix(strings.TrimSpace(strings.TrimPrefix(authz, "Bearer ")), KeyPrefix+"-") {
		h.Del(echo.HeaderAuthorization)
	}
}

// Middleware authenticates echo requests and stores the client ID on the
// request context and under the "client_id" echo key.
func (a *Authenticator) Middleware(skipper middleware.Skipper) echo.MiddlewareFunc {
	if skipper == nil {
		skipper = middleware.DefaultSkipper
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if skipper(c) {
				return next(c)
			}

			req := c.Request()
			clientID, err := a.Authenticate(req.Context(), keyFromRequest(req))
			if err != nil {
				return echo.NewHTTPError(StatusCode(err), err.Error()).SetInternal(err)
			}

			c.Set(string(clientIDKey), clientID)
			c.SetRequest(req.WithContext(WithClientID(req.Context(), clientID)))
			return next(c)
		}
	}
}
