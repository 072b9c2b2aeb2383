package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/solatis/tpaconsole/internal/core/upstream"
	"github.com/solatis/tpaconsole/internal/types"
)

// Response is the envelope every console endpoint answers with.
type Response struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

const (
	statusSuccess = "success"
	statusError   = "error"
)

func respond(c echo.Context, code int, message string, data any) error {
	return c.JSON(code, Response{Status: statusSuccess, Message: message, Data: data})
}

// badRequestErrors are client mistakes in a request body.
var badRequestErrors = []error{
	types.ErrInvalidBody,
	types.ErrInvalidFactors,
	types.ErrTooManyFactors,
	types.ErrMissingFactorCode,
	types.ErrUnknownOperator,
	types.ErrMissingExactValue,
	types.ErrMissingRange,
	types.ErrMissingValues,
	types.ErrTooManyConditionValues,
}

// errorStatus maps an error to an HTTP status and a client-facing message.
// Backend 4xx answers pass through with the backend's message; backend 5xx
// and transport failures become 502.
func errorStatus(err error) (int, string) {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		if msg, ok := he.Message.(string); ok {
			return he.Code, msg
		}
		return he.Code, http.StatusText(he.Code)
	}

	if se, ok := upstream.AsStatusError(err); ok {
		if se.Status >= 400 && se.Status < 500 {
			return se.Status, se.Message()
		}
		return http.StatusBadGateway, types.ErrUpstreamStatus.Error()
	}

	for _, target := range badRequestErrors {
		if errors.Is(err, target) {
			return http.StatusBadRequest, err.Error()
		}
	}

	switch {
	case errors.Is(err, types.ErrNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, types.ErrUpstreamUnavailable):
		return http.StatusBadGateway, types.ErrUpstreamUnavailable.Error()
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

// ErrorHandler renders errors in the Response envelope and logs server-side failures.
func ErrorHandler(logger zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, message := errorStatus(err)
		if code >= http.StatusInternalServerError {
			logger.Error().
				Err(err).
				Str("request_id", requestID(c)).
				Str("path", c.Request().URL.Path).
				Int("status", code).
				Msg("request failed")
		}

		body := Response{Status: statusError, Message: message}
		if c.Request().Method == http.MethodHead {
			err = c.NoContent(code)
		} else {
			err = c.JSON(code, body)
		}
		if err != nil {
			logger.Error().Err(err).Msg("failed to write error response")
		}
	}
}
