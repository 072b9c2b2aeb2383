package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/solatis/tpaconsole/internal/core/config"
)

// HTTPServer manages the echo server lifecycle.
type HTTPServer struct {
	echo   *echo.Echo
	config *config.ConsoleConfig
}

// NewHTTPServer wraps a configured router. Read and write deadlines follow
// console.request_timeout.
func NewHTTPServer(cfg *config.ConsoleConfig, router *echo.Echo) (*HTTPServer, error) {
	if cfg == nil {
		return nil, fmt.Errorf("cfg cannot be nil")
	}
	if router == nil {
		return nil, fmt.Errorf("router cannot be nil")
	}

	router.Server.ReadHeaderTimeout = cfg.RequestTimeout
	router.Server.ReadTimeout = cfg.RequestTimeout
	router.Server.WriteTimeout = cfg.RequestTimeout
	router.Server.IdleTimeout = 2 * cfg.RequestTimeout

	return &HTTPServer{echo: router, config: cfg}, nil
}

// Start binds console.host:console.port and serves until Shutdown.
func (s *HTTPServer) Start(ctx context.Context) error {
	addr := s.config.HTTPAddr()
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to bind %s: %w", addr, err)
	}
	return s.Serve(listener)
}

// Serve serves on an existing listener. Returns nil after Shutdown.
func (s *HTTPServer) Serve(listener net.Listener) error {
	s.echo.Listener = listener
	if err := s.echo.Start(""); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Addr returns the bound address, or nil before the server is listening.
func (s *HTTPServer) Addr() net.Addr {
	return s.echo.ListenerAddr()
}

// Shutdown drains in-flight requests with a 30-second timeout.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}
