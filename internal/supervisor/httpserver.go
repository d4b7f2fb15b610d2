// Stylemesh - Multi-Strategy Catalog Recommendation Service
// Copyright 2026 Stylemesh Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stylemesh/stylemesh

package supervisor

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// HTTPServerConfig holds the HTTP server service settings.
type HTTPServerConfig struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// DefaultHTTPServerConfig returns production defaults.
func DefaultHTTPServerConfig(addr string) HTTPServerConfig {
	return HTTPServerConfig{
		Addr:            addr,
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    30 * time.Second,
		IdleTimeout:     120 * time.Second,
		ShutdownTimeout: 10 * time.Second,
	}
}

// HTTPServer runs an http.Server as a suture.Service. When the supervision
// context is canceled the server drains in-flight requests within the
// shutdown timeout.
type HTTPServer struct {
	config  HTTPServerConfig
	handler http.Handler
	logger  zerolog.Logger
}

// NewHTTPServer creates the HTTP server service.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewHTTPServer(config HTTPServerConfig, handler http.Handler, logger zerolog.Logger) *HTTPServer {
	return &HTTPServer{
		config:  config,
		handler: handler,
		logger:  logger,
	}
}

// Serve implements suture.Service.
func (s *HTTPServer) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.config.Addr,
		Handler:      s.handler,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}

	listener, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.config.Addr, err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(listener)
	}()

	s.logger.Info().Str("addr", listener.Addr().String()).Msg("http server listening")

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn().Err(err).Msg("http server shutdown incomplete")
			return err
		}
		s.logger.Info().Msg("http server stopped")
		return ctx.Err()
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
