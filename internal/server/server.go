// Package server exposes the run's operational endpoints over HTTP:
// Prometheus metrics, health and version.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/zsiec/abxclient/internal/config"
	"github.com/zsiec/abxclient/internal/health"
	"github.com/zsiec/abxclient/internal/logger"
)

// Server is the metrics and health HTTP server.
type Server struct {
	config     config.MetricsConfig
	router     *mux.Router
	httpServer *http.Server
	logger     logger.Logger
	healthMgr  *health.Manager
}

// New creates a server. healthMgr may be nil, in which case /health is not
// registered.
func New(cfg config.MetricsConfig, log logger.Logger, healthMgr *health.Manager) *Server {
	s := &Server{
		config:    cfg,
		router:    mux.NewRouter(),
		logger:    logger.WithComponent(log, "server"),
		healthMgr: healthMgr,
	}
	s.setupRoutes()
	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Start listens on the configured port and serves until ctx ends.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.httpServer.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx ends, then shuts down.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.logger.WithFields(map[string]interface{}{
		"addr": ln.Addr().String(),
		"path": s.config.Path,
	}).Info("Starting metrics server")

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("metrics server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		return s.Shutdown()
	}
}

// Shutdown stops the server, waiting up to five seconds for open requests.
func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown metrics server: %w", err)
	}
	s.logger.Debug("Metrics server shutdown complete")
	return nil
}

func (s *Server) setupRoutes() {
	s.router.Use(s.requestIDMiddleware)
	s.router.Use(s.recoveryMiddleware)

	s.router.Handle(s.config.Path, promhttp.Handler()).Methods("GET")

	if s.healthMgr != nil {
		h := health.NewHandler(s.healthMgr)
		s.router.HandleFunc("/health", h.HandleHealth).Methods("GET")
		s.router.HandleFunc("/live", h.HandleLive).Methods("GET")
	}

	s.router.HandleFunc("/version", s.handleVersion).Methods("GET")
}

// GetRouter returns the router for testing.
func (s *Server) GetRouter() *mux.Router {
	return s.router
}
