// Package server собирает HTTP API fitsync-server: роутер, middleware и
// жизненный цикл http.Server.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/iudanet/fitsync/internal/config"
	"github.com/iudanet/fitsync/internal/server/handlers"
	"github.com/iudanet/fitsync/internal/server/metrics"
	"github.com/iudanet/fitsync/internal/server/middleware"
)

const (
	readTimeout     = 15 * time.Second
	writeTimeout    = 60 * time.Second
	idleTimeout     = 120 * time.Second
	shutdownTimeout = 15 * time.Second
	rateWindow      = time.Minute
)

// Storage хранилище сервера
type Storage interface {
	handlers.Store
	handlers.Pinger
}

// Server HTTP сервер синхронизации
type Server struct {
	httpServer *http.Server
	limiter    *middleware.RateLimiter
	logger     *slog.Logger
}

// New собирает роутер. m может быть nil, тогда /metrics не публикуется.
func New(cfg *config.ServerConfig, store Storage, m *metrics.Metrics, logger *slog.Logger) *Server {
	limiter := middleware.NewRateLimiter(cfg.RateLimit, rateWindow)

	jwtCfg := handlers.JWTConfig{
		Secret:         []byte(cfg.JWTSecret),
		AccessTokenTTL: cfg.TokenTTL,
	}
	health := handlers.NewHealthHandler(store, logger)
	collections := handlers.NewCollectionsHandler(store, m, cfg.MaxBodyBytes, logger)

	r := chi.NewRouter()
	r.Use(middleware.RecoveryMiddleware(logger))
	r.Use(chimw.RealIP)
	r.Use(middleware.LoggingMiddleware(logger, "/api/v1/health", "/metrics"))
	if m != nil {
		r.Use(middleware.MetricsMiddleware(m))
	}
	r.Use(middleware.RateLimitMiddleware(limiter, logger))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		handlers.WriteError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		handlers.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	if m != nil {
		r.Handle("/metrics", m.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", health.Health)

		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthMiddleware(logger, jwtCfg))

			r.Get("/collections/{collection}", collections.GetCollection)
			r.Put("/collections/{collection}", collections.PutCollection)
			r.Get("/manifest", collections.GetManifest)
			r.Put("/manifest", collections.PutManifest)
		})
	})

	return &Server{
		httpServer: &http.Server{
			Addr:              cfg.Address,
			Handler:           r,
			ReadTimeout:       readTimeout,
			ReadHeaderTimeout: readTimeout,
			WriteTimeout:      writeTimeout,
			IdleTimeout:       idleTimeout,
		},
		limiter: limiter,
		logger:  logger,
	}
}

// Handler корневой http.Handler (для тестов и встраивания)
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Run слушает адрес до отмены ctx, затем завершает активные запросы в
// пределах shutdownTimeout.
func (s *Server) Run(ctx context.Context) error {
	defer s.limiter.Stop()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("fitsync-server listening", "address", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}

// Close освобождает ресурсы, если Run не вызывался
func (s *Server) Close() {
	s.limiter.Stop()
}
