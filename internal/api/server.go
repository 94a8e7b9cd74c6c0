package api

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/deployguard/impact-engine/internal/config"
)

// Server wraps the HTTP server implementation and lifecycle helpers.
type Server struct {
	cfg        config.ServerConfig
	httpServer *http.Server
	listener   net.Listener
}

// NewServer constructs an HTTP server bound to the configured address with
// the full middleware chain installed.
func NewServer(cfg config.ServerConfig, authCfg config.AuthConfig, rateCfg config.RateLimitConfig, logger *slog.Logger, handlers *Handlers) (*Server, error) {
	lis, err := net.Listen("tcp", cfg.Address)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", cfg.Address, err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	router := NewRouter(authCfg, rateCfg, logger, handlers)

	return &Server{
		cfg: cfg,
		httpServer: &http.Server{
			Handler:           router,
			ReadHeaderTimeout: 5 * time.Second,
		},
		listener: lis,
	}, nil
}

// NewRouter assembles the route table and middleware chain. Split out from
// NewServer so tests can exercise the full stack without a listener.
func NewRouter(authCfg config.AuthConfig, rateCfg config.RateLimitConfig, logger *slog.Logger, handlers *Handlers) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	router := chi.NewRouter()
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)

	router.Get("/health", handlers.Health)
	router.NotFound(handlers.NotFound)

	var apiLimiter, analysisLimiter *keyedLimiter
	if rateCfg.Enabled {
		apiLimiter = newKeyedLimiter(rateCfg.APIRequests, rateCfg.APIWindow)
		analysisLimiter = newKeyedLimiter(rateCfg.AnalysisRequests, rateCfg.AnalysisWindow)
	}

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(authMiddleware(authCfg))
		r.Use(auditMiddleware(logger))
		r.Use(rateLimitMiddleware(apiLimiter))

		r.Route("/alerts/impact-analysis", func(r chi.Router) {
			r.With(rateLimitMiddleware(analysisLimiter)).Post("/", handlers.AnalyzeAlert)
			r.Get("/recent", handlers.RecentAnalyses)
		})
	})

	return router
}

// Start serves incoming HTTP requests until Shutdown is invoked.
func (s *Server) Start() error {
	if s.httpServer == nil || s.listener == nil {
		return fmt.Errorf("server not initialised")
	}
	if err := s.httpServer.Serve(s.listener); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown attempts a graceful shutdown, falling back to Close after the
// context expires.
func (s *Server) Shutdown(ctx context.Context) {
	if s.httpServer == nil {
		return
	}
	if err := s.httpServer.Shutdown(ctx); err != nil {
		_ = s.httpServer.Close()
	}
}

// Address exposes the bound listener address (useful for tests).
func (s *Server) Address() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// GracefulTimeout returns the configured graceful timeout duration.
func (s *Server) GracefulTimeout() time.Duration {
	return s.cfg.GracefulTimeout
}
