package web

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/UjjwalAsati/Attendance-System/internal/attendance"
	"github.com/UjjwalAsati/Attendance-System/internal/config"
	"github.com/UjjwalAsati/Attendance-System/internal/web/middleware"
)

// Server represents the web server
type Server struct {
	config         *config.Config
	service        *attendance.Service
	gatherer       prometheus.Gatherer
	router         *chi.Mux
	httpServer     *http.Server
	sessionManager *middleware.SessionManager
	submitLimiter  *middleware.RateLimiter
}

// NewServer creates a new web server. sessionRepo and gatherer may be nil;
// without a gatherer /metrics is not served.
func NewServer(cfg *config.Config, svc *attendance.Service, sessionRepo middleware.SessionRepository, gatherer prometheus.Gatherer) *Server {
	r := chi.NewRouter()

	s := &Server{
		config:         cfg,
		service:        svc,
		gatherer:       gatherer,
		router:         r,
		sessionManager: middleware.NewSessionManager(cfg.Auth.SessionSecret, sessionRepo),
		submitLimiter:  middleware.NewRateLimiter(cfg.Web.SubmitRatePerMinute, 5*time.Minute),
	}

	// Set up middleware stack
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(30 * time.Second))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Web.AllowedOrigins))

	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Web.Host, cfg.Web.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 45 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Start starts the HTTP server
func (s *Server) Start() error {
	slog.Info("starting web server", slog.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	slog.Info("shutting down web server")

	s.sessionManager.Stop()
	s.submitLimiter.Stop()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}
	return nil
}

// Router returns the chi router for testing
func (s *Server) Router() *chi.Mux {
	return s.router
}

// SessionManager returns the server's session manager
func (s *Server) SessionManager() *middleware.SessionManager {
	return s.sessionManager
}
