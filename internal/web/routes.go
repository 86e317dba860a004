package web

import (
	"github.com/go-chi/chi/v5"

	"github.com/UjjwalAsati/Attendance-System/internal/metrics"
	"github.com/UjjwalAsati/Attendance-System/internal/web/handlers"
	"github.com/UjjwalAsati/Attendance-System/internal/web/middleware"
)

func (s *Server) setupRoutes() {
	authHandler := handlers.NewAuthHandler(s.config, s.sessionManager)
	employeesHandler := handlers.NewEmployeesHandler(s.service)
	attendanceHandler := handlers.NewAttendanceHandler(s.service)
	configHandler := handlers.NewConfigHandler(s.config)

	if s.gatherer != nil {
		s.router.Handle("/metrics", metrics.Handler(s.gatherer))
	}

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", handlers.HealthCheck)

		r.Post("/auth/login", authHandler.Login)
		r.Post("/auth/logout", authHandler.Logout)
		r.Get("/auth/status", authHandler.Status)

		// Kiosk submission: no session, tenant from the X-Tenant header
		r.With(
			s.submitLimiter.Middleware(),
			middleware.WithTenant(),
		).Post("/attendance", attendanceHandler.Submit)

		// Dealer routes are bound to the session's tenant
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(s.sessionManager))
			r.Use(middleware.WithTenant())

			r.Get("/employees", employeesHandler.List)
			r.Post("/employees", employeesHandler.Create)

			r.Get("/attendance", attendanceHandler.List)
			r.Get("/attendance/report", attendanceHandler.Report)

			r.Get("/config", configHandler.Get)
		})
	})
}
