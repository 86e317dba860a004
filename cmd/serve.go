package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/UjjwalAsati/Attendance-System/internal/config"
	"github.com/UjjwalAsati/Attendance-System/internal/database/postgres"
	"github.com/UjjwalAsati/Attendance-System/internal/metrics"
	"github.com/UjjwalAsati/Attendance-System/internal/web"
	"github.com/UjjwalAsati/Attendance-System/internal/web/middleware"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web server",
	Long: `Start the attendance web server.
The server accepts kiosk submissions on POST /api/v1/attendance and serves
the dealer API for enrollment, attendance listing and daily reports.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", 0, "Port to listen on (overrides WEB_PORT)")
	serveCmd.Flags().String("host", "", "Host to bind to (overrides WEB_HOST)")
	serveCmd.Flags().String("session-secret", "", "Secret for signing session cookies (overrides WEB_SESSION_SECRET)")
}

// applyServeFlags lets command line flags override the environment.
func applyServeFlags(cmd *cobra.Command, cfg *config.Config) {
	if port := mustGetInt(cmd, "port"); port != 0 {
		cfg.Web.Port = port
	}
	if host := mustGetString(cmd, "host"); host != "" {
		cfg.Web.Host = host
	}
	if secret := mustGetString(cmd, "session-secret"); secret != "" {
		cfg.Auth.SessionSecret = secret
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	applyServeFlags(cmd, cfg)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := newApp(ctx, cfg, metrics.NewCollector(reg))
	if err != nil {
		return err
	}
	defer a.Close()

	var sessionRepo middleware.SessionRepository
	if a.pool != nil {
		sessionRepo = postgres.NewSessionRepository(a.pool)
		fmt.Printf("Session persistence enabled (PostgreSQL)\n")
	}
	if len(cfg.Tenants) > 0 {
		fmt.Printf("Serving %d tenants: %v\n", len(a.resolver.Keys()), a.resolver.Keys())
	}
	fmt.Printf("Matching strategy: %s (threshold %.2f)\n", cfg.Matching.Strategy, cfg.Matching.Threshold)

	server := web.NewServer(cfg, a.service, sessionRepo, reg)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Println("\nShutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(ctx, 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			fmt.Printf("Error during shutdown: %v\n", err)
		}
	}()

	fmt.Printf("Starting attendance server on http://%s:%d\n", cfg.Web.Host, cfg.Web.Port)
	fmt.Println("Press Ctrl+C to stop")

	if err := server.Start(); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}
	return nil
}
