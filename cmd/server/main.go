package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/otcheredev/medpres-client/internal/adapters"
	"github.com/otcheredev/medpres-client/internal/config"
	"github.com/otcheredev/medpres-client/internal/database"
	"github.com/otcheredev/medpres-client/internal/handlers"
	"github.com/otcheredev/medpres-client/internal/metrics"
	"github.com/otcheredev/medpres-client/internal/middleware"
	"github.com/otcheredev/medpres-client/internal/repository"
	"github.com/otcheredev/medpres-client/internal/session"
	"github.com/otcheredev/medpres-client/internal/store"
	"github.com/otcheredev/medpres-client/pkg/logger"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "medpres",
		Short:         "MedPres appointment and prescription client",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(pingCmd())

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("Command failed")
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the view host",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return runServer(cfg)
		},
	}
}

func pingCmd() *cobra.Command {
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "ping",
		Short: "Check that the configured backend answers",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			backend, err := adapters.NewBackend(backendConfig(cfg))
			if err != nil {
				return err
			}
			defer backend.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			if err := backend.Ping(ctx); err != nil {
				return fmt.Errorf("backend (%s) is not reachable: %w", backend.Mode(), err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "backend (%s) is reachable\n", backend.Mode())
			return nil
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "how long to wait for an answer")
	return cmd
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	logger.Init(cfg.Log.Level, cfg.Log.Format)
	return cfg, nil
}

func backendConfig(cfg *config.Config) adapters.Config {
	return adapters.Config{
		Mode:        cfg.Backend.Mode,
		BaseURL:     adapters.BaseURL(cfg.Backend.APIHost, cfg.Backend.APIPort),
		Timeout:     cfg.Backend.APITimeout,
		AuthDelay:   cfg.Backend.MockAuthDelay,
		Delay:       cfg.Backend.MockDelay,
		TokenSecret: cfg.Backend.MockTokenSecret,
	}
}

func runServer(cfg *config.Config) error {
	log.Info().Str("mode", cfg.Backend.Mode).Msg("Starting MedPres client")

	ctx := context.Background()

	// Initialize session storage
	sessionStore, err := store.Open(ctx, cfg.Session.Store, store.Options{
		FilePath:      cfg.Session.File,
		RedisAddr:     cfg.RedisAddr(),
		RedisPassword: cfg.Redis.Password,
		RedisDB:       cfg.Redis.DB,
	})
	if err != nil {
		return fmt.Errorf("failed to open session store: %w", err)
	}
	defer sessionStore.Close()
	log.Info().Str("store", cfg.Session.Store).Msg("Session store initialized")

	// Initialize backend
	backend, err := adapters.NewBackend(backendConfig(cfg))
	if err != nil {
		return fmt.Errorf("failed to create backend: %w", err)
	}
	defer backend.Close()

	var backendMetrics *metrics.BackendMetrics
	if cfg.Metrics.Enabled {
		backendMetrics = metrics.NewBackendMetrics(nil)
		backend = adapters.Instrument(backend, backendMetrics)
	}

	// Audit trail
	var (
		recorder session.Recorder = repository.LogRecorder{}
		trail    handlers.AuditLister
		dbPing   handlers.Pinger
	)
	if cfg.Audit.Enabled {
		dbConfig := database.Config{
			Host:     cfg.Database.Host,
			Port:     cfg.Database.Port,
			User:     cfg.Database.User,
			Password: cfg.Database.Password,
			DBName:   cfg.Database.DBName,
			SSLMode:  cfg.Database.SSLMode,
			LogLevel: cfg.Database.LogLevel,
		}
		if err := database.Connect(dbConfig); err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer database.Close()

		auditRepo := repository.NewAuditRepository(database.DB)
		recorder, trail = auditRepo, auditRepo
		dbPing = func(context.Context) error { return database.Ping() }
	}

	manager := session.NewManager(sessionStore, backend,
		session.WithRecorder(recorder),
		session.WithTTL(cfg.Session.TTL),
	)

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(backend, dbPing)
	viewHandler := handlers.NewViewHandler(backend, recorder, trail)

	// Setup router
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Recovery)
	r.Use(middleware.Logging)
	r.Use(chimiddleware.Compress(5))

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   cfg.CORS.AllowedMethods,
		AllowedHeaders:   cfg.CORS.AllowedHeaders,
		ExposedHeaders:   []string{"Content-Length", "Content-Type", "Location"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health endpoints (no session required)
	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)

	// Metrics endpoint
	if cfg.Metrics.Enabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	// Views
	r.Group(func(r chi.Router) {
		r.Use(middleware.Sessions(manager, cfg.Session.Secure))
		r.Use(middleware.Gate(recorder, backendMetrics))
		viewHandler.Routes(r)
	})

	// Create server
	addr := cfg.ServerAddr()
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in a goroutine
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("Server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errCh:
		return fmt.Errorf("server failed to start: %w", err)
	}

	log.Info().Msg("Shutting down server...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info().Msg("Server stopped")
	return nil
}
