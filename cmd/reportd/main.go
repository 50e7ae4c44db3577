package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/casper12340/Kustomer-Agent-Performance-Tool-Copy/internal/api"
	"github.com/casper12340/Kustomer-Agent-Performance-Tool-Copy/internal/auth"
	"github.com/casper12340/Kustomer-Agent-Performance-Tool-Copy/internal/config"
	"github.com/casper12340/Kustomer-Agent-Performance-Tool-Copy/internal/metrics"
	"github.com/casper12340/Kustomer-Agent-Performance-Tool-Copy/internal/storage"
	"github.com/casper12340/Kustomer-Agent-Performance-Tool-Copy/pkg/middleware"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// Configure logger
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	// Set log level
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Warn().Str("level", cfg.LogLevel).Msg("invalid log level, using info")
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	log.Info().
		Str("port", cfg.Port).
		Str("report_dir", cfg.OutputDir).
		Strs("allowed_origins", cfg.AllowedOrigins).
		Str("log_level", cfg.LogLevel).
		Msg("starting report server")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Run history store (noop unless DYNAMO_MODE is set)
	store, err := storage.NewStore(ctx, log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize run store")
	}

	reportsHandler := api.NewReportsHandler(cfg.OutputDir, log.Logger)
	runsHandler := api.NewRunsHandler(store, log.Logger)

	// Create router
	r := chi.NewRouter()

	// Add middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(log.Logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(cfg.AllowedOrigins))

	// Register public routes (no auth required)
	r.Get("/healthz", api.HandleHealth)
	r.Get("/metrics", metrics.Get().Handler())

	// Protected routes when an issuer is configured, open otherwise
	r.Group(func(r chi.Router) {
		if cfg.AuthIssuerURL != "" {
			if err := auth.InitJWKS(cfg.AuthIssuerURL); err != nil {
				log.Fatal().Err(err).Msg("failed to initialize JWKS")
			}
			r.Use(auth.Middleware)
		}
		r.Get("/reports", reportsHandler.HandleList)
		r.Get("/reports/{name}", reportsHandler.HandleDownload)
		r.Get("/runs", runsHandler.HandleList)
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Msgf("server listening on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server...")

	cancel()

	// Create shutdown context with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	// Attempt graceful shutdown
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}
