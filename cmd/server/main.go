package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"confide/internal/broadcast"
	"confide/internal/confession"
	"confide/internal/database/boltstore"
	"confide/internal/database/sqlitestore"
	"confide/internal/handlers"
	"confide/internal/ratelimit"
	"confide/internal/routing"
	"confide/internal/tracing"
)

// sweepInterval is how often the rate limiter drops expired windows.
const sweepInterval = 5 * time.Minute

func main() {
	// Load .env before reading any configuration. Missing file is fine;
	// production sets env vars directly.
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found, reading from environment")
	}

	// Configure zerolog
	// Set log level from environment (default: info)
	switch os.Getenv("LOG_LEVEL") {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	// Use pretty console logging in development, JSON in production
	if os.Getenv("LOG_FORMAT") == "json" {
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	} else {
		log.Logger = log.Output(zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		})
	}

	log.Info().Msg("Starting Confide")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Tracing is best-effort: without a collector the batcher just drops
	// spans.
	tp, err := tracing.Init(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to initialize tracing, continuing without it")
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tp.Shutdown(shutdownCtx); err != nil {
				log.Warn().Err(err).Msg("Tracer shutdown failed")
			}
		}()
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	dbPath := os.Getenv("DATABASE_PATH")
	if dbPath == "" {
		dbPath = filepath.Join("data", "confide.db")
	}
	store, err := sqlitestore.Open(dbPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", dbPath).Msg("Failed to open database")
	}
	defer store.Close()
	log.Info().Str("path", dbPath).Msg("Database opened")

	auditPath := os.Getenv("AUDIT_DB_PATH")
	if auditPath == "" {
		auditPath = filepath.Join("data", "audit.db")
	}
	audit, err := boltstore.Open(auditPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", auditPath).Msg("Failed to open audit database")
	}
	defer audit.Close()

	limiter := ratelimit.New(ratelimit.DefaultConfig())
	limiter.StartSweeper(ctx, sweepInterval)

	broadcaster := broadcast.New()

	service := confession.NewService(store, limiter, broadcaster)
	service.SetAudit(audit)

	adminKey := os.Getenv("ADMIN_KEY")
	if adminKey == "" {
		log.Warn().Msg("ADMIN_KEY not set, admin endpoints are disabled")
	}

	secureCookies := os.Getenv("SECURE_COOKIES") == "true"

	h := handlers.NewHandler(service, broadcaster, handlers.Config{
		SecureCookies: secureCookies,
		AdminKey:      adminKey,
	})

	handler := routing.SetupRouter(routing.Config{
		Handlers: h,
		Logger:   log.Logger,
	})

	srv := &http.Server{
		Addr:              "0.0.0.0:" + port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().
			Str("address", srv.Addr).
			Str("url", "http://localhost:"+port).
			Bool("secure_cookies", secureCookies).
			Bool("admin_enabled", adminKey != "").
			Msg("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Forced shutdown")
	}

	log.Info().Msg("Server exited")
}
