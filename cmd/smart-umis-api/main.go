// main is the entry point of the Smart UMIS API.
//
// STARTUP SEQUENCE:
//  1. Load configuration (defaults, optional YAML file, environment)
//  2. Initialise the logger
//  3. Open the SQLite database and create missing tables
//  4. Install the tracer provider for the configured exporter
//  5. Build the password hasher and the route table
//  6. Serve HTTP in a separate goroutine
//  7. On SIGINT/SIGTERM, drain in-flight requests, flush pending spans
//     and close the database
//
// RUNNING THE SERVER:
//
//	go run ./cmd/smart-umis-api --config=config/local.yaml
//
// or, with built-in defaults only (0.0.0.0:5000, ./smartumis.db):
//
//	go run ./cmd/smart-umis-api
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aanand-mishra/smart-umis-api/internal/config"
	"github.com/aanand-mishra/smart-umis-api/internal/http/router"
	"github.com/aanand-mishra/smart-umis-api/internal/password"
	"github.com/aanand-mishra/smart-umis-api/internal/storage/sqlite"
	"github.com/aanand-mishra/smart-umis-api/internal/telemetry"
)

const version = "1.0.0"

func main() {
	cfg := config.MustLoad()

	log := setupLogger(cfg.Env)
	slog.SetDefault(log)

	log.Info("starting smart-umis-api",
		slog.String("env", cfg.Env),
		slog.String("version", version),
	)

	// ── Storage ───────────────────────────────────────────────────────────
	storage, err := sqlite.New(cfg, log)
	if err != nil {
		log.Error("failed to initialise storage", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer storage.Close()

	log.Info("storage initialised", slog.String("path", cfg.StoragePath))

	// ── Tracing ───────────────────────────────────────────────────────────
	tracerProvider, shutdownTracing, err := telemetry.Setup(
		context.Background(), cfg.Tracing, cfg.Env, version, os.Stdout)
	if err != nil {
		log.Error("failed to initialise tracing", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(ctx); err != nil {
			log.Error("failed to flush spans", slog.String("error", err.Error()))
		}
	}()

	log.Info("tracing initialised", slog.String("exporter", cfg.Tracing.Exporter))

	hasher, err := password.New(cfg.Auth.PasswordHasher, cfg.Auth.BcryptCost)
	if err != nil {
		log.Error("failed to initialise password hasher", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if cfg.Auth.PasswordHasher == password.Plaintext {
		log.Warn("passwords are stored and compared in plaintext")
	}

	// ── HTTP server ───────────────────────────────────────────────────────
	server := &http.Server{
		Addr: cfg.HTTPServer.Addr,
		Handler: router.New(router.Deps{
			Store:          storage,
			Hasher:         hasher,
			Log:            log,
			HideDBErrors:   cfg.HideDBErrors,
			TracerProvider: tracerProvider,
		}),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("server started", slog.String("address", cfg.HTTPServer.Addr))

		// ErrServerClosed is the normal result of Shutdown.
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	// ── Wait for a shutdown signal ────────────────────────────────────────
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	select {
	case <-done:
		log.Info("shutdown signal received, stopping server...")
	case err := <-serveErr:
		log.Error("server encountered an error", slog.String("error", err.Error()))
		storage.Close()
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("failed to shutdown server gracefully", slog.String("error", err.Error()))
		return
	}

	log.Info("server stopped gracefully")
}

// setupLogger returns a *slog.Logger configured for the given environment.
//
// dev: human-readable text at DEBUG. staging: JSON at DEBUG. prod: JSON at INFO.
func setupLogger(env string) *slog.Logger {
	switch env {
	case "prod":
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	case "staging":
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	default:
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
}
