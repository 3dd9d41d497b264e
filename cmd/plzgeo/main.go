package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/plzgeo/internal/app"
	"github.com/kailas-cloud/plzgeo/internal/config"
	logpkg "github.com/kailas-cloud/plzgeo/internal/logger"
	"github.com/kailas-cloud/plzgeo/internal/metrics"
	chiTransport "github.com/kailas-cloud/plzgeo/internal/transport/chi"
	"github.com/kailas-cloud/plzgeo/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting plzgeo API server",
		zap.String("version", version.String()),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("namespace", cfg.Database.Namespace),
		zap.String("strategy", cfg.Index.Strategy),
		zap.Float64("max_dist_km", cfg.Index.MaxDistKm),
		zap.String("spatial_backend", cfg.Index.SpatialBackend),
	)

	if err := run(context.Background(), &cfg, logger); err != nil {
		logger.Fatal("plzgeo stopped", zap.Error(err))
	}
	logger.Info("Server stopped gracefully")
}

// run owns the app for the lifetime of the server, so the storage client is
// closed before main exits on error.
func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	a, err := app.New(ctx, cfg, logger, false)
	if err != nil {
		return fmt.Errorf("initialise: %w", err)
	}
	defer a.Close()

	// The index must be complete before the server accepts requests.
	report, err := a.EnsureIndex(ctx, cfg)
	if err != nil {
		return fmt.Errorf("index build: %w", err)
	}
	logger.Info("Index ready",
		zap.String("strategy", string(report.Strategy)),
		zap.Int("count", report.Count),
		zap.Bool("rebuilt", report.Rebuilt),
		zap.Duration("elapsed", report.Elapsed),
	)

	server := chiTransport.NewServer(a.Proximity, a.Text, a.Health, logger)
	handler := chiTransport.NewRouter(server, logger, metrics.Middleware())

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case err := <-serveErr:
		return fmt.Errorf("http server: %w", err)
	case <-quit:
		logger.Info("Received shutdown signal")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}
	return nil
}
