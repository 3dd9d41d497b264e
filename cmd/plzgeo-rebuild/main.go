// Command plzgeo-rebuild drops and rebuilds the proximity index, then exits.
// Run it while the API server is stopped.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/kailas-cloud/plzgeo/internal/app"
	"github.com/kailas-cloud/plzgeo/internal/config"
	logpkg "github.com/kailas-cloud/plzgeo/internal/logger"
	proximityuc "github.com/kailas-cloud/plzgeo/internal/usecase/proximity"
	"github.com/kailas-cloud/plzgeo/internal/version"
)

func main() {
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

	logger.Info("Rebuilding plzgeo index",
		zap.String("version", version.String()),
		zap.String("env", env),
		zap.String("input_data", cfg.Ingest.InputData),
		zap.String("strategy", cfg.Index.Strategy),
		zap.Float64("max_dist_km", cfg.Index.MaxDistKm),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	open := func(ctx context.Context) (rebuilder, error) {
		return app.New(ctx, &cfg, logger, true)
	}
	report, err := run(ctx, &cfg, open)
	if err != nil {
		logger.Fatal("Index rebuild failed", zap.Error(err))
	}
	logger.Info("Index rebuilt",
		zap.String("strategy", string(report.Strategy)),
		zap.Int("count", report.Count),
		zap.Duration("elapsed", report.Elapsed),
	)
}

// rebuilder is the part of app.App the command drives.
type rebuilder interface {
	EnsureIndex(ctx context.Context, cfg *config.Config) (proximityuc.Report, error)
	Close()
}

// run opens the app, rebuilds and closes it again on every path.
func run(ctx context.Context, cfg *config.Config, open func(context.Context) (rebuilder, error)) (proximityuc.Report, error) {
	a, err := open(ctx)
	if err != nil {
		return proximityuc.Report{}, fmt.Errorf("initialise: %w", err)
	}
	defer a.Close()

	return a.EnsureIndex(ctx, cfg)
}
