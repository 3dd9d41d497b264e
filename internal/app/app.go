// Package app wires configuration, storage and use cases into a runnable service.
package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/plzgeo/internal/config"
	dbRedis "github.com/kailas-cloud/plzgeo/internal/db/redis"
	domprox "github.com/kailas-cloud/plzgeo/internal/domain/proximity"
	"github.com/kailas-cloud/plzgeo/internal/ingest"
	"github.com/kailas-cloud/plzgeo/internal/metrics"
	"github.com/kailas-cloud/plzgeo/internal/repository/geoset"
	"github.com/kailas-cloud/plzgeo/internal/repository/keyspace"
	locationrepo "github.com/kailas-cloud/plzgeo/internal/repository/location"
	textrepo "github.com/kailas-cloud/plzgeo/internal/repository/textsearch"
	"github.com/kailas-cloud/plzgeo/internal/spatial/rtree"
	healthuc "github.com/kailas-cloud/plzgeo/internal/usecase/health"
	proximityuc "github.com/kailas-cloud/plzgeo/internal/usecase/proximity"
	textuc "github.com/kailas-cloud/plzgeo/internal/usecase/textsearch"
)

// App holds the wired components. Close releases the storage connection.
type App struct {
	Store     *dbRedis.Store
	Builder   *proximityuc.Builder
	Proximity *proximityuc.Service
	Text      *textuc.Service
	Health    *healthuc.Service
}

// New connects to storage and wires every component. forceRecreate overrides
// the configured index.force_recreate when true.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger, forceRecreate bool) (*App, error) {
	store, err := dbRedis.NewStore(dbRedis.Config{
		URL:         cfg.Database.URL,
		DialTimeout: time.Duration(cfg.Database.DialTimeoutSec) * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("create database store: %w", err)
	}

	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		store.Close()
		return nil, fmt.Errorf("database not ready: %w", err)
	}
	logger.Info("Connected to database")

	keys := keyspace.New(cfg.Database.Namespace)
	locRepo := locationrepo.New(store, keys)
	strategy := cfg.Strategy()
	observer := metrics.NewObserver()

	// Pass a nil interface, not a typed nil pointer, when no spatial index is needed.
	var spatial proximityuc.SpatialIndex
	if strategy == domprox.Lazy {
		switch cfg.Index.SpatialBackend {
		case config.SpatialMemory:
			spatial = rtree.New()
		default:
			spatial = geoset.New(store, keys.Geo(), keys.GeoCoords(), logger)
		}
	}

	builder := proximityuc.NewBuilder(
		locRepo, spatial, ingest.NewFileSource(cfg.Ingest.InputData, logger),
		proximityuc.Options{
			Strategy:      strategy,
			MaxDistKm:     cfg.Index.MaxDistKm,
			ForceRecreate: cfg.Index.ForceRecreate || forceRecreate,
			Workers:       cfg.Index.Workers,
			BatchSize:     cfg.Index.WriteBatchSize,
		},
		logger,
	).WithObserver(observer)

	queryTimeout := time.Duration(cfg.Database.QueryTimeoutSec) * time.Second
	proximity := proximityuc.NewService(locRepo, spatial, proximityuc.ServiceConfig{
		Strategy:  strategy,
		MaxDistKm: cfg.Index.MaxDistKm,
		Timeout:   queryTimeout,
	}).WithObserver(observer)

	text := textuc.New(textrepo.New(store, keys), cfg.Search.Limit, queryTimeout)

	return &App{
		Store:     store,
		Builder:   builder,
		Proximity: proximity,
		Text:      text,
		Health:    healthuc.New(store, locRepo),
	}, nil
}

// EnsureIndex runs Builder.Ensure bounded by database.build_timeout_sec.
func (a *App) EnsureIndex(ctx context.Context, cfg *config.Config) (proximityuc.Report, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(cfg.Database.BuildTimeoutSec)*time.Second)
	defer cancel()

	report, err := a.Builder.Ensure(ctx)
	if err != nil {
		return proximityuc.Report{}, fmt.Errorf("ensure index: %w", err)
	}
	return report, nil
}

// Close releases the storage connection.
func (a *App) Close() {
	a.Store.Close()
}
