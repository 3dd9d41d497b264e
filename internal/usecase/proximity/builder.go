// Package proximity builds the proximity index and answers radius queries.
package proximity

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/plzgeo/internal/domain"
	"github.com/kailas-cloud/plzgeo/internal/domain/geo"
	domloc "github.com/kailas-cloud/plzgeo/internal/domain/location"
	domprox "github.com/kailas-cloud/plzgeo/internal/domain/proximity"
)

const defaultBatchSize = 100

// Options configures index construction.
type Options struct {
	Strategy      domprox.Strategy
	MaxDistKm     float64
	ForceRecreate bool
	// Workers bounds the eager neighbour scan pool. Zero means GOMAXPROCS.
	Workers int
	// BatchSize bounds the documents per storage round-trip.
	BatchSize int
}

// Report describes the outcome of Ensure or Rebuild.
type Report struct {
	Strategy domprox.Strategy
	Count    int
	Rebuilt  bool
	Elapsed  time.Duration
}

// Builder owns the index lifecycle: reuse, drop-and-recreate, build, verify.
type Builder struct {
	repo     Repository
	spatial  SpatialIndex
	source   Source
	opts     Options
	observer BuildObserver
	logger   *zap.Logger
	now      func() time.Time
}

// NewBuilder creates a Builder. spatial is required for the lazy strategy and
// ignored for eager.
func NewBuilder(repo Repository, spatial SpatialIndex, source Source, opts Options, logger *zap.Logger) *Builder {
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = defaultBatchSize
	}
	return &Builder{
		repo:    repo,
		spatial: spatial,
		source:  source,
		opts:    opts,
		logger:  logger,
		now:     time.Now,
	}
}

// WithObserver attaches a build observer (metrics).
func (b *Builder) WithObserver(o BuildObserver) *Builder {
	b.observer = o
	return b
}

// Ensure reuses a valid stored index or rebuilds it.
//
// The stored index is reused when recreation is not forced, a manifest exists
// for the configured strategy (eager: built with at least the configured max
// radius) and the indexed document count matches the manifest.
func (b *Builder) Ensure(ctx context.Context) (Report, error) {
	if b.opts.Strategy == domprox.Lazy && b.spatial == nil {
		return Report{}, fmt.Errorf("%w: lazy strategy requires a spatial index", domain.ErrBuildFailed)
	}

	if b.opts.ForceRecreate {
		b.logger.Info("Recreating the datasets")
		return b.Rebuild(ctx)
	}

	m, ok, err := b.repo.LoadManifest(ctx)
	if err != nil {
		return Report{}, domain.WrapStorage(err)
	}
	if !ok {
		b.logger.Info("No Datasets")
		return b.Rebuild(ctx)
	}
	if !m.Satisfies(b.opts.Strategy, b.opts.MaxDistKm) {
		b.logger.Info("Stored index does not match configuration, rebuilding",
			zap.String("stored_strategy", string(m.Strategy)),
			zap.Float64("stored_max_dist_km", m.MaxDistKm),
			zap.String("strategy", string(b.opts.Strategy)),
			zap.Float64("max_dist_km", b.opts.MaxDistKm),
		)
		return b.Rebuild(ctx)
	}

	count, err := b.repo.Count(ctx)
	if err != nil {
		return Report{}, domain.WrapStorage(err)
	}
	if count != m.Count {
		b.logger.Warn("Stored index is incomplete, rebuilding",
			zap.Int("stored", count), zap.Int("manifest", m.Count))
		return b.Rebuild(ctx)
	}

	start := b.now()
	if b.opts.Strategy == domprox.Lazy && !b.spatial.Persistent() {
		if err := b.reloadSpatial(ctx); err != nil {
			return Report{}, err
		}
	}

	b.logger.Info(fmt.Sprintf("Found %d entities", count),
		zap.String("strategy", string(m.Strategy)),
		zap.Time("built_at", m.BuiltAt),
	)
	return Report{Strategy: b.opts.Strategy, Count: count, Elapsed: b.now().Sub(start)}, nil
}

// Rebuild drops everything and builds the index from the source.
// Any failure leaves the stored index without a manifest, so the next Ensure
// rebuilds it from scratch.
func (b *Builder) Rebuild(ctx context.Context) (Report, error) {
	start := b.now()
	report, err := b.rebuild(ctx)
	if err != nil {
		if b.observer != nil {
			b.observer.BuildFailed(b.opts.Strategy)
		}
		b.logger.Error("Index build failed", zap.String("strategy", string(b.opts.Strategy)), zap.Error(err))
		return Report{}, err
	}

	report.Elapsed = b.now().Sub(start)
	if b.observer != nil {
		b.observer.BuildCompleted(b.opts.Strategy, report.Count, report.Elapsed)
	}
	b.logger.Info("Done",
		zap.String("strategy", string(b.opts.Strategy)),
		zap.Int("count", report.Count),
		zap.Duration("elapsed", report.Elapsed),
	)
	return report, nil
}

func (b *Builder) rebuild(ctx context.Context) (Report, error) {
	records, err := b.source.Load(ctx)
	if err != nil {
		return Report{}, buildErr("load records", err)
	}
	b.logger.Info(fmt.Sprintf("Parsed %d entities", len(records)))

	if err := b.repo.Drop(ctx); err != nil {
		return Report{}, buildErr("drop index", err)
	}
	if b.spatial != nil {
		if err := b.spatial.Reset(ctx); err != nil {
			return Report{}, buildErr("reset spatial index", err)
		}
	}
	if err := b.repo.Prepare(ctx); err != nil {
		return Report{}, buildErr("create index", err)
	}

	switch b.opts.Strategy {
	case domprox.Eager:
		err = b.buildEager(ctx, records)
	case domprox.Lazy:
		err = b.buildLazy(ctx, records)
	default:
		err = fmt.Errorf("unknown strategy %q", b.opts.Strategy)
	}
	if err != nil {
		return Report{}, buildErr(string(b.opts.Strategy)+" build", err)
	}

	count, err := b.repo.Count(ctx)
	if err != nil {
		return Report{}, buildErr("count documents", err)
	}
	if count != len(records) {
		return Report{}, fmt.Errorf("%w: stored %d documents, expected %d", domain.ErrBuildFailed, count, len(records))
	}

	// The manifest marks completion and is written last.
	m := domprox.Manifest{
		Strategy:  b.opts.Strategy,
		MaxDistKm: b.opts.MaxDistKm,
		Count:     count,
		BuiltAt:   b.now(),
	}
	if err := b.repo.SaveManifest(ctx, m); err != nil {
		return Report{}, buildErr("write manifest", err)
	}

	return Report{Strategy: b.opts.Strategy, Count: count, Rebuilt: true}, nil
}

// buildEager computes every record's neighbour list in a worker pool and
// streams finished entries to storage in batches. Records form an arena
// indexed by position; only in-flight lists are held in memory.
func (b *Builder) buildEager(ctx context.Context, records []domloc.Record) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	workers := b.opts.Workers
	jobs := make(chan int, workers*2)
	results := make(chan domloc.Entry, workers*2)

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				entry := domloc.Entry{Record: records[i], Nearest: neighborsOf(records, i, b.opts.MaxDistKm)}
				select {
				case results <- entry:
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	go func() {
		defer close(jobs)
		for i := range records {
			select {
			case jobs <- i:
			case <-ctx.Done():
				return
			}
		}
	}()

	progress := b.newProgress(len(records))
	batch := make([]domloc.Entry, 0, b.opts.BatchSize)
	var writeErr error

	flush := func() {
		if err := b.repo.SaveBatch(ctx, batch); err != nil {
			writeErr = err
			cancel()
			return
		}
		progress.add(len(batch))
		batch = batch[:0]
	}

	for entry := range results {
		if writeErr != nil {
			continue // drain until workers exit
		}
		batch = append(batch, entry)
		if len(batch) >= b.opts.BatchSize {
			flush()
		}
	}
	if writeErr == nil && len(batch) > 0 {
		flush()
	}

	if writeErr != nil {
		return writeErr
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if progress.done != len(records) {
		return fmt.Errorf("persisted %d of %d records", progress.done, len(records))
	}
	return nil
}

// neighborsOf scans the arena for records within maxDistKm of records[i].
// The result is sorted and never nil.
func neighborsOf(records []domloc.Record, i int, maxDistKm float64) []domloc.Neighbor {
	src := records[i].Point()
	out := make([]domloc.Neighbor, 0)
	for j := range records {
		if j == i {
			continue
		}
		d := geo.Distance(src, records[j].Point())
		if float64(d) <= maxDistKm {
			out = append(out, domloc.Neighbor{Code: records[j].Code(), DistanceKm: d})
		}
	}
	domloc.SortNeighbors(out)
	return out
}

// buildLazy stores coordinate-only documents and registers every record in
// the spatial index.
func (b *Builder) buildLazy(ctx context.Context, records []domloc.Record) error {
	progress := b.newProgress(len(records))
	batch := make([]domloc.Entry, 0, b.opts.BatchSize)

	for start := 0; start < len(records); start += b.opts.BatchSize {
		end := min(start+b.opts.BatchSize, len(records))
		batch = batch[:0]
		for _, r := range records[start:end] {
			batch = append(batch, domloc.Entry{Record: r})
		}
		if err := b.repo.SaveBatch(ctx, batch); err != nil {
			return err
		}
		progress.add(len(batch))
	}

	if err := b.spatial.Index(ctx, records); err != nil {
		return fmt.Errorf("spatial index: %w", err)
	}
	return nil
}

// reloadSpatial re-populates a non-persistent spatial index from the source.
func (b *Builder) reloadSpatial(ctx context.Context) error {
	records, err := b.source.Load(ctx)
	if err != nil {
		return buildErr("reload records", err)
	}
	if err := b.spatial.Reset(ctx); err != nil {
		return buildErr("reset spatial index", err)
	}
	if err := b.spatial.Index(ctx, records); err != nil {
		return buildErr("spatial index", err)
	}
	b.logger.Info("Spatial index loaded", zap.Int("records", len(records)))
	return nil
}

// progress logs and reports build completion every 10%.
type progress struct {
	b      *Builder
	total  int
	done   int
	decile int
}

func (b *Builder) newProgress(total int) *progress {
	return &progress{b: b, total: total}
}

func (p *progress) add(n int) {
	p.done += n
	if p.b.observer != nil {
		p.b.observer.BuildProgress(p.b.opts.Strategy, p.done, p.total)
	}
	if p.total == 0 {
		return
	}
	decile := p.done * 10 / p.total
	if decile > p.decile {
		p.decile = decile
		p.b.logger.Info("Build progress",
			zap.String("strategy", string(p.b.opts.Strategy)),
			zap.Int("percent", p.done*100/p.total),
			zap.Int("done", p.done),
			zap.Int("total", p.total),
		)
	}
}

// buildErr marks err as a build failure of the given stage.
func buildErr(stage string, err error) error {
	if errors.Is(err, domain.ErrBuildFailed) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", domain.ErrBuildFailed, stage, err)
}
