package proximity

import (
	"context"
	"time"

	domloc "github.com/kailas-cloud/plzgeo/internal/domain/location"
	domprox "github.com/kailas-cloud/plzgeo/internal/domain/proximity"
)

// Repository defines the storage contract for the proximity index.
type Repository interface {
	EntryReader
	// Drop removes the text index, all documents and the manifest.
	Drop(ctx context.Context) error
	// Prepare creates the text index over documents.
	Prepare(ctx context.Context) error
	SaveBatch(ctx context.Context, entries []domloc.Entry) error
	Count(ctx context.Context) (int, error)
	LoadManifest(ctx context.Context) (m domprox.Manifest, ok bool, err error)
	SaveManifest(ctx context.Context, m domprox.Manifest) error
}

// EntryReader loads one stored entry by zip code.
type EntryReader interface {
	Get(ctx context.Context, code string) (entry domloc.Entry, found bool, err error)
}

// SpatialIndex answers radius queries for the lazy strategy.
type SpatialIndex interface {
	Reset(ctx context.Context) error
	Index(ctx context.Context, records []domloc.Record) error
	// Within returns neighbours of center within radiusKm, center excluded,
	// sorted by (distance, code).
	Within(ctx context.Context, center domloc.Record, radiusKm float64) ([]domloc.Neighbor, error)
	// Persistent reports whether the index survives a restart. A non-persistent
	// index is re-populated on every start.
	Persistent() bool
}

// Source supplies the full record set.
type Source interface {
	Load(ctx context.Context) ([]domloc.Record, error)
}

// BuildObserver receives diagnostic build events. Implementations must be
// safe to call from the build goroutine.
type BuildObserver interface {
	BuildProgress(strategy domprox.Strategy, done, total int)
	BuildCompleted(strategy domprox.Strategy, records int, elapsed time.Duration)
	BuildFailed(strategy domprox.Strategy)
}

// QueryObserver receives the neighbour count of every answered query.
type QueryObserver interface {
	NeighborsReturned(strategy domprox.Strategy, n int)
}
