package proximity

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/kailas-cloud/plzgeo/internal/domain"
	domloc "github.com/kailas-cloud/plzgeo/internal/domain/location"
	domprox "github.com/kailas-cloud/plzgeo/internal/domain/proximity"
)

// Result is the answer to a radius query.
type Result struct {
	Strategy  domprox.Strategy
	Record    domloc.Record
	Neighbors []domloc.Neighbor
}

// ServiceConfig configures the query service.
type ServiceConfig struct {
	Strategy  domprox.Strategy
	MaxDistKm float64
	// Timeout bounds every query. Zero disables the bound.
	Timeout time.Duration
}

// Service answers radius queries against the built index.
type Service struct {
	entries  EntryReader
	spatial  SpatialIndex
	cfg      ServiceConfig
	observer QueryObserver
}

// NewService creates a query service. spatial is only used by the lazy strategy.
func NewService(entries EntryReader, spatial SpatialIndex, cfg ServiceConfig) *Service {
	return &Service{entries: entries, spatial: spatial, cfg: cfg}
}

// WithObserver attaches a query observer (metrics).
func (s *Service) WithObserver(o QueryObserver) *Service {
	s.observer = o
	return s
}

// Nearby returns the records within radiusKm of the record with the given
// code, nearest first. An unknown code yields found=false and no error.
func (s *Service) Nearby(ctx context.Context, code string, radiusKm float64) (Result, bool, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return Result{}, false, domain.InvalidArgument("zip code is required")
	}
	if math.IsNaN(radiusKm) || math.IsInf(radiusKm, 0) {
		return Result{}, false, domain.InvalidArgument("radius must be a finite number")
	}
	if radiusKm < 0 || radiusKm > s.cfg.MaxDistKm {
		return Result{}, false, domain.InvalidArgument("radius %g outside [0, %g]", radiusKm, s.cfg.MaxDistKm)
	}

	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	entry, found, err := s.entries.Get(ctx, code)
	if err != nil {
		return Result{}, false, domain.WrapStorage(err)
	}
	if !found {
		return Result{}, false, nil
	}

	var neighbors []domloc.Neighbor
	switch s.cfg.Strategy {
	case domprox.Eager:
		neighbors = domloc.WithinRadius(entry.Nearest, radiusKm)
	default:
		neighbors, err = s.spatial.Within(ctx, entry.Record, radiusKm)
		if err != nil {
			return Result{}, false, domain.WrapStorage(err)
		}
	}
	if neighbors == nil {
		neighbors = []domloc.Neighbor{}
	}

	if s.observer != nil {
		s.observer.NeighborsReturned(s.cfg.Strategy, len(neighbors))
	}
	return Result{Strategy: s.cfg.Strategy, Record: entry.Record, Neighbors: neighbors}, true, nil
}
