// Package rtree is an in-process spatial index for the lazy strategy, backed by
// an R-tree. It is not persistent and is re-populated on every start.
package rtree

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/dhconnelly/rtreego"
	"github.com/paulmach/orb"

	"github.com/kailas-cloud/plzgeo/internal/domain/geo"
	domloc "github.com/kailas-cloud/plzgeo/internal/domain/location"
)

const (
	minChildren = 25
	maxChildren = 50
	// pointTolerance is the edge length of the degenerate rectangle a point occupies.
	pointTolerance = 1e-9
	// minCos below which the box spans every longitude.
	minCos = 1e-6
)

// item is a record stored in the tree at its (lon, lat) point.
type item struct {
	record domloc.Record
	rect   rtreego.Rect
}

func (it *item) Bounds() rtreego.Rect { return it.rect }

// Index implements usecase/proximity.SpatialIndex with rtreego.
type Index struct {
	mu   sync.RWMutex
	tree *rtreego.Rtree
}

// New creates an empty R-tree index.
func New() *Index {
	return &Index{tree: rtreego.NewTree(2, minChildren, maxChildren)}
}

// Persistent reports that the tree lives only in process memory.
func (i *Index) Persistent() bool { return false }

// Reset empties the tree.
func (i *Index) Reset(_ context.Context) error {
	i.mu.Lock()
	i.tree = rtreego.NewTree(2, minChildren, maxChildren)
	i.mu.Unlock()
	return nil
}

// Index inserts records into the tree.
func (i *Index) Index(ctx context.Context, records []domloc.Record) error {
	items := make([]*item, 0, len(records))
	for _, r := range records {
		p := r.Point()
		items = append(items, &item{
			record: r,
			rect:   rtreego.Point{p.Lon, p.Lat}.ToRect(pointTolerance),
		})
	}

	i.mu.Lock()
	defer i.mu.Unlock()
	for n, it := range items {
		if n%1000 == 0 {
			if err := ctx.Err(); err != nil {
				return fmt.Errorf("rtree insert: %w", err)
			}
		}
		i.tree.Insert(it)
	}
	return nil
}

// Size returns the number of indexed records.
func (i *Index) Size() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.tree.Size()
}

// Within returns the records within radiusKm of center, excluding center
// itself, ordered by (distance, code). Candidates come from a padded bounding
// box and are filtered with geo.Distance.
func (i *Index) Within(ctx context.Context, center domloc.Record, radiusKm float64) ([]domloc.Neighbor, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("rtree search: %w", err)
	}

	c := center.Point()
	rect, err := searchRect(c, radiusKm)
	if err != nil {
		return nil, fmt.Errorf("rtree search rect: %w", err)
	}

	i.mu.RLock()
	candidates := i.tree.SearchIntersect(rect)
	i.mu.RUnlock()

	out := make([]domloc.Neighbor, 0, len(candidates))
	for _, s := range candidates {
		it, ok := s.(*item)
		if !ok || it.record.Code() == center.Code() {
			continue
		}
		d := geo.Distance(c, it.record.Point())
		if float64(d) > radiusKm {
			continue
		}
		out = append(out, domloc.Neighbor{Code: it.record.Code(), DistanceKm: d})
	}
	domloc.SortNeighbors(out)
	return out, nil
}

// searchRect converts a radius around c into an R-tree query rectangle in
// (lon, lat) degrees. geo.Distance does not wrap longitude, so neither does the
// box: it is clamped to [-180, 180] and covers every point geo.Distance can
// place within radiusKm. The longitude span is sized for the latitude of the
// band farthest from the equator, and becomes the full range near a pole.
func searchRect(c geo.Point, radiusKm float64) (rtreego.Rect, error) {
	b := searchBound(c, radiusKm)
	return rtreego.NewRect(
		rtreego.Point{b.Min.Lon(), b.Min.Lat()},
		[]float64{math.Max(b.Max.Lon()-b.Min.Lon(), pointTolerance), math.Max(b.Max.Lat()-b.Min.Lat(), pointTolerance)},
	)
}

func searchBound(c geo.Point, radiusKm float64) orb.Bound {
	span := geo.SearchRadiusKm(radiusKm) / geo.KmPerDegree

	minLat, maxLat := clamp(c.Lat-span, -90, 90), clamp(c.Lat+span, -90, 90)
	minLon, maxLon := -180.0, 180.0

	// geo.Distance scales longitude by the cosine of the mean latitude, which
	// lies inside [minLat, maxLat].
	cos := math.Cos(math.Max(math.Abs(minLat), math.Abs(maxLat)) * math.Pi / 180)
	if cos > minCos {
		if dLon := span / cos; dLon < 180 {
			minLon, maxLon = clamp(c.Lon-dLon, -180, 180), clamp(c.Lon+dLon, -180, 180)
		}
	}

	return orb.Bound{Min: orb.Point{minLon, minLat}, Max: orb.Point{maxLon, maxLat}}
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Min(math.Max(v, lo), hi)
}
