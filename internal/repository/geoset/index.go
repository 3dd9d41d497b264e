// Package geoset is the lazy strategy's spatial index backed by a Redis GEO set.
package geoset

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/plzgeo/internal/db"
	"github.com/kailas-cloud/plzgeo/internal/domain/geo"
	domloc "github.com/kailas-cloud/plzgeo/internal/domain/location"
)

const (
	// addChunk bounds the members per GEOADD.
	addChunk = 500
	// MaxLatitude is the largest absolute latitude GEOADD accepts (the
	// Web Mercator limit). Records beyond it are not registered.
	MaxLatitude = 85.05112878
)

// store is the consumer interface for GEO operations (ISP).
type store interface {
	GeoAdd(ctx context.Context, key string, members []db.GeoMember) error
	GeoSearch(ctx context.Context, q *db.GeoQuery) ([]db.GeoHit, error)
	HSet(ctx context.Context, key string, fields map[string]string) error
	HMGet(ctx context.Context, key string, fields []string) (map[string]string, error)
	Del(ctx context.Context, key string) error
}

// Index implements usecase/proximity.SpatialIndex over GEOADD/GEOSEARCH.
//
// GEOSEARCH reports coordinates decoded from a 52-bit geohash, which may be
// off by under a metre. Distances are computed from the exact coordinates
// kept in a companion hash so they round the same way as the eager strategy.
type Index struct {
	store     store
	key       string
	coordsKey string
	logger    *zap.Logger
}

// New creates a GEO-set spatial index stored under key, with exact
// coordinates kept in the hash coordsKey.
func New(s store, key, coordsKey string, logger *zap.Logger) *Index {
	return &Index{store: s, key: key, coordsKey: coordsKey, logger: logger}
}

// Persistent reports that the GEO set survives restarts.
func (i *Index) Persistent() bool { return true }

// Reset deletes the GEO set and its coordinate hash.
func (i *Index) Reset(ctx context.Context) error {
	for _, key := range []string{i.key, i.coordsKey} {
		if err := i.store.Del(ctx, key); err != nil {
			return fmt.Errorf("del %s: %w", key, err)
		}
	}
	return nil
}

// Index registers records in the GEO set. Records beyond MaxLatitude are
// skipped with a warning.
func (i *Index) Index(ctx context.Context, records []domloc.Record) error {
	skipped := 0
	for start := 0; start < len(records); start += addChunk {
		end := min(start+addChunk, len(records))
		members := make([]db.GeoMember, 0, end-start)
		coords := make(map[string]string, end-start)
		for _, r := range records[start:end] {
			p := r.Point()
			if !Indexable(p) {
				skipped++
				i.logger.Warn("skipping record beyond GEO latitude limit",
					zap.String("zip_code", r.Code()),
					zap.Float64("lat", p.Lat),
				)
				continue
			}
			members = append(members, db.GeoMember{Name: r.Code(), Lat: p.Lat, Lon: p.Lon})
			coords[r.Code()] = formatCoords(p)
		}
		if len(members) == 0 {
			continue
		}
		if err := i.store.GeoAdd(ctx, i.key, members); err != nil {
			return fmt.Errorf("geoadd %s: %w", i.key, err)
		}
		if err := i.store.HSet(ctx, i.coordsKey, coords); err != nil {
			return fmt.Errorf("hset %s: %w", i.coordsKey, err)
		}
	}
	if skipped > 0 {
		i.logger.Warn("GEO set is missing records", zap.Int("skipped", skipped), zap.Float64("max_lat", MaxLatitude))
	}
	return nil
}

// Indexable reports whether p can be stored in a GEO set.
func Indexable(p geo.Point) bool {
	return math.Abs(p.Lat) <= MaxLatitude
}

// Within returns the records within radiusKm of center, excluding center
// itself, ordered by (distance, code).
//
// GEOSEARCH measures with haversine on a different earth radius, so the
// server-side radius is padded and the result filtered with geo.Distance.
// A center beyond MaxLatitude is searched from the nearest point on the limit
// with the radius widened by the gap.
func (i *Index) Within(ctx context.Context, center domloc.Record, radiusKm float64) ([]domloc.Neighbor, error) {
	c := center.Point()
	from, radius := c, geo.SearchRadiusKm(radiusKm)
	if !Indexable(c) {
		from.Lat = math.Copysign(MaxLatitude, c.Lat)
		radius += geo.SearchRadiusKm((math.Abs(c.Lat) - MaxLatitude) * geo.KmPerDegree)
	}

	hits, err := i.store.GeoSearch(ctx, &db.GeoQuery{
		Key:    i.key,
		Lat:    from.Lat,
		Lon:    from.Lon,
		Radius: radius,
		Unit:   db.GeoKilometers,
	})
	if err != nil {
		return nil, fmt.Errorf("geosearch %s: %w", i.key, err)
	}

	names := make([]string, 0, len(hits))
	for _, h := range hits {
		if h.Name != center.Code() {
			names = append(names, h.Name)
		}
	}
	exact, err := i.store.HMGet(ctx, i.coordsKey, names)
	if err != nil {
		return nil, fmt.Errorf("hmget %s: %w", i.coordsKey, err)
	}

	out := make([]domloc.Neighbor, 0, len(names))
	for _, h := range hits {
		if h.Name == center.Code() {
			continue
		}
		p, ok := parseCoords(exact[h.Name])
		if !ok {
			p = geo.Point{Lat: h.Lat, Lon: h.Lon}
		}
		d := geo.Distance(c, p)
		if float64(d) > radiusKm {
			continue
		}
		out = append(out, domloc.Neighbor{Code: h.Name, DistanceKm: d})
	}
	domloc.SortNeighbors(out)
	return out, nil
}

// formatCoords encodes p as "lat,lon" with the shortest exact representation.
func formatCoords(p geo.Point) string {
	return strconv.FormatFloat(p.Lat, 'g', -1, 64) + "," + strconv.FormatFloat(p.Lon, 'g', -1, 64)
}

func parseCoords(s string) (geo.Point, bool) {
	lat, lon, ok := strings.Cut(s, ",")
	if !ok {
		return geo.Point{}, false
	}
	la, err := strconv.ParseFloat(lat, 64)
	if err != nil {
		return geo.Point{}, false
	}
	lo, err := strconv.ParseFloat(lon, 64)
	if err != nil {
		return geo.Point{}, false
	}
	return geo.Point{Lat: la, Lon: lo}, true
}
