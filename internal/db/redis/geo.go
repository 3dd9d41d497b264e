package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/plzgeo/internal/db"
)

// GeoAdd adds members to a GEO set with a single GEOADD.
func (s *Store) GeoAdd(ctx context.Context, key string, members []db.GeoMember) error {
	if len(members) == 0 {
		return nil
	}

	args := make([]string, 0, len(members)*3)
	for _, m := range members {
		args = append(args,
			strconv.FormatFloat(m.Lon, 'f', -1, 64),
			strconv.FormatFloat(m.Lat, 'f', -1, 64),
			m.Name,
		)
	}

	cmd := s.b().Arbitrary("GEOADD").Keys(key).Args(args...).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		return &db.Error{Op: db.OpGeoAdd, Err: err}
	}
	return nil
}

// GeoSearch runs GEOSEARCH FROMLONLAT BYRADIUS ASC WITHDIST WITHCOORD.
// Hits are returned nearest first.
func (s *Store) GeoSearch(ctx context.Context, q *db.GeoQuery) ([]db.GeoHit, error) {
	if q.Key == "" {
		return nil, fmt.Errorf("key is required")
	}
	if q.Radius < 0 {
		return nil, fmt.Errorf("radius must not be negative")
	}

	unit := q.Unit
	if unit == "" {
		unit = db.GeoKilometers
	}

	args := []string{
		"FROMLONLAT",
		strconv.FormatFloat(q.Lon, 'f', -1, 64),
		strconv.FormatFloat(q.Lat, 'f', -1, 64),
		"BYRADIUS", strconv.FormatFloat(q.Radius, 'f', -1, 64), string(unit),
		"ASC", "WITHCOORD", "WITHDIST",
	}

	cmd := s.b().Arbitrary("GEOSEARCH").Keys(q.Key).Args(args...).Build()
	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return nil, nil
		}
		return nil, &db.Error{Op: db.OpGeoSearch, Err: err}
	}

	return parseGeoHits(raw)
}

// parseGeoHits decodes [member, dist, [lon, lat]] triples.
func parseGeoHits(raw []rueidis.RedisMessage) ([]db.GeoHit, error) {
	hits := make([]db.GeoHit, 0, len(raw))
	for _, item := range raw {
		parts, err := item.ToArray()
		if err != nil {
			return nil, fmt.Errorf("parse geo hit: %w", err)
		}
		if len(parts) < 3 {
			return nil, errors.New("parse geo hit: expected member, dist and coordinates")
		}

		name, err := parts[0].ToString()
		if err != nil {
			return nil, fmt.Errorf("parse geo member: %w", err)
		}
		dist, err := parts[1].AsFloat64()
		if err != nil {
			return nil, fmt.Errorf("parse geo dist for %s: %w", name, err)
		}
		coord, err := parts[2].ToArray()
		if err != nil || len(coord) != 2 {
			return nil, fmt.Errorf("parse geo coordinates for %s", name)
		}
		lon, err := coord[0].AsFloat64()
		if err != nil {
			return nil, fmt.Errorf("parse longitude for %s: %w", name, err)
		}
		lat, err := coord[1].AsFloat64()
		if err != nil {
			return nil, fmt.Errorf("parse latitude for %s: %w", name, err)
		}

		hits = append(hits, db.GeoHit{Name: name, Dist: dist, Lat: lat, Lon: lon})
	}
	return hits, nil
}
