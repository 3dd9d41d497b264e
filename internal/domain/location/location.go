// Package location holds the postal-code record and neighbour value types.
package location

import (
	"fmt"
	"math"
	"sort"

	"github.com/kailas-cloud/plzgeo/internal/domain/geo"
)

// Record is one postal-code entity (immutable value object).
type Record struct {
	code        string
	name        string
	countryCode string
	point       geo.Point
}

// New validates and creates a Record.
// Code is required, coordinates must be finite and within WGS84 bounds.
func New(code, name, countryCode string, point geo.Point) (Record, error) {
	if code == "" {
		return Record{}, fmt.Errorf("zip code is required")
	}
	if math.IsNaN(point.Lat) || math.IsNaN(point.Lon) ||
		math.IsInf(point.Lat, 0) || math.IsInf(point.Lon, 0) {
		return Record{}, fmt.Errorf("zip code %s: coordinates must be finite", code)
	}
	if !geo.ValidateCoordinates(point.Lat, point.Lon) {
		return Record{}, fmt.Errorf("zip code %s: coordinates (%g, %g) out of range", code, point.Lat, point.Lon)
	}
	return Record{code: code, name: name, countryCode: countryCode, point: point}, nil
}

// Reconstruct creates a Record without validation (storage hydration).
func Reconstruct(code, name, countryCode string, point geo.Point) Record {
	return Record{code: code, name: name, countryCode: countryCode, point: point}
}

// Code returns the zip code.
func (r *Record) Code() string { return r.code }

// Name returns the place name.
func (r *Record) Name() string { return r.name }

// CountryCode returns the country code.
func (r *Record) CountryCode() string { return r.countryCode }

// Point returns the coordinates.
func (r *Record) Point() geo.Point { return r.point }

// Neighbor is a directed proximity edge from some source record to Code.
type Neighbor struct {
	Code       string
	DistanceKm int
}

// SortNeighbors orders neighbours by distance ascending, ties by code ascending.
func SortNeighbors(ns []Neighbor) {
	sort.Slice(ns, func(i, j int) bool {
		if ns[i].DistanceKm != ns[j].DistanceKm {
			return ns[i].DistanceKm < ns[j].DistanceKm
		}
		return ns[i].Code < ns[j].Code
	})
}

// WithinRadius returns the prefix of a sorted neighbour list with DistanceKm <= radiusKm.
func WithinRadius(sorted []Neighbor, radiusKm float64) []Neighbor {
	n := sort.Search(len(sorted), func(i int) bool {
		return float64(sorted[i].DistanceKm) > radiusKm
	})
	return sorted[:n]
}

// Entry is a stored record plus, for eager indexes, its precomputed neighbours.
// Nearest is nil for lazy indexes.
type Entry struct {
	Record  Record
	Nearest []Neighbor
}
