package chi

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	domloc "github.com/kailas-cloud/plzgeo/internal/domain/location"
	proximityuc "github.com/kailas-cloud/plzgeo/internal/usecase/proximity"
)

// ErrorResponse is the body of every non-2xx API response.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// EagerResponse answers a radius query against a precomputed index.
type EagerResponse struct {
	CountryCode string         `json:"country_code"`
	ZipCode     string         `json:"zip_code"`
	Name        string         `json:"name"`
	Nearest     []EagerNearest `json:"nearest"`
}

// EagerNearest is one neighbour with its distance in whole kilometres.
type EagerNearest struct {
	Plz  string `json:"plz"`
	Dist int    `json:"dist"`
}

// LazyResponse answers a radius query against the spatial index.
type LazyResponse struct {
	CountryCode string        `json:"country_code"`
	ZipCode     string        `json:"zip_code"`
	Name        string        `json:"name"`
	Nearest     []LazyNearest `json:"nearest"`
}

// LazyNearest is one neighbour, nearest first.
type LazyNearest struct {
	ZipCode string `json:"zip_code"`
}

// LocationResponse is one text search hit. Location coordinates are [lat, lon].
type LocationResponse struct {
	ZipCode     string            `json:"zip_code"`
	Name        string            `json:"name"`
	CountryCode string            `json:"country_code"`
	Location    *geojson.Geometry `json:"location"`
}

func eagerResponseFrom(res *proximityuc.Result) EagerResponse {
	nearest := make([]EagerNearest, len(res.Neighbors))
	for i, n := range res.Neighbors {
		nearest[i] = EagerNearest{Plz: n.Code, Dist: n.DistanceKm}
	}
	return EagerResponse{
		CountryCode: res.Record.CountryCode(),
		ZipCode:     res.Record.Code(),
		Name:        res.Record.Name(),
		Nearest:     nearest,
	}
}

func lazyResponseFrom(res *proximityuc.Result) LazyResponse {
	nearest := make([]LazyNearest, len(res.Neighbors))
	for i, n := range res.Neighbors {
		nearest[i] = LazyNearest{ZipCode: n.Code}
	}
	return LazyResponse{
		CountryCode: res.Record.CountryCode(),
		ZipCode:     res.Record.Code(),
		Name:        res.Record.Name(),
		Nearest:     nearest,
	}
}

func locationResponseFrom(r *domloc.Record) LocationResponse {
	p := r.Point()
	return LocationResponse{
		ZipCode:     r.Code(),
		Name:        r.Name(),
		CountryCode: r.CountryCode(),
		Location:    geojson.NewGeometry(orb.Point{p.Lat, p.Lon}),
	}
}
