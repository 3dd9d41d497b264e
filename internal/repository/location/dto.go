package location

import (
	"encoding/json"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/kailas-cloud/plzgeo/internal/domain/geo"
	domloc "github.com/kailas-cloud/plzgeo/internal/domain/location"
)

// zipDoc is the stored JSON document. Coordinates keep the [lat, lon] order
// of the source dataset, so they are not GeoJSON-conformant [lon, lat].
type zipDoc struct {
	ZipCode     string            `json:"zip_code"`
	Name        string            `json:"name"`
	CountryCode string            `json:"country_code"`
	Location    *geojson.Geometry `json:"location"`
	Nearest     *[]nearDoc        `json:"nearest,omitempty"`
}

type nearDoc struct {
	Plz  string `json:"plz"`
	Dist int    `json:"dist"`
}

func buildZipDoc(e *domloc.Entry) zipDoc {
	p := e.Record.Point()
	doc := zipDoc{
		ZipCode:     e.Record.Code(),
		Name:        e.Record.Name(),
		CountryCode: e.Record.CountryCode(),
		Location:    geojson.NewGeometry(orb.Point{p.Lat, p.Lon}),
	}
	if e.Nearest != nil {
		nearest := make([]nearDoc, len(e.Nearest))
		for i, n := range e.Nearest {
			nearest[i] = nearDoc{Plz: n.Code, Dist: n.DistanceKm}
		}
		doc.Nearest = &nearest
	}
	return doc
}

func (d *zipDoc) toEntry() (domloc.Entry, error) {
	var point geo.Point
	if d.Location != nil {
		p, ok := d.Location.Coordinates.(orb.Point)
		if !ok {
			return domloc.Entry{}, fmt.Errorf("zip %s: location is %s, want Point", d.ZipCode, d.Location.Type)
		}
		point = geo.Point{Lat: p[0], Lon: p[1]}
	}

	entry := domloc.Entry{
		Record: domloc.Reconstruct(d.ZipCode, d.Name, d.CountryCode, point),
	}
	if d.Nearest != nil {
		entry.Nearest = make([]domloc.Neighbor, len(*d.Nearest))
		for i, n := range *d.Nearest {
			entry.Nearest[i] = domloc.Neighbor{Code: n.Plz, DistanceKm: n.Dist}
		}
	}
	return entry, nil
}

// ParseDocument decodes one stored document (the "$" field of FT.SEARCH).
func ParseDocument(raw string) (domloc.Entry, error) {
	var doc zipDoc
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return domloc.Entry{}, fmt.Errorf("unmarshal zip document: %w", err)
	}
	return doc.toEntry()
}

// parseJSONGetResult decodes a JSON.GET $ reply, which wraps the document in an array.
func parseJSONGetResult(raw []byte) (domloc.Entry, bool, error) {
	var docs []zipDoc
	if err := json.Unmarshal(raw, &docs); err != nil {
		return domloc.Entry{}, false, fmt.Errorf("unmarshal zip document: %w", err)
	}
	if len(docs) == 0 {
		return domloc.Entry{}, false, nil
	}
	entry, err := docs[0].toEntry()
	if err != nil {
		return domloc.Entry{}, false, err
	}
	return entry, true, nil
}
