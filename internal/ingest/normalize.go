// Package ingest turns the tabular postal-code export into location records.
package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/plzgeo/internal/domain/geo"
	domloc "github.com/kailas-cloud/plzgeo/internal/domain/location"
)

// Column names of the export. id and loc_id are internal and discarded.
const (
	colID          = "id"
	colLocID       = "loc_id"
	colZipCode     = "zip_code"
	colName        = "name"
	colCountryCode = "country_code"
	colLat         = "lat"
	colLon         = "lon"
)

// positionalColumns is the column order of a headerless export.
var positionalColumns = []string{colID, colLocID, colZipCode, colName, colCountryCode, colLat, colLon}

var requiredColumns = []string{colZipCode, colName, colCountryCode, colLat, colLon}

// ErrNoRecords is returned when the input yields no usable record.
var ErrNoRecords = errors.New("ingest: no valid records")

// Stats summarises one normalisation run.
type Stats struct {
	Rows       int
	Records    int
	Invalid    int
	Duplicates int
}

// Normalize reads CSV rows and converts them into records.
//
// The first row is a header when it names a zip_code column; otherwise the
// input must have exactly the seven positional columns. Rows with missing or
// malformed fields are skipped with a warning, as are repeated zip codes
// (first occurrence wins).
func Normalize(r io.Reader, logger *zap.Logger) ([]domloc.Record, Stats, error) {
	var stats Stats

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true

	first, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, stats, ErrNoRecords
	}
	if err != nil {
		return nil, stats, fmt.Errorf("read header: %w", err)
	}

	cols, isHeader, err := resolveColumns(first)
	if err != nil {
		return nil, stats, err
	}

	var records []domloc.Record
	seen := make(map[string]struct{})

	add := func(line int, row []string) {
		stats.Rows++
		rec, err := parseRow(cols, row)
		if err != nil {
			stats.Invalid++
			logger.Warn("skipping invalid row", zap.Int("line", line), zap.Error(err))
			return
		}
		if _, dup := seen[rec.Code()]; dup {
			stats.Duplicates++
			logger.Warn("skipping duplicate zip code", zap.Int("line", line), zap.String("zip_code", rec.Code()))
			return
		}
		seen[rec.Code()] = struct{}{}
		records = append(records, rec)
	}

	line := 1
	if !isHeader {
		add(line, first)
	}
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, stats, fmt.Errorf("read line %d: %w", line, err)
		}
		add(line, row)
	}

	stats.Records = len(records)
	if len(records) == 0 {
		return nil, stats, ErrNoRecords
	}
	return records, stats, nil
}

// resolveColumns maps column names to row positions.
func resolveColumns(first []string) (map[string]int, bool, error) {
	cols := make(map[string]int, len(first))
	for i, name := range first {
		name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		if name != "" {
			cols[name] = i
		}
	}

	if _, ok := cols[colZipCode]; ok {
		for _, c := range requiredColumns {
			if _, ok := cols[c]; !ok {
				return nil, false, fmt.Errorf("header is missing column %q", c)
			}
		}
		return cols, true, nil
	}

	if len(first) != len(positionalColumns) {
		return nil, false, fmt.Errorf("no header and %d columns (want %d: %s)",
			len(first), len(positionalColumns), strings.Join(positionalColumns, ","))
	}
	cols = make(map[string]int, len(positionalColumns))
	for i, c := range positionalColumns {
		cols[c] = i
	}
	return cols, false, nil
}

func parseRow(cols map[string]int, row []string) (domloc.Record, error) {
	field := func(name string) (string, error) {
		i := cols[name]
		if i >= len(row) {
			return "", fmt.Errorf("missing column %q", name)
		}
		return strings.TrimSpace(row[i]), nil
	}

	code, err := field(colZipCode)
	if err != nil {
		return domloc.Record{}, err
	}
	name, err := field(colName)
	if err != nil {
		return domloc.Record{}, err
	}
	country, err := field(colCountryCode)
	if err != nil {
		return domloc.Record{}, err
	}
	latStr, err := field(colLat)
	if err != nil {
		return domloc.Record{}, err
	}
	lonStr, err := field(colLon)
	if err != nil {
		return domloc.Record{}, err
	}

	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return domloc.Record{}, fmt.Errorf("zip code %s: parse lat %q: %w", code, latStr, err)
	}
	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil {
		return domloc.Record{}, fmt.Errorf("zip code %s: parse lon %q: %w", code, lonStr, err)
	}

	return domloc.New(code, name, country, geo.Point{Lat: lat, Lon: lon})
}
