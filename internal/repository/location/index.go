package location

import (
	"github.com/kailas-cloud/plzgeo/internal/db"
	"github.com/kailas-cloud/plzgeo/internal/repository/keyspace"
)

// TextFields are the TEXT attributes free-text search runs against.
var TextFields = []string{"zip_code", "name"}

// buildIndex defines the FT index over location documents: zip code and name
// are full-text searchable, the country code is a TAG.
func buildIndex(keys keyspace.Keyspace) (*db.IndexDefinition, error) {
	return db.NewIndex(keys.Index()).
		OnJSON().
		Prefix(keys.DocPrefix()).
		TextAs("$.zip_code", "zip_code").
		TextAs("$.name", "name").
		TagAs("$.country_code", "country_code").
		Build()
}
