// Package textsearch maps free-text queries onto the FT index over location documents.
package textsearch

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/plzgeo/internal/db"
	domloc "github.com/kailas-cloud/plzgeo/internal/domain/location"
	"github.com/kailas-cloud/plzgeo/internal/repository/keyspace"
	"github.com/kailas-cloud/plzgeo/internal/repository/location"
)

// store is the consumer interface for search operations (ISP).
type store interface {
	SearchText(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error)
}

// Repo implements usecase/textsearch.Repository.
type Repo struct {
	store store
	keys  keyspace.Keyspace
}

// New creates a text search repository.
func New(s store, keys keyspace.Keyspace) *Repo {
	return &Repo{store: s, keys: keys}
}

// Search returns up to limit records whose zip code or name match query,
// most relevant first.
func (r *Repo) Search(ctx context.Context, query string, limit int) ([]domloc.Record, error) {
	sr, err := r.store.SearchText(ctx, &db.TextQuery{
		IndexName: r.keys.Index(),
		Query:     query,
		Fields:    location.TextFields,
		TopK:      limit,
	})
	if err != nil {
		return nil, fmt.Errorf("search text %s: %w", r.keys.Index(), err)
	}

	return parseResults(sr), nil
}

// parseResults keeps store order (descending score). Entries without a
// decodable document are skipped.
func parseResults(sr *db.SearchResult) []domloc.Record {
	if sr == nil || len(sr.Entries) == 0 {
		return []domloc.Record{}
	}

	out := make([]domloc.Record, 0, len(sr.Entries))
	for _, e := range sr.Entries {
		raw, ok := e.Fields["$"]
		if !ok {
			continue
		}
		entry, err := location.ParseDocument(raw)
		if err != nil {
			continue
		}
		out = append(out, entry.Record)
	}
	return out
}
