package textsearch

import (
	"context"

	domloc "github.com/kailas-cloud/plzgeo/internal/domain/location"
)

// Repository defines the storage contract for text search.
type Repository interface {
	Search(ctx context.Context, query string, limit int) ([]domloc.Record, error)
}
