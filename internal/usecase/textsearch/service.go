// Package textsearch answers free-text queries over zip codes and place names.
package textsearch

import (
	"context"
	"strings"
	"time"

	"github.com/kailas-cloud/plzgeo/internal/domain"
	domloc "github.com/kailas-cloud/plzgeo/internal/domain/location"
)

const defaultLimit = 5

// Service runs relevance-ranked text queries.
type Service struct {
	repo    Repository
	limit   int
	timeout time.Duration
}

// New creates a text search service. limit <= 0 falls back to 5; timeout 0
// disables the per-query bound.
func New(repo Repository, limit int, timeout time.Duration) *Service {
	if limit <= 0 {
		limit = defaultLimit
	}
	return &Service{repo: repo, limit: limit, timeout: timeout}
}

// Search returns up to Limit records matching query, most relevant first.
// No match yields an empty slice.
func (s *Service) Search(ctx context.Context, query string) ([]domloc.Record, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, domain.InvalidArgument("query is required")
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	records, err := s.repo.Search(ctx, query, s.limit)
	if err != nil {
		return nil, domain.WrapStorage(err)
	}
	if records == nil {
		records = []domloc.Record{}
	}
	if len(records) > s.limit {
		records = records[:s.limit]
	}
	return records, nil
}
