package textsearch

import (
	"context"
	"testing"

	"github.com/kailas-cloud/plzgeo/internal/db"
	"github.com/kailas-cloud/plzgeo/internal/repository/keyspace"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	searchTextFn func(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error)
}

func (m *mockStore) SearchText(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error) {
	if m.searchTextFn != nil {
		return m.searchTextFn(ctx, q)
	}
	return &db.SearchResult{}, nil
}

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := &mockStore{}
	return New(ms, keyspace.New("plz")), ms
}

func doc(code, name string) string {
	return `{"zip_code":"` + code + `","name":"` + name +
		`","country_code":"DE","location":{"type":"Point","coordinates":[51.05,13.73]}}`
}
