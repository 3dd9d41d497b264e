package textsearch

import (
	"context"
	"errors"
	"testing"

	"github.com/kailas-cloud/plzgeo/internal/domain"
	"github.com/kailas-cloud/plzgeo/internal/domain/geo"
	domloc "github.com/kailas-cloud/plzgeo/internal/domain/location"
)

// --- Mocks ---

type mockRepo struct {
	records []domloc.Record
	err     error

	query string
	limit int
}

func (m *mockRepo) Search(_ context.Context, query string, limit int) ([]domloc.Record, error) {
	m.query = query
	m.limit = limit
	if m.err != nil {
		return nil, m.err
	}
	return m.records, nil
}

func record(t *testing.T, code, name string) domloc.Record {
	t.Helper()
	r, err := domloc.New(code, name, "DE", geo.Point{Lat: 51, Lon: 13})
	if err != nil {
		t.Fatalf("new record: %v", err)
	}
	return r
}

// --- Tests ---

func TestSearch_Success(t *testing.T) {
	repo := &mockRepo{records: []domloc.Record{record(t, "01067", "Dresden"), record(t, "01069", "Dresden")}}
	svc := New(repo, 5, 0)

	got, err := svc.Search(context.Background(), "  Dresden ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || got[0].Code() != "01067" {
		t.Errorf("unexpected results: %v", got)
	}
	if repo.query != "Dresden" || repo.limit != 5 {
		t.Errorf("repo called with %q/%d", repo.query, repo.limit)
	}
}

func TestSearch_NoMatch(t *testing.T) {
	svc := New(&mockRepo{}, 5, 0)

	got, err := svc.Search(context.Background(), "Atlantis")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil slice, got %v", got)
	}
}

func TestSearch_BlankQuery(t *testing.T) {
	repo := &mockRepo{}
	svc := New(repo, 5, 0)

	for _, q := range []string{"", "   ", "\t"} {
		if _, err := svc.Search(context.Background(), q); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("query %q: expected ErrInvalidArgument, got %v", q, err)
		}
	}
	if repo.query != "" {
		t.Error("blank queries must not reach storage")
	}
}

func TestSearch_TruncatesToLimit(t *testing.T) {
	repo := &mockRepo{records: []domloc.Record{
		record(t, "1", "A"), record(t, "2", "B"), record(t, "3", "C"),
	}}
	svc := New(repo, 2, 0)

	got, err := svc.Search(context.Background(), "x")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("expected 2 results, got %d", len(got))
	}
}

func TestSearch_DefaultLimit(t *testing.T) {
	repo := &mockRepo{}
	if _, err := New(repo, 0, 0).Search(context.Background(), "x"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.limit != 5 {
		t.Errorf("expected default limit 5, got %d", repo.limit)
	}
}

func TestSearch_StorageErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"deadline", context.DeadlineExceeded, domain.ErrTimeout},
		{"unavailable", errors.New("connection reset by peer"), domain.ErrStorageUnavailable},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := New(&mockRepo{err: tc.err}, 5, 0)
			if _, err := svc.Search(context.Background(), "Dresden"); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}
