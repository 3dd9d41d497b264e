package proximity

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/plzgeo/internal/domain/geo"
	domloc "github.com/kailas-cloud/plzgeo/internal/domain/location"
	domprox "github.com/kailas-cloud/plzgeo/internal/domain/proximity"
)

// --- Mocks ---

// mockRepo is an in-memory Repository.
type mockRepo struct {
	mu         sync.Mutex
	docs       map[string]domloc.Entry
	manifest   *domprox.Manifest
	batchSizes []int
	drops      int
	prepares   int

	saveErr      error
	failOnSave   int // 1-based SaveBatch call that fails with saveErr; 0 = every call
	getErr       error
	countErr     error
	countDelta   int // added to the real document count
	manifestErr  error
	saveManifest func(m domprox.Manifest) error
}

func newMockRepo() *mockRepo {
	return &mockRepo{docs: make(map[string]domloc.Entry)}
}

func (m *mockRepo) Drop(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drops++
	m.docs = make(map[string]domloc.Entry)
	m.manifest = nil
	return nil
}

func (m *mockRepo) Prepare(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prepares++
	return nil
}

func (m *mockRepo) SaveBatch(_ context.Context, entries []domloc.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batchSizes = append(m.batchSizes, len(entries))
	if m.saveErr != nil && (m.failOnSave == 0 || m.failOnSave == len(m.batchSizes)) {
		return m.saveErr
	}
	for _, e := range entries {
		m.docs[e.Record.Code()] = e
	}
	return nil
}

func (m *mockRepo) Get(_ context.Context, code string) (domloc.Entry, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return domloc.Entry{}, false, m.getErr
	}
	e, ok := m.docs[code]
	return e, ok, nil
}

func (m *mockRepo) Count(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.countErr != nil {
		return 0, m.countErr
	}
	return len(m.docs) + m.countDelta, nil
}

func (m *mockRepo) LoadManifest(_ context.Context) (domprox.Manifest, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.manifestErr != nil {
		return domprox.Manifest{}, false, m.manifestErr
	}
	if m.manifest == nil {
		return domprox.Manifest{}, false, nil
	}
	return *m.manifest, true, nil
}

func (m *mockRepo) SaveManifest(_ context.Context, man domprox.Manifest) error {
	if m.saveManifest != nil {
		if err := m.saveManifest(man); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.manifest = &man
	return nil
}

// mockSpatial is a brute-force SpatialIndex.
type mockSpatial struct {
	mu         sync.Mutex
	records    []domloc.Record
	persistent bool
	resets     int
	withinErr  error
}

func (m *mockSpatial) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resets++
	m.records = nil
	return nil
}

func (m *mockSpatial) Index(_ context.Context, records []domloc.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, records...)
	return nil
}

func (m *mockSpatial) Within(_ context.Context, center domloc.Record, radiusKm float64) ([]domloc.Neighbor, error) {
	if m.withinErr != nil {
		return nil, m.withinErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domloc.Neighbor
	for _, r := range m.records {
		if r.Code() == center.Code() {
			continue
		}
		if d := geo.Distance(center.Point(), r.Point()); float64(d) <= radiusKm {
			out = append(out, domloc.Neighbor{Code: r.Code(), DistanceKm: d})
		}
	}
	domloc.SortNeighbors(out)
	return out, nil
}

func (m *mockSpatial) Persistent() bool { return m.persistent }

// mockSource returns a fixed record set.
type mockSource struct {
	records []domloc.Record
	err     error
	loads   int
}

func (m *mockSource) Load(_ context.Context) ([]domloc.Record, error) {
	m.loads++
	if m.err != nil {
		return nil, m.err
	}
	return m.records, nil
}

// mockObserver records build and query events.
type mockObserver struct {
	mu        sync.Mutex
	progress  []int
	total     int
	completed int
	failed    int
	returned  []int
}

func (m *mockObserver) BuildProgress(_ domprox.Strategy, done, total int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.progress = append(m.progress, done)
	m.total = total
}

func (m *mockObserver) BuildCompleted(_ domprox.Strategy, records int, _ time.Duration) {
	m.completed = records
}

func (m *mockObserver) BuildFailed(_ domprox.Strategy) { m.failed++ }

func (m *mockObserver) NeighborsReturned(_ domprox.Strategy, n int) {
	m.returned = append(m.returned, n)
}

// --- Fixtures ---

func rec(t *testing.T, code string, lat, lon float64) domloc.Record {
	t.Helper()
	r, err := domloc.New(code, "Place "+code, "DE", geo.Point{Lat: lat, Lon: lon})
	if err != nil {
		t.Fatalf("new record %s: %v", code, err)
	}
	return r
}

// triangle is A(0,0), B(0,1), C(1,0): A-B 111 km, A-C 111 km, B-C 157 km.
func triangle(t *testing.T) []domloc.Record {
	t.Helper()
	return []domloc.Record{rec(t, "A", 0, 0), rec(t, "B", 0, 1), rec(t, "C", 1, 0)}
}

func germany(t *testing.T) []domloc.Record {
	t.Helper()
	return []domloc.Record{
		rec(t, "01067", 51.0576, 13.7199), // Dresden
		rec(t, "10115", 52.5323, 13.3846), // Berlin
		rec(t, "80331", 48.1372, 11.5756), // Munich
		rec(t, "20095", 53.5511, 9.9937),  // Hamburg
		rec(t, "04109", 51.3397, 12.3731), // Leipzig
		rec(t, "01069", 51.0399, 13.7373), // Dresden Süd
		rec(t, "01097", 51.0661, 13.7407), // Dresden Neustadt
	}
}

func newBuilder(repo Repository, spatial SpatialIndex, src Source, opts Options) *Builder {
	return NewBuilder(repo, spatial, src, opts, zap.NewNop())
}
