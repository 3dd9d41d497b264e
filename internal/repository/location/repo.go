// Package location persists location documents, the FT index over them and
// the build manifest.
package location

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/kailas-cloud/plzgeo/internal/db"
	domloc "github.com/kailas-cloud/plzgeo/internal/domain/location"
	"github.com/kailas-cloud/plzgeo/internal/domain/proximity"
	"github.com/kailas-cloud/plzgeo/internal/repository/keyspace"
)

// deleteChunk bounds the number of keys per pipelined DEL round-trip.
const deleteChunk = 1000

// store is the consumer interface for location documents (ISP).
type store interface {
	JSONSetMulti(ctx context.Context, items []db.JSONSetItem) error
	JSONGet(ctx context.Context, key string, paths ...string) ([]byte, error)
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	Del(ctx context.Context, key string) error
	DelMulti(ctx context.Context, keys []string) error
	Scan(ctx context.Context, pattern string) ([]string, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	DropIndex(ctx context.Context, name string, deleteDocs bool) error
	SearchCount(ctx context.Context, index, query string) (int, error)
}

// Repo implements usecase/proximity.Repository.
type Repo struct {
	store store
	keys  keyspace.Keyspace
}

// New creates a location repository.
func New(s store, keys keyspace.Keyspace) *Repo {
	return &Repo{store: s, keys: keys}
}

// Drop removes the FT index, every location document, the GEO set and the manifest.
// Missing objects are not an error.
func (r *Repo) Drop(ctx context.Context) error {
	if err := r.store.DropIndex(ctx, r.keys.Index(), true); err != nil && !errors.Is(err, db.ErrIndexNotFound) {
		return fmt.Errorf("drop index %s: %w", r.keys.Index(), err)
	}

	// Documents written without an index (or left by an aborted build) survive DD.
	leftovers, err := r.store.Scan(ctx, r.keys.DocPrefix()+"*")
	if err != nil {
		return fmt.Errorf("scan %s*: %w", r.keys.DocPrefix(), err)
	}
	for start := 0; start < len(leftovers); start += deleteChunk {
		end := min(start+deleteChunk, len(leftovers))
		if err := r.store.DelMulti(ctx, leftovers[start:end]); err != nil {
			return fmt.Errorf("delete leftover documents: %w", err)
		}
	}

	// The GEO set goes too, so a lazy-to-eager switch leaves nothing stale.
	for _, key := range []string{r.keys.Geo(), r.keys.GeoCoords(), r.keys.Manifest()} {
		if err := r.store.Del(ctx, key); err != nil {
			return fmt.Errorf("del %s: %w", key, err)
		}
	}
	return nil
}

// Prepare creates the FT index. An existing index is reused.
func (r *Repo) Prepare(ctx context.Context) error {
	def, err := buildIndex(r.keys)
	if err != nil {
		return fmt.Errorf("build index definition: %w", err)
	}
	if err := r.store.CreateIndex(ctx, def); err != nil && !errors.Is(err, db.ErrIndexExists) {
		return fmt.Errorf("create index %s: %w", def.Name, err)
	}
	return nil
}

// SaveBatch writes entries as JSON documents in one pipelined round-trip.
func (r *Repo) SaveBatch(ctx context.Context, entries []domloc.Entry) error {
	if len(entries) == 0 {
		return nil
	}

	items := make([]db.JSONSetItem, len(entries))
	for i := range entries {
		data, err := json.Marshal(buildZipDoc(&entries[i]))
		if err != nil {
			return fmt.Errorf("marshal zip %s: %w", entries[i].Record.Code(), err)
		}
		items[i] = db.JSONSetItem{
			Key:  r.keys.Doc(entries[i].Record.Code()),
			Path: "$",
			Data: data,
		}
	}

	if err := r.store.JSONSetMulti(ctx, items); err != nil {
		return fmt.Errorf("json.set batch of %d: %w", len(items), err)
	}
	return nil
}

// Get returns the stored entry for a zip code. found is false for unknown codes.
func (r *Repo) Get(ctx context.Context, code string) (domloc.Entry, bool, error) {
	key := r.keys.Doc(code)
	raw, err := r.store.JSONGet(ctx, key, "$")
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domloc.Entry{}, false, nil
		}
		return domloc.Entry{}, false, fmt.Errorf("json.get %s: %w", key, err)
	}
	return parseJSONGetResult(raw)
}

// Count returns the number of indexed documents; 0 when the index is missing.
func (r *Repo) Count(ctx context.Context) (int, error) {
	n, err := r.store.SearchCount(ctx, r.keys.Index(), "*")
	if err != nil {
		if errors.Is(err, db.ErrIndexNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("search count %s: %w", r.keys.Index(), err)
	}
	return n, nil
}

// LoadManifest reads the build manifest. ok is false when none was written
// or the stored hash is unreadable.
func (r *Repo) LoadManifest(ctx context.Context) (proximity.Manifest, bool, error) {
	m, err := r.store.HGetAll(ctx, r.keys.Manifest())
	if err != nil {
		return proximity.Manifest{}, false, fmt.Errorf("hgetall %s: %w", r.keys.Manifest(), err)
	}
	if len(m) == 0 {
		return proximity.Manifest{}, false, nil
	}

	strategy, err := proximity.ParseStrategy(m["strategy"])
	if err != nil {
		return proximity.Manifest{}, false, nil //nolint:nilerr // corrupt manifest means rebuild
	}
	maxDist, err := strconv.ParseFloat(m["max_dist_km"], 64)
	if err != nil {
		return proximity.Manifest{}, false, nil //nolint:nilerr // corrupt manifest means rebuild
	}
	count, err := strconv.Atoi(m["count"])
	if err != nil {
		return proximity.Manifest{}, false, nil //nolint:nilerr // corrupt manifest means rebuild
	}
	builtAt, _ := time.Parse(time.RFC3339, m["built_at"])

	return proximity.Manifest{
		Strategy:  strategy,
		MaxDistKm: maxDist,
		Count:     count,
		BuiltAt:   builtAt,
	}, true, nil
}

// SaveManifest writes the build manifest.
func (r *Repo) SaveManifest(ctx context.Context, m proximity.Manifest) error {
	fields := map[string]string{
		"strategy":    string(m.Strategy),
		"max_dist_km": strconv.FormatFloat(m.MaxDistKm, 'f', -1, 64),
		"count":       strconv.Itoa(m.Count),
		"built_at":    m.BuiltAt.UTC().Format(time.RFC3339),
	}
	if err := r.store.HSet(ctx, r.keys.Manifest(), fields); err != nil {
		return fmt.Errorf("hset %s: %w", r.keys.Manifest(), err)
	}
	return nil
}
