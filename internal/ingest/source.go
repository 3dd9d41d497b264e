package ingest

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	domloc "github.com/kailas-cloud/plzgeo/internal/domain/location"
)

// FileSource loads records from a CSV file. Implements usecase/proximity.Source.
type FileSource struct {
	path   string
	logger *zap.Logger
}

// NewFileSource creates a source reading path.
func NewFileSource(path string, logger *zap.Logger) *FileSource {
	return &FileSource{path: path, logger: logger}
}

// Load reads and normalises the whole file.
func (s *FileSource) Load(ctx context.Context) ([]domloc.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", s.path, err)
	}
	defer func() { _ = f.Close() }()

	records, stats, err := Normalize(f, s.logger)
	if err != nil {
		return nil, fmt.Errorf("normalize %s: %w", s.path, err)
	}

	s.logger.Info("Parsed entities",
		zap.String("path", s.path),
		zap.Int("rows", stats.Rows),
		zap.Int("records", stats.Records),
		zap.Int("invalid", stats.Invalid),
		zap.Int("duplicates", stats.Duplicates),
	)
	return records, nil
}
