package health

import "context"

// DBPinger checks database availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// IndexCounter reports the number of indexed documents.
type IndexCounter interface {
	Count(ctx context.Context) (int, error)
}
