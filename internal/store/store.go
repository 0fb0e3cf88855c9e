// Package store persists enriched neighborhood records and saved
// comparisons, with Postgres and SQLite backends.
package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/neighborlens/neighborlens/internal/config"
	"github.com/neighborlens/neighborlens/internal/model"
)

// DefaultTTL is how long a cached enrichment stays fresh.
const DefaultTTL = 24 * time.Hour

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = eris.New("store: not found")

// Store defines the persistence interface for the enrichment pipeline.
// GetNeighborhood treats stale records (older than the TTL) the same as
// missing ones; UpsertNeighborhood fully replaces any prior record for
// the postal code and resets its cache timestamp.
type Store interface {
	// Neighborhood cache
	GetNeighborhood(ctx context.Context, postalCode string) (*model.Neighborhood, error)
	UpsertNeighborhood(ctx context.Context, n *model.Neighborhood) (*model.Neighborhood, error)

	// Saved comparisons
	CreateComparison(ctx context.Context, neighborhoodIDs []string) (*model.SavedComparison, error)
	ListComparisons(ctx context.Context) ([]model.SavedComparison, error)
	DeleteComparison(ctx context.Context, id string) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}

// Open creates a Store for the configured driver.
func Open(ctx context.Context, cfg config.StoreConfig, ttl time.Duration) (Store, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	switch cfg.Driver {
	case "postgres":
		return NewPostgres(ctx, cfg.DatabaseURL, ttl)
	case "sqlite":
		return NewSQLite(cfg.SQLitePath, ttl)
	default:
		return nil, eris.Errorf("store: unknown driver %q", cfg.Driver)
	}
}
