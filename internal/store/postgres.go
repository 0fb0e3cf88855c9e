package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/neighborlens/neighborlens/internal/db"
	"github.com/neighborlens/neighborlens/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	ttl     time.Duration
	now     func() time.Time // injectable for testing
	closeFn func()
}

const (
	getNeighborhoodSQL = `SELECT id, name, postal_code, latitude, longitude, cached_at, raw_data, walk_score, transit_score, bike_score, sentiment_score, vibe_summary, lifestyle_tags, created_at, updated_at
		FROM neighborhoods WHERE postal_code = $1 AND cached_at > $2`

	upsertNeighborhoodSQL = `INSERT INTO neighborhoods (id, name, postal_code, latitude, longitude, cached_at, raw_data, walk_score, transit_score, bike_score, sentiment_score, vibe_summary, lifestyle_tags, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (postal_code) DO UPDATE SET
			name = EXCLUDED.name,
			latitude = EXCLUDED.latitude,
			longitude = EXCLUDED.longitude,
			cached_at = EXCLUDED.cached_at,
			raw_data = EXCLUDED.raw_data,
			walk_score = EXCLUDED.walk_score,
			transit_score = EXCLUDED.transit_score,
			bike_score = EXCLUDED.bike_score,
			sentiment_score = EXCLUDED.sentiment_score,
			vibe_summary = EXCLUDED.vibe_summary,
			lifestyle_tags = EXCLUDED.lifestyle_tags,
			updated_at = EXCLUDED.updated_at
		RETURNING id, created_at`
)

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, ttl time.Duration) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	pgxCfg.MaxConns = 10
	pgxCfg.MinConns = 2
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{
		pool:    pool,
		ttl:     ttl,
		now:     time.Now,
		closeFn: pool.Close,
	}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS neighborhoods (
	id              TEXT PRIMARY KEY,
	name            TEXT NOT NULL,
	postal_code     TEXT NOT NULL UNIQUE,
	latitude        DOUBLE PRECISION,
	longitude       DOUBLE PRECISION,
	cached_at       TIMESTAMPTZ NOT NULL,
	raw_data        JSONB NOT NULL,
	walk_score      INTEGER NOT NULL DEFAULT 0,
	transit_score   INTEGER NOT NULL DEFAULT 0,
	bike_score      INTEGER NOT NULL DEFAULT 0,
	sentiment_score DOUBLE PRECISION NOT NULL,
	vibe_summary    TEXT NOT NULL,
	lifestyle_tags  JSONB NOT NULL,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_neighborhoods_cached_at ON neighborhoods(cached_at);

CREATE TABLE IF NOT EXISTS saved_comparisons (
	id               TEXT PRIMARY KEY,
	neighborhood_ids JSONB NOT NULL,
	created_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at       TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_saved_comparisons_created_at ON saved_comparisons(created_at DESC);
`

// Migrate creates the schema if it does not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

// Ping checks connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.pool.Ping(ctx), "postgres: ping")
}

// Close releases the pool.
func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

// GetNeighborhood returns the cached record for a postal code, or nil
// when none exists or the cached copy has gone stale.
func (s *PostgresStore) GetNeighborhood(ctx context.Context, postalCode string) (*model.Neighborhood, error) {
	cutoff := s.now().UTC().Add(-s.ttl)

	var n model.Neighborhood
	var rawData, tags []byte
	err := s.pool.QueryRow(ctx, getNeighborhoodSQL, postalCode, cutoff).Scan(
		&n.ID, &n.Name, &n.PostalCode, &n.Latitude, &n.Longitude, &n.CachedAt,
		&rawData, &n.WalkScore, &n.TransitScore, &n.BikeScore,
		&n.SentimentScore, &n.VibeSummary, &tags, &n.CreatedAt, &n.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get neighborhood")
	}

	if err := json.Unmarshal(rawData, &n.RawData); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal raw data")
	}
	if err := json.Unmarshal(tags, &n.LifestyleTags); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal tags")
	}
	return &n, nil
}

// UpsertNeighborhood writes a record keyed by postal code, fully
// replacing any prior row and resetting the cache timestamp. The row's
// identity and created_at survive replacement.
func (s *PostgresStore) UpsertNeighborhood(ctx context.Context, n *model.Neighborhood) (*model.Neighborhood, error) {
	now := s.now().UTC()

	saved := *n
	if saved.ID == "" {
		saved.ID = uuid.New().String()
	}
	saved.CachedAt = now
	saved.CreatedAt = now
	saved.UpdatedAt = now

	rawData, err := json.Marshal(saved.RawData)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal raw data")
	}
	tags := saved.LifestyleTags
	if tags == nil {
		tags = []string{}
	}
	tagsJSON, err := json.Marshal(tags)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal tags")
	}

	err = s.pool.QueryRow(ctx, upsertNeighborhoodSQL,
		saved.ID, saved.Name, saved.PostalCode, saved.Latitude, saved.Longitude,
		saved.CachedAt, rawData, saved.WalkScore, saved.TransitScore, saved.BikeScore,
		saved.SentimentScore, saved.VibeSummary, tagsJSON,
		saved.CreatedAt, saved.UpdatedAt,
	).Scan(&saved.ID, &saved.CreatedAt)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: upsert neighborhood")
	}
	return &saved, nil
}

// CreateComparison saves a bookmark referencing 1-2 neighborhoods.
func (s *PostgresStore) CreateComparison(ctx context.Context, neighborhoodIDs []string) (*model.SavedComparison, error) {
	c := model.SavedComparison{
		ID:              uuid.New().String(),
		NeighborhoodIDs: neighborhoodIDs,
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now

	ids, err := json.Marshal(c.NeighborhoodIDs)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal comparison ids")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO saved_comparisons (id, neighborhood_ids, created_at, updated_at) VALUES ($1, $2, $3, $4)`,
		c.ID, ids, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert comparison")
	}
	return &c, nil
}

// ListComparisons returns all saved comparisons, newest first.
func (s *PostgresStore) ListComparisons(ctx context.Context) ([]model.SavedComparison, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, neighborhood_ids, created_at, updated_at FROM saved_comparisons ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list comparisons")
	}
	defer rows.Close()

	var comparisons []model.SavedComparison
	for rows.Next() {
		var c model.SavedComparison
		var ids []byte
		if err := rows.Scan(&c.ID, &ids, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan comparison")
		}
		if err := json.Unmarshal(ids, &c.NeighborhoodIDs); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal comparison ids")
		}
		comparisons = append(comparisons, c)
	}
	return comparisons, eris.Wrap(rows.Err(), "postgres: iterate comparisons")
}

// DeleteComparison removes a bookmark by ID.
func (s *PostgresStore) DeleteComparison(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM saved_comparisons WHERE id = $1`, id)
	if err != nil {
		return eris.Wrap(err, "postgres: delete comparison")
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
