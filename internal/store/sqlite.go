package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/neighborlens/neighborlens/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite, for local and
// development use.
type SQLiteStore struct {
	db  *sql.DB
	ttl time.Duration
	now func() time.Time // injectable for testing
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string, ttl time.Duration) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db, ttl: ttl, now: time.Now}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS neighborhoods (
	id              TEXT PRIMARY KEY,
	name            TEXT NOT NULL,
	postal_code     TEXT NOT NULL UNIQUE,
	latitude        REAL,
	longitude       REAL,
	cached_at       DATETIME NOT NULL,
	raw_data        TEXT NOT NULL,
	walk_score      INTEGER NOT NULL DEFAULT 0,
	transit_score   INTEGER NOT NULL DEFAULT 0,
	bike_score      INTEGER NOT NULL DEFAULT 0,
	sentiment_score REAL NOT NULL,
	vibe_summary    TEXT NOT NULL,
	lifestyle_tags  TEXT NOT NULL,
	created_at      DATETIME NOT NULL,
	updated_at      DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_neighborhoods_cached_at ON neighborhoods(cached_at);

CREATE TABLE IF NOT EXISTS saved_comparisons (
	id               TEXT PRIMARY KEY,
	neighborhood_ids TEXT NOT NULL,
	created_at       DATETIME NOT NULL,
	updated_at       DATETIME NOT NULL
);
`

// Migrate creates the schema if it does not exist.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

// Ping checks connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.db.PingContext(ctx), "sqlite: ping")
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// GetNeighborhood returns the cached record for a postal code, or nil
// when none exists or the cached copy has gone stale.
func (s *SQLiteStore) GetNeighborhood(ctx context.Context, postalCode string) (*model.Neighborhood, error) {
	cutoff := s.now().UTC().Add(-s.ttl)

	var n model.Neighborhood
	var lat, lng sql.NullFloat64
	var rawData, tags string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, postal_code, latitude, longitude, cached_at, raw_data, walk_score, transit_score, bike_score, sentiment_score, vibe_summary, lifestyle_tags, created_at, updated_at
		 FROM neighborhoods WHERE postal_code = ? AND cached_at > ?`,
		postalCode, cutoff,
	).Scan(
		&n.ID, &n.Name, &n.PostalCode, &lat, &lng, &n.CachedAt,
		&rawData, &n.WalkScore, &n.TransitScore, &n.BikeScore,
		&n.SentimentScore, &n.VibeSummary, &tags, &n.CreatedAt, &n.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get neighborhood")
	}

	if lat.Valid {
		n.Latitude = &lat.Float64
	}
	if lng.Valid {
		n.Longitude = &lng.Float64
	}
	if err := json.Unmarshal([]byte(rawData), &n.RawData); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal raw data")
	}
	if err := json.Unmarshal([]byte(tags), &n.LifestyleTags); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal tags")
	}
	return &n, nil
}

// UpsertNeighborhood writes a record keyed by postal code, fully
// replacing any prior row and resetting the cache timestamp.
func (s *SQLiteStore) UpsertNeighborhood(ctx context.Context, n *model.Neighborhood) (*model.Neighborhood, error) {
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
		return nil, eris.Wrap(err, "sqlite: marshal raw data")
	}
	tags := saved.LifestyleTags
	if tags == nil {
		tags = []string{}
	}
	tagsJSON, err := json.Marshal(tags)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal tags")
	}

	var lat, lng any
	if saved.Latitude != nil {
		lat = *saved.Latitude
	}
	if saved.Longitude != nil {
		lng = *saved.Longitude
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO neighborhoods (id, name, postal_code, latitude, longitude, cached_at, raw_data, walk_score, transit_score, bike_score, sentiment_score, vibe_summary, lifestyle_tags, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(postal_code) DO UPDATE SET
			name = excluded.name,
			latitude = excluded.latitude,
			longitude = excluded.longitude,
			cached_at = excluded.cached_at,
			raw_data = excluded.raw_data,
			walk_score = excluded.walk_score,
			transit_score = excluded.transit_score,
			bike_score = excluded.bike_score,
			sentiment_score = excluded.sentiment_score,
			vibe_summary = excluded.vibe_summary,
			lifestyle_tags = excluded.lifestyle_tags,
			updated_at = excluded.updated_at`,
		saved.ID, saved.Name, saved.PostalCode, lat, lng, saved.CachedAt,
		string(rawData), saved.WalkScore, saved.TransitScore, saved.BikeScore,
		saved.SentimentScore, saved.VibeSummary, string(tagsJSON),
		saved.CreatedAt, saved.UpdatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: upsert neighborhood")
	}

	// The conflict path keeps the original row identity.
	err = s.db.QueryRowContext(ctx,
		`SELECT id, created_at FROM neighborhoods WHERE postal_code = ?`, saved.PostalCode,
	).Scan(&saved.ID, &saved.CreatedAt)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: reread neighborhood")
	}
	return &saved, nil
}

// CreateComparison saves a bookmark referencing 1-2 neighborhoods.
func (s *SQLiteStore) CreateComparison(ctx context.Context, neighborhoodIDs []string) (*model.SavedComparison, error) {
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
		return nil, eris.Wrap(err, "sqlite: marshal comparison ids")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO saved_comparisons (id, neighborhood_ids, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		c.ID, string(ids), c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert comparison")
	}
	return &c, nil
}

// ListComparisons returns all saved comparisons, newest first.
func (s *SQLiteStore) ListComparisons(ctx context.Context) ([]model.SavedComparison, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, neighborhood_ids, created_at, updated_at FROM saved_comparisons ORDER BY created_at DESC, id`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list comparisons")
	}
	defer rows.Close()

	var comparisons []model.SavedComparison
	for rows.Next() {
		var c model.SavedComparison
		var ids string
		if err := rows.Scan(&c.ID, &ids, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan comparison")
		}
		if err := json.Unmarshal([]byte(ids), &c.NeighborhoodIDs); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal comparison ids")
		}
		comparisons = append(comparisons, c)
	}
	return comparisons, eris.Wrap(rows.Err(), "sqlite: iterate comparisons")
}

// DeleteComparison removes a bookmark by ID.
func (s *SQLiteStore) DeleteComparison(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM saved_comparisons WHERE id = ?`, id)
	if err != nil {
		return eris.Wrap(err, "sqlite: delete comparison")
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
