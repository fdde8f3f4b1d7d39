package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"recipegate/internal/domain"
)

// PostgresStore persists cache entries in a recipe_cache table. Expired
// rows are filtered on read and pruned opportunistically on write, since
// Postgres has no native TTL eviction.
type PostgresStore struct {
	db *sql.DB
}

const createCacheTable = `
CREATE TABLE IF NOT EXISTS recipe_cache (
    cache_key  TEXT PRIMARY KEY,
    payload    JSONB NOT NULL,
    created_at TIMESTAMPTZ NOT NULL,
    expires_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS recipe_cache_expires_at_idx ON recipe_cache (expires_at);`

// NewPostgresStore opens a connection pool for dsn and ensures the cache
// table exists.
func NewPostgresStore(dsn string, maxConns, maxIdle int, connMaxAge time.Duration) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db.SetMaxOpenConns(maxConns)
	db.SetMaxIdleConns(maxIdle)
	db.SetConnMaxLifetime(connMaxAge)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	if _, err := db.ExecContext(ctx, createCacheTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating cache table: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

// Get returns the entry for key, or domain.ErrCacheMiss when absent or
// expired. The expiry predicate lives in the query; the Go-side check is
// kept as well so a row read under clock skew is still rejected.
func (s *PostgresStore) Get(ctx context.Context, key string) (*domain.CacheEntry, error) {
	var (
		payload   []byte
		createdAt time.Time
		expiresAt time.Time
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT payload, created_at, expires_at FROM recipe_cache
		 WHERE cache_key = $1 AND expires_at > now()`, key,
	).Scan(&payload, &createdAt, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("querying cache: %w", err)
	}

	entry := &domain.CacheEntry{
		CacheKey:  key,
		CreatedAt: createdAt.UTC(),
		ExpiresAt: expiresAt.UTC(),
	}
	if entry.Expired(time.Now()) {
		return nil, domain.ErrCacheMiss
	}

	var recipe domain.GeneratedRecipe
	if err := json.Unmarshal(payload, &recipe); err != nil {
		return nil, fmt.Errorf("decoding cached recipe: %w", err)
	}
	entry.Recipe = &recipe
	return entry, nil
}

// Put upserts the recipe under key; an existing row is fully replaced.
func (s *PostgresStore) Put(ctx context.Context, key string, recipe *domain.GeneratedRecipe, ttl time.Duration) error {
	payload, err := json.Marshal(recipe)
	if err != nil {
		return fmt.Errorf("encoding recipe: %w", err)
	}

	entry := NewEntry(key, recipe, ttl)
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO recipe_cache (cache_key, payload, created_at, expires_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (cache_key) DO UPDATE
		 SET payload = EXCLUDED.payload,
		     created_at = EXCLUDED.created_at,
		     expires_at = EXCLUDED.expires_at`,
		key, payload, entry.CreatedAt, entry.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("writing cache: %w", err)
	}

	// Opportunistic pruning keeps the table from accumulating dead rows.
	_, _ = s.db.ExecContext(ctx, `DELETE FROM recipe_cache WHERE expires_at <= now()`)
	return nil
}

// Delete removes the row for key.
func (s *PostgresStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM recipe_cache WHERE cache_key = $1`, key); err != nil {
		return fmt.Errorf("deleting cache row: %w", err)
	}
	return nil
}

// Close closes the connection pool.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
