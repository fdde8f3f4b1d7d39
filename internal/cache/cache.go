// Package cache provides the recipe cache store abstraction and its
// backends. A store maps derived cache keys to generated recipes with a
// TTL; expiry enforcement is defensive on read because backend eviction
// is best-effort.
package cache

import (
	"context"
	"time"

	"recipegate/internal/domain"
)

// Store is the key-value contract the workflow depends on. Get returns
// domain.ErrCacheMiss for absent or logically expired entries. Put
// unconditionally replaces an existing entry (last writer wins).
type Store interface {
	Get(ctx context.Context, key string) (*domain.CacheEntry, error)
	Put(ctx context.Context, key string, recipe *domain.GeneratedRecipe, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// NewEntry builds a cache entry for a freshly generated recipe.
func NewEntry(key string, recipe *domain.GeneratedRecipe, ttl time.Duration) *domain.CacheEntry {
	now := time.Now().UTC()
	return &domain.CacheEntry{
		CacheKey:  key,
		Recipe:    recipe,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}
