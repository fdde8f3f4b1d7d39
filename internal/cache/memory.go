package cache

import (
	"context"
	"sync"
	"time"

	"recipegate/internal/domain"
)

// MemoryStore is a thread-safe in-process store with TTL support. It is
// intended for tests and single-node development; production deployments
// use the DynamoDB or Postgres backends.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]*domain.CacheEntry
	done    chan struct{}
}

// NewMemoryStore creates a memory store and starts a janitor goroutine
// that evicts expired entries every minute.
func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{
		entries: make(map[string]*domain.CacheEntry),
		done:    make(chan struct{}),
	}
	go s.janitor()
	return s
}

// Get returns the entry for key, or domain.ErrCacheMiss when absent or
// expired.
func (s *MemoryStore) Get(ctx context.Context, key string) (*domain.CacheEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.entries[key]
	if !ok || entry.Expired(time.Now()) {
		return nil, domain.ErrCacheMiss
	}
	return entry, nil
}

// Put stores the recipe under key, replacing any existing entry.
func (s *MemoryStore) Put(ctx context.Context, key string, recipe *domain.GeneratedRecipe, ttl time.Duration) error {
	entry := NewEntry(key, recipe, ttl)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = entry
	return nil
}

// Delete removes the entry for key, if present.
func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}

// Close stops the janitor.
func (s *MemoryStore) Close() error {
	close(s.done)
	return nil
}

func (s *MemoryStore) janitor() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			now := time.Now()
			s.mu.Lock()
			for key, entry := range s.entries {
				if entry.Expired(now) {
					delete(s.entries, key)
				}
			}
			s.mu.Unlock()
		}
	}
}
