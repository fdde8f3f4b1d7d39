package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"recipegate/internal/domain"
)

func testRecipe(title string) *domain.GeneratedRecipe {
	return &domain.GeneratedRecipe{
		ID:           "test-id",
		Title:        title,
		Ingredients:  []domain.RecipeIngredient{{Item: "chicken"}},
		Instructions: []string{"Cook it."},
		CreatedAt:    time.Now().UTC(),
		Source:       "ai_generated",
	}
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()

	t.Run("miss on absent key", func(t *testing.T) {
		s := NewMemoryStore()
		defer s.Close()

		_, err := s.Get(ctx, "absent")
		if !errors.Is(err, domain.ErrCacheMiss) {
			t.Errorf("expected ErrCacheMiss, got %v", err)
		}
	})

	t.Run("put then get", func(t *testing.T) {
		s := NewMemoryStore()
		defer s.Close()

		if err := s.Put(ctx, "k1", testRecipe("Roast Chicken"), time.Hour); err != nil {
			t.Fatalf("put failed: %v", err)
		}

		entry, err := s.Get(ctx, "k1")
		if err != nil {
			t.Fatalf("get failed: %v", err)
		}
		if entry.Recipe.Title != "Roast Chicken" {
			t.Errorf("unexpected title %q", entry.Recipe.Title)
		}
		if !entry.ExpiresAt.After(entry.CreatedAt) {
			t.Error("expected expires_at after created_at")
		}
	})

	t.Run("expired entry reads as miss", func(t *testing.T) {
		s := NewMemoryStore()
		defer s.Close()

		if err := s.Put(ctx, "k1", testRecipe("Gone"), time.Millisecond); err != nil {
			t.Fatalf("put failed: %v", err)
		}
		time.Sleep(5 * time.Millisecond)

		_, err := s.Get(ctx, "k1")
		if !errors.Is(err, domain.ErrCacheMiss) {
			t.Errorf("expected ErrCacheMiss for expired entry, got %v", err)
		}
	})

	t.Run("put replaces existing entry", func(t *testing.T) {
		s := NewMemoryStore()
		defer s.Close()

		if err := s.Put(ctx, "k1", testRecipe("First"), time.Hour); err != nil {
			t.Fatalf("put failed: %v", err)
		}
		if err := s.Put(ctx, "k1", testRecipe("Second"), time.Hour); err != nil {
			t.Fatalf("second put failed: %v", err)
		}

		entry, err := s.Get(ctx, "k1")
		if err != nil {
			t.Fatalf("get failed: %v", err)
		}
		if entry.Recipe.Title != "Second" {
			t.Errorf("expected last write to win, got %q", entry.Recipe.Title)
		}
	})

	t.Run("delete removes entry", func(t *testing.T) {
		s := NewMemoryStore()
		defer s.Close()

		if err := s.Put(ctx, "k1", testRecipe("Doomed"), time.Hour); err != nil {
			t.Fatalf("put failed: %v", err)
		}
		if err := s.Delete(ctx, "k1"); err != nil {
			t.Fatalf("delete failed: %v", err)
		}
		if _, err := s.Get(ctx, "k1"); !errors.Is(err, domain.ErrCacheMiss) {
			t.Errorf("expected ErrCacheMiss after delete, got %v", err)
		}
	})
}

func TestCacheEntryExpired(t *testing.T) {
	now := time.Now()
	entry := &domain.CacheEntry{ExpiresAt: now.Add(time.Minute)}

	if entry.Expired(now) {
		t.Error("entry expiring in the future reported expired")
	}
	if !entry.Expired(now.Add(time.Minute)) {
		t.Error("entry at its expiry instant reported live")
	}
	if !entry.Expired(now.Add(2 * time.Minute)) {
		t.Error("entry past expiry reported live")
	}
}
