package gateway

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"recipegate/internal/cache"
	"recipegate/internal/config"
	"recipegate/internal/domain"
	"recipegate/internal/recipe"
)

// failingStore wraps a real store with injectable read/write failures.
type failingStore struct {
	inner    cache.Store
	failGet  bool
	failPut  bool
	getCalls int
	putCalls int
}

func (s *failingStore) Get(ctx context.Context, key string) (*domain.CacheEntry, error) {
	s.getCalls++
	if s.failGet {
		return nil, errors.New("store offline")
	}
	return s.inner.Get(ctx, key)
}

func (s *failingStore) Put(ctx context.Context, key string, r *domain.GeneratedRecipe, ttl time.Duration) error {
	s.putCalls++
	if s.failPut {
		return errors.New("store offline")
	}
	return s.inner.Put(ctx, key, r, ttl)
}

func (s *failingStore) Delete(ctx context.Context, key string) error {
	return s.inner.Delete(ctx, key)
}

func (s *failingStore) Close() error { return s.inner.Close() }

// fakeGenerator is a deterministic in-memory generator that counts its
// invocations and can be set to fail.
type fakeGenerator struct {
	calls int
	err   error
}

func (g *fakeGenerator) Generate(ctx context.Context, req *domain.RecipeRequest) (*domain.GeneratedRecipe, error) {
	g.calls++
	if g.err != nil {
		return nil, g.err
	}
	ingredients := make([]domain.RecipeIngredient, len(req.Ingredients))
	for i, ing := range req.Ingredients {
		ingredients[i] = domain.RecipeIngredient{Item: ing, Amount: "1 cup"}
	}
	return &domain.GeneratedRecipe{
		ID:           "recipe-1",
		Title:        "Test Recipe",
		Servings:     req.ServingSize,
		Cuisine:      req.Cuisine,
		Ingredients:  ingredients,
		Instructions: []string{"Combine everything.", "Cook until done."},
		CreatedAt:    time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Source:       "ai_generated",
	}, nil
}

func newTestService(t *testing.T, store cache.Store, gen *fakeGenerator) *Service {
	t.Helper()
	cfg := config.Default()
	return NewService(cfg, store, gen, nil)
}

func chickenRice() *recipe.RawRequest {
	size := 4
	return &recipe.RawRequest{
		Ingredients: []string{"chicken", "rice"},
		Cuisine:     "indian",
		ServingSize: &size,
	}
}

func TestGenerateMissThenHit(t *testing.T) {
	store := cache.NewMemoryStore()
	defer store.Close()
	gen := &fakeGenerator{}
	svc := newTestService(t, store, gen)
	ctx := context.Background()

	first, err := svc.Generate(ctx, chickenRice())
	if err != nil {
		t.Fatalf("first call failed: %v", err)
	}
	if first.Cached {
		t.Error("first call should not be served from cache")
	}
	if gen.calls != 1 {
		t.Fatalf("expected exactly 1 provider call, got %d", gen.calls)
	}
	found := map[string]bool{}
	for _, ing := range first.Recipe.Ingredients {
		found[ing.Item] = true
	}
	if !found["chicken"] || !found["rice"] {
		t.Errorf("recipe missing requested ingredients: %+v", first.Recipe.Ingredients)
	}

	second, err := svc.Generate(ctx, chickenRice())
	if err != nil {
		t.Fatalf("second call failed: %v", err)
	}
	if !second.Cached {
		t.Error("second identical call should be served from cache")
	}
	if gen.calls != 1 {
		t.Errorf("cached call must not invoke the provider again, got %d calls", gen.calls)
	}
	if !reflect.DeepEqual(first.Recipe, second.Recipe) {
		t.Error("cached payload differs from original")
	}
	if first.CacheKey != second.CacheKey {
		t.Errorf("cache keys differ: %s != %s", first.CacheKey, second.CacheKey)
	}
}

func TestGenerateEquivalentRequestsShareEntry(t *testing.T) {
	store := cache.NewMemoryStore()
	defer store.Close()
	gen := &fakeGenerator{}
	svc := newTestService(t, store, gen)
	ctx := context.Background()

	if _, err := svc.Generate(ctx, chickenRice()); err != nil {
		t.Fatalf("first call failed: %v", err)
	}

	size := 4
	reordered := &recipe.RawRequest{
		Ingredients: []string{"Rice", "CHICKEN"},
		Cuisine:     "Indian",
		ServingSize: &size,
	}
	result, err := svc.Generate(ctx, reordered)
	if err != nil {
		t.Fatalf("reordered call failed: %v", err)
	}
	if !result.Cached {
		t.Error("normalization-equivalent request should hit the cache")
	}
	if gen.calls != 1 {
		t.Errorf("expected 1 provider call total, got %d", gen.calls)
	}
}

func TestGenerateValidationShortCircuits(t *testing.T) {
	store := &failingStore{inner: cache.NewMemoryStore()}
	defer store.Close()
	gen := &fakeGenerator{}
	svc := newTestService(t, store, gen)

	_, err := svc.Generate(context.Background(), &recipe.RawRequest{Ingredients: []string{}})
	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if store.getCalls != 0 || store.putCalls != 0 {
		t.Errorf("validation failure must not touch the store (get=%d put=%d)", store.getCalls, store.putCalls)
	}
	if gen.calls != 0 {
		t.Errorf("validation failure must not invoke the provider, got %d calls", gen.calls)
	}
}

func TestGeneratePutFailureStillServes(t *testing.T) {
	store := &failingStore{inner: cache.NewMemoryStore(), failPut: true}
	defer store.Close()
	gen := &fakeGenerator{}
	svc := newTestService(t, store, gen)
	ctx := context.Background()

	first, err := svc.Generate(ctx, chickenRice())
	if err != nil {
		t.Fatalf("expected request to succeed despite put failure, got %v", err)
	}
	if first.Cached {
		t.Error("result should be marked uncached")
	}
	if first.Recipe == nil || first.Recipe.Title == "" {
		t.Error("expected a complete generated payload")
	}

	// Nothing was cached, so an identical follow-up generates fresh.
	second, err := svc.Generate(ctx, chickenRice())
	if err != nil {
		t.Fatalf("second call failed: %v", err)
	}
	if second.Cached {
		t.Error("no false cache hit after failed write")
	}
	if gen.calls != 2 {
		t.Errorf("expected a fresh generation per call, got %d calls", gen.calls)
	}
}

func TestGenerateGetFailureFallsBackToProvider(t *testing.T) {
	store := &failingStore{inner: cache.NewMemoryStore(), failGet: true}
	defer store.Close()
	gen := &fakeGenerator{}
	svc := newTestService(t, store, gen)

	result, err := svc.Generate(context.Background(), chickenRice())
	if err != nil {
		t.Fatalf("expected degraded success, got %v", err)
	}
	if result.Cached {
		t.Error("result should be uncached when the store is unreadable")
	}
	if gen.calls != 1 {
		t.Errorf("expected 1 provider call, got %d", gen.calls)
	}
}

func TestGenerateProviderErrors(t *testing.T) {
	kinds := []domain.ProviderErrorKind{
		domain.ProviderTimeout,
		domain.ProviderRateLimited,
		domain.ProviderInvalidModelOutput,
		domain.ProviderUnavailable,
	}

	for _, kind := range kinds {
		t.Run(string(kind), func(t *testing.T) {
			store := &failingStore{inner: cache.NewMemoryStore()}
			defer store.Close()
			gen := &fakeGenerator{err: domain.NewProviderError(kind, "injected", nil)}
			svc := newTestService(t, store, gen)

			_, err := svc.Generate(context.Background(), chickenRice())
			var perr *domain.ProviderError
			if !errors.As(err, &perr) {
				t.Fatalf("expected ProviderError, got %v", err)
			}
			if perr.Kind != kind {
				t.Errorf("expected kind %q, got %q", kind, perr.Kind)
			}
			if store.putCalls != 0 {
				t.Errorf("failed generation must not write to the cache, got %d puts", store.putCalls)
			}
		})
	}
}
