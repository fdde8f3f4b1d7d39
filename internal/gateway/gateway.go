// Package gateway sequences the recipe generation workflow: validate,
// derive key, cache lookup, generate on miss, best-effort cache write.
package gateway

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"recipegate/internal/cache"
	"recipegate/internal/config"
	"recipegate/internal/domain"
	"recipegate/internal/provider"
	"recipegate/internal/recipe"
	"recipegate/internal/telemetry"
)

// Service orchestrates one generation request at a time. It keeps no
// per-request state of its own; the cache store is the only shared
// mutable resource, and concurrent writers to the same key resolve by
// last-writer-wins.
type Service struct {
	cfg       *config.Config
	store     cache.Store
	generator provider.Generator
	metrics   *telemetry.Metrics
}

// Result is the outcome of a served request.
type Result struct {
	Recipe   *domain.GeneratedRecipe
	Cached   bool
	CacheKey string
}

// NewService creates the workflow service. metrics may be nil in tests.
func NewService(cfg *config.Config, store cache.Store, generator provider.Generator, metrics *telemetry.Metrics) *Service {
	return &Service{
		cfg:       cfg,
		store:     store,
		generator: generator,
		metrics:   metrics,
	}
}

// Generate runs the full workflow for a raw request.
//
// Failure semantics: a *domain.ValidationError short-circuits before any
// external call; a *domain.ProviderError short-circuits the response;
// cache failures are logged and swallowed on both the read path (treated
// as a miss) and the write path (the fresh recipe is still served) -
// the cache is an optimization, never a correctness requirement.
func (s *Service) Generate(ctx context.Context, raw *recipe.RawRequest) (*Result, error) {
	req, err := recipe.Validate(raw)
	if err != nil {
		var verr *domain.ValidationError
		if s.metrics != nil && errors.As(err, &verr) {
			for _, f := range verr.Fields {
				s.metrics.ValidationFailures.WithLabelValues(f.Field, f.Code).Inc()
			}
		}
		return nil, err
	}

	key := recipe.DeriveKey(req)

	entry, err := s.store.Get(ctx, key)
	switch {
	case err == nil:
		slog.Debug("cache hit", "cache_key", key)
		if s.metrics != nil {
			s.metrics.CacheHits.Inc()
		}
		return &Result{Recipe: entry.Recipe, Cached: true, CacheKey: key}, nil
	case errors.Is(err, domain.ErrCacheMiss):
		if s.metrics != nil {
			s.metrics.CacheMisses.Inc()
		}
	default:
		// A broken store degrades the service to always-generate-fresh,
		// not to total failure.
		slog.Warn("cache lookup failed, generating fresh", "cache_key", key, "error", err)
		if s.metrics != nil {
			s.metrics.CacheReadFailures.Inc()
		}
	}

	generated, err := s.invokeProvider(ctx, req)
	if err != nil {
		return nil, err
	}

	if err := s.store.Put(ctx, key, generated, s.cfg.Cache.TTL); err != nil {
		slog.Warn("cache write failed, serving uncached result", "cache_key", key, "error", err)
		if s.metrics != nil {
			s.metrics.CacheWriteFailures.Inc()
		}
	}

	return &Result{Recipe: generated, Cached: false, CacheKey: key}, nil
}

// invokeProvider makes exactly one generation call. Retry policy, if
// any, belongs to the caller; repeating a paid model invocation inside
// the workflow is never acceptable.
func (s *Service) invokeProvider(ctx context.Context, req *domain.RecipeRequest) (*domain.GeneratedRecipe, error) {
	start := time.Now()
	generated, err := s.generator.Generate(ctx, req)
	if s.metrics != nil {
		s.metrics.ObserveProviderCall(s.cfg.Generation.Model, time.Since(start), providerErrorKind(err))
	}
	if err != nil {
		slog.Error("recipe generation failed", "model", s.cfg.Generation.Model, "error", err)
		return nil, err
	}

	slog.Info("recipe generated",
		"model", s.cfg.Generation.Model,
		"recipe_id", generated.ID,
		"latency_ms", time.Since(start).Milliseconds(),
	)
	return generated, nil
}

func providerErrorKind(err error) string {
	if err == nil {
		return ""
	}
	var provErr *domain.ProviderError
	if errors.As(err, &provErr) {
		return string(provErr.Kind)
	}
	return "unknown"
}
