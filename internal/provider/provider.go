// Package provider implements generation provider clients.
package provider

import (
	"context"
	"net/http"
	"time"

	"recipegate/internal/domain"
)

// Generator is the contract the workflow requires of a generation
// provider: one synchronous call that turns a validated request into a
// complete recipe, or a classified *domain.ProviderError. Consuming
// provider quota is the generator's only side effect, which is why the
// caller guards it behind the cache.
type Generator interface {
	Generate(ctx context.Context, req *domain.RecipeRequest) (*domain.GeneratedRecipe, error)
}

// ModelLister lists the foundation models available for generation.
type ModelLister interface {
	ListModels(ctx context.Context) ([]domain.ModelInfo, error)
}

// buildHTTPClient returns an HTTP client tuned for long-running model
// invocations. The overall call deadline is enforced by the caller's
// context, not the client timeout.
func buildHTTPClient() *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:          10,
			MaxIdleConnsPerHost:   10,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
		},
	}
}
