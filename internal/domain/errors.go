package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrCacheMiss is returned by cache stores when a key is absent or its
// entry is past its TTL.
var ErrCacheMiss = errors.New("cache miss")

// Validation error codes, surfaced per field in 400 responses.
const (
	CodeRequired     = "required"
	CodeEmpty        = "empty"
	CodeTooMany      = "too_many"
	CodeOutOfRange   = "out_of_range"
	CodeUnknownValue = "unknown_value"
)

// FieldError describes a single violated constraint on a request field.
type FieldError struct {
	Field      string `json:"field"`
	Code       string `json:"code"`
	Message    string `json:"message"`
	Suggestion string `json:"suggestion,omitempty"`
}

// ValidationError is returned when a raw request fails validation.
// It carries one entry per violated field.
type ValidationError struct {
	Fields []FieldError `json:"fields"`
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, fmt.Sprintf("%s: %s", f.Field, f.Message))
	}
	return "invalid request: " + strings.Join(msgs, "; ")
}

// ProviderErrorKind classifies generation provider failures.
type ProviderErrorKind string

const (
	ProviderTimeout            ProviderErrorKind = "upstream_timeout"
	ProviderRateLimited        ProviderErrorKind = "rate_limited"
	ProviderInvalidModelOutput ProviderErrorKind = "invalid_model_output"
	ProviderUnavailable        ProviderErrorKind = "upstream_unavailable"
)

// ProviderError is returned when the generation provider fails. Callers
// can switch on Kind to decide whether a retry on their side makes sense;
// RecipeGate itself never retries.
type ProviderError struct {
	Kind    ProviderErrorKind
	Message string
	Err     error
}

func (e *ProviderError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("provider error (%s): %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("provider error (%s)", e.Kind)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// NewProviderError wraps err with the given classification.
func NewProviderError(kind ProviderErrorKind, message string, err error) *ProviderError {
	return &ProviderError{Kind: kind, Message: message, Err: err}
}
