// Package http provides the RecipeGate HTTP API server.
package http

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"recipegate/internal/config"
	"recipegate/internal/domain"
	"recipegate/internal/gateway"
	"recipegate/internal/provider"
	"recipegate/internal/recipe"
	"recipegate/internal/telemetry"
)

// Server is the HTTP API server.
type Server struct {
	config  *config.Config
	service *gateway.Service
	models  provider.ModelLister
	metrics *telemetry.Metrics
	mux     *http.ServeMux
}

// GenerateResponse is the 200 body for a generation request.
type GenerateResponse struct {
	*domain.GeneratedRecipe
	Cached   bool   `json:"cached"`
	CacheKey string `json:"cache_key"`
}

// ErrorResponse is the error body shape for all non-200 responses.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail carries a stable machine-readable error category plus,
// for validation failures, the per-field violations.
type ErrorDetail struct {
	Type    string              `json:"type"`
	Message string              `json:"message"`
	Fields  []domain.FieldError `json:"fields,omitempty"`
}

// ModelsResponse is the body for GET /v1/models.
type ModelsResponse struct {
	Models []domain.ModelInfo `json:"models"`
}

// NewServer creates the HTTP server. models may be nil when no
// control-plane credentials are configured.
func NewServer(cfg *config.Config, service *gateway.Service, models provider.ModelLister, metrics *telemetry.Metrics) *Server {
	s := &Server{
		config:  cfg,
		service: service,
		models:  models,
		metrics: metrics,
		mux:     http.NewServeMux(),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.mux.HandleFunc("POST /v1/recipes/generate", s.withAuth(s.handleGenerate))
	// Unversioned alias kept for callers of the original API shape.
	s.mux.HandleFunc("POST /recipes/generate", s.withAuth(s.handleGenerate))
	s.mux.HandleFunc("GET /v1/models", s.withAuth(s.handleListModels))

	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /ready", s.handleReady)
	s.mux.Handle("GET /metrics", telemetry.Handler())
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.corsMiddleware(s.mux)
}

// Start runs the server until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Start(ctx context.Context, addr string) error {
	server := &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  s.config.Server.ReadTimeout,
		WriteTimeout: s.config.Server.WriteTimeout,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	return server.ListenAndServe()
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	if s.metrics != nil {
		s.metrics.RequestsInFlight.Inc()
		defer s.metrics.RequestsInFlight.Dec()
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.config.Server.MaxRequestSize)

	var raw recipe.RawRequest
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		s.recordRequest(http.StatusBadRequest, false, start)
		s.writeError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	result, err := s.service.Generate(r.Context(), &raw)
	if err != nil {
		status, body := errorResponse(err)
		s.recordRequest(status, false, start)
		s.writeJSON(w, status, body)
		return
	}

	s.recordRequest(http.StatusOK, result.Cached, start)
	s.writeJSON(w, http.StatusOK, GenerateResponse{
		GeneratedRecipe: result.Recipe,
		Cached:          result.Cached,
		CacheKey:        result.CacheKey,
	})
}

func (s *Server) handleListModels(w http.ResponseWriter, r *http.Request) {
	if s.models == nil {
		s.writeError(w, http.StatusServiceUnavailable, "models_unavailable",
			"model listing requires IAM credentials")
		return
	}

	models, err := s.models.ListModels(r.Context())
	if err != nil {
		slog.Error("listing models failed", "error", err)
		s.writeError(w, http.StatusBadGateway, "upstream_unavailable", "failed to list models")
		return
	}

	s.writeJSON(w, http.StatusOK, ModelsResponse{Models: models})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// errorResponse maps workflow errors onto status codes and stable error
// categories. Provider subtypes stay distinguishable so callers can
// decide whether retrying is worthwhile.
func errorResponse(err error) (int, ErrorResponse) {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		return http.StatusBadRequest, ErrorResponse{Error: ErrorDetail{
			Type:    "validation_error",
			Message: "request validation failed",
			Fields:  verr.Fields,
		}}
	}

	var perr *domain.ProviderError
	if errors.As(err, &perr) {
		status := http.StatusBadGateway
		if perr.Kind == domain.ProviderTimeout {
			status = http.StatusGatewayTimeout
		}
		return status, ErrorResponse{Error: ErrorDetail{
			Type:    string(perr.Kind),
			Message: perr.Error(),
		}}
	}

	return http.StatusInternalServerError, ErrorResponse{Error: ErrorDetail{
		Type:    "internal_error",
		Message: "internal server error",
	}}
}

func (s *Server) recordRequest(status int, cached bool, start time.Time) {
	if s.metrics == nil {
		return
	}
	cachedLabel := strconv.FormatBool(cached)
	s.metrics.RequestsTotal.WithLabelValues(strconv.Itoa(status), cachedLabel).Inc()
	s.metrics.RequestDuration.WithLabelValues(cachedLabel).Observe(time.Since(start).Seconds())
}

// withAuth enforces the optional static bearer token.
func (s *Server) withAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.config.Server.AuthToken != "" {
			token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
			if subtle.ConstantTimeCompare([]byte(token), []byte(s.config.Server.AuthToken)) != 1 {
				s.writeError(w, http.StatusUnauthorized, "unauthorized", "missing or invalid bearer token")
				return
			}
		}
		next(w, r)
	}
}

// corsMiddleware adds CORS headers; the upstream deployment fronted the
// handler with API Gateway CORS, mirrored here.
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Max-Age", "86400")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (s *Server) writeError(w http.ResponseWriter, status int, errType, message string) {
	s.writeJSON(w, status, ErrorResponse{
		Error: ErrorDetail{
			Type:    errType,
			Message: message,
		},
	})
}
