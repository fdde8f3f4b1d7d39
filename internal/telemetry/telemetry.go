// Package telemetry provides observability with Prometheus metrics and
// structured logging.
package telemetry

import (
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"recipegate/internal/config"
)

// Metrics holds all Prometheus metrics for RecipeGate.
type Metrics struct {
	// Request metrics
	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	RequestsInFlight prometheus.Gauge

	// Cache metrics
	CacheHits          prometheus.Counter
	CacheMisses        prometheus.Counter
	CacheReadFailures  prometheus.Counter
	CacheWriteFailures prometheus.Counter

	// Provider metrics
	ProviderRequests *prometheus.CounterVec
	ProviderErrors   *prometheus.CounterVec
	ProviderLatency  *prometheus.HistogramVec

	// Validation metrics
	ValidationFailures *prometheus.CounterVec
}

// NewMetrics creates and registers all metrics.
func NewMetrics(registry prometheus.Registerer) *Metrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}

	factory := promauto.With(registry)

	return &Metrics{
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "recipegate_requests_total",
				Help: "Total number of recipe requests",
			},
			[]string{"status", "cached"},
		),

		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "recipegate_request_duration_seconds",
				Help:    "Request duration in seconds",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"cached"},
		),

		RequestsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "recipegate_requests_in_flight",
				Help: "Number of requests currently being processed",
			},
		),

		CacheHits: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "recipegate_cache_hits_total",
				Help: "Recipe cache hits",
			},
		),

		CacheMisses: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "recipegate_cache_misses_total",
				Help: "Recipe cache misses",
			},
		),

		CacheReadFailures: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "recipegate_cache_read_failures_total",
				Help: "Cache reads that failed and were treated as misses",
			},
		),

		CacheWriteFailures: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "recipegate_cache_write_failures_total",
				Help: "Cache writes that failed and were swallowed",
			},
		),

		ProviderRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "recipegate_provider_requests_total",
				Help: "Generation provider invocations",
			},
			[]string{"model"},
		),

		ProviderErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "recipegate_provider_errors_total",
				Help: "Generation provider failures by kind",
			},
			[]string{"model", "kind"},
		),

		ProviderLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "recipegate_provider_latency_seconds",
				Help:    "Generation provider call latency in seconds",
				Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 30, 60, 120},
			},
			[]string{"model"},
		),

		ValidationFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "recipegate_validation_failures_total",
				Help: "Request validation failures by field",
			},
			[]string{"field", "code"},
		),
	}
}

// ObserveProviderCall records one provider invocation.
func (m *Metrics) ObserveProviderCall(model string, duration time.Duration, errKind string) {
	m.ProviderRequests.WithLabelValues(model).Inc()
	m.ProviderLatency.WithLabelValues(model).Observe(duration.Seconds())
	if errKind != "" {
		m.ProviderErrors.WithLabelValues(model, errKind).Inc()
	}
}

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// NewLogger builds the process logger from telemetry config.
func NewLogger(cfg *config.TelemetryConfig) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(cfg.LogLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.LogFormat == "text" {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}
