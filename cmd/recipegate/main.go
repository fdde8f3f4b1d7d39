// Package main is the entry point for the RecipeGate server.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"recipegate/internal/cache"
	"recipegate/internal/config"
	"recipegate/internal/gateway"
	httpserver "recipegate/internal/http"
	"recipegate/internal/provider"
	"recipegate/internal/telemetry"
)

func main() {
	configPath := flag.String("config", "config.toml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := telemetry.NewLogger(&cfg.Telemetry)
	slog.SetDefault(logger)

	slog.Info("Starting RecipeGate",
		"version", "0.1.0",
		"http_port", cfg.Server.HTTPPort,
		"cache_driver", cfg.Cache.Driver,
		"model", cfg.Generation.Model,
	)

	var metrics *telemetry.Metrics
	if cfg.Telemetry.Enabled {
		metrics = telemetry.NewMetrics(nil)
	}

	store, err := newCacheStore(cfg)
	if err != nil {
		slog.Error("Failed to initialize cache store", "error", err, "driver", cfg.Cache.Driver)
		os.Exit(1)
	}
	defer store.Close()
	slog.Info("Cache store initialized", "driver", cfg.Cache.Driver, "ttl", cfg.Cache.TTL)

	generator, err := provider.NewBedrockClient(cfg)
	if err != nil {
		slog.Error("Failed to initialize Bedrock client", "error", err)
		os.Exit(1)
	}

	// Model listing needs the control plane; skip it on Bearer-only auth.
	var lister provider.ModelLister
	if cfg.Bedrock.APIKey == "" {
		l, err := provider.NewBedrockModelLister(cfg)
		if err != nil {
			slog.Warn("Model listing disabled", "error", err)
		} else {
			lister = l
		}
	}

	service := gateway.NewService(cfg, store, generator, metrics)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		slog.Info("Received shutdown signal", "signal", sig)
		cancel()
	}()

	addr := fmt.Sprintf("%s:%d", cfg.Server.BindAddress, cfg.Server.HTTPPort)
	server := httpserver.NewServer(cfg, service, lister, metrics)

	slog.Info("RecipeGate ready",
		"endpoint", fmt.Sprintf("http://localhost:%d/v1/recipes/generate", cfg.Server.HTTPPort),
		"metrics", fmt.Sprintf("http://localhost:%d/metrics", cfg.Server.HTTPPort),
	)
	if err := server.Start(ctx, addr); err != nil && err != http.ErrServerClosed {
		slog.Error("HTTP server error", "error", err)
		os.Exit(1)
	}

	slog.Info("RecipeGate stopped")
}

// newCacheStore builds the configured cache backend.
func newCacheStore(cfg *config.Config) (cache.Store, error) {
	switch cfg.Cache.Driver {
	case "memory":
		return cache.NewMemoryStore(), nil

	case "dynamodb":
		opts := []func(*awsconfig.LoadOptions) error{
			awsconfig.WithRegion(cfg.CacheRegion()),
		}
		if cfg.Bedrock.AccessKeyID != "" && cfg.Bedrock.SecretAccessKey != "" {
			opts = append(opts, awsconfig.WithCredentialsProvider(
				credentials.NewStaticCredentialsProvider(
					cfg.Bedrock.AccessKeyID,
					cfg.Bedrock.SecretAccessKey,
					"",
				),
			))
		}
		awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), opts...)
		if err != nil {
			return nil, fmt.Errorf("loading AWS config: %w", err)
		}
		return cache.NewDynamoStore(dynamodb.NewFromConfig(awsCfg), cfg.Cache.Table), nil

	case "postgres":
		return cache.NewPostgresStore(cfg.Cache.DSN, cfg.Cache.MaxConns, cfg.Cache.MaxIdle, cfg.Cache.ConnMaxAge)

	default:
		return nil, fmt.Errorf("unknown cache driver %q", cfg.Cache.Driver)
	}
}
