package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	t.Run("missing file returns defaults", func(t *testing.T) {
		cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Server.HTTPPort != 8080 {
			t.Errorf("expected default port 8080, got %d", cfg.Server.HTTPPort)
		}
		if cfg.Cache.Driver != "memory" {
			t.Errorf("expected default memory driver, got %q", cfg.Cache.Driver)
		}
		if cfg.Generation.MaxTokens != 2000 {
			t.Errorf("expected default max_tokens 2000, got %d", cfg.Generation.MaxTokens)
		}
	})

	t.Run("file overrides defaults", func(t *testing.T) {
		path := writeConfig(t, `
[server]
http_port = 9000

[cache]
driver = "dynamodb"
table = "my-recipes"
ttl = 3600000000000

[generation]
model = "anthropic.claude-3-haiku-20240307-v1:0"
`)
		cfg, err := Load(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Server.HTTPPort != 9000 {
			t.Errorf("expected port 9000, got %d", cfg.Server.HTTPPort)
		}
		if cfg.Cache.Driver != "dynamodb" || cfg.Cache.Table != "my-recipes" {
			t.Errorf("unexpected cache config %+v", cfg.Cache)
		}
		if cfg.Cache.TTL != time.Hour {
			t.Errorf("expected 1h ttl, got %s", cfg.Cache.TTL)
		}
		if cfg.Generation.Model != "anthropic.claude-3-haiku-20240307-v1:0" {
			t.Errorf("unexpected model %q", cfg.Generation.Model)
		}
	})

	t.Run("env overrides", func(t *testing.T) {
		t.Setenv("RECIPEGATE_CACHE_DRIVER", "memory")
		t.Setenv("RECIPEGATE_CACHE_TTL", "30m")
		t.Setenv("RECIPEGATE_BEDROCK_MODEL", "anthropic.claude-3-opus-20240229-v1:0")

		cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Cache.TTL != 30*time.Minute {
			t.Errorf("expected 30m ttl, got %s", cfg.Cache.TTL)
		}
		if cfg.Generation.Model != "anthropic.claude-3-opus-20240229-v1:0" {
			t.Errorf("unexpected model %q", cfg.Generation.Model)
		}
	})

	t.Run("env overrides are validated without a file", func(t *testing.T) {
		t.Setenv("RECIPEGATE_GENERATION_TIMEOUT", "10m")

		if _, err := Load(filepath.Join(t.TempDir(), "absent.toml")); err == nil {
			t.Error("expected error when env generation timeout exceeds write timeout")
		}
	})

	t.Run("env expansion in secrets", func(t *testing.T) {
		t.Setenv("TEST_BEDROCK_KEY", "ABSKtest")
		path := writeConfig(t, `
[bedrock]
api_key = "${TEST_BEDROCK_KEY}"
`)
		cfg, err := Load(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Bedrock.APIKey != "ABSKtest" {
			t.Errorf("expected expanded api key, got %q", cfg.Bedrock.APIKey)
		}
	})

	t.Run("unknown cache driver rejected", func(t *testing.T) {
		path := writeConfig(t, `
[cache]
driver = "redis"
`)
		if _, err := Load(path); err == nil {
			t.Error("expected error for unknown cache driver")
		}
	})

	t.Run("postgres driver requires dsn", func(t *testing.T) {
		path := writeConfig(t, `
[cache]
driver = "postgres"
`)
		if _, err := Load(path); err == nil {
			t.Error("expected error for postgres driver without dsn")
		}
	})

	t.Run("generation timeout must undercut write timeout", func(t *testing.T) {
		path := writeConfig(t, `
[server]
write_timeout = 10000000000

[generation]
timeout = 20000000000
`)
		if _, err := Load(path); err == nil {
			t.Error("expected error when generation timeout exceeds write timeout")
		}
	})
}
