// Package config provides configuration management for RecipeGate.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
)

// Config is the root configuration structure. It is built once at
// startup and passed explicitly into every constructor; nothing reads
// it as ambient global state.
type Config struct {
	Server     ServerConfig     `toml:"server"`
	Telemetry  TelemetryConfig  `toml:"telemetry"`
	Cache      CacheConfig      `toml:"cache"`
	Bedrock    BedrockConfig    `toml:"bedrock"`
	Generation GenerationConfig `toml:"generation"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	HTTPPort       int           `toml:"http_port"`
	BindAddress    string        `toml:"bind_address"`
	AuthToken      string        `toml:"auth_token"` // optional static bearer token
	ReadTimeout    time.Duration `toml:"read_timeout"`
	WriteTimeout   time.Duration `toml:"write_timeout"`
	MaxRequestSize int64         `toml:"max_request_size"`
}

// TelemetryConfig contains observability settings.
type TelemetryConfig struct {
	Enabled     bool   `toml:"enabled"`
	ServiceName string `toml:"service_name"`
	LogFormat   string `toml:"log_format"` // "json" or "text"
	LogLevel    string `toml:"log_level"`
}

// CacheConfig contains recipe cache settings.
type CacheConfig struct {
	Driver string        `toml:"driver"` // "memory", "dynamodb", "postgres"
	TTL    time.Duration `toml:"ttl"`

	// DynamoDB driver
	Table  string `toml:"table"`
	Region string `toml:"region"` // defaults to bedrock.region

	// Postgres driver
	DSN        string        `toml:"dsn"`
	MaxConns   int           `toml:"max_conns"`
	MaxIdle    int           `toml:"max_idle"`
	ConnMaxAge time.Duration `toml:"conn_max_age"`
}

// BedrockConfig contains AWS Bedrock credentials and region settings.
type BedrockConfig struct {
	// Long-Term API Key authentication (Bearer token)
	APIKey       string `toml:"api_key"`
	RegionPrefix string `toml:"region_prefix"` // "us.", "eu.", "global."

	// IAM authentication
	Region          string `toml:"region"`
	AccessKeyID     string `toml:"access_key_id"`
	SecretAccessKey string `toml:"secret_access_key"`
}

// GenerationConfig contains model invocation settings.
type GenerationConfig struct {
	Model       string        `toml:"model"`
	MaxTokens   int           `toml:"max_tokens"`
	Temperature float64       `toml:"temperature"`
	TopP        float64       `toml:"top_p"`
	// Timeout bounds a single provider call. It must stay below the
	// server write timeout so a slow model surfaces as an upstream
	// timeout rather than a dropped connection.
	Timeout     time.Duration `toml:"timeout"`
}

// Default returns a default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPPort:       8080,
			BindAddress:    "0.0.0.0",
			ReadTimeout:    30 * time.Second,
			WriteTimeout:   2 * time.Minute,
			MaxRequestSize: 1 * 1024 * 1024, // 1MB
		},
		Telemetry: TelemetryConfig{
			Enabled:     true,
			ServiceName: "recipegate",
			LogFormat:   "json",
			LogLevel:    "info",
		},
		Cache: CacheConfig{
			Driver:     "memory",
			TTL:        24 * time.Hour,
			Table:      "recipe-ai-recipes",
			MaxConns:   20,
			MaxIdle:    5,
			ConnMaxAge: 30 * time.Minute,
		},
		Bedrock: BedrockConfig{
			Region:       "us-east-1",
			RegionPrefix: "us.",
		},
		Generation: GenerationConfig{
			Model:       "anthropic.claude-3-sonnet-20240229-v1:0",
			MaxTokens:   2000,
			Temperature: 0.7,
			TopP:        0.9,
			Timeout:     60 * time.Second,
		},
	}
}

// Load loads configuration from a TOML file, falling back to defaults
// when the file does not exist.
func Load(path string) (*Config, error) {
	cfg := Default()

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		if os.IsNotExist(err) {
			// Env overrides still apply without a file, so the same
			// invariants must hold on this path.
			cfg.substituteEnvVars()
			if err := cfg.validate(); err != nil {
				return nil, err
			}
			return cfg, nil
		}
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.substituteEnvVars()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// substituteEnvVars expands ${VAR} patterns and applies direct
// RECIPEGATE_* environment variable overrides.
func (c *Config) substituteEnvVars() {
	c.Server.AuthToken = expandEnv(c.Server.AuthToken)
	c.Bedrock.APIKey = expandEnv(c.Bedrock.APIKey)
	c.Bedrock.AccessKeyID = expandEnv(c.Bedrock.AccessKeyID)
	c.Bedrock.SecretAccessKey = expandEnv(c.Bedrock.SecretAccessKey)
	c.Cache.DSN = expandEnv(c.Cache.DSN)

	if v := os.Getenv("RECIPEGATE_HTTP_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.HTTPPort = port
		}
	}
	if v := os.Getenv("RECIPEGATE_AUTH_TOKEN"); v != "" {
		c.Server.AuthToken = v
	}
	if v := os.Getenv("RECIPEGATE_CACHE_DRIVER"); v != "" {
		c.Cache.Driver = v
	}
	if v := os.Getenv("RECIPEGATE_CACHE_TABLE"); v != "" {
		c.Cache.Table = v
	}
	if v := os.Getenv("RECIPEGATE_CACHE_DSN"); v != "" {
		c.Cache.DSN = v
	}
	if v := os.Getenv("RECIPEGATE_CACHE_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Cache.TTL = d
		}
	}
	if v := os.Getenv("AWS_REGION"); v != "" {
		c.Bedrock.Region = v
	}
	if v := os.Getenv("RECIPEGATE_BEDROCK_MODEL"); v != "" {
		c.Generation.Model = v
	}
	if v := os.Getenv("RECIPEGATE_GENERATION_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Generation.Timeout = d
		}
	}
}

func (c *Config) validate() error {
	switch c.Cache.Driver {
	case "memory", "dynamodb", "postgres":
	default:
		return fmt.Errorf("unknown cache driver %q", c.Cache.Driver)
	}
	if c.Cache.TTL <= 0 {
		return fmt.Errorf("cache ttl must be positive, got %s", c.Cache.TTL)
	}
	if c.Generation.Timeout <= 0 {
		return fmt.Errorf("generation timeout must be positive, got %s", c.Generation.Timeout)
	}
	if c.Generation.Timeout >= c.Server.WriteTimeout {
		return fmt.Errorf("generation timeout (%s) must be shorter than server write timeout (%s)",
			c.Generation.Timeout, c.Server.WriteTimeout)
	}
	if c.Cache.Driver == "postgres" && c.Cache.DSN == "" {
		return fmt.Errorf("cache dsn is required for the postgres driver")
	}
	return nil
}

// CacheRegion returns the region to use for the DynamoDB cache client.
func (c *Config) CacheRegion() string {
	if c.Cache.Region != "" {
		return c.Cache.Region
	}
	return c.Bedrock.Region
}

// expandEnv expands ${VAR} or $VAR patterns.
func expandEnv(s string) string {
	if s == "" {
		return s
	}
	return os.ExpandEnv(s)
}
