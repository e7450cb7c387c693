package config

import (
	"fmt"

	pkgconfig "github.com/utafrali/StorefrontGo/pkg/config"
)

// Config holds all configuration for the storefront.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort int `env:"STOREFRONT_HTTP_PORT" envDefault:"8080"`

	// Commerce backend
	CommerceBaseURL     string `env:"COMMERCE_BASE_URL" envDefault:"https://api.terminal.shop"`
	CommerceBearerToken string `env:"COMMERCE_BEARER_TOKEN"`

	// Cart snapshot storage: "redis" or "file"
	SnapshotBackend string `env:"CART_SNAPSHOT_BACKEND" envDefault:"file"`
	SnapshotKey     string `env:"CART_SNAPSHOT_KEY" envDefault:"storefront:cart"`
	SnapshotPath    string `env:"CART_SNAPSHOT_PATH" envDefault:"data/cart.json"`

	// Redis (only used when SnapshotBackend is "redis")
	RedisAddr string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPass string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB   int    `env:"REDIS_DB" envDefault:"0"`

	// Tracing
	TracingEnabled  bool   `env:"TRACING_ENABLED" envDefault:"false"`
	TracingEndpoint string `env:"TRACING_ENDPOINT" envDefault:"localhost:4318"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load storefront config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate checks configuration invariants.
func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if c.CommerceBearerToken == "" {
		return fmt.Errorf("COMMERCE_BEARER_TOKEN is required")
	}
	switch c.SnapshotBackend {
	case "redis", "file":
	default:
		return fmt.Errorf("invalid snapshot backend: %q", c.SnapshotBackend)
	}
	return nil
}
