package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("COMMERCE_BEARER_TOKEN", "trm_test")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, "file", cfg.SnapshotBackend)
	assert.Equal(t, "storefront:cart", cfg.SnapshotKey)
	assert.Equal(t, "https://api.terminal.shop", cfg.CommerceBaseURL)
	assert.False(t, cfg.TracingEnabled)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("COMMERCE_BEARER_TOKEN", "trm_test")
	t.Setenv("STOREFRONT_HTTP_PORT", "9090")
	t.Setenv("CART_SNAPSHOT_BACKEND", "redis")
	t.Setenv("REDIS_ADDR", "redis:6379")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.HTTPPort)
	assert.Equal(t, "redis", cfg.SnapshotBackend)
	assert.Equal(t, "redis:6379", cfg.RedisAddr)
}

func TestLoad_MissingToken(t *testing.T) {
	t.Setenv("COMMERCE_BEARER_TOKEN", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "COMMERCE_BEARER_TOKEN")
}

func TestLoad_InvalidBackend(t *testing.T) {
	t.Setenv("COMMERCE_BEARER_TOKEN", "trm_test")
	t.Setenv("CART_SNAPSHOT_BACKEND", "s3")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "snapshot backend")
}

func TestLoad_InvalidPort(t *testing.T) {
	t.Setenv("COMMERCE_BEARER_TOKEN", "trm_test")
	t.Setenv("STOREFRONT_HTTP_PORT", "70000")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid HTTP port")
}
