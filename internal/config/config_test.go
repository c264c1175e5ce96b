package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(nil)
	require.NoError(t, err)

	assert.Equal(t, "product", cfg.Service)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.UsesPostgres())
	assert.False(t, cfg.Metrics.Enabled)
	assert.Zero(t, cfg.RateLimit.RPS)
}

func TestLoad_EnvOverridesDefaults(t *testing.T) {
	t.Setenv("PRODUCTS_HTTP_ADDR", ":9090")
	t.Setenv("PRODUCTS_METRICS_ENABLED", "true")
	t.Setenv("PRODUCTS_METRICS_TOKEN", "scrape")
	t.Setenv("PRODUCTS_RATE_LIMIT_RPS", "2.5")

	cfg, err := Load(nil)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, "scrape", cfg.Metrics.Token)
	assert.Equal(t, 2.5, cfg.RateLimit.RPS)
}

func TestLoad_FlagsOverrideEnv(t *testing.T) {
	t.Setenv("PRODUCTS_HTTP_ADDR", ":9090")

	cfg, err := Load([]string{"--http-addr", ":7070", "--database-url", "postgres://localhost/products"})
	require.NoError(t, err)

	assert.Equal(t, ":7070", cfg.HTTPAddr)
	assert.True(t, cfg.UsesPostgres())
}

func TestLoad_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := []byte(`
service: inventory
log_level: debug
rate_limit:
  rps: 10
  burst: 20
`)
	require.NoError(t, os.WriteFile(path, body, 0o600))

	cfg, err := Load([]string{"--config", path})
	require.NoError(t, err)

	assert.Equal(t, "inventory", cfg.Service)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 10.0, cfg.RateLimit.RPS)
	assert.Equal(t, 20, cfg.RateLimit.Burst)
}

func TestLoad_ConfigFileFromEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("http_addr: \":6060\"\n"), 0o600))
	t.Setenv(configFileEnvName, path)

	cfg, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, ":6060", cfg.HTTPAddr)
}

func TestLoad_MissingConfigFile(t *testing.T) {
	_, err := Load([]string{"--config", filepath.Join(t.TempDir(), "nope.yaml")})
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := Config{HTTPAddr: "", RateLimit: RateLimit{RPS: -1, Burst: -1}}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "http_addr")
	assert.Contains(t, err.Error(), "rate_limit.rps")
	assert.Contains(t, err.Error(), "rate_limit.burst")
}
