package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envVars = []string{
	"GATEKEEPER_CONFIG", "APP_ENV", "LOG_LEVEL", "DATABASE_URL", "DATABASE_DRIVER",
	"REDIS_URL", "CACHE_BACKEND", "CACHE_NAMESPACE", "EVENTS_TRANSPORT", "JWT_SECRET",
	"DOMAIN", "PORT", "CHAIN_ID", "JWT_EXPIRES_IN", "RATE_LIMIT_WINDOW_MS",
	"RATE_LIMIT_MAX", "SHUTDOWN_TIMEOUT",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range envVars {
		t.Setenv(name, "")
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, "localhost:8000", cfg.Auth.Domain)
	assert.Equal(t, 15*time.Minute, cfg.RateLimit.Window)
	assert.Equal(t, int64(100), cfg.RateLimit.Max)
	assert.Equal(t, "trustai:development", cfg.CacheNamespace())
	assert.False(t, cfg.IsProduction())
}

func TestLoadFromYAML(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "config.yaml", `
env: staging
server:
  port: 9090
  shutdown_timeout: 30s
redis:
  url: redis://cache:6379/1
  namespace: custom
auth:
  jwt_secret: yaml-secret
  token_ttl: 12h
  domain: app.example.com
  chain_id: 8453
rate_limit:
  window: 1m
  max: 20
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "staging", cfg.Env)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "redis://cache:6379/1", cfg.Redis.URL)
	assert.Equal(t, "custom", cfg.CacheNamespace())
	assert.Equal(t, "yaml-secret", cfg.Auth.JWTSecret)
	assert.Equal(t, 12*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, int64(8453), cfg.Auth.ChainID)
	assert.Equal(t, time.Minute, cfg.RateLimit.Window)
	assert.Equal(t, int64(20), cfg.RateLimit.Max)
	// untouched defaults survive
	assert.Equal(t, 3, cfg.Redis.MaxRetries)
}

func TestEnvOverridesYAML(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "config.yaml", "server:\n  port: 9090\n")
	t.Setenv("GATEKEEPER_CONFIG", path)
	t.Setenv("PORT", "7000")
	t.Setenv("JWT_EXPIRES_IN", "7d")
	t.Setenv("RATE_LIMIT_WINDOW_MS", "60000")
	t.Setenv("RATE_LIMIT_MAX", "5")
	t.Setenv("DOMAIN", "trust.example")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 7000, cfg.Server.Port)
	assert.Equal(t, 7*24*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, time.Minute, cfg.RateLimit.Window)
	assert.Equal(t, int64(5), cfg.RateLimit.Max)
	assert.Equal(t, "trust.example", cfg.Auth.Domain)
}

func TestInvalidEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "eighty")

	_, err := Load("")
	assert.ErrorContains(t, err, "PORT")
}

func TestSecretFile(t *testing.T) {
	clearEnv(t)
	secretPath := writeFile(t, "secret", "  file-secret-value  \n")
	path := writeFile(t, "config.yaml", "auth:\n  jwt_secret_file: "+secretPath+"\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "file-secret-value", cfg.Auth.JWTSecret)
}

func TestProductionValidation(t *testing.T) {
	clearEnv(t)
	t.Setenv("APP_ENV", "production")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "auth.jwt_secret")

	t.Setenv("JWT_SECRET", strings.Repeat("s", 32))
	cfg, err := Load("")
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "trustai:production", cfg.CacheNamespace())

	t.Setenv("CACHE_BACKEND", "memory")
	t.Setenv("EVENTS_TRANSPORT", "memory")
	_, err = Load("")
	assert.ErrorContains(t, err, "memory backends")
}

func TestValidate(t *testing.T) {
	cfg := Defaults()
	cfg.Server.Port = 0
	cfg.Database.Driver = "mysql"
	cfg.RateLimit.Max = 0
	cfg.Events.Transport = "redis"
	cfg.Redis.Backend = "memory"

	err := cfg.Validate()
	require.Error(t, err)
	for _, want := range []string{"server.port", "database.driver", "rate_limit.max", "events.transport"} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestParseDuration(t *testing.T) {
	d, err := ParseDuration("24h")
	require.NoError(t, err)
	assert.Equal(t, 24*time.Hour, d)

	d, err = ParseDuration("2d")
	require.NoError(t, err)
	assert.Equal(t, 48*time.Hour, d)

	_, err = ParseDuration("xd")
	assert.Error(t, err)
}
