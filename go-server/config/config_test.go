package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"CONFIG_FILE", "PORT", "ENV", "LOG_LEVEL", "SERVICE_NAME", "STORAGE",
		"POSTGRES_URL", "POSTGRES_HOST", "POSTGRES_PORT", "POSTGRES_DB", "POSTGRES_USER",
		"POSTGRES_PASSWORD", "POSTGRES_SSLMODE", "REDIS_ADDR", "REDIS_CACHE_TTL",
		"JWT_SECRET", "SESSION_COOKIE", "SESSION_TTL", "BCRYPT_COST", "CORS_ORIGINS",
		"OTEL_EXPORTER_OTLP_ENDPOINT", "SEED_DEMO",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, StorageMemory, cfg.Storage)
	assert.Equal(t, "session", cfg.SessionCookie)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
	assert.Equal(t, 10, cfg.BcryptCost)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	assert.False(t, cfg.IsProduction())
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("STORAGE", "postgres")
	t.Setenv("POSTGRES_HOST", "db")
	t.Setenv("POSTGRES_USER", "links")
	t.Setenv("POSTGRES_PASSWORD", "secret")
	t.Setenv("POSTGRES_DB", "tinylinks")
	t.Setenv("BCRYPT_COST", "12")
	t.Setenv("SESSION_TTL", "2h")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("SEED_DEMO", "true")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "postgres://links:secret@db:5432/tinylinks?sslmode=prefer", cfg.PostgresURL)
	assert.Equal(t, 12, cfg.BcryptCost)
	assert.Equal(t, 2*time.Hour, cfg.SessionTTL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.True(t, cfg.SeedDemo)
}

func TestLoadConfig_YAMLFileThenEnv(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
port: "7000"
log_level: debug
session_cookie: tl_session
session_ttl: 30m
redis_addr: cache:6379
cors_origins:
  - https://yaml.example
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("PORT", "7001")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "7001", cfg.Port, "environment wins over the file")
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "tl_session", cfg.SessionCookie)
	assert.Equal(t, 30*time.Minute, cfg.SessionTTL)
	assert.Equal(t, "cache:6379", cfg.RedisAddr)
	assert.Equal(t, []string{"https://yaml.example"}, cfg.CORSOrigins)
}

func TestLoadConfig_Invalid(t *testing.T) {
	testCases := []struct {
		name string
		env  map[string]string
	}{
		{"unknown storage", map[string]string{"STORAGE": "sqlite"}},
		{"postgres without settings", map[string]string{"STORAGE": "postgres"}},
		{"bad postgres port", map[string]string{"POSTGRES_PORT": "five"}},
		{"bcrypt cost too low", map[string]string{"BCRYPT_COST": "2"}},
		{"bad session ttl", map[string]string{"SESSION_TTL": "forever"}},
		{"production with default secret", map[string]string{"ENV": "production"}},
		{"missing config file", map[string]string{"CONFIG_FILE": "/does/not/exist.yaml"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tc.env {
				t.Setenv(k, v)
			}

			_, err := LoadConfig()
			assert.Error(t, err)
		})
	}
}
