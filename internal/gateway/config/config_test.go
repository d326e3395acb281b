package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("APP_ENV", "")
	t.Setenv("LLM_PROVIDER", "")
	t.Setenv("SNAPSHOT_BACKEND", "")

	cfg, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, ":8081", cfg.Port)
	assert.Equal(t, "local", cfg.Env)
	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, 3, cfg.LLM.Retries)
	assert.Equal(t, 3, cfg.Session.MaxDepth)
	assert.Equal(t, "memory", cfg.Snapshot.Backend)
	assert.Empty(t, cfg.AllowedOrigins)
	assert.Equal(t, 15*time.Second, cfg.Validation.Timeout)
	assert.Equal(t, "minio:9000", cfg.Snapshot.S3.Endpoint)
	assert.False(t, cfg.Snapshot.S3.UseSSL)
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("APP_ENV", "production")
	t.Setenv("LLM_PROVIDER", "Gemini")
	t.Setenv("LLM_RPS", "2.5")
	t.Setenv("VALIDATOR_URL", "http://validator:8080/validate")
	t.Setenv("SESSION_DISCARD_STALE_AI", "true")
	t.Setenv("SNAPSHOT_BACKEND", "sqlite")
	t.Setenv("SNAPSHOT_DSN", "file:snapshots.db")
	t.Setenv("SNAPSHOT_S3_ENDPOINT", "")
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://editor.example.com, ,http://localhost:3000")

	cfg, err := Load([]string{"-port", ":1"})
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Port)
	assert.Equal(t, "gemini", cfg.LLM.Provider)
	assert.Equal(t, 2.5, cfg.LLM.RPS)
	assert.Equal(t, "http://validator:8080/validate", cfg.Validation.RemoteURL)
	assert.True(t, cfg.Session.DiscardStaleAI)
	assert.Equal(t, "sqlite", cfg.Snapshot.Backend)
	assert.Empty(t, cfg.Snapshot.S3.Endpoint)
	assert.True(t, cfg.Snapshot.S3.UseSSL)
	assert.Equal(t, []string{"https://editor.example.com", "http://localhost:3000"}, cfg.AllowedOrigins)
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string][2]string{
		"provider":      {"LLM_PROVIDER", "claude"},
		"backend":       {"SNAPSHOT_BACKEND", "redis"},
		"validator url": {"VALIDATOR_URL", "not a url"},
		"depth":         {"SESSION_MAX_DEPTH", "0"},
		"log level":     {"LOG_LEVEL", "verbose"},
		"cors origin":   {"CORS_ALLOWED_ORIGINS", "not an origin"},
	}
	for name, kv := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv(kv[0], kv[1])
			_, err := Load(nil)
			assert.Error(t, err)
		})
	}
}

func TestValidate_SQLNeedsDSN(t *testing.T) {
	t.Setenv("SNAPSHOT_BACKEND", "postgres")
	t.Setenv("SNAPSHOT_DSN", "")
	_, err := Load(nil)
	assert.Error(t, err)
}

func TestValidate_S3NeedsCredentials(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("SNAPSHOT_BACKEND", "s3")
	t.Setenv("SNAPSHOT_S3_ENDPOINT", "s3.example.com")
	t.Setenv("SNAPSHOT_S3_ACCESS_KEY", "")
	t.Setenv("SNAPSHOT_S3_SECRET_KEY", "")
	t.Setenv("MINIO_ROOT_USER", "")
	t.Setenv("MINIO_ROOT_PASSWORD", "")
	_, err := Load(nil)
	assert.Error(t, err)

	t.Setenv("SNAPSHOT_S3_ACCESS_KEY", "key")
	t.Setenv("SNAPSHOT_S3_SECRET_KEY", "secret")
	cfg, err := Load(nil)
	require.NoError(t, err)
	assert.True(t, cfg.Snapshot.S3.CanUseS3())
}

func TestFirstNonEmpty(t *testing.T) {
	assert.Equal(t, "b", firstNonEmpty("", "  ", "b", "c"))
	assert.Equal(t, "", firstNonEmpty())
}
