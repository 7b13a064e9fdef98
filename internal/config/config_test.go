package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setEnvs(t *testing.T, vars map[string]string) {
	t.Helper()
	for k, v := range vars {
		t.Setenv(k, v)
	}
}

func TestLoad_DefaultValues(t *testing.T) {
	t.Setenv("APPROVED_BEARER_TOKEN_0", "test-token")

	cfg, err := Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "8080", cfg.APIPort)
	assert.Equal(t, "disk", cfg.ArtifactBackend)
	assert.Contains(t, cfg.ArtifactBaseDir, "artifacts")
	assert.Contains(t, cfg.PostgresURL, "localhost:5432")
	assert.Contains(t, cfg.RedisURL, "localhost:6379")
	assert.Contains(t, cfg.NATSURL, "localhost:4222")
	assert.Equal(t, "http://localhost:9002", cfg.S3Endpoint)
	assert.Equal(t, "minioadmin", cfg.S3AccessKey)
	assert.Equal(t, "minioadmin", cfg.S3SecretKey)
	assert.Equal(t, "dhscanner-artifacts", cfg.S3Bucket)
	assert.False(t, cfg.S3UseSSL)
	assert.Equal(t, "", cfg.AnthropicAPIKey)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.WorkerMode)

	require.Len(t, cfg.ApprovedURLs, 1)
	assert.Equal(t, "scan", cfg.ApprovedURLs[0].Slug)
	assert.Equal(t, "test-token", cfg.ApprovedURLs[0].Token)
}

func TestLoad_CustomEnvVars(t *testing.T) {
	setEnvs(t, map[string]string{
		"API_PORT":           "9090",
		"ARTIFACT_BACKEND":   "s3",
		"ARTIFACT_BASE_DIR":  "/var/dhscanner/artifacts",
		"POSTGRES_URL":       "postgres://custom:custom@db:5432/app",
		"REDIS_URL":          "redis://redis:6379/1",
		"NATS_URL":           "nats://nats:4222",
		"S3_ENDPOINT":        "https://s3.amazonaws.com",
		"S3_ACCESS_KEY":      "AKIA123",
		"S3_SECRET_KEY":      "secret123",
		"S3_BUCKET":          "prod-artifacts",
		"S3_USE_SSL":         "true",
		"BLEVE_INDEX_DIR":    "/var/dhscanner/search.bleve",
		"ANTHROPIC_API_KEY":  "sk-ant-abc",
		"ENVIRONMENT":        "production",
		"LOG_LEVEL":          "debug",
		"APPROVED_BEARER_TOKEN_0": "token-zero",
	})

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.APIPort)
	assert.Equal(t, "s3", cfg.ArtifactBackend)
	assert.Equal(t, "/var/dhscanner/artifacts", cfg.ArtifactBaseDir)
	assert.Equal(t, "postgres://custom:custom@db:5432/app", cfg.PostgresURL)
	assert.Equal(t, "redis://redis:6379/1", cfg.RedisURL)
	assert.Equal(t, "nats://nats:4222", cfg.NATSURL)
	assert.Equal(t, "https://s3.amazonaws.com", cfg.S3Endpoint)
	assert.Equal(t, "AKIA123", cfg.S3AccessKey)
	assert.Equal(t, "secret123", cfg.S3SecretKey)
	assert.Equal(t, "prod-artifacts", cfg.S3Bucket)
	assert.True(t, cfg.S3UseSSL)
	assert.Equal(t, "/var/dhscanner/search.bleve", cfg.BleveIndexDir)
	assert.Equal(t, "sk-ant-abc", cfg.AnthropicAPIKey)
	assert.Equal(t, "production", cfg.Environment)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoad_MultipleApprovedURLs(t *testing.T) {
	setEnvs(t, map[string]string{
		"NUM_APPROVED_URLS":       "2",
		"APPROVED_URL_0":          "acme-scan",
		"APPROVED_BEARER_TOKEN_0": "token-acme",
		"APPROVED_URL_1":          "beta-scan",
		"APPROVED_BEARER_TOKEN_1": "token-beta",
	})

	cfg, err := Load()
	require.NoError(t, err)

	require.Len(t, cfg.ApprovedURLs, 2)
	assert.Equal(t, ApprovedURL{Slug: "acme-scan", Token: "token-acme"}, cfg.ApprovedURLs[0])
	assert.Equal(t, ApprovedURL{Slug: "beta-scan", Token: "token-beta"}, cfg.ApprovedURLs[1])
}

func TestLoad_MissingBearerTokenZero(t *testing.T) {
	os.Unsetenv("APPROVED_BEARER_TOKEN_0")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "APPROVED_BEARER_TOKEN_0")
}

func TestLoad_MissingTokenForAdditionalSlug(t *testing.T) {
	setEnvs(t, map[string]string{
		"NUM_APPROVED_URLS":       "2",
		"APPROVED_BEARER_TOKEN_0": "token-zero",
		"APPROVED_URL_1":          "second-scan",
	})
	os.Unsetenv("APPROVED_BEARER_TOKEN_1")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "APPROVED_BEARER_TOKEN_1")
}

func TestLoad_Validate_MissingPostgresURL(t *testing.T) {
	cfg := &Config{
		ArtifactBackend: "disk",
		PostgresURL:     "",
		RedisURL:        "redis://localhost:6379",
		NATSURL:         "nats://localhost:4222",
	}
	err := cfg.validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "POSTGRES_URL is required")
}

func TestLoad_Validate_MissingRedisURL(t *testing.T) {
	cfg := &Config{
		ArtifactBackend: "disk",
		PostgresURL:     "postgres://localhost:5432/db",
		RedisURL:        "",
		NATSURL:         "nats://localhost:4222",
	}
	err := cfg.validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "REDIS_URL is required")
}

func TestLoad_Validate_MissingNATSURL(t *testing.T) {
	cfg := &Config{
		ArtifactBackend: "disk",
		PostgresURL:     "postgres://localhost:5432/db",
		RedisURL:        "redis://localhost:6379",
		NATSURL:         "",
	}
	err := cfg.validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NATS_URL is required")
}

func TestLoad_Validate_InvalidArtifactBackend(t *testing.T) {
	cfg := &Config{
		ArtifactBackend: "ftp",
		PostgresURL:     "postgres://localhost:5432/db",
		RedisURL:        "redis://localhost:6379",
		NATSURL:         "nats://localhost:4222",
	}
	err := cfg.validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ARTIFACT_BACKEND")
}

func TestLoad_Validate_AllPresent(t *testing.T) {
	cfg := &Config{
		ArtifactBackend: "disk",
		PostgresURL:     "postgres://localhost:5432/db",
		RedisURL:        "redis://localhost:6379",
		NATSURL:         "nats://localhost:4222",
	}
	err := cfg.validate()
	require.NoError(t, err)
}

func TestIsDevelopment(t *testing.T) {
	tests := []struct {
		env  string
		want bool
	}{
		{"development", true},
		{"staging", false},
		{"production", false},
		{"", false},
		{"dev", false},
	}

	for _, tc := range tests {
		t.Run(tc.env, func(t *testing.T) {
			cfg := &Config{Environment: tc.env}
			assert.Equal(t, tc.want, cfg.IsDevelopment())
		})
	}
}

func TestGetEnv(t *testing.T) {
	t.Run("returns env value when set", func(t *testing.T) {
		t.Setenv("TEST_GET_ENV_KEY", "custom_value")
		assert.Equal(t, "custom_value", getEnv("TEST_GET_ENV_KEY", "fallback"))
	})

	t.Run("returns fallback when not set", func(t *testing.T) {
		os.Unsetenv("TEST_GET_ENV_KEY_MISSING")
		assert.Equal(t, "fallback", getEnv("TEST_GET_ENV_KEY_MISSING", "fallback"))
	})
}

func TestGetEnvInt(t *testing.T) {
	t.Run("returns parsed int when valid", func(t *testing.T) {
		t.Setenv("TEST_INT_KEY", "42")
		assert.Equal(t, 42, getEnvInt("TEST_INT_KEY", 99))
	})

	t.Run("returns fallback when not set", func(t *testing.T) {
		os.Unsetenv("TEST_INT_KEY_MISSING")
		assert.Equal(t, 99, getEnvInt("TEST_INT_KEY_MISSING", 99))
	})

	t.Run("returns fallback when invalid int", func(t *testing.T) {
		t.Setenv("TEST_INT_KEY_BAD", "not-a-number")
		assert.Equal(t, 99, getEnvInt("TEST_INT_KEY_BAD", 99))
	})
}

func TestGetEnvBool(t *testing.T) {
	t.Run("returns true when set to true", func(t *testing.T) {
		t.Setenv("TEST_BOOL_KEY", "true")
		assert.True(t, getEnvBool("TEST_BOOL_KEY", false))
	})

	t.Run("returns false when set to false", func(t *testing.T) {
		t.Setenv("TEST_BOOL_KEY", "false")
		assert.False(t, getEnvBool("TEST_BOOL_KEY", true))
	})

	t.Run("returns fallback when not set", func(t *testing.T) {
		os.Unsetenv("TEST_BOOL_KEY_MISSING")
		assert.True(t, getEnvBool("TEST_BOOL_KEY_MISSING", true))
	})

	t.Run("returns fallback when invalid bool", func(t *testing.T) {
		t.Setenv("TEST_BOOL_KEY_BAD", "maybe")
		assert.False(t, getEnvBool("TEST_BOOL_KEY_BAD", false))
	})
}
