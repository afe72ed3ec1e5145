package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "9090", cfg.Server.HealthPort)
	assert.Equal(t, "filesystem", cfg.Storage.Type)
	assert.Equal(t, "sqlite3", cfg.Database.Driver)
	assert.Empty(t, cfg.Redis.Addr)
	assert.Equal(t, 0.5, cfg.Engine.OverlapThreshold)
	assert.Equal(t, 0.10, cfg.Engine.ConfidenceBoost)
	assert.Equal(t, 2, cfg.Engine.MaxVerifyRetries)
	assert.Equal(t, time.Hour, cfg.Jobs.TTL)
	assert.True(t, cfg.Auth.RateLimitEnabled)
	assert.Empty(t, cfg.Auth.Keys)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("VEIL_PORT", "9999")
	t.Setenv("VEIL_DB_DRIVER", "postgres")
	t.Setenv("VEIL_DB_DSN", "postgres://localhost/veil?sslmode=disable")
	t.Setenv("VEIL_REDIS_ADDR", "localhost:6379")
	t.Setenv("VEIL_OVERLAP_THRESHOLD", "0.7")
	t.Setenv("VEIL_JOB_TTL", "30m")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "9999", cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, 0.7, cfg.Engine.OverlapThreshold)
	assert.Equal(t, 30*time.Minute, cfg.Jobs.TTL)
}

func TestLoadConfig_APIKeys(t *testing.T) {
	t.Setenv("VEIL_API_KEYS", "prod:abc123, staging:def456,malformed,")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	require.Len(t, cfg.Auth.Keys, 2)
	assert.Equal(t, APIKey{ID: "prod", Secret: "abc123"}, cfg.Auth.Keys[0])
	assert.Equal(t, APIKey{ID: "staging", Secret: "def456"}, cfg.Auth.Keys[1])
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "veil.yaml")
	content := `
server:
  port: "7070"
database:
  driver: postgres
  dsn: postgres://db/veil
sidecars:
  ner_url: http://ner:9000
engine:
  pattern_dir: /etc/veil/patterns
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadConfigFile(path)
	require.NoError(t, err)

	assert.Equal(t, "7070", cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "http://ner:9000", cfg.Sidecars.NERURL)
	assert.Equal(t, "/etc/veil/patterns", cfg.Engine.PatternDir)
	// Untouched fields keep environment defaults
	assert.Equal(t, "9090", cfg.Server.HealthPort)
}

func TestLoadConfigFile_EnvWins(t *testing.T) {
	t.Setenv("VEIL_PORT", "6060")

	dir := t.TempDir()
	path := filepath.Join(dir, "veil.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: \"7070\"\n"), 0o644))

	cfg, err := LoadConfigFile(path)
	require.NoError(t, err)
	assert.Equal(t, "6060", cfg.Server.Port)
}

func TestLoadConfigFile_Missing(t *testing.T) {
	_, err := LoadConfigFile("/nonexistent/veil.yaml")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg, err := LoadConfig()
		require.NoError(t, err)
		return cfg
	}

	t.Run("same ports rejected", func(t *testing.T) {
		cfg := valid()
		cfg.Server.HealthPort = cfg.Server.Port
		assert.Error(t, cfg.Validate())
	})

	t.Run("unknown storage type rejected", func(t *testing.T) {
		cfg := valid()
		cfg.Storage.Type = "tape"
		assert.Error(t, cfg.Validate())
	})

	t.Run("s3 requires bucket", func(t *testing.T) {
		cfg := valid()
		cfg.Storage.Type = "s3"
		cfg.Storage.S3Bucket = ""
		assert.Error(t, cfg.Validate())

		cfg.Storage.S3Bucket = "veil-artifacts"
		assert.NoError(t, cfg.Validate())
	})

	t.Run("unknown db driver rejected", func(t *testing.T) {
		cfg := valid()
		cfg.Database.Driver = "oracle"
		assert.Error(t, cfg.Validate())
	})

	t.Run("overlap threshold bounds", func(t *testing.T) {
		cfg := valid()
		cfg.Engine.OverlapThreshold = 0
		assert.Error(t, cfg.Validate())
		cfg.Engine.OverlapThreshold = 1.5
		assert.Error(t, cfg.Validate())
		cfg.Engine.OverlapThreshold = 1.0
		assert.NoError(t, cfg.Validate())
	})

	t.Run("partial oauth rejected", func(t *testing.T) {
		cfg := valid()
		cfg.Sidecars.OAuthClientID = "veil"
		assert.Error(t, cfg.Validate())

		cfg.Sidecars.OAuthClientSecret = "secret"
		cfg.Sidecars.OAuthTokenURL = "https://auth/token"
		assert.NoError(t, cfg.Validate())
	})

	t.Run("otel enabled requires endpoint", func(t *testing.T) {
		cfg := valid()
		cfg.Observability.OTelEnabled = true
		cfg.Observability.OTelEndpoint = ""
		assert.Error(t, cfg.Validate())
	})
}

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("VEIL_TEST_BOOL", "1")
	assert.True(t, getEnvBool("VEIL_TEST_BOOL", false))

	t.Setenv("VEIL_TEST_INT", "not-a-number")
	assert.Equal(t, 7, getEnvInt("VEIL_TEST_INT", 7))

	t.Setenv("VEIL_TEST_FLOAT", "0.25")
	assert.Equal(t, 0.25, getEnvFloat("VEIL_TEST_FLOAT", 0.5))

	t.Setenv("VEIL_TEST_DURATION", "90s")
	assert.Equal(t, 90*time.Second, getEnvDuration("VEIL_TEST_DURATION", time.Minute))
}
