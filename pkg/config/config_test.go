package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoad_RedisConfig(t *testing.T) {
	// Setup environment variables
	os.Setenv("REDIS_HOST", "test-redis")
	os.Setenv("REDIS_PORT", "6380")
	defer func() {
		os.Unsetenv("REDIS_HOST")
		os.Unsetenv("REDIS_PORT")
	}()

	// Load config
	cfg, err := Load()
	assert.NoError(t, err)

	// Verify Redis config
	assert.Equal(t, "test-redis", cfg.Redis.Host)
	assert.Equal(t, 6380, cfg.Redis.Port)
	assert.Equal(t, "test-redis:6380", cfg.Redis.RedisAddr())
}

func TestLoad_Defaults(t *testing.T) {
	// Ensure env vars are cleared
	os.Unsetenv("REDIS_HOST")
	os.Unsetenv("REDIS_PORT")
	os.Unsetenv("SNAPSHOT_CACHE_TTL_SECONDS")
	os.Unsetenv("OTEL_ENABLED")

	cfg, err := Load()
	assert.NoError(t, err)

	// Verify defaults
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "localhost:6379", cfg.Redis.RedisAddr())
	assert.Equal(t, 15, cfg.Flow.SnapshotCacheTTLSeconds)
	assert.Equal(t, 30, cfg.Flow.SSEHeartbeatSeconds)
	assert.False(t, cfg.OTEL.Enabled)
}

func TestLoad_InvalidIntFallsBackToDefault(t *testing.T) {
	os.Setenv("SERVER_PORT", "not-a-number")
	defer os.Unsetenv("SERVER_PORT")

	cfg, err := Load()
	assert.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
}
