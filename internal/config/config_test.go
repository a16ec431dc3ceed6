package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	os.Clearenv()

	cfg := Load()

	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "http://localhost:4000/api/", cfg.APIBaseURL)
	assert.Equal(t, 15*time.Second, cfg.APITimeout)
	assert.Equal(t, "memory", cfg.StorageDriver)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, 0, cfg.RedisDB)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, 120, cfg.DefaultRetryAfter)
	assert.Equal(t, time.Second, cfg.CountdownInterval)
	assert.Equal(t, 2*time.Second, cfg.OTPRateInterval)
	assert.Equal(t, 3, cfg.OTPRateBurst)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("ENV", "production")
	t.Setenv("PORT", "9090")
	t.Setenv("API_BASE_URL", "https://api.example.com/v1/")
	t.Setenv("STORAGE_DRIVER", "redis")
	t.Setenv("REDIS_DB", "4")
	t.Setenv("DEFAULT_RETRY_AFTER", "60")
	t.Setenv("COUNTDOWN_INTERVAL", "500ms")

	cfg := Load()

	assert.Equal(t, "production", cfg.Env)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "https://api.example.com/v1/", cfg.APIBaseURL)
	assert.Equal(t, "redis", cfg.StorageDriver)
	assert.Equal(t, 4, cfg.RedisDB)
	assert.Equal(t, 60, cfg.DefaultRetryAfter)
	assert.Equal(t, 500*time.Millisecond, cfg.CountdownInterval)
}

func TestLoad_InvalidRetryAfter(t *testing.T) {
	t.Setenv("DEFAULT_RETRY_AFTER", "soon")
	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic due to invalid DEFAULT_RETRY_AFTER")
		}
	}()
	Load()
}

func TestLoad_InvalidTimeout(t *testing.T) {
	t.Setenv("API_TIMEOUT", "invalid-duration")
	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic due to invalid API_TIMEOUT")
		}
	}()
	Load()
}

func TestLoadDotEnv(t *testing.T) {
	os.Clearenv()
	path := filepath.Join(t.TempDir(), ".env")
	assert.NoError(t, os.WriteFile(path, []byte("PORT=7070\nSTORAGE_DRIVER=redis\n"), 0o600))
	t.Setenv("STORAGE_DRIVER", "memory")

	LoadDotEnv(path)
	cfg := Load()

	assert.Equal(t, "7070", cfg.Port)
	assert.Equal(t, "memory", cfg.StorageDriver)
}
