package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allKeys = []string{
	"CHORELY_PORT", "CHORELY_DB_DRIVER", "CHORELY_DB_DSN", "CHORELY_LOG_LEVEL",
	"CHORELY_LOG_FORMAT", "CHORELY_TIMEZONE", "CHORELY_REDIS_ADDR", "CHORELY_REDIS_PASSWORD",
	"CHORELY_REDIS_DB", "CHORELY_CACHE_TTL", "CHORELY_REMINDER_INTERVAL", "CHORELY_REMINDER_HOUR",
	"CHORELY_ALLOWED_ORIGINS",
}

// clearEnv blanks every variable for the test; t.Setenv restores them after.
func clearEnv(t *testing.T) {
	for _, k := range allKeys {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoad(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		clearEnv(t)
		cfg, err := Load("")
		require.NoError(t, err)

		assert.Equal(t, "8080", cfg.Port)
		assert.Equal(t, "sqlite", cfg.Driver)
		assert.Equal(t, "chorely.db", cfg.DSN)
		assert.Equal(t, "info", cfg.LogLevel)
		assert.Equal(t, "text", cfg.LogFormat)
		assert.Equal(t, time.Local, cfg.Location)
		assert.False(t, cfg.CacheEnabled())
		assert.Equal(t, 30*time.Minute, cfg.CacheTTL)
		assert.Equal(t, time.Minute, cfg.ReminderInterval)
		assert.Equal(t, 8, cfg.ReminderHour)
		assert.Empty(t, cfg.AllowedOrigins)
	})

	t.Run("environment overrides", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("CHORELY_PORT", "9000")
		t.Setenv("CHORELY_DB_DRIVER", "Postgres")
		t.Setenv("CHORELY_DB_DSN", "postgres://localhost/chorely")
		t.Setenv("CHORELY_TIMEZONE", "UTC")
		t.Setenv("CHORELY_REDIS_ADDR", "localhost:6379")
		t.Setenv("CHORELY_REDIS_DB", "2")
		t.Setenv("CHORELY_CACHE_TTL", "5m")
		t.Setenv("CHORELY_REMINDER_HOUR", "19")
		t.Setenv("CHORELY_ALLOWED_ORIGINS", "kitchen.local, , tablet.local:8080")

		cfg, err := Load("")
		require.NoError(t, err)

		assert.Equal(t, "9000", cfg.Port)
		assert.Equal(t, "postgres", cfg.Driver)
		assert.Equal(t, "postgres://localhost/chorely", cfg.DSN)
		assert.Equal(t, time.UTC, cfg.Location)
		assert.True(t, cfg.CacheEnabled())
		assert.Equal(t, 2, cfg.RedisDB)
		assert.Equal(t, 5*time.Minute, cfg.CacheTTL)
		assert.Equal(t, 19, cfg.ReminderHour)
		assert.Equal(t, []string{"kitchen.local", "tablet.local:8080"}, cfg.AllowedOrigins)
	})

	t.Run("env file fills unset variables", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("CHORELY_PORT", "7000")
		path := filepath.Join(t.TempDir(), ".env")
		require.NoError(t, os.WriteFile(path, []byte("CHORELY_PORT=1111\nCHORELY_LOG_LEVEL=debug\n"), 0o600))

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "7000", cfg.Port)
		assert.Equal(t, "debug", cfg.LogLevel)
	})

	t.Run("missing env file is ignored", func(t *testing.T) {
		clearEnv(t)
		_, err := Load(filepath.Join(t.TempDir(), "nope.env"))
		assert.NoError(t, err)
	})
}

func TestLoadErrorsNameTheVariable(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"CHORELY_DB_DRIVER", "mysql"},
		{"CHORELY_TIMEZONE", "Mars/Olympus"},
		{"CHORELY_REDIS_DB", "two"},
		{"CHORELY_CACHE_TTL", "soon"},
		{"CHORELY_REMINDER_INTERVAL", "-1m"},
		{"CHORELY_REMINDER_HOUR", "24"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)
			_, err := Load("")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}
