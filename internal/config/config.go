// Package config loads runtime settings from the environment, with an
// optional .env file for local development.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port      string
	Driver    string
	DSN       string
	LogLevel  string
	LogFormat string
	Location  *time.Location

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration

	ReminderInterval time.Duration
	ReminderHour     int

	// AllowedOrigins restricts websocket origins. Empty allows any.
	AllowedOrigins []string
}

// CacheEnabled reports whether a redis address was configured.
func (c *Config) CacheEnabled() bool {
	return c.RedisAddr != ""
}

// Load reads envFile if it exists, then the CHORELY_* environment variables.
// Variables already set in the environment win over the file.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	cfg := &Config{
		Port:          getEnv("CHORELY_PORT", "8080"),
		Driver:        strings.ToLower(getEnv("CHORELY_DB_DRIVER", "sqlite")),
		DSN:           getEnv("CHORELY_DB_DSN", "chorely.db"),
		LogLevel:      getEnv("CHORELY_LOG_LEVEL", "info"),
		LogFormat:     getEnv("CHORELY_LOG_FORMAT", "text"),
		RedisAddr:     os.Getenv("CHORELY_REDIS_ADDR"),
		RedisPassword: os.Getenv("CHORELY_REDIS_PASSWORD"),
	}

	switch cfg.Driver {
	case "sqlite", "postgres":
	default:
		return nil, fmt.Errorf("CHORELY_DB_DRIVER: unsupported driver %q", cfg.Driver)
	}

	tz := getEnv("CHORELY_TIMEZONE", "Local")
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("CHORELY_TIMEZONE: %w", err)
	}
	cfg.Location = loc

	if cfg.RedisDB, err = getInt("CHORELY_REDIS_DB", 0); err != nil {
		return nil, err
	}
	if cfg.CacheTTL, err = getDuration("CHORELY_CACHE_TTL", 30*time.Minute); err != nil {
		return nil, err
	}
	if cfg.ReminderInterval, err = getDuration("CHORELY_REMINDER_INTERVAL", time.Minute); err != nil {
		return nil, err
	}
	if cfg.ReminderHour, err = getInt("CHORELY_REMINDER_HOUR", 8); err != nil {
		return nil, err
	}
	if cfg.ReminderHour < 0 || cfg.ReminderHour > 23 {
		return nil, fmt.Errorf("CHORELY_REMINDER_HOUR: must be 0-23, got %d", cfg.ReminderHour)
	}

	for _, o := range strings.Split(os.Getenv("CHORELY_ALLOWED_ORIGINS"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, o)
		}
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid integer %q", key, v)
	}
	return n, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q", key, v)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s: must be positive", key)
	}
	return d, nil
}
