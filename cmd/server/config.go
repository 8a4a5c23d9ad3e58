package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/goliatone/go-collection-cache/httpcache"
	"github.com/joho/godotenv"
)

// Config is the server configuration read from the environment.
type Config struct {
	Addr          string
	Driver        string
	DatabaseURL   string
	LogLevel      slog.Level
	SessionSecret []byte
	AdminID       string
	AdminName     string
	HTTPCache     httpcache.Config
	Seed          bool
}

// LoadConfig reads .env when present, then the process environment.
func LoadConfig(logger *slog.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Debug("no .env file found, using process environment")
	}

	cfg := &Config{
		Addr:        ":" + getEnvWithDefault("PORT", "8080"),
		Driver:      getEnvWithDefault("DB_DRIVER", "sqlite3"),
		DatabaseURL: getEnvWithDefault("DATABASE_URL", "file:cms.db?cache=shared"),
		AdminID:     getEnvWithDefault("ADMIN_ID", "admin"),
		AdminName:   getEnvWithDefault("ADMIN_NAME", "Administrator"),
		Seed:        getEnvWithDefault("SEED", "false") == "true",
	}

	switch cfg.Driver {
	case "sqlite3", "postgres":
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.Driver)
	}

	if err := cfg.LogLevel.UnmarshalText([]byte(getEnvWithDefault("LOG_LEVEL", "INFO"))); err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	secret := os.Getenv("SESSION_SECRET")
	if len(secret) < 32 {
		return nil, fmt.Errorf("SESSION_SECRET must be at least 32 characters long")
	}
	cfg.SessionSecret = []byte(secret)

	cfg.HTTPCache = httpcache.DefaultConfig()
	if path := strings.TrimSpace(os.Getenv("HTTPCACHE_CONFIG")); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read HTTPCACHE_CONFIG: %w", err)
		}
		if cfg.HTTPCache, err = httpcache.ParseConfig(data); err != nil {
			return nil, fmt.Errorf("parse HTTPCACHE_CONFIG: %w", err)
		}
	}

	return cfg, nil
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
