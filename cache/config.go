package cache

import (
	"errors"

	"github.com/goliatone/go-collection-cache/internal/cacheinfra"
)

// Config holds the sturdyc settings of a cache service or entry store.
type Config = cacheinfra.Config

// EarlyRefreshConfig configures background refreshes of hot keys.
type EarlyRefreshConfig = cacheinfra.EarlyRefreshConfig

// ConfigError reports the first invalid Config field.
type ConfigError = cacheinfra.ConfigError

// DefaultConfig returns a Config populated with sensible defaults.
func DefaultConfig() Config {
	return cacheinfra.DefaultConfig()
}

// NewCacheService creates the sturdyc read-through service.
func NewCacheService(cfg Config) (CacheService, error) {
	service, err := cacheinfra.NewSturdycService(cfg)
	if err != nil {
		return nil, err
	}
	return service, nil
}

// IsConfigError reports whether err is a configuration validation error.
func IsConfigError(err error) bool {
	var cfgErr *ConfigError
	return errors.As(err, &cfgErr)
}
