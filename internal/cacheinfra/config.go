package cacheinfra

import (
	"errors"
	"sort"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/viccon/sturdyc"
)

// Config holds the sturdyc settings shared by the read-through service and
// the response entry store.
type Config struct {
	// Capacity is the maximum number of entries. Must be greater than 0.
	Capacity int

	// NumShards splits the cache for concurrent access. Must be greater than 0.
	NumShards int

	// TTL is the upper bound on the lifetime of any entry. Must be greater than 0.
	TTL time.Duration

	// EvictionPercentage of entries dropped when the cache is full, 1-100.
	EvictionPercentage int

	// EarlyRefresh enables background refreshes of hot read-through keys.
	EarlyRefresh *EarlyRefreshConfig

	// MissingRecordStorage remembers keys whose fetch reported a missing record.
	MissingRecordStorage bool

	// EvictionInterval sets how often expired entries are swept. Zero keeps
	// the sturdyc default.
	EvictionInterval time.Duration
}

// EarlyRefreshConfig mirrors sturdyc.WithEarlyRefreshes.
type EarlyRefreshConfig struct {
	MinAsyncRefreshTime time.Duration
	MaxAsyncRefreshTime time.Duration
	SyncRefreshTime     time.Duration
	RetryBaseDelay      time.Duration
}

// DefaultConfig returns the settings used when callers do not provide any.
func DefaultConfig() Config {
	return Config{
		Capacity:           10000,
		NumShards:          256,
		TTL:                5 * time.Minute,
		EvictionPercentage: 10,
		EarlyRefresh: &EarlyRefreshConfig{
			MinAsyncRefreshTime: 10 * time.Second,
			MaxAsyncRefreshTime: 20 * time.Second,
			SyncRefreshTime:     30 * time.Second,
			RetryBaseDelay:      100 * time.Millisecond,
		},
		MissingRecordStorage: true,
	}
}

// ToSturdycOptions maps the optional settings to sturdyc options. Capacity,
// shards, TTL and eviction percentage are constructor arguments instead.
func (c Config) ToSturdycOptions() []sturdyc.Option {
	var options []sturdyc.Option

	if c.EarlyRefresh != nil {
		options = append(options, sturdyc.WithEarlyRefreshes(
			c.EarlyRefresh.MinAsyncRefreshTime,
			c.EarlyRefresh.MaxAsyncRefreshTime,
			c.EarlyRefresh.SyncRefreshTime,
			c.EarlyRefresh.RetryBaseDelay,
		))
	}
	if c.MissingRecordStorage {
		options = append(options, sturdyc.WithMissingRecordStorage())
	}
	if c.EvictionInterval > 0 {
		options = append(options, sturdyc.WithEvictionInterval(c.EvictionInterval))
	}

	return options
}

// Validate returns a *ConfigError naming the first invalid field.
func (c Config) Validate() error {
	err := validation.ValidateStruct(&c,
		validation.Field(&c.Capacity, validation.Required.Error("must be greater than 0"), validation.Min(1).Error("must be greater than 0")),
		validation.Field(&c.NumShards, validation.Required.Error("must be greater than 0"), validation.Min(1).Error("must be greater than 0")),
		validation.Field(&c.TTL, validation.Required.Error("must be greater than 0"), validation.Min(time.Nanosecond).Error("must be greater than 0")),
		validation.Field(&c.EvictionPercentage, validation.Required.Error("must be between 1 and 100"), validation.Min(1).Error("must be between 1 and 100"), validation.Max(100).Error("must be between 1 and 100")),
		validation.Field(&c.EvictionInterval, validation.Min(time.Duration(0)).Error("must be non-negative")),
	)
	if err != nil {
		return firstConfigError("", err)
	}

	if r := c.EarlyRefresh; r != nil {
		err := validation.ValidateStruct(r,
			validation.Field(&r.MinAsyncRefreshTime, validation.Min(time.Duration(0)).Error("must be non-negative")),
			validation.Field(&r.MaxAsyncRefreshTime, validation.Min(time.Duration(0)).Error("must be non-negative")),
			validation.Field(&r.SyncRefreshTime, validation.Min(time.Duration(0)).Error("must be non-negative")),
			validation.Field(&r.RetryBaseDelay, validation.Min(time.Duration(0)).Error("must be non-negative")),
		)
		if err != nil {
			return firstConfigError("EarlyRefresh.", err)
		}
	}

	return nil
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error in field " + e.Field + ": " + e.Message
}

func firstConfigError(prefix string, err error) error {
	var fields validation.Errors
	if !errors.As(err, &fields) || len(fields) == 0 {
		return &ConfigError{Field: prefix, Message: err.Error()}
	}

	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	name := names[0]
	return &ConfigError{Field: prefix + name, Message: fields[name].Error()}
}
