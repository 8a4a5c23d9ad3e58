package cacheinfra

import (
	"context"
	"strings"

	"github.com/viccon/sturdyc"
)

// SturdycService is a read-through cache over a sturdyc client.
type SturdycService struct {
	client *sturdyc.Client[any]
}

// NewSturdycService validates cfg and creates the read-through client.
func NewSturdycService(cfg Config) (*SturdycService, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client := sturdyc.New[any](
		cfg.Capacity,
		cfg.NumShards,
		cfg.TTL,
		cfg.EvictionPercentage,
		cfg.ToSturdycOptions()...,
	)
	return &SturdycService{client: client}, nil
}

// GetOrFetch returns the cached value for key or stores the result of fetch.
// Fetch errors are returned and nothing is stored.
func (s *SturdycService) GetOrFetch(ctx context.Context, key string, fetch func(ctx context.Context) (any, error)) (any, error) {
	if fetch == nil {
		return nil, &ConfigError{Field: "fetch", Message: "cannot be nil"}
	}
	return s.client.GetOrFetch(ctx, key, sturdyc.FetchFn[any](fetch))
}

// Delete drops a single key.
func (s *SturdycService) Delete(_ context.Context, key string) error {
	s.client.Delete(key)
	return nil
}

// DeleteByPrefix drops every key starting with prefix.
func (s *SturdycService) DeleteByPrefix(_ context.Context, prefix string) error {
	for _, key := range s.client.ScanKeys() {
		if strings.HasPrefix(key, prefix) {
			s.client.Delete(key)
		}
	}
	return nil
}
