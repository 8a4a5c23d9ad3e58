package cache

import (
	"context"
	"errors"
	"fmt"
)

// ErrInvalidResultType is returned by GetOrFetch when the cached value does
// not have the requested type.
var ErrInvalidResultType = errors.New("cache: invalid result type")

// KeySerializer builds a cache key from a method name and arguments. Keys
// must be stable across calls with equal arguments.
type KeySerializer interface {
	SerializeKey(method string, args ...any) string
}

// FetchFn loads a value from the source of truth.
type FetchFn[T any] func(ctx context.Context) (T, error)

// CacheService is a read-through cache with explicit invalidation.
type CacheService interface {
	GetOrFetch(ctx context.Context, key string, fetch func(ctx context.Context) (any, error)) (any, error)
	Delete(ctx context.Context, key string) error
	DeleteByPrefix(ctx context.Context, prefix string) error
}

// GetOrFetch is the typed form of CacheService.GetOrFetch.
func GetOrFetch[T any](ctx context.Context, service CacheService, key string, fetchFn FetchFn[T]) (T, error) {
	var zero T

	result, err := service.GetOrFetch(ctx, key, func(ctx context.Context) (any, error) {
		return fetchFn(ctx)
	})
	if err != nil {
		return zero, err
	}
	if result == nil {
		return zero, nil
	}

	typed, ok := result.(T)
	if !ok {
		return zero, fmt.Errorf("%w: key %s holds %T", ErrInvalidResultType, key, result)
	}
	return typed, nil
}
