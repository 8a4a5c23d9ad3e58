package join

import (
	"context"
	"log/slog"

	"github.com/goliatone/go-collection-cache/cache"
)

// Interface assertion to ensure CachedStore implements Store
var _ Store = (*CachedStore)(nil)

// CachedStore decorates a Store with read-through caching of List. Writes
// pass through and drop the cached set they touch.
type CachedStore struct {
	base          Store
	cache         cache.CacheService
	keySerializer cache.KeySerializer
	logger        *slog.Logger
}

// NewCachedStore wraps base. A nil logger uses slog.Default.
func NewCachedStore(base Store, cacheService cache.CacheService, keySerializer cache.KeySerializer, logger *slog.Logger) *CachedStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedStore{
		base:          base,
		cache:         cacheService,
		keySerializer: keySerializer,
		logger:        logger,
	}
}

func (c *CachedStore) EnsureTable(ctx context.Context) error {
	return c.base.EnsureTable(ctx)
}

// List returns copies of the cached joins so callers never share records.
func (c *CachedStore) List(ctx context.Context, key Key) ([]*Join, error) {
	joins, err := cache.GetOrFetch(ctx, c.cache, c.cacheKey(key), func(ctx context.Context) ([]Join, error) {
		records, err := c.base.List(ctx, key)
		if err != nil {
			return nil, err
		}
		out := make([]Join, len(records))
		for i, j := range records {
			out[i] = *j
		}
		return out, nil
	})
	if err != nil {
		return nil, err
	}

	out := make([]*Join, len(joins))
	for i := range joins {
		j := joins[i]
		out[i] = &j
	}
	return out, nil
}

func (c *CachedStore) Delete(ctx context.Context, j *Join) error {
	if err := c.base.Delete(ctx, j); err != nil {
		return err
	}
	c.invalidate(ctx, KeyOf(j))
	return nil
}

func (c *CachedStore) Create(ctx context.Context, j *Join) (*Join, error) {
	created, err := c.base.Create(ctx, j)
	if err != nil {
		return nil, err
	}
	c.invalidate(ctx, KeyOf(j))
	return created, nil
}

func (c *CachedStore) cacheKey(key Key) string {
	return c.keySerializer.SerializeKey("joins", key.ObjectType, key.ObjectID, key.Group)
}

func (c *CachedStore) invalidate(ctx context.Context, key Key) {
	if err := c.cache.Delete(ctx, c.cacheKey(key)); err != nil {
		c.logger.Warn("join cache invalidation failed", "object_type", key.ObjectType, "object_id", key.ObjectID, "group", key.Group, "error", err)
	}
}
