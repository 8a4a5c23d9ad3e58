package di

import (
	"log/slog"
	"time"

	"github.com/goliatone/go-collection-cache/cache"
	"github.com/goliatone/go-collection-cache/httpcache"
	"github.com/goliatone/go-collection-cache/join"
	"github.com/goliatone/go-collection-cache/loader"
	"github.com/goliatone/go-collection-cache/model"
	"github.com/uptrace/bun"
)

// Config groups the settings of every component the container builds.
type Config struct {
	// Cache configures the read-through service backing cached join sets.
	Cache cache.Config

	// Responses configures the store of cached HTTP responses. Its TTL is
	// raised to the middleware TTL when lower.
	Responses cache.Config

	// HTTPCache configures the response cache middleware.
	HTTPCache httpcache.Config

	// TypeField is the row column selecting concrete model types. Empty
	// disables dynamic types.
	TypeField string
}

// DefaultConfig returns the settings used by NewContainerWithDefaults.
func DefaultConfig() Config {
	responses := cache.DefaultConfig()
	responses.EarlyRefresh = nil
	responses.MissingRecordStorage = false
	responses.TTL = httpcache.DefaultTTL * time.Second

	return Config{
		Cache:     cache.DefaultConfig(),
		Responses: responses,
		HTTPCache: httpcache.DefaultConfig(),
	}
}

// Option configures a Container.
type Option func(*Container)

// WithLogger sets the logger handed to every component.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Container) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Container provides dependency injection for the collection components.
// It owns singleton instances of the cache services, the model factory and
// the join resolver, and builds a fresh loader per call.
type Container struct {
	config Config
	logger *slog.Logger
	db     *bun.DB

	cacheService  cache.CacheService
	keySerializer cache.KeySerializer
	responses     cache.Store
	factory       *model.Factory
	joins         join.Store
	resolver      *join.Resolver
	middleware    *httpcache.Middleware
}

// NewContainer validates config and wires the components over db. Model
// types are registered on Factory after construction.
func NewContainer(config Config, db *bun.DB, opts ...Option) (*Container, error) {
	c := &Container{
		config: config,
		logger: slog.Default(),
		db:     db,
	}
	for _, opt := range opts {
		opt(c)
	}

	cacheService, err := cache.NewCacheService(config.Cache)
	if err != nil {
		return nil, err
	}
	c.cacheService = cacheService
	c.keySerializer = cache.NewDefaultKeySerializer()

	if ttl := time.Duration(config.HTTPCache.TTL) * time.Second; c.config.Responses.TTL < ttl {
		c.config.Responses.TTL = ttl
	}
	responses, err := cache.NewStore(c.config.Responses)
	if err != nil {
		return nil, err
	}
	c.responses = responses

	middleware, err := httpcache.New(responses, config.HTTPCache, httpcache.WithLogger(c.logger))
	if err != nil {
		return nil, err
	}
	c.middleware = middleware

	c.factory = model.NewFactory(model.DatabaseProvider(db))
	c.joins = join.NewCachedStore(join.NewBunStore(db), c.cacheService, c.keySerializer, c.logger)
	c.resolver = join.NewResolver(c.joins, c.NewLoader(), c.logger)

	return c, nil
}

// NewContainerWithDefaults creates a container using DefaultConfig.
func NewContainerWithDefaults(db *bun.DB, opts ...Option) (*Container, error) {
	return NewContainer(DefaultConfig(), db, opts...)
}

// CacheService returns the singleton read-through cache service.
func (c *Container) CacheService() cache.CacheService {
	return c.cacheService
}

// KeySerializer returns the singleton key serializer.
func (c *Container) KeySerializer() cache.KeySerializer {
	return c.keySerializer
}

// Config returns a copy of the effective configuration.
func (c *Container) Config() Config {
	return c.config
}

func (c *Container) DB() *bun.DB {
	return c.db
}

func (c *Container) Logger() *slog.Logger {
	return c.logger
}

// ResponseStore returns the store of cached HTTP responses.
func (c *Container) ResponseStore() cache.Store {
	return c.responses
}

// Factory returns the model registry.
func (c *Container) Factory() *model.Factory {
	return c.factory
}

// NewLoader returns a loader over the model registry. Loaders hold query
// state, so callers create one per request.
func (c *Container) NewLoader(opts ...loader.Option) *loader.Loader {
	base := []loader.Option{loader.WithLogger(c.logger)}
	if c.config.TypeField != "" {
		base = append(base, loader.WithDynamicTypeField(c.config.TypeField))
	}
	return loader.New(c.factory, append(base, opts...)...)
}

// JoinStore returns the cached join store.
func (c *Container) JoinStore() join.Store {
	return c.joins
}

func (c *Container) Resolver() *join.Resolver {
	return c.resolver
}

// Middleware returns the response cache middleware.
func (c *Container) Middleware() *httpcache.Middleware {
	return c.middleware
}
