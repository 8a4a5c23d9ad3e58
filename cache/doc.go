// Package cache provides the response entry store used by the HTTP cache
// middleware, a read-through CacheService for repository lookups, and the
// key builders both rely on.
//
// # Entry store
//
// Store keeps HTTP responses keyed by request fingerprint:
//
//	store, err := cache.NewStore(cache.DefaultConfig())
//	key := cache.RequestKey("GET", "/api/objects/article?page=2")
//	err = store.Set(ctx, key, cache.Entry{Status: 200, Body: body}, time.Hour)
//	entry, ok, err := store.Get(ctx, key)
//
// Entries carry their own expiry; an expired entry is reported as a miss.
//
// # Read-through service
//
// CacheService caches the result of a fetch function under a key:
//
//	serializer := cache.NewDefaultKeySerializer()
//	key := serializer.SerializeKey("joins", objType, objID, group)
//	joins, err := cache.GetOrFetch(ctx, service, key, func(ctx context.Context) ([]Join, error) {
//		return store.List(ctx, objType, objID, group)
//	})
//
// GetOrFetch returns ErrInvalidResultType when the cached value has another
// type than requested. Fetch errors are never cached.
//
// # Key serialization
//
// The default serializer joins the method and arguments with KeySeparator.
// Strings, numbers and fmt.Stringer values (uuid.UUID included) are written
// verbatim, slices and maps recursively with map pairs sorted. Other values
// are hashed from their msgpack encoding. Function arguments are rendered by
// pointer and are only stable within a process.
package cache
