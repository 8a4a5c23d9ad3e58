package cache

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/goliatone/go-collection-cache/internal/cacheinfra"
	"github.com/vmihailenco/msgpack/v5"
)

// ErrInvalidTTL is returned when an entry is stored without a positive TTL.
var ErrInvalidTTL = errors.New("cache: ttl must be positive")

// Entry is a stored HTTP response.
type Entry struct {
	Status    int         `msgpack:"status"`
	Header    http.Header `msgpack:"header"`
	Body      []byte      `msgpack:"body"`
	StoredAt  time.Time   `msgpack:"stored_at"`
	ExpiresAt time.Time   `msgpack:"expires_at"`
}

// Expired reports whether the entry is no longer servable at now.
func (e Entry) Expired(now time.Time) bool {
	return !e.ExpiresAt.IsZero() && !now.Before(e.ExpiresAt)
}

// Store is the key-value contract of the response cache. Expired entries
// are reported as misses.
type Store interface {
	Get(ctx context.Context, key string) (Entry, bool, error)
	Set(ctx context.Context, key string, entry Entry, ttl time.Duration) error
}

// StoreOption configures the store returned by NewStore.
type StoreOption func(*entryStore)

// WithClock overrides the time source used for expiry.
func WithClock(now func() time.Time) StoreOption {
	return func(s *entryStore) {
		if now != nil {
			s.now = now
		}
	}
}

type entryStore struct {
	blobs *cacheinfra.BlobStore
	now   func() time.Time
}

// NewStore creates an in-process Store backed by sturdyc. Entries are
// msgpack encoded so every hit is an independent copy. cfg.TTL caps the
// lifetime of every entry regardless of the TTL passed to Set.
func NewStore(cfg Config, opts ...StoreOption) (Store, error) {
	blobs, err := cacheinfra.NewBlobStore(cfg)
	if err != nil {
		return nil, err
	}

	s := &entryStore{blobs: blobs, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *entryStore) Get(_ context.Context, key string) (Entry, bool, error) {
	raw, ok := s.blobs.Get(key)
	if !ok {
		return Entry{}, false, nil
	}

	var e Entry
	if err := msgpack.Unmarshal(raw, &e); err != nil {
		return Entry{}, false, fmt.Errorf("cache: decode %s: %w", key, err)
	}
	if e.Expired(s.now()) {
		s.blobs.Delete(key)
		return Entry{}, false, nil
	}
	return e, true, nil
}

func (s *entryStore) Set(_ context.Context, key string, entry Entry, ttl time.Duration) error {
	if ttl <= 0 {
		return ErrInvalidTTL
	}

	now := s.now()
	entry.StoredAt = now
	entry.ExpiresAt = now.Add(ttl)

	raw, err := msgpack.Marshal(&entry)
	if err != nil {
		return fmt.Errorf("cache: encode %s: %w", key, err)
	}
	s.blobs.Set(key, raw)
	return nil
}
