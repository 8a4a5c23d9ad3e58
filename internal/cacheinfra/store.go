package cacheinfra

import "github.com/viccon/sturdyc"

// BlobStore keeps opaque encoded values in a sturdyc client. Values are
// copied on the way in and out so callers never share buffers.
type BlobStore struct {
	client *sturdyc.Client[[]byte]
}

// NewBlobStore validates cfg and creates the client. Early refreshes and
// missing record storage only apply to read-through fetches and are ignored.
func NewBlobStore(cfg Config) (*BlobStore, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var options []sturdyc.Option
	if cfg.EvictionInterval > 0 {
		options = append(options, sturdyc.WithEvictionInterval(cfg.EvictionInterval))
	}

	client := sturdyc.New[[]byte](
		cfg.Capacity,
		cfg.NumShards,
		cfg.TTL,
		cfg.EvictionPercentage,
		options...,
	)
	return &BlobStore{client: client}, nil
}

func (s *BlobStore) Get(key string) ([]byte, bool) {
	v, ok := s.client.Get(key)
	if !ok {
		return nil, false
	}
	return append([]byte(nil), v...), true
}

func (s *BlobStore) Set(key string, value []byte) {
	s.client.Set(key, append([]byte(nil), value...))
}

func (s *BlobStore) Delete(key string) {
	s.client.Delete(key)
}

// Len reports the number of stored keys.
func (s *BlobStore) Len() int {
	return len(s.client.ScanKeys())
}
