package httpcache

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/goliatone/go-collection-cache/cache"
	"github.com/goliatone/go-collection-cache/pkg/testsupport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryStore records every call so tests can inspect what was stored.
type memoryStore struct {
	mu      sync.Mutex
	entries map[string]cache.Entry
	ttls    map[string]time.Duration
	gets    int
	getErr  error
	setErr  error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		entries: make(map[string]cache.Entry),
		ttls:    make(map[string]time.Duration),
	}
}

func (s *memoryStore) Get(_ context.Context, key string) (cache.Entry, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gets++
	if s.getErr != nil {
		return cache.Entry{}, false, s.getErr
	}
	e, ok := s.entries[key]
	return e, ok, nil
}

func (s *memoryStore) Set(_ context.Context, key string, e cache.Entry, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.setErr != nil {
		return s.setErr
	}
	s.entries[key] = e
	s.ttls[key] = ttl
	return nil
}

func (s *memoryStore) keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.entries))
	for k := range s.entries {
		out = append(out, k)
	}
	return out
}

// countingHandler answers with a fixed status and body and counts calls.
type countingHandler struct {
	mu     sync.Mutex
	calls  int
	status int
	body   string
}

func (h *countingHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	h.calls++
	h.mu.Unlock()

	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(h.status)
	io.WriteString(w, h.body)
}

func (h *countingHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.calls
}

func newMiddleware(t *testing.T, store cache.Store, raw string) *Middleware {
	t.Helper()
	cfg, err := ParseConfig([]byte(raw))
	require.NoError(t, err)
	m, err := New(store, cfg)
	require.NoError(t, err)
	return m
}

func do(h http.Handler, method, uri string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, uri, nil))
	return rec
}

type scenario struct {
	Name   string          `json:"name"`
	URI    string          `json:"uri"`
	Config json.RawMessage `json:"config"`
	Cached bool            `json:"cached"`
	KeyURI string          `json:"key_uri"`
}

func TestMiddleware_Scenarios(t *testing.T) {
	var fixtures struct {
		Cases []scenario `json:"cases"`
	}
	testsupport.LoadFixtureJSON(t, testsupport.FixturePath("scenarios.json"), &fixtures)
	require.NotEmpty(t, fixtures.Cases)

	for _, tc := range fixtures.Cases {
		t.Run(tc.Name, func(t *testing.T) {
			store := newMemoryStore()
			next := &countingHandler{status: http.StatusOK, body: "Hello, World!"}
			h := newMiddleware(t, store, string(tc.Config)).Handler(next)

			rec := do(h, http.MethodGet, tc.URI)
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, "Hello, World!", rec.Body.String())

			if !tc.Cached {
				assert.Empty(t, store.keys())
				return
			}
			assert.Equal(t, []string{cache.RequestKey(http.MethodGet, tc.KeyURI)}, store.keys())
		})
	}
}

func TestMiddleware_HitServesStoredResponse(t *testing.T) {
	store := newMemoryStore()
	next := &countingHandler{status: http.StatusOK, body: "fresh"}
	h := newMiddleware(t, store, "").Handler(next)

	first := do(h, http.MethodGet, "/articles")
	second := do(h, http.MethodGet, "/articles")

	assert.Equal(t, 1, next.count())
	assert.Equal(t, first.Code, second.Code)
	assert.Equal(t, "fresh", second.Body.String())
	assert.Equal(t, "text/plain", second.Header().Get("Content-Type"))
}

func TestMiddleware_KeyDeterminism(t *testing.T) {
	m := newMiddleware(t, newMemoryStore(), `{"included_query": "*"}`)

	key := func(uri string) string {
		k, reason := m.Key(httptest.NewRequest(http.MethodGet, uri, nil))
		require.Empty(t, reason, uri)
		return k
	}

	assert.Equal(t, key("/foo?a=1&b=2"), key("/foo?a=1&b=2"))
	assert.Equal(t, key("/foo?a=1&b=2"), key("/foo?b=2&a=1"))
	assert.NotEqual(t, key("/foo?a=1&b=2"), key("/foo?a=1&b=3"))
	assert.NotEqual(t, key("/foo"), key("/bar"))
}

func TestMiddleware_IgnoredQueryIsInvisible(t *testing.T) {
	m := newMiddleware(t, newMemoryStore(), `{"ignored_query": ["abc"], "included_query": "^def=", "excluded_query": "abc"}`)

	withIgnored, reason := m.Key(httptest.NewRequest(http.MethodGet, "/foo?abc=1&def=2", nil))
	require.Empty(t, reason)
	without, reason := m.Key(httptest.NewRequest(http.MethodGet, "/foo?def=2", nil))
	require.Empty(t, reason)

	assert.Equal(t, without, withIgnored)
	assert.Equal(t, cache.RequestKey(http.MethodGet, "/foo?def=2"), withIgnored)
}

func TestMiddleware_QueryPatternsSeeRawQuery(t *testing.T) {
	m := newMiddleware(t, newMemoryStore(), `{"ignored_query": "utm", "included_query": "^def=", "excluded_query": "^abc="}`)

	key, reason := m.Key(httptest.NewRequest(http.MethodGet, "/foo?utm=x&def=2&abc=1", nil))
	require.Empty(t, reason)
	assert.Equal(t, cache.RequestKey(http.MethodGet, "/foo?abc=1&def=2"), key)

	_, reason = m.Key(httptest.NewRequest(http.MethodGet, "/foo?abc=1&def=2", nil))
	assert.Equal(t, "query not included", reason)

	m = newMiddleware(t, newMemoryStore(), `{"included_query": "filter\\[status\\]=published"}`)
	key, reason = m.Key(httptest.NewRequest(http.MethodGet, "/foo?filter[status]=published&page=2", nil))
	require.Empty(t, reason)
	assert.Equal(t, cache.RequestKey(http.MethodGet, "/foo?filter%5Bstatus%5D=published&page=2"), key)
}

func TestMiddleware_ExclusionWins(t *testing.T) {
	store := newMemoryStore()
	next := &countingHandler{status: http.StatusOK, body: "ok"}
	h := newMiddleware(t, store, `{"included_path": "^/api", "excluded_path": "^/api/objects"}`).Handler(next)

	do(h, http.MethodGet, "/api/objects/article")
	do(h, http.MethodGet, "/api/objects/article")

	assert.Equal(t, 2, next.count())
	assert.Empty(t, store.keys())
	assert.Zero(t, store.gets)
}

func TestMiddleware_StatusGating(t *testing.T) {
	store := newMemoryStore()
	next := &countingHandler{status: http.StatusNotFound, body: "missing"}
	h := newMiddleware(t, store, "").Handler(next)

	rec := do(h, http.MethodGet, "/missing")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "missing", rec.Body.String())

	_, ok, err := store.Get(context.Background(), cache.RequestKey(http.MethodGet, "/missing"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMiddleware_MethodGating(t *testing.T) {
	store := newMemoryStore()
	next := &countingHandler{status: http.StatusOK, body: "created"}
	h := newMiddleware(t, store, "").Handler(next)

	do(h, http.MethodPost, "/articles")
	do(h, http.MethodHead, "/articles")

	assert.Equal(t, []string{cache.RequestKey(http.MethodHead, "/articles")}, store.keys())
}

func TestMiddleware_StoresWithConfiguredTTL(t *testing.T) {
	store := newMemoryStore()
	h := newMiddleware(t, store, `{"ttl": 90}`).Handler(&countingHandler{status: http.StatusOK})

	do(h, http.MethodGet, "/ttl")
	assert.Equal(t, 90*time.Second, store.ttls[cache.RequestKey(http.MethodGet, "/ttl")])
}

func TestMiddleware_ExpiredEntryIsMiss(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	store, err := cache.NewStore(cache.Config{Capacity: 100, NumShards: 2, TTL: time.Hour, EvictionPercentage: 10}, cache.WithClock(clock))
	require.NoError(t, err)

	next := &countingHandler{status: http.StatusOK, body: "v"}
	h := newMiddleware(t, store, `{"ttl": 60}`).Handler(next)

	do(h, http.MethodGet, "/expiring")
	now = now.Add(59 * time.Second)
	do(h, http.MethodGet, "/expiring")
	assert.Equal(t, 1, next.count())

	now = now.Add(time.Second)
	do(h, http.MethodGet, "/expiring")
	assert.Equal(t, 2, next.count())
}

func TestMiddleware_BackendFailuresPassThrough(t *testing.T) {
	store := newMemoryStore()
	store.getErr = errors.New("read timeout")
	store.setErr = errors.New("write timeout")

	next := &countingHandler{status: http.StatusOK, body: "still served"}
	h := newMiddleware(t, store, "").Handler(next)

	for i := 0; i < 2; i++ {
		rec := do(h, http.MethodGet, "/flaky")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "still served", rec.Body.String())
	}
	assert.Equal(t, 2, next.count())
}

func TestMiddleware_ImplicitStatus(t *testing.T) {
	store := newMemoryStore()
	h := newMiddleware(t, store, "").Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Implicit", "yes")
		io.WriteString(w, "body")
	}))

	do(h, http.MethodGet, "/implicit")

	e, ok, err := store.Get(context.Background(), cache.RequestKey(http.MethodGet, "/implicit"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, http.StatusOK, e.Status)
	assert.Equal(t, "yes", e.Header.Get("X-Implicit"))
	assert.Equal(t, []byte("body"), e.Body)
}

func TestNew_Errors(t *testing.T) {
	_, err := New(nil, DefaultConfig())
	assert.ErrorIs(t, err, ErrNoStore)

	cfg := DefaultConfig()
	cfg.TTL = 0
	_, err = New(newMemoryStore(), cfg)
	assert.Error(t, err)
}

func TestParseConfig(t *testing.T) {
	cfg, err := ParseConfig(nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)

	cfg, err = ParseConfig([]byte(`{"methods": "GET", "status_codes": [200, 203], "ignored_query": "*"}`))
	require.NoError(t, err)
	assert.Equal(t, StringList{"GET"}, cfg.Methods)
	assert.Equal(t, IntList{200, 203}, cfg.StatusCodes)
	assert.Equal(t, StringList{"*"}, cfg.IgnoredQuery)
	assert.Equal(t, DefaultTTL, cfg.TTL)

	invalid := []string{
		`{"ttl": 0}`,
		`{"ttl": -5}`,
		`{"methods": "FETCH"}`,
		`{"status_codes": 99}`,
		`{"included_path": "(unclosed"}`,
		`{"excluded_query": ["[a-"]}`,
		`{"ignored_query": [""]}`,
		`{"methods": 5}`,
		`not json`,
	}
	for _, raw := range invalid {
		_, err := ParseConfig([]byte(raw))
		assert.Error(t, err, raw)
	}
}
