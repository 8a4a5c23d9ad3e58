package httpcache

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goliatone/go-collection-cache/cache"
)

// ErrNoStore is returned by New without a cache store.
var ErrNoStore = errors.New("httpcache: no cache store")

// Option configures a Middleware.
type Option func(*Middleware)

// WithLogger sets the logger used for cache decisions and backend failures.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Middleware) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// Middleware caches eligible responses of the wrapped handler.
type Middleware struct {
	store  cache.Store
	logger *slog.Logger

	ttl           time.Duration
	methods       map[string]struct{}
	statusCodes   map[int]struct{}
	includedPath  patterns
	excludedPath  patterns
	includedQuery patterns
	excludedQuery patterns
	ignoreAll     bool
	ignored       map[string]struct{}
}

// New validates cfg and compiles its patterns.
func New(store cache.Store, cfg Config, opts ...Option) (*Middleware, error) {
	if store == nil {
		return nil, ErrNoStore
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("httpcache: invalid config: %w", err)
	}

	m := &Middleware{
		store:       store,
		logger:      slog.Default(),
		ttl:         time.Duration(cfg.TTL) * time.Second,
		methods:     make(map[string]struct{}, len(cfg.Methods)),
		statusCodes: make(map[int]struct{}, len(cfg.StatusCodes)),
		ignored:     make(map[string]struct{}, len(cfg.IgnoredQuery)),
	}
	for _, method := range cfg.Methods {
		m.methods[method] = struct{}{}
	}
	for _, code := range cfg.StatusCodes {
		m.statusCodes[code] = struct{}{}
	}
	for _, name := range cfg.IgnoredQuery {
		if name == Wildcard {
			m.ignoreAll = true
		}
		m.ignored[name] = struct{}{}
	}

	var err error
	if m.includedPath, err = compilePatterns(cfg.IncludedPath); err != nil {
		return nil, err
	}
	if m.excludedPath, err = compilePatterns(cfg.ExcludedPath); err != nil {
		return nil, err
	}
	if m.includedQuery, err = compilePatterns(cfg.IncludedQuery); err != nil {
		return nil, err
	}
	if m.excludedQuery, err = compilePatterns(cfg.ExcludedQuery); err != nil {
		return nil, err
	}

	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Handler wraps next. It has the shape of a gorilla/mux middleware.
func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key, reason := m.Key(r)
		if reason != "" {
			m.logger.Debug("cache bypass", "method", r.Method, "path", r.URL.Path, "reason", reason)
			next.ServeHTTP(w, r)
			return
		}

		ctx := r.Context()
		entry, hit, err := m.store.Get(ctx, key)
		if err != nil {
			m.logger.Warn("cache read failed", "key", key, "error", err)
			hit = false
		}
		if hit {
			m.logger.Debug("cache hit", "key", key)
			serve(w, entry)
			return
		}

		m.logger.Debug("cache miss", "key", key)
		rec := newRecorder(w)
		next.ServeHTTP(rec, r)

		status := rec.Status()
		if _, ok := m.statusCodes[status]; !ok {
			m.logger.Debug("cache skip", "key", key, "status", status)
			return
		}

		err = m.store.Set(ctx, key, cache.Entry{
			Status: status,
			Header: rec.SnapshotHeader(),
			Body:   rec.Body(),
		}, m.ttl)
		if err != nil {
			m.logger.Warn("cache write failed", "key", key, "error", err)
		}
	})
}

// Key returns the cache key of r. When r is not eligible the key is empty
// and reason names the failed gate. Query patterns see the raw query minus
// ignored parameters; the key uses the sorted, re-encoded form.
func (m *Middleware) Key(r *http.Request) (key string, reason string) {
	if _, ok := m.methods[r.Method]; !ok {
		return "", "method"
	}

	path := r.URL.Path
	if !m.includedPath.match(path) {
		return "", "path not included"
	}
	if m.excludedPath.match(path) {
		return "", "path excluded"
	}

	query, err := url.ParseQuery(r.URL.RawQuery)
	if err != nil {
		return "", "malformed query"
	}
	remaining := m.strip(query)

	uri := r.URL.EscapedPath()
	if len(remaining) > 0 {
		raw := m.stripRaw(r.URL.RawQuery)
		if !m.includedQuery.match(raw) {
			return "", "query not included"
		}
		if m.excludedQuery.match(raw) {
			return "", "query excluded"
		}
		uri += "?" + remaining.Encode()
	}

	return cache.RequestKey(r.Method, uri), ""
}

func (m *Middleware) strip(query url.Values) url.Values {
	if m.ignoreAll {
		return url.Values{}
	}
	for name := range m.ignored {
		query.Del(name)
	}
	return query
}

// stripRaw drops ignored parameters from a raw query string, keeping the
// remaining pairs verbatim and in request order. Patterns match this form.
func (m *Middleware) stripRaw(rawQuery string) string {
	if m.ignoreAll {
		return ""
	}
	kept := make([]string, 0, strings.Count(rawQuery, "&")+1)
	for _, pair := range strings.Split(rawQuery, "&") {
		if pair == "" {
			continue
		}
		name, _, _ := strings.Cut(pair, "=")
		if unescaped, err := url.QueryUnescape(name); err == nil {
			name = unescaped
		}
		if _, ignored := m.ignored[name]; ignored {
			continue
		}
		kept = append(kept, pair)
	}
	return strings.Join(kept, "&")
}

func serve(w http.ResponseWriter, entry cache.Entry) {
	h := w.Header()
	for name, values := range entry.Header {
		h[name] = append([]string(nil), values...)
	}
	w.WriteHeader(entry.Status)
	w.Write(entry.Body)
}
