package main

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/goliatone/go-collection-cache/auth"
	"github.com/goliatone/go-collection-cache/cms"
	"github.com/goliatone/go-collection-cache/pkg/di"
	"github.com/goliatone/go-collection-cache/pkg/testsupport"
	"github.com/gorilla/sessions"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	ctx := context.Background()
	db := testsupport.OpenSQLite(t)

	config := di.DefaultConfig()
	config.TypeField = cms.TypeField
	container, err := di.NewContainer(config, db)
	require.NoError(t, err)
	require.NoError(t, cms.Register(container.Factory()))
	require.NoError(t, cms.CreateTable(ctx, db))
	require.NoError(t, seed(ctx, db))
	require.NoError(t, seed(ctx, db))

	users := auth.StaticUsers{"admin": {ID: "admin", Name: "Admin"}}
	authn := auth.NewSessions(sessions.NewCookieStore([]byte(testSecret)), "cms-admin", users, nil)
	return newRouter(container, authn, users)
}

func TestRouter_ObjectsEndpoint(t *testing.T) {
	h := newTestServer(t)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/objects/cms/article", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"total":25`)
}

func TestRouter_JoinRequiresSession(t *testing.T) {
	h := newTestServer(t)
	body := `{"obj_type":"cms/article","obj_id":"1","group":"gallery","attachments":[{"attachment_id":"img","position":0}]}`

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/admin/object/join", bytes.NewBufferString(body)))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	login := httptest.NewRecorder()
	h.ServeHTTP(login, httptest.NewRequest(http.MethodPost, "/admin/login", bytes.NewBufferString(`{"user_id":"admin"}`)))
	require.Equal(t, http.StatusNoContent, login.Code)

	req := httptest.NewRequest(http.MethodPost, "/admin/object/join", bytes.NewBufferString(body))
	for _, c := range login.Result().Cookies() {
		req.AddCookie(c)
	}
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"success":true`)
}

func TestRouter_LoginRejectsUnknownUser(t *testing.T) {
	h := newTestServer(t)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/admin/login", bytes.NewBufferString(`{"user_id":"mallory"}`)))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/admin/login", bytes.NewBufferString(`{}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("SESSION_SECRET", testSecret)
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("DB_DRIVER", "postgres")

	path := filepath.Join(t.TempDir(), "httpcache.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"ttl": 60, "included_query": "*"}`), 0o600))
	t.Setenv("HTTPCACHE_CONFIG", path)

	cfg, err := LoadConfig(slog.Default())
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "postgres", cfg.Driver)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, 60, cfg.HTTPCache.TTL)
}

func TestLoadConfig_Errors(t *testing.T) {

	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "short secret", env: map[string]string{"SESSION_SECRET": "short"}},
		{name: "driver", env: map[string]string{"SESSION_SECRET": testSecret, "DB_DRIVER": "oracle"}},
		{name: "log level", env: map[string]string{"SESSION_SECRET": testSecret, "LOG_LEVEL": "loud"}},
		{name: "missing cache config", env: map[string]string{"SESSION_SECRET": testSecret, "HTTPCACHE_CONFIG": "/does/not/exist.json"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := LoadConfig(slog.Default())
			assert.Error(t, err)
		})
	}
}
