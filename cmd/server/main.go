package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/goliatone/go-collection-cache/api"
	"github.com/goliatone/go-collection-cache/auth"
	"github.com/goliatone/go-collection-cache/cms"
	"github.com/goliatone/go-collection-cache/join"
	"github.com/goliatone/go-collection-cache/pkg/di"
	"github.com/gorilla/mux"
	"github.com/gorilla/sessions"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := LoadConfig(slog.Default())
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	db, err := openDB(cfg.Driver, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	config := di.DefaultConfig()
	config.HTTPCache = cfg.HTTPCache
	config.TypeField = cms.TypeField

	container, err := di.NewContainer(config, db, di.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("wire components: %w", err)
	}
	if err := cms.Register(container.Factory()); err != nil {
		return err
	}
	if err := cms.CreateTable(ctx, db); err != nil {
		return err
	}
	if err := container.JoinStore().EnsureTable(ctx); err != nil {
		return err
	}
	if cfg.Seed {
		if err := seed(ctx, db); err != nil {
			return err
		}
	}

	users := auth.StaticUsers{cfg.AdminID: {ID: cfg.AdminID, Name: cfg.AdminName}}
	sessionStore := sessions.NewCookieStore(cfg.SessionSecret)
	sessionStore.Options = &sessions.Options{Path: "/", HttpOnly: true, MaxAge: 86400, SameSite: http.SameSiteLaxMode}
	authn := auth.NewSessions(sessionStore, "cms-admin", users, logger)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newRouter(container, authn, users),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.Addr, "driver", cfg.Driver)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		logger.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func openDB(driver, dsn string) (*bun.DB, error) {
	sqldb, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if err := sqldb.Ping(); err != nil {
		sqldb.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}

	if driver == "postgres" {
		return bun.NewDB(sqldb, pgdialect.New()), nil
	}
	sqldb.SetMaxOpenConns(1)
	return bun.NewDB(sqldb, sqlitedialect.New()), nil
}

func newRouter(container *di.Container, authn *auth.Sessions, users auth.UserLookup) *mux.Router {
	r := mux.NewRouter()

	objects := api.NewObjectsHandler(container.Factory(),
		api.WithLogger(container.Logger()),
		api.WithDynamicTypeField(cms.TypeField),
		api.WithSearchProperties("title"),
	)
	public := r.PathPrefix("/api").Subrouter()
	public.Use(container.Middleware().Handler)
	public.Handle("/objects/{type:.+}", objects).Methods(http.MethodGet, http.MethodHead)

	r.HandleFunc("/admin/login", loginHandler(authn, users)).Methods(http.MethodPost)

	admin := r.PathPrefix("/admin/object").Subrouter()
	admin.Use(authn.Middleware)
	admin.Handle("/join", join.NewHandler(container.Resolver())).Methods(http.MethodPost)

	return r
}

func loginHandler(authn *auth.Sessions, users auth.UserLookup) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			UserID string `json:"user_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.UserID == "" {
			http.Error(w, "user_id required", http.StatusBadRequest)
			return
		}
		if _, err := users.LookupUser(r.Context(), body.UserID); err != nil {
			http.Error(w, "unknown user", http.StatusUnauthorized)
			return
		}
		if err := authn.Login(w, r, body.UserID); err != nil {
			http.Error(w, "session unavailable", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// seed inserts demo contents when the table is empty.
func seed(ctx context.Context, db *bun.DB) error {
	n, err := db.NewSelect().Model((*cms.Record)(nil)).Count(ctx)
	if err != nil {
		return fmt.Errorf("seed: count: %w", err)
	}
	if n > 0 {
		return nil
	}

	records := make([]*cms.Record, 0, 25)
	for i := 1; i <= 25; i++ {
		rec := &cms.Record{
			ObjType:  cms.ArticleType,
			TitleEN:  fmt.Sprintf("Article %d", i),
			TitleFR:  fmt.Sprintf("Article %d (fr)", i),
			Status:   "published",
			Position: i,
		}
		if i%3 == 0 {
			rec.ObjType = cms.EventType
			rec.TitleEN = fmt.Sprintf("Event %d", i)
			rec.Location = "Montreal"
			rec.StartsAt = time.Now().AddDate(0, 0, i).UTC().Truncate(time.Second)
		}
		if i%4 == 0 {
			rec.Status = "draft"
		}
		records = append(records, rec)
	}
	if _, err := db.NewInsert().Model(&records).Exec(ctx); err != nil {
		return fmt.Errorf("seed: insert: %w", err)
	}
	return nil
}
