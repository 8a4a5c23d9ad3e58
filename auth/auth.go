// Package auth carries the authenticated user of a request. Users are
// resolved from a gorilla/sessions cookie session.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gorilla/sessions"
)

// SessionUserKey is the session value holding the user id.
const SessionUserKey = "user_id"

var (
	// ErrUnauthenticated is returned when a request carries no valid user.
	ErrUnauthenticated = errors.New("auth: unauthenticated")
	// ErrUnknownUser is returned by a UserLookup for ids it does not know.
	ErrUnknownUser = errors.New("auth: unknown user")
)

// User is an authenticated admin user.
type User struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// UserLookup resolves a session user id.
type UserLookup interface {
	LookupUser(ctx context.Context, id string) (*User, error)
}

// StaticUsers is a UserLookup over a fixed set of users keyed by id.
type StaticUsers map[string]User

func (s StaticUsers) LookupUser(_ context.Context, id string) (*User, error) {
	u, ok := s[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownUser, id)
	}
	return &u, nil
}

type ctxKey struct{}

// WithUser returns a copy of ctx carrying u.
func WithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, ctxKey{}, u)
}

// FromContext returns the user stored by WithUser.
func FromContext(ctx context.Context) (*User, bool) {
	u, ok := ctx.Value(ctxKey{}).(*User)
	return u, ok && u != nil
}

// Sessions authenticates requests from a named session.
type Sessions struct {
	store  sessions.Store
	name   string
	lookup UserLookup
	logger *slog.Logger
}

// NewSessions creates a session authenticator. A nil logger uses
// slog.Default.
func NewSessions(store sessions.Store, name string, lookup UserLookup, logger *slog.Logger) *Sessions {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sessions{store: store, name: name, lookup: lookup, logger: logger}
}

// Login stores userID in the session of r.
func (s *Sessions) Login(w http.ResponseWriter, r *http.Request, userID string) error {
	session, err := s.store.Get(r, s.name)
	if err != nil && session == nil {
		return fmt.Errorf("auth: load session: %w", err)
	}
	session.Values[SessionUserKey] = userID
	if err := session.Save(r, w); err != nil {
		return fmt.Errorf("auth: save session: %w", err)
	}
	return nil
}

// Authenticate returns the user of r's session.
func (s *Sessions) Authenticate(r *http.Request) (*User, error) {
	session, err := s.store.Get(r, s.name)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}
	id, _ := session.Values[SessionUserKey].(string)
	if id == "" {
		return nil, ErrUnauthenticated
	}
	u, err := s.lookup.LookupUser(r.Context(), id)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}
	return u, nil
}

// Middleware rejects requests without a session user with 401 and stores
// the user in the request context otherwise.
func (s *Sessions) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, err := s.Authenticate(r)
		if err != nil {
			s.logger.Debug("request not authenticated", "path", r.URL.Path, "error", err)
			unauthorized(w)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), u)))
	})
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]any{
		"success": false,
		"feedbacks": []map[string]string{
			{"level": "error", "msg": "authentication required"},
		},
	})
}
