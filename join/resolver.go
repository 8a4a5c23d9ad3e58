package join

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/goliatone/go-collection-cache/model"
)

var (
	// ErrInvalidRequest wraps validation failures of a Request.
	ErrInvalidRequest = errors.New("join: invalid request")
	// ErrObjectNotFound is returned when the host object cannot be loaded.
	ErrObjectNotFound = errors.New("join: object not found")
)

// Attachment is one attachment of a Request with its position in the set.
type Attachment struct {
	AttachmentID string `json:"attachment_id"`
	Position     int    `json:"position"`
}

// Request replaces the attachments of one host object group.
type Request struct {
	ObjectType  string       `json:"obj_type"`
	ObjectID    string       `json:"obj_id"`
	Group       string       `json:"group"`
	Attachments []Attachment `json:"attachments"`
}

// Key returns the join set addressed by r.
func (r Request) Key() Key {
	return Key{ObjectType: r.ObjectType, ObjectID: r.ObjectID, Group: r.Group}
}

func (r Request) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.ObjectType, validation.Required),
		validation.Field(&r.ObjectID, validation.Required),
		validation.Field(&r.Group, validation.Required),
		validation.Field(&r.Attachments, validation.Required),
	)
}

func (a Attachment) Validate() error {
	return validation.ValidateStruct(&a,
		validation.Field(&a.AttachmentID, validation.Required),
	)
}

// ObjectFinder loads a host object by type and key.
type ObjectFinder interface {
	FindObject(ctx context.Context, objType string, id any) (model.Model, error)
}

// Resolver maintains join sets.
type Resolver struct {
	store  Store
	finder ObjectFinder
	logger *slog.Logger
}

// NewResolver creates a resolver. A nil logger uses slog.Default.
func NewResolver(store Store, finder ObjectFinder, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{store: store, finder: finder, logger: logger}
}

// Replace deletes the current joins of the request's set and creates one
// join per attachment in request order. Repeated or omitted positions fall
// back to the request order. Steps are not transactional: a
// failure part way leaves the set partially replaced.
func (r *Resolver) Replace(ctx context.Context, req Request) ([]*Join, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	if _, err := r.finder.FindObject(ctx, req.ObjectType, req.ObjectID); err != nil {
		r.logger.Warn("join host object not loaded", "object_type", req.ObjectType, "object_id", req.ObjectID, "error", err)
		return nil, fmt.Errorf("%w: %s %s: %v", ErrObjectNotFound, req.ObjectType, req.ObjectID, err)
	}

	if err := r.store.EnsureTable(ctx); err != nil {
		return nil, err
	}

	key := req.Key()
	existing, err := r.store.List(ctx, key)
	if err != nil {
		return nil, err
	}
	for _, j := range existing {
		if err := r.store.Delete(ctx, j); err != nil {
			return nil, err
		}
	}

	positions := positionsOf(req.Attachments)
	created := make([]*Join, 0, len(req.Attachments))
	for i, a := range req.Attachments {
		j, err := r.store.Create(ctx, &Join{
			ObjectType:   req.ObjectType,
			ObjectID:     req.ObjectID,
			AttachmentID: a.AttachmentID,
			Group:        req.Group,
			Position:     positions[i],
		})
		if err != nil {
			return created, err
		}
		created = append(created, j)
	}

	r.logger.Info("join set replaced", "object_type", req.ObjectType, "object_id", req.ObjectID, "group", req.Group, "removed", len(existing), "created", len(created))
	return created, nil
}

// positionsOf returns the stored position of each attachment. Positions are
// taken from the request when they are distinct; otherwise, including when
// they are omitted, the request order is used.
func positionsOf(attachments []Attachment) []int {
	out := make([]int, len(attachments))
	seen := make(map[int]struct{}, len(attachments))
	distinct := true
	for i, a := range attachments {
		if _, dup := seen[a.Position]; dup {
			distinct = false
		}
		seen[a.Position] = struct{}{}
		out[i] = a.Position
	}
	if !distinct {
		for i := range out {
			out[i] = i
		}
	}
	return out
}

// Attachments returns the joins of key ordered by position.
func (r *Resolver) Attachments(ctx context.Context, key Key) ([]*Join, error) {
	if err := r.store.EnsureTable(ctx); err != nil {
		return nil, err
	}
	return r.store.List(ctx, key)
}
