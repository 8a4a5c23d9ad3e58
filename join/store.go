package join

import (
	"context"
	"fmt"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Store persists joins.
type Store interface {
	// EnsureTable creates the join table when it does not exist.
	EnsureTable(ctx context.Context) error
	// List returns the joins of key ordered by position.
	List(ctx context.Context, key Key) ([]*Join, error)
	Delete(ctx context.Context, j *Join) error
	Create(ctx context.Context, j *Join) (*Join, error)
}

// Interface assertion to ensure BunStore implements Store
var _ Store = (*BunStore)(nil)

// BunStore is a Store over a go-repository-bun repository.
type BunStore struct {
	db   *bun.DB
	repo repository.Repository[*Join]
}

// NewBunStore creates a store on db.
func NewBunStore(db *bun.DB) *BunStore {
	repo := repository.NewRepository[*Join](db, repository.ModelHandlers[*Join]{
		NewRecord: func() *Join {
			return &Join{}
		},
		GetID: func(j *Join) uuid.UUID {
			if j == nil {
				return uuid.Nil
			}
			return j.ID
		},
		SetID: func(j *Join, id uuid.UUID) {
			j.ID = id
		},
		GetIdentifier: func() string {
			return "attachment_id"
		},
	})
	return &BunStore{db: db, repo: repo}
}

func (s *BunStore) EnsureTable(ctx context.Context) error {
	_, err := s.db.NewCreateTable().Model((*Join)(nil)).IfNotExists().Exec(ctx)
	if err != nil {
		return fmt.Errorf("join: create table: %w", err)
	}
	return nil
}

func (s *BunStore) List(ctx context.Context, key Key) ([]*Join, error) {
	joins, _, err := s.repo.List(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.
			Where("? = ?", bun.Ident("object_type"), key.ObjectType).
			Where("? = ?", bun.Ident("object_id"), key.ObjectID).
			Where("? = ?", bun.Ident("group"), key.Group).
			OrderExpr("? ASC", bun.Ident("position"))
	})
	if err != nil {
		return nil, fmt.Errorf("join: list %s/%s/%s: %w", key.ObjectType, key.ObjectID, key.Group, err)
	}
	return joins, nil
}

func (s *BunStore) Delete(ctx context.Context, j *Join) error {
	if err := s.repo.Delete(ctx, j); err != nil {
		return fmt.Errorf("join: delete %s: %w", j.ID, err)
	}
	return nil
}

func (s *BunStore) Create(ctx context.Context, j *Join) (*Join, error) {
	if j.ID == uuid.Nil {
		j.ID = uuid.New()
	}
	created, err := s.repo.Create(ctx, j)
	if err != nil {
		return nil, fmt.Errorf("join: create %s: %w", j.AttachmentID, err)
	}
	return created, nil
}
