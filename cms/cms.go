// Package cms declares the content models served by the collection API.
// Articles and events share the cms_contents table and are told apart by
// its obj_type column.
package cms

import (
	"context"
	"fmt"
	"time"

	"github.com/goliatone/go-collection-cache/model"
	"github.com/uptrace/bun"
)

const (
	// Table stores every content type.
	Table = "cms_contents"
	// TypeField is the column selecting the concrete model type of a row.
	TypeField = "obj_type"

	ArticleType = "cms/article"
	EventType   = "cms/event"
)

// Languages of the localized properties.
var Languages = []string{"en", "fr"}

// Metadata returns the property set shared by all content types.
func Metadata() model.Metadata {
	return model.Metadata{
		Table: Table,
		Properties: []model.Property{
			model.NewProperty("id"),
			model.NewProperty(TypeField),
			model.NewLocalizedProperty("title", Languages...),
			model.NewProperty("status"),
			model.NewProperty("position"),
			model.NewProperty("location"),
			model.NewColumnProperty("startsAt", "starts_at"),
		},
	}
}

// Record is the row layout of Table.
type Record struct {
	bun.BaseModel `bun:"table:cms_contents"`

	ID       int64     `bun:"id,pk,autoincrement"`
	ObjType  string    `bun:"obj_type,notnull"`
	TitleEN  string    `bun:"title_en"`
	TitleFR  string    `bun:"title_fr"`
	Status   string    `bun:"status,notnull,default:'draft'"`
	Position int       `bun:"position,notnull,default:0"`
	Location string    `bun:"location"`
	StartsAt time.Time `bun:"starts_at,nullzero"`
}

// CreateTable creates Table when it does not exist.
func CreateTable(ctx context.Context, db bun.IDB) error {
	if _, err := db.NewCreateTable().Model((*Record)(nil)).IfNotExists().Exec(ctx); err != nil {
		return fmt.Errorf("cms: create table: %w", err)
	}
	return nil
}

// Register declares the content types on f.
func Register(f *model.Factory) error {
	if err := model.Register(f, ArticleType, Metadata(), newArticle, articleSetters); err != nil {
		return err
	}
	return model.Register(f, EventType, Metadata(), newEvent, eventSetters)
}
