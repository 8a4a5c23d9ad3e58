// Package join links attachments to host objects. The links of one
// (object type, object id, group) triple form an ordered set that is
// replaced as a whole on every update.
package join

import (
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Join links an attachment to a host object within a named group.
type Join struct {
	bun.BaseModel `bun:"table:attachment_joins"`

	ID           uuid.UUID `bun:"id,pk,type:uuid" json:"id"`
	ObjectType   string    `bun:"object_type,notnull" json:"object_type"`
	ObjectID     string    `bun:"object_id,notnull" json:"object_id"`
	AttachmentID string    `bun:"attachment_id,notnull" json:"attachment_id"`
	Group        string    `bun:"group,notnull" json:"group"`
	Position     int       `bun:"position,notnull" json:"position"`
}

// Key identifies the join set of one host object group.
type Key struct {
	ObjectType string
	ObjectID   string
	Group      string
}

// KeyOf returns the set a join belongs to.
func KeyOf(j *Join) Key {
	return Key{ObjectType: j.ObjectType, ObjectID: j.ObjectID, Group: j.Group}
}
