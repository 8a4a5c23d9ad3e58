// Package model declares storable models: their metadata, the typed setter
// tables that hydrate them, and the factory that instantiates them by type
// identifier.
package model

import (
	"fmt"
	"maps"
	"sort"

	"github.com/goliatone/go-collection-cache/source"
)

// Model is an entity with an identifier, a property bag described by its
// metadata, and the source it persists to.
type Model interface {
	ObjType() string
	Metadata() *Metadata
	Source() source.Source
	ID() any
	Value(ident string) (any, bool)
	Data() map[string]any
	SetData(data map[string]any) error
	SetFlatData(row source.Row) error
}

// Base implements Model. Concrete types embed it and bind a typed
// Dispatcher built from their Setters table.
type Base struct {
	objType  string
	meta     *Metadata
	src      source.Source
	data     map[string]any
	dispatch Dispatcher
}

// NewBase creates the shared state of a model instance.
func NewBase(objType string, meta *Metadata, src source.Source) *Base {
	return &Base{
		objType: objType,
		meta:    meta,
		src:     src,
		data:    make(map[string]any, len(meta.Properties)),
	}
}

// Bind installs the typed setter dispatcher of the concrete type.
func (b *Base) Bind(d Dispatcher) {
	b.dispatch = d
}

func (b *Base) ObjType() string { return b.objType }

func (b *Base) Metadata() *Metadata { return b.meta }

func (b *Base) Source() source.Source { return b.src }

func (b *Base) ID() any {
	return b.data[b.meta.keyIdent()]
}

func (b *Base) Value(ident string) (any, bool) {
	v, ok := b.data[ident]
	return v, ok
}

// Data returns a shallow copy of the property bag.
func (b *Base) Data() map[string]any {
	return maps.Clone(b.data)
}

// SetData assigns every entry through the setter table. Keys are applied in
// sorted order; the first failure stops the assignment.
func (b *Base) SetData(data map[string]any) error {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if err := b.set(k, data[k]); err != nil {
			return err
		}
	}
	return nil
}

// SetFlatData maps storage columns back to properties using the field
// table of the metadata. Columns of multi-field properties are gathered
// into a map keyed by field sub-key.
func (b *Base) SetFlatData(row source.Row) error {
	data := make(map[string]any, len(b.meta.Properties))
	consumed := make(map[string]struct{}, len(row))

	for _, p := range b.meta.Properties {
		if !p.Multi() {
			name := p.Fields[0].Name
			if v, ok := row[name]; ok {
				data[p.Ident] = v
				consumed[name] = struct{}{}
			}
			continue
		}

		sub := make(map[string]any, len(p.Fields))
		for _, f := range p.Fields {
			if v, ok := row[f.Name]; ok {
				sub[f.Key] = normalize(v)
				consumed[f.Name] = struct{}{}
			}
		}
		if len(sub) > 0 {
			data[p.Ident] = sub
		}
	}

	for column := range row {
		if _, ok := consumed[column]; !ok {
			return &UnknownPropertyError{ObjType: b.objType, Property: column}
		}
	}

	return b.SetData(data)
}

func (b *Base) set(ident string, v any) error {
	if _, ok := b.meta.Property(ident); !ok {
		return &UnknownPropertyError{ObjType: b.objType, Property: ident}
	}

	v = normalize(v)
	if b.dispatch != nil {
		if _, err := b.dispatch(ident, v); err != nil {
			return fmt.Errorf("model %s: set %s: %w", b.objType, ident, err)
		}
	}
	b.data[ident] = v
	return nil
}

func normalize(v any) any {
	if raw, ok := v.([]byte); ok {
		return string(raw)
	}
	return v
}
