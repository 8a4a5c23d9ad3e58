package model

import (
	"fmt"
	"slices"

	"github.com/goliatone/go-collection-cache/source"
	"github.com/puzpuzpuz/xsync/v3"
	"github.com/uptrace/bun"
)

// SourceProvider builds the source a new model instance persists to.
type SourceProvider func(meta *Metadata) source.Source

// DatabaseProvider binds every model to a bun source on its metadata table,
// selecting the declared columns by default.
func DatabaseProvider(db *bun.DB, opts ...source.Option) SourceProvider {
	return func(meta *Metadata) source.Source {
		o := append(slices.Clone(opts), source.WithColumns(meta.Columns()...))
		return source.NewDatabase(db, meta.Table, o...)
	}
}

type registration struct {
	meta  *Metadata
	build func(objType string, src source.Source) Model
}

// Factory instantiates registered model types by identifier. Registration
// happens at startup; Create is safe for concurrent use.
type Factory struct {
	provider SourceProvider
	types    *xsync.MapOf[string, registration]
}

// NewFactory creates an empty registry using provider for new instances.
func NewFactory(provider SourceProvider) *Factory {
	return &Factory{
		provider: provider,
		types:    xsync.NewMapOf[string, registration](),
	}
}

// Register declares the model type T under objType. An empty objType is
// derived from the Go type as "<package>/<snake_name>" and an empty table
// defaults to the plural snake name. ctor wraps the shared Base into the
// concrete type; setters is bound to every instance.
func Register[T Model](f *Factory, objType string, meta Metadata, ctor func(*Base) T, setters Setters[T]) error {
	if ctor == nil {
		return &ConfigError{Field: "ctor", Message: "constructor is required"}
	}

	ident, table := typeIdent[T]()
	if objType == "" {
		objType = ident
	}
	if meta.Table == "" {
		meta.Table = table
	}
	meta.Properties = slices.Clone(meta.Properties)

	if err := meta.Validate(); err != nil {
		return fmt.Errorf("register %s: %w", objType, err)
	}
	if err := setters.check(objType, &meta); err != nil {
		return fmt.Errorf("register %s: %w", objType, err)
	}

	reg := registration{
		meta: &meta,
		build: func(objType string, src source.Source) Model {
			base := NewBase(objType, &meta, src)
			m := ctor(base)
			base.Bind(setters.Bind(m))
			return m
		},
	}
	if _, loaded := f.types.LoadOrStore(objType, reg); loaded {
		return fmt.Errorf("%w: %s", ErrDuplicateType, objType)
	}
	return nil
}

// Create returns a fresh instance of objType bound to a new source.
func (f *Factory) Create(objType string) (Model, error) {
	reg, ok := f.types.Load(objType)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownType, objType)
	}

	var src source.Source
	if f.provider != nil {
		src = f.provider(reg.meta)
	}
	return reg.build(objType, src), nil
}

// Metadata returns the metadata registered for objType.
func (f *Factory) Metadata(objType string) (*Metadata, bool) {
	reg, ok := f.types.Load(objType)
	if !ok {
		return nil, false
	}
	return reg.meta, true
}

// Types lists the registered identifiers in sorted order.
func (f *Factory) Types() []string {
	var out []string
	f.types.Range(func(k string, _ registration) bool {
		out = append(out, k)
		return true
	})
	slices.Sort(out)
	return out
}
