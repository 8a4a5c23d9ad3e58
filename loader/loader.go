package loader

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"

	"github.com/goliatone/go-collection-cache/model"
	"github.com/goliatone/go-collection-cache/query"
	"github.com/goliatone/go-collection-cache/source"
)

var (
	// ErrNoModel is returned when the loader is used before a model is bound.
	ErrNoModel = errors.New("loader: no model bound")
	// ErrNoSource is returned when the loader is used before a source is bound.
	ErrNoSource = errors.New("loader: no source bound")
	// ErrNoFactory is returned when a model type is resolved without a factory.
	ErrNoFactory = errors.New("loader: no model factory")
	// ErrNotFound is returned by FindObject when no row matches the key.
	ErrNotFound = errors.New("loader: object not found")
)

// Factory creates model instances by type identifier.
type Factory interface {
	Create(objType string) (model.Model, error)
}

// Option configures a Loader.
type Option func(*Loader)

// WithLogger sets the logger used for query tracing and storage failures.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithProcessor sets the processor applied by Load.
func WithProcessor(p Processor) Option {
	return func(l *Loader) {
		l.processor = p
	}
}

// WithDynamicTypeField sets the row column selecting the concrete type.
func WithDynamicTypeField(field string) Option {
	return func(l *Loader) {
		l.typeField = field
	}
}

// Loader loads collections of models. It is not safe for concurrent use;
// create one per request.
type Loader struct {
	factory   Factory
	model     model.Model
	src       source.Source
	processor Processor
	typeField string
	logger    *slog.Logger
}

// New creates a loader instantiating rows through factory.
func New(factory Factory, opts ...Option) *Loader {
	l := &Loader{
		factory: factory,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// SetModel binds the prototype and its source. The source is reset.
func (l *Loader) SetModel(m model.Model) error {
	if m == nil {
		return ErrNoModel
	}
	if err := l.SetSource(m.Source()); err != nil {
		return err
	}
	l.model = m
	return nil
}

// SetModelType binds a fresh prototype of objType created by the factory.
func (l *Loader) SetModelType(objType string) error {
	if l.factory == nil {
		return ErrNoFactory
	}
	m, err := l.factory.Create(objType)
	if err != nil {
		return err
	}
	return l.SetModel(m)
}

// SetSource binds src after resetting it.
func (l *Loader) SetSource(src source.Source) error {
	if src == nil {
		return ErrNoSource
	}
	src.Reset()
	l.src = src
	return nil
}

// Model returns the bound prototype.
func (l *Loader) Model() (model.Model, error) {
	if l.model == nil {
		return nil, ErrNoModel
	}
	return l.model, nil
}

// Source returns the bound source.
func (l *Loader) Source() (source.Source, error) {
	if l.src == nil {
		return nil, ErrNoSource
	}
	return l.src, nil
}

// Reset clears the query state of the bound source.
func (l *Loader) Reset() error {
	src, err := l.Source()
	if err != nil {
		return err
	}
	src.Reset()
	return nil
}

func (l *Loader) AddFilter(property string, value any, opts ...query.FilterOption) error {
	return l.AddFilterSpec(query.NewFilter(property, value, opts...))
}

func (l *Loader) AddFilterSpec(f query.Filter) error {
	src, err := l.Source()
	if err != nil {
		return err
	}
	return src.AddFilter(f)
}

func (l *Loader) SetFilters(filters []query.Filter) error {
	src, err := l.Source()
	if err != nil {
		return err
	}
	return src.SetFilters(filters)
}

// AddKeyword adds a case-insensitive substring search over properties.
func (l *Loader) AddKeyword(keyword string, properties ...string) error {
	src, err := l.Source()
	if err != nil {
		return err
	}
	return src.AddKeyword(keyword, properties...)
}

func (l *Loader) AddOrder(property string, dir query.Direction, opts ...query.OrderOption) error {
	return l.AddOrderSpec(query.NewOrder(property, dir, opts...))
}

func (l *Loader) AddOrderSpec(o query.Order) error {
	src, err := l.Source()
	if err != nil {
		return err
	}
	return src.AddOrder(o)
}

func (l *Loader) SetOrders(orders []query.Order) error {
	src, err := l.Source()
	if err != nil {
		return err
	}
	return src.SetOrders(orders)
}

func (l *Loader) SetPagination(p query.Pagination) error {
	src, err := l.Source()
	if err != nil {
		return err
	}
	return src.SetPagination(p)
}

// SetPage changes the page and keeps the page size.
func (l *Loader) SetPage(page int) error {
	src, err := l.Source()
	if err != nil {
		return err
	}
	p := src.Pagination()
	p.Page = page
	return src.SetPagination(p)
}

// SetNumPerPage changes the page size and keeps the page.
func (l *Loader) SetNumPerPage(perPage int) error {
	src, err := l.Source()
	if err != nil {
		return err
	}
	p := src.Pagination()
	p.PerPage = perPage
	return src.SetPagination(p)
}

func (l *Loader) SetProperties(properties ...string) error {
	src, err := l.Source()
	if err != nil {
		return err
	}
	return src.SetProperties(properties...)
}

func (l *Loader) AddProperty(property string) error {
	src, err := l.Source()
	if err != nil {
		return err
	}
	return src.AddProperty(property)
}

// SetDynamicTypeField sets the row column selecting the concrete type.
func (l *Loader) SetDynamicTypeField(field string) error {
	if field == "" {
		return fmt.Errorf("loader: dynamic type field must not be empty")
	}
	l.typeField = field
	return nil
}

// Apply replaces the query state of the bound source with spec. A spec
// carrying a dynamic type field also sets it on the loader.
func (l *Loader) Apply(spec query.Spec) error {
	src, err := l.Source()
	if err != nil {
		return err
	}

	src.Reset()
	if err := src.SetProperties(spec.Properties...); err != nil {
		return err
	}
	if err := src.SetFilters(spec.Filters); err != nil {
		return err
	}
	if err := src.SetOrders(spec.Orders); err != nil {
		return err
	}
	if err := src.SetPagination(spec.Pagination); err != nil {
		return err
	}
	if spec.DynamicTypeField != "" {
		l.typeField = spec.DynamicTypeField
	}
	return nil
}

// Load runs the row query with the configured processor.
func (l *Loader) Load(ctx context.Context) (*model.Collection, error) {
	return l.LoadWith(ctx, l.processor)
}

// LoadWith runs the row query with p instead of the configured processor.
func (l *Loader) LoadWith(ctx context.Context, p Processor) (*model.Collection, error) {
	if err := l.ready(); err != nil {
		return nil, err
	}
	q, err := l.src.BuildRowQuery()
	if err != nil {
		return nil, err
	}
	return l.LoadFromQuery(ctx, q, p)
}

// LoadFromQuery runs q against the bound source and materialises the rows.
func (l *Loader) LoadFromQuery(ctx context.Context, q string, p Processor) (*model.Collection, error) {
	if err := l.ready(); err != nil {
		return nil, err
	}

	l.logger.Debug("loading collection", "type", l.model.ObjType(), "query", q)

	out := model.NewCollection()
	err := l.src.Execute(ctx, q, func(row source.Row) error {
		m, err := l.materialize(row)
		if err != nil {
			return err
		}

		if p != nil {
			var keep bool
			m, keep, err = p.Process(m)
			if err != nil {
				return fmt.Errorf("process %v: %w", row[l.keyColumn()], err)
			}
			if !keep {
				return nil
			}
		}

		if !isNil(m) {
			out.Add(m)
		}
		return nil
	})
	if err != nil {
		l.logger.Error("collection load failed", "type", l.model.ObjType(), "error", err)
		return nil, fmt.Errorf("loader: load %s: %w", l.model.ObjType(), err)
	}

	return out, nil
}

// LoadCount returns the number of rows matching the filters, ignoring
// pagination.
func (l *Loader) LoadCount(ctx context.Context) (int, error) {
	if err := l.ready(); err != nil {
		return 0, err
	}

	q, err := l.src.BuildCountQuery()
	if err != nil {
		return 0, err
	}
	l.logger.Debug("counting collection", "type", l.model.ObjType(), "query", q)

	n, err := l.src.QueryCount(ctx, q)
	if err != nil {
		l.logger.Error("collection count failed", "type", l.model.ObjType(), "error", err)
		return 0, fmt.Errorf("loader: count %s: %w", l.model.ObjType(), err)
	}
	return n, nil
}

// FindObject loads the object of objType whose key equals id.
func (l *Loader) FindObject(ctx context.Context, objType string, id any) (model.Model, error) {
	if l.factory == nil {
		return nil, ErrNoFactory
	}

	one := New(l.factory, WithLogger(l.logger), WithDynamicTypeField(l.typeField))
	if err := one.SetModelType(objType); err != nil {
		return nil, err
	}
	if err := one.AddFilter(one.model.Metadata().KeyColumn(), id); err != nil {
		return nil, err
	}
	if err := one.SetPagination(query.Pagination{Page: 1, PerPage: 1}); err != nil {
		return nil, err
	}

	items, err := one.LoadWith(ctx, nil)
	if err != nil {
		return nil, err
	}
	if items.Len() == 0 {
		return nil, fmt.Errorf("%w: %s %v", ErrNotFound, objType, id)
	}
	return items.At(0), nil
}

func (l *Loader) ready() error {
	if l.model == nil {
		return ErrNoModel
	}
	if l.src == nil {
		return ErrNoSource
	}
	if l.factory == nil {
		return ErrNoFactory
	}
	return nil
}

func (l *Loader) materialize(row source.Row) (model.Model, error) {
	objType := l.model.ObjType()
	if l.typeField != "" {
		if v, ok := row[l.typeField]; ok {
			if s, err := model.AsString(v); err == nil && s != "" {
				objType = s
			}
		}
	}

	m, err := l.factory.Create(objType)
	if err != nil {
		return nil, err
	}
	if err := m.SetFlatData(row); err != nil {
		return nil, err
	}
	return m, nil
}

// isNil reports whether m is nil or wraps a nil pointer.
func isNil(m model.Model) bool {
	if m == nil {
		return true
	}
	v := reflect.ValueOf(m)
	return v.Kind() == reflect.Pointer && v.IsNil()
}

func (l *Loader) keyColumn() string {
	return l.model.Metadata().KeyColumn()
}
