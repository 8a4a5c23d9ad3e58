package source

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/goliatone/go-collection-cache/query"
	"github.com/uptrace/bun"
)

// Interface assertion to ensure Database implements Source
var _ Source = (*Database)(nil)

// Database is a Source rendering bun select queries for a single table.
type Database struct {
	db      *bun.DB
	table   string
	columns []string
	spec    query.Spec
	logger  *slog.Logger
}

// Option configures a Database source.
type Option func(*Database)

// WithLogger sets the logger used for query tracing.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Database) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithColumns sets the columns selected when no property is selected
// explicitly. Without columns the row query selects "*".
func WithColumns(columns ...string) Option {
	return func(d *Database) {
		d.columns = slices.Clone(columns)
	}
}

// NewDatabase creates a source reading table through db.
func NewDatabase(db *bun.DB, table string, opts ...Option) *Database {
	d := &Database{
		db:     db,
		table:  table,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Database) Table() string { return d.table }

// DB returns the underlying bun handle, nil when unbound.
func (d *Database) DB() *bun.DB { return d.db }

// Reset clears the accumulated query state; the table and default columns stay.
func (d *Database) Reset() { d.spec.Reset() }

func (d *Database) Spec() query.Spec { return d.spec.Clone() }

func (d *Database) Properties() []string { return slices.Clone(d.spec.Properties) }

func (d *Database) SetProperties(properties ...string) error {
	return d.spec.SetProperties(properties...)
}

func (d *Database) AddProperty(property string) error {
	return d.spec.AddProperty(property)
}

func (d *Database) Filters() []query.Filter { return slices.Clone(d.spec.Filters) }

func (d *Database) AddFilter(f query.Filter) error { return d.spec.AddFilter(f) }

func (d *Database) SetFilters(filters []query.Filter) error { return d.spec.SetFilters(filters) }

func (d *Database) AddKeyword(keyword string, properties ...string) error {
	return d.spec.AddKeyword(keyword, properties...)
}

func (d *Database) Orders() []query.Order { return slices.Clone(d.spec.Orders) }

func (d *Database) AddOrder(o query.Order) error { return d.spec.AddOrder(o) }

func (d *Database) SetOrders(orders []query.Order) error { return d.spec.SetOrders(orders) }

func (d *Database) Pagination() query.Pagination { return d.spec.Pagination.Normalize() }

func (d *Database) SetPagination(p query.Pagination) error { return d.spec.SetPagination(p) }

// BuildRowQuery renders the select with filters, orders and pagination.
func (d *Database) BuildRowQuery() (string, error) {
	q, err := d.newSelect()
	if err != nil {
		return "", err
	}

	properties := d.spec.Properties
	if len(properties) == 0 {
		properties = d.columns
	}
	if len(properties) == 0 {
		q = q.ColumnExpr("*")
	}
	for _, property := range properties {
		q = q.ColumnExpr("?", bun.Ident(property))
	}

	q = applyFilters(q, d.spec.Filters)
	q = applyOrders(q, d.spec.Orders)

	if p := d.spec.Pagination; p.Limited() {
		q = q.Limit(p.Limit()).Offset(p.Offset())
	}

	return d.render(q)
}

// BuildCountQuery renders a COUNT(*) with the same filters and no
// ordering or pagination.
func (d *Database) BuildCountQuery() (string, error) {
	q, err := d.newSelect()
	if err != nil {
		return "", err
	}
	q = q.ColumnExpr("COUNT(*)")
	q = applyFilters(q, d.spec.Filters)
	return d.render(q)
}

func (d *Database) Execute(ctx context.Context, q string, fn func(Row) error) error {
	if d.db == nil {
		return ErrNoConnection
	}

	d.logger.Debug("source query", "table", d.table, "query", q)

	rows, err := d.db.DB.QueryContext(ctx, q)
	if err != nil {
		return fmt.Errorf("source: query %s: %w", d.table, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return fmt.Errorf("source: columns %s: %w", d.table, err)
	}

	for rows.Next() {
		values := make([]any, len(columns))
		dest := make([]any, len(columns))
		for i := range values {
			dest[i] = &values[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return fmt.Errorf("source: scan %s: %w", d.table, err)
		}

		row := make(Row, len(columns))
		for i, column := range columns {
			row[column] = normalizeValue(values[i])
		}
		if err := fn(row); err != nil {
			return err
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("source: rows %s: %w", d.table, err)
	}
	return nil
}

func (d *Database) QueryCount(ctx context.Context, q string) (int, error) {
	if d.db == nil {
		return 0, ErrNoConnection
	}

	d.logger.Debug("source count query", "table", d.table, "query", q)

	var n int64
	if err := d.db.DB.QueryRowContext(ctx, q).Scan(&n); err != nil {
		return 0, fmt.Errorf("source: count %s: %w", d.table, err)
	}
	return int(n), nil
}

func (d *Database) newSelect() (*bun.SelectQuery, error) {
	if strings.TrimSpace(d.table) == "" {
		return nil, ErrNoTable
	}
	if d.db == nil {
		return nil, ErrNoConnection
	}
	return d.db.NewSelect().TableExpr("?", bun.Ident(d.table)), nil
}

func (d *Database) render(q *bun.SelectQuery) (string, error) {
	b, err := q.AppendQuery(d.db.Formatter(), nil)
	if err != nil {
		return "", fmt.Errorf("source: render %s: %w", d.table, err)
	}
	return string(b), nil
}

func normalizeValue(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}
