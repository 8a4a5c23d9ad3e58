// Package source translates a query.Spec into storage queries and streams
// the resulting rows.
package source

import (
	"context"
	"errors"

	"github.com/goliatone/go-collection-cache/query"
)

var (
	// ErrNoTable is returned when a query is built without a bound table.
	ErrNoTable = errors.New("source: no table bound")
	// ErrNoConnection is returned when a query is executed without a database handle.
	ErrNoConnection = errors.New("source: no database connection")
)

// Row is a flat storage row keyed by column name.
type Row map[string]any

// Source accumulates a query spec and executes it against a backing store.
// The row query honours pagination; the count query ignores it.
type Source interface {
	Table() string
	Reset()
	Spec() query.Spec

	Properties() []string
	SetProperties(properties ...string) error
	AddProperty(property string) error

	Filters() []query.Filter
	AddFilter(f query.Filter) error
	SetFilters(filters []query.Filter) error
	AddKeyword(keyword string, properties ...string) error

	Orders() []query.Order
	AddOrder(o query.Order) error
	SetOrders(orders []query.Order) error

	Pagination() query.Pagination
	SetPagination(p query.Pagination) error

	BuildRowQuery() (string, error)
	BuildCountQuery() (string, error)

	// Execute runs q and calls fn for every row in storage order.
	Execute(ctx context.Context, q string, fn func(Row) error) error
	// QueryCount runs a count query and returns its single value.
	QueryCount(ctx context.Context, q string) (int, error)
}
