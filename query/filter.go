package query

import (
	"fmt"
	"reflect"
	"strings"
)

// Operator is the comparison applied between a property and a filter value.
type Operator string

const (
	OpEqual        Operator = "="
	OpNotEqual     Operator = "!="
	OpLess         Operator = "<"
	OpLessEqual    Operator = "<="
	OpGreater      Operator = ">"
	OpGreaterEqual Operator = ">="
	OpLike         Operator = "LIKE"
	OpNotLike      Operator = "NOT LIKE"
	OpIn           Operator = "IN"
	OpNotIn        Operator = "NOT IN"
	OpIsNull       Operator = "IS NULL"
	OpIsNotNull    Operator = "IS NOT NULL"
)

var operators = map[Operator]struct{}{
	OpEqual: {}, OpNotEqual: {}, OpLess: {}, OpLessEqual: {}, OpGreater: {},
	OpGreaterEqual: {}, OpLike: {}, OpNotLike: {}, OpIn: {}, OpNotIn: {},
	OpIsNull: {}, OpIsNotNull: {},
}

// Operand joins a filter to the filter preceding it.
type Operand string

const (
	And Operand = "AND"
	Or  Operand = "OR"
)

// Filter describes a single predicate. A filter holding sub-filters is
// rendered as a parenthesised group; a filter holding an expression is
// rendered verbatim.
type Filter struct {
	Property        string
	Value           any
	Operator        Operator
	Operand         Operand
	Table           string
	Expression      string
	Args            []any
	CaseInsensitive bool
	Filters         []Filter
}

// FilterOption customizes a filter built with NewFilter.
type FilterOption func(*Filter)

// WithOperator sets the comparison operator.
func WithOperator(op Operator) FilterOption {
	return func(f *Filter) {
		f.Operator = Operator(strings.ToUpper(strings.TrimSpace(string(op))))
	}
}

// WithOperand sets how the filter joins the previous one.
func WithOperand(operand Operand) FilterOption {
	return func(f *Filter) {
		f.Operand = Operand(strings.ToUpper(strings.TrimSpace(string(operand))))
	}
}

// WithTable qualifies the property with a table name or alias.
func WithTable(table string) FilterOption {
	return func(f *Filter) {
		f.Table = table
	}
}

// CaseInsensitive compares lower-cased property and value.
func CaseInsensitive() FilterOption {
	return func(f *Filter) {
		f.CaseInsensitive = true
	}
}

// NewFilter builds an equality filter on property, adjusted by opts.
func NewFilter(property string, value any, opts ...FilterOption) Filter {
	f := Filter{
		Property: property,
		Value:    value,
		Operator: OpEqual,
		Operand:  And,
	}
	for _, opt := range opts {
		opt(&f)
	}
	return f
}

// Raw builds a filter from a raw SQL fragment. Placeholders in expr are
// bound to args.
func Raw(expr string, args ...any) Filter {
	return Filter{Expression: expr, Args: args, Operand: And}
}

// Group wraps filters into a single parenthesised predicate.
func Group(operand Operand, filters ...Filter) Filter {
	return Filter{Operand: operand, Filters: filters}
}

// Keyword expands a search term into one case-insensitive LIKE filter per
// property, OR-joined inside a single group. It returns false when no
// property is given.
func Keyword(keyword string, properties ...string) (Filter, bool) {
	if len(properties) == 0 {
		return Filter{}, false
	}

	pattern := "%" + keyword + "%"
	children := make([]Filter, 0, len(properties))
	for i, property := range properties {
		operand := Or
		if i == 0 {
			operand = And
		}
		children = append(children, NewFilter(property, pattern,
			WithOperator(OpLike),
			WithOperand(operand),
			CaseInsensitive(),
		))
	}

	return Group(And, children...), true
}

// IsGroup reports whether the filter is a group of sub-filters.
func (f Filter) IsGroup() bool {
	return len(f.Filters) > 0
}

// IsRaw reports whether the filter is a raw expression.
func (f Filter) IsRaw() bool {
	return strings.TrimSpace(f.Expression) != ""
}

// Normalize fills in defaults: equality operator and AND operand.
func (f Filter) Normalize() Filter {
	if f.Operator == "" {
		f.Operator = OpEqual
	}
	if f.Operand == "" {
		f.Operand = And
	}
	f.Operator = Operator(strings.ToUpper(string(f.Operator)))
	f.Operand = Operand(strings.ToUpper(string(f.Operand)))

	if f.Value == nil {
		switch f.Operator {
		case OpEqual:
			f.Operator = OpIsNull
		case OpNotEqual:
			f.Operator = OpIsNotNull
		}
	}

	if len(f.Filters) > 0 {
		children := make([]Filter, len(f.Filters))
		for i, child := range f.Filters {
			children[i] = child.Normalize()
		}
		f.Filters = children
	}
	return f
}

// Validate checks the filter shape after normalization.
func (f Filter) Validate() error {
	f = f.Normalize()

	if f.Operand != And && f.Operand != Or {
		return &InvalidFilterError{Property: f.Property, Reason: fmt.Sprintf("unknown operand %q", f.Operand)}
	}

	switch {
	case f.IsRaw():
		return nil
	case f.IsGroup():
		for _, child := range f.Filters {
			if err := child.Validate(); err != nil {
				return err
			}
		}
		return nil
	}

	if strings.TrimSpace(f.Property) == "" {
		return &InvalidFilterError{Reason: "property, expression or sub-filters required"}
	}

	if _, ok := operators[f.Operator]; !ok {
		return &InvalidFilterError{Property: f.Property, Reason: fmt.Sprintf("unknown operator %q", f.Operator)}
	}

	if f.Operator == OpIn || f.Operator == OpNotIn {
		rv := reflect.ValueOf(f.Value)
		if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
			return &InvalidFilterError{Property: f.Property, Reason: "IN requires a slice value"}
		}
		if rv.Len() == 0 {
			return &InvalidFilterError{Property: f.Property, Reason: "IN requires at least one value"}
		}
	}

	return nil
}

// InvalidFilterError reports a filter that cannot be rendered.
type InvalidFilterError struct {
	Property string
	Reason   string
}

func (e *InvalidFilterError) Error() string {
	if e.Property == "" {
		return "invalid filter: " + e.Reason
	}
	return "invalid filter on " + e.Property + ": " + e.Reason
}
