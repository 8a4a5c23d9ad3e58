package query

import (
	"fmt"
	"strings"
)

// Direction is the sort direction of an order.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// Order describes one sort key. Values orders rows by the position of the
// property value in the list; Expression is a raw ORDER BY fragment.
type Order struct {
	Property   string
	Direction  Direction
	Table      string
	Values     []any
	Expression string
}

// OrderOption customizes an order built with NewOrder.
type OrderOption func(*Order)

// OrderTable qualifies the order property with a table name or alias.
func OrderTable(table string) OrderOption {
	return func(o *Order) {
		o.Table = table
	}
}

// ByValues orders rows following the given value list.
func ByValues(values ...any) OrderOption {
	return func(o *Order) {
		o.Values = values
	}
}

// NewOrder builds an order on property.
func NewOrder(property string, dir Direction, opts ...OrderOption) Order {
	o := Order{Property: property, Direction: dir}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// RawOrder builds an order from a raw SQL fragment.
func RawOrder(expr string) Order {
	return Order{Expression: expr}
}

// ParseDirection accepts asc/desc in any case; empty means asc.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "asc":
		return Asc, nil
	case "desc":
		return Desc, nil
	default:
		return "", fmt.Errorf("invalid order direction %q", s)
	}
}

func (o Order) Normalize() Order {
	if o.Direction == "" {
		o.Direction = Asc
	}
	o.Direction = Direction(strings.ToLower(string(o.Direction)))
	return o
}

func (o Order) Validate() error {
	o = o.Normalize()
	if strings.TrimSpace(o.Expression) != "" {
		return nil
	}
	if strings.TrimSpace(o.Property) == "" {
		return fmt.Errorf("invalid order: property or expression required")
	}
	if o.Direction != Asc && o.Direction != Desc {
		return fmt.Errorf("invalid order on %s: direction %q", o.Property, o.Direction)
	}
	return nil
}
