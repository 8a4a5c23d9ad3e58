package query

import (
	"fmt"
	"slices"
	"strings"
)

// Spec accumulates the filters, orders, pagination and selected properties
// describing a data fetch.
type Spec struct {
	Properties       []string
	Filters          []Filter
	Orders           []Order
	Pagination       Pagination
	DynamicTypeField string
}

// Reset clears everything.
func (s *Spec) Reset() {
	*s = Spec{}
}

// Clone returns a copy that shares no slices with s.
func (s Spec) Clone() Spec {
	out := Spec{
		Properties:       slices.Clone(s.Properties),
		Filters:          slices.Clone(s.Filters),
		Orders:           slices.Clone(s.Orders),
		Pagination:       s.Pagination,
		DynamicTypeField: s.DynamicTypeField,
	}
	return out
}

func (s *Spec) AddFilter(f Filter) error {
	if err := f.Validate(); err != nil {
		return err
	}
	s.Filters = append(s.Filters, f.Normalize())
	return nil
}

// SetFilters replaces all filters. Nothing changes if one is invalid.
func (s *Spec) SetFilters(filters []Filter) error {
	out := make([]Filter, 0, len(filters))
	for _, f := range filters {
		if err := f.Validate(); err != nil {
			return err
		}
		out = append(out, f.Normalize())
	}
	s.Filters = out
	return nil
}

// AddKeyword appends a keyword group; see Keyword.
func (s *Spec) AddKeyword(keyword string, properties ...string) error {
	f, ok := Keyword(keyword, properties...)
	if !ok {
		return nil
	}
	return s.AddFilter(f)
}

func (s *Spec) AddOrder(o Order) error {
	if err := o.Validate(); err != nil {
		return err
	}
	s.Orders = append(s.Orders, o.Normalize())
	return nil
}

// SetOrders replaces all orders. Nothing changes if one is invalid.
func (s *Spec) SetOrders(orders []Order) error {
	out := make([]Order, 0, len(orders))
	for _, o := range orders {
		if err := o.Validate(); err != nil {
			return err
		}
		out = append(out, o.Normalize())
	}
	s.Orders = out
	return nil
}

func (s *Spec) SetPagination(p Pagination) error {
	if err := p.Validate(); err != nil {
		return err
	}
	s.Pagination = p.Normalize()
	return nil
}

// SetProperties replaces the selected properties. Duplicates are dropped.
func (s *Spec) SetProperties(properties ...string) error {
	s.Properties = nil
	for _, p := range properties {
		if err := s.AddProperty(p); err != nil {
			return err
		}
	}
	return nil
}

func (s *Spec) AddProperty(property string) error {
	property = strings.TrimSpace(property)
	if property == "" {
		return fmt.Errorf("invalid property: empty identifier")
	}
	if slices.Contains(s.Properties, property) {
		return nil
	}
	s.Properties = append(s.Properties, property)
	return nil
}
