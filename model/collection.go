package model

import "fmt"

// Collection is an ordered list of models in load order.
type Collection struct {
	items []Model
}

// NewCollection creates a collection holding items.
func NewCollection(items ...Model) *Collection {
	return &Collection{items: items}
}

func (c *Collection) Add(m Model) {
	c.items = append(c.items, m)
}

func (c *Collection) Len() int {
	return len(c.items)
}

// At returns the model at index i, or nil when out of range.
func (c *Collection) At(i int) Model {
	if i < 0 || i >= len(c.items) {
		return nil
	}
	return c.items[i]
}

// All returns the models in load order.
func (c *Collection) All() []Model {
	out := make([]Model, len(c.items))
	copy(out, c.items)
	return out
}

// Get returns the first model whose identifier matches id.
func (c *Collection) Get(id any) (Model, bool) {
	want := fmt.Sprint(id)
	for _, m := range c.items {
		if m.ID() != nil && fmt.Sprint(m.ID()) == want {
			return m, true
		}
	}
	return nil, false
}

// IDs lists the identifiers of the models in load order.
func (c *Collection) IDs() []any {
	out := make([]any, 0, len(c.items))
	for _, m := range c.items {
		out = append(out, m.ID())
	}
	return out
}
