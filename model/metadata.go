package model

import (
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// DefaultKey is the identifier property used when metadata declares none.
const DefaultKey = "id"

// Field maps one storage column to a property. Key is the sub-key of a
// multi-field property and is empty for single-field properties.
type Field struct {
	Name string
	Key  string
}

// Property declares a model property and the storage fields backing it.
type Property struct {
	Ident  string
	Fields []Field
}

// NewProperty declares a property stored in a column of the same name.
func NewProperty(ident string) Property {
	return Property{Ident: ident, Fields: []Field{{Name: ident}}}
}

// NewColumnProperty declares a property stored in a differently named column.
func NewColumnProperty(ident, column string) Property {
	return Property{Ident: ident, Fields: []Field{{Name: column}}}
}

// NewLocalizedProperty declares a property with one column per language,
// named "<ident>_<lang>" and exposed under the sub-key "<lang>".
func NewLocalizedProperty(ident string, langs ...string) Property {
	p := Property{Ident: ident}
	for _, lang := range langs {
		p.Fields = append(p.Fields, Field{Name: ident + "_" + lang, Key: lang})
	}
	return p
}

// Multi reports whether the property is a map of sub-keyed fields. A
// localized property with a single language is still multi-field.
func (p Property) Multi() bool {
	if len(p.Fields) > 1 {
		return true
	}
	for _, f := range p.Fields {
		if f.Key != "" {
			return true
		}
	}
	return false
}

// Metadata describes the property set and storage of a model type.
type Metadata struct {
	Table      string
	Key        string
	Properties []Property
}

// Property returns the declared property named ident.
func (m *Metadata) Property(ident string) (Property, bool) {
	for _, p := range m.Properties {
		if p.Ident == ident {
			return p, true
		}
	}
	return Property{}, false
}

// Columns lists every storage field, in declaration order.
func (m *Metadata) Columns() []string {
	var out []string
	for _, p := range m.Properties {
		for _, f := range p.Fields {
			out = append(out, f.Name)
		}
	}
	return out
}

// KeyColumn is the storage field backing the identifier property.
func (m *Metadata) KeyColumn() string {
	p, ok := m.Property(m.keyIdent())
	if !ok || len(p.Fields) == 0 {
		return m.keyIdent()
	}
	return p.Fields[0].Name
}

func (m *Metadata) keyIdent() string {
	if m.Key == "" {
		return DefaultKey
	}
	return m.Key
}

// Validate checks the table, key and that idents and fields are unique.
func (m *Metadata) Validate() error {
	err := validation.ValidateStruct(m,
		validation.Field(&m.Table, validation.Required),
		validation.Field(&m.Properties, validation.Required, validation.By(uniqueProperties)),
	)
	if err != nil {
		return &ConfigError{Field: "Metadata", Message: err.Error()}
	}

	key, ok := m.Property(m.keyIdent())
	if !ok {
		return &ConfigError{Field: "Metadata.Key", Message: fmt.Sprintf("key %q is not a declared property", m.keyIdent())}
	}
	if key.Multi() {
		return &ConfigError{Field: "Metadata.Key", Message: fmt.Sprintf("key %q must be a single-field property", key.Ident)}
	}
	return nil
}

func uniqueProperties(value any) error {
	properties, _ := value.([]Property)
	idents := make(map[string]struct{}, len(properties))
	fields := make(map[string]struct{})

	for _, p := range properties {
		if p.Ident == "" {
			return fmt.Errorf("property ident must not be empty")
		}
		if _, dup := idents[p.Ident]; dup {
			return fmt.Errorf("duplicate property %q", p.Ident)
		}
		idents[p.Ident] = struct{}{}

		if len(p.Fields) == 0 {
			return fmt.Errorf("property %q has no storage field", p.Ident)
		}
		for _, f := range p.Fields {
			if f.Name == "" {
				return fmt.Errorf("property %q has an unnamed field", p.Ident)
			}
			if p.Multi() && f.Key == "" {
				return fmt.Errorf("field %q of property %q needs a sub-key", f.Name, p.Ident)
			}
			if _, dup := fields[f.Name]; dup {
				return fmt.Errorf("duplicate field %q", f.Name)
			}
			fields[f.Name] = struct{}{}
		}
	}
	return nil
}
