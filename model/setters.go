package model

import (
	"fmt"
	"strconv"
	"strings"
)

// Dispatcher routes a property assignment to a typed setter. handled is
// false when the property has no typed setter and only lives in the bag.
type Dispatcher func(ident string, v any) (handled bool, err error)

// Setters is the typed setter table of a concrete model type T, keyed by
// property ident. It is declared once per type at startup.
type Setters[T any] map[string]func(T, any) error

// Bind returns a Dispatcher applying the table to target.
func (s Setters[T]) Bind(target T) Dispatcher {
	return func(ident string, v any) (bool, error) {
		fn, ok := s[ident]
		if !ok {
			return false, nil
		}
		return true, fn(target, v)
	}
}

// check rejects setters for properties the metadata does not declare.
func (s Setters[T]) check(objType string, meta *Metadata) error {
	for ident := range s {
		if _, ok := meta.Property(ident); !ok {
			return &UnknownPropertyError{ObjType: objType, Property: ident}
		}
	}
	return nil
}

// AsString converts storage values to string.
func AsString(v any) (string, error) {
	switch t := v.(type) {
	case nil:
		return "", nil
	case string:
		return t, nil
	case []byte:
		return string(t), nil
	case fmt.Stringer:
		return t.String(), nil
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64, bool:
		return fmt.Sprint(t), nil
	default:
		return "", fmt.Errorf("cannot convert %T to string", v)
	}
}

// AsInt converts storage values to int.
func AsInt(v any) (int, error) {
	switch t := v.(type) {
	case nil:
		return 0, nil
	case int:
		return t, nil
	case int8:
		return int(t), nil
	case int16:
		return int(t), nil
	case int32:
		return int(t), nil
	case int64:
		return int(t), nil
	case uint8:
		return int(t), nil
	case uint16:
		return int(t), nil
	case uint32:
		return int(t), nil
	case float32:
		return int(t), nil
	case float64:
		return int(t), nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(t))
		if err != nil {
			return 0, fmt.Errorf("cannot convert %q to int: %w", t, err)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("cannot convert %T to int", v)
	}
}

// AsBool converts storage values to bool; numeric values are true when non-zero.
func AsBool(v any) (bool, error) {
	switch t := v.(type) {
	case nil:
		return false, nil
	case bool:
		return t, nil
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(t))
		if err != nil {
			return false, fmt.Errorf("cannot convert %q to bool: %w", t, err)
		}
		return b, nil
	default:
		n, err := AsInt(v)
		if err != nil {
			return false, fmt.Errorf("cannot convert %T to bool", v)
		}
		return n != 0, nil
	}
}

// AsTranslations converts a multi-field property value to a language map.
func AsTranslations(v any) (map[string]string, error) {
	switch t := v.(type) {
	case nil:
		return map[string]string{}, nil
	case map[string]string:
		return t, nil
	case map[string]any:
		out := make(map[string]string, len(t))
		for lang, raw := range t {
			s, err := AsString(raw)
			if err != nil {
				return nil, fmt.Errorf("translation %s: %w", lang, err)
			}
			out[lang] = s
		}
		return out, nil
	default:
		return nil, fmt.Errorf("cannot convert %T to translations", v)
	}
}
