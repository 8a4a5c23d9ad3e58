package cache

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/vmihailenco/msgpack/v5"
)

// KeySeparator separates the segments of a serialized key.
const KeySeparator = "::"

// RequestKey fingerprints a request as "request/<METHOD>/<hash>", where
// hash is the hex xxhash64 of the normalised URI.
func RequestKey(method, uri string) string {
	return fmt.Sprintf("request/%s/%016x", strings.ToUpper(method), xxhash.Sum64String(uri))
}

type defaultKeySerializer struct{}

// NewDefaultKeySerializer returns a serializer rendering scalars verbatim,
// collections recursively and anything else as a hash of its msgpack
// encoding.
func NewDefaultKeySerializer() KeySerializer {
	return defaultKeySerializer{}
}

func (s defaultKeySerializer) SerializeKey(method string, args ...any) string {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, method)
	for _, arg := range args {
		parts = append(parts, s.value(arg))
	}
	return strings.Join(parts, KeySeparator)
}

func (s defaultKeySerializer) value(v any) string {
	if v == nil {
		return "nil"
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer && rv.IsNil() {
		return "nil"
	}

	switch t := v.(type) {
	case string:
		return t
	case fmt.Stringer:
		return t.String()
	}

	switch rv.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64, reflect.String:
		return fmt.Sprint(v)

	case reflect.Func, reflect.Chan:
		return fmt.Sprintf("%s:%p", rv.Kind(), v)

	case reflect.Pointer:
		return s.value(rv.Elem().Interface())

	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return "slice:nil"
		}
		items := make([]string, rv.Len())
		for i := range items {
			items[i] = s.value(rv.Index(i).Interface())
		}
		return fmt.Sprintf("[%s]", strings.Join(items, ","))

	case reflect.Map:
		if rv.IsNil() {
			return "map:nil"
		}
		pairs := make([]string, 0, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			pairs = append(pairs, s.value(iter.Key().Interface())+"="+s.value(iter.Value().Interface()))
		}
		sort.Strings(pairs)
		return fmt.Sprintf("{%s}", strings.Join(pairs, ","))
	}

	encoded, err := msgpack.Marshal(v)
	if err != nil {
		return fmt.Sprintf("type:%T", v)
	}
	return fmt.Sprintf("h:%016x", xxhash.Sum64(encoded))
}
