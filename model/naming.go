package model

import (
	"path"
	"reflect"
	"strings"
	"unicode"

	"github.com/jinzhu/inflection"
)

// typeIdent derives the type identifier "<package>/<snake_name>" and the
// default table name from the concrete Go type of T.
func typeIdent[T any]() (ident, table string) {
	t := reflect.TypeFor[T]()
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	name := toSnake(t.Name())
	ident = name
	if pkg := path.Base(t.PkgPath()); pkg != "" && pkg != "." {
		ident = toSnake(pkg) + "/" + name
	}
	return ident, inflection.Plural(name)
}

// toSnake converts s to snake_case. Punctuation from reflected type names
// (generic brackets, pointer markers) collapses into single underscores.
func toSnake(s string) string {
	if s == "" {
		return ""
	}

	runes := []rune(s)
	var b strings.Builder
	b.Grow(len(runes) + len(runes)/2)

	lastUnderscore := false
	sep := func() {
		if !lastUnderscore && b.Len() > 0 {
			b.WriteByte('_')
			lastUnderscore = true
		}
	}

	for i, r := range runes {
		switch {
		case unicode.IsUpper(r):
			if i > 0 {
				prev := runes[i-1]
				nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
				if unicode.IsLower(prev) || unicode.IsDigit(prev) || nextLower {
					sep()
				}
			}
			b.WriteRune(unicode.ToLower(r))
			lastUnderscore = false

		case unicode.IsLower(r):
			b.WriteRune(r)
			lastUnderscore = false

		case unicode.IsDigit(r):
			if i > 0 && !unicode.IsDigit(runes[i-1]) {
				sep()
			}
			b.WriteRune(r)
			lastUnderscore = false

		default:
			sep()
		}
	}

	return strings.Trim(b.String(), "_")
}
