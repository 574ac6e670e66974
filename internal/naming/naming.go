// Package naming converts Go struct field names to document field names.
package naming

import (
	"reflect"
	"strings"
	"unicode"
)

// DefaultFieldName converts a Go struct field name to the camelCase document
// field name. Leading acronyms stay grouped: "ID" becomes "id", "URLValue"
// becomes "urlValue", "UserID" becomes "userID".
func DefaultFieldName(name string) string {
	if name == "" {
		return ""
	}

	runes := []rune(name)
	if len(runes) == 1 {
		return strings.ToLower(name)
	}

	boundary := 1
	for boundary < len(runes) {
		if !unicode.IsUpper(runes[boundary]) {
			break
		}

		if boundary+1 < len(runes) && !unicode.IsUpper(runes[boundary+1]) {
			break
		}

		boundary++
	}

	prefix := strings.ToLower(string(runes[:boundary]))
	return prefix + string(runes[boundary:])
}

// JSONFieldName resolves the document key for a struct field. A `json` tag
// wins; an untagged field falls back to DefaultFieldName. The skip result is
// true for fields tagged `json:"-"`.
func JSONFieldName(field reflect.StructField) (name string, omitEmpty bool, skip bool) {
	tag := field.Tag.Get("json")
	if tag == "-" {
		return "", false, true
	}

	tagName, opts, _ := strings.Cut(tag, ",")
	for opts != "" {
		var opt string
		opt, opts, _ = strings.Cut(opts, ",")
		if opt == "omitempty" {
			omitEmpty = true
		}
	}

	if tagName != "" {
		return tagName, omitEmpty, false
	}
	return DefaultFieldName(field.Name), omitEmpty, false
}
