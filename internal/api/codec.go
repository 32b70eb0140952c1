package api

import (
	"bytes"
	"encoding/json"
	"strings"
	"unicode"
)

// The backend speaks snake_case; Go-side types are tagged lowerCamel. One
// pure key rewrite is applied at the wire boundary in each direction so the
// two conventions round-trip losslessly. Values are never touched.

// toSnake converts a lowerCamel key to snake_case: each upper-case rune
// becomes an underscore plus its lower-case form.
func toSnake(key string) string {
	var b strings.Builder
	b.Grow(len(key) + 4)
	for _, r := range key {
		if unicode.IsUpper(r) {
			b.WriteByte('_')
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// toCamel is the inverse of toSnake for keys toSnake can produce: an
// underscore followed by a letter becomes the upper-case letter.
func toCamel(key string) string {
	var b strings.Builder
	b.Grow(len(key))
	upperNext := false
	for _, r := range key {
		if r == '_' {
			upperNext = true
			continue
		}
		if upperNext {
			b.WriteRune(unicode.ToUpper(r))
			upperNext = false
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// convertKeys rewrites every object key in raw with fn, recursing through
// nested objects and arrays. Numbers pass through verbatim (json.Number) and
// explicit nulls are preserved.
func convertKeys(raw []byte, fn func(string) string) ([]byte, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return json.Marshal(rewrite(v, fn))
}

func rewrite(v any, fn func(string) string) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[fn(k)] = rewrite(val, fn)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = rewrite(val, fn)
		}
		return out
	default:
		return v
	}
}
