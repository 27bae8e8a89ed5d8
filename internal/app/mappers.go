package app

import (
	"encoding/json"
	"strconv"
	"strings"
)

/********** tiny helpers over untrusted JSON **********/

// lookupAny: safe nested lookup with dot paths on maps.
func lookupAny(m map[string]any, path string) any {
	cur := any(m)
	for _, part := range strings.Split(path, ".") {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		v, ok := obj[part]
		if !ok {
			return nil
		}
		cur = v
	}
	return cur
}

// lookupMap returns the object at path, or an empty map when it is missing
// or not an object.
func lookupMap(m map[string]any, path string) map[string]any {
	if obj, ok := lookupAny(m, path).(map[string]any); ok {
		return obj
	}
	return map[string]any{}
}

// textOf renders scalars as text. Objects, arrays and null yield "".
func textOf(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	}
	return ""
}

// floatOf: number from float64/int/json.Number or a numeric string.
func floatOf(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		return f, err == nil
	}
	return 0, false
}

// boolOf reads a flag. Strings parse as booleans ("false" and "0" are false)
// and any other non-empty string is true; missing or null yields def.
func boolOf(v any, def bool) bool {
	switch t := v.(type) {
	case nil:
		return def
	case bool:
		return t
	case string:
		s := strings.TrimSpace(t)
		if b, err := strconv.ParseBool(s); err == nil {
			return b
		}
		return s != ""
	case []any:
		return len(t) > 0
	case map[string]any:
		return len(t) > 0
	}
	if f, ok := floatOf(v); ok {
		return f != 0
	}
	return def
}

// stringsOf keeps the string entries of a JSON array untouched.
func stringsOf(v any) []string {
	out := []string{}
	switch t := v.(type) {
	case []string:
		out = append(out, t...)
	case []any:
		for _, it := range t {
			if s, ok := it.(string); ok {
				out = append(out, s)
			}
		}
	}
	return out
}
