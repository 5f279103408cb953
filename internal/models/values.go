package models

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Helpers for probing loosely typed JSON. None of them fail; a wrong type
// reads as absent.

func AsMap(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

func AsSlice(v any) []any {
	s, _ := v.([]any)
	return s
}

// Lookup follows a path of object keys.
func Lookup(v any, path ...string) (any, bool) {
	cur := v
	for _, key := range path {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[key]
		if !ok || cur == nil {
			return nil, false
		}
	}
	return cur, cur != nil
}

// AsFloat converts numeric JSON values. Strings are not coerced.
func AsFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case json.Number:
		f, err := n.Float64()
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return 0, false
		}
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

// FloatPtr is AsFloat returning nil for absent values.
func FloatPtr(v any) *float64 {
	f, ok := AsFloat(v)
	if !ok {
		return nil
	}
	return &f
}

func AsInt(v any) (int, bool) {
	f, ok := AsFloat(v)
	if !ok {
		return 0, false
	}
	return int(f), true
}

func AsString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

// AsBool reads a JSON boolean; anything else is false.
func AsBool(v any) bool {
	b, _ := v.(bool)
	return b
}

// Truthy mirrors how the dashboard treats optional values: nil, false,
// zero, the empty string and empty collections are all falsy.
func Truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case map[string]any:
		return true
	case []any:
		return true
	default:
		if f, ok := AsFloat(v); ok {
			return f != 0
		}
		return true
	}
}

// StringList reads a JSON array of strings, skipping other element types.
func StringList(v any) ([]string, bool) {
	items, ok := v.([]any)
	if !ok {
		if ss, ok := v.([]string); ok {
			return ss, true
		}
		return nil, false
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out, true
}

// CellText renders a table cell the way it appears in the page and in CSV.
// Numbers keep their original text.
func CellText(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case map[string]any, []any:
		b, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return string(b)
	default:
		return fmt.Sprint(t)
	}
}

// TextOf renders free-form values (interpretations, labels) as display text.
func TextOf(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	default:
		return CellText(t)
	}
}
