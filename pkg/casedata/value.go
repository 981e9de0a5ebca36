// Package casedata provides a typed view over the dynamically-typed data map
// carried by a case.
//
// Case data is decoded from JSON into map[string]any, so a field may hold a
// string, a number, a bool, a nested mapping, a list, or nothing at all.
// Accessors in this package never panic and never return errors: a missing
// key and a value of the wrong shape are both reported as "not ok".
package casedata

import (
	"fmt"
	"strings"
)

// Kind identifies the shape of a Value.
type Kind int

const (
	KindNull Kind = iota
	KindString
	KindNumber
	KindBool
	KindMapping
	KindList
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindMapping:
		return "mapping"
	case KindList:
		return "list"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Value wraps a single field value.
type Value struct {
	raw any
}

// Of wraps a raw decoded JSON value.
func Of(raw any) Value {
	return Value{raw: raw}
}

// Raw returns the wrapped value as decoded.
func (v Value) Raw() any {
	return v.raw
}

// Kind reports the shape of the value. Unrecognised Go types are reported as
// KindNull so that callers treat them as absent.
func (v Value) Kind() Kind {
	switch v.raw.(type) {
	case string:
		return KindString
	case float64, float32, int, int32, int64, uint, uint32, uint64:
		return KindNumber
	case bool:
		return KindBool
	case map[string]any, Data:
		return KindMapping
	case []any, []Value:
		return KindList
	default:
		return KindNull
	}
}

// IsNull reports whether the value is absent.
func (v Value) IsNull() bool {
	return v.Kind() == KindNull
}

// String returns the value as a string.
func (v Value) String() (string, bool) {
	s, ok := v.raw.(string)
	return s, ok
}

// StringOr returns the string value or def when the value is not a string.
func (v Value) StringOr(def string) string {
	if s, ok := v.String(); ok {
		return s
	}
	return def
}

// Number returns the value as a float64.
func (v Value) Number() (float64, bool) {
	switch n := v.raw.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}

// Bool returns the value as a bool.
func (v Value) Bool() (bool, bool) {
	b, ok := v.raw.(bool)
	return b, ok
}

// Mapping returns the value as nested Data.
func (v Value) Mapping() (Data, bool) {
	switch m := v.raw.(type) {
	case map[string]any:
		return Data(m), true
	case Data:
		return m, true
	}
	return nil, false
}

// List returns the value as a slice of Values.
func (v Value) List() ([]Value, bool) {
	switch l := v.raw.(type) {
	case []any:
		out := make([]Value, len(l))
		for i, item := range l {
			out[i] = Of(item)
		}
		return out, true
	case []Value:
		return l, true
	}
	return nil, false
}

// IsEmpty reports whether the value is absent, a blank string, or an empty
// mapping or list. Numbers and bools are never empty.
func (v Value) IsEmpty() bool {
	switch v.Kind() {
	case KindNull:
		return true
	case KindString:
		s, _ := v.String()
		return strings.TrimSpace(s) == ""
	case KindMapping:
		m, _ := v.Mapping()
		return len(m) == 0
	case KindList:
		l, _ := v.List()
		return len(l) == 0
	default:
		return false
	}
}

// EqualFold reports whether the value is a string equal to s under Unicode
// case folding.
func (v Value) EqualFold(s string) bool {
	str, ok := v.String()
	return ok && strings.EqualFold(str, s)
}
