package graph

import (
	"sort"
	"strconv"
)

// Kind is the type tag of a Value.
type Kind uint8

const (
	KindString Kind = iota
	KindBool
	KindLong
	KindDouble
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindLong:
		return "long"
	case KindDouble:
		return "double"
	default:
		return "string"
	}
}

// Value is a scalar attribute value.
type Value struct {
	kind Kind
	s    string
	b    bool
	i    int64
	f    float64
}

// String wraps a string value.
func String(s string) Value { return Value{kind: KindString, s: s} }

// Bool wraps a boolean value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Long wraps an integer value.
func Long(i int64) Value { return Value{kind: KindLong, i: i} }

// Double wraps a floating point value.
func Double(f float64) Value { return Value{kind: KindDouble, f: f} }

// Kind returns the type tag.
func (v Value) Kind() Kind { return v.kind }

// Str returns the string payload; empty for other kinds.
func (v Value) Str() string { return v.s }

// BoolVal returns the bool payload.
func (v Value) BoolVal() bool { return v.b }

// LongVal returns the integer payload.
func (v Value) LongVal() int64 { return v.i }

// DoubleVal returns the float payload.
func (v Value) DoubleVal() float64 { return v.f }

// Interface returns the payload as a plain Go value.
func (v Value) Interface() interface{} {
	switch v.kind {
	case KindBool:
		return v.b
	case KindLong:
		return v.i
	case KindDouble:
		return v.f
	default:
		return v.s
	}
}

// String renders the value the way CSV sinks expect it.
func (v Value) String() string {
	switch v.kind {
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindLong:
		return strconv.FormatInt(v.i, 10)
	case KindDouble:
		return strconv.FormatFloat(v.f, 'f', -1, 64)
	default:
		return v.s
	}
}

// Attributes maps property names to values.
type Attributes map[string]Value

// Keys returns attribute names in sorted order.
func (a Attributes) Keys() []string {
	keys := make([]string, 0, len(a))
	for k := range a {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Clone returns a shallow copy.
func (a Attributes) Clone() Attributes {
	if a == nil {
		return nil
	}
	out := make(Attributes, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}
