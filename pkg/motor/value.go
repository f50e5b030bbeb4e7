package motor

import (
	"fmt"
	"math"
)

// ValueKind classifies the dynamic values that flow through argsets and
// driver outputs. Modeled on the teacher's pkg/graft/value_types.go Value
// interface, trimmed to the scalar/sequence/mapping shape the generator and
// hack engine actually need (§9 "dynamic values in argsets").
type ValueKind int

const (
	KindNil ValueKind = iota
	KindString
	KindInt
	KindInt64
	KindFloat64
	KindBool
	KindSlice
	KindMap
	KindUnknown
)

func (k ValueKind) String() string {
	switch k {
	case KindNil:
		return "nil"
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindInt64:
		return "int64"
	case KindFloat64:
		return "float64"
	case KindBool:
		return "bool"
	case KindSlice:
		return "slice"
	case KindMap:
		return "map"
	default:
		return "unknown"
	}
}

// Value is a type-safe view over a raw dynamic value (an interface{} pulled
// from a path lookup), used by the `round` hack action to coerce a value
// to a number before rounding it. Everything else in this
// package operates directly on interface{}/map[string]interface{} trees, the
// same shape `encoding/json` and the YAML decoders already produce.
type Value struct {
	kind ValueKind
	raw  interface{}
}

// NewValue classifies raw into a Value.
func NewValue(raw interface{}) Value {
	switch v := raw.(type) {
	case nil:
		return Value{kind: KindNil, raw: raw}
	case string:
		return Value{kind: KindString, raw: v}
	case int:
		return Value{kind: KindInt, raw: v}
	case int64:
		return Value{kind: KindInt64, raw: v}
	case float64:
		return Value{kind: KindFloat64, raw: v}
	case float32:
		return Value{kind: KindFloat64, raw: float64(v)}
	case bool:
		return Value{kind: KindBool, raw: v}
	case []interface{}:
		return Value{kind: KindSlice, raw: v}
	case map[string]interface{}:
		return Value{kind: KindMap, raw: v}
	default:
		return Value{kind: KindUnknown, raw: raw}
	}
}

func (v Value) Kind() ValueKind    { return v.kind }
func (v Value) Raw() interface{}   { return v.raw }
func (v Value) IsNil() bool        { return v.kind == KindNil }
func (v Value) String() string     { return fmt.Sprintf("%v", v.raw) }

// AsFloat64 converts numeric kinds to float64; used by the `round` hack
// action (§4.7).
func (v Value) AsFloat64() (float64, error) {
	switch v.kind {
	case KindFloat64:
		return v.raw.(float64), nil
	case KindInt:
		return float64(v.raw.(int)), nil
	case KindInt64:
		return float64(v.raw.(int64)), nil
	default:
		return 0, fmt.Errorf("value of kind %s is not numeric", v.kind)
	}
}

// AsString renders v as a string: strings pass through, numerics and bools
// use Go's default `%v` formatting, and nil is an error. The `format_str`
// hack action does not call it; it formats the raw value directly.
func (v Value) AsString() (string, error) {
	switch v.kind {
	case KindString:
		return v.raw.(string), nil
	case KindNil:
		return "", fmt.Errorf("value is nil")
	default:
		return fmt.Sprintf("%v", v.raw), nil
	}
}

// RoundFloat rounds f to ndigits decimal places for the `round` hack action
// (§4.7): it scales by 10^ndigits, rounds to the nearest integer with
// math.Round (halves away from zero) and scales back. Unlike Python's
// round(), halves are not rounded to even, and the result is subject to
// ordinary binary floating-point error.
func RoundFloat(f float64, ndigits int) float64 {
	scale := math.Pow(10, float64(ndigits))
	return math.Round(f*scale) / scale
}
