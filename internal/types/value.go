package types

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// Kind identifies the dynamic type stored in a Value.
type Kind uint8

const (
	// KindInvalid is the zero Value's kind.
	KindInvalid Kind = iota
	// KindInt holds a signed 64-bit integer.
	KindInt
	// KindUint holds an unsigned 64-bit integer.
	KindUint
	// KindFloat holds a 64-bit float.
	KindFloat
	// KindRational holds an exact fraction.
	KindRational
	// KindString holds a text value.
	KindString
	// KindBytes holds an opaque byte sequence.
	KindBytes
	// KindGPS holds a GPS coordinate.
	KindGPS
	// KindList holds an ordered list of Values.
	KindList
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindUint:
		return "uint"
	case KindFloat:
		return "float"
	case KindRational:
		return "rational"
	case KindString:
		return "string"
	case KindBytes:
		return "bytes"
	case KindGPS:
		return "gps"
	case KindList:
		return "list"
	default:
		return "invalid"
	}
}

// Value is an immutable tagged union over the types a metadata tag can
// hold. The zero Value is invalid; construct values with IntValue,
// StringValue and the other constructors.
type Value struct {
	kind Kind
	i    int64
	u    uint64
	f    float64
	r    Rational
	s    string
	b    []byte
	g    GPSCoordinate
	l    []Value
}

// IntValue returns a Value holding a signed integer.
func IntValue(v int64) Value { return Value{kind: KindInt, i: v} }

// UintValue returns a Value holding an unsigned integer.
func UintValue(v uint64) Value { return Value{kind: KindUint, u: v} }

// FloatValue returns a Value holding a float.
func FloatValue(v float64) Value { return Value{kind: KindFloat, f: v} }

// RationalValue returns a Value holding an exact fraction.
func RationalValue(r Rational) Value { return Value{kind: KindRational, r: r} }

// StringValue returns a Value holding text.
func StringValue(s string) Value { return Value{kind: KindString, s: s} }

// BytesValue returns a Value holding an opaque byte sequence.
// The input slice is copied so later mutation cannot leak in.
func BytesValue(b []byte) Value { return Value{kind: KindBytes, b: slices.Clone(b)} }

// GPSValue returns a Value holding a GPS coordinate.
func GPSValue(g GPSCoordinate) Value { return Value{kind: KindGPS, g: g} }

// ListValue returns a Value holding an ordered list of Values.
func ListValue(items ...Value) Value { return Value{kind: KindList, l: slices.Clone(items)} }

// Kind returns the dynamic kind of the value.
func (v Value) Kind() Kind { return v.kind }

// IsZero reports whether v is the invalid zero Value.
func (v Value) IsZero() bool { return v.kind == KindInvalid }

// Int returns the value as a signed integer. Unsigned integers convert
// when they fit.
func (v Value) Int() (int64, bool) {
	switch v.kind {
	case KindInt:
		return v.i, true
	case KindUint:
		if v.u <= uint64(1<<63-1) {
			return int64(v.u), true
		}
	}
	return 0, false
}

// Uint returns the value as an unsigned integer. Non-negative signed
// integers convert.
func (v Value) Uint() (uint64, bool) {
	switch v.kind {
	case KindUint:
		return v.u, true
	case KindInt:
		if v.i >= 0 {
			return uint64(v.i), true
		}
	}
	return 0, false
}

// Float64 returns a numeric value as a float. Integers and rationals
// convert lossily.
func (v Value) Float64() (float64, bool) {
	switch v.kind {
	case KindFloat:
		return v.f, true
	case KindInt:
		return float64(v.i), true
	case KindUint:
		return float64(v.u), true
	case KindRational:
		return v.r.Float64(), true
	}
	return 0, false
}

// Rational returns the value as an exact fraction. Integers convert with
// denominator 1.
func (v Value) Rational() (Rational, bool) {
	switch v.kind {
	case KindRational:
		return v.r, true
	case KindInt:
		return Rational{Num: v.i, Den: 1}, true
	case KindUint:
		if v.u <= uint64(1<<63-1) {
			return Rational{Num: int64(v.u), Den: 1}, true
		}
	}
	return Rational{}, false
}

// Text returns the value as a string if it holds text.
func (v Value) Text() (string, bool) {
	if v.kind == KindString {
		return v.s, true
	}
	return "", false
}

// Bytes returns a copy of the byte sequence if the value holds one.
func (v Value) Bytes() ([]byte, bool) {
	if v.kind == KindBytes {
		return slices.Clone(v.b), true
	}
	return nil, false
}

// GPS returns the coordinate if the value holds one.
func (v Value) GPS() (GPSCoordinate, bool) {
	if v.kind == KindGPS {
		return v.g, true
	}
	return GPSCoordinate{}, false
}

// List returns a copy of the element list if the value holds one.
func (v Value) List() ([]Value, bool) {
	if v.kind == KindList {
		return slices.Clone(v.l), true
	}
	return nil, false
}

// Equal reports whether two values hold the same kind and content.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindInt:
		return v.i == other.i
	case KindUint:
		return v.u == other.u
	case KindFloat:
		return v.f == other.f
	case KindRational:
		return v.r == other.r
	case KindString:
		return v.s == other.s
	case KindBytes:
		return slices.Equal(v.b, other.b)
	case KindGPS:
		return v.g.Equal(other.g)
	case KindList:
		return slices.EqualFunc(v.l, other.l, Value.Equal)
	default:
		return true
	}
}

// Display renders the value for human consumption. Byte sequences render
// as a length marker instead of raw bytes, rationals as "num/den".
func (v Value) Display() string {
	switch v.kind {
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindUint:
		return strconv.FormatUint(v.u, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindRational:
		return v.r.String()
	case KindString:
		return v.s
	case KindBytes:
		return fmt.Sprintf("<%d bytes>", len(v.b))
	case KindGPS:
		return v.g.String()
	case KindList:
		parts := make([]string, len(v.l))
		for i, item := range v.l {
			parts[i] = item.Display()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		return ""
	}
}

// exportValue returns the representation used for JSON export: safe text
// for bytes and rationals, native numbers otherwise.
func (v Value) exportValue() any {
	switch v.kind {
	case KindInt:
		return v.i
	case KindUint:
		return v.u
	case KindFloat:
		return v.f
	case KindRational:
		return v.r.String()
	case KindString:
		return v.s
	case KindBytes:
		return fmt.Sprintf("<%d bytes>", len(v.b))
	case KindGPS:
		return v.g
	case KindList:
		out := make([]any, len(v.l))
		for i, item := range v.l {
			out[i] = item.exportValue()
		}
		return out
	default:
		return nil
	}
}
