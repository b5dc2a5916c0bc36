package imagemeta

import (
	"github.com/ssoj13/imagemeta/internal/types"
)

// Value is an alias to types.Value.
// Re-exporting from internal/types to maintain one public API surface.
type Value = types.Value

// Kind is an alias to types.Kind.
type Kind = types.Kind

// Re-export value kinds.
const (
	KindInvalid  = types.KindInvalid
	KindInt      = types.KindInt
	KindUint     = types.KindUint
	KindFloat    = types.KindFloat
	KindRational = types.KindRational
	KindString   = types.KindString
	KindBytes    = types.KindBytes
	KindGPS      = types.KindGPS
	KindList     = types.KindList
)

// Rational is an alias to types.Rational.
type Rational = types.Rational

// GPSCoordinate is an alias to types.GPSCoordinate.
type GPSCoordinate = types.GPSCoordinate

// TagMap is an alias to types.TagMap.
type TagMap = types.TagMap

// NewRational builds a rational reduced to lowest terms with the sign
// carried by the numerator.
func NewRational(num, den int64) Rational { return types.NewRational(num, den) }

// Value constructors, re-exported so callers never import internal/types.

func IntValue(v int64) Value         { return types.IntValue(v) }
func UintValue(v uint64) Value       { return types.UintValue(v) }
func FloatValue(v float64) Value     { return types.FloatValue(v) }
func RationalValue(r Rational) Value { return types.RationalValue(r) }
func StringValue(s string) Value     { return types.StringValue(s) }
func BytesValue(b []byte) Value      { return types.BytesValue(b) }
func GPSValue(g GPSCoordinate) Value { return types.GPSValue(g) }
func ListValue(items ...Value) Value { return types.ListValue(items...) }

// DMSToDecimal converts degrees/minutes/seconds with a hemisphere
// reference ("N", "S", "E", "W") into signed decimal degrees.
func DMSToDecimal(deg, min, sec float64, ref string) float64 {
	return types.DMSToDecimal(deg, min, sec, ref)
}

// DecimalToDMS converts signed decimal degrees into degrees, minutes,
// seconds and a hemisphere reference.
func DecimalToDMS(decimal float64, isLatitude bool) (deg, min, sec float64, ref string) {
	return types.DecimalToDMS(decimal, isLatitude)
}
