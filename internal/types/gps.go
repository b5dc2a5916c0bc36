package types

import "fmt"

// GPSCoordinate is a position in signed decimal degrees.
//
// Latitude is positive north, longitude positive east. Altitude is in
// meters above sea level and only meaningful when HasAltitude is set.
type GPSCoordinate struct {
	Latitude    float64
	Longitude   float64
	Altitude    float64
	HasAltitude bool
	Timestamp   string
}

// Valid reports whether the coordinate lies in the representable range
// (|lat| <= 90, |lon| <= 180).
func (g GPSCoordinate) Valid() bool {
	return g.Latitude >= -90 && g.Latitude <= 90 &&
		g.Longitude >= -180 && g.Longitude <= 180
}

// Equal reports whether two coordinates are identical.
func (g GPSCoordinate) Equal(other GPSCoordinate) bool {
	return g == other
}

// String renders the coordinate as decimal degrees.
func (g GPSCoordinate) String() string {
	if g.HasAltitude {
		return fmt.Sprintf("%.6f, %.6f, %.1fm", g.Latitude, g.Longitude, g.Altitude)
	}
	return fmt.Sprintf("%.6f, %.6f", g.Latitude, g.Longitude)
}

// DMSToDecimal converts a degrees/minutes/seconds triple to decimal
// degrees. The reference ("N", "S", "E", "W") supplies the sign.
func DMSToDecimal(deg, min, sec float64, ref string) float64 {
	decimal := deg + min/60 + sec/3600
	if ref == "S" || ref == "W" {
		return -decimal
	}
	return decimal
}

// DecimalToDMS converts decimal degrees back to a degrees/minutes/seconds
// triple plus the reference letter for the given axis.
func DecimalToDMS(decimal float64, isLatitude bool) (deg, min, sec float64, ref string) {
	switch {
	case isLatitude && decimal < 0:
		ref = "S"
	case isLatitude:
		ref = "N"
	case decimal < 0:
		ref = "W"
	default:
		ref = "E"
	}
	if decimal < 0 {
		decimal = -decimal
	}
	deg = float64(int64(decimal))
	rem := (decimal - deg) * 60
	min = float64(int64(rem))
	sec = (rem - min) * 60
	return deg, min, sec, ref
}

// GPSFromTags derives a coordinate from the standard EXIF GPS tags in tm.
// Returns false when no latitude/longitude pair is present.
func GPSFromTags(tm *TagMap) (GPSCoordinate, bool) {
	lat, latOK := dmsTag(tm, "GPSLatitude")
	lon, lonOK := dmsTag(tm, "GPSLongitude")
	if !latOK || !lonOK {
		return GPSCoordinate{}, false
	}

	latRef := stringTagOr(tm, "GPSLatitudeRef", "N")
	lonRef := stringTagOr(tm, "GPSLongitudeRef", "E")

	g := GPSCoordinate{
		Latitude:  DMSToDecimal(lat[0], lat[1], lat[2], latRef),
		Longitude: DMSToDecimal(lon[0], lon[1], lon[2], lonRef),
	}

	if v, ok := tm.Get("GPSAltitude"); ok {
		if alt, ok := v.Float64(); ok {
			if ref, ok := tm.Get("GPSAltitudeRef"); ok {
				if n, ok := ref.Uint(); ok && n == 1 {
					alt = -alt
				}
			}
			g.Altitude = alt
			g.HasAltitude = true
		}
	}
	if ts, ok := tm.Get("GPSDateStamp"); ok {
		if s, ok := ts.Text(); ok {
			g.Timestamp = s
		}
	}
	return g, true
}

// GPSToTags writes a coordinate back out as the standard EXIF GPS tags,
// replacing any existing position.
func GPSToTags(tm *TagMap, g GPSCoordinate) {
	latD, latM, latS, latRef := DecimalToDMS(g.Latitude, true)
	lonD, lonM, lonS, lonRef := DecimalToDMS(g.Longitude, false)

	tm.Set("GPSLatitudeRef", StringValue(latRef))
	tm.Set("GPSLatitude", dmsValue(latD, latM, latS))
	tm.Set("GPSLongitudeRef", StringValue(lonRef))
	tm.Set("GPSLongitude", dmsValue(lonD, lonM, lonS))

	if g.HasAltitude {
		alt := g.Altitude
		ref := uint64(0)
		if alt < 0 {
			alt = -alt
			ref = 1
		}
		tm.Set("GPSAltitudeRef", UintValue(ref))
		tm.Set("GPSAltitude", RationalValue(NewRational(int64(alt*100), 100)))
	}
	if g.Timestamp != "" {
		tm.Set("GPSDateStamp", StringValue(g.Timestamp))
	}
}

// dmsTag reads a GPS position tag stored as a list of three rationals.
func dmsTag(tm *TagMap, name string) ([3]float64, bool) {
	v, ok := tm.Get(name)
	if !ok {
		return [3]float64{}, false
	}
	items, ok := v.List()
	if !ok || len(items) < 3 {
		// Some writers store a single decimal value instead of DMS.
		if f, ok := v.Float64(); ok {
			return [3]float64{f, 0, 0}, true
		}
		return [3]float64{}, false
	}
	var out [3]float64
	for i := 0; i < 3; i++ {
		f, ok := items[i].Float64()
		if !ok {
			return [3]float64{}, false
		}
		out[i] = f
	}
	return out, true
}

func stringTagOr(tm *TagMap, name, fallback string) string {
	if v, ok := tm.Get(name); ok {
		if s, ok := v.Text(); ok && s != "" {
			return s
		}
	}
	return fallback
}

// dmsValue encodes a DMS triple as rationals, carrying fractional seconds
// with 1/100 precision.
func dmsValue(deg, min, sec float64) Value {
	return ListValue(
		RationalValue(NewRational(int64(deg), 1)),
		RationalValue(NewRational(int64(min), 1)),
		RationalValue(NewRational(int64(sec*100+0.5), 100)),
	)
}
