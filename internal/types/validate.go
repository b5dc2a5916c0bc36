package types

import (
	"fmt"
	"strings"
)

// Severity classifies a ValidationIssue.
type Severity int

const (
	// SeverityWarning marks values that are unusual but usable.
	SeverityWarning Severity = iota
	// SeverityError marks values that violate the field's definition.
	SeverityError
)

// String returns the severity name.
func (s Severity) String() string {
	if s == SeverityError {
		return "error"
	}
	return "warning"
}

// ValidationIssue describes a structural anomaly found in decoded
// metadata. Issues never abort extraction: they ride along with the
// successfully produced Image as diagnostic data.
type ValidationIssue struct {
	// Severity of the anomaly.
	Severity Severity
	// Tag that triggered the issue, empty for file-level issues.
	Tag string
	// Human-readable description.
	Message string
}

// String returns a human-readable one-line form.
func (i ValidationIssue) String() string {
	if i.Tag != "" {
		return fmt.Sprintf("%s: %s: %s", i.Severity, i.Tag, i.Message)
	}
	return fmt.Sprintf("%s: %s", i.Severity, i.Message)
}

// ValidateTags checks decoded metadata for common structural problems:
// out-of-range GPS coordinates, impossible orientation, zero dimensions,
// malformed datetimes, non-positive exposure values. Out-of-range values
// stay in the map; the issues only describe them.
func ValidateTags(tm *TagMap) []ValidationIssue {
	var issues []ValidationIssue

	if g, ok := GPSFromTags(tm); ok {
		if g.Latitude < -90 || g.Latitude > 90 {
			issues = append(issues, ValidationIssue{
				Severity: SeverityError,
				Tag:      "GPSLatitude",
				Message:  fmt.Sprintf("invalid latitude %g: must be -90 to 90", g.Latitude),
			})
		}
		if g.Longitude < -180 || g.Longitude > 180 {
			issues = append(issues, ValidationIssue{
				Severity: SeverityError,
				Tag:      "GPSLongitude",
				Message:  fmt.Sprintf("invalid longitude %g: must be -180 to 180", g.Longitude),
			})
		}
	}

	if v, ok := tm.Get("Orientation"); ok {
		if n, ok := v.Uint(); ok && (n < 1 || n > 8) {
			issues = append(issues, ValidationIssue{
				Severity: SeverityError,
				Tag:      "Orientation",
				Message:  fmt.Sprintf("invalid orientation %d: must be 1-8", n),
			})
		}
	}

	for _, name := range []string{"ISO", "ISOSpeedRatings"} {
		if v, ok := tm.Get(name); ok {
			if n, ok := v.Uint(); ok && (n == 0 || n > 10_000_000) {
				issues = append(issues, ValidationIssue{
					Severity: SeverityWarning,
					Tag:      name,
					Message:  fmt.Sprintf("suspicious ISO value %d", n),
				})
			}
		}
	}

	for _, name := range []string{"ImageWidth", "ImageHeight", "PixelXDimension", "PixelYDimension"} {
		if v, ok := tm.Get(name); ok {
			if n, ok := v.Uint(); ok && n == 0 {
				issues = append(issues, ValidationIssue{
					Severity: SeverityError,
					Tag:      name,
					Message:  "dimension is 0",
				})
			}
		}
	}

	for _, name := range []string{"DateTime", "DateTimeOriginal", "DateTimeDigitized", "CreateDate", "ModifyDate"} {
		if v, ok := tm.Get(name); ok {
			if s, ok := v.Text(); ok && !ValidDateTime(s) {
				issues = append(issues, ValidationIssue{
					Severity: SeverityWarning,
					Tag:      name,
					Message:  fmt.Sprintf("invalid datetime format: %q", s),
				})
			}
		}
	}

	for _, name := range []string{"ExposureTime", "FNumber"} {
		if v, ok := tm.Get(name); ok {
			if f, ok := v.Float64(); ok && f <= 0 {
				issues = append(issues, ValidationIssue{
					Severity: SeverityError,
					Tag:      name,
					Message:  fmt.Sprintf("non-positive value: %g", f),
				})
			}
		}
	}

	return issues
}

// ValidDateTime reports whether s looks like an EXIF datetime
// ("YYYY:MM:DD HH:MM:SS", with "-" and "T" separators tolerated).
func ValidDateTime(s string) bool {
	s = strings.TrimSpace(s)
	if len(s) < 10 {
		return false
	}
	date, _, _ := strings.Cut(strings.NewReplacer("T", " ").Replace(s), " ")
	parts := strings.FieldsFunc(date, func(r rune) bool { return r == ':' || r == '-' })
	if len(parts) != 3 {
		return false
	}
	year, err1 := atoiStrict(parts[0])
	month, err2 := atoiStrict(parts[1])
	day, err3 := atoiStrict(parts[2])
	if err1 != nil || err2 != nil || err3 != nil {
		return false
	}
	return year >= 1800 && year <= 3000 && month >= 1 && month <= 12 && day >= 1 && day <= 31
}

func atoiStrict(s string) (int, error) {
	n := 0
	if s == "" {
		return 0, fmt.Errorf("empty")
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("non-digit %q", r)
		}
		n = n*10 + int(r-'0')
	}
	return n, nil
}
