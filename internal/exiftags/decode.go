package exiftags

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	goexif "github.com/rwcarlsen/goexif/exif"
	gtiff "github.com/rwcarlsen/goexif/tiff"

	"github.com/ssoj13/imagemeta/internal/types"
)

// exifHeader prefixes the TIFF block inside JPEG APP1 and WebP EXIF
// chunks.
var exifHeader = []byte("Exif\x00\x00")

// TrimHeader strips a leading "Exif\0\0" marker if present, returning
// the bare TIFF block.
func TrimHeader(data []byte) []byte {
	return bytes.TrimPrefix(data, exifHeader)
}

// structuralFields are goexif names that describe the IFD layout rather
// than image metadata: sub-IFD pointers and thumbnail offsets are stale
// the moment the block is re-encoded, so they never enter the TagMap.
var structuralFields = map[string]bool{
	"ExifIFDPointer":                   true,
	"GPSInfoIFDPointer":                true,
	"InteroperabilityIFDPointer":       true,
	"ThumbJPEGInterchangeFormat":       true,
	"ThumbJPEGInterchangeFormatLength": true,
}

// Decode parses a TIFF-structured EXIF block (without the "Exif\0\0"
// prefix) into a TagMap.
//
// goexif walks its parsed fields in map order, so entries are sorted by
// name before insertion: repeated opens of the same file then produce
// identical TagMaps, which the scan layer relies on.
//
// IFD0 tags goexif has no name for are kept under the generic Tag_0xNNNN
// form the encoder accepts, so unrecognized vendor tags survive a
// decode/encode round trip. An embedded IFD1 JPEG thumbnail surfaces as
// the bytes tag "ThumbnailImage".
func Decode(tiffData []byte) (*types.TagMap, []types.ValidationIssue, error) {
	x, err := goexif.Decode(bytes.NewReader(tiffData))
	if err != nil {
		return nil, nil, fmt.Errorf("exif decode: %w", err)
	}

	type field struct {
		name string
		val  types.Value
	}
	var fields []field
	var issues []types.ValidationIssue
	walked := make(map[*gtiff.Tag]bool)

	walkErr := x.Walk(walkFunc(func(name goexif.FieldName, tag *gtiff.Tag) error {
		walked[tag] = true
		if structuralFields[string(name)] {
			return nil
		}
		v, ok := convertTag(tag)
		if !ok {
			issues = append(issues, types.ValidationIssue{
				Severity: types.SeverityWarning,
				Tag:      string(name),
				Message:  "unreadable tag value, skipped",
			})
			return nil
		}
		fields = append(fields, field{name: string(name), val: v})
		return nil
	}))
	if walkErr != nil {
		return nil, nil, fmt.Errorf("exif walk: %w", walkErr)
	}

	// goexif silently drops IFD0 tags outside its field dictionary; they
	// are the ones left unwalked in the main directory.
	if len(x.Tiff.Dirs) > 0 {
		for _, tag := range x.Tiff.Dirs[0].Tags {
			if walked[tag] {
				continue
			}
			if v, ok := convertTag(tag); ok {
				fields = append(fields, field{name: genericTagName(tag.Id), val: v})
			}
		}
	}

	if thumb, err := x.JpegThumbnail(); err == nil && len(thumb) > 0 {
		fields = append(fields, field{name: "ThumbnailImage", val: types.BytesValue(thumb)})
	}

	sort.Slice(fields, func(i, j int) bool { return fields[i].name < fields[j].name })

	tm := types.NewTagMap()
	for _, f := range fields {
		tm.Set(f.name, f.val)
	}
	issues = append(issues, types.ValidateTags(tm)...)
	return tm, issues, nil
}

// walkFunc adapts a function to goexif's Walker interface.
type walkFunc func(goexif.FieldName, *gtiff.Tag) error

func (f walkFunc) Walk(name goexif.FieldName, tag *gtiff.Tag) error {
	return f(name, tag)
}

// convertTag turns a goexif tag into a typed Value. Multi-count tags
// become lists (GPS positions are three rationals).
func convertTag(tag *gtiff.Tag) (types.Value, bool) {
	count := int(tag.Count)
	switch tag.Type {
	case gtiff.DTAscii:
		s, err := tag.StringVal()
		if err != nil {
			// tag.String quotes ASCII values; fall back to that form.
			s = strings.Trim(tag.String(), `"`)
		}
		return types.StringValue(strings.TrimRight(s, "\x00")), true

	case gtiff.DTByte, gtiff.DTShort, gtiff.DTLong:
		return convertEach(count, func(i int) (types.Value, bool) {
			n, err := tag.Int(i)
			if err != nil {
				return types.Value{}, false
			}
			return types.UintValue(uint64(n)), true
		})

	case gtiff.DTSByte, gtiff.DTSShort, gtiff.DTSLong:
		return convertEach(count, func(i int) (types.Value, bool) {
			n, err := tag.Int(i)
			if err != nil {
				return types.Value{}, false
			}
			return types.IntValue(int64(n)), true
		})

	case gtiff.DTRational, gtiff.DTSRational:
		return convertEach(count, func(i int) (types.Value, bool) {
			num, den, err := tag.Rat2(i)
			if err != nil {
				return types.Value{}, false
			}
			return types.RationalValue(types.NewRational(num, den)), true
		})

	case gtiff.DTFloat, gtiff.DTDouble:
		return convertEach(count, func(i int) (types.Value, bool) {
			f, err := tag.Float(i)
			if err != nil {
				return types.Value{}, false
			}
			return types.FloatValue(f), true
		})

	default:
		// Undefined and anything else stays opaque.
		return types.BytesValue(tag.Val), true
	}
}

// convertEach builds a single value or a list depending on count.
func convertEach(count int, get func(int) (types.Value, bool)) (types.Value, bool) {
	if count <= 1 {
		return get(0)
	}
	items := make([]types.Value, 0, count)
	for i := 0; i < count; i++ {
		v, ok := get(i)
		if !ok {
			return types.Value{}, false
		}
		items = append(items, v)
	}
	return types.ListValue(items...), true
}
