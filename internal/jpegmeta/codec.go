package jpegmeta

import (
	"bytes"
	"fmt"
	"unicode/utf8"

	"github.com/ssoj13/imagemeta/internal/codec"
	"github.com/ssoj13/imagemeta/internal/exiftags"
	"github.com/ssoj13/imagemeta/internal/types"
)

func init() {
	codec.Register(&jpegCodec{})
}

type jpegCodec struct{}

func (c *jpegCodec) Formats() []types.Format {
	return []types.Format{types.FormatJPEG}
}

func (c *jpegCodec) Detect(data []byte, _ string) (types.Format, bool) {
	if len(data) >= 3 && data[0] == 0xFF && data[1] == 0xD8 && data[2] == 0xFF {
		return types.FormatJPEG, true
	}
	return types.FormatUnknown, false
}

// Decode extracts EXIF (APP1), XMP (APP1), IPTC (APP13), the ICC
// profile (APP2) and frame dimensions. A JPEG without any metadata segment decodes to dimensions
// only; a corrupt EXIF block degrades to an issue instead of failing the
// whole open.
func (c *jpegCodec) Decode(data []byte) (*types.TagMap, []types.ValidationIssue, error) {
	segs, err := parseSegments(data)
	if err != nil {
		return nil, nil, &types.FormatError{Reason: fmt.Sprintf("invalid JPEG structure: %v", err), Err: err}
	}

	tm := types.NewTagMap()
	var issues []types.ValidationIssue

	if exifSeg := findSegment(segs, markerAPP1, exifPrefix); exifSeg != nil {
		decoded, exifIssues, err := exiftags.Decode(exifSeg)
		if err != nil {
			issues = append(issues, types.ValidationIssue{
				Severity: types.SeverityWarning,
				Message:  fmt.Sprintf("unreadable EXIF segment: %v", err),
			})
		} else {
			tm = decoded
			issues = append(issues, exifIssues...)
		}
	}

	if w, h, ok := sofDimensions(segs); ok {
		if !tm.Has("ImageWidth") {
			tm.Set("ImageWidth", types.UintValue(uint64(w)))
		}
		if !tm.Has("ImageHeight") && !tm.Has("ImageLength") {
			tm.Set("ImageHeight", types.UintValue(uint64(h)))
		}
	}

	if xmp := findSegment(segs, markerAPP1, xmpPrefix); xmp != nil && utf8.Valid(xmp) {
		tm.Set("XMP", types.StringValue(string(xmp)))
	}

	if iptc := findSegment(segs, markerAPP13, iptcPrefix); iptc != nil {
		parseIPTC(iptc, tm)
	}

	if icc := findICC(segs); icc != nil {
		tm.Set("ICCProfile", types.BytesValue(icc))
	}

	return tm, issues, nil
}

// Encode rebuilds the EXIF APP1 and ICC APP2 segments from tags and
// reassembles the file with every other segment byte-identical. XMP
// and IPTC segments are carried through untouched; their tags are
// informational.
func (c *jpegCodec) Encode(original []byte, tags *types.TagMap) ([]byte, error) {
	segs, err := parseSegments(original)
	if err != nil {
		return nil, &types.WriteError{Format: types.FormatJPEG, Reason: fmt.Sprintf("invalid JPEG structure: %v", err), Err: err}
	}

	var meta []segment
	if exiftags.HasEncodable(tags) {
		block, err := exiftags.EncodeWithHeader(tags)
		if err != nil {
			return nil, err
		}
		meta = append(meta, segment{marker: markerAPP1, data: block})
	}
	if v, ok := tags.Get("ICCProfile"); ok {
		if profile, ok := v.Bytes(); ok && len(profile) > 0 {
			meta = append(meta, iccSegments(profile)...)
		}
	}

	out := make([]segment, 0, len(segs)+len(meta))
	inserted := false
	for _, seg := range segs {
		// Drop the old EXIF and ICC segments; everything else passes
		// through.
		if seg.marker == markerAPP1 && bytes.HasPrefix(seg.data, exifPrefix) {
			continue
		}
		if seg.marker == markerAPP2 && bytes.HasPrefix(seg.data, iccPrefix) {
			continue
		}
		out = append(out, seg)
		// The rebuilt segments go right after SOI, or after JFIF's APP0
		// when one is present.
		if len(meta) > 0 && !inserted {
			switch seg.marker {
			case markerAPP0:
				out = append(out, meta...)
				inserted = true
			case markerSOI:
				if !hasMarker(segs, markerAPP0) {
					out = append(out, meta...)
					inserted = true
				}
			}
		}
	}
	return writeSegments(out), nil
}

// findSegment returns the payload of the first segment with the given
// marker and prefix, with the prefix stripped.
func findSegment(segs []segment, marker byte, prefix []byte) []byte {
	for _, seg := range segs {
		if seg.marker == marker && bytes.HasPrefix(seg.data, prefix) {
			return seg.data[len(prefix):]
		}
	}
	return nil
}

func hasMarker(segs []segment, marker byte) bool {
	for _, seg := range segs {
		if seg.marker == marker {
			return true
		}
	}
	return false
}
