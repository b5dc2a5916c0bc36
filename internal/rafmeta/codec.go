// Package rafmeta reads metadata from Fujifilm RAF files. The metadata
// lives in an embedded JPEG preview whose offset and length are stored
// big-endian in the RAF header.
package rafmeta

import (
	"bytes"
	"fmt"

	"github.com/ssoj13/imagemeta/internal/binary"
	"github.com/ssoj13/imagemeta/internal/codec"
	"github.com/ssoj13/imagemeta/internal/exiftags"
	"github.com/ssoj13/imagemeta/internal/types"
)

func init() {
	codec.Register(&rafCodec{})
}

var rafMagic = []byte("FUJIFILMCCD-RAW ")

const (
	jpegOffsetPos = 0x54
	jpegLengthPos = 0x58
)

type rafCodec struct{}

func (c *rafCodec) Formats() []types.Format {
	return []types.Format{types.FormatRAF}
}

func (c *rafCodec) Detect(data []byte, _ string) (types.Format, bool) {
	if bytes.HasPrefix(data, rafMagic) {
		return types.FormatRAF, true
	}
	return types.FormatUnknown, false
}

func (c *rafCodec) Decode(data []byte) (*types.TagMap, []types.ValidationIssue, error) {
	sr := binary.NewSafeReader(data)

	offset, err := binary.ReadBE[uint32](sr, jpegOffsetPos, "JPEG preview offset")
	if err != nil {
		return nil, nil, &types.FormatError{Reason: fmt.Sprintf("invalid RAF header: %v", err), Err: err}
	}
	length, err := binary.ReadBE[uint32](sr, jpegLengthPos, "JPEG preview length")
	if err != nil {
		return nil, nil, &types.FormatError{Reason: fmt.Sprintf("invalid RAF header: %v", err), Err: err}
	}

	preview, err := sr.Bytes(int64(offset), int64(length), "JPEG preview")
	if err != nil {
		return nil, nil, &types.FormatError{Reason: fmt.Sprintf("invalid RAF preview bounds: %v", err), Err: err}
	}

	// The preview is a regular EXIF JPEG; lift its APP1 block.
	tm := types.NewTagMap()
	var issues []types.ValidationIssue
	if block := findJPEGExif(preview); block != nil {
		decoded, exifIssues, err := exiftags.Decode(exiftags.TrimHeader(block))
		if err != nil {
			issues = append(issues, types.ValidationIssue{
				Severity: types.SeverityWarning,
				Message:  fmt.Sprintf("unreadable EXIF in RAF preview: %v", err),
			})
		} else {
			tm = decoded
			issues = append(issues, exifIssues...)
		}
	}
	if len(preview) > 0 {
		tm.Set("PreviewImage", types.BytesValue(bytes.Clone(preview)))
	}
	return tm, issues, nil
}

// findJPEGExif scans JPEG marker segments for the EXIF APP1 payload. A
// local scan avoids coupling to the JPEG codec package layout.
func findJPEGExif(data []byte) []byte {
	if len(data) < 2 || data[0] != 0xFF || data[1] != 0xD8 {
		return nil
	}
	prefix := []byte("Exif\x00\x00")
	i := 2
	for i+4 <= len(data) {
		if data[i] != 0xFF {
			return nil
		}
		marker := data[i+1]
		if marker == 0xD9 || marker == 0xDA {
			return nil
		}
		segLen := int(data[i+2])<<8 | int(data[i+3])
		if segLen < 2 || i+2+segLen > len(data) {
			return nil
		}
		payload := data[i+4 : i+2+segLen]
		if marker == 0xE1 && bytes.HasPrefix(payload, prefix) {
			return payload[len(prefix):]
		}
		i += 2 + segLen
	}
	return nil
}

// Encode is not supported: RAF files are camera originals.
func (c *rafCodec) Encode(_ []byte, _ *types.TagMap) ([]byte, error) {
	return nil, &types.WriteError{Format: types.FormatRAF, Reason: "RAF files are read-only"}
}
