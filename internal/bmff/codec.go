// Package bmff reads metadata from ISO Base Media File Format
// containers: HEIC, AVIF and Canon CR3. The major and compatible brands
// of the ftyp box identify the format; EXIF payloads are located through
// the meta box item tables where possible and by an Exif header scan as
// a fallback.
package bmff

import (
	"bytes"
	"fmt"

	"github.com/ssoj13/imagemeta/internal/binary"
	"github.com/ssoj13/imagemeta/internal/codec"
	"github.com/ssoj13/imagemeta/internal/exiftags"
	"github.com/ssoj13/imagemeta/internal/types"
)

func init() {
	codec.Register(&bmffCodec{})
}

// brandFormats maps ftyp brands onto formats.
var brandFormats = map[string]types.Format{
	"heic": types.FormatHEIC,
	"heix": types.FormatHEIC,
	"hevc": types.FormatHEIC,
	"mif1": types.FormatHEIC,
	"msf1": types.FormatHEIC,
	"avif": types.FormatAVIF,
	"avis": types.FormatAVIF,
	"crx ": types.FormatCR3,
}

type bmffCodec struct{}

func (c *bmffCodec) Formats() []types.Format {
	return []types.Format{types.FormatHEIC, types.FormatAVIF, types.FormatCR3}
}

func (c *bmffCodec) Detect(data []byte, _ string) (types.Format, bool) {
	if len(data) < 12 || !bytes.Equal(data[4:8], []byte("ftyp")) {
		return types.FormatUnknown, false
	}
	if f, ok := brandFormats[string(data[8:12])]; ok {
		return f, true
	}
	// Fall back to compatible brands inside the ftyp box.
	size := int(uint32(data[0])<<24 | uint32(data[1])<<16 | uint32(data[2])<<8 | uint32(data[3]))
	if size > len(data) {
		size = len(data)
	}
	for i := 16; i+4 <= size; i += 4 {
		if f, ok := brandFormats[string(data[i:i+4])]; ok {
			return f, true
		}
	}
	return types.FormatUnknown, false
}

// box is one top-level or nested BMFF box.
type box struct {
	typ    string
	offset int64
	size   int64
}

// walkBoxes enumerates the boxes between start and end, handling 64-bit
// large sizes and the size-zero "extends to end" convention.
func walkBoxes(sr *binary.SafeReader, start, end int64, fn func(b box) error) error {
	off := start
	for off+8 <= end {
		size32, err := binary.ReadBE[uint32](sr, off, "box size")
		if err != nil {
			return err
		}
		typBytes, err := sr.Bytes(off+4, 4, "box type")
		if err != nil {
			return err
		}
		typ := string(typBytes)

		headerLen := int64(8)
		size := int64(size32)
		switch size32 {
		case 0:
			size = end - off
		case 1:
			size64, err := binary.ReadBE[uint64](sr, off+8, "large box size")
			if err != nil {
				return err
			}
			size = int64(size64)
			headerLen = 16
		}
		if size < headerLen || off+size > end {
			return fmt.Errorf("box %s size %d exceeds container bounds", typ, size)
		}
		if err := fn(box{typ: typ, offset: off + headerLen, size: size - headerLen}); err != nil {
			return err
		}
		off += size
	}
	return nil
}

func (c *bmffCodec) Decode(data []byte) (*types.TagMap, []types.ValidationIssue, error) {
	sr := binary.NewSafeReader(data)

	exifBlock, err := findExif(sr)
	if err != nil {
		return nil, nil, &types.FormatError{Reason: fmt.Sprintf("invalid BMFF structure: %v", err), Err: err}
	}

	tm := types.NewTagMap()
	var issues []types.ValidationIssue
	if exifBlock != nil {
		decoded, exifIssues, err := exiftags.Decode(exiftags.TrimHeader(exifBlock))
		if err != nil {
			issues = append(issues, types.ValidationIssue{
				Severity: types.SeverityWarning,
				Message:  fmt.Sprintf("unreadable EXIF payload: %v", err),
			})
		} else {
			tm = decoded
			issues = append(issues, exifIssues...)
		}
	}
	return tm, issues, nil
}

// findExif locates the EXIF payload. HEIF stores it as an item whose
// mdat data starts with a 4-byte offset to the TIFF header; CR3 nests a
// CMT1 box holding bare TIFF. Box-table walking covers the common
// layouts and a raw "Exif\0\0" scan covers files whose item tables this
// parser does not model.
func findExif(sr *binary.SafeReader) ([]byte, error) {
	var block []byte
	err := walkBoxes(sr, 0, sr.Size(), func(b box) error {
		switch b.typ {
		case "moov", "meta":
			// CR3 wraps vendor boxes in moov/uuid; the HEIF meta box is
			// a full box with a 4-byte version/flags prefix.
			start := b.offset
			if b.typ == "meta" {
				start += 4
			}
			return walkBoxes(sr, start, b.offset+b.size, func(inner box) error {
				switch inner.typ {
				case "CMT1":
					data, err := sr.Bytes(inner.offset, inner.size, "CMT1 payload")
					if err != nil {
						return err
					}
					block = bytes.Clone(data)
				case "uuid":
					// Canon nests CMT1 in a vendor uuid box; skip the
					// 16-byte uuid and walk its children.
					if inner.size > 16 {
						return walkBoxes(sr, inner.offset+16, inner.offset+inner.size, func(nested box) error {
							if nested.typ == "CMT1" {
								data, err := sr.Bytes(nested.offset, nested.size, "CMT1 payload")
								if err != nil {
									return err
								}
								block = bytes.Clone(data)
							}
							return nil
						})
					}
				}
				return nil
			})
		case "Exif":
			payload, err := exifItemPayload(sr, b)
			if err != nil {
				return err
			}
			block = payload
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if block != nil {
		return block, nil
	}
	return scanExifHeader(sr), nil
}

// exifItemPayload reads an Exif box whose payload begins with a 4-byte
// big-endian offset to the TIFF header.
func exifItemPayload(sr *binary.SafeReader, b box) ([]byte, error) {
	if b.size < 4 {
		return nil, fmt.Errorf("Exif box too small")
	}
	skip, err := binary.ReadBE[uint32](sr, b.offset, "Exif item offset")
	if err != nil {
		return nil, err
	}
	if int64(skip)+4 > b.size {
		return nil, fmt.Errorf("Exif item offset %d exceeds box size %d", skip, b.size)
	}
	data, err := sr.Bytes(b.offset+4+int64(skip), b.size-4-int64(skip), "Exif item payload")
	if err != nil {
		return nil, err
	}
	return bytes.Clone(data), nil
}

// scanExifHeader searches raw bytes for an "Exif\0\0" marker followed by
// a TIFF header. Item-table layouts vary enough across encoders that the
// scan is kept as a safety net.
func scanExifHeader(sr *binary.SafeReader) []byte {
	data, err := sr.Bytes(0, sr.Size(), "file contents")
	if err != nil {
		return nil
	}
	marker := []byte("Exif\x00\x00")
	for i := 0; ; {
		j := bytes.Index(data[i:], marker)
		if j < 0 {
			return nil
		}
		start := i + j + len(marker)
		if start+4 <= len(data) {
			head := data[start : start+4]
			if bytes.Equal(head, []byte{'I', 'I', 0x2A, 0x00}) || bytes.Equal(head, []byte{'M', 'M', 0x00, 0x2A}) {
				return bytes.Clone(data[start:])
			}
		}
		i += j + 1
	}
}

// Encode is not supported: rewriting item locations and mdat offsets in
// a BMFF container requires a full remux.
func (c *bmffCodec) Encode(_ []byte, _ *types.TagMap) ([]byte, error) {
	return nil, &types.WriteError{Reason: "BMFF containers are read-only"}
}
