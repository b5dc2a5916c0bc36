// Package webpmeta reads and writes WebP metadata: the EXIF, XMP and
// ICCP chunks of the extended (VP8X) container format. Canvas
// dimensions come from the VP8X header when present.
package webpmeta

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"unicode/utf8"

	"github.com/ssoj13/imagemeta/internal/codec"
	"github.com/ssoj13/imagemeta/internal/exiftags"
	"github.com/ssoj13/imagemeta/internal/types"
)

func init() {
	codec.Register(&webpCodec{})
}

type riffChunk struct {
	fourCC string
	data   []byte
}

type webpCodec struct{}

func (c *webpCodec) Formats() []types.Format {
	return []types.Format{types.FormatWebP}
}

func (c *webpCodec) Detect(data []byte, _ string) (types.Format, bool) {
	if len(data) >= 12 && bytes.Equal(data[:4], []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WEBP")) {
		return types.FormatWebP, true
	}
	return types.FormatUnknown, false
}

// parseRIFF walks the chunks after the 12-byte RIFF/WEBP header. Chunks
// are padded to even sizes; padding bytes are not part of the payload.
func parseRIFF(data []byte) ([]riffChunk, error) {
	if len(data) < 12 {
		return nil, fmt.Errorf("file shorter than RIFF header")
	}
	var chunks []riffChunk
	i := 12
	for i+8 <= len(data) {
		fourCC := string(data[i : i+4])
		size := int(binary.LittleEndian.Uint32(data[i+4 : i+8]))
		if i+8+size > len(data) {
			return nil, fmt.Errorf("chunk %s length exceeds file size", fourCC)
		}
		chunks = append(chunks, riffChunk{fourCC: fourCC, data: bytes.Clone(data[i+8 : i+8+size])})
		i += 8 + size
		if size%2 == 1 {
			i++
		}
	}
	return chunks, nil
}

func writeRIFF(chunks []riffChunk) []byte {
	var body bytes.Buffer
	body.WriteString("WEBP")
	for _, ch := range chunks {
		var hdr [8]byte
		copy(hdr[:4], ch.fourCC)
		binary.LittleEndian.PutUint32(hdr[4:], uint32(len(ch.data)))
		body.Write(hdr[:])
		body.Write(ch.data)
		if len(ch.data)%2 == 1 {
			body.WriteByte(0)
		}
	}

	out := make([]byte, 0, 8+body.Len())
	out = append(out, "RIFF"...)
	out = binary.LittleEndian.AppendUint32(out, uint32(body.Len()))
	return append(out, body.Bytes()...)
}

func (c *webpCodec) Decode(data []byte) (*types.TagMap, []types.ValidationIssue, error) {
	chunks, err := parseRIFF(data)
	if err != nil {
		return nil, nil, &types.FormatError{Reason: fmt.Sprintf("invalid WebP structure: %v", err), Err: err}
	}

	tm := types.NewTagMap()
	var issues []types.ValidationIssue

	for _, ch := range chunks {
		switch ch.fourCC {
		case "VP8X":
			// Canvas size is stored minus one in 24-bit little-endian
			// fields at offsets 4 and 7.
			if len(ch.data) >= 10 {
				w := uint64(ch.data[4]) | uint64(ch.data[5])<<8 | uint64(ch.data[6])<<16
				h := uint64(ch.data[7]) | uint64(ch.data[8])<<8 | uint64(ch.data[9])<<16
				tm.Set("ImageWidth", types.UintValue(w+1))
				tm.Set("ImageHeight", types.UintValue(h+1))
			}
		case "EXIF":
			decoded, exifIssues, err := exiftags.Decode(exiftags.TrimHeader(ch.data))
			if err != nil {
				issues = append(issues, types.ValidationIssue{
					Severity: types.SeverityWarning,
					Message:  fmt.Sprintf("unreadable EXIF chunk: %v", err),
				})
				continue
			}
			for name, v := range decoded.All() {
				tm.Set(name, v)
			}
			issues = append(issues, exifIssues...)
		case "XMP ":
			if utf8.Valid(ch.data) {
				tm.Set("XMP", types.StringValue(string(ch.data)))
			}
		case "ICCP":
			if len(ch.data) > 0 {
				tm.Set("ICCProfile", types.BytesValue(ch.data))
			}
		}
	}
	return tm, issues, nil
}

// Encode replaces the EXIF and ICCP chunks and recomputes the RIFF
// size. Saving metadata into a simple (non-VP8X) WebP is refused rather
// than silently producing a file most readers would ignore the
// metadata of.
func (c *webpCodec) Encode(original []byte, tags *types.TagMap) ([]byte, error) {
	chunks, err := parseRIFF(original)
	if err != nil {
		return nil, &types.WriteError{Format: types.FormatWebP, Reason: fmt.Sprintf("invalid WebP structure: %v", err), Err: err}
	}

	var profile []byte
	if v, ok := tags.Get("ICCProfile"); ok {
		if p, ok := v.Bytes(); ok && len(p) > 0 {
			profile = p
		}
	}

	var exifChunk *riffChunk
	if exiftags.HasEncodable(tags) || profile != nil {
		if !hasChunk(chunks, "VP8X") {
			return nil, &types.WriteError{Format: types.FormatWebP, Reason: "simple WebP files cannot carry metadata chunks"}
		}
	}
	if exiftags.HasEncodable(tags) {
		block, err := exiftags.Encode(tags)
		if err != nil {
			return nil, err
		}
		exifChunk = &riffChunk{fourCC: "EXIF", data: block}
	}

	out := make([]riffChunk, 0, len(chunks)+2)
	for _, ch := range chunks {
		if ch.fourCC == "EXIF" || ch.fourCC == "ICCP" {
			continue
		}
		out = append(out, ch)
		// The container layout puts ICCP directly after VP8X.
		if profile != nil && ch.fourCC == "VP8X" {
			out = append(out, riffChunk{fourCC: "ICCP", data: profile})
		}
	}
	if profile != nil {
		setVP8XFlag(out, 0x20)
	}
	if exifChunk != nil {
		out = append(out, *exifChunk)
		setVP8XFlag(out, 0x08)
	}
	return writeRIFF(out), nil
}

func hasChunk(chunks []riffChunk, fourCC string) bool {
	for _, ch := range chunks {
		if ch.fourCC == fourCC {
			return true
		}
	}
	return false
}

// setVP8XFlag raises a feature flag bit in the VP8X header.
func setVP8XFlag(chunks []riffChunk, flag byte) {
	for i := range chunks {
		if chunks[i].fourCC == "VP8X" && len(chunks[i].data) >= 1 {
			chunks[i].data[0] |= flag
			return
		}
	}
}
