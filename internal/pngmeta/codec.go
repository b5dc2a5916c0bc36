// Package pngmeta reads and writes PNG metadata chunks: tEXt and iTXt
// key/value pairs, the eXIf chunk, the iCCP color profile, and tIME.
// Image data chunks pass through byte-identical on save.
package pngmeta

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"
	"unicode/utf8"

	"github.com/ssoj13/imagemeta/internal/codec"
	"github.com/ssoj13/imagemeta/internal/exiftags"
	"github.com/ssoj13/imagemeta/internal/types"
)

func init() {
	codec.Register(&pngCodec{})
}

var pngSignature = []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}

type chunk struct {
	typ  string
	data []byte
}

type pngCodec struct{}

func (c *pngCodec) Formats() []types.Format {
	return []types.Format{types.FormatPNG}
}

func (c *pngCodec) Detect(data []byte, _ string) (types.Format, bool) {
	if bytes.HasPrefix(data, pngSignature) {
		return types.FormatPNG, true
	}
	return types.FormatUnknown, false
}

// parseChunks splits a PNG stream into its chunks. CRC values are not
// verified on read; they are recomputed on write.
func parseChunks(data []byte) ([]chunk, error) {
	if !bytes.HasPrefix(data, pngSignature) {
		return nil, fmt.Errorf("missing PNG signature")
	}
	var chunks []chunk
	i := len(pngSignature)
	for i < len(data) {
		if i+8 > len(data) {
			return nil, fmt.Errorf("truncated chunk header at offset %d", i)
		}
		length := int(binary.BigEndian.Uint32(data[i : i+4]))
		typ := string(data[i+4 : i+8])
		if i+12+length > len(data) {
			return nil, fmt.Errorf("chunk %s length exceeds file size", typ)
		}
		chunks = append(chunks, chunk{typ: typ, data: bytes.Clone(data[i+8 : i+8+length])})
		i += 12 + length
		if typ == "IEND" {
			break
		}
	}
	return chunks, nil
}

func writeChunks(chunks []chunk) []byte {
	var buf bytes.Buffer
	buf.Write(pngSignature)
	for _, ch := range chunks {
		var hdr [8]byte
		binary.BigEndian.PutUint32(hdr[:4], uint32(len(ch.data)))
		copy(hdr[4:], ch.typ)
		buf.Write(hdr[:])
		buf.Write(ch.data)
		crc := crc32.NewIEEE()
		crc.Write(hdr[4:])
		crc.Write(ch.data)
		var sum [4]byte
		binary.BigEndian.PutUint32(sum[:], crc.Sum32())
		buf.Write(sum[:])
	}
	return buf.Bytes()
}

func (c *pngCodec) Decode(data []byte) (*types.TagMap, []types.ValidationIssue, error) {
	chunks, err := parseChunks(data)
	if err != nil {
		return nil, nil, &types.FormatError{Reason: fmt.Sprintf("invalid PNG structure: %v", err), Err: err}
	}

	tm := types.NewTagMap()
	var issues []types.ValidationIssue

	for _, ch := range chunks {
		switch ch.typ {
		case "IHDR":
			if len(ch.data) >= 8 {
				tm.Set("ImageWidth", types.UintValue(uint64(binary.BigEndian.Uint32(ch.data[:4]))))
				tm.Set("ImageHeight", types.UintValue(uint64(binary.BigEndian.Uint32(ch.data[4:8]))))
			}
		case "eXIf":
			decoded, exifIssues, err := exiftags.Decode(exiftags.TrimHeader(ch.data))
			if err != nil {
				issues = append(issues, types.ValidationIssue{
					Severity: types.SeverityWarning,
					Message:  fmt.Sprintf("unreadable eXIf chunk: %v", err),
				})
				continue
			}
			for name, v := range decoded.All() {
				tm.Set(name, v)
			}
			issues = append(issues, exifIssues...)
		case "tEXt":
			if key, val, ok := splitText(ch.data); ok {
				tm.Set(key, types.StringValue(val))
			}
		case "iTXt":
			if key, val, ok := splitITXt(ch.data); ok {
				tm.Set(key, types.StringValue(val))
			}
		case "iCCP":
			profile, err := decodeICCP(ch.data)
			if err != nil {
				issues = append(issues, types.ValidationIssue{
					Severity: types.SeverityWarning,
					Message:  fmt.Sprintf("unreadable iCCP chunk: %v", err),
				})
				continue
			}
			tm.Set("ICCProfile", types.BytesValue(profile))
		case "tIME":
			if len(ch.data) == 7 {
				year := binary.BigEndian.Uint16(ch.data[:2])
				tm.Set("ModifyDate", types.StringValue(fmt.Sprintf(
					"%04d:%02d:%02d %02d:%02d:%02d",
					year, ch.data[2], ch.data[3], ch.data[4], ch.data[5], ch.data[6])))
			}
		}
	}
	return tm, issues, nil
}

// decodeICCP unpacks an iCCP payload: profile name, NUL, compression
// method byte, zlib-compressed profile.
func decodeICCP(data []byte) ([]byte, error) {
	i := bytes.IndexByte(data, 0)
	if i <= 0 || i+2 > len(data) {
		return nil, fmt.Errorf("malformed iCCP header")
	}
	if data[i+1] != 0 {
		return nil, fmt.Errorf("unknown iCCP compression method %d", data[i+1])
	}
	zr, err := zlib.NewReader(bytes.NewReader(data[i+2:]))
	if err != nil {
		return nil, fmt.Errorf("iCCP profile: %w", err)
	}
	defer zr.Close()
	profile, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("iCCP profile: %w", err)
	}
	return profile, nil
}

// encodeICCP builds an iCCP payload from a raw profile.
func encodeICCP(profile []byte) []byte {
	var buf bytes.Buffer
	buf.WriteString("ICC Profile")
	buf.Write([]byte{0, 0})
	zw := zlib.NewWriter(&buf)
	zw.Write(profile)
	zw.Close()
	return buf.Bytes()
}

// splitText parses a tEXt payload: keyword, NUL, latin-1 text.
func splitText(data []byte) (key, val string, ok bool) {
	i := bytes.IndexByte(data, 0)
	if i <= 0 {
		return "", "", false
	}
	return string(data[:i]), string(data[i+1:]), true
}

// splitITXt parses an iTXt payload. Compressed text is skipped; a
// compression flag other than zero means the value is deflate data.
func splitITXt(data []byte) (key, val string, ok bool) {
	i := bytes.IndexByte(data, 0)
	if i <= 0 || i+2 >= len(data) {
		return "", "", false
	}
	key = string(data[:i])
	if data[i+1] != 0 {
		return "", "", false
	}
	rest := data[i+3:]
	// Skip language tag and translated keyword, both NUL-terminated.
	for range 2 {
		j := bytes.IndexByte(rest, 0)
		if j < 0 {
			return "", "", false
		}
		rest = rest[j+1:]
	}
	if !utf8.Valid(rest) {
		return "", "", false
	}
	return key, string(rest), true
}

// Encode rewrites the metadata chunks from tags and preserves every
// other chunk byte-identical. Tags named in the EXIF dictionary go into
// an eXIf chunk, the ICC profile into an iCCP chunk; remaining string
// tags become tEXt chunks placed before the first IDAT.
func (c *pngCodec) Encode(original []byte, tags *types.TagMap) ([]byte, error) {
	chunks, err := parseChunks(original)
	if err != nil {
		return nil, &types.WriteError{Format: types.FormatPNG, Reason: fmt.Sprintf("invalid PNG structure: %v", err), Err: err}
	}

	var meta []chunk
	if v, ok := tags.Get("ICCProfile"); ok {
		if profile, ok := v.Bytes(); ok && len(profile) > 0 {
			meta = append(meta, chunk{typ: "iCCP", data: encodeICCP(profile)})
		}
	}
	if exiftags.HasEncodable(tags) {
		block, err := exiftags.Encode(tags)
		if err != nil {
			return nil, err
		}
		meta = append(meta, chunk{typ: "eXIf", data: block})
	}
	for name, v := range tags.All() {
		if exiftags.IsEncodable(name) {
			continue
		}
		if text, ok := v.Text(); ok && validTextKeyword(name) {
			meta = append(meta, chunk{typ: "tEXt", data: textPayload(name, text)})
		}
	}

	out := make([]chunk, 0, len(chunks)+len(meta))
	inserted := false
	for _, ch := range chunks {
		switch ch.typ {
		case "eXIf", "iCCP", "tEXt", "iTXt", "zTXt":
			continue
		}
		if !inserted && (ch.typ == "IDAT" || ch.typ == "IEND") {
			out = append(out, meta...)
			inserted = true
		}
		out = append(out, ch)
	}
	return writeChunks(out), nil
}

func textPayload(key, val string) []byte {
	buf := make([]byte, 0, len(key)+1+len(val))
	buf = append(buf, key...)
	buf = append(buf, 0)
	return append(buf, val...)
}

// validTextKeyword enforces the PNG keyword constraints: 1 to 79 bytes,
// no NUL.
func validTextKeyword(key string) bool {
	if len(key) == 0 || len(key) > 79 {
		return false
	}
	return !bytes.ContainsRune([]byte(key), 0)
}
