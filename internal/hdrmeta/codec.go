// Package hdrmeta reads and writes Radiance HDR headers. The header is
// plain text: a "#?" signature line, KEY=VALUE lines and comments, a
// blank line, then a resolution line followed by pixel data.
package hdrmeta

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/ssoj13/imagemeta/internal/codec"
	"github.com/ssoj13/imagemeta/internal/types"
)

func init() {
	codec.Register(&hdrCodec{})
}

var hdrMagic = []byte("#?")

type hdrCodec struct{}

func (c *hdrCodec) Formats() []types.Format {
	return []types.Format{types.FormatHDR}
}

func (c *hdrCodec) Detect(data []byte, _ string) (types.Format, bool) {
	if bytes.HasPrefix(data, hdrMagic) {
		return types.FormatHDR, true
	}
	return types.FormatUnknown, false
}

// splitHeader returns the header lines, the resolution line, and the
// offset of the pixel data.
func splitHeader(data []byte) (lines []string, resolution string, pixelStart int, err error) {
	if !bytes.HasPrefix(data, hdrMagic) {
		return nil, "", 0, fmt.Errorf("missing #? signature")
	}
	i := 0
	for {
		j := bytes.IndexByte(data[i:], '\n')
		if j < 0 {
			return nil, "", 0, fmt.Errorf("truncated header")
		}
		line := string(data[i : i+j])
		i += j + 1
		if line == "" {
			break
		}
		lines = append(lines, line)
	}
	j := bytes.IndexByte(data[i:], '\n')
	if j < 0 {
		return nil, "", 0, fmt.Errorf("missing resolution line")
	}
	return lines, string(data[i : i+j]), i + j + 1, nil
}

func (c *hdrCodec) Decode(data []byte) (*types.TagMap, []types.ValidationIssue, error) {
	lines, resolution, _, err := splitHeader(data)
	if err != nil {
		return nil, nil, &types.FormatError{Reason: fmt.Sprintf("invalid HDR header: %v", err), Err: err}
	}

	tm := types.NewTagMap()
	for _, line := range lines[1:] {
		if strings.HasPrefix(line, "#") {
			continue
		}
		key, val, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		val = strings.TrimSpace(val)
		if key == "" {
			continue
		}
		if f, err := strconv.ParseFloat(val, 64); err == nil && key == "EXPOSURE" {
			tm.Set(key, types.FloatValue(f))
		} else {
			tm.Set(key, types.StringValue(val))
		}
	}

	// "-Y height +X width" is the standard orientation; other axis
	// orders swap the roles.
	if w, h, ok := parseResolution(resolution); ok {
		tm.Set("ImageWidth", types.UintValue(w))
		tm.Set("ImageHeight", types.UintValue(h))
	}

	return tm, types.ValidateTags(tm), nil
}

func parseResolution(line string) (width, height uint64, ok bool) {
	fields := strings.Fields(line)
	if len(fields) != 4 {
		return 0, 0, false
	}
	first, err1 := strconv.ParseUint(fields[1], 10, 32)
	second, err2 := strconv.ParseUint(fields[3], 10, 32)
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	switch {
	case strings.HasSuffix(fields[0], "Y") && strings.HasSuffix(fields[2], "X"):
		return second, first, true
	case strings.HasSuffix(fields[0], "X") && strings.HasSuffix(fields[2], "Y"):
		return first, second, true
	}
	return 0, 0, false
}

// Encode rewrites the KEY=VALUE header lines from tags; the signature,
// comments, resolution line and pixel data pass through byte-identical.
func (c *hdrCodec) Encode(original []byte, tags *types.TagMap) ([]byte, error) {
	lines, resolution, pixelStart, err := splitHeader(original)
	if err != nil {
		return nil, &types.WriteError{Format: types.FormatHDR, Reason: fmt.Sprintf("invalid HDR header: %v", err), Err: err}
	}

	var buf bytes.Buffer
	buf.WriteString(lines[0])
	buf.WriteByte('\n')
	for _, line := range lines[1:] {
		if strings.HasPrefix(line, "#") {
			buf.WriteString(line)
			buf.WriteByte('\n')
		}
	}
	for name, v := range tags.All() {
		if name == "ImageWidth" || name == "ImageHeight" {
			continue
		}
		text, ok := headerValue(v)
		if !ok || strings.ContainsAny(name, "=\n") || strings.Contains(text, "\n") {
			continue
		}
		fmt.Fprintf(&buf, "%s=%s\n", name, text)
	}
	buf.WriteByte('\n')
	buf.WriteString(resolution)
	buf.WriteByte('\n')
	buf.Write(original[pixelStart:])
	return buf.Bytes(), nil
}

func headerValue(v types.Value) (string, bool) {
	switch v.Kind() {
	case types.KindString:
		return v.Text()
	case types.KindFloat:
		f, _ := v.Float64()
		return strconv.FormatFloat(f, 'g', -1, 64), true
	case types.KindInt:
		n, _ := v.Int()
		return strconv.FormatInt(n, 10), true
	case types.KindUint:
		n, _ := v.Uint()
		return strconv.FormatUint(n, 10), true
	case types.KindRational:
		r, _ := v.Rational()
		return strconv.FormatFloat(r.Float64(), 'g', -1, 64), true
	}
	return "", false
}
