// Package exrmeta reads metadata from OpenEXR files. The header is a
// sequence of NUL-delimited attributes (name, type, size, value) ended
// by an empty name; dimensions come from the dataWindow box.
package exrmeta

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"unicode/utf8"

	imbinary "github.com/ssoj13/imagemeta/internal/binary"
	"github.com/ssoj13/imagemeta/internal/codec"
	"github.com/ssoj13/imagemeta/internal/types"
)

func init() {
	codec.Register(&exrCodec{})
}

var exrMagic = []byte{0x76, 0x2F, 0x31, 0x01}

// maxAttrName bounds attribute name and type scans. The format caps
// names at 255 bytes.
const maxAttrName = 256

type exrCodec struct{}

func (c *exrCodec) Formats() []types.Format {
	return []types.Format{types.FormatEXR}
}

func (c *exrCodec) Detect(data []byte, _ string) (types.Format, bool) {
	if bytes.HasPrefix(data, exrMagic) {
		return types.FormatEXR, true
	}
	return types.FormatUnknown, false
}

func (c *exrCodec) Decode(data []byte) (*types.TagMap, []types.ValidationIssue, error) {
	if !bytes.HasPrefix(data, exrMagic) {
		return nil, nil, &types.FormatError{Reason: "missing EXR magic number"}
	}

	sr := imbinary.NewSafeReader(data)
	// Skip magic and the 4-byte version field.
	r := imbinary.NewReader(sr, 8, imbinary.LittleEndian)

	tm := types.NewTagMap()
	for {
		name, err := r.ReadCString(maxAttrName, "attribute name")
		if err != nil {
			return nil, nil, &types.FormatError{Reason: fmt.Sprintf("invalid EXR header: %v", err), Err: err}
		}
		if name == "" {
			break
		}
		attrType, err := r.ReadCString(maxAttrName, "attribute type")
		if err != nil {
			return nil, nil, &types.FormatError{Reason: fmt.Sprintf("invalid EXR header: %v", err), Err: err}
		}
		size, err := imbinary.ReadValue[uint32](r, "attribute size")
		if err != nil {
			return nil, nil, &types.FormatError{Reason: fmt.Sprintf("invalid EXR header: %v", err), Err: err}
		}
		value, err := r.Bytes(r.Offset(), int64(size), "attribute value")
		if err != nil {
			return nil, nil, &types.FormatError{Reason: fmt.Sprintf("invalid EXR header: %v", err), Err: err}
		}
		r.Skip(int64(size))

		if v, ok := convertAttribute(attrType, value); ok {
			tm.Set(name, v)
		}
		if name == "dataWindow" && attrType == "box2i" && len(value) == 16 {
			xMin := int32(binary.LittleEndian.Uint32(value[0:4]))
			yMin := int32(binary.LittleEndian.Uint32(value[4:8]))
			xMax := int32(binary.LittleEndian.Uint32(value[8:12]))
			yMax := int32(binary.LittleEndian.Uint32(value[12:16]))
			if xMax >= xMin && yMax >= yMin {
				tm.Set("ImageWidth", types.UintValue(uint64(xMax-xMin+1)))
				tm.Set("ImageHeight", types.UintValue(uint64(yMax-yMin+1)))
			}
		}
	}

	return tm, types.ValidateTags(tm), nil
}

// convertAttribute maps the common scalar attribute types onto Values.
// Channel lists, previews and other structured types are skipped; they
// describe pixel layout, not descriptive metadata.
func convertAttribute(attrType string, value []byte) (types.Value, bool) {
	switch attrType {
	case "string":
		if utf8.Valid(value) {
			return types.StringValue(string(value)), true
		}
	case "int":
		if len(value) == 4 {
			return types.IntValue(int64(int32(binary.LittleEndian.Uint32(value)))), true
		}
	case "float":
		if len(value) == 4 {
			return types.FloatValue(float64(math.Float32frombits(binary.LittleEndian.Uint32(value)))), true
		}
	case "double":
		if len(value) == 8 {
			return types.FloatValue(math.Float64frombits(binary.LittleEndian.Uint64(value))), true
		}
	case "rational":
		if len(value) == 8 {
			num := int32(binary.LittleEndian.Uint32(value[0:4]))
			den := binary.LittleEndian.Uint32(value[4:8])
			return types.RationalValue(types.NewRational(int64(num), int64(den))), true
		}
	case "v2f":
		if len(value) == 8 {
			x := float64(math.Float32frombits(binary.LittleEndian.Uint32(value[0:4])))
			y := float64(math.Float32frombits(binary.LittleEndian.Uint32(value[4:8])))
			return types.ListValue(types.FloatValue(x), types.FloatValue(y)), true
		}
	}
	return types.Value{}, false
}

// Encode is not supported: attribute sizes shift every offset in the
// scan line table, so rewriting a header means rewriting the file.
func (c *exrCodec) Encode(_ []byte, _ *types.TagMap) ([]byte, error) {
	return nil, &types.WriteError{Format: types.FormatEXR, Reason: "EXR files are read-only"}
}
