// Package tiffmeta reads metadata from TIFF containers and the camera
// raw formats built on them. CR2, ORF and RW2 carry distinctive magic
// bytes; NEF, ARW, PEF and DNG are structurally plain TIFF and are told
// apart by file extension.
package tiffmeta

import (
	"bytes"
	"fmt"

	"github.com/ssoj13/imagemeta/internal/codec"
	"github.com/ssoj13/imagemeta/internal/exiftags"
	"github.com/ssoj13/imagemeta/internal/types"
)

func init() {
	codec.Register(&tiffCodec{})
}

var (
	magicLE   = []byte{'I', 'I', 0x2A, 0x00}
	magicBE   = []byte{'M', 'M', 0x00, 0x2A}
	magicRW2  = []byte{'I', 'I', 0x55, 0x00}
	magicORFa = []byte{'I', 'I', 'R', 'O'}
	magicORFb = []byte{'I', 'I', 'R', 'S'}
	magicORFc = []byte{'M', 'M', 'O', 'R'}
)

// extFormats maps extension hints onto the TIFF siblings that share the
// plain II*/MM* magic.
var extFormats = map[string]types.Format{
	".tif":  types.FormatTIFF,
	".tiff": types.FormatTIFF,
	".dng":  types.FormatDNG,
	".nef":  types.FormatNEF,
	".arw":  types.FormatARW,
	".pef":  types.FormatPEF,
}

type tiffCodec struct{}

func (c *tiffCodec) Formats() []types.Format {
	return []types.Format{
		types.FormatTIFF, types.FormatDNG,
		types.FormatCR2, types.FormatNEF, types.FormatARW,
		types.FormatORF, types.FormatRW2, types.FormatPEF,
	}
}

func (c *tiffCodec) Detect(data []byte, ext string) (types.Format, bool) {
	if len(data) < 4 {
		return types.FormatUnknown, false
	}
	head := data[:4]
	switch {
	case bytes.Equal(head, magicRW2):
		return types.FormatRW2, true
	case bytes.Equal(head, magicORFa), bytes.Equal(head, magicORFb), bytes.Equal(head, magicORFc):
		return types.FormatORF, true
	case bytes.Equal(head, magicLE), bytes.Equal(head, magicBE):
		if isCR2(data) {
			return types.FormatCR2, true
		}
		if f, ok := extFormats[ext]; ok {
			return f, true
		}
		return types.FormatTIFF, true
	}
	return types.FormatUnknown, false
}

// isCR2 checks the Canon signature bytes that follow the standard TIFF
// header in a CR2 file.
func isCR2(data []byte) bool {
	return len(data) >= 11 && data[8] == 'C' && data[9] == 'R' && data[10] == 0x02
}

func (c *tiffCodec) Decode(data []byte) (*types.TagMap, []types.ValidationIssue, error) {
	tiffData := data
	if len(data) >= 4 {
		head := data[:4]
		// ORF and RW2 are TIFF streams with vendor magic bytes; patch
		// the header back to standard TIFF so the IFD parser accepts it.
		switch {
		case bytes.Equal(head, magicRW2), bytes.Equal(head, magicORFa), bytes.Equal(head, magicORFb):
			tiffData = bytes.Clone(data)
			copy(tiffData[:4], magicLE)
		case bytes.Equal(head, magicORFc):
			tiffData = bytes.Clone(data)
			copy(tiffData[:4], magicBE)
		}
	}

	tm, issues, err := exiftags.Decode(tiffData)
	if err != nil {
		return nil, nil, &types.FormatError{Reason: fmt.Sprintf("invalid TIFF structure: %v", err), Err: err}
	}
	return tm, issues, nil
}

// Encode is not supported: rewriting a TIFF IFD chain in place risks
// corrupting strip offsets and maker notes, and camera raws are treated
// as originals that must never be altered.
func (c *tiffCodec) Encode(_ []byte, _ *types.TagMap) ([]byte, error) {
	return nil, &types.WriteError{Reason: "TIFF-based formats are read-only"}
}
