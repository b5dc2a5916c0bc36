// Package codec defines the capability boundary between the
// format-agnostic metadata core and the per-format binary parsers.
//
// A codec turns raw file bytes into a TagMap and, for writable formats,
// turns a TagMap back into file bytes while preserving every byte it does
// not model as a tag. The core never inspects format internals; format
// packages register themselves here during init.
package codec

import (
	"github.com/ssoj13/imagemeta/internal/types"
)

// Codec is one format family's detect/decode/encode capability.
type Codec interface {
	// Formats lists the formats this codec can report from Detect.
	Formats() []types.Format

	// Detect sniffs the leading bytes and reports the concrete format.
	// ext is the lowercase file extension (".nef"); it is only consulted
	// to discriminate TIFF-based raw siblings that share magic bytes.
	Detect(data []byte, ext string) (types.Format, bool)

	// Decode extracts all tags. Validation issues describe recoverable
	// anomalies; a non-nil error means the file is unusable.
	Decode(data []byte) (*types.TagMap, []types.ValidationIssue, error)

	// Encode re-encodes the file with tags replacing the metadata
	// segments, leaving everything else byte-identical to original.
	// Codecs without write support return a *types.WriteError.
	Encode(original []byte, tags *types.TagMap) ([]byte, error)
}

// codecs holds registered codecs in registration order. Each codec
// claims a distinct magic prefix; the TIFF codec resolves its sibling
// raw formats internally via the extension hint.
var codecs []Codec

// Register adds a codec to the detection chain. Called from format
// package init functions.
func Register(c Codec) {
	codecs = append(codecs, c)
}

// Detect runs the detection chain over the file's leading bytes.
// Returns nil when no codec recognizes the data.
func Detect(data []byte, ext string) (Codec, types.Format) {
	for _, c := range codecs {
		if f, ok := c.Detect(data, ext); ok {
			return c, f
		}
	}
	return nil, types.FormatUnknown
}

// ForFormat returns the codec that reports the given format, or nil.
func ForFormat(f types.Format) Codec {
	for _, c := range codecs {
		for _, have := range c.Formats() {
			if have == f {
				return c
			}
		}
	}
	return nil
}
