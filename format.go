package imagemeta

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ssoj13/imagemeta/internal/codec"
	"github.com/ssoj13/imagemeta/internal/types"
)

// Format is an alias to types.Format.
// Re-exporting from internal/types to maintain one public API surface.
type Format = types.Format

// Re-export all format constants.
const (
	FormatUnknown = types.FormatUnknown
	FormatJPEG    = types.FormatJPEG
	FormatPNG     = types.FormatPNG
	FormatTIFF    = types.FormatTIFF
	FormatDNG     = types.FormatDNG
	FormatWebP    = types.FormatWebP
	FormatHEIC    = types.FormatHEIC
	FormatAVIF    = types.FormatAVIF
	FormatCR2     = types.FormatCR2
	FormatCR3     = types.FormatCR3
	FormatNEF     = types.FormatNEF
	FormatARW     = types.FormatARW
	FormatORF     = types.FormatORF
	FormatRW2     = types.FormatRW2
	FormatPEF     = types.FormatPEF
	FormatRAF     = types.FormatRAF
	FormatEXR     = types.FormatEXR
	FormatHDR     = types.FormatHDR
)

// AllFormats returns every supported format.
func AllFormats() []Format {
	return types.AllFormats()
}

// detectHeaderSize is how many leading bytes format detection reads.
// Every supported magic number, including compatible brands inside an
// ftyp box, fits well within this window.
const detectHeaderSize = 4096

// DetectFormat identifies an image format from its magic bytes without
// decoding any metadata. The file extension is consulted only to tell
// apart TIFF-based raw formats that share identical magic bytes.
//
// Returns FormatUnknown with a *FormatError if no codec recognizes the
// data.
func DetectFormat(path string) (Format, error) {
	f, err := os.Open(path)
	if err != nil {
		return FormatUnknown, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	// io.ReadFull keeps reading across short reads; files smaller than
	// the window surface as ErrUnexpectedEOF with a full partial buffer.
	header := make([]byte, detectHeaderSize)
	n, err := io.ReadFull(f, header)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return FormatUnknown, fmt.Errorf("read file header: %w", err)
	}

	_, format := codec.Detect(header[:n], strings.ToLower(filepath.Ext(path)))
	if format == FormatUnknown {
		return FormatUnknown, &FormatError{Path: path, Reason: "unrecognized image format"}
	}
	return format, nil
}
