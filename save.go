package imagemeta

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ssoj13/imagemeta/internal/codec"
)

// Save writes the image back to the path it was opened from.
//
// This is an atomic operation: bytes go to a temporary file first, then
// a rename replaces the original. If any step fails, the original file
// remains unchanged.
//
// An unmodified image is written back byte-identical to the original.
// A modified image needs its codec's encoder; camera raw and other
// read-only formats return a *WriteError, as does any underlying
// filesystem failure (permissions, disk full).
//
//	err := img.Save(
//	    imagemeta.WithBackup(".bak"),
//	    imagemeta.WithValidation(),
//	)
func (img *Image) Save(opts ...SaveOption) error {
	if img.path == "" {
		return &WriteError{Format: img.format, Reason: "image has no path, use SaveAs"}
	}
	return img.SaveAs(img.path, opts...)
}

// SaveAs writes the image to a new location with the same atomicity
// guarantees as Save. The in-memory Image keeps referring to its
// original path.
func (img *Image) SaveAs(outputPath string, opts ...SaveOption) error {
	options := defaultSaveOptions()
	for _, opt := range opts {
		opt(options)
	}

	out, err := img.encode()
	if err != nil {
		return err
	}

	// Original mod time, captured before the rename clobbers it.
	var origInfo os.FileInfo
	if options.preserveModTime {
		if info, err := os.Stat(img.path); err == nil {
			origInfo = info
		}
	}

	// Temp file in the output directory so the final rename stays on one
	// filesystem.
	outputDir := filepath.Dir(outputPath)
	tempFile, err := os.CreateTemp(outputDir, ".imagemeta-*.tmp")
	if err != nil {
		return img.writeFailure(outputPath, "create temp file", err)
	}
	tempPath := tempFile.Name()

	success := false
	defer func() {
		if !success {
			_ = tempFile.Close()
			_ = os.Remove(tempPath)
		}
	}()

	if _, err := tempFile.Write(out); err != nil {
		return img.writeFailure(outputPath, "write temp file", err)
	}
	if err := tempFile.Sync(); err != nil {
		return img.writeFailure(outputPath, "sync temp file", err)
	}
	if err := tempFile.Close(); err != nil {
		return img.writeFailure(outputPath, "close temp file", err)
	}

	if options.backupSuffix != "" {
		backupPath := outputPath + options.backupSuffix
		if _, err := os.Stat(outputPath); err == nil {
			if err := os.Rename(outputPath, backupPath); err != nil {
				return img.writeFailure(outputPath, "create backup", err)
			}
		}
	}

	if err := os.Rename(tempPath, outputPath); err != nil {
		return img.writeFailure(outputPath, "rename temp to output", err)
	}
	success = true

	if options.preserveModTime && origInfo != nil {
		_ = os.Chtimes(outputPath, origInfo.ModTime(), origInfo.ModTime())
	}

	if options.validate {
		if err := img.validateWrittenFile(outputPath); err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}
	}

	// Saving in place makes the written bytes the new baseline.
	if outputPath == img.path {
		img.original = out
		img.dirty = false
	}
	return nil
}

// writeFailure wraps a failed filesystem step as a *WriteError so
// callers can classify I/O failures the same way as unwritable formats.
func (img *Image) writeFailure(outputPath, step string, err error) error {
	return &WriteError{
		Path:   outputPath,
		Format: img.format,
		Reason: fmt.Sprintf("%s: %v", step, err),
		Err:    err,
	}
}

// encode produces the output bytes: the original file verbatim when no
// tag changed, otherwise a codec re-encode.
func (img *Image) encode() ([]byte, error) {
	if !img.dirty {
		return img.original, nil
	}

	c := codec.ForFormat(img.format)
	if c == nil {
		return nil, &WriteError{Path: img.path, Format: img.format, Reason: "no codec for format"}
	}
	out, err := c.Encode(img.original, img.tags)
	if err != nil {
		if we, ok := err.(*WriteError); ok {
			if we.Path == "" {
				we.Path = img.path
			}
			if we.Format == FormatUnknown {
				we.Format = img.format
			}
		}
		return nil, err
	}
	return out, nil
}

// validateWrittenFile re-opens the written file and compares the fields
// a round trip must preserve.
func (img *Image) validateWrittenFile(path string) error {
	written, err := Open(path)
	if err != nil {
		return fmt.Errorf("re-open: %w", err)
	}

	checks := []struct {
		name string
		get  func(*Image) (string, bool)
	}{
		{"make", (*Image).Make},
		{"model", (*Image).Model},
		{"artist", (*Image).Artist},
		{"datetime", (*Image).DateTime},
	}
	for _, check := range checks {
		want, wantOK := check.get(img)
		got, gotOK := check.get(written)
		if wantOK != gotOK || want != got {
			return fmt.Errorf("%s mismatch: got %q, want %q", check.name, got, want)
		}
	}
	return nil
}
