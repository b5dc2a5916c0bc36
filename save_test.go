package imagemeta

import (
	"bytes"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/ssoj13/imagemeta/internal/exiftags"
	"github.com/ssoj13/imagemeta/internal/types"
)

func TestSaveCleanIsByteIdentical(t *testing.T) {
	dir := t.TempDir()
	path := writeJPEG(t, dir, "photo.jpg", sampleImageTags())
	original, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	img, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	copyPath := filepath.Join(dir, "copy.jpg")
	if err := img.SaveAs(copyPath); err != nil {
		t.Fatalf("SaveAs: %v", err)
	}

	written, err := os.ReadFile(copyPath)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(written, original) {
		t.Error("clean save is not byte-identical to the original")
	}
}

func TestSaveDirtyRoundTrip(t *testing.T) {
	path := writeJPEG(t, t.TempDir(), "photo.jpg", sampleImageTags())

	img, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	img.SetArtist("New Owner")
	img.SetCopyright("CC0")

	if err := img.Save(WithValidation()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if img.Dirty() {
		t.Error("image still dirty after in-place save")
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("re-open: %v", err)
	}
	if v, ok := reopened.Artist(); !ok || v != "New Owner" {
		t.Errorf("Artist = %q, %v", v, ok)
	}
	if v, ok := reopened.Copyright(); !ok || v != "CC0" {
		t.Errorf("Copyright = %q, %v", v, ok)
	}
	// Untouched tags survive the rewrite.
	if v, ok := reopened.Make(); !ok || v != "Canon" {
		t.Errorf("Make = %q, %v", v, ok)
	}
}

func TestSaveWithBackup(t *testing.T) {
	path := writeJPEG(t, t.TempDir(), "photo.jpg", sampleImageTags())
	original, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	img, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	img.SetArtist("changed")
	if err := img.Save(WithBackup(".bak")); err != nil {
		t.Fatalf("Save: %v", err)
	}

	backup, err := os.ReadFile(path + ".bak")
	if err != nil {
		t.Fatalf("backup missing: %v", err)
	}
	if !bytes.Equal(backup, original) {
		t.Error("backup does not hold the original bytes")
	}
}

func TestSaveAsKeepsOriginalPath(t *testing.T) {
	dir := t.TempDir()
	path := writeJPEG(t, dir, "photo.jpg", sampleImageTags())

	img, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	img.SetArtist("elsewhere")

	otherPath := filepath.Join(dir, "other.jpg")
	if err := img.SaveAs(otherPath); err != nil {
		t.Fatalf("SaveAs: %v", err)
	}

	if img.Path() != path {
		t.Errorf("Path = %q, want %q", img.Path(), path)
	}
	// Saving elsewhere leaves the in-memory baseline alone.
	if !img.Dirty() {
		t.Error("image no longer dirty after SaveAs to another path")
	}

	reopened, err := Open(otherPath)
	if err != nil {
		t.Fatalf("re-open: %v", err)
	}
	if v, ok := reopened.Artist(); !ok || v != "elsewhere" {
		t.Errorf("Artist = %q, %v", v, ok)
	}
}

func TestSavePreserveModTime(t *testing.T) {
	path := writeJPEG(t, t.TempDir(), "photo.jpg", sampleImageTags())
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	want := info.ModTime()

	img, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	img.SetArtist("changed")
	if err := img.Save(WithPreserveModTime()); err != nil {
		t.Fatalf("Save: %v", err)
	}

	after, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if !after.ModTime().Equal(want) {
		t.Errorf("mod time = %v, want %v", after.ModTime(), want)
	}
}

func TestSaveIOFailureIsWriteError(t *testing.T) {
	dir := t.TempDir()
	path := writeJPEG(t, dir, "photo.jpg", sampleImageTags())

	img, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	img.SetArtist("changed")

	badPath := filepath.Join(dir, "no-such-dir", "out.jpg")
	err = img.SaveAs(badPath)
	if err == nil {
		t.Fatal("SaveAs into a missing directory succeeded")
	}
	var we *WriteError
	if !errors.As(err, &we) {
		t.Fatalf("SaveAs error = %T %v, want *WriteError", err, err)
	}
	if we.Path != badPath {
		t.Errorf("WriteError.Path = %q, want %q", we.Path, badPath)
	}
	if we.Format != FormatJPEG {
		t.Errorf("WriteError.Format = %v", we.Format)
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("WriteError should unwrap to the filesystem error, got %v", err)
	}
}

func TestSaveReadOnlyFormat(t *testing.T) {
	tm := types.NewTagMap()
	tm.Set("Make", types.StringValue("Nikon"))
	block, err := exiftags.Encode(tm)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "scan.tif")
	if err := os.WriteFile(path, block, 0o644); err != nil {
		t.Fatal(err)
	}

	img, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if img.Format() != FormatTIFF {
		t.Fatalf("Format = %v", img.Format())
	}

	// A clean save round-trips even for read-only formats.
	if err := img.SaveAs(filepath.Join(dir, "copy.tif")); err != nil {
		t.Fatalf("clean SaveAs: %v", err)
	}

	img.SetArtist("nope")
	err = img.Save()
	var we *WriteError
	if !errors.As(err, &we) {
		t.Fatalf("Save error = %v, want *WriteError", err)
	}
	if we.Format != FormatTIFF {
		t.Errorf("WriteError.Format = %v", we.Format)
	}
	if we.Path != path {
		t.Errorf("WriteError.Path = %q", we.Path)
	}
}
