package imagemeta

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ssoj13/imagemeta/internal/exiftags"
	"github.com/ssoj13/imagemeta/internal/types"
)

// buildJPEGBytes assembles a minimal JPEG: SOI, an optional EXIF APP1,
// an SOF0 declaring 160x120, a scan, and EOI.
func buildJPEGBytes(t *testing.T, tm *types.TagMap) []byte {
	t.Helper()
	var buf bytes.Buffer
	buf.Write([]byte{0xFF, 0xD8})

	if tm != nil && tm.Len() > 0 {
		app1, err := exiftags.EncodeWithHeader(tm)
		if err != nil {
			t.Fatalf("EncodeWithHeader: %v", err)
		}
		buf.Write([]byte{0xFF, 0xE1})
		var lenBuf [2]byte
		binary.BigEndian.PutUint16(lenBuf[:], uint16(len(app1)+2))
		buf.Write(lenBuf[:])
		buf.Write(app1)
	}

	sof := []byte{8, 0, 120, 0, 160, 1, 1, 0x11, 0}
	buf.Write([]byte{0xFF, 0xC0, 0, byte(len(sof) + 2)})
	buf.Write(sof)

	sos := []byte{1, 1, 0}
	buf.Write([]byte{0xFF, 0xDA, 0, byte(len(sos) + 2)})
	buf.Write(sos)
	buf.Write([]byte{0x12, 0x34, 0x56})
	buf.Write([]byte{0xFF, 0xD9})
	return buf.Bytes()
}

// writeJPEG writes a synthesized JPEG with the given tags into dir.
func writeJPEG(t *testing.T, dir, name string, tm *types.TagMap) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, buildJPEGBytes(t, tm), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func sampleImageTags() *types.TagMap {
	tm := types.NewTagMap()
	tm.Set("Make", types.StringValue("Canon"))
	tm.Set("Model", types.StringValue("EOS R6"))
	tm.Set("Artist", types.StringValue("Jo Bloggs"))
	tm.Set("DateTime", types.StringValue("2024:06:15 10:30:00"))
	tm.Set("DateTimeOriginal", types.StringValue("2024:06:15 10:29:58"))
	tm.Set("Orientation", types.UintValue(1))
	tm.Set("ISOSpeedRatings", types.UintValue(200))
	tm.Set("FNumber", types.RationalValue(types.NewRational(28, 10)))
	tm.Set("ExposureTime", types.RationalValue(types.NewRational(1, 250)))
	tm.Set("FocalLength", types.RationalValue(types.NewRational(50, 1)))
	return tm
}

func TestOpenAndAccessors(t *testing.T) {
	path := writeJPEG(t, t.TempDir(), "photo.jpg", sampleImageTags())

	img, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	if img.Path() != path {
		t.Errorf("Path = %q", img.Path())
	}
	if img.Format() != FormatJPEG {
		t.Errorf("Format = %v", img.Format())
	}
	if img.Size() == 0 {
		t.Error("Size = 0")
	}
	if img.Dirty() {
		t.Error("freshly opened image is dirty")
	}

	if v, ok := img.Make(); !ok || v != "Canon" {
		t.Errorf("Make = %q, %v", v, ok)
	}
	if v, ok := img.Model(); !ok || v != "EOS R6" {
		t.Errorf("Model = %q, %v", v, ok)
	}
	if v, ok := img.Artist(); !ok || v != "Jo Bloggs" {
		t.Errorf("Artist = %q, %v", v, ok)
	}
	if v, ok := img.DateTime(); !ok || v != "2024:06:15 10:30:00" {
		t.Errorf("DateTime = %q, %v", v, ok)
	}
	if v, ok := img.ISO(); !ok || v != 200 {
		t.Errorf("ISO = %d, %v", v, ok)
	}
	if v, ok := img.FNumber(); !ok || math.Abs(v-2.8) > 1e-9 {
		t.Errorf("FNumber = %v, %v", v, ok)
	}
	if v, ok := img.ExposureTime(); !ok || v != types.NewRational(1, 250) {
		t.Errorf("ExposureTime = %v, %v", v, ok)
	}
	if v, ok := img.FocalLength(); !ok || v != 50 {
		t.Errorf("FocalLength = %v, %v", v, ok)
	}
	if v, ok := img.Orientation(); !ok || v != 1 {
		t.Errorf("Orientation = %d, %v", v, ok)
	}
	if w, ok := img.Width(); !ok || w != 160 {
		t.Errorf("Width = %d, %v", w, ok)
	}
	if h, ok := img.Height(); !ok || h != 120 {
		t.Errorf("Height = %d, %v", h, ok)
	}
	if _, ok := img.GPS(); ok {
		t.Error("GPS present on an image without GPS tags")
	}
}

func TestOpenErrors(t *testing.T) {
	dir := t.TempDir()

	if _, err := Open(filepath.Join(dir, "missing.jpg")); err == nil {
		t.Error("Open of missing file succeeded")
	}

	textPath := filepath.Join(dir, "notes.jpg")
	if err := os.WriteFile(textPath, []byte("not an image at all"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := Open(textPath)
	var fe *FormatError
	if !errors.As(err, &fe) {
		t.Fatalf("Open error = %v, want *FormatError", err)
	}
	if fe.Path != textPath {
		t.Errorf("FormatError.Path = %q", fe.Path)
	}
}

func TestStrictGetters(t *testing.T) {
	path := writeJPEG(t, t.TempDir(), "photo.jpg", sampleImageTags())
	img, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	if s, err := img.GetString("Make"); err != nil || s != "Canon" {
		t.Errorf("GetString(Make) = %q, %v", s, err)
	}

	// Absent tags yield the zero value with no error.
	if s, err := img.GetString("NoSuchTag"); err != nil || s != "" {
		t.Errorf("GetString(absent) = %q, %v", s, err)
	}
	if n, err := img.GetInt("NoSuchTag"); err != nil || n != 0 {
		t.Errorf("GetInt(absent) = %d, %v", n, err)
	}

	// A present tag of the wrong kind is a TagError.
	_, err = img.GetInt("Make")
	var te *TagError
	if !errors.As(err, &te) {
		t.Fatalf("GetInt(Make) error = %v, want *TagError", err)
	}
	if te.Tag != "Make" || te.Want != KindInt || te.Got != KindString {
		t.Errorf("TagError = %+v", te)
	}

	if r, err := img.GetRational("ExposureTime"); err != nil || r != types.NewRational(1, 250) {
		t.Errorf("GetRational(ExposureTime) = %v, %v", r, err)
	}
	if f, err := img.GetFloat("FNumber"); err != nil || math.Abs(f-2.8) > 1e-9 {
		t.Errorf("GetFloat(FNumber) = %v, %v", f, err)
	}
}

func TestMutation(t *testing.T) {
	path := writeJPEG(t, t.TempDir(), "photo.jpg", sampleImageTags())
	img, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	before := img.Len()
	img.SetCopyright("CC BY 4.0")
	if !img.Dirty() {
		t.Error("Set did not mark the image dirty")
	}
	if img.Len() != before+1 {
		t.Errorf("Len = %d, want %d", img.Len(), before+1)
	}
	if v, ok := img.Copyright(); !ok || v != "CC BY 4.0" {
		t.Errorf("Copyright = %q, %v", v, ok)
	}

	if !img.Delete("Copyright") {
		t.Error("Delete of a present tag reported false")
	}
	if img.Delete("Copyright") {
		t.Error("Delete of an absent tag reported true")
	}
	if img.Len() != before {
		t.Errorf("Len after delete = %d, want %d", img.Len(), before)
	}

	img.Strip()
	if img.Len() != 0 {
		t.Errorf("Len after Strip = %d", img.Len())
	}
}

func TestSetGPSRoundTrip(t *testing.T) {
	path := writeJPEG(t, t.TempDir(), "photo.jpg", sampleImageTags())
	img, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	want := GPSCoordinate{Latitude: 51.4778, Longitude: -0.0015, Altitude: 46, HasAltitude: true}
	img.SetGPS(want)

	got, ok := img.GPS()
	if !ok {
		t.Fatal("GPS absent after SetGPS")
	}
	if math.Abs(got.Latitude-want.Latitude) > 1e-4 || math.Abs(got.Longitude-want.Longitude) > 1e-4 {
		t.Errorf("GPS = %+v, want %+v", got, want)
	}
	if !got.HasAltitude || math.Abs(got.Altitude-want.Altitude) > 0.01 {
		t.Errorf("Altitude = %+v", got)
	}
}

func TestCopyTags(t *testing.T) {
	dir := t.TempDir()
	src, err := Open(writeJPEG(t, dir, "src.jpg", sampleImageTags()))
	if err != nil {
		t.Fatalf("Open src: %v", err)
	}
	dst, err := Open(writeJPEG(t, dir, "dst.jpg", nil))
	if err != nil {
		t.Fatalf("Open dst: %v", err)
	}

	// dst already carries ImageWidth and ImageHeight from its SOF marker.
	before := dst.Len()
	dst.CopyTags(src, "Make", "Model", "NoSuchTag")
	if dst.Len() != before+2 {
		t.Errorf("Len = %d, want %d", dst.Len(), before+2)
	}
	if v, ok := dst.Make(); !ok || v != "Canon" {
		t.Errorf("Make = %q, %v", v, ok)
	}
	if !dst.Dirty() {
		t.Error("CopyTags did not mark the image dirty")
	}

	all, err := Open(writeJPEG(t, dir, "all.jpg", nil))
	if err != nil {
		t.Fatalf("Open all: %v", err)
	}
	all.CopyTags(src)
	if all.Len() != src.Len() {
		t.Errorf("Len = %d, want %d", all.Len(), src.Len())
	}
}

func TestValidationModes(t *testing.T) {
	tm := sampleImageTags()
	tm.Set("Orientation", types.UintValue(9))
	path := writeJPEG(t, t.TempDir(), "photo.jpg", tm)

	img, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if len(img.Issues()) == 0 {
		t.Error("out-of-range orientation produced no issues")
	}

	if _, err := Open(path, WithStrictValidation()); err == nil {
		t.Error("strict open accepted a file with issues")
	} else if !strings.Contains(err.Error(), "strict validation") {
		t.Errorf("strict open error = %v", err)
	}

	ignored, err := Open(path, WithIgnoreIssues())
	if err != nil {
		t.Fatalf("Open with WithIgnoreIssues: %v", err)
	}
	if len(ignored.Issues()) != 0 {
		t.Errorf("Issues = %v, want none", ignored.Issues())
	}
}

func TestDetectFormat(t *testing.T) {
	dir := t.TempDir()
	jpegPath := writeJPEG(t, dir, "photo.jpg", nil)

	f, err := DetectFormat(jpegPath)
	if err != nil || f != FormatJPEG {
		t.Errorf("DetectFormat = %v, %v", f, err)
	}

	textPath := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(textPath, []byte("plain text"), 0o644); err != nil {
		t.Fatal(err)
	}
	f, err = DetectFormat(textPath)
	if f != FormatUnknown {
		t.Errorf("DetectFormat = %v, want FormatUnknown", f)
	}
	var fe *FormatError
	if !errors.As(err, &fe) {
		t.Errorf("DetectFormat error = %v, want *FormatError", err)
	}

	// Files far smaller than the detection window still detect.
	hdrPath := filepath.Join(dir, "tiny.hdr")
	if err := os.WriteFile(hdrPath, []byte("#?RADIANCE\n\n-Y 1 +X 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if f, err := DetectFormat(hdrPath); err != nil || f != FormatHDR {
		t.Errorf("DetectFormat(tiny.hdr) = %v, %v", f, err)
	}

	emptyPath := filepath.Join(dir, "empty.jpg")
	if err := os.WriteFile(emptyPath, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	f, err = DetectFormat(emptyPath)
	if f != FormatUnknown || !errors.As(err, &fe) {
		t.Errorf("DetectFormat(empty) = %v, %v, want FormatUnknown with *FormatError", f, err)
	}
}

func TestOpenBytes(t *testing.T) {
	data := buildJPEGBytes(t, sampleImageTags())

	img, err := OpenBytes(data)
	if err != nil {
		t.Fatalf("OpenBytes: %v", err)
	}
	if img.Path() != "" {
		t.Errorf("Path = %q, want empty", img.Path())
	}
	if img.Format() != FormatJPEG {
		t.Errorf("Format = %v", img.Format())
	}
	if v, ok := img.Make(); !ok || v != "Canon" {
		t.Errorf("Make = %q, %v", v, ok)
	}

	// A pathless image cannot Save in place, only SaveAs.
	img.SetArtist("changed")
	var we *WriteError
	if err := img.Save(); !errors.As(err, &we) {
		t.Errorf("Save error = %v, want *WriteError", err)
	}
	out := filepath.Join(t.TempDir(), "out.jpg")
	if err := img.SaveAs(out); err != nil {
		t.Fatalf("SaveAs: %v", err)
	}
	reread, err := Open(out)
	if err != nil {
		t.Fatalf("Open written file: %v", err)
	}
	if v, ok := reread.Artist(); !ok || v != "changed" {
		t.Errorf("Artist = %q, %v", v, ok)
	}

	if _, err := OpenBytes([]byte("not an image")); err == nil {
		t.Error("OpenBytes accepted garbage")
	}
}

func TestICCAccessors(t *testing.T) {
	dir := t.TempDir()
	profile := bytes.Repeat([]byte{0x7E}, 64)
	img, err := Open(writeJPEG(t, dir, "photo.jpg", sampleImageTags()))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	if _, ok := img.ICC(); ok {
		t.Error("ICC present on an image without a profile")
	}

	img.SetICC(profile)
	if !img.Dirty() {
		t.Error("SetICC did not mark the image dirty")
	}
	out := filepath.Join(dir, "tagged.jpg")
	if err := img.SaveAs(out); err != nil {
		t.Fatalf("SaveAs: %v", err)
	}
	reread, err := Open(out)
	if err != nil {
		t.Fatalf("Open written file: %v", err)
	}
	if got, ok := reread.ICC(); !ok || !bytes.Equal(got, profile) {
		t.Errorf("ICC after round trip = %d bytes, %v", len(got), ok)
	}

	// SetICCFromFile loads the profile off disk.
	profilePath := filepath.Join(dir, "display.icc")
	if err := os.WriteFile(profilePath, profile, 0o644); err != nil {
		t.Fatal(err)
	}
	fresh, err := Open(writeJPEG(t, dir, "fresh.jpg", nil))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := fresh.SetICCFromFile(profilePath); err != nil {
		t.Fatalf("SetICCFromFile: %v", err)
	}
	if got, ok := fresh.ICC(); !ok || !bytes.Equal(got, profile) {
		t.Error("profile not loaded from file")
	}
	if err := fresh.SetICCFromFile(filepath.Join(dir, "missing.icc")); err == nil {
		t.Error("SetICCFromFile of a missing file succeeded")
	}
}

func TestThumbnailAndPreview(t *testing.T) {
	img, err := Open(writeJPEG(t, t.TempDir(), "photo.jpg", sampleImageTags()))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	if _, ok := img.Thumbnail(); ok {
		t.Error("Thumbnail present on an image without one")
	}
	if _, ok := img.Preview(); ok {
		t.Error("Preview present on an image without one")
	}

	// Preview falls back to the thumbnail when no larger preview exists.
	thumb := []byte{0xFF, 0xD8, 0xFF, 0xD9}
	img.Set("ThumbnailImage", BytesValue(thumb))
	if got, ok := img.Thumbnail(); !ok || !bytes.Equal(got, thumb) {
		t.Errorf("Thumbnail = %v, %v", got, ok)
	}
	if got, ok := img.Preview(); !ok || !bytes.Equal(got, thumb) {
		t.Errorf("Preview fallback = %v, %v", got, ok)
	}

	preview := bytes.Repeat([]byte{0xBB}, 32)
	img.Set("PreviewImage", BytesValue(preview))
	if got, ok := img.Preview(); !ok || !bytes.Equal(got, preview) {
		t.Errorf("Preview = %d bytes, %v", len(got), ok)
	}
}

func TestMarshalJSONOrder(t *testing.T) {
	path := writeJPEG(t, t.TempDir(), "photo.jpg", sampleImageTags())
	img, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	out, err := img.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON: %v", err)
	}
	if !strings.Contains(string(out), `"Make":"Canon"`) {
		t.Errorf("JSON = %s", out)
	}
	if !strings.Contains(string(out), `"ExposureTime":"1/250"`) {
		t.Errorf("JSON = %s", out)
	}
}
