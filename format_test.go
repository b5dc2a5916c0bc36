package imagemeta

import (
	"strings"
	"testing"
)

func TestFormatString(t *testing.T) {
	tests := []struct {
		format Format
		want   string
	}{
		{FormatJPEG, "JPEG"},
		{FormatPNG, "PNG"},
		{FormatTIFF, "TIFF"},
		{FormatHEIC, "HEIC"},
		{FormatCR3, "CR3"},
		{FormatRAF, "RAF"},
		{FormatEXR, "EXR"},
		{FormatHDR, "HDR"},
		{FormatUnknown, "Unknown"},
		{Format(99), "Unknown"},
	}

	for _, tt := range tests {
		if got := tt.format.String(); got != tt.want {
			t.Errorf("Format(%d).String() = %q, want %q", tt.format, got, tt.want)
		}
	}
}

func TestFormatExtensions(t *testing.T) {
	for _, f := range AllFormats() {
		exts := f.Extensions()
		if len(exts) == 0 {
			t.Errorf("%s has no extensions", f)
			continue
		}
		for _, ext := range exts {
			if !strings.HasPrefix(ext, ".") || ext != strings.ToLower(ext) {
				t.Errorf("%s extension %q is not lowercase dotted form", f, ext)
			}
		}
	}
	if FormatUnknown.Extensions() != nil {
		t.Error("FormatUnknown should have no extensions")
	}
}

func TestFormatIsCameraRaw(t *testing.T) {
	raws := []Format{FormatCR2, FormatCR3, FormatNEF, FormatARW, FormatORF, FormatRW2, FormatPEF, FormatRAF}
	for _, f := range raws {
		if !f.IsCameraRaw() {
			t.Errorf("%s should be camera raw", f)
		}
	}
	for _, f := range []Format{FormatJPEG, FormatPNG, FormatTIFF, FormatDNG, FormatEXR} {
		if f.IsCameraRaw() {
			t.Errorf("%s should not be camera raw", f)
		}
	}
}
