package bmff

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/ssoj13/imagemeta/internal/exiftags"
	"github.com/ssoj13/imagemeta/internal/types"
)

// bmffBox wraps a payload in a box header with a 32-bit size.
func bmffBox(typ string, payload []byte) []byte {
	out := make([]byte, 8+len(payload))
	binary.BigEndian.PutUint32(out, uint32(8+len(payload)))
	copy(out[4:8], typ)
	copy(out[8:], payload)
	return out
}

func ftypBox(major string, compat ...string) []byte {
	payload := []byte(major)
	payload = append(payload, 0, 0, 0, 0) // minor version
	for _, c := range compat {
		payload = append(payload, c...)
	}
	return bmffBox("ftyp", payload)
}

func sampleExif(t *testing.T) []byte {
	t.Helper()
	tm := types.NewTagMap()
	tm.Set("Make", types.StringValue("Canon"))
	tm.Set("Model", types.StringValue("EOS R5"))
	block, err := exiftags.Encode(tm)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	return block
}

func TestDetectBrands(t *testing.T) {
	tests := []struct {
		name   string
		data   []byte
		want   types.Format
		wantOK bool
	}{
		{"heic major", ftypBox("heic"), types.FormatHEIC, true},
		{"avif major", ftypBox("avif"), types.FormatAVIF, true},
		{"cr3 major", ftypBox("crx "), types.FormatCR3, true},
		{"heic compatible", ftypBox("isom", "iso8", "mif1"), types.FormatHEIC, true},
		{"unknown brand", ftypBox("isom", "iso8"), types.FormatUnknown, false},
		{"not bmff", []byte("not a container at all"), types.FormatUnknown, false},
	}

	c := &bmffCodec{}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := c.Detect(tt.data, ".heic")
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("Detect = %v, %v, want %v, %v", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestDecodeExifItem(t *testing.T) {
	// HEIF-style Exif box: 4-byte offset to the Exif header, then the
	// "Exif\0\0" prefix and the TIFF block.
	payload := []byte{0, 0, 0, 0}
	payload = append(payload, "Exif\x00\x00"...)
	payload = append(payload, sampleExif(t)...)

	var file []byte
	file = append(file, ftypBox("heic")...)
	file = append(file, bmffBox("Exif", payload)...)

	c := &bmffCodec{}
	tm, _, err := c.Decode(file)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if v, _ := tm.Get("Make"); !v.Equal(types.StringValue("Canon")) {
		t.Errorf("Make = %v", v)
	}
}

func TestDecodeCR3(t *testing.T) {
	// Canon nests CMT1 inside moov/uuid with a 16-byte uuid prefix.
	cmt1 := bmffBox("CMT1", sampleExif(t))
	uuidPayload := append(bytes.Repeat([]byte{0xAA}, 16), cmt1...)
	moov := bmffBox("moov", bmffBox("uuid", uuidPayload))

	var file []byte
	file = append(file, ftypBox("crx ")...)
	file = append(file, moov...)

	c := &bmffCodec{}
	tm, _, err := c.Decode(file)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if v, _ := tm.Get("Model"); !v.Equal(types.StringValue("EOS R5")) {
		t.Errorf("Model = %v", v)
	}
}

func TestDecodeFallbackScan(t *testing.T) {
	// No Exif or CMT1 box; the payload hides inside an unmodeled box.
	raw := append([]byte("Exif\x00\x00"), sampleExif(t)...)

	var file []byte
	file = append(file, ftypBox("heic")...)
	file = append(file, bmffBox("mdat", raw)...)

	c := &bmffCodec{}
	tm, _, err := c.Decode(file)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if v, _ := tm.Get("Make"); !v.Equal(types.StringValue("Canon")) {
		t.Errorf("Make = %v", v)
	}
}

func TestDecodeNoExif(t *testing.T) {
	file := append(ftypBox("heic"), bmffBox("mdat", []byte{1, 2, 3})...)

	c := &bmffCodec{}
	tm, issues, err := c.Decode(file)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if tm.Len() != 0 {
		t.Errorf("tags = %d, want 0", tm.Len())
	}
	if len(issues) != 0 {
		t.Errorf("issues = %v", issues)
	}
}

func TestDecodeOversizedBox(t *testing.T) {
	file := append(ftypBox("heic"), bmffBox("mdat", []byte{1, 2, 3})...)
	binary.BigEndian.PutUint32(file[len(file)-11:], 0xFFFF)

	c := &bmffCodec{}
	if _, _, err := c.Decode(file); err == nil {
		t.Error("oversized box accepted")
	}
}

func TestEncodeRefused(t *testing.T) {
	c := &bmffCodec{}
	tm := types.NewTagMap()
	tm.Set("Make", types.StringValue("x"))

	_, err := c.Encode(ftypBox("heic"), tm)
	var we *types.WriteError
	if !errors.As(err, &we) {
		t.Fatalf("Encode error = %v, want *types.WriteError", err)
	}
}
