package pngmeta

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/ssoj13/imagemeta/internal/types"
)

// buildPNG assembles a valid PNG stream from IHDR dimensions, optional
// metadata chunks, and a stub IDAT.
func buildPNG(meta ...chunk) []byte {
	ihdr := make([]byte, 13)
	binary.BigEndian.PutUint32(ihdr[:4], 160)
	binary.BigEndian.PutUint32(ihdr[4:8], 120)
	ihdr[8] = 8 // bit depth
	ihdr[9] = 2 // truecolor

	chunks := []chunk{{typ: "IHDR", data: ihdr}}
	chunks = append(chunks, meta...)
	chunks = append(chunks,
		chunk{typ: "IDAT", data: []byte{0x78, 0x9C, 0x01}},
		chunk{typ: "IEND"},
	)
	return writeChunks(chunks)
}

func TestDetect(t *testing.T) {
	c := &pngCodec{}
	if f, ok := c.Detect(buildPNG(), ".png"); !ok || f != types.FormatPNG {
		t.Errorf("Detect = %v, %v", f, ok)
	}
	if _, ok := c.Detect([]byte{0xFF, 0xD8, 0xFF}, ".png"); ok {
		t.Error("Detect accepted JPEG bytes")
	}
}

func TestDecodeDimensionsAndText(t *testing.T) {
	data := buildPNG(
		chunk{typ: "tEXt", data: textPayload("Author", "A. Adams")},
		chunk{typ: "tIME", data: []byte{0x07, 0xE8, 6, 15, 10, 30, 0}},
	)

	c := &pngCodec{}
	tm, issues, err := c.Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(issues) != 0 {
		t.Errorf("unexpected issues: %v", issues)
	}

	if v, _ := tm.Get("ImageWidth"); !v.Equal(types.UintValue(160)) {
		t.Errorf("ImageWidth = %v", v)
	}
	if v, _ := tm.Get("ImageHeight"); !v.Equal(types.UintValue(120)) {
		t.Errorf("ImageHeight = %v", v)
	}
	if v, _ := tm.Get("Author"); !v.Equal(types.StringValue("A. Adams")) {
		t.Errorf("Author = %v", v)
	}
	if v, _ := tm.Get("ModifyDate"); !v.Equal(types.StringValue("2024:06:15 10:30:00")) {
		t.Errorf("ModifyDate = %v", v)
	}
}

func TestDecodeITXt(t *testing.T) {
	// keyword NUL compression-flag compression-method lang NUL
	// translated NUL text
	payload := []byte("Comment\x00\x00\x00en\x00\x00hello")
	data := buildPNG(chunk{typ: "iTXt", data: payload})

	c := &pngCodec{}
	tm, _, err := c.Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if v, _ := tm.Get("Comment"); !v.Equal(types.StringValue("hello")) {
		t.Errorf("Comment = %v", v)
	}
}

func TestDecodeTruncatedChunk(t *testing.T) {
	data := buildPNG()
	c := &pngCodec{}
	if _, _, err := c.Decode(data[:len(data)-6]); err == nil {
		t.Error("truncated PNG accepted")
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	original := buildPNG(chunk{typ: "tEXt", data: textPayload("Comment", "old")})

	c := &pngCodec{}
	tags, _, err := c.Decode(original)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	tags.Set("Comment", types.StringValue("new"))
	tags.Set("Artist", types.StringValue("A. Adams"))

	out, err := c.Encode(original, tags)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	reread, _, err := c.Decode(out)
	if err != nil {
		t.Fatalf("Decode written bytes: %v", err)
	}
	if v, _ := reread.Get("Comment"); !v.Equal(types.StringValue("new")) {
		t.Errorf("Comment = %v, want new", v)
	}
	// Artist is in the EXIF dictionary; it travels via the eXIf chunk.
	if v, _ := reread.Get("Artist"); !v.Equal(types.StringValue("A. Adams")) {
		t.Errorf("Artist = %v", v)
	}
	// Pixel data must survive byte-identical.
	if !bytes.Contains(out, []byte{0x78, 0x9C, 0x01}) {
		t.Error("IDAT not preserved")
	}
}

func TestICCPRoundTrip(t *testing.T) {
	profile := bytes.Repeat([]byte{0x5A}, 400)

	c := &pngCodec{}
	tags := types.NewTagMap()
	tags.Set("ICCProfile", types.BytesValue(profile))

	out, err := c.Encode(buildPNG(), tags)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	reread, issues, err := c.Decode(out)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(issues) != 0 {
		t.Errorf("unexpected issues: %v", issues)
	}
	v, ok := reread.Get("ICCProfile")
	if !ok {
		t.Fatal("ICCProfile missing after round trip")
	}
	got, _ := v.Bytes()
	if !bytes.Equal(got, profile) {
		t.Errorf("profile altered: %d bytes, want %d", len(got), len(profile))
	}
}

func TestDecodeCorruptICCP(t *testing.T) {
	// Valid header, garbage where the zlib stream should be.
	data := buildPNG(chunk{typ: "iCCP", data: []byte("name\x00\x00not-zlib")})

	c := &pngCodec{}
	tm, issues, err := c.Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if tm.Has("ICCProfile") {
		t.Error("corrupt iCCP produced a profile")
	}
	if len(issues) == 0 {
		t.Error("corrupt iCCP raised no issue")
	}
}

func TestWriteChunksCRC(t *testing.T) {
	data := writeChunks([]chunk{{typ: "IEND"}})
	// Signature (8) + length (4) + type (4) + CRC (4).
	if len(data) != 20 {
		t.Fatalf("len = %d, want 20", len(data))
	}
	// Well-known CRC of the bare IEND chunk.
	want := []byte{0xAE, 0x42, 0x60, 0x82}
	if !bytes.Equal(data[16:], want) {
		t.Errorf("IEND CRC = %x, want %x", data[16:], want)
	}
}
