package imagemeta

import (
	"fmt"
	"iter"
	"os"
	"path/filepath"
	"strings"

	"github.com/ssoj13/imagemeta/internal/codec"
	"github.com/ssoj13/imagemeta/internal/types"
)

// Image is an opened image file with its parsed metadata.
//
// Image holds the original file bytes alongside the decoded tags, so an
// unmodified image saves back byte-identical and a modified one rewrites
// only the metadata segments its codec models.
//
// Image is not safe for concurrent mutation; the scan engine hands each
// Image to exactly one owner.
//
//	img, err := imagemeta.Open("photo.jpg")
//	if err != nil {
//		return err
//	}
//	if maker, ok := img.Make(); ok {
//		fmt.Println("camera:", maker)
//	}
type Image struct {
	path     string
	format   Format
	tags     *types.TagMap
	issues   []ValidationIssue
	original []byte
	dirty    bool
}

// Open reads an image file and decodes its metadata.
//
// The format is detected from magic bytes, never from the extension
// alone (the extension only disambiguates TIFF-based raw siblings).
// Returns a *FormatError if no codec recognizes the data or the file is
// structurally broken.
//
// Recoverable anomalies (out-of-range GPS, malformed datetime strings,
// unreadable EXIF blocks) do not fail the open; they are collected as
// ValidationIssues on the returned Image.
//
//	img, err := imagemeta.Open("photo.jpg", imagemeta.WithStrictValidation())
func Open(path string, opts ...Option) (*Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	return decodeImage(path, data, opts)
}

// OpenBytes decodes metadata from an in-memory image. The Image has no
// path, so Save is refused until SaveAs establishes one. Without an
// extension hint, TIFF-based raw siblings (CR2, NEF, DNG) detect as
// plain TIFF.
func OpenBytes(data []byte, opts ...Option) (*Image, error) {
	return decodeImage("", data, opts)
}

func decodeImage(path string, data []byte, opts []Option) (*Image, error) {
	options := defaultOptions()
	for _, opt := range opts {
		opt(options)
	}

	c, format := codec.Detect(data, strings.ToLower(filepath.Ext(path)))
	if c == nil {
		return nil, &FormatError{Path: path, Reason: "unrecognized image format"}
	}

	tags, issues, err := c.Decode(data)
	if err != nil {
		if fe, ok := err.(*FormatError); ok && fe.Path == "" {
			fe.Path = path
		}
		return nil, err
	}

	if options.strictValidation && len(issues) > 0 {
		return nil, &FormatError{Path: path, Reason: "strict validation failed: " + issues[0].String()}
	}
	if options.ignoreIssues {
		issues = nil
	}

	return &Image{
		path:     path,
		format:   format,
		tags:     tags,
		issues:   issues,
		original: data,
	}, nil
}

// Path returns the path the image was opened from.
func (img *Image) Path() string { return img.path }

// Format returns the detected image format.
func (img *Image) Format() Format { return img.format }

// Size returns the size of the original file in bytes.
func (img *Image) Size() int64 { return int64(len(img.original)) }

// Issues returns the validation issues collected while decoding.
func (img *Image) Issues() []ValidationIssue { return img.issues }

// Dirty reports whether any tag has been modified since opening.
func (img *Image) Dirty() bool { return img.dirty }

// Validate re-runs the structural checks over the current tags. Useful
// after mutation, when the issues collected at open time are stale.
func (img *Image) Validate() []ValidationIssue {
	return types.ValidateTags(img.tags)
}

// Len returns the number of tags.
func (img *Image) Len() int { return img.tags.Len() }

// Has reports whether the named tag is present.
func (img *Image) Has(name string) bool { return img.tags.Has(name) }

// Get returns the named tag's value. An absent tag is (zero, false),
// never an error.
func (img *Image) Get(name string) (Value, bool) { return img.tags.Get(name) }

// Keys returns the tag names in insertion order.
func (img *Image) Keys() []string { return img.tags.Keys() }

// All iterates over tags in insertion order. The sequence is
// restartable.
func (img *Image) All() iter.Seq2[string, Value] { return img.tags.All() }

// MarshalJSON renders the tags as an ordered JSON object. Byte values
// appear as "<N bytes>" markers and rationals as "num/den" text.
func (img *Image) MarshalJSON() ([]byte, error) { return img.tags.MarshalJSON() }

// Strict typed getters. A present tag of the wrong kind yields a
// *TagError; an absent tag yields the zero value with no error. Use Has
// or Get to distinguish absent from zero.

// GetString returns the named tag as a string.
func (img *Image) GetString(name string) (string, error) {
	v, ok := img.tags.Get(name)
	if !ok {
		return "", nil
	}
	s, ok := v.Text()
	if !ok {
		return "", &TagError{Tag: name, Want: KindString, Got: v.Kind()}
	}
	return s, nil
}

// GetInt returns the named tag as a signed integer.
func (img *Image) GetInt(name string) (int64, error) {
	v, ok := img.tags.Get(name)
	if !ok {
		return 0, nil
	}
	n, ok := v.Int()
	if !ok {
		return 0, &TagError{Tag: name, Want: KindInt, Got: v.Kind()}
	}
	return n, nil
}

// GetUint returns the named tag as an unsigned integer.
func (img *Image) GetUint(name string) (uint64, error) {
	v, ok := img.tags.Get(name)
	if !ok {
		return 0, nil
	}
	n, ok := v.Uint()
	if !ok {
		return 0, &TagError{Tag: name, Want: KindUint, Got: v.Kind()}
	}
	return n, nil
}

// GetFloat returns the named tag as a float. Integer and rational tags
// convert losslessly where possible.
func (img *Image) GetFloat(name string) (float64, error) {
	v, ok := img.tags.Get(name)
	if !ok {
		return 0, nil
	}
	f, ok := v.Float64()
	if !ok {
		return 0, &TagError{Tag: name, Want: KindFloat, Got: v.Kind()}
	}
	return f, nil
}

// GetRational returns the named tag as a rational.
func (img *Image) GetRational(name string) (Rational, error) {
	v, ok := img.tags.Get(name)
	if !ok {
		return Rational{}, nil
	}
	r, ok := v.Rational()
	if !ok {
		return Rational{}, &TagError{Tag: name, Want: KindRational, Got: v.Kind()}
	}
	return r, nil
}

// Convenience accessors for the common EXIF fields. Each returns
// (zero, false) when the tag is absent or has an incompatible kind.

// Make returns the camera manufacturer.
func (img *Image) Make() (string, bool) { return img.stringTag("Make") }

// Model returns the camera model.
func (img *Image) Model() (string, bool) { return img.stringTag("Model") }

// Software returns the creating software.
func (img *Image) Software() (string, bool) { return img.stringTag("Software") }

// Artist returns the artist or photographer.
func (img *Image) Artist() (string, bool) { return img.stringTag("Artist") }

// Copyright returns the copyright notice.
func (img *Image) Copyright() (string, bool) { return img.stringTag("Copyright") }

// Description returns the image description.
func (img *Image) Description() (string, bool) { return img.stringTag("ImageDescription") }

// DateTime returns the file modification datetime in EXIF format
// ("2006:01:02 15:04:05").
func (img *Image) DateTime() (string, bool) { return img.stringTag("DateTime") }

// DateTimeOriginal returns the capture datetime in EXIF format.
func (img *Image) DateTimeOriginal() (string, bool) { return img.stringTag("DateTimeOriginal") }

// ISO returns the ISO speed rating.
func (img *Image) ISO() (int, bool) {
	v, ok := img.tags.Get("ISOSpeedRatings")
	if !ok {
		return 0, false
	}
	// Some encoders store ISO as a list; the first entry is the rating.
	if items, isList := v.List(); isList && len(items) > 0 {
		v = items[0]
	}
	n, ok := v.Int()
	if !ok {
		return 0, false
	}
	return int(n), true
}

// FNumber returns the aperture as a decimal f-stop.
func (img *Image) FNumber() (float64, bool) { return img.floatTag("FNumber") }

// ExposureTime returns the shutter speed as a rational, preserving
// "1/250" style values exactly.
func (img *Image) ExposureTime() (Rational, bool) {
	v, ok := img.tags.Get("ExposureTime")
	if !ok {
		return Rational{}, false
	}
	return v.Rational()
}

// FocalLength returns the focal length in millimetres.
func (img *Image) FocalLength() (float64, bool) { return img.floatTag("FocalLength") }

// Orientation returns the EXIF orientation (1 through 8).
func (img *Image) Orientation() (int, bool) {
	v, ok := img.tags.Get("Orientation")
	if !ok {
		return 0, false
	}
	n, ok := v.Int()
	if !ok {
		return 0, false
	}
	return int(n), true
}

// Width returns the image width in pixels, preferring the main IFD
// width over the EXIF sub-IFD pixel dimension.
func (img *Image) Width() (int, bool) {
	return img.dimensionTag("ImageWidth", "PixelXDimension")
}

// Height returns the image height in pixels. EXIF calls the main IFD
// height ImageLength; both spellings are accepted.
func (img *Image) Height() (int, bool) {
	return img.dimensionTag("ImageHeight", "ImageLength", "PixelYDimension")
}

// GPS returns the position assembled from the GPS component tags,
// normalized to signed decimal degrees.
func (img *Image) GPS() (GPSCoordinate, bool) {
	return types.GPSFromTags(img.tags)
}

// XMP returns the raw XMP packet when the source file carried one.
func (img *Image) XMP() (string, bool) { return img.stringTag("XMP") }

// Thumbnail returns the embedded thumbnail, the small JPEG stored in
// the EXIF thumbnail IFD.
func (img *Image) Thumbnail() ([]byte, bool) { return img.bytesTag("ThumbnailImage") }

// Preview returns the embedded preview image. Camera raw files carry a
// full-size JPEG preview; files without one fall back to the EXIF
// thumbnail.
func (img *Image) Preview() ([]byte, bool) {
	if b, ok := img.bytesTag("PreviewImage"); ok {
		return b, true
	}
	return img.bytesTag("ThumbnailImage")
}

// ICC returns the embedded ICC color profile.
func (img *Image) ICC() ([]byte, bool) { return img.bytesTag("ICCProfile") }

func (img *Image) stringTag(name string) (string, bool) {
	v, ok := img.tags.Get(name)
	if !ok {
		return "", false
	}
	return v.Text()
}

func (img *Image) floatTag(name string) (float64, bool) {
	v, ok := img.tags.Get(name)
	if !ok {
		return 0, false
	}
	return v.Float64()
}

func (img *Image) bytesTag(name string) ([]byte, bool) {
	v, ok := img.tags.Get(name)
	if !ok {
		return nil, false
	}
	return v.Bytes()
}

func (img *Image) dimensionTag(names ...string) (int, bool) {
	for _, name := range names {
		if v, ok := img.tags.Get(name); ok {
			if n, ok := v.Int(); ok && n > 0 {
				return int(n), true
			}
		}
	}
	return 0, false
}

// Set stores a tag value and marks the image dirty. No I/O happens
// until Save.
func (img *Image) Set(name string, v Value) {
	img.tags.Set(name, v)
	img.dirty = true
}

// SetString stores a string tag.
func (img *Image) SetString(name, value string) {
	img.Set(name, StringValue(value))
}

// Delete removes a tag, reporting whether it was present.
func (img *Image) Delete(name string) bool {
	if img.tags.Delete(name) {
		img.dirty = true
		return true
	}
	return false
}

// SetMake sets the camera manufacturer.
func (img *Image) SetMake(v string) { img.SetString("Make", v) }

// SetModel sets the camera model.
func (img *Image) SetModel(v string) { img.SetString("Model", v) }

// SetSoftware sets the creating software.
func (img *Image) SetSoftware(v string) { img.SetString("Software", v) }

// SetArtist sets the artist.
func (img *Image) SetArtist(v string) { img.SetString("Artist", v) }

// SetCopyright sets the copyright notice.
func (img *Image) SetCopyright(v string) { img.SetString("Copyright", v) }

// SetDescription sets the image description.
func (img *Image) SetDescription(v string) { img.SetString("ImageDescription", v) }

// SetDateTime sets the modification datetime. The value must be in EXIF
// format ("2006:01:02 15:04:05"); Validate flags malformed values.
func (img *Image) SetDateTime(v string) { img.SetString("DateTime", v) }

// SetICC stores an ICC color profile to be written on save. JPEG, PNG
// and WebP files carry profiles; read-only formats refuse the save.
func (img *Image) SetICC(profile []byte) {
	img.Set("ICCProfile", BytesValue(profile))
}

// SetICCFromFile reads a profile from disk and stores it.
func (img *Image) SetICCFromFile(path string) error {
	profile, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read ICC profile: %w", err)
	}
	img.SetICC(profile)
	return nil
}

// SetGPS stores a position as the standard GPS component tags (DMS
// rationals plus hemisphere references).
func (img *Image) SetGPS(g GPSCoordinate) {
	types.GPSToTags(img.tags, g)
	img.dirty = true
}

// Strip removes every tag, marking the image dirty. Saving afterwards
// produces a file without metadata segments.
func (img *Image) Strip() {
	img.tags.Clear()
	img.dirty = true
}

// CopyTags copies tags from src. With no names, every tag is copied;
// otherwise only the named tags that exist on src.
func (img *Image) CopyTags(src *Image, names ...string) {
	if len(names) == 0 {
		for name, v := range src.tags.All() {
			img.tags.Set(name, v)
		}
		img.dirty = true
		return
	}
	for _, name := range names {
		if v, ok := src.tags.Get(name); ok {
			img.tags.Set(name, v)
			img.dirty = true
		}
	}
}
