// Package exiftags decodes and encodes the TIFF-structured EXIF blobs
// shared by JPEG APP1 segments, PNG eXIf chunks, WebP EXIF chunks, HEIC
// Exif items and the TIFF raw family.
//
// Decoding rides on github.com/rwcarlsen/goexif; encoding rebuilds the
// IFD structure from scratch since goexif is read-only.
package exiftags

import (
	"fmt"
	"strconv"
	"strings"
)

// ifdLocation says which IFD a tag belongs to when encoding.
type ifdLocation int

const (
	ifdMain ifdLocation = iota // IFD0
	ifdExif                    // Exif sub-IFD
	ifdGPS                     // GPS sub-IFD
)

// tagSpec maps a tag name to its numeric ID and home IFD.
type tagSpec struct {
	id  uint16
	ifd ifdLocation
}

// Pointer tags linking IFD0 to the sub-IFDs.
const (
	tagExifIFDPointer = 0x8769
	tagGPSIFDPointer  = 0x8825
)

// tagSpecs covers the well-known tags this module can write back. Names
// follow goexif's field naming so decode and encode agree. Tags outside
// this table can still round-trip through the generic "Tag_0x%04X" form.
var tagSpecs = map[string]tagSpec{
	// IFD0
	"ImageWidth":                {0x0100, ifdMain},
	"ImageLength":               {0x0101, ifdMain},
	"BitsPerSample":             {0x0102, ifdMain},
	"Compression":               {0x0103, ifdMain},
	"PhotometricInterpretation": {0x0106, ifdMain},
	"ImageDescription":          {0x010E, ifdMain},
	"Make":                      {0x010F, ifdMain},
	"Model":                     {0x0110, ifdMain},
	"Orientation":               {0x0112, ifdMain},
	"SamplesPerPixel":           {0x0115, ifdMain},
	"XResolution":               {0x011A, ifdMain},
	"YResolution":               {0x011B, ifdMain},
	"ResolutionUnit":            {0x0128, ifdMain},
	"Software":                  {0x0131, ifdMain},
	"DateTime":                  {0x0132, ifdMain},
	"Artist":                    {0x013B, ifdMain},
	"Copyright":                 {0x8298, ifdMain},

	// Exif sub-IFD
	"ExposureTime":             {0x829A, ifdExif},
	"FNumber":                  {0x829D, ifdExif},
	"ExposureProgram":          {0x8822, ifdExif},
	"ISOSpeedRatings":          {0x8827, ifdExif},
	"ExifVersion":              {0x9000, ifdExif},
	"DateTimeOriginal":         {0x9003, ifdExif},
	"DateTimeDigitized":        {0x9004, ifdExif},
	"ShutterSpeedValue":        {0x9201, ifdExif},
	"ApertureValue":            {0x9202, ifdExif},
	"BrightnessValue":          {0x9203, ifdExif},
	"ExposureBiasValue":        {0x9204, ifdExif},
	"MaxApertureValue":         {0x9205, ifdExif},
	"SubjectDistance":          {0x9206, ifdExif},
	"MeteringMode":             {0x9207, ifdExif},
	"LightSource":              {0x9208, ifdExif},
	"Flash":                    {0x9209, ifdExif},
	"FocalLength":              {0x920A, ifdExif},
	"UserComment":              {0x9286, ifdExif},
	"SubSecTime":               {0x9290, ifdExif},
	"SubSecTimeOriginal":       {0x9291, ifdExif},
	"SubSecTimeDigitized":      {0x9292, ifdExif},
	"ColorSpace":               {0xA001, ifdExif},
	"PixelXDimension":          {0xA002, ifdExif},
	"PixelYDimension":          {0xA003, ifdExif},
	"WhiteBalance":             {0xA403, ifdExif},
	"DigitalZoomRatio":         {0xA404, ifdExif},
	"FocalLengthIn35mmFilm":    {0xA405, ifdExif},
	"SceneCaptureType":         {0xA406, ifdExif},
	"LensMake":                 {0xA433, ifdExif},
	"LensModel":                {0xA434, ifdExif},

	// GPS sub-IFD
	"GPSVersionID":    {0x0000, ifdGPS},
	"GPSLatitudeRef":  {0x0001, ifdGPS},
	"GPSLatitude":     {0x0002, ifdGPS},
	"GPSLongitudeRef": {0x0003, ifdGPS},
	"GPSLongitude":    {0x0004, ifdGPS},
	"GPSAltitudeRef":  {0x0005, ifdGPS},
	"GPSAltitude":     {0x0006, ifdGPS},
	"GPSTimeStamp":    {0x0007, ifdGPS},
	"GPSMapDatum":     {0x0012, ifdGPS},
	"GPSDateStamp":    {0x001D, ifdGPS},
}

// genericTagName is the form tags without a dictionary entry take
// ("Tag_0x9C9B"). They encode into IFD0.
func genericTagName(id uint16) string {
	return fmt.Sprintf("Tag_0x%04X", id)
}

// lookupSpec resolves a tag name to its encoding spec, accepting both
// dictionary names and the generic Tag_0xNNNN form.
func lookupSpec(name string) (tagSpec, bool) {
	if spec, ok := tagSpecs[name]; ok {
		return spec, true
	}
	if rest, ok := strings.CutPrefix(name, "Tag_0x"); ok {
		if id, err := strconv.ParseUint(rest, 16, 16); err == nil {
			return tagSpec{id: uint16(id), ifd: ifdMain}, true
		}
	}
	return tagSpec{}, false
}
