package types

// Format represents the detected image container format.
type Format int

const (
	// FormatUnknown represents an unknown or unsupported format.
	FormatUnknown Format = iota
	// FormatJPEG represents JPEG/JFIF images.
	FormatJPEG
	// FormatPNG represents PNG images.
	FormatPNG
	// FormatTIFF represents plain TIFF images.
	FormatTIFF
	// FormatDNG represents Adobe Digital Negative raw files.
	FormatDNG
	// FormatWebP represents WebP images.
	FormatWebP
	// FormatHEIC represents HEIC/HEIF images.
	FormatHEIC
	// FormatAVIF represents AVIF images.
	FormatAVIF
	// FormatCR2 represents Canon CR2 raw files.
	FormatCR2
	// FormatCR3 represents Canon CR3 raw files.
	FormatCR3
	// FormatNEF represents Nikon NEF raw files.
	FormatNEF
	// FormatARW represents Sony ARW raw files.
	FormatARW
	// FormatORF represents Olympus ORF raw files.
	FormatORF
	// FormatRW2 represents Panasonic RW2 raw files.
	FormatRW2
	// FormatPEF represents Pentax PEF raw files.
	FormatPEF
	// FormatRAF represents Fujifilm RAF raw files.
	FormatRAF
	// FormatEXR represents OpenEXR images.
	FormatEXR
	// FormatHDR represents Radiance HDR/RGBE images.
	FormatHDR
)

// String returns the format name.
func (f Format) String() string {
	switch f {
	case FormatJPEG:
		return "JPEG"
	case FormatPNG:
		return "PNG"
	case FormatTIFF:
		return "TIFF"
	case FormatDNG:
		return "DNG"
	case FormatWebP:
		return "WebP"
	case FormatHEIC:
		return "HEIC"
	case FormatAVIF:
		return "AVIF"
	case FormatCR2:
		return "CR2"
	case FormatCR3:
		return "CR3"
	case FormatNEF:
		return "NEF"
	case FormatARW:
		return "ARW"
	case FormatORF:
		return "ORF"
	case FormatRW2:
		return "RW2"
	case FormatPEF:
		return "PEF"
	case FormatRAF:
		return "RAF"
	case FormatEXR:
		return "EXR"
	case FormatHDR:
		return "HDR"
	default:
		return "Unknown"
	}
}

// Extensions returns common file extensions for this format.
func (f Format) Extensions() []string {
	switch f {
	case FormatJPEG:
		return []string{".jpg", ".jpeg", ".jpe"}
	case FormatPNG:
		return []string{".png"}
	case FormatTIFF:
		return []string{".tiff", ".tif"}
	case FormatDNG:
		return []string{".dng"}
	case FormatWebP:
		return []string{".webp"}
	case FormatHEIC:
		return []string{".heic", ".heif"}
	case FormatAVIF:
		return []string{".avif"}
	case FormatCR2:
		return []string{".cr2"}
	case FormatCR3:
		return []string{".cr3"}
	case FormatNEF:
		return []string{".nef"}
	case FormatARW:
		return []string{".arw"}
	case FormatORF:
		return []string{".orf"}
	case FormatRW2:
		return []string{".rw2"}
	case FormatPEF:
		return []string{".pef"}
	case FormatRAF:
		return []string{".raf"}
	case FormatEXR:
		return []string{".exr"}
	case FormatHDR:
		return []string{".hdr", ".rgbe"}
	default:
		return nil
	}
}

// IsCameraRaw reports whether the format is a proprietary camera raw
// container. Camera raw files are read-only: rewriting them risks
// destroying maker-note data the codec does not model.
func (f Format) IsCameraRaw() bool {
	switch f {
	case FormatCR2, FormatCR3, FormatNEF, FormatARW, FormatORF, FormatRW2, FormatPEF, FormatRAF:
		return true
	default:
		return false
	}
}

// AllFormats lists every supported format.
func AllFormats() []Format {
	return []Format{
		FormatJPEG, FormatPNG, FormatTIFF, FormatDNG, FormatWebP,
		FormatHEIC, FormatAVIF, FormatCR2, FormatCR3, FormatNEF,
		FormatARW, FormatORF, FormatRW2, FormatPEF, FormatRAF,
		FormatEXR, FormatHDR,
	}
}
