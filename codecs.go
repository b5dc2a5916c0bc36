package imagemeta

// Codec registration. Blank imports run each format package's init,
// which adds its codec to the detection chain. Every codec claims a
// distinct magic prefix, so chain order does not affect detection.
import (
	_ "github.com/ssoj13/imagemeta/internal/bmff"
	_ "github.com/ssoj13/imagemeta/internal/exrmeta"
	_ "github.com/ssoj13/imagemeta/internal/hdrmeta"
	_ "github.com/ssoj13/imagemeta/internal/jpegmeta"
	_ "github.com/ssoj13/imagemeta/internal/pngmeta"
	_ "github.com/ssoj13/imagemeta/internal/rafmeta"
	_ "github.com/ssoj13/imagemeta/internal/tiffmeta"
	_ "github.com/ssoj13/imagemeta/internal/webpmeta"
)
