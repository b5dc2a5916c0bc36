// Package imagemeta reads and writes image metadata across photo and
// raw-camera formats through one format-agnostic API.
//
// # Supported formats
//
// JPEG, PNG, TIFF, DNG, WebP, HEIC, AVIF, OpenEXR and Radiance HDR, plus
// the camera raw formats CR2, CR3, NEF, ARW, ORF, RW2, PEF and RAF.
// Formats are detected from magic bytes; the extension is only consulted
// to tell apart TIFF-based raw siblings with identical headers. Camera
// raw files and a few structurally rigid containers are read-only;
// attempting to save modified tags to one returns a *WriteError.
//
// # Opening a file
//
//	img, err := imagemeta.Open("photo.jpg")
//	if err != nil {
//		return err
//	}
//	if model, ok := img.Model(); ok {
//		fmt.Println("camera:", model)
//	}
//
// Recoverable anomalies (an out-of-range GPS fix, a malformed datetime)
// never fail the open; they are collected in Image.Issues. Use
// WithStrictValidation to turn any issue into an error.
//
// # Tags
//
// Metadata lives in an insertion-ordered tag map of string names to
// immutable Values (integers, floats, rationals, strings, byte blobs,
// GPS coordinates, lists). Typed convenience accessors cover the common
// EXIF fields; Get, GetString and friends reach arbitrary tags. An
// absent tag is (zero, false), never an error; a present tag read as the
// wrong kind is a *TagError.
//
// # Saving
//
// Save and SaveAs are atomic (temp file, fsync, rename). An unmodified
// image writes back byte-identical to the original; a modified image
// re-encodes only the metadata segments its codec models, leaving pixel
// data untouched.
//
//	img.SetArtist("Ansel Adams")
//	err = img.Save(imagemeta.WithBackup(".bak"))
//
// # Bulk scanning
//
// Scan and ScanDir open many files across a bounded worker pool,
// collecting per-file failures instead of aborting:
//
//	result, err := imagemeta.Scan("photos/**/*.jpg")
//	if err != nil {
//		return err
//	}
//	for img := range result.Images() {
//		fmt.Println(img.Path())
//	}
//	for _, f := range result.Failures() {
//		log.Printf("skipped %s: %v", f.Path, f.Err)
//	}
//
// Results come back in deterministic discovery order regardless of which
// worker finished first. WithFailFast aborts on the first failure,
// WithSequential disables the pool, WithWorkers resizes it.
package imagemeta
