package imagemeta

// Option configures behavior when opening image files.
//
// Options use the functional options pattern for clean, extensible APIs.
//
// Example:
//
//	img, err := imagemeta.Open("photo.jpg",
//	    imagemeta.WithStrictValidation(),
//	)
type Option func(*openOptions)

// openOptions holds configuration for opening files.
type openOptions struct {
	strictValidation bool // Fail on any validation issue
	ignoreIssues     bool // Suppress all validation issues
}

// defaultOptions returns the default configuration.
func defaultOptions() *openOptions {
	return &openOptions{
		strictValidation: false,
		ignoreIssues:     false,
	}
}

// WithStrictValidation treats any validation issue as a fatal error.
//
// By default, Open continues when it encounters issues like out-of-range
// GPS coordinates or malformed datetime strings, returning them in
// Image.Issues alongside the parsed tags.
//
// With strict validation enabled, any issue fails the open with a
// *FormatError.
//
// Example:
//
//	img, err := imagemeta.Open("photo.jpg", imagemeta.WithStrictValidation())
//	// err != nil if ANY issue is encountered
func WithStrictValidation() Option {
	return func(o *openOptions) {
		o.strictValidation = true
	}
}

// WithIgnoreIssues suppresses all validation issues.
//
// By default, issues about non-fatal anomalies are collected in
// Image.Issues. This option discards them.
//
// Use this for bulk scans where only the tag data matters.
//
// Example:
//
//	img, err := imagemeta.Open("photo.jpg", imagemeta.WithIgnoreIssues())
//	// img.Issues() will always be empty
func WithIgnoreIssues() Option {
	return func(o *openOptions) {
		o.ignoreIssues = true
	}
}
