package types

import "fmt"

// FormatError is returned when input bytes are unrecognized or the
// container structure is invalid beyond recovery.
type FormatError struct {
	Path   string
	Reason string
	Err    error
}

func (e *FormatError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s", e.Path, e.Reason)
	}
	return e.Reason
}

func (e *FormatError) Unwrap() error { return e.Err }

// WriteError is returned when metadata cannot be written back: the format
// has no encoder, a value violates a structural constraint of the format,
// or the underlying file write fails.
type WriteError struct {
	Path   string
	Format Format
	Reason string
	Err    error
}

func (e *WriteError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: write %s: %s", e.Path, e.Format, e.Reason)
	}
	return fmt.Sprintf("write %s: %s", e.Format, e.Reason)
}

func (e *WriteError) Unwrap() error { return e.Err }

// TagError is returned by strict typed accessors when a tag is present but
// its stored kind does not match the requested one. An absent tag is never
// a TagError.
type TagError struct {
	Tag  string
	Want Kind
	Got  Kind
}

func (e *TagError) Error() string {
	return fmt.Sprintf("tag %q: cannot read %s value as %s", e.Tag, e.Got, e.Want)
}
