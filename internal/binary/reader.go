// Package binary provides type-safe binary reading primitives with bounds checking
package binary

import (
	"fmt"
)

// SafeReader wraps a byte slice with bounds checking and helpful error
// messages. Container parsers use it so that a hostile length field
// produces a descriptive error instead of a panic.
type SafeReader struct {
	data []byte
}

// NewSafeReader creates a new SafeReader over data.
func NewSafeReader(data []byte) *SafeReader {
	return &SafeReader{data: data}
}

// Size returns the total number of bytes available.
func (sr *SafeReader) Size() int64 {
	return int64(len(sr.data))
}

// Bytes returns a view of n bytes at the given offset with context for
// error messages. The returned slice aliases the underlying data.
func (sr *SafeReader) Bytes(off, n int64, what string) ([]byte, error) {
	if off < 0 || off > int64(len(sr.data)) {
		return nil, fmt.Errorf("offset %d out of bounds (data size: %d) while reading %s",
			off, len(sr.data), what)
	}
	if n < 0 || off+n > int64(len(sr.data)) {
		return nil, fmt.Errorf("read of %d bytes at offset %d would exceed data size %d while reading %s",
			n, off, len(sr.data), what)
	}
	return sr.data[off : off+n], nil
}

// Read reads a big-endian value of type T from the given offset.
// T must be uint8, uint16, uint32, or uint64.
func Read[T uint8 | uint16 | uint32 | uint64](sr *SafeReader, off int64, what string) (T, error) {
	return ReadEndian[T](sr, off, what, BigEndian)
}

// Reader provides sequential reading with automatic offset tracking.
type Reader struct {
	*SafeReader
	offset int64
	order  Endianness
}

// NewReader creates a new Reader starting at the given offset.
func NewReader(sr *SafeReader, offset int64, order Endianness) *Reader {
	return &Reader{
		SafeReader: sr,
		offset:     offset,
		order:      order,
	}
}

// ReadValue reads a numeric value and advances the offset.
func ReadValue[T uint8 | uint16 | uint32 | uint64](r *Reader, what string) (T, error) {
	val, err := ReadEndian[T](r.SafeReader, r.offset, what, r.order)
	if err != nil {
		var zero T
		return zero, err
	}
	r.offset += int64(typeSize[T]())
	return val, nil
}

// ReadString reads a string of the given length and advances the offset.
func (r *Reader) ReadString(length int, what string) (string, error) {
	buf, err := r.Bytes(r.offset, int64(length), what)
	if err != nil {
		return "", err
	}
	r.offset += int64(length)
	return string(buf), nil
}

// ReadCString reads bytes up to a NUL terminator and advances the offset
// past it. maxLen bounds the scan so a missing terminator cannot run to
// the end of a large file.
func (r *Reader) ReadCString(maxLen int, what string) (string, error) {
	for n := 0; n < maxLen; n++ {
		b, err := r.Bytes(r.offset+int64(n), 1, what)
		if err != nil {
			return "", err
		}
		if b[0] == 0 {
			s, err := r.ReadString(n, what)
			if err != nil {
				return "", err
			}
			r.Skip(1)
			return s, nil
		}
	}
	return "", fmt.Errorf("unterminated string while reading %s at offset %d", what, r.offset)
}

// Skip advances the offset by n bytes.
func (r *Reader) Skip(n int64) {
	r.offset += n
}

// Offset returns the current offset.
func (r *Reader) Offset() int64 {
	return r.offset
}

// Remaining returns the number of bytes left after the current offset.
func (r *Reader) Remaining() int64 {
	return r.Size() - r.offset
}

func typeSize[T uint8 | uint16 | uint32 | uint64]() int {
	var zero T
	switch any(zero).(type) {
	case uint8:
		return 1
	case uint16:
		return 2
	case uint32:
		return 4
	default:
		return 8
	}
}
