package exiftags

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"sort"

	"github.com/ssoj13/imagemeta/internal/types"
)

// TIFF field types used by the encoder.
const (
	typeASCII     = 2
	typeLong      = 4
	typeRational  = 5
	typeUndefined = 7
	typeSLong     = 9
	typeSRational = 10
	typeDouble    = 12
)

// entry is one encoded IFD directory entry.
type entry struct {
	id    uint16
	typ   uint16
	count uint32
	data  []byte
}

// Encode builds a little-endian TIFF block holding IFD0, an Exif sub-IFD
// and a GPS sub-IFD from the given tags.
//
// Tags whose names are neither in the dictionary nor of the generic
// Tag_0xNNNN form are ignored: they originate in non-EXIF segments (XMP,
// IPTC, text chunks) which the calling codec preserves or rebuilds
// itself. A value that cannot be represented in the tag's TIFF type
// yields a *types.WriteError.
func Encode(tm *types.TagMap) ([]byte, error) {
	var main, exifSub, gps []entry

	for name, v := range tm.All() {
		spec, ok := lookupSpec(name)
		if !ok {
			continue
		}
		e, ok, err := encodeEntry(spec.id, v)
		if err != nil {
			return nil, &types.WriteError{Reason: fmt.Sprintf("tag %s: %v", name, err)}
		}
		if !ok {
			continue
		}
		switch spec.ifd {
		case ifdExif:
			exifSub = append(exifSub, e)
		case ifdGPS:
			gps = append(gps, e)
		default:
			main = append(main, e)
		}
	}

	// IFD0 carries pointer entries for non-empty sub-IFDs; their offsets
	// are filled in once the layout is known.
	nMain := len(main)
	if len(exifSub) > 0 {
		nMain++
	}
	if len(gps) > 0 {
		nMain++
	}
	if nMain == 0 {
		return nil, &types.WriteError{Reason: "no encodable tags"}
	}

	const headerSize = 8
	ifd0Values := headerSize + directorySize(nMain)
	exifOffset := ifd0Values + valuesSize(main)
	exifValues := exifOffset
	if len(exifSub) > 0 {
		exifValues += directorySize(len(exifSub))
	}
	gpsOffset := exifValues + valuesSize(exifSub)
	gpsValues := gpsOffset
	if len(gps) > 0 {
		gpsValues += directorySize(len(gps))
	}

	if len(exifSub) > 0 {
		main = append(main, pointerEntry(tagExifIFDPointer, uint32(exifOffset)))
	}
	if len(gps) > 0 {
		main = append(main, pointerEntry(tagGPSIFDPointer, uint32(gpsOffset)))
	}

	var buf bytes.Buffer
	buf.WriteString("II")
	le16(&buf, 0x2A)
	le32(&buf, headerSize)

	writeDirectory(&buf, main, ifd0Values)
	if len(exifSub) > 0 {
		writeDirectory(&buf, exifSub, exifValues)
	}
	if len(gps) > 0 {
		writeDirectory(&buf, gps, gpsValues)
	}
	return buf.Bytes(), nil
}

// HasEncodable reports whether any tag in tm maps to an EXIF IFD entry.
// Codecs use it to decide between rebuilding and dropping the EXIF
// segment.
func HasEncodable(tm *types.TagMap) bool {
	for name := range tm.All() {
		if _, ok := lookupSpec(name); ok {
			return true
		}
	}
	return false
}

// IsEncodable reports whether a single tag maps to an EXIF IFD entry.
func IsEncodable(name string) bool {
	_, ok := lookupSpec(name)
	return ok
}

// EncodeWithHeader prepends the "Exif\0\0" marker used by JPEG APP1 and
// WebP EXIF chunks.
func EncodeWithHeader(tm *types.TagMap) ([]byte, error) {
	tiff, err := Encode(tm)
	if err != nil {
		return nil, err
	}
	return append(append([]byte{}, exifHeader...), tiff...), nil
}

// directorySize is the byte size of an IFD with n entries.
func directorySize(n int) int { return 2 + n*12 + 4 }

// valuesSize sums the overflow storage for entries whose data exceeds
// the 4 inline bytes, padded to even offsets.
func valuesSize(entries []entry) int {
	total := 0
	for _, e := range entries {
		if len(e.data) > 4 {
			total += len(e.data) + len(e.data)%2
		}
	}
	return total
}

// writeDirectory serializes one IFD: entry table sorted by tag ID, zero
// next-IFD pointer, then overflow values starting at valueOffset.
func writeDirectory(buf *bytes.Buffer, entries []entry, valueOffset int) {
	sort.Slice(entries, func(i, j int) bool { return entries[i].id < entries[j].id })

	le16(buf, uint16(len(entries)))
	var overflow bytes.Buffer
	for _, e := range entries {
		le16(buf, e.id)
		le16(buf, e.typ)
		le32(buf, e.count)
		if len(e.data) <= 4 {
			var inline [4]byte
			copy(inline[:], e.data)
			buf.Write(inline[:])
		} else {
			le32(buf, uint32(valueOffset+overflow.Len()))
			overflow.Write(e.data)
			if overflow.Len()%2 != 0 {
				overflow.WriteByte(0)
			}
		}
	}
	le32(buf, 0)
	buf.Write(overflow.Bytes())
}

func pointerEntry(id uint16, offset uint32) entry {
	data := make([]byte, 4)
	binary.LittleEndian.PutUint32(data, offset)
	return entry{id: id, typ: typeLong, count: 1, data: data}
}

// encodeEntry converts one Value into an IFD entry. The second result is
// false for kinds that have no TIFF representation (GPS composites are
// stored through their component tags).
func encodeEntry(id uint16, v types.Value) (entry, bool, error) {
	switch v.Kind() {
	case types.KindString:
		s, _ := v.Text()
		return entry{id: id, typ: typeASCII, count: uint32(len(s) + 1), data: append([]byte(s), 0)}, true, nil

	case types.KindUint:
		n, _ := v.Uint()
		if n > math.MaxUint32 {
			return entry{}, false, fmt.Errorf("value %d exceeds LONG range", n)
		}
		data := make([]byte, 4)
		binary.LittleEndian.PutUint32(data, uint32(n))
		return entry{id: id, typ: typeLong, count: 1, data: data}, true, nil

	case types.KindInt:
		n, _ := v.Int()
		if n > math.MaxInt32 || n < math.MinInt32 {
			return entry{}, false, fmt.Errorf("value %d exceeds SLONG range", n)
		}
		data := make([]byte, 4)
		binary.LittleEndian.PutUint32(data, uint32(int32(n)))
		return entry{id: id, typ: typeSLong, count: 1, data: data}, true, nil

	case types.KindRational:
		r, _ := v.Rational()
		data, typ, err := encodeRational(r)
		if err != nil {
			return entry{}, false, err
		}
		return entry{id: id, typ: typ, count: 1, data: data}, true, nil

	case types.KindFloat:
		f, _ := v.Float64()
		data := make([]byte, 8)
		binary.LittleEndian.PutUint64(data, math.Float64bits(f))
		return entry{id: id, typ: typeDouble, count: 1, data: data}, true, nil

	case types.KindBytes:
		b, _ := v.Bytes()
		return entry{id: id, typ: typeUndefined, count: uint32(len(b)), data: b}, true, nil

	case types.KindList:
		return encodeList(id, v)

	default:
		return entry{}, false, nil
	}
}

// encodeList flattens a homogeneous list into a multi-count entry.
// ASCII and UNDEFINED entries count bytes rather than elements, so lists
// of those kinds have no multi-count form and are rejected.
func encodeList(id uint16, v types.Value) (entry, bool, error) {
	items, _ := v.List()
	if len(items) == 0 {
		return entry{}, false, nil
	}
	var data []byte
	var typ uint16
	for i, item := range items {
		e, ok, err := encodeEntry(id, item)
		if err != nil || !ok {
			return entry{}, false, err
		}
		if e.typ == typeASCII || e.typ == typeUndefined {
			return entry{}, false, fmt.Errorf("list of %s values has no multi-count form", item.Kind())
		}
		if i == 0 {
			typ = e.typ
		} else if e.typ != typ {
			return entry{}, false, fmt.Errorf("mixed element types in list")
		}
		data = append(data, e.data...)
	}
	return entry{id: id, typ: typ, count: uint32(len(items)), data: data}, true, nil
}

// encodeRational picks RATIONAL for non-negative fractions, SRATIONAL
// otherwise, range-checking the 32-bit components.
func encodeRational(r types.Rational) ([]byte, uint16, error) {
	data := make([]byte, 8)
	if r.Num >= 0 {
		if r.Num > math.MaxUint32 || r.Den > math.MaxUint32 {
			return nil, 0, fmt.Errorf("rational %s exceeds RATIONAL range", r)
		}
		binary.LittleEndian.PutUint32(data, uint32(r.Num))
		binary.LittleEndian.PutUint32(data[4:], uint32(r.Den))
		return data, typeRational, nil
	}
	if r.Num < math.MinInt32 || r.Den > math.MaxInt32 {
		return nil, 0, fmt.Errorf("rational %s exceeds SRATIONAL range", r)
	}
	binary.LittleEndian.PutUint32(data, uint32(int32(r.Num)))
	binary.LittleEndian.PutUint32(data[4:], uint32(int32(r.Den)))
	return data, typeSRational, nil
}

func le16(buf *bytes.Buffer, v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	buf.Write(b[:])
}

func le32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}
