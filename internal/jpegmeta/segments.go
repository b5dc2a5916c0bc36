// Package jpegmeta implements the JPEG codec: EXIF, XMP, IPTC and ICC
// extraction plus EXIF and ICC write-back that leaves every other
// segment byte-identical.
package jpegmeta

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Segment markers the codec cares about.
const (
	markerSOI   = 0xD8
	markerEOI   = 0xD9
	markerAPP0  = 0xE0
	markerAPP1  = 0xE1
	markerAPP2  = 0xE2
	markerAPP13 = 0xED
	markerSOS   = 0xDA

	// markerScanData is a pseudo-marker for the entropy-coded stream
	// following SOS; it is carried verbatim.
	markerScanData = 0x00
)

var (
	exifPrefix = []byte("Exif\x00\x00")
	xmpPrefix  = []byte("http://ns.adobe.com/xap/1.0/\x00")
	iptcPrefix = []byte("Photoshop 3.0\x00")
)

// segment is one JPEG marker segment. Standalone markers (SOI, EOI) have
// nil data; the scan-data pseudo-segment holds everything after SOS.
type segment struct {
	marker byte
	data   []byte
}

// parseSegments splits a JPEG byte stream into its marker segments.
func parseSegments(data []byte) ([]segment, error) {
	if len(data) < 2 || data[0] != 0xFF || data[1] != markerSOI {
		return nil, fmt.Errorf("missing SOI marker")
	}
	segs := []segment{{marker: markerSOI}}

	i := 2
	for i < len(data) {
		if data[i] != 0xFF {
			// Entropy-coded scan data, runs to EOF.
			segs = append(segs, segment{marker: markerScanData, data: data[i:]})
			break
		}
		i++
		if i >= len(data) {
			break
		}
		marker := data[i]
		i++

		if marker == markerSOI || marker == markerEOI {
			segs = append(segs, segment{marker: marker})
			if marker == markerEOI {
				break
			}
			continue
		}

		if i+2 > len(data) {
			return nil, fmt.Errorf("truncated segment header at offset %d", i)
		}
		segLen := int(binary.BigEndian.Uint16(data[i:i+2])) - 2
		i += 2
		if segLen < 0 || i+segLen > len(data) {
			return nil, fmt.Errorf("segment 0x%02X length exceeds file size", marker)
		}
		segs = append(segs, segment{marker: marker, data: bytes.Clone(data[i : i+segLen])})
		i += segLen

		if marker == markerSOS {
			// Everything after SOS up to EOI is scan data.
			rest := data[i:]
			if len(rest) > 0 {
				segs = append(segs, segment{marker: markerScanData, data: rest})
			}
			break
		}
	}
	return segs, nil
}

// writeSegments reassembles segments into a JPEG byte stream.
func writeSegments(segs []segment) []byte {
	var buf bytes.Buffer
	for _, seg := range segs {
		switch seg.marker {
		case markerSOI, markerEOI:
			buf.Write([]byte{0xFF, seg.marker})
		case markerScanData:
			buf.Write(seg.data)
		default:
			buf.WriteByte(0xFF)
			buf.WriteByte(seg.marker)
			var lenBuf [2]byte
			binary.BigEndian.PutUint16(lenBuf[:], uint16(len(seg.data)+2))
			buf.Write(lenBuf[:])
			buf.Write(seg.data)
		}
	}
	return buf.Bytes()
}

// sofDimensions extracts image width and height from the first start of
// frame segment. Returns ok=false when no SOF is present.
func sofDimensions(segs []segment) (width, height int, ok bool) {
	for _, seg := range segs {
		if !isSOF(seg.marker) || len(seg.data) < 5 {
			continue
		}
		height = int(binary.BigEndian.Uint16(seg.data[1:3]))
		width = int(binary.BigEndian.Uint16(seg.data[3:5]))
		return width, height, true
	}
	return 0, 0, false
}

// isSOF matches the SOFn family (0xC0-0xCF minus DHT/JPG/DAC).
func isSOF(marker byte) bool {
	if marker < 0xC0 || marker > 0xCF {
		return false
	}
	return marker != 0xC4 && marker != 0xC8 && marker != 0xCC
}
