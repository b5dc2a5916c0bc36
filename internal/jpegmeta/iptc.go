package jpegmeta

import (
	"bytes"
	"encoding/binary"

	"github.com/ssoj13/imagemeta/internal/types"
)

// iptcFieldNames maps IPTC record 2 dataset numbers to tag names.
var iptcFieldNames = map[byte]string{
	0x05: "ObjectName",
	0x0F: "Category",
	0x19: "Keywords",
	0x1E: "DateCreated",
	0x1F: "TimeCreated",
	0x3C: "Byline",
	0x3E: "BylineTitle",
	0x46: "City",
	0x4E: "Province",
	0x55: "Country",
	0x69: "Headline",
	0x6E: "Credit",
	0x73: "Source",
	0x74: "CopyrightNotice",
	0x78: "Caption",
	0x7A: "CaptionWriter",
}

// parseIPTC walks Photoshop 8BIM resource blocks looking for the IPTC
// resource (0x0404) and extracts its datasets into tm. Repeated datasets
// (Keywords) accumulate into a list.
func parseIPTC(data []byte, tm *types.TagMap) {
	i := 0
	for i+8 < len(data) {
		if !bytes.Equal(data[i:i+4], []byte("8BIM")) {
			i++
			continue
		}
		resType := binary.BigEndian.Uint16(data[i+4 : i+6])
		nameLen := int(data[i+6])
		if nameLen%2 == 0 {
			nameLen++
		}
		i += 7 + nameLen
		if i+4 > len(data) {
			break
		}
		blockLen := int(binary.BigEndian.Uint32(data[i : i+4]))
		i += 4
		if resType == 0x0404 && i+blockLen <= len(data) {
			parseIPTCBlock(data[i:i+blockLen], tm)
		}
		i += blockLen
		if blockLen%2 != 0 {
			i++
		}
	}
}

func parseIPTCBlock(data []byte, tm *types.TagMap) {
	i := 0
	for i+5 < len(data) {
		if data[i] != 0x1C {
			i++
			continue
		}
		dataset := data[i+2]
		length := int(binary.BigEndian.Uint16(data[i+3 : i+5]))
		i += 5
		if i+length > len(data) {
			break
		}
		if name, ok := iptcFieldNames[dataset]; ok {
			val := types.StringValue(string(data[i : i+length]))
			if prev, exists := tm.Get(name); exists {
				// Multi-value dataset: fold into a list.
				if items, ok := prev.List(); ok {
					tm.Set(name, types.ListValue(append(items, val)...))
				} else {
					tm.Set(name, types.ListValue(prev, val))
				}
			} else {
				tm.Set(name, val)
			}
		}
		i += length
	}
}
