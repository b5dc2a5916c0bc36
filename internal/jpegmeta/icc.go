package jpegmeta

import (
	"bytes"
	"sort"
)

var iccPrefix = []byte("ICC_PROFILE\x00")

// iccChunkSize is the profile data that fits in one APP2 segment after
// the prefix and the two sequence bytes.
const iccChunkSize = 65533 - len("ICC_PROFILE\x00") - 2

// findICC reassembles an ICC profile spread across APP2 segments. Each
// segment carries a 1-based sequence number and the chunk total; chunks
// may appear out of order. Returns nil when no profile is present or
// the chunk set is inconsistent.
func findICC(segs []segment) []byte {
	type chunk struct {
		seq  int
		data []byte
	}
	var chunks []chunk
	total := 0
	for _, seg := range segs {
		if seg.marker != markerAPP2 || !bytes.HasPrefix(seg.data, iccPrefix) {
			continue
		}
		payload := seg.data[len(iccPrefix):]
		if len(payload) < 2 {
			return nil
		}
		if total == 0 {
			total = int(payload[1])
		} else if int(payload[1]) != total {
			return nil
		}
		chunks = append(chunks, chunk{seq: int(payload[0]), data: payload[2:]})
	}
	if len(chunks) == 0 || len(chunks) != total {
		return nil
	}
	sort.Slice(chunks, func(i, j int) bool { return chunks[i].seq < chunks[j].seq })
	var buf bytes.Buffer
	for i, c := range chunks {
		if c.seq != i+1 {
			return nil
		}
		buf.Write(c.data)
	}
	return buf.Bytes()
}

// iccSegments splits a profile into APP2 segments, each prefixed with
// the ICC marker and its sequence/total bytes.
func iccSegments(profile []byte) []segment {
	total := (len(profile) + iccChunkSize - 1) / iccChunkSize
	if total == 0 {
		total = 1
	}
	segs := make([]segment, 0, total)
	for i := 0; i < total; i++ {
		start := i * iccChunkSize
		end := start + iccChunkSize
		if end > len(profile) {
			end = len(profile)
		}
		data := make([]byte, 0, len(iccPrefix)+2+end-start)
		data = append(data, iccPrefix...)
		data = append(data, byte(i+1), byte(total))
		data = append(data, profile[start:end]...)
		segs = append(segs, segment{marker: markerAPP2, data: data})
	}
	return segs
}
