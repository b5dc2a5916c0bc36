package imagemeta

import (
	"encoding/xml"
	"fmt"
	"os"
	"sort"
	"time"
)

// gpxFile models the subset of the GPX 1.1 schema a track log needs:
// tracks, segments, and timestamped points.
type gpxFile struct {
	XMLName xml.Name   `xml:"gpx"`
	Tracks  []gpxTrack `xml:"trk"`
}

type gpxTrack struct {
	Segments []gpxSegment `xml:"trkseg"`
}

type gpxSegment struct {
	Points []gpxPoint `xml:"trkpt"`
}

type gpxPoint struct {
	Lat  float64  `xml:"lat,attr"`
	Lon  float64  `xml:"lon,attr"`
	Ele  *float64 `xml:"ele"`
	Time string   `xml:"time"`
}

// trackPoint is one usable fix from a GPX log.
type trackPoint struct {
	at  time.Time
	pos GPSCoordinate
}

// trackLog is a time-ordered series of fixes.
type trackLog []trackPoint

// loadGPXTrack parses a GPX file into a time-sorted track log. Points
// without a parseable timestamp are skipped; segments and tracks are
// flattened.
func loadGPXTrack(path string) (trackLog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read GPX: %w", err)
	}

	var doc gpxFile
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse GPX: %w", err)
	}

	var track trackLog
	for _, trk := range doc.Tracks {
		for _, seg := range trk.Segments {
			for _, pt := range seg.Points {
				at, err := time.Parse(time.RFC3339, pt.Time)
				if err != nil {
					continue
				}
				pos := GPSCoordinate{Latitude: pt.Lat, Longitude: pt.Lon}
				if pt.Ele != nil {
					pos.Altitude = *pt.Ele
					pos.HasAltitude = true
				}
				track = append(track, trackPoint{at: at.UTC(), pos: pos})
			}
		}
	}

	sort.Slice(track, func(i, j int) bool { return track[i].at.Before(track[j].at) })
	return track, nil
}

// interpolate returns the position at time t, linearly interpolated
// between the bracketing fixes. Times outside the log clamp to the
// nearest endpoint. The log must be non-empty and sorted.
func (track trackLog) interpolate(t time.Time) GPSCoordinate {
	t = t.UTC()
	if !t.After(track[0].at) {
		return track[0].pos
	}
	last := track[len(track)-1]
	if !t.Before(last.at) {
		return last.pos
	}

	// First fix at or after t.
	i := sort.Search(len(track), func(i int) bool {
		return !track[i].at.Before(t)
	})
	before, after := track[i-1], track[i]

	span := after.at.Sub(before.at)
	if span <= 0 {
		return before.pos
	}
	frac := float64(t.Sub(before.at)) / float64(span)

	pos := GPSCoordinate{
		Latitude:  lerp(before.pos.Latitude, after.pos.Latitude, frac),
		Longitude: lerp(before.pos.Longitude, after.pos.Longitude, frac),
	}
	if before.pos.HasAltitude && after.pos.HasAltitude {
		pos.Altitude = lerp(before.pos.Altitude, after.pos.Altitude, frac)
		pos.HasAltitude = true
	}
	return pos
}

func lerp(a, b, frac float64) float64 {
	return a + (b-a)*frac
}
