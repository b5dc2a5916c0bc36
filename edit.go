package imagemeta

import (
	"fmt"
	"time"
)

// exifTimeLayout is the EXIF datetime format.
const exifTimeLayout = "2006:01:02 15:04:05"

// datetimeTags are the tags ShiftTime rewrites when present.
var datetimeTags = []string{"DateTime", "DateTimeOriginal", "DateTimeDigitized"}

// ShiftTime moves every datetime tag by delta. Useful for fixing a
// camera clock that was set to the wrong timezone or drifted.
//
// Tags whose values do not parse as EXIF datetimes are left untouched
// and reported in the returned error; parseable tags are still shifted.
func (img *Image) ShiftTime(delta time.Duration) error {
	var firstErr error
	for _, name := range datetimeTags {
		v, ok := img.tags.Get(name)
		if !ok {
			continue
		}
		s, ok := v.Text()
		if !ok {
			continue
		}
		t, err := time.Parse(exifTimeLayout, s)
		if err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("tag %s: unparseable datetime %q", name, s)
			}
			continue
		}
		img.SetString(name, t.Add(delta).Format(exifTimeLayout))
	}
	return firstErr
}

// CaptureTime returns the capture time parsed from DateTimeOriginal,
// falling back to DateTime. EXIF datetimes carry no timezone; the
// returned time is in UTC by convention.
func (img *Image) CaptureTime() (time.Time, bool) {
	for _, name := range []string{"DateTimeOriginal", "DateTime"} {
		if s, ok := img.stringTag(name); ok {
			if t, err := time.Parse(exifTimeLayout, s); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}

// Geotag sets the GPS position by interpolating a GPX track log at the
// image's capture time.
//
// The capture time comes from DateTimeOriginal (or DateTime) and is
// treated as UTC, matching GPX timestamps; shift it first with ShiftTime
// if the camera clock was set to local time. Capture times before the
// first or after the last track point clamp to the nearest endpoint.
func (img *Image) Geotag(gpxPath string) error {
	captured, ok := img.CaptureTime()
	if !ok {
		return fmt.Errorf("geotag %s: no parseable capture time", img.path)
	}

	track, err := loadGPXTrack(gpxPath)
	if err != nil {
		return fmt.Errorf("geotag %s: %w", img.path, err)
	}
	if len(track) == 0 {
		return fmt.Errorf("geotag %s: track log has no timestamped points", img.path)
	}

	img.SetGPS(track.interpolate(captured))
	return nil
}
