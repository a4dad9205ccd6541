package metadata

import (
	"os"
	"time"

	"github.com/rwcarlsen/goexif/exif"
)

// readExifCaptureTime reads DateTimeOriginal (falling back to
// DateTimeDigitized, then DateTime) from an image file.
func readExifCaptureTime(path string) (time.Time, bool) {
	f, err := os.Open(path)
	if err != nil {
		return time.Time{}, false
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if err != nil {
		return time.Time{}, false
	}

	if _, err := x.Get(exif.DateTimeOriginal); err == nil {
		if t, err := x.DateTime(); err == nil {
			return t, true
		}
	}

	for _, field := range []exif.FieldName{exif.DateTimeDigitized, exif.DateTime} {
		tag, err := x.Get(field)
		if err != nil {
			continue
		}
		value, err := tag.StringVal()
		if err != nil {
			continue
		}
		if t, err := time.ParseInLocation("2006:01:02 15:04:05", value, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
