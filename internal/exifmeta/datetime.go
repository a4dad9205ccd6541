package exifmeta

import (
	"errors"
	"strings"
	"time"

	"github.com/ponpaku/creators-file-manager/internal/jpegseg"
)

// exifTimeLayout is the fixed EXIF datetime encoding: 19 ASCII characters
// plus a NUL terminator (count 20).
const exifTimeLayout = "2006:01:02 15:04:05"

// ErrNoDateTime is returned when none of the three datetime tags is present.
var ErrNoDateTime = errors.New("no datetime")

// ErrOutOfRange is returned when an offset result leaves the representable
// range (1970-01-01 .. 9999-12-31).
var ErrOutOfRange = errors.New("datetime out of range")

// ParseDateTime parses an EXIF `YYYY:MM:DD HH:MM:SS` string.
func ParseDateTime(value string) (time.Time, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(value), "\x00")
	return time.Parse(exifTimeLayout, trimmed)
}

// FormatDateTime renders a time in the EXIF datetime encoding.
func FormatDateTime(t time.Time) string {
	return t.Format(exifTimeLayout)
}

// ApplyOffset shifts an EXIF datetime string by delta seconds. It fails
// when the input does not parse or the result leaves the representable
// range.
func ApplyOffset(value string, deltaSeconds int64) (string, error) {
	t, err := ParseDateTime(value)
	if err != nil {
		return "", err
	}
	// A shift wider than the whole 1970..9999 span leaves the range from any
	// valid input; rejecting it here also keeps the sum below from overflowing.
	const maxShiftSeconds = int64(10000 * 366 * 86400)
	if deltaSeconds > maxShiftSeconds || deltaSeconds < -maxShiftSeconds {
		return "", ErrOutOfRange
	}
	shifted := time.Unix(t.Unix()+deltaSeconds, 0).UTC()
	if shifted.Year() < 1970 || shifted.Year() > 9999 {
		return "", ErrOutOfRange
	}
	return FormatDateTime(shifted), nil
}

// ReadDateTimeString returns the primary datetime of a JPEG, preferring
// DateTimeOriginal, then DateTimeDigitized, then DateTime. The second
// result is false when no tag is present.
func ReadDateTimeString(jpegData []byte) (string, bool) {
	stream, err := jpegseg.Parse(jpegData)
	if err != nil {
		return "", false
	}
	idx := stream.FirstExif()
	if idx < 0 {
		return "", false
	}
	tiff := stream.Segments[idx].ExifBody()
	order, ifd0Off, err := tiffHeader(tiff)
	if err != nil {
		return "", false
	}

	ifd0, _ := parseIFD(tiff, ifd0Off, order)
	var exifIFD []ifdEntry
	if ptr, ok := inlineU32(findEntry(ifd0, tagExifIFDPointer), order); ok {
		exifIFD, _ = parseIFD(tiff, int(ptr), order)
	}

	for _, tag := range []uint16{tagDateTimeOriginal, tagDateTimeDigitized} {
		if value, ok := asciiValue(findEntry(exifIFD, tag)); ok {
			return value, true
		}
	}
	if value, ok := asciiValue(findEntry(ifd0, tagDateTime)); ok {
		return value, true
	}
	return "", false
}

// OffsetDateTimes patches every present datetime tag (DateTime,
// DateTimeOriginal, DateTimeDigitized) in place by delta seconds and
// returns the rewritten JPEG bytes with the count of patched fields. The
// patch is fixed-length, so the output has the same size as the input.
// ErrNoDateTime is returned when no patchable field exists; ErrOutOfRange
// when any present field would leave the representable range.
func OffsetDateTimes(jpegData []byte, deltaSeconds int64) ([]byte, int, error) {
	stream, err := jpegseg.Parse(jpegData)
	if err != nil {
		return nil, 0, err
	}
	idx := stream.FirstExif()
	if idx < 0 {
		return nil, 0, ErrNoDateTime
	}

	payload := append([]byte(nil), stream.Segments[idx].Payload...)
	tiff := payload[len("Exif\x00\x00"):]
	order, ifd0Off, err := tiffHeader(tiff)
	if err != nil {
		return nil, 0, err
	}

	ifd0, _ := parseIFD(tiff, ifd0Off, order)
	var exifIFD []ifdEntry
	if ptr, ok := inlineU32(findEntry(ifd0, tagExifIFDPointer), order); ok {
		exifIFD, _ = parseIFD(tiff, int(ptr), order)
	}

	patched := 0
	patch := func(e *ifdEntry) error {
		if e == nil || e.dtype != 2 || e.count != 20 || e.valueOffset == 0 {
			return nil
		}
		if e.valueOffset+20 > len(tiff) {
			return nil
		}
		current := string(tiff[e.valueOffset : e.valueOffset+19])
		if strings.TrimFunc(current, func(r rune) bool { return r == 0 || r == ' ' }) == "" {
			return nil
		}
		shifted, err := ApplyOffset(current, deltaSeconds)
		if errors.Is(err, ErrOutOfRange) {
			return err
		}
		if err != nil {
			// Unparseable field: leave it untouched.
			return nil
		}
		copy(tiff[e.valueOffset:], shifted)
		tiff[e.valueOffset+19] = 0
		patched++
		return nil
	}

	if err := patch(findEntry(ifd0, tagDateTime)); err != nil {
		return nil, 0, err
	}
	for _, tag := range []uint16{tagDateTimeOriginal, tagDateTimeDigitized} {
		if err := patch(findEntry(exifIFD, tag)); err != nil {
			return nil, 0, err
		}
	}

	if patched == 0 {
		return nil, 0, ErrNoDateTime
	}

	stream.Segments[idx].Payload = payload
	out, err := stream.Emit()
	if err != nil {
		return nil, 0, err
	}
	return out, patched, nil
}

// ResetOrientation sets the IFD0 Orientation tag of an APP1/EXIF payload to
// 1 (top-left) in place. Used after a decode that already applied the
// orientation. Returns false when the payload has no orientation tag.
func ResetOrientation(payload []byte) bool {
	header := []byte("Exif\x00\x00")
	if len(payload) < len(header)+8 {
		return false
	}
	tiff := payload[len(header):]
	order, ifd0Off, err := tiffHeader(tiff)
	if err != nil {
		return false
	}
	if ifd0Off+2 > len(tiff) {
		return false
	}
	count := int(order.u16(tiff, ifd0Off))
	for i := 0; i < count; i++ {
		pos := ifd0Off + 2 + i*12
		if pos+12 > len(tiff) {
			return false
		}
		if order.u16(tiff, pos) == tagOrientation && order.u16(tiff, pos+2) == 3 {
			order.putU16(tiff[pos+8:], 1)
			return true
		}
	}
	return false
}

func asciiValue(e *ifdEntry) (string, bool) {
	if e == nil || e.dtype != 2 || len(e.data) == 0 {
		return "", false
	}
	value := strings.TrimRight(string(e.data), "\x00")
	value = strings.TrimSpace(value)
	if value == "" {
		return "", false
	}
	return value, true
}
