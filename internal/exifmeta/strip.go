package exifmeta

import (
	"errors"

	"github.com/ponpaku/creators-file-manager/internal/jpegseg"
	"github.com/ponpaku/creators-file-manager/pkg/types"
)

// ErrNothingToStrip is returned when the requested categories remove no
// tags or segments from the file.
var ErrNothingToStrip = errors.New("nothing to strip")

// ErrExifTooLarge is returned when the rebuilt APP1 segment would exceed
// the JPEG segment size limit.
var ErrExifTooLarge = errors.New("exif too large")

// StripStats summarizes what a strip removed.
type StripStats struct {
	Tags int
	IPTC bool
	XMP  bool
}

// PresetCategories resolves a preset name to its category mask. The custom
// preset returns the given mask unchanged.
func PresetCategories(preset types.StripPreset, custom types.StripCategories) types.StripCategories {
	switch preset {
	case types.PresetSnsPublish:
		return types.StripCategories{GPS: true, CameraLens: true, Comments: true, Thumbnail: true}
	case types.PresetDelivery:
		return types.StripCategories{CameraLens: true, Software: true, Comments: true}
	case types.PresetFullClean:
		return types.StripCategories{
			GPS: true, CameraLens: true, Software: true, AuthorCopyright: true,
			Comments: true, Thumbnail: true, IPTC: true, XMP: true,
			ShootingSettings: true, CaptureDateTime: true,
		}
	default:
		return custom
	}
}

// IsFullClean reports whether the preset removes every non-essential tag.
func IsFullClean(preset types.StripPreset) bool {
	return preset == types.PresetFullClean
}

// Strip removes the selected categories from a JPEG and returns the
// rewritten bytes. SOS and entropy-coded data are untouched. When the mask
// removes nothing, ErrNothingToStrip is returned.
func Strip(jpegData []byte, cats types.StripCategories, fullClean bool) ([]byte, StripStats, error) {
	stream, err := jpegseg.Parse(jpegData)
	if err != nil {
		return nil, StripStats{}, err
	}

	var stats StripStats
	kept := stream.Segments[:0]
	for i := range stream.Segments {
		seg := stream.Segments[i]
		switch {
		case seg.IsExif():
			newTIFF, stripped, err := rebuildTIFF(seg.ExifBody(), cats, fullClean)
			if err != nil {
				// Unparseable EXIF is carried through untouched.
				kept = append(kept, seg)
				continue
			}
			stats.Tags += stripped
			payload := append([]byte("Exif\x00\x00"), newTIFF...)
			if len(payload) > jpegseg.MaxSegmentPayload {
				return nil, StripStats{}, ErrExifTooLarge
			}
			kept = append(kept, jpegseg.Segment{Marker: jpegseg.MarkerAPP1, Payload: payload})
		case seg.IsXMP() && cats.XMP:
			stats.XMP = true
		case seg.IsIPTC() && cats.IPTC:
			stats.IPTC = true
		default:
			kept = append(kept, seg)
		}
	}
	stream.Segments = kept

	if stats.Tags == 0 && !stats.IPTC && !stats.XMP {
		return nil, StripStats{}, ErrNothingToStrip
	}

	out, err := stream.Emit()
	if err != nil {
		return nil, StripStats{}, err
	}
	return out, stats, nil
}

func shouldRemoveIFD0Tag(tag uint16, cats types.StripCategories, fullClean bool) bool {
	if tag == tagGPSIFDPointer {
		return cats.GPS || fullClean
	}
	if tag == tagExifIFDPointer {
		return false // decided by whether the Exif IFD keeps entries
	}
	switch {
	case cats.CameraLens && ifd0CameraLensTags[tag],
		cats.Software && ifd0SoftwareTags[tag],
		cats.AuthorCopyright && ifd0AuthorCopyrightTags[tag],
		cats.Comments && ifd0CommentTags[tag],
		cats.CaptureDateTime && tag == tagDateTime:
		return true
	}
	if fullClean {
		return !essentialIFD0Tags[tag]
	}
	return false
}

func shouldRemoveExifTag(tag uint16, cats types.StripCategories, fullClean bool) bool {
	if alwaysKeepExifTags[tag] {
		return false
	}
	if exifDateTimeTags[tag] {
		return cats.CaptureDateTime || fullClean
	}
	if exifShootingSettingsTags[tag] {
		return cats.ShootingSettings || fullClean
	}
	if tag == tagMakerNote {
		return fullClean
	}
	switch {
	case cats.CameraLens && exifCameraLensTags[tag],
		cats.Software && exifSoftwareTags[tag],
		cats.AuthorCopyright && exifAuthorCopyrightTags[tag],
		cats.Comments && exifCommentTags[tag]:
		return true
	}
	return fullClean
}

// rebuildTIFF re-serializes the TIFF block with the filtered entries.
// Offsets are recomputed consistently: IFD0, then the Exif IFD, then the
// GPS IFD when kept, then IFD1 with the embedded thumbnail when kept.
func rebuildTIFF(tiff []byte, cats types.StripCategories, fullClean bool) ([]byte, int, error) {
	order, ifd0Off, err := tiffHeader(tiff)
	if err != nil {
		return nil, 0, err
	}

	ifd0, ifd0Next := parseIFD(tiff, ifd0Off, order)

	var exifIFD, gpsIFD, ifd1 []ifdEntry
	if ptr, ok := inlineU32(findEntry(ifd0, tagExifIFDPointer), order); ok {
		exifIFD, _ = parseIFD(tiff, int(ptr), order)
	}
	if ptr, ok := inlineU32(findEntry(ifd0, tagGPSIFDPointer), order); ok {
		gpsIFD, _ = parseIFD(tiff, int(ptr), order)
	}
	if ifd0Next != 0 {
		ifd1, _ = parseIFD(tiff, ifd0Next, order)
	}

	// Extract the embedded thumbnail payload before rebasing offsets.
	var thumbnail []byte
	keepThumbnail := !cats.Thumbnail && !fullClean && len(ifd1) > 0
	if keepThumbnail {
		offEntry := findEntry(ifd1, tagJPEGInterchangeFormat)
		lenEntry := findEntry(ifd1, tagJPEGInterchangeFormatLength)
		if off, ok := inlineU32(offEntry, order); ok {
			if length, ok := inlineU32(lenEntry, order); ok {
				start, end := int(off), int(off)+int(length)
				if length > 0 && start >= 0 && end <= len(tiff) {
					thumbnail = tiff[start:end]
				}
			}
		}
	}

	// Entries whose out-of-line value could not be materialized (offset
	// beyond the segment) cannot be re-serialized consistently.
	wellFormed := func(e *ifdEntry) bool {
		bc := e.byteCount()
		return bc <= 4 || len(e.data) == bc
	}
	exifIFD = filterEntries(exifIFD, wellFormed)
	gpsIFD = filterEntries(gpsIFD, wellFormed)
	ifd1 = filterEntries(ifd1, wellFormed)
	ifd0 = filterEntries(ifd0, wellFormed)

	filteredExif := filterEntries(exifIFD, func(e *ifdEntry) bool {
		return !shouldRemoveExifTag(e.tag, cats, fullClean)
	})
	keepGPS := !cats.GPS && !fullClean && len(gpsIFD) > 0
	filteredIFD0 := filterEntries(ifd0, func(e *ifdEntry) bool {
		if e.tag == tagExifIFDPointer {
			return len(filteredExif) > 0
		}
		if e.tag == tagGPSIFDPointer {
			return keepGPS
		}
		return !shouldRemoveIFD0Tag(e.tag, cats, fullClean)
	})

	stripped := (len(ifd0) - len(filteredIFD0)) + (len(exifIFD) - len(filteredExif))
	if !keepGPS {
		stripped += len(gpsIFD)
		// The pointer itself is counted via the IFD0 delta.
	}
	if cats.Thumbnail || fullClean {
		stripped += len(ifd1)
	}

	// Serialize: header, IFD0, then each sub-IFD with its pointer patched.
	out := make([]byte, 0, len(tiff))
	if order == orderLittle {
		out = append(out, 'I', 'I')
	} else {
		out = append(out, 'M', 'M')
	}
	out = order.appendU16(out, 42)
	out = order.appendU32(out, 8)

	w := ifdWriter{order: order}
	out, ifd0Refs := w.write(out, filteredIFD0, tagExifIFDPointer, tagGPSIFDPointer)

	if pos, ok := ifd0Refs.pointers[tagExifIFDPointer]; ok && len(filteredExif) > 0 {
		order.putU32(out[pos:], uint32(len(out)))
		out, _ = w.write(out, filteredExif)
	}

	if pos, ok := ifd0Refs.pointers[tagGPSIFDPointer]; ok && keepGPS {
		order.putU32(out[pos:], uint32(len(out)))
		out, _ = w.write(out, gpsIFD)
	}

	if keepThumbnail {
		order.putU32(out[ifd0Refs.nextIFD:], uint32(len(out)))
		var refs ifdRefs
		out, refs = w.write(out, ifd1, tagJPEGInterchangeFormat)
		if pos, ok := refs.pointers[tagJPEGInterchangeFormat]; ok && thumbnail != nil {
			order.putU32(out[pos:], uint32(len(out)))
			out = append(out, thumbnail...)
		}
	}

	return out, stripped, nil
}

// ifdRefs records the byte positions of pointer fields that need patching
// once the pointed-to block's position is known.
type ifdRefs struct {
	pointers map[uint16]int
	nextIFD  int
}

type ifdWriter struct {
	order byteOrder
}

// write serializes one IFD at the current end of out: entry count, the
// 12-byte entries, a zero next-IFD pointer, then the out-of-line values.
// Tags listed in pointerTags get a zero placeholder recorded in the
// returned refs instead of their value bytes.
func (w *ifdWriter) write(out []byte, entries []ifdEntry, pointerTags ...uint16) ([]byte, ifdRefs) {
	refs := ifdRefs{pointers: make(map[uint16]int)}
	isPointer := func(tag uint16) bool {
		for _, t := range pointerTags {
			if t == tag {
				return true
			}
		}
		return false
	}

	base := len(out)
	dataCursor := base + 2 + len(entries)*12 + 4
	out = w.order.appendU16(out, uint16(len(entries)))

	type overflow struct{ data []byte }
	var overflows []overflow

	for i := range entries {
		entry := &entries[i]
		out = w.order.appendU16(out, entry.tag)
		out = w.order.appendU16(out, entry.dtype)
		out = w.order.appendU32(out, entry.count)

		if isPointer(entry.tag) {
			refs.pointers[entry.tag] = len(out)
			out = w.order.appendU32(out, 0)
			continue
		}

		bc := entry.byteCount()
		if bc <= 4 {
			out = append(out, entry.data...)
			for pad := len(entry.data); pad < 4; pad++ {
				out = append(out, 0)
			}
			continue
		}
		out = w.order.appendU32(out, uint32(dataCursor))
		dataCursor += bc
		if dataCursor%2 != 0 {
			dataCursor++
		}
		overflows = append(overflows, overflow{data: entry.data})
	}

	refs.nextIFD = len(out)
	out = w.order.appendU32(out, 0)

	for _, o := range overflows {
		out = append(out, o.data...)
		if len(out)%2 != 0 {
			out = append(out, 0)
		}
	}
	return out, refs
}

func filterEntries(entries []ifdEntry, keep func(*ifdEntry) bool) []ifdEntry {
	var filtered []ifdEntry
	for i := range entries {
		if keep(&entries[i]) {
			filtered = append(filtered, entries[i])
		}
	}
	return filtered
}
