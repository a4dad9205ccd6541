// Package metadata extracts the capture datetime from media files. Images
// go through EXIF; mp4/mov/m4v read the ISO-BMFF movie header; MXF looks
// for an XML sidecar; everything else can fall back to an injected probe.
package metadata

import (
	"os"
	"time"

	"github.com/ponpaku/creators-file-manager/pkg/types"
)

var imageExtensions = map[string]bool{
	"jpg": true, "jpeg": true, "png": true, "webp": true, "gif": true,
	"tif": true, "tiff": true, "bmp": true, "heic": true, "heif": true,
	"dng": true, "cr2": true, "cr3": true, "nef": true, "arw": true, "raf": true,
}

var videoExtensions = map[string]bool{
	"mp4": true, "mov": true, "m4v": true, "avi": true, "mkv": true,
	"wmv": true, "mts": true, "m2ts": true, "mpg": true, "mpeg": true,
	"webm": true, "mxf": true,
}

// Prober is the opaque "extract capture datetime" collaborator for video
// containers the engine does not parse natively.
type Prober interface {
	CaptureTime(path string) (time.Time, bool)
}

// Extractor resolves capture datetimes with an optional probe fallback.
type Extractor struct {
	probe Prober
}

// New returns an extractor. probe may be nil.
func New(probe Prober) *Extractor {
	return &Extractor{probe: probe}
}

// CaptureTime returns the capture datetime of a file and the source it came
// from ("exif", "container", "sidecar", "probe"). ok is false when no
// metadata source yields a time.
func (e *Extractor) CaptureTime(entry types.FileEntry) (t time.Time, source string, ok bool) {
	ext := entry.Extension

	if imageExtensions[ext] {
		if t, ok := readExifCaptureTime(entry.Path); ok {
			return t, "exif", true
		}
		return time.Time{}, "", false
	}

	switch ext {
	case "mp4", "mov", "m4v":
		if t, ok := readBMFFCreationTime(entry.Path); ok {
			return t, "container", true
		}
	case "mxf":
		if t, ok := readSidecarCreationTime(entry.Path); ok {
			return t, "sidecar", true
		}
	}

	if videoExtensions[ext] && e.probe != nil {
		if t, ok := e.probe.CaptureTime(entry.Path); ok {
			return t, "probe", true
		}
	}
	return time.Time{}, "", false
}

// ModifiedTime returns the file modification time, re-stating when the
// collected entry predates a change.
func ModifiedTime(entry types.FileEntry) (time.Time, bool) {
	if info, err := os.Stat(entry.Path); err == nil {
		return info.ModTime(), true
	}
	if entry.ModTime.IsZero() {
		return time.Time{}, false
	}
	return entry.ModTime, true
}
