package exifmeta

import (
	"github.com/ponpaku/creators-file-manager/internal/jpegseg"
	"github.com/ponpaku/creators-file-manager/pkg/types"
)

// ScanResult reports which metadata categories a JPEG carries, without
// modifying anything.
type ScanResult struct {
	FoundGPS              bool
	FoundCameraLens       bool
	FoundSoftware         bool
	FoundAuthorCopyright  bool
	FoundComments         bool
	FoundThumbnail        bool
	FoundShootingSettings bool
	FoundCaptureDateTime  bool
	HasIPTC               bool
	HasXMP                bool
	// RemovableTags is a rough count of tags a strip could remove.
	RemovableTags int
	NoExif        bool
}

// Empty reports whether the file carries no strippable metadata at all.
func (r *ScanResult) Empty() bool {
	return r.NoExif && !r.HasIPTC && !r.HasXMP
}

// FoundCategories returns the labels of categories present in the scan and
// selected by the mask.
func (r *ScanResult) FoundCategories(cats types.StripCategories) []string {
	var found []string
	add := func(selected, present bool, label string) {
		if selected && present {
			found = append(found, label)
		}
	}
	add(cats.GPS, r.FoundGPS, "gps")
	add(cats.CameraLens, r.FoundCameraLens, "cameraLens")
	add(cats.Software, r.FoundSoftware, "software")
	add(cats.AuthorCopyright, r.FoundAuthorCopyright, "authorCopyright")
	add(cats.Comments, r.FoundComments, "comments")
	add(cats.Thumbnail, r.FoundThumbnail, "thumbnail")
	add(cats.IPTC, r.HasIPTC, "iptc")
	add(cats.XMP, r.HasXMP, "xmp")
	add(cats.ShootingSettings, r.FoundShootingSettings, "shootingSettings")
	add(cats.CaptureDateTime, r.FoundCaptureDateTime, "captureDateTime")
	return found
}

// Scan inspects a JPEG's app segments and EXIF structure.
func Scan(jpegData []byte) (*ScanResult, error) {
	stream, err := jpegseg.Parse(jpegData)
	if err != nil {
		return nil, err
	}
	result := &ScanResult{NoExif: true}
	for i := range stream.Segments {
		seg := &stream.Segments[i]
		switch {
		case seg.IsExif():
			result.NoExif = false
			scanTIFF(seg.ExifBody(), result)
		case seg.IsXMP():
			result.HasXMP = true
		case seg.IsIPTC():
			result.HasIPTC = true
		}
	}
	return result, nil
}

func scanTIFF(tiff []byte, result *ScanResult) {
	order, ifd0Off, err := tiffHeader(tiff)
	if err != nil {
		return
	}
	ifd0, ifd0Next := parseIFD(tiff, ifd0Off, order)

	var exifIFDOff int
	for i := range ifd0 {
		entry := &ifd0[i]
		switch {
		case entry.tag == tagGPSIFDPointer:
			result.FoundGPS = true
			result.RemovableTags++
		case ifd0CameraLensTags[entry.tag]:
			result.FoundCameraLens = true
			result.RemovableTags++
		case ifd0SoftwareTags[entry.tag]:
			result.FoundSoftware = true
			result.RemovableTags++
		case ifd0AuthorCopyrightTags[entry.tag]:
			result.FoundAuthorCopyright = true
			result.RemovableTags++
		case ifd0CommentTags[entry.tag]:
			result.FoundComments = true
			result.RemovableTags++
		case entry.tag == tagDateTime:
			result.FoundCaptureDateTime = true
			result.RemovableTags++
		case entry.tag == tagExifIFDPointer:
			if ptr, ok := inlineU32(entry, order); ok {
				exifIFDOff = int(ptr)
			}
		}
	}

	if ifd0Next != 0 {
		if ifd1, _ := parseIFD(tiff, ifd0Next, order); len(ifd1) > 0 {
			result.FoundThumbnail = true
			result.RemovableTags += len(ifd1)
		}
	}

	if exifIFDOff == 0 {
		return
	}
	exifIFD, _ := parseIFD(tiff, exifIFDOff, order)
	for i := range exifIFD {
		tag := exifIFD[i].tag
		switch {
		case exifCameraLensTags[tag]:
			result.FoundCameraLens = true
			result.RemovableTags++
		case exifAuthorCopyrightTags[tag]:
			result.FoundAuthorCopyright = true
			result.RemovableTags++
		case exifCommentTags[tag]:
			result.FoundComments = true
			result.RemovableTags++
		case exifDateTimeTags[tag]:
			result.FoundCaptureDateTime = true
			result.RemovableTags++
		case exifShootingSettingsTags[tag]:
			result.FoundShootingSettings = true
			result.RemovableTags++
		}
	}
}
