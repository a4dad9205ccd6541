// Package jpegseg parses and emits the JPEG marker stream without decoding
// entropy data. Metadata operations edit individual segments and splice the
// stream back together; the SOS marker and everything after it are carried
// byte-for-byte.
package jpegseg

import (
	"errors"
	"fmt"
)

// Marker bytes of interest.
const (
	MarkerSOI   = 0xD8
	MarkerEOI   = 0xD9
	MarkerSOS   = 0xDA
	MarkerAPP0  = 0xE0
	MarkerAPP1  = 0xE1
	MarkerAPP13 = 0xED
)

// MaxSegmentPayload is the largest payload a length-prefixed segment can
// carry (the two length bytes count toward the 65535 limit).
const MaxSegmentPayload = 65533

var (
	exifHeader = []byte("Exif\x00\x00")
	xmpHeader  = []byte("http://ns.adobe.com/xap/1.0/\x00")
	iptcHeader = []byte("Photoshop 3.0\x00")
)

// ErrNotJPEG is returned when the input does not start with SOI.
var ErrNotJPEG = errors.New("not a JPEG file")

// Segment is one length-prefixed marker segment. Payload excludes the
// marker and length bytes.
type Segment struct {
	Marker  byte
	Payload []byte
}

// IsExif reports whether the segment is the APP1/EXIF container.
func (s *Segment) IsExif() bool {
	return s.Marker == MarkerAPP1 && hasPrefix(s.Payload, exifHeader)
}

// IsXMP reports whether the segment is the APP1/XMP container.
func (s *Segment) IsXMP() bool {
	return s.Marker == MarkerAPP1 && hasPrefix(s.Payload, xmpHeader)
}

// IsIPTC reports whether the segment is an APP13 Photoshop/IPTC container.
func (s *Segment) IsIPTC() bool {
	return s.Marker == MarkerAPP13 && hasPrefix(s.Payload, iptcHeader)
}

// ExifBody returns the TIFF bytes inside an APP1/EXIF payload.
func (s *Segment) ExifBody() []byte {
	if !s.IsExif() {
		return nil
	}
	return s.Payload[len(exifHeader):]
}

// Stream is a parsed JPEG: the ordered header segments up to SOS, then the
// tail (SOS marker, entropy-coded data, EOI) verbatim.
type Stream struct {
	Segments []Segment
	// Tail is everything from the SOS marker (or first non-marker byte)
	// to the end of the file, copied byte-for-byte.
	Tail []byte
}

// Parse reads the marker stream of a JPEG. Entropy data is not decoded.
// Malformed trailing structure degrades to the tail rather than failing, so
// slightly damaged files can still round-trip.
func Parse(data []byte) (*Stream, error) {
	if len(data) < 4 || data[0] != 0xFF || data[1] != MarkerSOI {
		return nil, ErrNotJPEG
	}

	stream := &Stream{}
	pos := 2
	for pos < len(data) {
		if data[pos] != 0xFF || pos+1 >= len(data) {
			stream.Tail = data[pos:]
			return stream, nil
		}
		marker := data[pos+1]

		switch {
		case marker == MarkerSOS, marker == MarkerEOI:
			stream.Tail = data[pos:]
			return stream, nil
		case marker == 0x00 || (marker >= 0xD0 && marker <= 0xD7) || marker == MarkerSOI:
			// Standalone markers carry no length field.
			stream.Tail = data[pos:]
			return stream, nil
		}

		if pos+4 > len(data) {
			stream.Tail = data[pos:]
			return stream, nil
		}
		segLen := int(data[pos+2])<<8 | int(data[pos+3])
		if segLen < 2 || pos+2+segLen > len(data) {
			stream.Tail = data[pos:]
			return stream, nil
		}
		stream.Segments = append(stream.Segments, Segment{
			Marker:  marker,
			Payload: data[pos+4 : pos+2+segLen],
		})
		pos += 2 + segLen
	}
	return stream, nil
}

// Emit serializes the stream back to JPEG bytes. Untouched segments keep
// their original order and content.
func (s *Stream) Emit() ([]byte, error) {
	size := 2 + len(s.Tail)
	for _, seg := range s.Segments {
		size += 4 + len(seg.Payload)
	}
	out := make([]byte, 0, size)
	out = append(out, 0xFF, MarkerSOI)
	for _, seg := range s.Segments {
		if len(seg.Payload) > MaxSegmentPayload {
			return nil, fmt.Errorf("segment 0x%02X payload exceeds %d bytes", seg.Marker, MaxSegmentPayload)
		}
		segLen := len(seg.Payload) + 2
		out = append(out, 0xFF, seg.Marker, byte(segLen>>8), byte(segLen))
		out = append(out, seg.Payload...)
	}
	out = append(out, s.Tail...)
	return out, nil
}

// FirstExif returns the index of the first APP1/EXIF segment, or -1.
func (s *Stream) FirstExif() int {
	for i := range s.Segments {
		if s.Segments[i].IsExif() {
			return i
		}
	}
	return -1
}

// ExtractExifSegments returns the raw APP1/EXIF payloads of a JPEG, for
// carrying over into a re-encoded file.
func ExtractExifSegments(data []byte) [][]byte {
	stream, err := Parse(data)
	if err != nil {
		return nil
	}
	var payloads [][]byte
	for _, seg := range stream.Segments {
		if seg.IsExif() {
			payloads = append(payloads, seg.Payload)
		}
	}
	return payloads
}

// InjectSegments inserts APP1 payloads directly after SOI of an encoded
// JPEG, ahead of whatever segments the encoder wrote.
func InjectSegments(encoded []byte, payloads [][]byte) []byte {
	if len(payloads) == 0 || len(encoded) < 2 || encoded[0] != 0xFF || encoded[1] != MarkerSOI {
		return encoded
	}
	extra := 0
	for _, p := range payloads {
		extra += 4 + len(p)
	}
	out := make([]byte, 0, len(encoded)+extra)
	out = append(out, encoded[:2]...)
	for _, p := range payloads {
		segLen := len(p) + 2
		out = append(out, 0xFF, MarkerAPP1, byte(segLen>>8), byte(segLen))
		out = append(out, p...)
	}
	out = append(out, encoded[2:]...)
	return out
}

func hasPrefix(data, prefix []byte) bool {
	if len(data) < len(prefix) {
		return false
	}
	for i := range prefix {
		if data[i] != prefix[i] {
			return false
		}
	}
	return true
}
