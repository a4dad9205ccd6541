// Package exifmeta reads and rewrites the TIFF structure embedded in a
// JPEG's APP1 segment: datetime tags, category-based tag removal, and the
// thumbnail IFD. It never touches entropy-coded image data.
package exifmeta

import (
	"encoding/binary"
	"errors"
)

// byteOrder is the TIFF endianness declared by the header.
type byteOrder int

const (
	orderLittle byteOrder = iota
	orderBig
)

var errBadTIFF = errors.New("invalid TIFF structure")

func (o byteOrder) u16(data []byte, off int) uint16 {
	if o == orderLittle {
		return binary.LittleEndian.Uint16(data[off:])
	}
	return binary.BigEndian.Uint16(data[off:])
}

func (o byteOrder) u32(data []byte, off int) uint32 {
	if o == orderLittle {
		return binary.LittleEndian.Uint32(data[off:])
	}
	return binary.BigEndian.Uint32(data[off:])
}

func (o byteOrder) putU16(buf []byte, v uint16) {
	if o == orderLittle {
		binary.LittleEndian.PutUint16(buf, v)
	} else {
		binary.BigEndian.PutUint16(buf, v)
	}
}

func (o byteOrder) putU32(buf []byte, v uint32) {
	if o == orderLittle {
		binary.LittleEndian.PutUint32(buf, v)
	} else {
		binary.BigEndian.PutUint32(buf, v)
	}
}

func (o byteOrder) appendU16(buf []byte, v uint16) []byte {
	var b [2]byte
	o.putU16(b[:], v)
	return append(buf, b[:]...)
}

func (o byteOrder) appendU32(buf []byte, v uint32) []byte {
	var b [4]byte
	o.putU32(b[:], v)
	return append(buf, b[:]...)
}

// typeByteSize is the element size of each TIFF field type.
func typeByteSize(dtype uint16) int {
	switch dtype {
	case 1, 2, 6, 7: // BYTE, ASCII, SBYTE, UNDEFINED
		return 1
	case 3, 8: // SHORT, SSHORT
		return 2
	case 4, 9, 11: // LONG, SLONG, FLOAT
		return 4
	case 5, 10, 12: // RATIONAL, SRATIONAL, DOUBLE
		return 8
	default:
		return 0
	}
}

// ifdEntry is one parsed directory entry with its value bytes materialized
// regardless of inline or offset storage.
type ifdEntry struct {
	tag   uint16
	dtype uint16
	count uint32
	data  []byte
	// valueOffset is the absolute position of the entry's value within the
	// original TIFF block when the value is stored out of line (0 for
	// inline values). Fixed-size in-place patches use it.
	valueOffset int
}

func (e *ifdEntry) byteCount() int {
	return typeByteSize(e.dtype) * int(e.count)
}

// tiffHeader validates the header and returns the byte order and IFD0
// offset (relative to the TIFF start).
func tiffHeader(tiff []byte) (byteOrder, int, error) {
	if len(tiff) < 8 {
		return 0, 0, errBadTIFF
	}
	var order byteOrder
	switch {
	case tiff[0] == 'I' && tiff[1] == 'I':
		order = orderLittle
	case tiff[0] == 'M' && tiff[1] == 'M':
		order = orderBig
	default:
		return 0, 0, errBadTIFF
	}
	if order.u16(tiff, 2) != 42 {
		return 0, 0, errBadTIFF
	}
	return order, int(order.u32(tiff, 4)), nil
}

// parseIFD reads the directory at the given offset (relative to the TIFF
// start) and returns its entries plus the next-IFD offset. Truncated
// directories return the entries parsed so far.
func parseIFD(tiff []byte, offset int, order byteOrder) ([]ifdEntry, int) {
	if offset < 0 || offset+2 > len(tiff) {
		return nil, 0
	}
	count := int(order.u16(tiff, offset))
	entries := make([]ifdEntry, 0, count)

	for i := 0; i < count; i++ {
		pos := offset + 2 + i*12
		if pos+12 > len(tiff) {
			break
		}
		entry := ifdEntry{
			tag:   order.u16(tiff, pos),
			dtype: order.u16(tiff, pos+2),
			count: order.u32(tiff, pos+4),
		}
		bc := entry.byteCount()
		switch {
		case bc == 0:
			// Unknown type, keep the raw inline field.
			entry.data = append([]byte(nil), tiff[pos+8:pos+12]...)
		case bc <= 4:
			end := pos + 8 + bc
			if end > len(tiff) {
				end = len(tiff)
			}
			entry.data = append([]byte(nil), tiff[pos+8:end]...)
		default:
			valueOff := int(order.u32(tiff, pos+8))
			if valueOff >= 0 && valueOff+bc <= len(tiff) {
				entry.data = append([]byte(nil), tiff[valueOff:valueOff+bc]...)
				entry.valueOffset = valueOff
			}
		}
		entries = append(entries, entry)
	}

	nextPos := offset + 2 + count*12
	if nextPos+4 > len(tiff) {
		return entries, 0
	}
	return entries, int(order.u32(tiff, nextPos))
}

func findEntry(entries []ifdEntry, tag uint16) *ifdEntry {
	for i := range entries {
		if entries[i].tag == tag {
			return &entries[i]
		}
	}
	return nil
}

// inlineU32 reads an offset-valued entry's payload as a single LONG.
func inlineU32(e *ifdEntry, order byteOrder) (uint32, bool) {
	if e == nil || len(e.data) < 4 {
		return 0, false
	}
	return order.u32(e.data, 0), true
}
