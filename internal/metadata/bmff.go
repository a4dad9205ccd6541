package metadata

import (
	"encoding/binary"
	"io"
	"os"
	"time"
)

// qtToUnixOffset converts the QuickTime epoch (1904-01-01) to Unix seconds.
const qtToUnixOffset = 2_082_844_800

type atomRange struct {
	dataStart int64
	dataEnd   int64
}

// readBMFFCreationTime reads moov/mvhd creation time from an ISO-BMFF
// container (mp4, mov, m4v).
func readBMFFCreationTime(path string) (time.Time, bool) {
	f, err := os.Open(path)
	if err != nil {
		return time.Time{}, false
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return time.Time{}, false
	}

	moov, ok := findAtom(f, 0, info.Size(), "moov")
	if !ok {
		return time.Time{}, false
	}
	mvhd, ok := findAtom(f, moov.dataStart, moov.dataEnd, "mvhd")
	if !ok {
		return time.Time{}, false
	}
	return parseMvhdCreationTime(f, mvhd)
}

func findAtom(f *os.File, start, end int64, atomType string) (atomRange, bool) {
	offset := start
	for offset+8 <= end {
		var header [8]byte
		if _, err := f.ReadAt(header[:], offset); err != nil {
			return atomRange{}, false
		}
		atomSize := int64(binary.BigEndian.Uint32(header[:4]))
		kind := string(header[4:8])
		headerSize := int64(8)

		switch atomSize {
		case 1:
			var ext [8]byte
			if _, err := f.ReadAt(ext[:], offset+8); err != nil {
				return atomRange{}, false
			}
			atomSize = int64(binary.BigEndian.Uint64(ext[:]))
			headerSize = 16
		case 0:
			atomSize = end - offset
		}
		if atomSize < headerSize {
			return atomRange{}, false
		}
		atomEnd := offset + atomSize
		if atomEnd > end {
			atomEnd = end
		}
		if atomEnd <= offset {
			return atomRange{}, false
		}

		if kind == atomType {
			return atomRange{dataStart: offset + headerSize, dataEnd: atomEnd}, true
		}
		offset = atomEnd
	}
	return atomRange{}, false
}

func parseMvhdCreationTime(f io.ReaderAt, mvhd atomRange) (time.Time, bool) {
	var verFlags [4]byte
	if _, err := f.ReadAt(verFlags[:], mvhd.dataStart); err != nil {
		return time.Time{}, false
	}
	var qtSeconds uint64
	if verFlags[0] == 1 {
		var buf [8]byte
		if _, err := f.ReadAt(buf[:], mvhd.dataStart+4); err != nil {
			return time.Time{}, false
		}
		qtSeconds = binary.BigEndian.Uint64(buf[:])
	} else {
		var buf [4]byte
		if _, err := f.ReadAt(buf[:], mvhd.dataStart+4); err != nil {
			return time.Time{}, false
		}
		qtSeconds = uint64(binary.BigEndian.Uint32(buf[:]))
	}

	unix := int64(qtSeconds) - qtToUnixOffset
	if unix <= 0 {
		return time.Time{}, false
	}
	return time.Unix(unix, 0).Local(), true
}
