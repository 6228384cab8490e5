// Package jpeg reads and writes the metadata-bearing marker segments of a
// JPEG stream. Entropy-coded scan data is never touched: on write it is
// copied byte-for-byte from the original.
package jpeg

import (
	"bytes"
	"encoding/binary"

	"github.com/kohaku-dev/genmeta/core"
	"github.com/kohaku-dev/genmeta/core/exif"
)

// JPEG markers.
const (
	markerSOI  = 0xD8
	markerEOI  = 0xD9
	markerSOS  = 0xDA
	markerAPP1 = 0xE1
	markerCOM  = 0xFE
	markerTEM  = 0x01
	markerRST0 = 0xD0
	markerRST7 = 0xD7
)

// exifHeader is the 6-byte ASCII prefix of an APP1/Exif payload.
var exifHeader = []byte("Exif\x00\x00")

// ReadSegments walks the marker stream after SOI and returns the metadata
// segments in stream order: TIFF-decoded segments from every APP1/Exif
// payload and one jpeg-comment per COM marker. Scanning stops at SOS or EOI.
//
// Truncated headers and bodies are handled permissively: a segment observed
// at buffer end with too few bytes is read up to what is available. Only a
// wrong SOI signature is fatal.
func ReadSegments(data []byte) ([]core.Segment, error) {
	if len(data) < 2 || data[0] != 0xFF || data[1] != markerSOI {
		return nil, core.ErrInvalidSignature
	}
	var segs []core.Segment
	i := 2
	for i+2 <= len(data) {
		if data[i] != 0xFF {
			break
		}
		marker := data[i+1]
		if marker == 0xFF { // fill byte
			i++
			continue
		}
		if marker == markerSOS || marker == markerEOI {
			break
		}
		if standalone(marker) {
			i += 2
			continue
		}
		if i+4 > len(data) {
			break // header truncated, nothing more to read
		}
		segLen := int(binary.BigEndian.Uint16(data[i+2 : i+4]))
		if segLen < 2 {
			break
		}
		start := i + 4
		end := i + 2 + segLen
		if end > len(data) {
			end = len(data) // body truncated, take what exists
		}
		payload := data[start:end]

		switch marker {
		case markerAPP1:
			if bytes.HasPrefix(payload, exifHeader) {
				// A garbled TIFF payload is a content problem, not a
				// structural one; it yields no segments but the walk goes on.
				if decoded, err := exif.DecodeSegments(payload[len(exifHeader):]); err == nil {
					segs = append(segs, decoded...)
				}
			}
		case markerCOM:
			segs = append(segs, core.Segment{
				Source: core.Source{Kind: core.SrcJpegComment},
				Text:   string(payload),
			})
		}
		i += 2 + segLen
	}
	return segs, nil
}

func standalone(marker byte) bool {
	return marker == markerSOI || marker == markerTEM ||
		(marker >= markerRST0 && marker <= markerRST7)
}

type rawSegment struct {
	marker  byte
	payload []byte
}

// split separates the original stream into the marker segments before the
// scan and the tail (everything from SOS or EOI to the end).
func split(data []byte) (segments []rawSegment, tail []byte, err error) {
	if len(data) < 2 || data[0] != 0xFF || data[1] != markerSOI {
		return nil, nil, core.ErrInvalidSignature
	}
	i := 2
	for i+2 <= len(data) {
		if data[i] != 0xFF {
			tail = data[i:]
			return segments, tail, nil
		}
		marker := data[i+1]
		if marker == 0xFF {
			i++
			continue
		}
		if marker == markerSOS || marker == markerEOI {
			tail = data[i:]
			return segments, tail, nil
		}
		if standalone(marker) {
			i += 2
			continue
		}
		if i+4 > len(data) {
			tail = data[i:]
			return segments, tail, nil
		}
		segLen := int(binary.BigEndian.Uint16(data[i+2 : i+4]))
		if segLen < 2 {
			tail = data[i:]
			return segments, tail, nil
		}
		start := i + 4
		end := i + 2 + segLen
		if end > len(data) {
			end = len(data)
		}
		segments = append(segments, rawSegment{marker: marker, payload: data[start:end]})
		i += 2 + segLen
	}
	return segments, nil, nil
}

// WriteSegments rebuilds the container: existing APP1/Exif and COM segments
// are discarded, every other marker segment keeps its relative order, and
// the new metadata goes in as one APP1/Exif segment right after SOI (built
// from all Exif-bound records) plus one COM segment per jpeg-comment record.
// XMP-packet records have no JPEG carrier and are dropped.
func WriteSegments(data []byte, segs []core.Segment) ([]byte, error) {
	kept, tail, err := split(data)
	if err != nil {
		return nil, err
	}

	var out bytes.Buffer
	out.Write([]byte{0xFF, markerSOI})

	var exifBound []core.Segment
	for _, s := range segs {
		if s.ExifBound() {
			exifBound = append(exifBound, s)
		}
	}
	if tiff := exif.EncodeSegments(exifBound); len(tiff) > 0 {
		payload := append(append([]byte{}, exifHeader...), tiff...)
		writeSegment(&out, markerAPP1, payload)
	}

	for _, seg := range kept {
		if seg.marker == markerCOM {
			continue
		}
		if seg.marker == markerAPP1 && bytes.HasPrefix(seg.payload, exifHeader) {
			continue
		}
		writeSegment(&out, seg.marker, seg.payload)
	}

	for _, s := range segs {
		if s.Source.Kind == core.SrcJpegComment {
			writeSegment(&out, markerCOM, []byte(s.Text))
		}
	}

	out.Write(tail)
	return out.Bytes(), nil
}

func writeSegment(w *bytes.Buffer, marker byte, payload []byte) {
	w.WriteByte(0xFF)
	w.WriteByte(marker)
	var l [2]byte
	binary.BigEndian.PutUint16(l[:], uint16(len(payload)+2))
	w.Write(l[:])
	w.Write(payload)
}

// Dimensions scans for the first start-of-frame marker and returns the
// frame width and height. SOF markers are 0xC0-0xCF minus DHT (0xC4),
// JPG (0xC8) and DAC (0xCC).
func Dimensions(data []byte) (width, height int, err error) {
	if len(data) < 2 || data[0] != 0xFF || data[1] != markerSOI {
		return 0, 0, core.ErrInvalidSignature
	}
	i := 2
	for i+4 <= len(data) {
		if data[i] != 0xFF {
			break
		}
		marker := data[i+1]
		if marker == 0xFF {
			i++
			continue
		}
		if marker == markerSOS || marker == markerEOI {
			break
		}
		if standalone(marker) {
			i += 2
			continue
		}
		segLen := int(binary.BigEndian.Uint16(data[i+2 : i+4]))
		if segLen < 2 {
			break
		}
		if isSOF(marker) {
			if i+4+5 > len(data) {
				break
			}
			h := int(binary.BigEndian.Uint16(data[i+5 : i+7]))
			w := int(binary.BigEndian.Uint16(data[i+7 : i+9]))
			return w, h, nil
		}
		i += 2 + segLen
	}
	return 0, 0, core.ErrCorruptStructure
}

func isSOF(marker byte) bool {
	if marker < 0xC0 || marker > 0xCF {
		return false
	}
	switch marker {
	case 0xC4, 0xC8, 0xCC:
		return false
	}
	return true
}
