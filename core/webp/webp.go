// Package webp reads and writes the EXIF and XMP chunks of a WebP RIFF
// container. Image bitstream chunks are passed through byte-for-byte.
package webp

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/kohaku-dev/genmeta/core"
	"github.com/kohaku-dev/genmeta/core/exif"
)

// RIFF chunk FourCCs. The trailing space in "XMP " and "VP8 " is part of
// the identifier.
const (
	fourCCEXIF = "EXIF"
	fourCCXMP  = "XMP "
	fourCCVP8  = "VP8 "
	fourCCVP8L = "VP8L"
	fourCCVP8X = "VP8X"
)

type chunk struct {
	fourCC string
	data   []byte
}

// parseChunks validates the RIFF+WEBP header and splits the body into
// chunks. Payloads pad to even length; the stored size is the unpadded one.
func parseChunks(data []byte) ([]chunk, error) {
	if len(data) < 12 || !bytes.Equal(data[0:4], []byte("RIFF")) || !bytes.Equal(data[8:12], []byte("WEBP")) {
		return nil, core.ErrInvalidSignature
	}
	var chunks []chunk
	off := 12
	for off+8 <= len(data) {
		size := int(binary.LittleEndian.Uint32(data[off+4 : off+8]))
		end := off + 8 + size
		if end > len(data) {
			return nil, fmt.Errorf("chunk size at offset %d exceeds buffer: %w", off, core.ErrInvalidRIFFStructure)
		}
		chunks = append(chunks, chunk{
			fourCC: string(data[off : off+4]),
			data:   data[off+8 : end],
		})
		off = end
		if size%2 != 0 {
			off++ // padding byte
		}
	}
	return chunks, nil
}

// ReadSegments returns the metadata segments carried by EXIF and XMP chunks
// in stream order.
func ReadSegments(data []byte) ([]core.Segment, error) {
	chunks, err := parseChunks(data)
	if err != nil {
		return nil, err
	}
	var segs []core.Segment
	for _, c := range chunks {
		switch c.fourCC {
		case fourCCEXIF:
			// Unparseable TIFF bytes are a content problem; skip the chunk.
			if decoded, err := exif.DecodeSegments(c.data); err == nil {
				segs = append(segs, decoded...)
			}
		case fourCCXMP:
			segs = append(segs, core.Segment{
				Source: core.Source{Kind: core.SrcXMPPacket},
				Text:   string(c.data),
			})
		}
	}
	return segs, nil
}

// ReadExif returns the raw bytes of the EXIF chunk.
func ReadExif(data []byte) ([]byte, error) {
	chunks, err := parseChunks(data)
	if err != nil {
		return nil, err
	}
	for _, c := range chunks {
		if c.fourCC == fourCCEXIF {
			return append([]byte(nil), c.data...), nil
		}
	}
	return nil, core.ErrNoExifChunk
}

// WriteSegments rebuilds the container with existing EXIF/XMP chunks
// dropped, one new EXIF chunk multiplexing every Exif-bound record, and at
// most one new XMP chunk from the first xmp-packet record (later ones are
// discarded). The new chunks go immediately after the first image-bearing
// chunk (VP8 /VP8L/VP8X) for reader compatibility, or at the end when none
// exists. The RIFF size field is recomputed.
func WriteSegments(data []byte, segs []core.Segment) ([]byte, error) {
	chunks, err := parseChunks(data)
	if err != nil {
		return nil, err
	}

	var exifBound []core.Segment
	xmpText := ""
	haveXMP := false
	for _, s := range segs {
		switch {
		case s.ExifBound():
			exifBound = append(exifBound, s)
		case s.Source.Kind == core.SrcXMPPacket && !haveXMP:
			xmpText = s.Text
			haveXMP = true
		}
	}

	var inject []chunk
	if tiff := exif.EncodeSegments(exifBound); len(tiff) > 0 {
		inject = append(inject, chunk{fourCC: fourCCEXIF, data: tiff})
	}
	if haveXMP {
		inject = append(inject, chunk{fourCC: fourCCXMP, data: []byte(xmpText)})
	}

	var body bytes.Buffer
	injected := false
	for _, c := range chunks {
		if c.fourCC == fourCCEXIF || c.fourCC == fourCCXMP {
			continue
		}
		writeChunk(&body, c)
		if !injected && isImageChunk(c.fourCC) {
			for _, ic := range inject {
				writeChunk(&body, ic)
			}
			injected = true
		}
	}
	if !injected {
		for _, ic := range inject {
			writeChunk(&body, ic)
		}
	}

	out := make([]byte, 0, 12+body.Len())
	out = append(out, "RIFF"...)
	var size [4]byte
	binary.LittleEndian.PutUint32(size[:], uint32(4+body.Len()))
	out = append(out, size[:]...)
	out = append(out, "WEBP"...)
	out = append(out, body.Bytes()...)
	return out, nil
}

func isImageChunk(fourCC string) bool {
	return fourCC == fourCCVP8 || fourCC == fourCCVP8L || fourCC == fourCCVP8X
}

func writeChunk(w *bytes.Buffer, c chunk) {
	w.WriteString(c.fourCC)
	var size [4]byte
	binary.LittleEndian.PutUint32(size[:], uint32(len(c.data)))
	w.Write(size[:])
	w.Write(c.data)
	if len(c.data)%2 != 0 {
		w.WriteByte(0)
	}
}
