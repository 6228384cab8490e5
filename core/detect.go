package core

import (
	"bytes"
	"strings"
)

// FormatID enumerates every recognised container format.
type FormatID string

const (
	FmtPNG     FormatID = "png"
	FmtJPEG    FormatID = "jpeg"
	FmtWebP    FormatID = "webp"
	FmtUnknown FormatID = "unknown"
)

// PNGSignature is the 8-byte PNG magic.
var PNGSignature = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}

// extMap maps lowercase extensions to format IDs.
var extMap = map[string]FormatID{
	".png":  FmtPNG,
	".jpg":  FmtJPEG,
	".jpeg": FmtJPEG,
	".webp": FmtWebP,
}

// DetectFormat identifies the container from its magic bytes. Buffers
// shorter than 12 bytes, and buffers whose magic matches none of the three
// containers, yield FmtUnknown.
func DetectFormat(data []byte) FormatID {
	if len(data) < 12 {
		return FmtUnknown
	}
	switch {
	case bytes.HasPrefix(data, PNGSignature):
		return FmtPNG
	case data[0] == 0xFF && data[1] == 0xD8:
		return FmtJPEG
	case bytes.Equal(data[0:4], []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WEBP")):
		return FmtWebP
	}
	return FmtUnknown
}

// FormatForExtension resolves a file extension (with or without the leading
// dot) to a format ID, for callers that only have a path.
func FormatForExtension(ext string) FormatID {
	ext = strings.ToLower(ext)
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	if id, ok := extMap[ext]; ok {
		return id
	}
	return FmtUnknown
}
