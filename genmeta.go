// Package genmeta extracts, converts and re-embeds AI-image-generation
// metadata stored inside PNG, JPEG and WebP containers. Every operation is
// a pure transform over caller-owned byte buffers: nothing here does I/O,
// blocks, or keeps state between calls.
package genmeta

import (
	"fmt"

	"github.com/kohaku-dev/genmeta/core"
	"github.com/kohaku-dev/genmeta/core/convert"
	"github.com/kohaku-dev/genmeta/core/entries"
	"github.com/kohaku-dev/genmeta/core/jpeg"
	"github.com/kohaku-dev/genmeta/core/png"
	"github.com/kohaku-dev/genmeta/core/webp"
)

// Read extracts the metadata records from a container.
func Read(data []byte) (*core.RawMetadata, error) {
	switch core.DetectFormat(data) {
	case core.FmtPNG:
		records, err := png.ReadTextRecords(data)
		if err != nil {
			return nil, err
		}
		return &core.RawMetadata{Format: core.FmtPNG, PNG: records}, nil
	case core.FmtJPEG:
		segs, err := jpeg.ReadSegments(data)
		if err != nil {
			return nil, err
		}
		return &core.RawMetadata{Format: core.FmtJPEG, Segments: segs}, nil
	case core.FmtWebP:
		segs, err := webp.ReadSegments(data)
		if err != nil {
			return nil, err
		}
		return &core.RawMetadata{Format: core.FmtWebP, Segments: segs}, nil
	default:
		return nil, core.ErrUnsupportedFormat
	}
}

// Entries flattens raw metadata into the generic entry list handed to tool
// parsers.
func Entries(raw *core.RawMetadata) []core.Entry {
	if raw == nil {
		return nil
	}
	if raw.Format == core.FmtPNG {
		return entries.FromPNG(raw.PNG)
	}
	return entries.FromSegments(raw.Segments)
}

// Write rebuilds the container with its old metadata records replaced by
// raw. The metadata's format tag must match the container.
func Write(data []byte, raw *core.RawMetadata) ([]byte, error) {
	if raw == nil {
		return nil, fmt.Errorf("%w: no metadata", core.ErrWriteFailed)
	}
	format := core.DetectFormat(data)
	if format == core.FmtUnknown {
		return nil, core.ErrUnsupportedFormat
	}
	if err := raw.CheckFormat(format); err != nil {
		return nil, err
	}
	var (
		out []byte
		err error
	)
	switch format {
	case core.FmtPNG:
		out, err = png.WriteTextRecords(data, raw.PNG)
	case core.FmtJPEG:
		out, err = jpeg.WriteSegments(data, raw.Segments)
	case core.FmtWebP:
		out, err = webp.WriteSegments(data, raw.Segments)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrWriteFailed, err)
	}
	return out, nil
}

// Dimensions returns the pixel width and height of the image.
func Dimensions(data []byte) (width, height int, err error) {
	switch core.DetectFormat(data) {
	case core.FmtPNG:
		return png.Dimensions(data)
	case core.FmtJPEG:
		return jpeg.Dimensions(data)
	case core.FmtWebP:
		return webp.Dimensions(data)
	default:
		return 0, 0, core.ErrUnsupportedFormat
	}
}

// Strip rebuilds the container with every metadata record removed.
func Strip(data []byte) ([]byte, error) {
	format := core.DetectFormat(data)
	if format == core.FmtUnknown {
		return nil, core.ErrUnsupportedFormat
	}
	return Write(data, &core.RawMetadata{Format: format})
}

// ConvertTo converts parsed metadata to the target format's record set.
// It is a thin veneer over the convert engine for callers that already
// hold a Parsed value.
func ConvertTo(p *convert.Parsed, target core.FormatID) (*core.RawMetadata, error) {
	return convert.Convert(p, target)
}
