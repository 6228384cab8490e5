package convert

import (
	"fmt"

	"github.com/kohaku-dev/genmeta/core"
	"github.com/kohaku-dev/genmeta/core/entries"
)

// XMPPassThrough serves tools that store one XMP packet and nothing else.
// The packet moves verbatim between the reserved PNG iTXt record and the
// WebP XMP chunk. JPEG has no XMP carrier in this system, so a JPEG target
// is a conversion failure rather than silent loss.
type XMPPassThrough struct{}

func (XMPPassThrough) Convert(p *Parsed, target core.FormatID) (*core.RawMetadata, error) {
	packet, err := findPacket(p.Raw)
	if err != nil {
		return nil, err
	}
	switch target {
	case core.FmtPNG:
		return &core.RawMetadata{
			Format: core.FmtPNG,
			PNG:    []core.PngTextRecord{core.International(entries.XMPKeyword, packet)},
		}, nil
	case core.FmtWebP:
		return &core.RawMetadata{
			Format: core.FmtWebP,
			Segments: []core.Segment{{
				Source: core.Source{Kind: core.SrcXMPPacket},
				Text:   packet,
			}},
		}, nil
	default:
		return nil, fmt.Errorf("xmp pass-through to %s: %w", target, core.ErrConversionFailed)
	}
}

func findPacket(raw *core.RawMetadata) (string, error) {
	switch raw.Format {
	case core.FmtPNG:
		for _, rec := range raw.PNG {
			if rec.Keyword == entries.XMPKeyword {
				return rec.Text, nil
			}
		}
	default:
		for _, s := range raw.Segments {
			if s.Source.Kind == core.SrcXMPPacket {
				return s.Text, nil
			}
		}
	}
	return "", fmt.Errorf("no XMP packet present: %w", core.ErrConversionFailed)
}
