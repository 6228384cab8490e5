package convert

import (
	"fmt"
	"strings"

	"github.com/kohaku-dev/genmeta/core"
)

// SeaArt converts the platform's single metadata payload, which comes in
// two sub-formats told apart by the first non-whitespace character: '{'
// marks the JSON orchestration export, anything else the plain-text
// parameter list. Both travel as one user-comment; towards PNG the keyword
// follows the detected sub-format and text goes through unicode-escape to
// stay inside the plain record type.
type SeaArt struct{}

const (
	seaArtJSONKeyword = "workflow"
	seaArtTextKeyword = "parameters"
)

func (SeaArt) Convert(p *Parsed, target core.FormatID) (*core.RawMetadata, error) {
	switch {
	case p.Raw.Format == core.FmtPNG:
		for _, rec := range p.Raw.PNG {
			if rec.Keyword == seaArtJSONKeyword || rec.Keyword == seaArtTextKeyword {
				return &core.RawMetadata{
					Format:   target,
					Segments: []core.Segment{core.UserComment(rec.Text)},
				}, nil
			}
		}
		return nil, fmt.Errorf("seaart: no payload chunk: %w", core.ErrConversionFailed)
	case target == core.FmtPNG:
		for _, s := range p.Raw.Segments {
			if s.Source.Kind != core.SrcUserComment {
				continue
			}
			keyword := seaArtTextKeyword
			if trimmed := strings.TrimLeftFunc(s.Text, isSpace); strings.HasPrefix(trimmed, "{") {
				keyword = seaArtJSONKeyword
			}
			return &core.RawMetadata{
				Format: core.FmtPNG,
				PNG:    []core.PngTextRecord{EncodePNGText(StrategyUnicodeEscape, keyword, s.Text)},
			}, nil
		}
		return nil, fmt.Errorf("seaart: no user-comment: %w", core.ErrConversionFailed)
	default:
		out := p.Raw.Clone()
		out.Format = target
		return out, nil
	}
}

func isSpace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r':
		return true
	}
	return false
}
