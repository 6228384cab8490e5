// Package convert re-maps parsed metadata between PNG, JPEG and WebP record
// sets. Tool-specific structural converters register themselves here; the
// engine dispatches on the detected tool and the target format.
package convert

import (
	"fmt"

	"github.com/kohaku-dev/genmeta/core"
)

// Parsed is a successfully parsed metadata result: the tool a parser
// recognized, the raw records it was parsed from, and the generic entries
// handed to the parser. The structured value the parser produced stays
// outside the core and is never inspected here.
type Parsed struct {
	Tool    string
	Raw     *core.RawMetadata
	Entries []core.Entry
}

// Converter produces the record set for a target container format.
type Converter interface {
	Convert(p *Parsed, target core.FormatID) (*core.RawMetadata, error)
}

var registry = map[string]Converter{}

// Register installs the converter for a tool name, replacing any previous
// one. External adapters may register their own.
func Register(tool string, c Converter) {
	registry[tool] = c
}

func init() {
	Register("comfyui", ComfyUI{})
	Register("novelai", NovelAI{})
	Register("seaart", SeaArt{})
	Register("drawthings", XMPPassThrough{})
	// ComfyUI-family forks store plain keyword/JSON chunks and share the
	// generic converter.
	Register("swarmui", KVJSON{})
}

// Convert returns the record set for the target format. Metadata already in
// the target format passes through unchanged.
func Convert(p *Parsed, target core.FormatID) (*core.RawMetadata, error) {
	if p == nil || p.Raw == nil {
		return nil, fmt.Errorf("nothing to convert: %w", core.ErrConversionFailed)
	}
	if _, ok := core.Info(target); !ok {
		return nil, fmt.Errorf("target %q: %w", target, core.ErrUnsupportedFormat)
	}
	if p.Raw.Format == target {
		return p.Raw.Clone(), nil
	}
	c, ok := registry[p.Tool]
	if !ok {
		return nil, fmt.Errorf("tool %q to %s: %w", p.Tool, target, core.ErrConversionFailed)
	}
	out, err := c.Convert(p, target)
	if err != nil {
		return nil, err
	}
	if err := out.CheckFormat(target); err != nil {
		return nil, err
	}
	return out, nil
}
