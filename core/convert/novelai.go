package convert

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/kohaku-dev/genmeta/core"
)

// NovelAI converts the flat chunk set NovelAI writes (Title, Description,
// Software, Comment with a JSON payload, ...). Towards JPEG/WebP every
// chunk becomes a string field of one JSON object in a user-comment — the
// Comment payload stays a quoted string, matching the nested-JSON shape the
// entry bridge recognizes. Text headed back into PNG records goes through
// the unicode-escape strategy so it survives outside Latin-1.
type NovelAI struct{}

func (NovelAI) Convert(p *Parsed, target core.FormatID) (*core.RawMetadata, error) {
	switch {
	case p.Raw.Format == core.FmtPNG:
		obj := make(map[string]string, len(p.Raw.PNG))
		for _, rec := range p.Raw.PNG {
			obj[rec.Keyword] = rec.Text
		}
		combined, err := json.Marshal(obj)
		if err != nil {
			return nil, fmt.Errorf("novelai: %w", core.ErrParse)
		}
		return &core.RawMetadata{
			Format:   target,
			Segments: []core.Segment{core.UserComment(string(combined))},
		}, nil
	case target == core.FmtPNG:
		var payload string
		found := false
		for _, s := range p.Raw.Segments {
			if s.Source.Kind == core.SrcUserComment {
				payload = s.Text
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("novelai: no user-comment: %w", core.ErrConversionFailed)
		}
		var obj map[string]string
		if err := json.Unmarshal([]byte(payload), &obj); err != nil {
			return nil, fmt.Errorf("novelai: user-comment is not a flat JSON object: %w", core.ErrParse)
		}
		keys := make([]string, 0, len(obj))
		for key := range obj {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		out := &core.RawMetadata{Format: core.FmtPNG}
		for _, key := range keys {
			out.PNG = append(out.PNG, EncodePNGText(StrategyUnicodeEscape, key, obj[key]))
		}
		return out, nil
	default:
		out := p.Raw.Clone()
		out.Format = target
		return out, nil
	}
}
