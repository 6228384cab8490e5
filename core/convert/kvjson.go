package convert

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/kohaku-dev/genmeta/core"
)

// KVJSON is the generic keyword/value ↔ JSON converter used by the
// ComfyUI family. Towards JPEG/WebP every PNG chunk keyword becomes a key
// of one JSON object — holding the chunk's parsed JSON when the text is
// valid JSON, its raw string otherwise — carried in a single user-comment.
// Towards PNG the mapping reverses symmetrically.
type KVJSON struct {
	Strategy EncodingStrategy
}

func (k KVJSON) Convert(p *Parsed, target core.FormatID) (*core.RawMetadata, error) {
	switch {
	case p.Raw.Format == core.FmtPNG:
		return k.toSegments(p.Raw.PNG, target)
	case target == core.FmtPNG:
		return k.toRecords(p.Raw.Segments)
	default:
		// JPEG and WebP share the segment model.
		out := p.Raw.Clone()
		out.Format = target
		return out, nil
	}
}

func (k KVJSON) toSegments(records []core.PngTextRecord, target core.FormatID) (*core.RawMetadata, error) {
	obj := make(map[string]json.RawMessage, len(records))
	for _, rec := range records {
		if json.Valid([]byte(rec.Text)) {
			obj[rec.Keyword] = json.RawMessage(rec.Text)
			continue
		}
		quoted, err := json.Marshal(rec.Text)
		if err != nil {
			return nil, fmt.Errorf("chunk %q: %w", rec.Keyword, core.ErrParse)
		}
		obj[rec.Keyword] = quoted
	}
	combined, err := json.Marshal(obj)
	if err != nil {
		return nil, fmt.Errorf("combining chunks: %w", core.ErrParse)
	}
	return &core.RawMetadata{
		Format:   target,
		Segments: []core.Segment{core.UserComment(string(combined))},
	}, nil
}

func (k KVJSON) toRecords(segs []core.Segment) (*core.RawMetadata, error) {
	var payload string
	found := false
	for _, s := range segs {
		if s.Source.Kind == core.SrcUserComment {
			payload = s.Text
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("no user-comment to expand: %w", core.ErrConversionFailed)
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(payload), &obj); err != nil {
		return nil, fmt.Errorf("user-comment is not a JSON object: %w", core.ErrParse)
	}
	keys := make([]string, 0, len(obj))
	for key := range obj {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	out := &core.RawMetadata{Format: core.FmtPNG}
	for _, key := range keys {
		text, err := rawToText(obj[key])
		if err != nil {
			return nil, err
		}
		out.PNG = append(out.PNG, EncodePNGText(k.Strategy, key, text))
	}
	return out, nil
}

// rawToText unquotes JSON strings and compacts everything else.
func rawToText(raw json.RawMessage) (string, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return "", fmt.Errorf("malformed JSON string value: %w", core.ErrParse)
		}
		return s, nil
	}
	var compact bytes.Buffer
	if err := json.Compact(&compact, trimmed); err != nil {
		return "", fmt.Errorf("malformed JSON value: %w", core.ErrParse)
	}
	return compact.String(), nil
}
