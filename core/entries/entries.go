// Package entries bridges container-specific records and the
// format-agnostic (keyword, text) entry lists handed to tool parsers.
package entries

import (
	"encoding/json"
	"strings"

	"github.com/kohaku-dev/genmeta/core"
)

// XMPKeyword is the reserved PNG keyword under which tools store a whole
// XMP packet.
const XMPKeyword = "XML:com.adobe.xmp"

// FromPNG maps records to entries one-for-one, except the reserved XMP
// record which expands into up to three synthetic entries.
func FromPNG(records []core.PngTextRecord) []core.Entry {
	var out []core.Entry
	for _, rec := range records {
		if rec.Keyword == XMPKeyword {
			out = append(out, ExtractXMP(rec.Text)...)
			continue
		}
		out = append(out, core.Entry{Keyword: rec.Keyword, Text: rec.Text})
	}
	return out
}

// FromSegments maps JPEG/WebP segments to entries. A user-comment carrying
// the NovelAI-WebP nested-JSON shape expands into separate Software and
// Comment entries.
func FromSegments(segs []core.Segment) []core.Entry {
	var out []core.Entry
	for _, s := range segs {
		switch s.Source.Kind {
		case core.SrcUserComment:
			if sw, comment, ok := splitNovelAIComment(s.Text); ok {
				out = append(out,
					core.Entry{Keyword: "Software", Text: sw},
					core.Entry{Keyword: "Comment", Text: comment},
				)
				continue
			}
			out = append(out, core.Entry{Keyword: "Comment", Text: s.Text})
		case core.SrcJpegComment:
			out = append(out, core.Entry{Keyword: "Comment", Text: s.Text})
		case core.SrcImageDescription, core.SrcMake:
			keyword := s.Source.Prefix
			if keyword == "" {
				keyword = s.Source.Kind.String()
			}
			out = append(out, core.Entry{Keyword: keyword, Text: s.Text})
		case core.SrcSoftware:
			out = append(out, core.Entry{Keyword: "Software", Text: s.Text})
		case core.SrcDocumentName:
			out = append(out, core.Entry{Keyword: "Title", Text: s.Text})
		case core.SrcXMPPacket:
			out = append(out, ExtractXMP(s.Text)...)
		}
	}
	return out
}

// splitNovelAIComment detects a JSON object whose Comment field is itself
// JSON text and whose Software starts with "NovelAI".
func splitNovelAIComment(text string) (software, comment string, ok bool) {
	var wrapper struct {
		Software string `json:"Software"`
		Comment  string `json:"Comment"`
	}
	if err := json.Unmarshal([]byte(text), &wrapper); err != nil {
		return "", "", false
	}
	if !strings.HasPrefix(wrapper.Software, "NovelAI") {
		return "", "", false
	}
	if !json.Valid([]byte(wrapper.Comment)) {
		return "", "", false
	}
	return wrapper.Software, wrapper.Comment, true
}
