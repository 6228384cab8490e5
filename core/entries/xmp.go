package entries

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/kohaku-dev/genmeta/core"
)

// maxXMPLen bounds the worst-case matching cost of the extraction patterns.
// Longer packets are treated as absent. Pattern matching here is a
// deliberate scope limitation, not a full XML implementation.
const maxXMPLen = 65535

var (
	creatorToolElem = regexp.MustCompile(`(?s)<xmp:CreatorTool[^>]*>(.*?)</xmp:CreatorTool>`)
	creatorToolAttr = regexp.MustCompile(`xmp:CreatorTool="([^"]*)"`)
	userCommentLi   = regexp.MustCompile(`(?s)<exif:UserComment[^>]*>.*?<rdf:Alt[^>]*>.*?<rdf:li[^>]*>(.*?)</rdf:li>`)
	descriptionLi   = regexp.MustCompile(`(?s)<dc:description[^>]*>.*?<rdf:Alt[^>]*>.*?<rdf:li[^>]*>(.*?)</rdf:li>`)
)

// ExtractXMP pulls up to three synthetic entries out of a packet:
// CreatorTool from xmp:CreatorTool, UserComment from exif:UserComment's
// rdf:Alt list, and parameters from dc:description's rdf:Alt list.
func ExtractXMP(packet string) []core.Entry {
	if len(packet) > maxXMPLen {
		return nil
	}
	var out []core.Entry
	if v, ok := firstMatch(creatorToolElem, packet); ok {
		out = append(out, core.Entry{Keyword: "CreatorTool", Text: decodeEntities(v)})
	} else if v, ok := firstMatch(creatorToolAttr, packet); ok {
		out = append(out, core.Entry{Keyword: "CreatorTool", Text: decodeEntities(v)})
	}
	if v, ok := firstMatch(userCommentLi, packet); ok {
		out = append(out, core.Entry{Keyword: "UserComment", Text: decodeEntities(v)})
	}
	if v, ok := firstMatch(descriptionLi, packet); ok {
		out = append(out, core.Entry{Keyword: "parameters", Text: decodeEntities(v)})
	}
	return out
}

func firstMatch(re *regexp.Regexp, s string) (string, bool) {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return "", false
	}
	return m[1], true
}

var entity = regexp.MustCompile(`&(lt|gt|amp|quot|apos|#[0-9]+|#x[0-9a-fA-F]+);`)

// decodeEntities resolves the five named XML entities plus decimal and hex
// character references.
func decodeEntities(s string) string {
	return entity.ReplaceAllStringFunc(s, func(m string) string {
		body := m[1 : len(m)-1]
		switch body {
		case "lt":
			return "<"
		case "gt":
			return ">"
		case "amp":
			return "&"
		case "quot":
			return `"`
		case "apos":
			return "'"
		}
		var n int64
		var err error
		if strings.HasPrefix(body, "#x") {
			n, err = strconv.ParseInt(body[2:], 16, 32)
		} else {
			n, err = strconv.ParseInt(body[1:], 10, 32)
		}
		if err != nil || n < 0 || n > 0x10FFFF {
			return m
		}
		return string(rune(n))
	})
}
