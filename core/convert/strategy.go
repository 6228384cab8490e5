package convert

import (
	"fmt"
	"strings"
	"unicode/utf16"

	"github.com/kohaku-dev/genmeta/core"
	"github.com/kohaku-dev/genmeta/core/png"
)

// EncodingStrategy selects how text lands in a PNG record. It is an
// explicit parameter of the write path, chosen per adapter.
type EncodingStrategy uint8

const (
	// StrategyDynamic picks the record variant per content: a plain tEXt
	// record when every character fits in Latin-1, an iTXt record otherwise.
	StrategyDynamic EncodingStrategy = iota
	// StrategyUnicodeEscape always emits a plain record, escaping characters
	// above U+00FF as \uXXXX (surrogate pairs above U+FFFF). Used by
	// cross-format string-preserving adapters.
	StrategyUnicodeEscape
	// StrategyUTF8Raw always emits a plain record carrying raw UTF-8 bytes.
	// Intentionally noncompliant with the PNG spec, but some consumer tools
	// read tEXt that way.
	StrategyUTF8Raw
)

// EncodePNGText builds the record for the given strategy.
func EncodePNGText(strategy EncodingStrategy, keyword, text string) core.PngTextRecord {
	switch strategy {
	case StrategyUnicodeEscape:
		return core.Plain(keyword, EscapeUnicode(text))
	case StrategyUTF8Raw:
		// Reinterpreting the UTF-8 bytes in the Latin-1 domain makes the
		// writer emit them verbatim.
		return core.Plain(keyword, png.Latin1String([]byte(text)))
	default:
		if isLatin1(text) {
			return core.Plain(keyword, text)
		}
		return core.International(keyword, text)
	}
}

func isLatin1(s string) bool {
	for _, r := range s {
		if r > 0xFF {
			return false
		}
	}
	return true
}

// EscapeUnicode leaves the Latin-1 range untouched and escapes everything
// above it as \uXXXX, emitting surrogate pairs for code points beyond the
// basic plane.
func EscapeUnicode(s string) string {
	if isLatin1(s) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r <= 0xFF:
			b.WriteRune(r)
		case r > 0xFFFF:
			hi, lo := utf16.EncodeRune(r)
			fmt.Fprintf(&b, `\u%04x\u%04x`, hi, lo)
		default:
			fmt.Fprintf(&b, `\u%04x`, r)
		}
	}
	return b.String()
}
