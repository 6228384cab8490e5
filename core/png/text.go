package png

import (
	"golang.org/x/text/encoding/charmap"
)

// Latin1String maps each byte to the rune with the same code point. The
// mapping is total, so any producer bytes survive a decode/encode cycle.
func Latin1String(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	s, err := charmap.ISO8859_1.NewDecoder().Bytes(b)
	if err != nil {
		// ISO 8859-1 decodes every byte; unreachable in practice.
		return string(b)
	}
	return string(s)
}

// Latin1Bytes is the inverse of Latin1String. Runes above U+00FF have no
// Latin-1 representation and make the encode fail; callers pick an encoding
// strategy that keeps plain-record text inside the Latin-1 domain.
func Latin1Bytes(s string) ([]byte, error) {
	if s == "" {
		return nil, nil
	}
	return charmap.ISO8859_1.NewEncoder().Bytes([]byte(s))
}
