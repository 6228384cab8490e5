package exif

import (
	"bytes"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
)

// Exif UserComment 8-byte encoding markers.
var (
	markerASCII   = []byte("ASCII\x00\x00\x00")
	markerUnicode = []byte("UNICODE\x00")
)

// decodeUserComment interprets the 8-byte encoding marker preceding the
// payload. Real producers are inconsistent about byte order under the
// UNICODE marker, so the order is guessed per value: a first byte that is
// non-zero followed by a zero byte reads as little-endian, anything else as
// big-endian. Do not tighten this heuristic; files in the wild depend on it.
func decodeUserComment(payload []byte) (string, bool) {
	switch {
	case bytes.HasPrefix(payload, markerASCII):
		rest := payload[8:]
		if i := bytes.IndexByte(rest, 0); i >= 0 {
			rest = rest[:i]
		}
		return string(rest), true
	case bytes.HasPrefix(payload, markerUnicode):
		return decodeUTF16Guess(payload[8:])
	default:
		// No (or unrecognized) marker: accept the whole payload only if it
		// is strict UTF-8.
		if utf8.Valid(payload) {
			return string(payload), true
		}
		return "", false
	}
}

func decodeUTF16Guess(b []byte) (string, bool) {
	if len(b) == 0 {
		return "", true
	}
	endian := unicode.BigEndian
	if len(b) >= 2 && b[0] != 0 && b[1] == 0 {
		endian = unicode.LittleEndian
	}
	if len(b)%2 != 0 {
		b = b[:len(b)-1]
	}
	decoded, err := unicode.UTF16(endian, unicode.IgnoreBOM).NewDecoder().Bytes(b)
	if err != nil {
		return "", false
	}
	return string(decoded), true
}

// encodeUserComment always emits the UNICODE marker with a UTF-16LE payload.
func encodeUserComment(text string) []byte {
	encoded, err := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewEncoder().Bytes([]byte(text))
	if err != nil {
		// UTF-16 can represent any valid string; invalid UTF-8 input runes
		// become U+FFFD via the encoder, so this branch stays unreachable.
		encoded = nil
	}
	out := make([]byte, 0, 8+len(encoded))
	out = append(out, markerUnicode...)
	out = append(out, encoded...)
	return out
}
