// Package png reads and writes the text-metadata chunks of a PNG stream.
// Pixel data and every unrelated chunk are passed through byte-for-byte.
package png

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/crc32"

	"github.com/kohaku-dev/genmeta/core"
)

// Chunk type names this package owns. Everything else is opaque.
const (
	typeIHDR = "IHDR"
	typeIEND = "IEND"
	typeTEXt = "tEXt"
	typeITXt = "iTXt"
)

type chunk struct {
	typ  string
	data []byte
}

// parseChunks validates the signature and splits the stream into chunks,
// stopping after IEND. A length field pointing past the buffer end is fatal.
func parseChunks(data []byte) ([]chunk, error) {
	if !bytes.HasPrefix(data, core.PNGSignature) {
		return nil, core.ErrInvalidSignature
	}
	var chunks []chunk
	off := 8
	for off < len(data) {
		if off+8 > len(data) {
			return nil, fmt.Errorf("chunk header truncated at offset %d: %w", off, core.ErrCorruptStructure)
		}
		length := int(binary.BigEndian.Uint32(data[off : off+4]))
		end := off + 8 + length + 4
		if end > len(data) {
			return nil, fmt.Errorf("chunk length at offset %d exceeds buffer: %w", off, core.ErrCorruptStructure)
		}
		typ := string(data[off+4 : off+8])
		chunks = append(chunks, chunk{typ: typ, data: data[off+8 : off+8+length]})
		off = end
		if typ == typeIEND {
			break
		}
	}
	return chunks, nil
}

// ReadTextRecords returns every tEXt and iTXt record in stream order.
func ReadTextRecords(data []byte) ([]core.PngTextRecord, error) {
	chunks, err := parseChunks(data)
	if err != nil {
		return nil, err
	}
	var records []core.PngTextRecord
	for _, c := range chunks {
		switch c.typ {
		case typeTEXt:
			records = append(records, parseTEXt(c.data))
		case typeITXt:
			if rec, ok := parseITXt(c.data); ok {
				records = append(records, rec)
			}
		}
	}
	return records, nil
}

// parseTEXt splits the payload on the first NUL. Both halves live in the
// Latin-1 domain; bytes map to runes one-for-one so that producers that
// smuggle UTF-8 into tEXt round-trip unchanged.
func parseTEXt(data []byte) core.PngTextRecord {
	keyword, text := data, []byte(nil)
	if i := bytes.IndexByte(data, 0); i >= 0 {
		keyword, text = data[:i], data[i+1:]
	}
	return core.PngTextRecord{
		Keyword: Latin1String(keyword),
		Text:    Latin1String(text),
	}
}

// parseITXt decodes keyword\0 flag method language\0 translated\0 utf8-text.
func parseITXt(data []byte) (core.PngTextRecord, bool) {
	i := bytes.IndexByte(data, 0)
	if i < 0 || i+3 > len(data) {
		return core.PngTextRecord{}, false
	}
	rec := core.PngTextRecord{
		Keyword:           Latin1String(data[:i]),
		International:     true,
		CompressionFlag:   data[i+1],
		CompressionMethod: data[i+2],
	}
	rest := data[i+3:]
	j := bytes.IndexByte(rest, 0)
	if j < 0 {
		return core.PngTextRecord{}, false
	}
	rec.LanguageTag = string(rest[:j])
	rest = rest[j+1:]
	k := bytes.IndexByte(rest, 0)
	if k < 0 {
		return core.PngTextRecord{}, false
	}
	rec.TranslatedKeyword = string(rest[:k])
	rec.Text = string(rest[k+1:])
	return rec, true
}

// WriteTextRecords rebuilds the container with all existing tEXt/iTXt chunks
// removed and records inserted immediately after IHDR. Every other chunk
// keeps its original relative order; chunk CRCs are recomputed.
func WriteTextRecords(data []byte, records []core.PngTextRecord) ([]byte, error) {
	chunks, err := parseChunks(data)
	if err != nil {
		return nil, err
	}
	hasIHDR := false
	for _, c := range chunks {
		if c.typ == typeIHDR {
			hasIHDR = true
			break
		}
	}
	if !hasIHDR {
		return nil, core.ErrNoIHDRChunk
	}

	var out bytes.Buffer
	out.Write(core.PNGSignature)
	for _, c := range chunks {
		if c.typ == typeTEXt || c.typ == typeITXt {
			continue
		}
		writeChunk(&out, c.typ, c.data)
		if c.typ == typeIHDR {
			for _, rec := range records {
				payload, typ, err := serializeRecord(rec)
				if err != nil {
					return nil, err
				}
				writeChunk(&out, typ, payload)
			}
		}
	}
	return out.Bytes(), nil
}

func serializeRecord(rec core.PngTextRecord) (payload []byte, typ string, err error) {
	keyword, err := Latin1Bytes(rec.Keyword)
	if err != nil {
		return nil, "", fmt.Errorf("keyword %q: %w", rec.Keyword, err)
	}
	if !rec.International {
		text, err := Latin1Bytes(rec.Text)
		if err != nil {
			return nil, "", fmt.Errorf("tEXt %q: %w", rec.Keyword, err)
		}
		var buf bytes.Buffer
		buf.Write(keyword)
		buf.WriteByte(0)
		buf.Write(text)
		return buf.Bytes(), typeTEXt, nil
	}
	var buf bytes.Buffer
	buf.Write(keyword)
	buf.WriteByte(0)
	buf.WriteByte(rec.CompressionFlag)
	buf.WriteByte(rec.CompressionMethod)
	buf.WriteString(rec.LanguageTag)
	buf.WriteByte(0)
	buf.WriteString(rec.TranslatedKeyword)
	buf.WriteByte(0)
	buf.WriteString(rec.Text)
	return buf.Bytes(), typeITXt, nil
}

// writeChunk emits length, type, data and the CRC-32 over type+data. The
// IEEE table is the PNG polynomial (0xEDB88320 reflected).
func writeChunk(w *bytes.Buffer, typ string, data []byte) {
	var hdr [4]byte
	binary.BigEndian.PutUint32(hdr[:], uint32(len(data)))
	w.Write(hdr[:])
	w.WriteString(typ)
	w.Write(data)
	crc := crc32.NewIEEE()
	crc.Write([]byte(typ))
	crc.Write(data)
	binary.BigEndian.PutUint32(hdr[:], crc.Sum32())
	w.Write(hdr[:])
}

// Dimensions returns the pixel width and height from IHDR.
func Dimensions(data []byte) (width, height int, err error) {
	chunks, err := parseChunks(data)
	if err != nil {
		return 0, 0, err
	}
	for _, c := range chunks {
		if c.typ == typeIHDR {
			if len(c.data) < 8 {
				return 0, 0, fmt.Errorf("IHDR payload too short: %w", core.ErrCorruptStructure)
			}
			return int(binary.BigEndian.Uint32(c.data[0:4])), int(binary.BigEndian.Uint32(c.data[4:8])), nil
		}
	}
	return 0, 0, core.ErrNoIHDRChunk
}
