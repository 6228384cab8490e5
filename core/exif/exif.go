// Package exif encodes and decodes the IFD0 + Exif-sub-IFD structure that
// JPEG APP1 segments and WebP EXIF chunks embed. Only the text-bearing tags
// are materialized; everything else is skipped without failing the decode.
package exif

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"regexp"
	"sort"

	"github.com/hashicorp/go-multierror"

	"github.com/kohaku-dev/genmeta/core"
)

// IFD tag ids this codec understands.
const (
	tagDocumentName     = 0x010D
	tagImageDescription = 0x010E
	tagMake             = 0x010F
	tagSoftware         = 0x0131
	tagExifIFD          = 0x8769
	tagUserComment      = 0x9286
)

// TIFF type codes.
const (
	typeASCII     = 2
	typeLong      = 4
	typeUndefined = 7
)

const tiffMagic = 42

// Document is the transient decode result: the detected byte order, the
// text segments in tag order, and any recoverable per-tag problems.
type Document struct {
	ByteOrder binary.ByteOrder
	Segments  []core.Segment

	// Diagnostics aggregates non-fatal decode problems (a value offset
	// pointing outside the buffer, an undecodable UserComment payload).
	// The segments are valid regardless.
	Diagnostics error
}

type ifdEntry struct {
	tag   uint16
	typ   uint16
	count uint32
	// value holds the raw 4-byte value-or-offset field.
	value []byte
}

// Decode parses a TIFF document. Fatal errors are a bad order marker or
// magic, and an IFD offset or entry table past the buffer end.
func Decode(data []byte) (*Document, error) {
	if len(data) < 8 {
		return nil, fmt.Errorf("tiff header truncated: %w", core.ErrCorruptStructure)
	}
	var order binary.ByteOrder
	switch {
	case data[0] == 'I' && data[1] == 'I':
		order = binary.LittleEndian
	case data[0] == 'M' && data[1] == 'M':
		order = binary.BigEndian
	default:
		return nil, fmt.Errorf("tiff byte-order marker %02x %02x: %w", data[0], data[1], core.ErrCorruptStructure)
	}
	if order.Uint16(data[2:4]) != tiffMagic {
		return nil, fmt.Errorf("tiff magic is not 42: %w", core.ErrCorruptStructure)
	}

	doc := &Document{ByteOrder: order}
	var diags *multierror.Error

	ifd0, err := readIFD(data, order, int(order.Uint32(data[4:8])))
	if err != nil {
		return nil, err
	}
	for _, e := range ifd0 {
		switch e.tag {
		case tagDocumentName:
			doc.appendASCII(data, order, e, core.SrcDocumentName, false, &diags)
		case tagImageDescription:
			doc.appendASCII(data, order, e, core.SrcImageDescription, true, &diags)
		case tagMake:
			doc.appendASCII(data, order, e, core.SrcMake, true, &diags)
		case tagSoftware:
			doc.appendASCII(data, order, e, core.SrcSoftware, false, &diags)
		case tagExifIFD:
			sub, err := readIFD(data, order, int(order.Uint32(e.value)))
			if err != nil {
				diags = multierror.Append(diags, err)
				continue
			}
			for _, se := range sub {
				if se.tag != tagUserComment {
					continue
				}
				payload, err := entryValue(data, order, se)
				if err != nil {
					diags = multierror.Append(diags, err)
					continue
				}
				text, ok := decodeUserComment(payload)
				if !ok {
					diags = multierror.Append(diags, fmt.Errorf("UserComment payload is not decodable text: %w", core.ErrParse))
					continue
				}
				doc.Segments = append(doc.Segments, core.UserComment(text))
			}
		}
	}
	doc.Diagnostics = diags.ErrorOrNil()
	return doc, nil
}

// DecodeSegments is the convenience form used by the container readers.
func DecodeSegments(data []byte) ([]core.Segment, error) {
	doc, err := Decode(data)
	if err != nil {
		return nil, err
	}
	return doc.Segments, nil
}

func readIFD(data []byte, order binary.ByteOrder, off int) ([]ifdEntry, error) {
	if off < 0 || off+2 > len(data) {
		return nil, fmt.Errorf("ifd offset %d exceeds buffer: %w", off, core.ErrCorruptStructure)
	}
	n := int(order.Uint16(data[off : off+2]))
	base := off + 2
	if base+n*12 > len(data) {
		return nil, fmt.Errorf("ifd entry table at offset %d exceeds buffer: %w", off, core.ErrCorruptStructure)
	}
	entries := make([]ifdEntry, 0, n)
	for i := 0; i < n; i++ {
		e := data[base+i*12 : base+(i+1)*12]
		entries = append(entries, ifdEntry{
			tag:   order.Uint16(e[0:2]),
			typ:   order.Uint16(e[2:4]),
			count: order.Uint32(e[4:8]),
			value: e[8:12],
		})
	}
	return entries, nil
}

// entryValue resolves inline-vs-offset placement: encoded lengths of at most
// 4 bytes live in the value field itself, longer ones behind an offset.
func entryValue(data []byte, order binary.ByteOrder, e ifdEntry) ([]byte, error) {
	size := int(e.count) // ASCII and UNDEFINED have 1-byte units
	if size <= 4 {
		return e.value[:size], nil
	}
	off := int(order.Uint32(e.value))
	if off < 0 || off+size > len(data) {
		return nil, fmt.Errorf("tag 0x%04X value offset %d exceeds buffer: %w", e.tag, off, core.ErrCorruptStructure)
	}
	return data[off : off+size], nil
}

// labelPrefix matches the "Label: " convention some tools embed inside a
// generic ASCII tag.
var labelPrefix = regexp.MustCompile(`^([A-Za-z]+):\s`)

func (d *Document) appendASCII(data []byte, order binary.ByteOrder, e ifdEntry, kind core.SourceKind, allowPrefix bool, diags **multierror.Error) {
	raw, err := entryValue(data, order, e)
	if err != nil {
		*diags = multierror.Append(*diags, err)
		return
	}
	text := string(bytes.TrimRight(raw, "\x00"))
	src := core.Source{Kind: kind}
	if allowPrefix {
		if m := labelPrefix.FindStringSubmatch(text); m != nil {
			src.Prefix = m[1]
			text = text[len(m[0]):]
		}
	}
	d.Segments = append(d.Segments, core.Segment{Source: src, Text: text})
}

// ──────────────────────────────────────────────────────────────────────────────
// Encode
// ──────────────────────────────────────────────────────────────────────────────

type encEntry struct {
	tag   uint16
	typ   uint16
	count uint32
	data  []byte // encoded value bytes, before placement
}

// EncodeSegments multiplexes every Exif-bound segment into a single
// little-endian TIFF document: ASCII tags in IFD0, UserComments in the Exif
// sub-IFD. It returns an empty byte sequence when nothing is Exif-eligible.
func EncodeSegments(segs []core.Segment) []byte {
	var ifd0, sub []encEntry
	for _, s := range segs {
		switch s.Source.Kind {
		case core.SrcDocumentName:
			ifd0 = append(ifd0, asciiEntry(tagDocumentName, s))
		case core.SrcImageDescription:
			ifd0 = append(ifd0, asciiEntry(tagImageDescription, s))
		case core.SrcMake:
			ifd0 = append(ifd0, asciiEntry(tagMake, s))
		case core.SrcSoftware:
			ifd0 = append(ifd0, asciiEntry(tagSoftware, s))
		case core.SrcUserComment:
			sub = append(sub, encEntry{
				tag:   tagUserComment,
				typ:   typeUndefined,
				count: 0, // fixed up below from the payload length
				data:  encodeUserComment(s.Text),
			})
		case core.SrcJpegComment, core.SrcXMPPacket:
			// Carried outside the TIFF document.
		}
	}
	if len(ifd0) == 0 && len(sub) == 0 {
		return nil
	}
	for i := range sub {
		sub[i].count = uint32(len(sub[i].data))
	}
	if len(sub) > 0 {
		ifd0 = append(ifd0, encEntry{tag: tagExifIFD, typ: typeLong, count: 1})
	}

	// TIFF requires ascending tag order inside each IFD. The sort is stable
	// so duplicate tags keep the caller's order.
	sort.SliceStable(ifd0, func(i, j int) bool { return ifd0[i].tag < ifd0[j].tag })
	sort.SliceStable(sub, func(i, j int) bool { return sub[i].tag < sub[j].tag })

	// Two-pass layout: header, IFD0, optional sub-IFD, then the out-of-line
	// data area. The cursor threads through explicitly.
	ifd0Start := 8
	ifd0Size := 2 + len(ifd0)*12 + 4
	subStart := 0
	cursor := ifd0Start + ifd0Size
	if len(sub) > 0 {
		subStart = cursor
		cursor += 2 + len(sub)*12 + 4
	}
	offsets := make(map[*encEntry]uint32)
	for _, ifd := range [][]encEntry{ifd0, sub} {
		for i := range ifd {
			e := &ifd[i]
			if len(e.data) > 4 {
				offsets[e] = uint32(cursor)
				cursor += len(e.data)
			}
		}
	}

	var out bytes.Buffer
	out.Grow(cursor)
	out.WriteString("II")
	le16(&out, tiffMagic)
	le32(&out, uint32(ifd0Start))

	emitIFD := func(entries []encEntry) {
		le16(&out, uint16(len(entries)))
		for i := range entries {
			e := &entries[i]
			le16(&out, e.tag)
			le16(&out, e.typ)
			le32(&out, e.count)
			switch {
			case e.tag == tagExifIFD:
				le32(&out, uint32(subStart))
			case len(e.data) > 4:
				le32(&out, offsets[e])
			default:
				var inline [4]byte
				copy(inline[:], e.data)
				out.Write(inline[:])
			}
		}
		le32(&out, 0) // no next IFD
	}
	emitIFD(ifd0)
	if len(sub) > 0 {
		emitIFD(sub)
	}
	for _, ifd := range [][]encEntry{ifd0, sub} {
		for i := range ifd {
			if len(ifd[i].data) > 4 {
				out.Write(ifd[i].data)
			}
		}
	}
	return out.Bytes()
}

func asciiEntry(tag uint16, s core.Segment) encEntry {
	text := s.Text
	if s.Source.Prefix != "" {
		text = s.Source.Prefix + ": " + text
	}
	value := append([]byte(text), 0)
	return encEntry{tag: tag, typ: typeASCII, count: uint32(len(value)), data: value}
}

func le16(w *bytes.Buffer, v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	w.Write(b[:])
}

func le32(w *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	w.Write(b[:])
}
