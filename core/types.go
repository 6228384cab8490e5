// Package core defines the shared record, segment and entry types, the
// format registry, and the error kinds for genmeta.
package core

import "fmt"

// ──────────────────────────────────────────────────────────────────────────────
// PNG text records
// ──────────────────────────────────────────────────────────────────────────────

// PngTextRecord is one tEXt or iTXt chunk payload. Keyword may be empty and
// uniqueness is not enforced: several records may carry the same keyword and
// their order is significant.
type PngTextRecord struct {
	Keyword string
	Text    string

	// International selects the iTXt (UTF-8) representation. When false the
	// record serializes as tEXt; its Text lives in the Latin-1 domain, one
	// rune per stored byte, so non-conformant producer bytes survive a
	// read/write cycle unchanged.
	International     bool
	CompressionFlag   byte
	CompressionMethod byte
	LanguageTag       string
	TranslatedKeyword string
}

// Plain returns a tEXt record.
func Plain(keyword, text string) PngTextRecord {
	return PngTextRecord{Keyword: keyword, Text: text}
}

// International returns an iTXt record with empty language and translated
// keyword fields.
func International(keyword, text string) PngTextRecord {
	return PngTextRecord{Keyword: keyword, Text: text, International: true}
}

// ──────────────────────────────────────────────────────────────────────────────
// JPEG / WebP metadata segments
// ──────────────────────────────────────────────────────────────────────────────

// SourceKind enumerates where a segment's text is carried inside the
// container. The set is closed by the Exif and container specs; every
// consumer switches exhaustively over it.
type SourceKind uint8

const (
	// SrcUserComment is the Exif sub-IFD UserComment tag (0x9286).
	SrcUserComment SourceKind = iota
	// SrcImageDescription is IFD0 ImageDescription (0x010E).
	SrcImageDescription
	// SrcMake is IFD0 Make (0x010F).
	SrcMake
	// SrcJpegComment is a JPEG COM marker segment.
	SrcJpegComment
	// SrcXMPPacket is a WebP "XMP " chunk payload.
	SrcXMPPacket
	// SrcSoftware is IFD0 Software (0x0131).
	SrcSoftware
	// SrcDocumentName is IFD0 DocumentName (0x010D).
	SrcDocumentName
)

// String returns the conventional keyword for the kind, used when a segment
// surfaces as a generic entry without a better label.
func (k SourceKind) String() string {
	switch k {
	case SrcUserComment:
		return "UserComment"
	case SrcImageDescription:
		return "ImageDescription"
	case SrcMake:
		return "Make"
	case SrcJpegComment:
		return "Comment"
	case SrcXMPPacket:
		return "XMP"
	case SrcSoftware:
		return "Software"
	case SrcDocumentName:
		return "Title"
	default:
		return "Unknown"
	}
}

// Source tags a segment with its carrier. Prefix holds the label some tools
// embed inside an otherwise generic ASCII tag ("Workflow: {...}"); it is
// stripped on read and re-applied as "Prefix: " on write. Only
// SrcImageDescription and SrcMake ever carry one.
type Source struct {
	Kind   SourceKind
	Prefix string
}

// Segment is one metadata-bearing region extracted from a JPEG or WebP
// container.
type Segment struct {
	Source Source
	Text   string
}

// UserComment returns a segment bound for the Exif UserComment tag.
func UserComment(text string) Segment {
	return Segment{Source: Source{Kind: SrcUserComment}, Text: text}
}

// ExifBound reports whether the segment is carried inside the TIFF/Exif
// document (as opposed to a JPEG COM marker or a WebP XMP chunk).
func (s Segment) ExifBound() bool {
	switch s.Source.Kind {
	case SrcUserComment, SrcImageDescription, SrcMake, SrcSoftware, SrcDocumentName:
		return true
	case SrcJpegComment, SrcXMPPacket:
		return false
	default:
		return false
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Raw metadata
// ──────────────────────────────────────────────────────────────────────────────

// RawMetadata carries container-specific metadata records together with the
// format they belong to. Exactly one of PNG / Segments is meaningful,
// selected by Format.
type RawMetadata struct {
	Format   FormatID
	PNG      []PngTextRecord // Format == FmtPNG
	Segments []Segment       // Format == FmtJPEG or FmtWebP
}

// CheckFormat verifies the tag matches the format the metadata is about to
// travel with. Every boundary that consumes a RawMetadata with a declared
// target calls this first.
func (r *RawMetadata) CheckFormat(want FormatID) error {
	if r.Format != want {
		return fmt.Errorf("metadata tagged %q used with %q container: %w", r.Format, want, ErrUnsupportedFormat)
	}
	return nil
}

// Clone returns a deep copy; converters never alias the caller's slices.
func (r *RawMetadata) Clone() *RawMetadata {
	out := &RawMetadata{Format: r.Format}
	if r.PNG != nil {
		out.PNG = append([]PngTextRecord(nil), r.PNG...)
	}
	if r.Segments != nil {
		out.Segments = append([]Segment(nil), r.Segments...)
	}
	return out
}

// ──────────────────────────────────────────────────────────────────────────────
// Entries
// ──────────────────────────────────────────────────────────────────────────────

// Entry is the format-agnostic (keyword, text) pair handed to tool parsers.
// An ordered list of entries is the common currency between the container
// records and everything downstream.
type Entry struct {
	Keyword string
	Text    string
}

// ──────────────────────────────────────────────────────────────────────────────
// Format registry
// ──────────────────────────────────────────────────────────────────────────────

// FormatInfo describes what a container format supports.
type FormatInfo struct {
	Name       string   // "PNG"
	Extensions []string // [".png"]
	MIMETypes  []string
	CanConvert bool
	CanStrip   bool
	Notes      string
}

// Info returns the capability description for a format.
func Info(id FormatID) (FormatInfo, bool) {
	info, ok := formatInfo[id]
	return info, ok
}

var formatInfo = map[FormatID]FormatInfo{
	FmtPNG: {
		Name:       "PNG",
		Extensions: []string{".png"},
		MIMETypes:  []string{"image/png"},
		CanConvert: true,
		CanStrip:   true,
		Notes:      "tEXt and iTXt chunks. zTXt is passed through untouched.",
	},
	FmtJPEG: {
		Name:       "JPEG",
		Extensions: []string{".jpg", ".jpeg"},
		MIMETypes:  []string{"image/jpeg"},
		CanConvert: true,
		CanStrip:   true,
		Notes:      "APP1/Exif and COM segments. Scan data is copied byte-for-byte.",
	},
	FmtWebP: {
		Name:       "WebP",
		Extensions: []string{".webp"},
		MIMETypes:  []string{"image/webp"},
		CanConvert: true,
		CanStrip:   true,
		Notes:      "EXIF and XMP chunks in the RIFF container.",
	},
}
