package core

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
)

// Printer handles all display output for the CLI.
type Printer struct {
	JSON   bool
	Writer io.Writer
}

// NewPrinter creates a default Printer writing to stdout.
func NewPrinter(jsonMode bool) *Printer {
	return &Printer{JSON: jsonMode, Writer: os.Stdout}
}

// PrintMetadata renders raw metadata plus its generic entries.
func (p *Printer) PrintMetadata(raw *RawMetadata, entries []Entry) {
	if p.JSON {
		p.printJSON(raw, entries)
		return
	}
	p.printText(raw, entries)
}

func (p *Printer) printText(raw *RawMetadata, entries []Entry) {
	info, _ := Info(raw.Format)
	fmt.Fprintf(p.Writer, "Format: %s\n", info.Name)

	switch raw.Format {
	case FmtPNG:
		if len(raw.PNG) == 0 {
			fmt.Fprintln(p.Writer, "(no text chunks)")
		}
		for _, rec := range raw.PNG {
			variant := "tEXt"
			if rec.International {
				variant = "iTXt"
			}
			fmt.Fprintf(p.Writer, "── %s %q ──\n%s\n", variant, rec.Keyword, preview(rec.Text))
		}
	default:
		if len(raw.Segments) == 0 {
			fmt.Fprintln(p.Writer, "(no metadata segments)")
		}
		for _, seg := range raw.Segments {
			label := seg.Source.Kind.String()
			if seg.Source.Prefix != "" {
				label += " (" + seg.Source.Prefix + ")"
			}
			fmt.Fprintf(p.Writer, "── %s ──\n%s\n", label, preview(seg.Text))
		}
	}

	if len(entries) > 0 {
		fmt.Fprintln(p.Writer, "\nEntries:")
		for _, e := range entries {
			fmt.Fprintf(p.Writer, "  %-20s %s\n", e.Keyword+":", preview(e.Text))
		}
	}
}

func (p *Printer) printJSON(raw *RawMetadata, entries []Entry) {
	type jsonEntry struct {
		Keyword string `json:"keyword"`
		Text    string `json:"text"`
	}
	out := struct {
		Format  string      `json:"format"`
		Entries []jsonEntry `json:"entries"`
	}{Format: string(raw.Format)}
	for _, e := range entries {
		out.Entries = append(out.Entries, jsonEntry{Keyword: e.Keyword, Text: e.Text})
	}
	b, _ := json.MarshalIndent(out, "", "  ")
	fmt.Fprintln(p.Writer, string(b))
}

// preview truncates long payloads for terminal display.
func preview(s string) string {
	s = strings.ReplaceAll(s, "\n", "\\n")
	if len(s) > 200 {
		return s[:200] + "…"
	}
	return s
}

// PrintSuccess prints a success message.
func (p *Printer) PrintSuccess(msg string) {
	fmt.Fprintln(p.Writer, "✓ "+msg)
}

// PrintError prints an error to stderr.
func PrintError(msg string) {
	fmt.Fprintln(os.Stderr, "✗ Error: "+msg)
}
