// Command genmeta views, strips and converts AI-image-generation metadata
// in PNG, JPEG and WebP files.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/kohaku-dev/genmeta"
	"github.com/kohaku-dev/genmeta/core"
	"github.com/kohaku-dev/genmeta/core/convert"
)

func usage() {
	fmt.Fprintln(os.Stderr, `Usage:
  genmeta view [-json] <file>
  genmeta strip <in> <out>
  genmeta convert -tool <name> <metadata-source> <target-container> <out>
  genmeta info <png|jpeg|webp>`)
	os.Exit(2)
}

func main() {
	if len(os.Args) < 2 {
		usage()
	}
	var err error
	switch os.Args[1] {
	case "view":
		err = runView(os.Args[2:])
	case "strip":
		err = runStrip(os.Args[2:])
	case "convert":
		err = runConvert(os.Args[2:])
	case "info":
		err = runInfo(os.Args[2:])
	default:
		usage()
	}
	if err != nil {
		core.PrintError(err.Error())
		os.Exit(1)
	}
}

func runView(args []string) error {
	fs := flag.NewFlagSet("view", flag.ExitOnError)
	jsonMode := fs.Bool("json", false, "emit JSON instead of text")
	fs.Parse(args)
	if fs.NArg() != 1 {
		usage()
	}
	data, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		return err
	}
	raw, err := genmeta.Read(data)
	if err != nil {
		return err
	}
	printer := core.NewPrinter(*jsonMode)
	if !*jsonMode {
		if w, h, err := genmeta.Dimensions(data); err == nil {
			fmt.Printf("Dimensions: %dx%d\n", w, h)
		}
	}
	printer.PrintMetadata(raw, genmeta.Entries(raw))
	return nil
}

func runStrip(args []string) error {
	if len(args) != 2 {
		usage()
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	out, err := genmeta.Strip(data)
	if err != nil {
		return err
	}
	if err := os.WriteFile(args[1], out, 0644); err != nil {
		return err
	}
	slog.Info("stripped metadata", "in", args[0], "out", args[1], "bytes", len(out))
	return nil
}

// runConvert reads metadata from one file and injects the converted record
// set into an already-transcoded target container.
func runConvert(args []string) error {
	fs := flag.NewFlagSet("convert", flag.ExitOnError)
	tool := fs.String("tool", "", "tool name the metadata was produced by")
	fs.Parse(args)
	if fs.NArg() != 3 || *tool == "" {
		usage()
	}
	srcData, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		return err
	}
	targetData, err := os.ReadFile(fs.Arg(1))
	if err != nil {
		return err
	}
	raw, err := genmeta.Read(srcData)
	if err != nil {
		return err
	}
	target := core.DetectFormat(targetData)
	parsed := &convert.Parsed{Tool: *tool, Raw: raw, Entries: genmeta.Entries(raw)}
	converted, err := convert.Convert(parsed, target)
	if err != nil {
		return err
	}
	out, err := genmeta.Write(targetData, converted)
	if err != nil {
		return err
	}
	if err := os.WriteFile(fs.Arg(2), out, 0644); err != nil {
		return err
	}
	slog.Info("converted metadata", "tool", *tool, "from", raw.Format, "to", target, "out", fs.Arg(2))
	return nil
}

func runInfo(args []string) error {
	if len(args) != 1 {
		usage()
	}
	info, ok := core.Info(core.FormatID(args[0]))
	if !ok {
		return fmt.Errorf("%s: %w", args[0], core.ErrUnsupportedFormat)
	}
	fmt.Printf("%s\n  extensions: %v\n  mime: %v\n  convert: %v  strip: %v\n  %s\n",
		info.Name, info.Extensions, info.MIMETypes, info.CanConvert, info.CanStrip, info.Notes)
	return nil
}
