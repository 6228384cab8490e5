package genmeta

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kohaku-dev/genmeta/core"
	"github.com/kohaku-dev/genmeta/core/convert"
)

func minimalPNG() []byte {
	var buf bytes.Buffer
	buf.Write(core.PNGSignature)
	ihdr := make([]byte, 13)
	binary.BigEndian.PutUint32(ihdr[0:4], 1)
	binary.BigEndian.PutUint32(ihdr[4:8], 1)
	ihdr[8] = 8
	appendPNGChunk(&buf, "IHDR", ihdr)
	appendPNGChunk(&buf, "IEND", nil)
	return buf.Bytes()
}

func appendPNGChunk(w *bytes.Buffer, typ string, data []byte) {
	var length [4]byte
	binary.BigEndian.PutUint32(length[:], uint32(len(data)))
	w.Write(length[:])
	w.WriteString(typ)
	w.Write(data)
	crc := crc32.NewIEEE()
	crc.Write([]byte(typ))
	crc.Write(data)
	var sum [4]byte
	binary.BigEndian.PutUint32(sum[:], crc.Sum32())
	w.Write(sum[:])
}

func minimalJPEG() []byte {
	return []byte{
		0xFF, 0xD8, // SOI
		0xFF, 0xDA, 0x00, 0x04, 0x01, 0x00, // SOS
		0x12, 0x34,
		0xFF, 0xD9, // EOI
	}
}

func minimalWebP() []byte {
	var buf bytes.Buffer
	payload := make([]byte, 10) // VP8X, 1x1 canvas
	buf.WriteString("VP8X")
	var size [4]byte
	binary.LittleEndian.PutUint32(size[:], uint32(len(payload)))
	buf.Write(size[:])
	buf.Write(payload)

	out := make([]byte, 0, 12+buf.Len())
	out = append(out, "RIFF"...)
	binary.LittleEndian.PutUint32(size[:], uint32(4+buf.Len()))
	out = append(out, size[:]...)
	out = append(out, "WEBP"...)
	return append(out, buf.Bytes()...)
}

// TestConvertPNGToWebPAndBack drives the whole pipeline: embed ComfyUI
// chunks in a PNG, convert to WebP records, write a real WebP file, read it
// back and convert to PNG records again.
func TestConvertPNGToWebPAndBack(t *testing.T) {
	records := []core.PngTextRecord{
		core.Plain("prompt", `{"1":{"class_type":"KSampler"}}`),
		core.Plain("workflow", `{"nodes":[]}`),
	}
	pngFile, err := Write(minimalPNG(), &core.RawMetadata{Format: core.FmtPNG, PNG: records})
	require.NoError(t, err)

	raw, err := Read(pngFile)
	require.NoError(t, err)
	require.Equal(t, records, raw.PNG)

	converted, err := ConvertTo(&convert.Parsed{Tool: "comfyui", Raw: raw}, core.FmtWebP)
	require.NoError(t, err)
	webpFile, err := Write(minimalWebP(), converted)
	require.NoError(t, err)

	rawBack, err := Read(webpFile)
	require.NoError(t, err)
	restored, err := ConvertTo(&convert.Parsed{Tool: "comfyui", Raw: rawBack}, core.FmtPNG)
	require.NoError(t, err)
	require.Equal(t, records, restored.PNG)
}

func TestEntriesBridgesAllFormats(t *testing.T) {
	pngFile, err := Write(minimalPNG(), &core.RawMetadata{
		Format: core.FmtPNG,
		PNG:    []core.PngTextRecord{core.Plain("parameters", "a fox")},
	})
	require.NoError(t, err)
	raw, err := Read(pngFile)
	require.NoError(t, err)
	require.Equal(t, []core.Entry{{Keyword: "parameters", Text: "a fox"}}, Entries(raw))

	jpegFile, err := Write(minimalJPEG(), &core.RawMetadata{
		Format:   core.FmtJPEG,
		Segments: []core.Segment{core.UserComment("a fox")},
	})
	require.NoError(t, err)
	raw, err = Read(jpegFile)
	require.NoError(t, err)
	require.Equal(t, []core.Entry{{Keyword: "Comment", Text: "a fox"}}, Entries(raw))

	require.Nil(t, Entries(nil))
}

func TestStripAllFormats(t *testing.T) {
	for name, file := range map[string][]byte{
		"png":  minimalPNG(),
		"jpeg": minimalJPEG(),
		"webp": minimalWebP(),
	} {
		format := core.DetectFormat(file)
		withMeta, err := Write(file, &core.RawMetadata{
			Format:   format,
			PNG:      pngRecordsFor(format),
			Segments: segmentsFor(format),
		})
		require.NoError(t, err, name)

		stripped, err := Strip(withMeta)
		require.NoError(t, err, name)
		raw, err := Read(stripped)
		require.NoError(t, err, name)
		require.Empty(t, raw.PNG, name)
		require.Empty(t, raw.Segments, name)

		again, err := Strip(stripped)
		require.NoError(t, err, name)
		require.Equal(t, stripped, again, name)
	}
}

func pngRecordsFor(format core.FormatID) []core.PngTextRecord {
	if format != core.FmtPNG {
		return nil
	}
	return []core.PngTextRecord{core.Plain("parameters", "x")}
}

func segmentsFor(format core.FormatID) []core.Segment {
	if format == core.FmtPNG {
		return nil
	}
	return []core.Segment{core.UserComment("x")}
}

func TestDimensionsDispatch(t *testing.T) {
	w, h, err := Dimensions(minimalPNG())
	require.NoError(t, err)
	require.Equal(t, 1, w)
	require.Equal(t, 1, h)

	w, h, err = Dimensions(minimalWebP())
	require.NoError(t, err)
	require.Equal(t, 1, w)
	require.Equal(t, 1, h)

	_, _, err = Dimensions([]byte("not an image, honest"))
	require.ErrorIs(t, err, core.ErrUnsupportedFormat)
}

func TestReadUnknownFormat(t *testing.T) {
	_, err := Read([]byte("definitely not an image"))
	require.ErrorIs(t, err, core.ErrUnsupportedFormat)
}

func TestWriteFormatMismatch(t *testing.T) {
	_, err := Write(minimalJPEG(), &core.RawMetadata{Format: core.FmtPNG})
	require.ErrorIs(t, err, core.ErrUnsupportedFormat)
}

func TestWriteNilMetadata(t *testing.T) {
	_, err := Write(minimalPNG(), nil)
	require.ErrorIs(t, err, core.ErrWriteFailed)
}

func TestWriteFailureIsWrapped(t *testing.T) {
	// A PNG with no IHDR chunk gives the writer nothing to anchor the
	// insertion on.
	var buf bytes.Buffer
	buf.Write(core.PNGSignature)
	appendPNGChunk(&buf, "IEND", nil)
	_, err := Write(buf.Bytes(), &core.RawMetadata{Format: core.FmtPNG})
	require.ErrorIs(t, err, core.ErrWriteFailed)
	require.ErrorIs(t, err, core.ErrNoIHDRChunk)
}
