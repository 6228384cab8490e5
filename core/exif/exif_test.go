package exif

import (
	"bytes"
	"testing"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/stretchr/testify/require"

	"github.com/kohaku-dev/genmeta/core"
)

func TestEncodeEmptyWhenNothingEligible(t *testing.T) {
	require.Empty(t, EncodeSegments(nil))
	require.Empty(t, EncodeSegments([]core.Segment{
		{Source: core.Source{Kind: core.SrcJpegComment}, Text: "not exif"},
		{Source: core.Source{Kind: core.SrcXMPPacket}, Text: "<x/>"},
	}))
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	segs := []core.Segment{
		{Source: core.Source{Kind: core.SrcDocumentName}, Text: "drawing.png"},
		{Source: core.Source{Kind: core.SrcImageDescription, Prefix: "prompt"}, Text: `{"1":{}}`},
		{Source: core.Source{Kind: core.SrcMake, Prefix: "workflow"}, Text: `{"nodes":[]}`},
		{Source: core.Source{Kind: core.SrcSoftware}, Text: "ComfyUI"},
		core.UserComment("a cat sitting on a fence, 4k 🎉"),
	}
	data := EncodeSegments(segs)
	require.NotEmpty(t, data)

	doc, err := Decode(data)
	require.NoError(t, err)
	require.NoError(t, doc.Diagnostics)
	require.Equal(t, segs, doc.Segments)
}

func TestShortInlineValues(t *testing.T) {
	// Values whose encoded length is at most 4 bytes are stored inline.
	segs := []core.Segment{
		{Source: core.Source{Kind: core.SrcSoftware}, Text: "abc"}, // 4 bytes with NUL
		core.UserComment(""),
	}
	data := EncodeSegments(segs)
	doc, err := Decode(data)
	require.NoError(t, err)
	require.Equal(t, segs, doc.Segments)
}

func TestDecodeBigEndian(t *testing.T) {
	// MM byte order with one inline ASCII Software tag.
	var buf bytes.Buffer
	buf.WriteString("MM")
	buf.Write([]byte{0x00, 0x2A})             // magic
	buf.Write([]byte{0x00, 0x00, 0x00, 0x08}) // IFD0 offset
	buf.Write([]byte{0x00, 0x01})             // one entry
	buf.Write([]byte{0x01, 0x31})             // Software
	buf.Write([]byte{0x00, 0x02})             // ASCII
	buf.Write([]byte{0x00, 0x00, 0x00, 0x03}) // count
	buf.Write([]byte{'h', 'i', 0x00, 0x00})   // inline value
	buf.Write([]byte{0x00, 0x00, 0x00, 0x00}) // next IFD

	doc, err := Decode(buf.Bytes())
	require.NoError(t, err)
	require.Equal(t, []core.Segment{
		{Source: core.Source{Kind: core.SrcSoftware}, Text: "hi"},
	}, doc.Segments)
}

func TestDecodeRejectsBadHeader(t *testing.T) {
	_, err := Decode([]byte("XX\x2A\x00\x08\x00\x00\x00"))
	require.ErrorIs(t, err, core.ErrCorruptStructure)

	_, err = Decode([]byte("II\x2B\x00\x08\x00\x00\x00"))
	require.ErrorIs(t, err, core.ErrCorruptStructure)

	_, err = Decode([]byte("II\x2A\x00\xFF\xFF\x00\x00"))
	require.ErrorIs(t, err, core.ErrCorruptStructure)
}

func TestGoexifReadsEncoderOutput(t *testing.T) {
	segs := []core.Segment{
		{Source: core.Source{Kind: core.SrcImageDescription, Prefix: "prompt"}, Text: `{"seed":1}`},
		{Source: core.Source{Kind: core.SrcSoftware}, Text: "NovelAI Diffusion"},
		core.UserComment("hello"),
	}
	data := EncodeSegments(segs)

	x, err := exif.Decode(bytes.NewReader(data))
	require.NoError(t, err)

	desc, err := x.Get(exif.ImageDescription)
	require.NoError(t, err)
	descVal, err := desc.StringVal()
	require.NoError(t, err)
	require.Equal(t, `prompt: {"seed":1}`, descVal)

	software, err := x.Get(exif.Software)
	require.NoError(t, err)
	softwareVal, err := software.StringVal()
	require.NoError(t, err)
	require.Equal(t, "NovelAI Diffusion", softwareVal)

	comment, err := x.Get(exif.UserComment)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(comment.Val, []byte("UNICODE\x00")))
}

func TestUserCommentRoundTrip(t *testing.T) {
	texts := []string{
		"",
		"plain ascii prompt",
		"café crème", // Latin-1 extended
		"mixed 日本語 and 🎉 emoji",
	}
	for _, text := range texts {
		got, ok := decodeUserComment(encodeUserComment(text))
		require.True(t, ok, text)
		require.Equal(t, text, got)
	}
}

func TestUserCommentByteOrderHeuristic(t *testing.T) {
	// Producers disagree on byte order under the UNICODE marker; the first
	// two payload bytes decide.
	le := append([]byte("UNICODE\x00"), 'H', 0x00, 'i', 0x00)
	got, ok := decodeUserComment(le)
	require.True(t, ok)
	require.Equal(t, "Hi", got)

	be := append([]byte("UNICODE\x00"), 0x00, 'H', 0x00, 'i')
	got, ok = decodeUserComment(be)
	require.True(t, ok)
	require.Equal(t, "Hi", got)
}

func TestUserCommentASCIIMarker(t *testing.T) {
	payload := append([]byte("ASCII\x00\x00\x00"), []byte("hello\x00padding")...)
	got, ok := decodeUserComment(payload)
	require.True(t, ok)
	require.Equal(t, "hello", got)
}

func TestUserCommentBareUTF8(t *testing.T) {
	got, ok := decodeUserComment([]byte("no marker at all"))
	require.True(t, ok)
	require.Equal(t, "no marker at all", got)

	_, ok = decodeUserComment([]byte{0xFF, 0xFE, 0xFD})
	require.False(t, ok)
}

func TestDanglingValueOffsetIsDiagnosed(t *testing.T) {
	segs := []core.Segment{
		{Source: core.Source{Kind: core.SrcSoftware}, Text: "a longer software name"},
	}
	data := EncodeSegments(segs)
	// Truncate the out-of-line data area; the entry table stays intact.
	doc, err := Decode(data[: len(data)-10 : len(data)-10])
	require.NoError(t, err)
	require.Error(t, doc.Diagnostics)
	require.Empty(t, doc.Segments)
}
