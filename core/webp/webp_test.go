package webp

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kohaku-dev/genmeta/core"
)

// buildWebP assembles a RIFF/WEBP container from raw chunks, fixing up the
// RIFF size field and even padding.
func buildWebP(chunks ...chunk) []byte {
	var body bytes.Buffer
	for _, c := range chunks {
		writeChunk(&body, c)
	}
	out := make([]byte, 0, 12+body.Len())
	out = append(out, "RIFF"...)
	var size [4]byte
	binary.LittleEndian.PutUint32(size[:], uint32(4+body.Len()))
	out = append(out, size[:]...)
	out = append(out, "WEBP"...)
	out = append(out, body.Bytes()...)
	return out
}

// vp8xChunk builds a VP8X payload for the given canvas size.
func vp8xChunk(width, height int) chunk {
	data := make([]byte, 10)
	w, h := width-1, height-1
	data[4], data[5], data[6] = byte(w), byte(w>>8), byte(w>>16)
	data[7], data[8], data[9] = byte(h), byte(h>>8), byte(h>>16)
	return chunk{fourCC: fourCCVP8X, data: data}
}

func TestWriteThenRead(t *testing.T) {
	segs := []core.Segment{
		core.UserComment("a painting of a fox"),
		{Source: core.Source{Kind: core.SrcSoftware}, Text: "NovelAI"},
		{Source: core.Source{Kind: core.SrcXMPPacket}, Text: "<x:xmpmeta/>"},
	}
	out, err := WriteSegments(buildWebP(vp8xChunk(512, 768)), segs)
	require.NoError(t, err)

	got, err := ReadSegments(out)
	require.NoError(t, err)
	// Exif-bound records decode tag-ascending: Software before UserComment.
	require.Equal(t, []core.Segment{segs[1], segs[0], segs[2]}, got)
}

func TestOnlyFirstXMPPacketKept(t *testing.T) {
	segs := []core.Segment{
		{Source: core.Source{Kind: core.SrcXMPPacket}, Text: "<first/>"},
		{Source: core.Source{Kind: core.SrcXMPPacket}, Text: "<second/>"},
	}
	out, err := WriteSegments(buildWebP(vp8xChunk(1, 1)), segs)
	require.NoError(t, err)

	got, err := ReadSegments(out)
	require.NoError(t, err)
	require.Equal(t, []core.Segment{segs[0]}, got)
}

func TestChunksInjectedAfterImageChunk(t *testing.T) {
	trailer := chunk{fourCC: "ZZZZ", data: []byte{1, 2}}
	out, err := WriteSegments(buildWebP(vp8xChunk(1, 1), trailer),
		[]core.Segment{{Source: core.Source{Kind: core.SrcXMPPacket}, Text: "<p/>"}})
	require.NoError(t, err)

	chunks, err := parseChunks(out)
	require.NoError(t, err)
	var order []string
	for _, c := range chunks {
		order = append(order, c.fourCC)
	}
	require.Equal(t, []string{fourCCVP8X, fourCCXMP, "ZZZZ"}, order)
}

func TestInjectionAppendsWhenNoImageChunk(t *testing.T) {
	out, err := WriteSegments(buildWebP(chunk{fourCC: "ZZZZ", data: nil}),
		[]core.Segment{{Source: core.Source{Kind: core.SrcXMPPacket}, Text: "<p/>"}})
	require.NoError(t, err)

	chunks, err := parseChunks(out)
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	require.Equal(t, fourCCXMP, chunks[1].fourCC)
}

func TestOddPayloadPaddingAndRIFFSize(t *testing.T) {
	out, err := WriteSegments(buildWebP(vp8xChunk(1, 1)),
		[]core.Segment{{Source: core.Source{Kind: core.SrcXMPPacket}, Text: "odd"}})
	require.NoError(t, err)

	// The file is even-length overall and the RIFF size covers everything
	// after the first 8 bytes, padding included.
	require.Zero(t, len(out)%2)
	riffSize := int(binary.LittleEndian.Uint32(out[4:8]))
	require.Equal(t, len(out)-8, riffSize)

	// The stored XMP size is the unpadded payload length.
	got, err := ReadSegments(out)
	require.NoError(t, err)
	require.Equal(t, "odd", got[0].Text)
}

func TestWriteReplacesExistingMetadata(t *testing.T) {
	withMeta, err := WriteSegments(buildWebP(vp8xChunk(1, 1)), []core.Segment{
		core.UserComment("old"),
		{Source: core.Source{Kind: core.SrcXMPPacket}, Text: "<old/>"},
	})
	require.NoError(t, err)

	stripped, err := WriteSegments(withMeta, nil)
	require.NoError(t, err)
	got, err := ReadSegments(stripped)
	require.NoError(t, err)
	require.Empty(t, got)

	again, err := WriteSegments(stripped, nil)
	require.NoError(t, err)
	require.Equal(t, stripped, again)
}

func TestReadExif(t *testing.T) {
	_, err := ReadExif(buildWebP(vp8xChunk(1, 1)))
	require.ErrorIs(t, err, core.ErrNoExifChunk)

	withMeta, err := WriteSegments(buildWebP(vp8xChunk(1, 1)),
		[]core.Segment{core.UserComment("hi")})
	require.NoError(t, err)
	raw, err := ReadExif(withMeta)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(raw, []byte("II")))
}

func TestInvalidSignature(t *testing.T) {
	_, err := ReadSegments([]byte("RIFF\x04\x00\x00\x00WAVE"))
	require.ErrorIs(t, err, core.ErrInvalidSignature)

	_, err = ReadSegments([]byte("short"))
	require.ErrorIs(t, err, core.ErrInvalidSignature)
}

func TestChunkSizeBeyondBuffer(t *testing.T) {
	data := buildWebP(vp8xChunk(1, 1))
	// Inflate the VP8X chunk size past the end of the buffer.
	binary.LittleEndian.PutUint32(data[16:20], 4096)
	_, err := ReadSegments(data)
	require.ErrorIs(t, err, core.ErrInvalidRIFFStructure)
}

func TestDimensionsVP8X(t *testing.T) {
	w, h, err := Dimensions(buildWebP(vp8xChunk(512, 768)))
	require.NoError(t, err)
	require.Equal(t, 512, w)
	require.Equal(t, 768, h)
}

func TestDimensionsVP8L(t *testing.T) {
	// 14-bit width-1 and height-1 packed after the 0x2F signature byte.
	bits := uint32(99) | uint32(49)<<14 // 100x50
	payload := make([]byte, 5)
	payload[0] = 0x2F
	binary.LittleEndian.PutUint32(payload[1:], bits)
	w, h, err := Dimensions(buildWebP(chunk{fourCC: fourCCVP8L, data: payload}))
	require.NoError(t, err)
	require.Equal(t, 100, w)
	require.Equal(t, 50, h)
}

func TestDimensionsVP8(t *testing.T) {
	payload := make([]byte, 10)
	payload[3], payload[4], payload[5] = 0x9D, 0x01, 0x2A
	binary.LittleEndian.PutUint16(payload[6:8], 640)
	binary.LittleEndian.PutUint16(payload[8:10], 480)
	w, h, err := Dimensions(buildWebP(chunk{fourCC: fourCCVP8, data: payload}))
	require.NoError(t, err)
	require.Equal(t, 640, w)
	require.Equal(t, 480, h)
}

func TestDimensionsNoImageChunk(t *testing.T) {
	_, _, err := Dimensions(buildWebP(chunk{fourCC: "ZZZZ", data: nil}))
	require.ErrorIs(t, err, core.ErrInvalidRIFFStructure)
}
