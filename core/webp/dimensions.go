package webp

import (
	"encoding/binary"
	"fmt"

	"github.com/kohaku-dev/genmeta/core"
)

// Dimensions returns the canvas width and height. Each sub-format encodes
// them differently: VP8X stores 3-byte little-endian fields minus one, VP8L
// packs two 14-bit fields minus one after its signature byte, and lossy VP8
// stores 14-bit fields after the frame sync code.
func Dimensions(data []byte) (width, height int, err error) {
	chunks, err := parseChunks(data)
	if err != nil {
		return 0, 0, err
	}
	for _, c := range chunks {
		switch c.fourCC {
		case fourCCVP8X:
			return vp8xDimensions(c.data)
		case fourCCVP8L:
			return vp8lDimensions(c.data)
		case fourCCVP8:
			return vp8Dimensions(c.data)
		}
	}
	return 0, 0, fmt.Errorf("no image-bearing chunk: %w", core.ErrInvalidRIFFStructure)
}

// vp8xDimensions reads the extended-header canvas fields: flags(4) then
// width-1 and height-1, each 3 bytes little-endian.
func vp8xDimensions(data []byte) (int, int, error) {
	if len(data) < 10 {
		return 0, 0, fmt.Errorf("VP8X chunk too short: %w", core.ErrInvalidRIFFStructure)
	}
	w := int(data[4]) | int(data[5])<<8 | int(data[6])<<16
	h := int(data[7]) | int(data[8])<<8 | int(data[9])<<16
	return w + 1, h + 1, nil
}

// vp8lDimensions reads the lossless header: signature byte 0x2F, then two
// 14-bit fields minus one packed little-endian.
func vp8lDimensions(data []byte) (int, int, error) {
	if len(data) < 5 || data[0] != 0x2F {
		return 0, 0, fmt.Errorf("VP8L header malformed: %w", core.ErrInvalidRIFFStructure)
	}
	bits := binary.LittleEndian.Uint32(data[1:5])
	w := int(bits&0x3FFF) + 1
	h := int((bits>>14)&0x3FFF) + 1
	return w, h, nil
}

// vp8Dimensions reads the lossy key-frame header: a 3-byte frame tag, the
// sync code 9D 01 2A, then 14-bit width and height fields.
func vp8Dimensions(data []byte) (int, int, error) {
	if len(data) < 10 || data[3] != 0x9D || data[4] != 0x01 || data[5] != 0x2A {
		return 0, 0, fmt.Errorf("VP8 key frame header malformed: %w", core.ErrInvalidRIFFStructure)
	}
	w := int(binary.LittleEndian.Uint16(data[6:8])) & 0x3FFF
	h := int(binary.LittleEndian.Uint16(data[8:10])) & 0x3FFF
	return w, h, nil
}
