package core

import "errors"

// Error kinds returned across the public boundary. Nothing in the core
// panics or throws; callers branch with errors.Is.
var (
	// ErrInvalidSignature means the container magic bytes did not match.
	ErrInvalidSignature = errors.New("invalid container signature")
	// ErrNoIHDRChunk means a PNG is missing its mandatory first IHDR chunk.
	ErrNoIHDRChunk = errors.New("png: no IHDR chunk")
	// ErrNoExifChunk means a structurally required EXIF anchor is absent.
	ErrNoExifChunk = errors.New("no EXIF chunk")
	// ErrCorruptStructure means a length field points past the buffer end.
	ErrCorruptStructure = errors.New("corrupted container structure")
	// ErrInvalidRIFFStructure means a RIFF chunk size points past the buffer end.
	ErrInvalidRIFFStructure = errors.New("invalid RIFF structure")
	// ErrParse means an embedded JSON/XML payload is malformed. Readers
	// recover from it locally by treating the value as opaque text.
	ErrParse = errors.New("embedded payload parse error")
	// ErrUnsupportedFormat means the container is not PNG, JPEG or WebP.
	ErrUnsupportedFormat = errors.New("unsupported container format")
	// ErrConversionFailed means no converter matched the tool/target pair.
	ErrConversionFailed = errors.New("no converter matched")
	// ErrWriteFailed wraps an underlying writer error for the outer API.
	ErrWriteFailed = errors.New("write failed")
)
