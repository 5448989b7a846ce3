// Package compress provides the compression codecs used by package backup to
// shrink whole-file snapshots of an stsd database.
//
// The on-disk page format itself (package page) is byte-exact and is never
// compressed in place; these codecs only ever run against a full copy of the
// database file, outside the paged format entirely.
package compress

import (
	"fmt"

	"github.com/mitchpaulus/stsd/errs"
	"github.com/mitchpaulus/stsd/format"
)

// Compressor compresses a byte slice.
//
// The input slice is never modified. The returned slice is newly allocated
// and owned by the caller, except for NoOpCompressor, which returns the
// input slice itself.
type Compressor interface {
	Compress(data []byte) ([]byte, error)
}

// Decompressor reverses a Compressor.
//
// It returns an error if data is not valid output of the matching codec.
type Decompressor interface {
	Decompress(data []byte) ([]byte, error)
}

// Codec combines both directions of a single compression algorithm.
type Codec interface {
	Compressor
	Decompressor
}

var builtinCodecs = map[format.CompressionType]Codec{
	format.CompressionNone: NewNoOpCompressor(),
	format.CompressionZstd: NewZstdCompressor(),
	format.CompressionS2:   NewS2Compressor(),
	format.CompressionLZ4:  NewLZ4Compressor(),
}

// GetCodec retrieves the built-in Codec for compressionType.
func GetCodec(compressionType format.CompressionType) (Codec, error) {
	if codec, ok := builtinCodecs[compressionType]; ok {
		return codec, nil
	}

	return nil, fmt.Errorf("%w: %s", errs.ErrUnknownCompressionType, compressionType)
}
