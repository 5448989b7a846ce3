package compress

// ZstdCompressor compresses snapshots with Zstandard, trading compression
// speed for the best ratio of the supported codecs. Its Compress and
// Decompress methods live in zstd_pure.go (every default build, backed by
// github.com/klauspost/compress/zstd) and zstd_cgo.go (only with the
// nobuild build tag, backed by github.com/valyala/gozstd).
type ZstdCompressor struct{}

var _ Codec = (*ZstdCompressor)(nil)

// NewZstdCompressor creates a new Zstd compressor with default settings.
func NewZstdCompressor() ZstdCompressor {
	return ZstdCompressor{}
}
