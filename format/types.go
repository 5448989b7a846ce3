// Package format defines small shared enumerations used at the edges of the
// stsd module, outside the byte-exact on-disk page format itself.
package format

// CompressionType identifies the codec used to compress a backup snapshot
// of a database file (see package backup). It never appears inside the
// paged file format described by package page.
type CompressionType uint8

const (
	CompressionNone CompressionType = 0x1 // CompressionNone stores the snapshot uncompressed.
	CompressionZstd CompressionType = 0x2 // CompressionZstd uses Zstandard compression.
	CompressionS2   CompressionType = 0x3 // CompressionS2 uses Klauspost's S2 (Snappy-compatible) compression.
	CompressionLZ4  CompressionType = 0x4 // CompressionLZ4 uses LZ4 compression.
)

func (c CompressionType) String() string {
	switch c {
	case CompressionNone:
		return "None"
	case CompressionZstd:
		return "Zstd"
	case CompressionS2:
		return "S2"
	case CompressionLZ4:
		return "LZ4"
	default:
		return "Unknown"
	}
}
