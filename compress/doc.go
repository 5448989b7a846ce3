// Package compress implements the whole-file compression codecs used by
// package backup to produce and restore stsd snapshot archives.
//
// # Supported algorithms
//
//   - None (format.CompressionNone): no compression, used when CPU matters
//     more than snapshot size or the file is already small.
//   - Zstd (format.CompressionZstd): best compression ratio, the default
//     choice for long-term archival of a database file.
//   - S2 (format.CompressionS2): a Snappy-family codec favoring speed over
//     ratio, useful for frequent snapshots of large databases.
//   - LZ4 (format.CompressionLZ4): fast decompression, useful when restores
//     are more time-sensitive than the backups that produce them.
//
// A snapshot is always the whole database file; none of these codecs ever
// run against individual pages, so nothing here needs to preserve page
// boundaries or the big-endian record layout defined by package page.
package compress
