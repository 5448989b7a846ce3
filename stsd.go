// Package stsd is a single-file, page-oriented storage engine for sparse
// categorical/numeric time-series observations: pairs of (timestamp, string
// value) associated with a named trend (channel).
//
// It targets workloads where a trend's daily value sequence is highly
// compressible, either because the value alphabet is small (state changes
// like "On"/"Off") or because the values share a small symbol alphabet
// (decimal-text numeric readings). A database is a single file; growth
// happens by splicing blank pages into one of four regions (day templates,
// trends, indexes, data) and is otherwise append-only.
package stsd

import (
	"os"
	"time"

	"github.com/mitchpaulus/stsd/backup"
	"github.com/mitchpaulus/stsd/format"
	"github.com/mitchpaulus/stsd/pageio"
)

// Point is one (timestamp, value) observation.
type Point = pageio.Point

// Option configures Init. See WithPageSize and WithInitialYear.
type Option = pageio.Option

// WithPageSize overrides the default page size used by Init.
func WithPageSize(n uint16) Option { return pageio.WithPageSize(n) }

// WithInitialYear overrides Y0, the calendar year day ids count from.
func WithInitialYear(y uint16) Option { return pageio.WithInitialYear(y) }

// Summary reports a database file's header contents and derived statistics.
type Summary = pageio.Summary

// CompressionType identifies a backup snapshot's compression codec.
type CompressionType = format.CompressionType

const (
	CompressionNone = format.CompressionNone
	CompressionZstd = format.CompressionZstd
	CompressionS2   = format.CompressionS2
	CompressionLZ4  = format.CompressionLZ4
)

// Init creates a new, empty database file at path. It fails if path already exists.
func Init(path string, opts ...Option) error {
	return pageio.Init(path, opts...)
}

// Summarize reports the shape of the database file at path.
func Summarize(path string) (Summary, error) {
	return pageio.Summarize(path)
}

// WriteData writes points to trendName in the database at path, assigning
// a trend id and day-template ids as needed and growing the file's regions
// to make room.
func WriteData(path, trendName string, points []Point) error {
	return pageio.WriteData(path, trendName, points)
}

// ReadRange returns trendName's observations in [startDate, endDate]
// (inclusive, compared by calendar date), in ascending timestamp order.
func ReadRange(path, trendName string, startDate, endDate time.Time) ([]Point, error) {
	return pageio.ReadRange(path, trendName, startDate, endDate)
}

// Backup writes a compressed snapshot of the database file at path to
// snapshotPath, using codec to compress it.
func Backup(path, snapshotPath string, codec CompressionType) error {
	snap, err := backup.Snapshot(path, codec)
	if err != nil {
		return err
	}
	return os.WriteFile(snapshotPath, snap, 0o644)
}

// Restore decompresses the snapshot at snapshotPath and writes the result
// to path, refusing to overwrite an existing file unless overwrite is true.
func Restore(path, snapshotPath string, overwrite bool) error {
	snap, err := os.ReadFile(snapshotPath)
	if err != nil {
		return err
	}
	return backup.Restore(path, snap, overwrite)
}
