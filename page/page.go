// Package page defines the page-0 header layout and the fixed region order
// (Day-Templates, Trends, Indexes, Data) shared by every other stsd package
// that reads or writes the database file.
package page

import (
	"fmt"

	"github.com/mitchpaulus/stsd/endian"
	"github.com/mitchpaulus/stsd/errs"
)

// be is the wire byte order for every field in the header. The page format
// is fixed big-endian (see the package doc), but codecs in this module go
// through the EndianEngine abstraction rather than encoding/binary directly
// so a future format revision could parameterize it.
var be = endian.GetBigEndianEngine()

// Size is the default page size in bytes. It is recorded in the header so a
// file could in principle carry a different size, but callers creating a
// new file use this default unless overridden via a functional option.
const Size = 4096

// DefaultInitialYear is Y0, the calendar year from which day ids count,
// used when a caller does not override it at Init time.
const DefaultInitialYear = 2000

// FormatVersion is the current on-disk format version written by Init.
const FormatVersion = 1

// HeaderSize is the number of meaningful bytes at the start of page 0; the
// remainder of the page is zero-filled.
const HeaderSize = 22

// Header field byte offsets within page 0, exported so pageio can patch a
// single counter in place after splicing blank pages into a region.
const (
	OffsetVersion       = 0
	OffsetPageSize      = 2
	OffsetInitialYear   = 4
	OffsetTemplatePages = 6
	OffsetTrendPages    = 10
	OffsetIndexPages    = 14
	OffsetDataPages     = 18
)

// Header is the parsed contents of page 0: format metadata and the page
// count of each of the four regions that follow it, in order.
type Header struct {
	Version       uint16
	PageSize      uint16
	InitialYear   uint16
	TemplatePages uint32
	TrendPages    uint32
	IndexPages    uint32
	DataPages     uint32
}

// NewHeader builds the header written by Init for a fresh database file.
func NewHeader(pageSize, initialYear uint16) Header {
	return Header{
		Version:     FormatVersion,
		PageSize:    pageSize,
		InitialYear: initialYear,
	}
}

// Parse decodes a Header from the first HeaderSize bytes of page 0.
func Parse(page0 []byte) (Header, error) {
	if len(page0) < HeaderSize {
		return Header{}, fmt.Errorf("%w: page 0 is %d bytes, need at least %d", errs.ErrInvalidHeaderSize, len(page0), HeaderSize)
	}

	return Header{
		Version:       be.Uint16(page0[OffsetVersion : OffsetVersion+2]),
		PageSize:      be.Uint16(page0[OffsetPageSize : OffsetPageSize+2]),
		InitialYear:   be.Uint16(page0[OffsetInitialYear : OffsetInitialYear+2]),
		TemplatePages: be.Uint32(page0[OffsetTemplatePages : OffsetTemplatePages+4]),
		TrendPages:    be.Uint32(page0[OffsetTrendPages : OffsetTrendPages+4]),
		IndexPages:    be.Uint32(page0[OffsetIndexPages : OffsetIndexPages+4]),
		DataPages:     be.Uint32(page0[OffsetDataPages : OffsetDataPages+4]),
	}, nil
}

// Bytes renders h as a full page-sized page 0: HeaderSize meaningful bytes
// followed by zero padding out to h.PageSize (or Size if PageSize is unset).
func (h Header) Bytes() []byte {
	pageSize := int(h.PageSize)
	if pageSize == 0 {
		pageSize = Size
	}

	buf := make([]byte, pageSize)
	be.PutUint16(buf[OffsetVersion:OffsetVersion+2], h.Version)
	be.PutUint16(buf[OffsetPageSize:OffsetPageSize+2], h.PageSize)
	be.PutUint16(buf[OffsetInitialYear:OffsetInitialYear+2], h.InitialYear)
	be.PutUint32(buf[OffsetTemplatePages:OffsetTemplatePages+4], h.TemplatePages)
	be.PutUint32(buf[OffsetTrendPages:OffsetTrendPages+4], h.TrendPages)
	be.PutUint32(buf[OffsetIndexPages:OffsetIndexPages+4], h.IndexPages)
	be.PutUint32(buf[OffsetDataPages:OffsetDataPages+4], h.DataPages)
	return buf
}

// TemplateRegionStart returns the 0-based page index of the first
// Day-Template page (page 0 is the header, so regions start at page 1).
func (h Header) TemplateRegionStart() uint32 {
	return 1
}

// TrendRegionStart returns the page index of the first Trend page.
func (h Header) TrendRegionStart() uint32 {
	return h.TemplateRegionStart() + h.TemplatePages
}

// IndexRegionStart returns the page index of the first Index page.
func (h Header) IndexRegionStart() uint32 {
	return h.TrendRegionStart() + h.TrendPages
}

// DataRegionStart returns the page index of the first Data page.
func (h Header) DataRegionStart() uint32 {
	return h.IndexRegionStart() + h.IndexPages
}

// TotalPages returns the total number of pages the file should contain,
// including the header page.
func (h Header) TotalPages() uint32 {
	return h.DataRegionStart() + h.DataPages
}

// SizeBytes returns the total file size in bytes implied by h.
func (h Header) SizeBytes() int64 {
	pageSize := int64(h.PageSize)
	if pageSize == 0 {
		pageSize = Size
	}
	return int64(h.TotalPages()) * pageSize
}
