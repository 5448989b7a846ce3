// Package pageio owns the database file: the header region, the page
// splicing primitive that grows a region's page count, and the write/read
// paths that assemble and walk data pages built from encoded day blocks.
//
// Every other stsd package describes an in-memory shape (a catalog, a
// table, a codec); pageio is the one package that touches the filesystem.
package pageio

import (
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/mitchpaulus/stsd/calendar"
	"github.com/mitchpaulus/stsd/daytemplate"
	"github.com/mitchpaulus/stsd/dayvalue"
	"github.com/mitchpaulus/stsd/endian"
	"github.com/mitchpaulus/stsd/errs"
	"github.com/mitchpaulus/stsd/index"
	"github.com/mitchpaulus/stsd/internal/options"
	"github.com/mitchpaulus/stsd/page"
	"github.com/mitchpaulus/stsd/trend"
)

// be is the wire byte order for data-page byte counts and the inline
// day_id/template_id fields within a day block, matching the header's
// convention in package page.
var be = endian.GetBigEndianEngine()

// Point is one (timestamp, value) observation accepted by WriteData or
// produced by ReadRange.
type Point struct {
	Timestamp time.Time
	Value     string
}

// config holds the options accepted by Init.
type config struct {
	pageSize    uint16
	initialYear uint16
}

// Option configures Init.
type Option = options.Option[*config]

// WithPageSize overrides the default page size (page.Size) used by Init.
func WithPageSize(n uint16) Option {
	return options.NoError[*config](func(c *config) { c.pageSize = n })
}

// WithInitialYear overrides Y0 (page.DefaultInitialYear) used by Init.
func WithInitialYear(y uint16) Option {
	return options.NoError[*config](func(c *config) { c.initialYear = y })
}

// Init creates a new, empty database file at path: one page long, carrying
// only the header. It fails if path already exists.
func Init(path string, opts ...Option) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%w: %s", errs.ErrFileExists, path)
	} else if !os.IsNotExist(err) {
		return err
	}

	cfg := &config{pageSize: page.Size, initialYear: page.DefaultInitialYear}
	if err := options.Apply(cfg, opts...); err != nil {
		return err
	}

	header := page.NewHeader(cfg.pageSize, cfg.initialYear)
	return os.WriteFile(path, header.Bytes(), 0o644)
}

// Summary reports the header contents plus derived file statistics.
type Summary struct {
	Version       uint16
	PageSize      uint16
	InitialYear   uint16
	TemplatePages uint32
	TrendPages    uint32
	IndexPages    uint32
	DataPages     uint32
	TotalPages    uint32
	FileSizeBytes int64
}

// Summarize reads page 0 and reports the database's shape.
func Summarize(path string) (Summary, error) {
	f, err := os.Open(path)
	if err != nil {
		return Summary{}, err
	}
	defer f.Close()

	header, err := readHeader(f)
	if err != nil {
		return Summary{}, err
	}

	info, err := f.Stat()
	if err != nil {
		return Summary{}, err
	}

	return Summary{
		Version:       header.Version,
		PageSize:      header.PageSize,
		InitialYear:   header.InitialYear,
		TemplatePages: header.TemplatePages,
		TrendPages:    header.TrendPages,
		IndexPages:    header.IndexPages,
		DataPages:     header.DataPages,
		TotalPages:    header.TotalPages(),
		FileSizeBytes: info.Size(),
	}, nil
}

func readHeader(f *os.File) (page.Header, error) {
	buf := make([]byte, page.HeaderSize)
	if _, err := f.ReadAt(buf, 0); err != nil {
		return page.Header{}, err
	}
	return page.Parse(buf)
}

func readHeaderAt(path string) (page.Header, error) {
	f, err := os.Open(path)
	if err != nil {
		return page.Header{}, err
	}
	defer f.Close()
	return readHeader(f)
}

func pageSizeOf(h page.Header) int64 {
	if h.PageSize == 0 {
		return page.Size
	}
	return int64(h.PageSize)
}

func readRegionPages(f *os.File, pageSize int64, start, count uint32) ([][]byte, error) {
	pages := make([][]byte, count)
	for i := uint32(0); i < count; i++ {
		buf := make([]byte, pageSize)
		if _, err := f.ReadAt(buf, int64(start+i)*pageSize); err != nil {
			return nil, err
		}
		pages[i] = buf
	}
	return pages, nil
}

func readOnePage(f *os.File, pageSize int64, absoluteIdx uint32) ([]byte, error) {
	buf := make([]byte, pageSize)
	if _, err := f.ReadAt(buf, int64(absoluteIdx)*pageSize); err != nil {
		return nil, err
	}
	return buf, nil
}

func writePageAt(f *os.File, pageSize int64, absoluteIdx uint32, data []byte) error {
	if int64(len(data)) != pageSize {
		padded := make([]byte, pageSize)
		copy(padded, data)
		data = padded
	}
	_, err := f.WriteAt(data, int64(absoluteIdx)*pageSize)
	return err
}

func writeHeaderCounter(f *os.File, offset int64, value uint32) error {
	var buf [4]byte
	be.PutUint32(buf[:], value)
	_, err := f.WriteAt(buf[:], offset)
	return err
}

// insertBlankPages atomically splices n zero-filled pages into path
// starting at atPage, via a temp file plus rename. It is the only growth
// primitive; every region expansion goes through it.
func insertBlankPages(path string, pageSize int64, atPage, n uint32) error {
	if n == 0 {
		return nil
	}

	src, err := os.Open(path)
	if err != nil {
		return err
	}
	defer src.Close()

	tmpPath := path + ".tmp"
	dst, err := os.Create(tmpPath)
	if err != nil {
		return err
	}

	if err := spliceBlankPages(src, dst, pageSize, atPage, n); err != nil {
		dst.Close()
		os.Remove(tmpPath)
		return err
	}

	if err := dst.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}

	return os.Rename(tmpPath, path)
}

func spliceBlankPages(src, dst *os.File, pageSize int64, atPage, n uint32) error {
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return err
	}

	if _, err := io.Copy(dst, io.LimitReader(src, int64(atPage)*pageSize)); err != nil {
		return err
	}

	blank := make([]byte, pageSize)
	for i := uint32(0); i < n; i++ {
		if _, err := dst.Write(blank); err != nil {
			return err
		}
	}

	_, err := io.Copy(dst, src)
	return err
}

// recordsPerPage returns how many fixed-size records of recordSize fit in
// one page, given records never span pages.
func recordsPerPage(pageSize int64, recordSize int) int {
	return int(pageSize) / recordSize
}

// recordOffset returns the absolute byte offset of the idx'th record (0
// based) in a region of fixed-size records starting at regionStart.
func recordOffset(regionStart uint32, pageSize int64, recordSize int, idx int) int64 {
	perPage := recordsPerPage(pageSize, recordSize)
	pageOffset := idx / perPage
	posInPage := (idx % perPage) * recordSize
	return (int64(regionStart)+int64(pageOffset))*pageSize + int64(posInPage)
}

type regionKind int

const (
	regionTemplate regionKind = iota
	regionTrend
	regionIndex
	regionData
)

// maxRegionRetries bounds the splice-and-retry loop. A single WriteData
// call can at most grow each of the four regions once, so this is never
// reached in practice; it exists only as a runaway-loop backstop.
const maxRegionRetries = 8

// growRegion splices one blank page onto the tail of the given region and
// bumps its header counter, returning the updated header.
func growRegion(path string, pageSize int64, header page.Header, kind regionKind) (page.Header, error) {
	var atPage uint32
	var offset int64

	switch kind {
	case regionTemplate:
		atPage, offset = header.TemplateRegionStart()+header.TemplatePages, page.OffsetTemplatePages
	case regionTrend:
		atPage, offset = header.TrendRegionStart()+header.TrendPages, page.OffsetTrendPages
	case regionIndex:
		atPage, offset = header.IndexRegionStart()+header.IndexPages, page.OffsetIndexPages
	case regionData:
		atPage, offset = header.DataRegionStart()+header.DataPages, page.OffsetDataPages
	}

	if err := insertBlankPages(path, pageSize, atPage, 1); err != nil {
		return page.Header{}, err
	}

	switch kind {
	case regionTemplate:
		header.TemplatePages++
	case regionTrend:
		header.TrendPages++
	case regionIndex:
		header.IndexPages++
	case regionData:
		header.DataPages++
	}

	f, err := os.OpenFile(path, os.O_RDWR, 0o644)
	if err != nil {
		return page.Header{}, err
	}
	defer f.Close()

	var value uint32
	switch kind {
	case regionTemplate:
		value = header.TemplatePages
	case regionTrend:
		value = header.TrendPages
	case regionIndex:
		value = header.IndexPages
	case regionData:
		value = header.DataPages
	}

	if err := writeHeaderCounter(f, offset, value); err != nil {
		return page.Header{}, err
	}

	return header, nil
}

// WriteData is the central write path: it resolves trendName to a stable
// id (assigning one and growing the trend region if necessary), groups
// points by local calendar date, and commits each day independently.
func WriteData(path, trendName string, points []Point) error {
	if len(points) == 0 {
		return errs.ErrNoDataPoints
	}

	trendID, err := resolveTrendID(path, trendName)
	if err != nil {
		return err
	}

	byDay := make(map[time.Time][]Point)
	for _, p := range points {
		d := calendar.DateOf(p.Timestamp)
		byDay[d] = append(byDay[d], p)
	}

	days := make([]time.Time, 0, len(byDay))
	for d := range byDay {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	for _, d := range days {
		dayPoints := byDay[d]
		sort.Slice(dayPoints, func(i, j int) bool {
			return dayPoints[i].Timestamp.Before(dayPoints[j].Timestamp)
		})

		if err := writeDay(path, trendID, d, dayPoints); err != nil {
			return err
		}
	}

	return nil
}

// resolveTrendID looks up trendName in the trend catalog, assigning and
// persisting a new id (growing the trend region if it is full) when the
// name is not yet known.
func resolveTrendID(path, trendName string) (uint32, error) {
	for attempt := 0; attempt < maxRegionRetries; attempt++ {
		f, err := os.OpenFile(path, os.O_RDWR, 0o644)
		if err != nil {
			return 0, err
		}

		header, err := readHeader(f)
		if err != nil {
			f.Close()
			return 0, err
		}
		pageSize := pageSizeOf(header)

		pages, err := readRegionPages(f, pageSize, header.TrendRegionStart(), header.TrendPages)
		f.Close()
		if err != nil {
			return 0, err
		}

		catalog := trend.ParsePages(pages)
		if id, ok := catalog.Lookup(trendName); ok {
			return id, nil
		}

		existing := catalog.Count()
		capacity := int(header.TrendPages) * recordsPerPage(pageSize, trend.RecordSize)
		if existing+1 > capacity {
			if _, err := growRegion(path, pageSize, header, regionTrend); err != nil {
				return 0, err
			}
			continue
		}

		id := catalog.Assign(trendName)
		rec, err := trend.EncodeRecord(id, trendName)
		if err != nil {
			return 0, err
		}

		f, err = os.OpenFile(path, os.O_RDWR, 0o644)
		if err != nil {
			return 0, err
		}
		off := recordOffset(header.TrendRegionStart(), pageSize, trend.RecordSize, existing)
		_, err = f.WriteAt(rec, off)
		f.Close()
		if err != nil {
			return 0, err
		}

		return id, nil
	}

	return 0, errs.ErrTooManyRetries
}

// writeDay commits one local date's observations for trendID: it interns
// the day's minute-of-day template, encodes the values, and appends the
// resulting day block to the latest data page for this trend (or a fresh
// one), splicing and retrying as needed.
func writeDay(path string, trendID uint32, date time.Time, points []Point) error {
	times := make([]time.Time, len(points))
	values := make([]string, len(points))
	for i, p := range points {
		times[i] = p.Timestamp
		values[i] = p.Value
	}

	bitmap := daytemplate.FromTimestamps(times)
	block, err := dayvalue.Encode(values)
	if err != nil {
		return err
	}
	if len(block) > page.Size-2 {
		return fmt.Errorf("%w: %d bytes", errs.ErrEncodedBlockTooLarge, len(block))
	}

	for attempt := 0; attempt < maxRegionRetries; attempt++ {
		header, err := readHeaderAt(path)
		if err != nil {
			return err
		}
		pageSize := pageSizeOf(header)

		f, err := os.OpenFile(path, os.O_RDWR, 0o644)
		if err != nil {
			return err
		}

		templatePages, err := readRegionPages(f, pageSize, header.TemplateRegionStart(), header.TemplatePages)
		if err != nil {
			f.Close()
			return err
		}
		table := daytemplate.ParsePages(templatePages)

		templateID, found := table.Match(bitmap)
		if !found {
			existing := table.Count()
			capacity := int(header.TemplatePages) * recordsPerPage(pageSize, daytemplate.RecordSize)
			if existing+1 > capacity {
				f.Close()
				if _, err := growRegion(path, pageSize, header, regionTemplate); err != nil {
					return err
				}
				continue
			}

			rec := daytemplate.EncodeRecord(bitmap)
			off := recordOffset(header.TemplateRegionStart(), pageSize, daytemplate.RecordSize, existing)
			if _, err := f.WriteAt(rec, off); err != nil {
				f.Close()
				return err
			}
			templateID = existing
		}

		indexPages, err := readRegionPages(f, pageSize, header.IndexRegionStart(), header.IndexPages)
		if err != nil {
			f.Close()
			return err
		}
		entries := index.ParsePages(indexPages)

		dayID := calendar.OrdinalOf(date) - calendar.OrdinalOf(yearStart(header.InitialYear)) + 1
		if dayID < 0 || dayID > 0xFFFF {
			f.Close()
			return fmt.Errorf("%w: day id %d out of range", errs.ErrCorruptPage, dayID)
		}

		trendEntries := index.FindForTrend(entries, trendID)
		if _, ok := index.FindContaining(trendEntries, uint16(dayID)); ok {
			f.Close()
			return errs.ErrInRangeOverwriteUnsupported
		}

		if latest, ok := index.FindLatestBefore(trendEntries, uint16(dayID)); ok {
			dataAbs := header.DataRegionStart() + latest.PageIdx
			dataPage, err := readOnePage(f, pageSize, dataAbs)
			if err != nil {
				f.Close()
				return err
			}

			used := int(be.Uint16(dataPage[:2]))
			needed := 4 + len(block)
			if used+needed <= int(pageSize) {
				be.PutUint16(dataPage[used:used+2], uint16(dayID))
				be.PutUint16(dataPage[used+2:used+4], uint16(templateID))
				copy(dataPage[used+4:], block)
				be.PutUint16(dataPage[:2], uint16(used+needed))

				if err := writePageAt(f, pageSize, dataAbs, dataPage); err != nil {
					f.Close()
					return err
				}

				newEntry := latest
				newEntry.EndDay = uint16(dayID)
				idxOff := recordOffset(header.IndexRegionStart(), pageSize, index.RecordSize, entryPosition(entries, latest))
				if _, err := f.WriteAt(newEntry.Bytes(), idxOff); err != nil {
					f.Close()
					return err
				}

				f.Close()
				return nil
			}
		}

		// Allocate a new data page for this trend. The Data region's page
		// count always equals the number of data pages already in use (a
		// page is spliced in and written in the same step, never ahead of
		// need), so there is never a pre-existing free slot to reuse: this
		// path always splices first.
		indexCapacity := int(header.IndexPages) * recordsPerPage(pageSize, index.RecordSize)
		if len(entries)+1 > indexCapacity {
			f.Close()
			if _, err := growRegion(path, pageSize, header, regionIndex); err != nil {
				return err
			}
			continue
		}

		newDataIdx := header.DataPages
		f.Close()

		header, err = growRegion(path, pageSize, header, regionData)
		if err != nil {
			return err
		}

		f, err = os.OpenFile(path, os.O_RDWR, 0o644)
		if err != nil {
			return err
		}

		newEntry := index.Entry{TrendID: trendID, PageIdx: newDataIdx, StartDay: uint16(dayID), EndDay: uint16(dayID)}
		idxOff := recordOffset(header.IndexRegionStart(), pageSize, index.RecordSize, len(entries))
		if _, err := f.WriteAt(newEntry.Bytes(), idxOff); err != nil {
			f.Close()
			return err
		}

		dataPage := make([]byte, pageSize)
		be.PutUint16(dataPage[2:4], uint16(dayID))
		be.PutUint16(dataPage[4:6], uint16(templateID))
		copy(dataPage[6:], block)
		be.PutUint16(dataPage[:2], uint16(6+len(block)))

		dataAbs := header.DataRegionStart() + newDataIdx
		if err := writePageAt(f, pageSize, dataAbs, dataPage); err != nil {
			f.Close()
			return err
		}

		f.Close()
		return nil
	}

	return errs.ErrTooManyRetries
}

func entryPosition(entries []index.Entry, target index.Entry) int {
	for i, e := range entries {
		if e == target {
			return i
		}
	}
	return -1
}

// yearStart returns the UTC midnight of January 1 of year.
func yearStart(year uint16) time.Time {
	return time.Date(int(year), time.January, 1, 0, 0, 0, 0, time.UTC)
}

// ReadRange locates trendName in the catalog, scans its index records for
// [startDate, endDate] (inclusive), loads the referenced data pages, and
// projects the decoded day blocks back to (timestamp, value) points in
// ascending time order.
func ReadRange(path, trendName string, startDate, endDate time.Time) ([]Point, error) {
	if endDate.Before(startDate) {
		return nil, errs.ErrInvalidDateRange
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	header, err := readHeader(f)
	if err != nil {
		return nil, err
	}
	pageSize := pageSizeOf(header)

	trendPages, err := readRegionPages(f, pageSize, header.TrendRegionStart(), header.TrendPages)
	if err != nil {
		return nil, err
	}
	catalog := trend.ParsePages(trendPages)

	trendID, ok := catalog.Lookup(trendName)
	if !ok {
		return nil, fmt.Errorf("%w: %q", errs.ErrTrendNotFound, trendName)
	}

	templatePages, err := readRegionPages(f, pageSize, header.TemplateRegionStart(), header.TemplatePages)
	if err != nil {
		return nil, err
	}
	templates := daytemplate.ParsePages(templatePages)

	indexPages, err := readRegionPages(f, pageSize, header.IndexRegionStart(), header.IndexPages)
	if err != nil {
		return nil, err
	}
	entries := index.FindForTrend(index.ParsePages(indexPages), trendID)

	startDay := calendar.OrdinalOf(calendar.DateOf(startDate)) - calendar.OrdinalOf(yearStart(header.InitialYear)) + 1
	endDay := calendar.OrdinalOf(calendar.DateOf(endDate)) - calendar.OrdinalOf(yearStart(header.InitialYear)) + 1

	var pageIdxs []uint32
	seen := make(map[uint32]bool)
	for _, e := range entries {
		if int(e.EndDay) < startDay || int(e.StartDay) > endDay {
			continue
		}
		if !seen[e.PageIdx] {
			seen[e.PageIdx] = true
			pageIdxs = append(pageIdxs, e.PageIdx)
		}
	}
	sort.Slice(pageIdxs, func(i, j int) bool { return pageIdxs[i] < pageIdxs[j] })

	var out []Point
	for _, idx := range pageIdxs {
		dataPage, err := readOnePage(f, pageSize, header.DataRegionStart()+idx)
		if err != nil {
			return nil, err
		}

		blocks, err := decodeDataPage(dataPage, templates)
		if err != nil {
			return nil, err
		}

		for _, b := range blocks {
			if b.dayID < startDay || b.dayID > endDay {
				continue
			}

			date := calendar.DateFromOrdinal(calendar.OrdinalOf(yearStart(header.InitialYear)) + b.dayID - 1)
			minutes := templates.At(b.templateID).Minutes()

			for i, minute := range minutes {
				ts := date.Add(time.Duration(minute) * time.Minute)
				out = append(out, Point{Timestamp: ts, Value: b.values[i]})
			}
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })

	return out, nil
}

type dayBlock struct {
	dayID      int
	templateID int
	values     []string
}

// decodeDataPage walks a data page's byte-count header and sequence of
// day blocks, returning the complete list of (day_id, template_id, values)
// tuples it contains.
//
// templates is consulted before each block is decoded: the dictionary/RLE
// layout has no value-count field of its own (see dayvalue.Decode), so the
// expected value count — the referenced day-template's minute count — must
// be known up front to find where one block ends and the next begins.
func decodeDataPage(dataPage []byte, templates *daytemplate.Table) ([]dayBlock, error) {
	if len(dataPage) < 2 {
		return nil, fmt.Errorf("%w: page too small", errs.ErrCorruptPage)
	}

	used := int(be.Uint16(dataPage[:2]))
	if used > len(dataPage) {
		return nil, fmt.Errorf("%w: byte count %d exceeds page size", errs.ErrCorruptPage, used)
	}

	var blocks []dayBlock
	pos := 2
	for pos+4 <= used {
		dayID := int(be.Uint16(dataPage[pos : pos+2]))
		templateID := int(be.Uint16(dataPage[pos+2 : pos+4]))
		pos += 4

		if templateID >= templates.Count() {
			return nil, fmt.Errorf("%w: template id %d out of range", errs.ErrCorruptPage, templateID)
		}
		expectedValues := len(templates.At(templateID).Minutes())

		values, consumed, err := dayvalue.Decode(dataPage[pos:used], expectedValues)
		if err != nil {
			return nil, err
		}
		pos += consumed

		blocks = append(blocks, dayBlock{dayID: dayID, templateID: templateID, values: values})
	}

	return blocks, nil
}
