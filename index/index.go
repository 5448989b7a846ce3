// Package index maintains the (trend, day range) -> data page mapping.
package index

import "github.com/mitchpaulus/stsd/endian"

// be is the wire byte order for every field in an index record.
var be = endian.GetBigEndianEngine()

// TrendIDSize, PageIndexSize, DaySize are the field widths within an Entry record.
const (
	TrendIDSize   = 4
	PageIndexSize = 4
	DaySize       = 2
)

// RecordSize is the on-disk size of one index record.
const RecordSize = TrendIDSize + PageIndexSize + DaySize + DaySize

// Entry is one index record: the data page holding [StartDay, EndDay]
// (inclusive) of TrendID's observations.
type Entry struct {
	TrendID  uint32
	PageIdx  uint32
	StartDay uint16
	EndDay   uint16
}

// Bytes renders e as its on-disk record.
func (e Entry) Bytes() []byte {
	rec := make([]byte, RecordSize)
	be.PutUint32(rec[0:4], e.TrendID)
	be.PutUint32(rec[4:8], e.PageIdx)
	be.PutUint16(rec[8:10], e.StartDay)
	be.PutUint16(rec[10:12], e.EndDay)
	return rec
}

// ParsePages reconstructs the list of index entries from the raw contents
// of the index region's pages, in page order.
//
// Each page holds a run of RecordSize records, terminated by a zero
// trend_id or the end of the page; position resets at the start of every
// page, since RecordSize (12) does not evenly divide the default page size.
func ParsePages(pages [][]byte) []Entry {
	var entries []Entry

	for _, page := range pages {
		pos := 0
		for pos+RecordSize <= len(page) {
			trendID := be.Uint32(page[pos : pos+4])
			if trendID == 0 {
				break
			}

			entries = append(entries, Entry{
				TrendID:  trendID,
				PageIdx:  be.Uint32(page[pos+4 : pos+8]),
				StartDay: be.Uint16(page[pos+8 : pos+10]),
				EndDay:   be.Uint16(page[pos+10 : pos+12]),
			})
			pos += RecordSize
		}
	}

	return entries
}

// FindForTrend returns the subset of entries belonging to trendID.
func FindForTrend(entries []Entry, trendID uint32) []Entry {
	var out []Entry
	for _, e := range entries {
		if e.TrendID == trendID {
			out = append(out, e)
		}
	}
	return out
}

// FindContaining returns the entry among entries whose [StartDay, EndDay]
// range contains dayID, if any.
func FindContaining(entries []Entry, dayID uint16) (Entry, bool) {
	for _, e := range entries {
		if e.StartDay <= dayID && dayID <= e.EndDay {
			return e, true
		}
	}
	return Entry{}, false
}

// FindLatestBefore returns the entry among entries with the largest EndDay
// strictly less than dayID, if any. This is the "latest" data page a new
// day's block is appended to when it does not fall within an existing range.
func FindLatestBefore(entries []Entry, dayID uint16) (Entry, bool) {
	var (
		best  Entry
		found bool
	)

	for _, e := range entries {
		if e.EndDay < dayID && (!found || e.EndDay > best.EndDay) {
			best = e
			found = true
		}
	}

	return best, found
}
