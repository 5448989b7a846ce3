// Package daytemplate canonicalizes which minute-of-day slots a day's
// observations fall on into a 180-byte bitmap, and interns each distinct
// bitmap into a table of stable small integer ids.
//
// A day template says nothing about observation values; it only says which
// of a day's 1440 minutes have an entry at all, so that the data page for a
// day can store just the values in order and let a reader reconstruct
// timestamps by walking the template's set bits.
package daytemplate

import (
	"bytes"
	"sort"
	"time"

	"github.com/mitchpaulus/stsd/internal/hash"
)

// Size is the number of bytes in a Bitmap (1440 minutes / 8 bits per byte).
const Size = 180

// RecordSize is the on-disk size of one day-template record: a one-byte
// non-zero marker followed by Size bytes of bitmap.
const RecordSize = 1 + Size

// Bitmap is a 180-byte, 1440-bit map of which minutes of a day have an
// observation. Bit j of byte i represents minute 8*i+j (LSB-first within
// each byte); this ordering is local to Bitmap and is unrelated to the
// MSB-first convention package bitset uses for Huffman bit streams.
type Bitmap [Size]byte

// Set marks minute (0..1439) as present.
func (b *Bitmap) Set(minute int) {
	b[minute/8] |= 1 << uint(minute%8)
}

// IsSet reports whether minute is present.
func (b Bitmap) IsSet(minute int) bool {
	return b[minute/8]&(1<<uint(minute%8)) != 0
}

// Minutes returns the sorted list of minutes present in the bitmap.
func (b Bitmap) Minutes() []int {
	var minutes []int
	for i := 0; i < 1440; i++ {
		if b.IsSet(i) {
			minutes = append(minutes, i)
		}
	}
	return minutes
}

// FromMinutes builds a Bitmap from a set of minute-of-day values.
func FromMinutes(minutes []int) Bitmap {
	var b Bitmap
	for _, m := range minutes {
		b.Set(m)
	}
	return b
}

// FromTimestamps builds a Bitmap from a set of timestamps, using each one's
// hour and minute fields (its date is ignored; callers group by date first).
func FromTimestamps(times []time.Time) Bitmap {
	var b Bitmap
	for _, t := range times {
		b.Set(t.Hour()*60 + t.Minute())
	}
	return b
}

// bytes returns the bitmap's bytes for comparison and hashing purposes.
func (b Bitmap) bytes() []byte { return b[:] }

// compare returns -1, 0, or 1 comparing a and b byte-lexicographically.
func compare(a, b Bitmap) int {
	return bytes.Compare(a.bytes(), b.bytes())
}

// EncodeRecord renders bm as its on-disk record: a non-zero marker byte
// followed by the raw bitmap.
func EncodeRecord(bm Bitmap) []byte {
	rec := make([]byte, RecordSize)
	rec[0] = 1
	copy(rec[1:], bm[:])
	return rec
}

// Table is an append-only collection of interned day templates. A
// template's id is its position in insertion order and never changes once
// assigned, even though lookups are served by a separate byte-lexicographic
// index kept in sync alongside it.
type Table struct {
	entries []Bitmap
	order   []int // indices into entries, sorted by compare(entries[i], entries[j])
	hashIdx map[uint64][]int
}

// NewTable returns an empty day-template table.
func NewTable() *Table {
	return &Table{hashIdx: make(map[uint64][]int)}
}

// Count returns the number of interned templates.
func (t *Table) Count() int { return len(t.entries) }

// At returns the template with the given id.
func (t *Table) At(id int) Bitmap { return t.entries[id] }

// Match returns the id of bm if it is already interned.
func (t *Table) Match(bm Bitmap) (id int, found bool) {
	if pos, ok := t.findHashed(bm); ok {
		return t.order[pos], true
	}

	pos := t.search(bm)
	if pos < len(t.order) && t.entries[t.order[pos]] == bm {
		return t.order[pos], true
	}

	return 0, false
}

// Intern returns the id for bm, inserting it if it is not already present.
// created reports whether a new entry was added.
func (t *Table) Intern(bm Bitmap) (id int, created bool) {
	if id, found := t.Match(bm); found {
		return id, false
	}

	id = len(t.entries)
	t.entries = append(t.entries, bm)

	pos := t.search(bm)
	t.order = append(t.order, 0)
	copy(t.order[pos+1:], t.order[pos:])
	t.order[pos] = id

	h := hash.ID(string(bm.bytes()))
	t.hashIdx[h] = append(t.hashIdx[h], id)

	return id, true
}

// findHashed looks for bm among entries sharing its hash, returning the
// position in t.order of a match if any. This is a pure optimization: when
// it misses, t.search still performs the correctness-authoritative binary
// search over the full sorted index.
func (t *Table) findHashed(bm Bitmap) (pos int, found bool) {
	h := hash.ID(string(bm.bytes()))
	candidates, ok := t.hashIdx[h]
	if !ok {
		return 0, false
	}

	for _, id := range candidates {
		if t.entries[id] == bm {
			for i, oid := range t.order {
				if oid == id {
					return i, true
				}
			}
		}
	}

	return 0, false
}

// search returns the insertion point for bm in t.order via binary search
// over the byte-lexicographic ordering of t.entries.
func (t *Table) search(bm Bitmap) int {
	return sort.Search(len(t.order), func(i int) bool {
		return compare(t.entries[t.order[i]], bm) >= 0
	})
}

// ParsePages reconstructs a Table from the raw contents of the
// day-template region's pages, in page order.
//
// Each page holds a run of RecordSize records (a non-zero marker byte
// followed by Size bitmap bytes), terminated by a zero marker byte or the
// end of the page; position resets at the start of every page, since
// RecordSize does not evenly divide a page and records never span pages.
func ParsePages(pages [][]byte) *Table {
	t := NewTable()

	for _, page := range pages {
		pos := 0
		for pos < len(page) && page[pos] != 0 {
			pos++
			var bm Bitmap
			copy(bm[:], page[pos:pos+Size])
			pos += Size

			id := len(t.entries)
			t.entries = append(t.entries, bm)
			h := hash.ID(string(bm.bytes()))
			t.hashIdx[h] = append(t.hashIdx[h], id)
		}
	}

	t.order = make([]int, len(t.entries))
	for i := range t.order {
		t.order[i] = i
	}
	sort.Slice(t.order, func(i, j int) bool {
		return compare(t.entries[t.order[i]], t.entries[t.order[j]]) < 0
	})

	return t
}
