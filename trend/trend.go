// Package trend maintains the trend catalog: the append-only mapping
// between a trend's UTF-8 name and its stable 32-bit id.
package trend

import (
	"fmt"

	"github.com/mitchpaulus/stsd/endian"
	"github.com/mitchpaulus/stsd/errs"
)

// be is the wire byte order for a trend record's id field.
var be = endian.GetBigEndianEngine()

// NameSize is the maximum length in bytes of a trend name on disk.
const NameSize = 124

// IDSize is the size in bytes of a trend id field.
const IDSize = 4

// RecordSize is the on-disk size of one trend record (id + padded name).
const RecordSize = IDSize + NameSize

// Catalog is the in-memory view of the trend region: a name-to-id map plus
// the next id to assign. Ids start at 1 and are dense and never reused.
type Catalog struct {
	byName map[string]uint32
	nextID uint32
}

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{byName: make(map[string]uint32)}
}

// ParsePages reconstructs a Catalog from the raw contents of the trend
// region's pages, in page order.
//
// Each page holds a run of RecordSize records (a non-zero 4-byte id
// followed by a null-padded name), terminated by a zero id or the end of
// the page; position resets at the start of every page, since RecordSize
// does not evenly divide every configured page size.
func ParsePages(pages [][]byte) *Catalog {
	c := NewCatalog()

	for _, page := range pages {
		pos := 0
		for pos+IDSize <= len(page) {
			id := be.Uint32(page[pos : pos+IDSize])
			if id == 0 {
				break
			}
			pos += IDSize

			name := trimName(page[pos : pos+NameSize])
			pos += NameSize

			c.byName[name] = id
			if id >= c.nextID {
				c.nextID = id + 1
			}
		}
	}

	if c.nextID == 0 {
		c.nextID = 1
	}

	return c
}

// Lookup returns the id for name, if known.
func (c *Catalog) Lookup(name string) (uint32, bool) {
	id, ok := c.byName[name]
	return id, ok
}

// Count returns the number of known trends.
func (c *Catalog) Count() int { return len(c.byName) }

// NextID returns the id that would be assigned to the next new trend.
func (c *Catalog) NextID() uint32 { return c.nextID }

// Assign allocates and records a new id for name, which must not already be
// present (callers check Lookup first).
func (c *Catalog) Assign(name string) uint32 {
	id := c.nextID
	c.byName[name] = id
	c.nextID++
	return id
}

// EncodeRecord renders (id, name) as its on-disk record. name must be at
// most NameSize UTF-8 bytes.
func EncodeRecord(id uint32, name string) ([]byte, error) {
	if len(name) > NameSize {
		return nil, fmt.Errorf("%w: %q is %d bytes", errs.ErrTrendNameTooLong, name, len(name))
	}

	rec := make([]byte, RecordSize)
	be.PutUint32(rec[:IDSize], id)
	copy(rec[IDSize:], name)

	return rec, nil
}

func trimName(b []byte) string {
	end := len(b)
	for end > 0 && b[end-1] == 0 {
		end--
	}
	return string(b[:end])
}
