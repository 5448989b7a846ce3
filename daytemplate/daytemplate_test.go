package daytemplate_test

import (
	"testing"

	"github.com/mitchpaulus/stsd/daytemplate"
	"github.com/stretchr/testify/require"
)

func TestBitmapSetAndMinutes(t *testing.T) {
	bm := daytemplate.FromMinutes([]int{0, 5, 63, 1439})
	require.Equal(t, []int{0, 5, 63, 1439}, bm.Minutes())
}

func TestBitmapLSBFirst(t *testing.T) {
	var bm daytemplate.Bitmap
	bm.Set(0)
	require.Equal(t, byte(0x01), bm[0], "minute 0 is the LSB of byte 0")
	require.True(t, bm.IsSet(0))

	var bm2 daytemplate.Bitmap
	bm2.Set(7)
	require.Equal(t, byte(0x80), bm2[0], "minute 7 is the MSB of byte 0")
	require.True(t, bm2.IsSet(7))
	require.False(t, bm2.IsSet(0))
}

func TestTableInternIsStableAndDeduped(t *testing.T) {
	table := daytemplate.NewTable()

	a := daytemplate.FromMinutes([]int{10, 20, 30})
	b := daytemplate.FromMinutes([]int{1, 2, 3})
	c := daytemplate.FromMinutes([]int{10, 20, 30})

	idA, createdA := table.Intern(a)
	require.True(t, createdA)

	idB, createdB := table.Intern(b)
	require.True(t, createdB)
	require.NotEqual(t, idA, idB)

	idC, createdC := table.Intern(c)
	require.False(t, createdC)
	require.Equal(t, idA, idC, "identical bitmap must reuse the original id regardless of sort position")

	require.Equal(t, 2, table.Count())
}

func TestTableMatchMissing(t *testing.T) {
	table := daytemplate.NewTable()
	table.Intern(daytemplate.FromMinutes([]int{1}))

	_, found := table.Match(daytemplate.FromMinutes([]int{2}))
	require.False(t, found)
}

func TestEncodeRecordRoundTrip(t *testing.T) {
	bm := daytemplate.FromMinutes([]int{0, 100, 1439})
	rec := daytemplate.EncodeRecord(bm)
	require.Len(t, rec, daytemplate.RecordSize)
	require.NotZero(t, rec[0])

	var decoded daytemplate.Bitmap
	copy(decoded[:], rec[1:])
	require.Equal(t, bm, decoded)
}

func TestParsePagesStableIDs(t *testing.T) {
	page := make([]byte, 4096)
	pos := 0

	bmA := daytemplate.FromMinutes([]int{500})
	bmB := daytemplate.FromMinutes([]int{10})

	copy(page[pos:], daytemplate.EncodeRecord(bmA))
	pos += daytemplate.RecordSize
	copy(page[pos:], daytemplate.EncodeRecord(bmB))

	table := daytemplate.ParsePages([][]byte{page})
	require.Equal(t, 2, table.Count())

	idA, found := table.Match(bmA)
	require.True(t, found)
	require.Equal(t, 0, idA, "id must reflect insertion order, not sorted position")

	idB, found := table.Match(bmB)
	require.True(t, found)
	require.Equal(t, 1, idB)
}
