package trend_test

import (
	"testing"

	"github.com/mitchpaulus/stsd/trend"
	"github.com/stretchr/testify/require"
)

func TestCatalogAssignAndLookup(t *testing.T) {
	c := trend.NewCatalog()
	require.Equal(t, uint32(1), c.NextID())

	id, ok := c.Lookup("temperature")
	require.False(t, ok)
	require.Zero(t, id)

	assigned := c.Assign("temperature")
	require.Equal(t, uint32(1), assigned)

	id, ok = c.Lookup("temperature")
	require.True(t, ok)
	require.Equal(t, uint32(1), id)

	require.Equal(t, uint32(2), c.Assign("humidity"))
	require.Equal(t, 2, c.Count())
}

func TestEncodeRecordRejectsLongName(t *testing.T) {
	name := make([]byte, trend.NameSize+1)
	for i := range name {
		name[i] = 'a'
	}

	_, err := trend.EncodeRecord(1, string(name))
	require.Error(t, err)
}

func TestEncodeRecordRoundTrip(t *testing.T) {
	rec, err := trend.EncodeRecord(7, "boiler.supply_temp")
	require.NoError(t, err)
	require.Len(t, rec, trend.RecordSize)

	page := make([]byte, 4096)
	copy(page, rec)

	catalog := trend.ParsePages([][]byte{page})
	id, ok := catalog.Lookup("boiler.supply_temp")
	require.True(t, ok)
	require.Equal(t, uint32(7), id)
	require.Equal(t, uint32(8), catalog.NextID())
}

func TestParsePagesResetsPositionPerPage(t *testing.T) {
	recsPerPage := 4096 / trend.RecordSize

	page0 := make([]byte, 4096)
	for i := 0; i < recsPerPage; i++ {
		rec, err := trend.EncodeRecord(uint32(i+1), "t")
		require.NoError(t, err)
		copy(page0[i*trend.RecordSize:], rec)
	}

	page1 := make([]byte, 4096)
	rec, err := trend.EncodeRecord(uint32(recsPerPage+1), "last")
	require.NoError(t, err)
	copy(page1, rec)

	catalog := trend.ParsePages([][]byte{page0, page1})
	id, ok := catalog.Lookup("last")
	require.True(t, ok)
	require.Equal(t, uint32(recsPerPage+1), id)
}
