package index_test

import (
	"testing"

	"github.com/mitchpaulus/stsd/index"
	"github.com/stretchr/testify/require"
)

func TestEntryBytesRoundTrip(t *testing.T) {
	e := index.Entry{TrendID: 3, PageIdx: 9, StartDay: 100, EndDay: 120}
	rec := e.Bytes()
	require.Len(t, rec, index.RecordSize)

	page := make([]byte, 4096)
	copy(page, rec)

	entries := index.ParsePages([][]byte{page})
	require.Equal(t, []index.Entry{e}, entries)
}

func TestFindForTrend(t *testing.T) {
	entries := []index.Entry{
		{TrendID: 1, PageIdx: 0, StartDay: 1, EndDay: 10},
		{TrendID: 2, PageIdx: 1, StartDay: 1, EndDay: 10},
		{TrendID: 1, PageIdx: 2, StartDay: 11, EndDay: 20},
	}

	got := index.FindForTrend(entries, 1)
	require.Len(t, got, 2)
}

func TestFindContaining(t *testing.T) {
	entries := []index.Entry{
		{TrendID: 1, PageIdx: 0, StartDay: 1, EndDay: 10},
		{TrendID: 1, PageIdx: 1, StartDay: 11, EndDay: 20},
	}

	e, ok := index.FindContaining(entries, 15)
	require.True(t, ok)
	require.Equal(t, uint32(1), e.PageIdx)

	_, ok = index.FindContaining(entries, 25)
	require.False(t, ok)
}

func TestFindLatestBefore(t *testing.T) {
	entries := []index.Entry{
		{TrendID: 1, PageIdx: 0, StartDay: 1, EndDay: 10},
		{TrendID: 1, PageIdx: 1, StartDay: 11, EndDay: 20},
	}

	e, ok := index.FindLatestBefore(entries, 25)
	require.True(t, ok)
	require.Equal(t, uint32(1), e.PageIdx)

	_, ok = index.FindLatestBefore(entries, 1)
	require.False(t, ok)
}
