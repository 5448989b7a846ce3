package page_test

import (
	"testing"

	"github.com/mitchpaulus/stsd/page"
	"github.com/stretchr/testify/require"
)

func TestHeaderRoundTrip(t *testing.T) {
	h := page.Header{
		Version:       1,
		PageSize:      page.Size,
		InitialYear:   2000,
		TemplatePages: 2,
		TrendPages:    3,
		IndexPages:    1,
		DataPages:     5,
	}

	parsed, err := page.Parse(h.Bytes())
	require.NoError(t, err)
	require.Equal(t, h, parsed)
}

func TestHeaderBytesIsExactlyOnePage(t *testing.T) {
	h := page.NewHeader(page.Size, page.DefaultInitialYear)
	require.Len(t, h.Bytes(), page.Size)
}

func TestHeaderBytesZeroFillsRemainder(t *testing.T) {
	h := page.NewHeader(page.Size, page.DefaultInitialYear)
	buf := h.Bytes()
	for i := page.HeaderSize; i < len(buf); i++ {
		require.Zerof(t, buf[i], "byte %d should be zero", i)
	}
}

func TestRegionOffsets(t *testing.T) {
	h := page.Header{
		TemplatePages: 2,
		TrendPages:    3,
		IndexPages:    1,
		DataPages:     5,
	}

	require.Equal(t, uint32(1), h.TemplateRegionStart())
	require.Equal(t, uint32(3), h.TrendRegionStart())
	require.Equal(t, uint32(6), h.IndexRegionStart())
	require.Equal(t, uint32(7), h.DataRegionStart())
	require.Equal(t, uint32(12), h.TotalPages())
}

func TestParseRejectsShortBuffer(t *testing.T) {
	_, err := page.Parse(make([]byte, 10))
	require.Error(t, err)
}

func TestSizeBytesMatchesTotalPages(t *testing.T) {
	h := page.Header{PageSize: page.Size, DataPages: 4}
	require.Equal(t, int64(h.TotalPages())*page.Size, h.SizeBytes())
}
