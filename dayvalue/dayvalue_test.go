package dayvalue_test

import (
	"strings"
	"testing"

	"github.com/mitchpaulus/stsd/dayvalue"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTripLowCardinality(t *testing.T) {
	values := []string{
		"OPEN", "OPEN", "OPEN", "CLOSED", "CLOSED", "OPEN",
		"OPEN", "OPEN", "CLOSED", "OPEN", "OPEN", "OPEN",
	}

	block, err := dayvalue.Encode(values)
	require.NoError(t, err)
	require.Equal(t, byte(0x00), block[0], "low-cardinality input should pick dictionary/RLE")

	decoded, consumed, err := dayvalue.Decode(block, len(values))
	require.NoError(t, err)
	require.Equal(t, len(block), consumed)
	require.Equal(t, values, decoded)
}

func TestEncodeDecodeRoundTripHighCardinality(t *testing.T) {
	values := make([]string, 0, 20)
	for i := 0; i < 20; i++ {
		values = append(values, strings.Repeat("x", 1)+string(rune('a'+i%20)))
	}

	block, err := dayvalue.Encode(values)
	require.NoError(t, err)
	require.Equal(t, byte(0x01), block[0], "high-cardinality input should pick Huffman")

	decoded, consumed, err := dayvalue.Decode(block, len(values))
	require.NoError(t, err)
	require.Equal(t, len(block), consumed)
	require.Equal(t, values, decoded)
}

func TestEncodeDecodeSingleValue(t *testing.T) {
	values := []string{"42.0"}

	block, err := dayvalue.Encode(values)
	require.NoError(t, err)

	decoded, _, err := dayvalue.Decode(block, len(values))
	require.NoError(t, err)
	require.Equal(t, values, decoded)
}

func TestEncodeEmptyFails(t *testing.T) {
	_, err := dayvalue.Encode(nil)
	require.Error(t, err)
}

func TestDecodeUnknownTagFails(t *testing.T) {
	_, _, err := dayvalue.Decode([]byte{0x02, 0x00}, 0)
	require.Error(t, err)
}

func TestEncodeRunLengthOverflow(t *testing.T) {
	values := make([]string, 0, 600)
	for i := 0; i < 600; i++ {
		values = append(values, "A")
	}

	block, err := dayvalue.Encode(values)
	require.NoError(t, err)

	decoded, _, err := dayvalue.Decode(block, len(values))
	require.NoError(t, err)
	require.Equal(t, values, decoded)
}

func TestDecodeConsumedLeavesTrailingBytesUntouched(t *testing.T) {
	values := []string{"A", "A", "A", "B"}
	block, err := dayvalue.Encode(values)
	require.NoError(t, err)

	trailer := []byte{0xDE, 0xAD, 0xBE, 0xEF}
	combined := append(append([]byte{}, block...), trailer...)

	decoded, consumed, err := dayvalue.Decode(combined, len(values))
	require.NoError(t, err)
	require.Equal(t, values, decoded)
	require.Equal(t, combined[consumed:], trailer)
}

// TestDecodeStopsAtOwnValueCountEvenWhenTrailerLooksLikeARunContinuation
// covers a dict/RLE block embedded in a multi-block page whose very next
// byte pair happens to equal the final run's (length, key index): the
// decoder must stop at this block's own declared value count rather than
// reading into the following block's bytes.
func TestDecodeStopsAtOwnValueCountEvenWhenTrailerLooksLikeARunContinuation(t *testing.T) {
	// 2 distinct of 11 values (about 0.18) keeps this below the 0.2
	// threshold, so Encode picks dictionary/RLE.
	values := []string{"A", "A", "A", "A", "A", "A", "A", "A", "A", "A", "B"}
	block, err := dayvalue.Encode(values)
	require.NoError(t, err)
	require.Equal(t, byte(0x00), block[0])

	lastIdx := block[len(block)-1]
	trailer := []byte{0x07, lastIdx, 0x99, 0x99}
	combined := append(append([]byte{}, block...), trailer...)

	decoded, consumed, err := dayvalue.Decode(combined, len(values))
	require.NoError(t, err)
	require.Equal(t, values, decoded)
	require.Equal(t, len(block), consumed)
	require.Equal(t, combined[consumed:], trailer)
}
