package bitset_test

import (
	"testing"

	"github.com/mitchpaulus/stsd/bitset"
	"github.com/stretchr/testify/require"
)

func TestPack(t *testing.T) {
	cases := []struct {
		name string
		bits string
		want []byte
	}{
		{"empty", "", []byte{}},
		{"single byte", "10110000", []byte{0b10110000}},
		{"right pad", "1011", []byte{0b10110000}},
		{"two bytes", "1111111100000001", []byte{0xFF, 0x01}},
		{"spanning pad", "101", []byte{0b10100000}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, bitset.Pack(tc.bits))
		})
	}
}

func TestUnpack(t *testing.T) {
	require.Equal(t, "10110000", bitset.Unpack([]byte{0b10110000}))
	require.Equal(t, "1111111100000001", bitset.Unpack([]byte{0xFF, 0x01}))
	require.Equal(t, "", bitset.Unpack(nil))
}

func TestPackUnpackRoundTrip(t *testing.T) {
	bits := "110010101100111100010000"
	packed := bitset.Pack(bits)
	unpacked := bitset.Unpack(packed)
	// unpacked is right-padded to a multiple of 8; truncate to compare.
	require.Equal(t, bits, unpacked[:len(bits)])
}
