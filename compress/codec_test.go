package compress_test

import (
	"testing"

	"github.com/mitchpaulus/stsd/compress"
	"github.com/mitchpaulus/stsd/format"
	"github.com/stretchr/testify/require"
)

func TestCodecRoundTrip(t *testing.T) {
	payload := []byte("the quick brown fox jumps over the lazy dog, repeated: " +
		"the quick brown fox jumps over the lazy dog")

	cases := []struct {
		name string
		typ  format.CompressionType
	}{
		{"none", format.CompressionNone},
		{"s2", format.CompressionS2},
		{"lz4", format.CompressionLZ4},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			codec, err := compress.GetCodec(tc.typ)
			require.NoError(t, err)

			compressed, err := codec.Compress(payload)
			require.NoError(t, err)

			restored, err := codec.Decompress(compressed)
			require.NoError(t, err)
			require.Equal(t, payload, restored)
		})
	}
}

func TestCodecRoundTripEmpty(t *testing.T) {
	codec, err := compress.GetCodec(format.CompressionS2)
	require.NoError(t, err)

	compressed, err := codec.Compress(nil)
	require.NoError(t, err)

	restored, err := codec.Decompress(compressed)
	require.NoError(t, err)
	require.Empty(t, restored)
}

func TestGetCodecUnknown(t *testing.T) {
	_, err := compress.GetCodec(format.CompressionType(0xFF))
	require.Error(t, err)
}
