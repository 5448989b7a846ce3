// Package dayvalue encodes and decodes the ordered list of string values
// observed on a single day into a self-describing byte block, choosing
// between dictionary/run-length encoding and Huffman coding based on how
// repetitive the values are.
//
// The block's own first byte names its encoding, in the same self-
// describing style mebo/blob.TextEncoder uses for its payloads, so Decode
// never needs to be told which path Encode took. Decode does need the
// caller to supply the day's observation count: the dictionary/RLE layout
// has no length field of its own (see Decode), and a data page packs
// several day blocks back to back with nothing between them, so the
// decoder cannot find a block's end from its bytes alone.
package dayvalue

import (
	"fmt"
	"strings"

	"github.com/mitchpaulus/stsd/bitset"
	"github.com/mitchpaulus/stsd/endian"
	"github.com/mitchpaulus/stsd/errs"
	"github.com/mitchpaulus/stsd/huffman"
	"github.com/mitchpaulus/stsd/internal/pool"
)

// be is the wire byte order for the Huffman bit-count field.
var be = endian.GetBigEndianEngine()

const (
	tagDictRLE byte = 0x00
	tagHuffman byte = 0x01
)

// dictCardinalityThreshold is the fraction of distinct-to-total values
// below which dictionary/RLE is chosen over Huffman.
const dictCardinalityThreshold = 0.2

// recordSeparator joins values into a single text stream for Huffman
// coding; it never appears in a legitimate observation value.
const recordSeparator = "\x1E"

// Encode applies dictionary/RLE coding to values (the day's values, in
// caller-supplied order) when the ratio of distinct to total values is below
// dictCardinalityThreshold, and Huffman coding otherwise, and returns the
// resulting self-describing block.
func Encode(values []string) ([]byte, error) {
	if len(values) == 0 {
		return nil, errs.ErrNoDataPoints
	}

	keys := make([]string, 0)
	keyIndex := make(map[string]int)
	runs := make([]run, 0)

	var prev string
	hasPrev := false
	runLen := 0

	for _, v := range values {
		if _, ok := keyIndex[v]; !ok {
			keyIndex[v] = len(keys)
			keys = append(keys, v)
		}

		if !hasPrev || v != prev {
			if hasPrev {
				runs = append(runs, run{value: prev, length: runLen})
			}
			prev = v
			hasPrev = true
			runLen = 1
		} else {
			runLen++
		}
	}
	runs = append(runs, run{value: prev, length: runLen})

	percentUnique := float64(len(keys)) / float64(len(values))

	if percentUnique < dictCardinalityThreshold {
		return encodeDictRLE(keys, keyIndex, runs)
	}

	return encodeHuffman(values)
}

type run struct {
	value  string
	length int
}

func encodeDictRLE(keys []string, keyIndex map[string]int, runs []run) ([]byte, error) {
	if len(keys) >= 256 {
		return nil, fmt.Errorf("%w: %d distinct values", errs.ErrTooManyDistinctValues, len(keys))
	}
	for _, k := range keys {
		if len(k) > 255 {
			return nil, fmt.Errorf("%w: %q is %d bytes", errs.ErrValueTooLong, k, len(k))
		}
	}
	if len(runs) >= 256 {
		return nil, fmt.Errorf("%w: %d runs", errs.ErrTooManyDistinctValues, len(runs))
	}

	buf := pool.GetBlobBuffer()
	defer pool.PutBlobBuffer(buf)

	buf.MustWrite([]byte{tagDictRLE, byte(len(keys))})
	for _, k := range keys {
		buf.MustWrite([]byte{byte(len(k))})
		buf.MustWrite([]byte(k))
	}

	buf.MustWrite([]byte{byte(len(runs))})
	for _, r := range runs {
		length := r.length
		idx := byte(keyIndex[r.value])
		for length > 255 {
			buf.MustWrite([]byte{255, idx})
			length -= 255
		}
		buf.MustWrite([]byte{byte(length), idx})
	}

	out := make([]byte, buf.Len())
	copy(out, buf.Bytes())
	return out, nil
}

func encodeHuffman(values []string) ([]byte, error) {
	text := strings.Join(values, recordSeparator)

	counts := make(map[string]int)
	for _, r := range text {
		counts[string(r)]++
	}
	if len(counts) >= 256 {
		return nil, fmt.Errorf("%w: %d distinct symbols", errs.ErrTooManySymbols, len(counts))
	}

	table, err := huffman.Build(counts)
	if err != nil {
		return nil, err
	}

	runes := make([]string, 0, len(text))
	for _, r := range text {
		runes = append(runes, string(r))
	}

	dataBits, err := table.Encode(runes)
	if err != nil {
		return nil, err
	}
	if len(dataBits) > 65535 {
		return nil, fmt.Errorf("%w: %d bits", errs.ErrDataBitstreamTooLarge, len(dataBits))
	}

	buf := pool.GetBlobBuffer()
	defer pool.PutBlobBuffer(buf)

	buf.MustWrite([]byte{tagHuffman, byte(len(table.Codes))})

	var codeBits strings.Builder
	for _, c := range table.Codes {
		if len(c.Bits) > 255 {
			return nil, fmt.Errorf("%w: %d bits", errs.ErrCodeTooLong, len(c.Bits))
		}
		buf.MustWrite([]byte{byte(len(c.Symbol))})
		buf.MustWrite([]byte(c.Symbol))
		buf.MustWrite([]byte{byte(len(c.Bits))})
		codeBits.WriteString(c.Bits)
	}
	buf.MustWrite(bitset.Pack(codeBits.String()))

	var numBits [2]byte
	be.PutUint16(numBits[:], uint16(len(dataBits)))
	buf.MustWrite(numBits[:])
	buf.MustWrite(bitset.Pack(dataBits))

	out := make([]byte, buf.Len())
	copy(out, buf.Bytes())
	return out, nil
}

// Decode parses one self-describing value block from the front of data and
// returns the decoded values along with the number of bytes consumed.
//
// expectedValues is the number of observations the block is known to hold
// (the caller recovers this from the day's template minute count before
// decoding). The dictionary/RLE layout has no value-count field of its
// own: a run longer than 255 is split into several (length, key index)
// chunks, and nothing in a bare chunk distinguishes "more chunks of this
// run follow" from "the next block's bytes happen to start here" when data
// holds more than one block concatenated back to back. Stopping once
// expectedValues values have been emitted is the only boundary the decoder
// can trust in that case.
func Decode(data []byte, expectedValues int) (values []string, consumed int, err error) {
	if len(data) == 0 {
		return nil, 0, fmt.Errorf("%w: empty block", errs.ErrCorruptBlock)
	}

	switch data[0] {
	case tagDictRLE:
		return decodeDictRLE(data, expectedValues)
	case tagHuffman:
		return decodeHuffman(data, expectedValues)
	default:
		return nil, 0, fmt.Errorf("%w: 0x%02x", errs.ErrUnknownEncodingTag, data[0])
	}
}

func decodeDictRLE(data []byte, expectedValues int) ([]string, int, error) {
	if len(data) < 2 {
		return nil, 0, fmt.Errorf("%w: truncated dictionary header", errs.ErrCorruptBlock)
	}

	keyCount := int(data[1])
	pos := 2

	keys := make([]string, 0, keyCount)
	for i := 0; i < keyCount; i++ {
		if pos >= len(data) {
			return nil, 0, fmt.Errorf("%w: truncated dictionary key", errs.ErrCorruptBlock)
		}
		klen := int(data[pos])
		pos++
		if pos+klen > len(data) {
			return nil, 0, fmt.Errorf("%w: truncated dictionary key bytes", errs.ErrCorruptBlock)
		}
		keys = append(keys, string(data[pos:pos+klen]))
		pos += klen
	}

	if pos >= len(data) {
		return nil, 0, fmt.Errorf("%w: truncated run count", errs.ErrCorruptBlock)
	}
	runCount := int(data[pos])
	pos++

	// The layout carries no explicit value-count field (R is the logical-
	// run count, not a byte length): a run longer than 255 is split into
	// several (255, idx) chunks plus a final shorter chunk, and nothing in
	// a bare (length, idx) pair distinguishes "more chunks of this run
	// follow" from "the next block's bytes happen to start here" when data
	// holds more than one block concatenated back to back. expectedValues
	// — recovered by the caller from the day's template minute count,
	// which is always known before a block is decoded — is therefore the
	// only boundary this loop can trust; it stops as soon as it has
	// emitted that many values rather than inferring the end from the
	// bytes themselves.
	values := make([]string, 0, expectedValues)
	runsSeen := 0

	for len(values) < expectedValues {
		if pos+2 > len(data) {
			return nil, 0, fmt.Errorf("%w: truncated run", errs.ErrCorruptBlock)
		}

		length := int(data[pos])
		idx := int(data[pos+1])
		if idx >= len(keys) {
			return nil, 0, fmt.Errorf("%w: key index out of range", errs.ErrCorruptBlock)
		}
		pos += 2
		runsSeen++

		for i := 0; i < length; i++ {
			values = append(values, keys[idx])
		}
	}

	if len(values) != expectedValues {
		return nil, 0, fmt.Errorf("%w: run lengths sum to %d, expected %d", errs.ErrCorruptBlock, len(values), expectedValues)
	}
	if runsSeen < runCount {
		return nil, 0, fmt.Errorf("%w: saw %d run chunks, expected at least %d", errs.ErrCorruptBlock, runsSeen, runCount)
	}

	return values, pos, nil
}

func decodeHuffman(data []byte, expectedValues int) ([]string, int, error) {
	if len(data) < 2 {
		return nil, 0, fmt.Errorf("%w: truncated huffman header", errs.ErrCorruptBlock)
	}

	symbolCount := int(data[1])
	pos := 2

	symbols := make([]string, 0, symbolCount)
	codeLengths := make([]int, 0, symbolCount)

	for i := 0; i < symbolCount; i++ {
		if pos >= len(data) {
			return nil, 0, fmt.Errorf("%w: truncated symbol", errs.ErrCorruptBlock)
		}
		slen := int(data[pos])
		pos++
		if pos+slen+1 > len(data) {
			return nil, 0, fmt.Errorf("%w: truncated symbol bytes", errs.ErrCorruptBlock)
		}
		symbols = append(symbols, string(data[pos:pos+slen]))
		pos += slen
		codeLengths = append(codeLengths, int(data[pos]))
		pos++
	}

	totalCodeBits := 0
	for _, l := range codeLengths {
		totalCodeBits += l
	}
	codeByteLen := (totalCodeBits + 7) / 8
	if pos+codeByteLen > len(data) {
		return nil, 0, fmt.Errorf("%w: truncated code table", errs.ErrCorruptBlock)
	}
	codeBits := bitset.Unpack(data[pos : pos+codeByteLen])
	pos += codeByteLen

	codes := make([]huffman.Code, symbolCount)
	bitPos := 0
	for i, symbol := range symbols {
		l := codeLengths[i]
		codes[i] = huffman.Code{Symbol: symbol, Bits: codeBits[bitPos : bitPos+l]}
		bitPos += l
	}

	table, err := huffman.TableFromCodes(codes)
	if err != nil {
		return nil, 0, err
	}

	if pos+2 > len(data) {
		return nil, 0, fmt.Errorf("%w: truncated bit count", errs.ErrCorruptBlock)
	}
	numBits := int(be.Uint16(data[pos : pos+2]))
	pos += 2

	numBytes := (numBits + 7) / 8
	if pos+numBytes > len(data) {
		return nil, 0, fmt.Errorf("%w: truncated data bits", errs.ErrCorruptBlock)
	}
	dataBits := bitset.Unpack(data[pos : pos+numBytes])
	pos += numBytes

	runes := table.Decode(dataBits[:numBits])
	text := strings.Join(runes, "")
	values := strings.Split(text, recordSeparator)

	// The Huffman layout already self-terminates via numBits, so pos above
	// is trustworthy regardless of what follows in data. expectedValues is
	// still checked here as a corruption guard, consistent with the
	// dictionary/RLE path.
	if len(values) != expectedValues {
		return nil, 0, fmt.Errorf("%w: decoded %d values, expected %d", errs.ErrCorruptBlock, len(values), expectedValues)
	}

	return values, pos, nil
}
