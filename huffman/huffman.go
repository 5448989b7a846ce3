// Package huffman builds and applies prefix-free Huffman codes over
// arbitrary string symbols, the high-cardinality fallback the dayvalue
// codec reaches for when dictionary/RLE encoding would not pay off.
package huffman

import (
	"container/heap"
	"sort"
	"strings"

	"github.com/mitchpaulus/stsd/errs"
)

// Code is one symbol's assigned bit string.
type Code struct {
	Symbol string
	Bits   string
}

// Table is a built or reconstructed Huffman code table. It supports
// encoding a symbol sequence to bits and decoding bits back to symbols.
type Table struct {
	Codes []Code

	encode map[string]string
	decode map[string]string
}

// Build constructs a Table from a symbol frequency map. Every count must be
// positive; counts has at least one entry.
//
// With a single symbol, the general algorithm below would assign it the
// empty code, which callers cannot pack or walk a bitstream against, so
// that case is special-cased to code "0".
func Build(counts map[string]int) (Table, error) {
	symbols := make([]string, 0, len(counts))
	for s := range counts {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)

	if len(symbols) == 1 {
		return newTable([]Code{{Symbol: symbols[0], Bits: "0"}})
	}

	h := make(nodeHeap, 0, len(symbols))
	for i, s := range symbols {
		h = append(h, &node{symbol: s, freq: counts[s], leaf: true, seq: i})
	}
	heap.Init(&h)

	seq := len(h)
	for h.Len() > 1 {
		left := heap.Pop(&h).(*node)
		right := heap.Pop(&h).(*node)
		seq++
		heap.Push(&h, &node{freq: left.freq + right.freq, left: left, right: right, seq: seq})
	}

	root := h[0]

	var codes []Code
	var walk func(n *node, prefix string)
	walk = func(n *node, prefix string) {
		if n.leaf {
			codes = append(codes, Code{Symbol: n.symbol, Bits: prefix})
			return
		}
		walk(n.left, prefix+"0")
		walk(n.right, prefix+"1")
	}
	walk(root, "")

	return newTable(codes)
}

// TableFromCodes reconstructs a Table from an already-built code list, as
// the decode path does after reading a code table off disk.
func TableFromCodes(codes []Code) (Table, error) {
	return newTable(codes)
}

func newTable(codes []Code) (Table, error) {
	encode := make(map[string]string, len(codes))
	decode := make(map[string]string, len(codes))

	for _, c := range codes {
		if len(c.Bits) > 255 {
			return Table{}, errs.ErrCodeTooLong
		}
		encode[c.Symbol] = c.Bits
		decode[c.Bits] = c.Symbol
	}

	return Table{Codes: codes, encode: encode, decode: decode}, nil
}

// Encode maps each symbol to its code and concatenates the result.
func (t Table) Encode(symbols []string) (string, error) {
	var b strings.Builder
	for _, s := range symbols {
		code, ok := t.encode[s]
		if !ok {
			return "", errs.ErrUnknownSymbol
		}
		b.WriteString(code)
	}

	return b.String(), nil
}

// Decode walks bits, emitting a symbol each time the accumulated buffer
// matches a code in the table, and clearing the buffer.
func (t Table) Decode(bits string) []string {
	var symbols []string
	var buf strings.Builder

	for _, bit := range bits {
		buf.WriteByte(byte(bit))
		if symbol, ok := t.decode[buf.String()]; ok {
			symbols = append(symbols, symbol)
			buf.Reset()
		}
	}

	return symbols
}

// node is a tagged-union Huffman tree node: either a leaf carrying a symbol
// or an internal node carrying two children.
type node struct {
	symbol string
	freq   int
	leaf   bool
	left   *node
	right  *node
	seq    int
}

// nodeHeap is a min-heap of *node ordered by frequency, with insertion
// sequence as a deterministic tie-breaker so repeated builds over the same
// input produce the same tree.
type nodeHeap []*node

func (h nodeHeap) Len() int { return len(h) }
func (h nodeHeap) Less(i, j int) bool {
	if h[i].freq != h[j].freq {
		return h[i].freq < h[j].freq
	}
	return h[i].seq < h[j].seq
}
func (h nodeHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *nodeHeap) Push(x any) {
	*h = append(*h, x.(*node))
}

func (h *nodeHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
