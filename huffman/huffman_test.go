package huffman

import (
	"bytes"
	"errors"
	"testing"

	"github.com/coreos/gunzip/bitio"
)

// writeBits is a small test helper that packs MSB-first code words (as
// produced by a canonical Huffman assignment) into an LSB-first byte
// stream, the same transmission order bitio.Reader expects.
type bitWriter struct {
	buf  []byte
	cur  byte
	nbit uint
}

func (w *bitWriter) writeBits(code, n int) {
	for i := n - 1; i >= 0; i-- {
		bit := byte((code >> uint(i)) & 1)
		w.cur |= bit << w.nbit
		w.nbit++
		if w.nbit == 8 {
			w.buf = append(w.buf, w.cur)
			w.cur = 0
			w.nbit = 0
		}
	}
}

func (w *bitWriter) bytes() []byte {
	if w.nbit > 0 {
		return append(append([]byte{}, w.buf...), w.cur)
	}
	return w.buf
}

// A small canonical code over 5 symbols, lengths {2,2,2,3,3} (a textbook
// complete code): symbol 0,1,2 get 2-bit codes 00,01,10; symbols 3,4 get
// 3-bit codes 110,111.
func textbookLengths() []int { return []int{2, 2, 2, 3, 3} }

func textbookCodes() map[int]struct{ code, n int } {
	return map[int]struct{ code, n int }{
		0: {0, 2},
		1: {1, 2},
		2: {2, 2},
		3: {6, 3},
		4: {7, 3},
	}
}

func TestDecodeTextbookCode(t *testing.T) {
	cb, err := Build(textbookLengths())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	codes := textbookCodes()
	var w bitWriter
	order := []int{0, 1, 2, 3, 4, 2, 0}
	for _, sym := range order {
		c := codes[sym]
		w.writeBits(c.code, c.n)
	}
	br := bitio.NewReader(bytes.NewReader(w.bytes()))
	for _, want := range order {
		got, err := cb.Decode(br)
		if err != nil {
			t.Fatalf("Decode: %v", err)
		}
		if got != want {
			t.Fatalf("Decode = %d, want %d", got, want)
		}
	}
}

func TestBuildRejectsOverSubscribedLengths(t *testing.T) {
	// Three symbols all claiming the shortest 1-bit code: no valid
	// prefix assignment exists.
	_, err := Build([]int{1, 1, 1})
	if !errors.Is(err, ErrMalformedCodebook) {
		t.Fatalf("Build over-subscribed = %v, want ErrMalformedCodebook", err)
	}
}

func TestBuildAcceptsDegenerateSingleSymbol(t *testing.T) {
	// A single symbol with a 1-bit code leaves half the code space
	// unused (under-subscribed), which Build must still accept.
	cb, err := Build([]int{1})
	if err != nil {
		t.Fatalf("Build single-symbol: %v", err)
	}
	var w bitWriter
	w.writeBits(0, 1)
	br := bitio.NewReader(bytes.NewReader(w.bytes()))
	got, err := cb.Decode(br)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got != 0 {
		t.Fatalf("Decode = %d, want 0", got)
	}
}

func TestEmptyCodebookAlwaysFails(t *testing.T) {
	cb, err := Build([]int{0, 0, 0})
	if err != nil {
		t.Fatalf("Build all-zero: %v", err)
	}
	br := bitio.NewReader(bytes.NewReader([]byte{0xff}))
	if _, err := cb.Decode(br); !errors.Is(err, ErrBadCode) {
		t.Fatalf("Decode on empty codebook = %v, want ErrBadCode", err)
	}
}

func TestDecodeTruncatedInputPropagatesError(t *testing.T) {
	cb, err := Build(textbookLengths())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	br := bitio.NewReader(bytes.NewReader(nil))
	if _, err := cb.Decode(br); !errors.Is(err, bitio.ErrTruncated) {
		t.Fatalf("Decode on empty stream = %v, want ErrTruncated", err)
	}
}

// A code requiring the overflow link table: one leaf at every depth
// from 1 to 10 plus two leaves at depth 11 (past chunkBits=9), which
// exercises the indirect-table path while keeping the tree complete.
func TestDecodeExercisesOverflowLinkTable(t *testing.T) {
	lengths := []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 11}
	// Verify completeness via the exact integer Kraft sum, avoiding any
	// floating-point rounding in the check itself.
	const maxLen = 11
	total := 0
	for _, l := range lengths {
		total += 1 << uint(maxLen-l)
	}
	if total != 1<<uint(maxLen) {
		t.Fatalf("fixture not a complete code, kraft sum=%d, want %d", total, 1<<uint(maxLen))
	}

	cb, err := Build(lengths)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	// Recompute canonical codes to drive a round trip for every symbol.
	var count [MaxBits + 1]int
	max := 0
	for _, l := range lengths {
		count[l]++
		if l > max {
			max = l
		}
	}
	var next [MaxBits + 1]int
	code := 0
	for l := 1; l <= max; l++ {
		code <<= 1
		next[l] = code
		code += count[l]
	}

	var w bitWriter
	for _, l := range lengths {
		c := next[l]
		next[l]++
		w.writeBits(c, l)
	}
	br := bitio.NewReader(bytes.NewReader(w.bytes()))
	for sym := range lengths {
		got, err := cb.Decode(br)
		if err != nil {
			t.Fatalf("Decode symbol %d: %v", sym, err)
		}
		if got != sym {
			t.Fatalf("Decode = %d, want %d", got, sym)
		}
	}
}
