// Package deflate decodes a raw DEFLATE (RFC 1951) bit stream: the
// BFINAL/BTYPE block loop, stored blocks, and Huffman-coded blocks with
// their literal/length/distance back-reference expansion.
package deflate

import (
	"errors"
	"fmt"
	"io"

	"github.com/coreos/gunzip/bitio"
	"github.com/coreos/gunzip/header"
	"github.com/coreos/gunzip/huffman"
	"github.com/coreos/gunzip/window"
)

// ErrReservedBlockType is returned when a block's BTYPE field is 3, the
// value RFC 1951 reserves and never assigns a meaning.
var ErrReservedBlockType = errors.New("deflate: reserved block type 3")

// ErrBadStoredLength is returned when a stored (BTYPE=00) block's LEN and
// NLEN fields are not one's complements of each other.
var ErrBadStoredLength = errors.New("deflate: stored block LEN/NLEN mismatch")

// ErrBadSymbol is returned when the literal/length codebook yields a
// symbol outside 0..285.
var ErrBadSymbol = errors.New("deflate: literal/length symbol out of range")

// ErrBadDistance is returned when a distance codebook yields a symbol
// outside 0..29. A back-reference that reaches further back than any
// byte yet produced fails with window.ErrBadDistance instead, returned
// unchanged from Window.CopyBack.
var ErrBadDistance = errors.New("deflate: distance symbol out of range")

// lengthBase and lengthExtraBits give, for length symbols 257..285 (index
// 0..28), the base length and the count of extra bits following the
// symbol that are added to it.
var lengthBase = [29]int{
	3, 4, 5, 6, 7, 8, 9, 10, 11, 13, 15, 17, 19, 23, 27, 31,
	35, 43, 51, 59, 67, 83, 99, 115, 131, 163, 195, 227, 258,
}

var lengthExtraBits = [29]int{
	0, 0, 0, 0, 0, 0, 0, 0, 1, 1, 1, 1, 2, 2, 2, 2,
	3, 3, 3, 3, 4, 4, 4, 4, 5, 5, 5, 5, 0,
}

// distBase and distExtraBits give, for distance symbols 0..29, the base
// distance and the count of following extra bits.
var distBase = [30]int{
	1, 2, 3, 4, 5, 7, 9, 13, 17, 25, 33, 49, 65, 97, 129, 193,
	257, 385, 513, 769, 1025, 1537, 2049, 3073, 4097, 6145,
	8193, 12289, 16385, 24577,
}

var distExtraBits = [30]int{
	0, 0, 0, 0, 1, 1, 2, 2, 3, 3, 4, 4, 5, 5, 6, 6,
	7, 7, 8, 8, 9, 9, 10, 10, 11, 11, 12, 12, 13, 13,
}

// Decoder decodes a sequence of DEFLATE blocks, writing the decompressed
// stream to Sink and resolving back-references against a shared Window.
type Decoder struct {
	br   *bitio.Reader
	win  *window.Window
	sink io.Writer
}

// NewDecoder returns a Decoder reading compressed bits from br, resolving
// back-references against win, and writing decompressed output to sink.
// The caller owns br and win; reusing a Window across a gzip header's
// worth of blocks is what lets back-references reach across block
// boundaries.
func NewDecoder(br *bitio.Reader, win *window.Window, sink io.Writer) *Decoder {
	return &Decoder{br: br, win: win, sink: sink}
}

// Run decodes blocks until BFINAL is set on a block that has been fully
// processed, or an error occurs.
func (d *Decoder) Run() error {
	for {
		final, err := d.Step()
		if err != nil {
			return err
		}
		if final {
			return nil
		}
	}
}

// BitReader returns the decoder's underlying bit source. The index
// package uses it to snapshot and restore mid-stream decode position for
// random access.
func (d *Decoder) BitReader() *bitio.Reader { return d.br }

// Window returns the decoder's sliding window. The index package uses it
// to snapshot and restore back-reference state for random access.
func (d *Decoder) Window() *window.Window { return d.win }

// Step decodes exactly one DEFLATE block and reports whether it was
// marked final (BFINAL=1). Callers that need a checkpoint between blocks
// (the index package) drive the stream with Step directly instead of
// Run.
func (d *Decoder) Step() (final bool, err error) {
	bfinal, err := d.br.Read(1)
	if err != nil {
		return false, err
	}
	btype, err := d.br.Read(2)
	if err != nil {
		return false, err
	}

	switch btype {
	case 0:
		if err := d.stored(); err != nil {
			return false, err
		}
	case 1:
		lit, dist := huffman.Fixed()
		if err := d.huffmanBlock(lit, dist); err != nil {
			return false, err
		}
	case 2:
		dyn, err := header.Read(d.br)
		if err != nil {
			return false, err
		}
		if err := d.huffmanBlock(dyn.Literal, dyn.Distance); err != nil {
			return false, err
		}
	default:
		return false, ErrReservedBlockType
	}
	return bfinal == 1, nil
}

// stored decodes a BTYPE=00 block: align to a byte boundary, read LEN and
// its one's-complement NLEN, then copy LEN raw bytes through the window
// to the sink.
func (d *Decoder) stored() error {
	d.br.Align()
	lenLo, err := d.br.ReadByte()
	if err != nil {
		return err
	}
	lenHi, err := d.br.ReadByte()
	if err != nil {
		return err
	}
	nlenLo, err := d.br.ReadByte()
	if err != nil {
		return err
	}
	nlenHi, err := d.br.ReadByte()
	if err != nil {
		return err
	}
	length := uint16(lenLo) | uint16(lenHi)<<8
	nlength := uint16(nlenLo) | uint16(nlenHi)<<8
	if nlength != ^length {
		return ErrBadStoredLength
	}

	buf := make([]byte, 4096)
	remaining := int(length)
	for remaining > 0 {
		n := len(buf)
		if n > remaining {
			n = remaining
		}
		if _, err := io.ReadFull(d.br.Underlying(), buf[:n]); err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				err = bitio.ErrTruncated
			}
			return fmt.Errorf("deflate: stored block body: %w", err)
		}
		d.br.Roffset += int64(n)
		for _, b := range buf[:n] {
			d.win.Push(b)
		}
		if _, err := d.sink.Write(buf[:n]); err != nil {
			return err
		}
		remaining -= n
	}
	return nil
}

// huffmanBlock decodes a Huffman-coded block (fixed or dynamic) using the
// given literal/length and distance codebooks.
func (d *Decoder) huffmanBlock(lit, dist *huffman.Codebook) error {
	for {
		sym, err := lit.Decode(d.br)
		if err != nil {
			return err
		}
		switch {
		case sym < 256:
			d.win.Push(byte(sym))
			if _, err := d.sink.Write([]byte{byte(sym)}); err != nil {
				return err
			}
		case sym == 256:
			return nil
		case sym <= 285:
			length, err := d.readLength(sym)
			if err != nil {
				return err
			}
			distance, err := d.readDistance(dist)
			if err != nil {
				return err
			}
			if err := d.win.CopyBack(d.sink, length, distance); err != nil {
				return err
			}
		default:
			return ErrBadSymbol
		}
	}
}

func (d *Decoder) readLength(sym int) (int, error) {
	idx := sym - 257
	if idx < 0 || idx >= len(lengthBase) {
		return 0, ErrBadSymbol
	}
	length := lengthBase[idx]
	if n := lengthExtraBits[idx]; n > 0 {
		extra, err := d.br.Read(n)
		if err != nil {
			return 0, err
		}
		length += int(extra)
	}
	return length, nil
}

func (d *Decoder) readDistance(dist *huffman.Codebook) (int, error) {
	sym, err := dist.Decode(d.br)
	if err != nil {
		return 0, err
	}
	if sym < 0 || sym >= len(distBase) {
		return 0, ErrBadDistance
	}
	distance := distBase[sym]
	if n := distExtraBits[sym]; n > 0 {
		extra, err := d.br.Read(n)
		if err != nil {
			return 0, err
		}
		distance += int(extra)
	}
	return distance, nil
}
