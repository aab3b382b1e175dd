// Package header decodes the dynamic (BTYPE=10) block header: the
// HLIT/HDIST/HCLEN counts, the code-length alphabet used to compress the
// two real codebooks, and the literal/length and distance code-length
// vectors themselves.
package header

import (
	"errors"
	"fmt"

	"github.com/coreos/gunzip/bitio"
	"github.com/coreos/gunzip/huffman"
)

// ErrBadRepeat is returned when a code-length repeat symbol (16, 17 or
// 18) asks for more repetitions than the remaining length vector has
// room for, or symbol 16 appears before any length has been recorded.
var ErrBadRepeat = errors.New("header: invalid code-length repeat")

// maxLit is the largest legal HLIT value's resulting literal/length
// alphabet size: the 286 real symbols 0..285 (the reserved symbols 286
// and 287 are never transmitted).
const maxLit = 286

// numCodeLengthCodes is the size of the code-length alphabet used to
// transmit the two real code-length vectors.
const numCodeLengthCodes = 19

// codeOrder is the fixed, historical order in which the 19 code-length
// alphabet's own code lengths are transmitted, unrelated to the order
// those symbols are later decoded in.
var codeOrder = [numCodeLengthCodes]int{16, 17, 18, 0, 8, 7, 9, 6, 10, 5, 11, 4, 12, 3, 13, 2, 14, 1, 15}

// Dynamic holds the two codebooks a dynamic block header produces: one
// for literals and lengths, one for distances.
type Dynamic struct {
	Literal  *huffman.Codebook
	Distance *huffman.Codebook
}

// Read decodes a dynamic block header from br and builds the literal and
// distance codebooks it describes.
func Read(br *bitio.Reader) (*Dynamic, error) {
	hlit, err := br.Read(5)
	if err != nil {
		return nil, err
	}
	nlit := int(hlit) + 257
	if nlit > maxLit {
		return nil, fmt.Errorf("header: HLIT selects %d literal/length symbols, max %d", nlit, maxLit)
	}

	hdist, err := br.Read(5)
	if err != nil {
		return nil, err
	}
	ndist := int(hdist) + 1

	hclen, err := br.Read(4)
	if err != nil {
		return nil, err
	}
	nclen := int(hclen) + 4

	var codeLenLengths [numCodeLengthCodes]int
	for i := 0; i < nclen; i++ {
		v, err := br.Read(3)
		if err != nil {
			return nil, err
		}
		codeLenLengths[codeOrder[i]] = int(v)
	}
	// Remaining entries in codeOrder (when HCLEN transmits fewer than
	// all 19) are implicitly absent.

	codeLenBook, err := huffman.Build(codeLenLengths[:])
	if err != nil {
		return nil, fmt.Errorf("header: code-length codebook: %w", err)
	}

	total := nlit + ndist
	lengths := make([]int, total)
	for i := 0; i < total; {
		sym, err := codeLenBook.Decode(br)
		if err != nil {
			return nil, err
		}
		switch {
		case sym < 16:
			lengths[i] = sym
			i++
		case sym == 16:
			if i == 0 {
				return nil, ErrBadRepeat
			}
			n, err := readRepeat(br, 2, 3)
			if err != nil {
				return nil, err
			}
			if i+n > total {
				return nil, ErrBadRepeat
			}
			prev := lengths[i-1]
			for j := 0; j < n; j++ {
				lengths[i] = prev
				i++
			}
		case sym == 17:
			n, err := readRepeat(br, 3, 3)
			if err != nil {
				return nil, err
			}
			if i+n > total {
				return nil, ErrBadRepeat
			}
			for j := 0; j < n; j++ {
				lengths[i] = 0
				i++
			}
		case sym == 18:
			n, err := readRepeat(br, 7, 11)
			if err != nil {
				return nil, err
			}
			if i+n > total {
				return nil, ErrBadRepeat
			}
			for j := 0; j < n; j++ {
				lengths[i] = 0
				i++
			}
		default:
			return nil, fmt.Errorf("header: %w: code-length symbol %d out of range", ErrBadRepeat, sym)
		}
	}

	literal, err := huffman.Build(lengths[:nlit])
	if err != nil {
		return nil, fmt.Errorf("header: literal/length codebook: %w", err)
	}
	distance, err := huffman.Build(lengths[nlit:])
	if err != nil {
		return nil, fmt.Errorf("header: distance codebook: %w", err)
	}
	return &Dynamic{Literal: literal, Distance: distance}, nil
}

// readRepeat reads an nbits-wide extra count and adds it to base,
// implementing the 16/17/18 repeat-symbol extra-bits convention.
func readRepeat(br *bitio.Reader, nbits int, base int) (int, error) {
	extra, err := br.Read(nbits)
	if err != nil {
		return 0, err
	}
	return base + int(extra), nil
}
