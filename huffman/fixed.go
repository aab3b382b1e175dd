package huffman

import "sync"

// FixedLiteralLengths returns the fixed (BTYPE=01) literal/length code
// lengths DEFLATE hard-codes: 288 symbols split into four bands of 8, 9,
// 7 and 8 bits.
func FixedLiteralLengths() []int {
	lengths := make([]int, 288)
	for i := 0; i <= 143; i++ {
		lengths[i] = 8
	}
	for i := 144; i <= 255; i++ {
		lengths[i] = 9
	}
	for i := 256; i <= 279; i++ {
		lengths[i] = 7
	}
	for i := 280; i <= 287; i++ {
		lengths[i] = 8
	}
	return lengths
}

// FixedDistanceLengths returns the fixed (BTYPE=01) distance code
// lengths: all 30 distance symbols get a flat 5-bit code.
func FixedDistanceLengths() []int {
	lengths := make([]int, 30)
	for i := range lengths {
		lengths[i] = 5
	}
	return lengths
}

// fixedLiteral and fixedDistance are the shared, lazily-built codebooks
// for fixed (BTYPE=01) blocks: the lengths never change, so every fixed
// block in every stream reuses the same two tables. fixedOnce guards
// their construction so concurrent first calls to Fixed from separate
// decoders don't race on the read-modify-write of the two package vars.
var (
	fixedOnce     sync.Once
	fixedLiteral  *Codebook
	fixedDistance *Codebook
)

// Fixed returns the codebook pair DEFLATE's fixed (BTYPE=01) block type
// uses, building them once on first use.
func Fixed() (literal, distance *Codebook) {
	fixedOnce.Do(func() {
		// Build cannot fail on these hard-coded, known-valid length
		// vectors; a panic here would mean this package itself is broken.
		lit, err := Build(FixedLiteralLengths())
		if err != nil {
			panic(err)
		}
		dist, err := Build(FixedDistanceLengths())
		if err != nil {
			panic(err)
		}
		fixedLiteral, fixedDistance = lit, dist
	})
	return fixedLiteral, fixedDistance
}
